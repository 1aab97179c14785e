package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"cabbooking/internal/domain"
	"cabbooking/internal/logger"
	"cabbooking/internal/metrics"
	"cabbooking/internal/repository"
	"cabbooking/internal/service"
)

// RefundRequest asks the refund worker to refund a payment.
type RefundRequest struct {
	PaymentID   string    `json:"payment_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// RefundQueue enqueues refund requests on the refunds topic.
type RefundQueue struct {
	writer MessageWriter
}

// Ensure RefundQueue implements service.RefundQueue.
var _ service.RefundQueue = (*RefundQueue)(nil)

// NewRefundQueue creates a new RefundQueue.
func NewRefundQueue(w MessageWriter) *RefundQueue {
	return &RefundQueue{writer: w}
}

func (q *RefundQueue) EnqueueRefund(ctx context.Context, paymentID string) error {
	value, err := json.Marshal(RefundRequest{PaymentID: paymentID, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return q.writer.WriteMessages(ctx, kafka.Message{Key: []byte(paymentID), Value: value})
}

// Close flushes and closes the writer.
func (q *RefundQueue) Close() error {
	return q.writer.Close()
}

// MessageReader is the subset of kafka.Reader used by the consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader creates a consumer-group reader for topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Refunder settles one refund.
type Refunder interface {
	InitiateRefund(ctx context.Context, paymentID string) (*domain.Payment, error)
}

// RefundConsumer drains the refunds topic. A message is committed once the
// refund is done or can never succeed; transient failures are retried with
// backoff before the message is given up.
type RefundConsumer struct {
	reader      MessageReader
	refunder    Refunder
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

// NewRefundConsumer creates a new RefundConsumer.
func NewRefundConsumer(reader MessageReader, refunder Refunder, log *logger.Logger) *RefundConsumer {
	return &RefundConsumer{
		reader:      reader,
		refunder:    refunder,
		log:         log.Named("refund-consumer"),
		maxAttempts: 5,
		backoff:     time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// WithBackoff overrides the retry schedule.
func (c *RefundConsumer) WithBackoff(attempts int, initial, maxDelay time.Duration) *RefundConsumer {
	c.maxAttempts = attempts
	c.backoff = initial
	c.maxBackoff = maxDelay
	return c
}

// Run consumes until ctx is cancelled.
func (c *RefundConsumer) Run(ctx context.Context) error {
	backoff := c.backoff
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn("kafka fetch failed", logger.Err(err), logger.Any("backoff", backoff))
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.backoff

		c.handle(ctx, m)
		if ctx.Err() != nil {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.log.Error("kafka commit failed", logger.Int64("offset", m.Offset), logger.Err(err))
		}
	}
}

func (c *RefundConsumer) handle(ctx context.Context, m kafka.Message) {
	var req RefundRequest
	if err := json.Unmarshal(m.Value, &req); err != nil || req.PaymentID == "" {
		metrics.Refunds.WithLabelValues("invalid_message").Inc()
		c.log.Warn("invalid refund request", logger.Int64("offset", m.Offset), logger.Err(err))
		return
	}

	delay := c.backoff
	for attempt := 1; ; attempt++ {
		_, err := c.refunder.InitiateRefund(ctx, req.PaymentID)
		switch {
		case err == nil:
			c.log.Info("refund settled", logger.String("payment_id", req.PaymentID))
			return
		case errors.Is(err, service.ErrInvalidStateTransition):
			// Already refunded, or not refundable at all.
			c.log.Info("refund skipped", logger.String("payment_id", req.PaymentID), logger.Err(err))
			return
		case errors.Is(err, repository.ErrNotFound):
			c.log.Warn("refund for unknown payment", logger.String("payment_id", req.PaymentID))
			return
		}

		if attempt >= c.maxAttempts {
			c.log.Error("refund abandoned",
				logger.String("payment_id", req.PaymentID),
				logger.Int("attempts", attempt),
				logger.Err(err))
			return
		}
		c.log.Warn("refund failed, retrying",
			logger.String("payment_id", req.PaymentID),
			logger.Int("attempt", attempt),
			logger.Err(err))
		if !sleep(ctx, delay) {
			return
		}
		delay = min(delay*2, c.maxBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
