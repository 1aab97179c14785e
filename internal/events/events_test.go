package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
	"cabbooking/internal/events"
	"cabbooking/internal/logger"
	"cabbooking/internal/repository"
	"cabbooking/internal/service"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	pub := events.NewPublisher(w)

	ev := service.Event{
		Type:       service.EventBookingAccepted,
		BookingID:  "b-1",
		RiderID:    "rider-1",
		DriverID:   "driver-1",
		Status:     "ACCEPTED",
		OccurredAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "b-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "booking.accepted", string(msg.Headers[0].Value))

	var got service.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev, got)
}

func TestPublisher_PropagatesWriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker unavailable")
	pub := events.NewPublisher(&memWriter{err: boom})

	err := pub.Publish(context.Background(), service.Event{Type: service.EventBookingStarted, BookingID: "b-1"})
	assert.ErrorIs(t, err, boom)
}

func TestRefundQueue_Enqueue(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	q := events.NewRefundQueue(w)

	require.NoError(t, q.EnqueueRefund(context.Background(), "pay-1"))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "pay-1", string(w.msgs[0].Key))
	var req events.RefundRequest
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &req))
	assert.Equal(t, "pay-1", req.PaymentID)
	assert.False(t, req.RequestedAt.IsZero())
}

// chanReader serves queued messages and then blocks until cancelled.
type chanReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func newChanReader(values ...[]byte) *chanReader {
	r := &chanReader{msgs: make(chan kafka.Message, len(values))}
	for i, v := range values {
		r.msgs <- kafka.Message{Offset: int64(i), Value: v}
	}
	return r
}

func (r *chanReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *chanReader) Close() error { return nil }

func (r *chanReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type scriptedRefunder struct {
	mu      sync.Mutex
	results map[string][]error
	calls   map[string]int
}

func (s *scriptedRefunder) InitiateRefund(_ context.Context, id string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[id]++
	queue := s.results[id]
	if len(queue) == 0 {
		return &domain.Payment{ID: id, Status: domain.PaymentStatusRefunded}, nil
	}
	err := queue[0]
	s.results[id] = queue[1:]
	return nil, err
}

func (s *scriptedRefunder) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func refundMessage(t *testing.T, id string) []byte {
	t.Helper()
	b, err := json.Marshal(events.RefundRequest{PaymentID: id, RequestedAt: time.Now()})
	require.NoError(t, err)
	return b
}

func TestRefundConsumer(t *testing.T) {
	t.Parallel()

	transient := errors.New("gateway timeout")
	refunder := &scriptedRefunder{
		results: map[string][]error{
			"pay-retry":    {transient, transient},
			"pay-done":     {service.ErrInvalidStateTransition},
			"pay-missing":  {repository.ErrNotFound},
			"pay-hopeless": {transient, transient, transient, transient},
		},
		calls: map[string]int{},
	}
	reader := newChanReader(
		refundMessage(t, "pay-ok"),
		refundMessage(t, "pay-retry"),
		refundMessage(t, "pay-done"),
		[]byte("not json"),
		refundMessage(t, "pay-missing"),
		refundMessage(t, "pay-hopeless"),
	)

	consumer := events.NewRefundConsumer(reader, refunder, logger.NewNop()).
		WithBackoff(3, time.Millisecond, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 6 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, reader.commits())
	assert.Equal(t, 1, refunder.count("pay-ok"))
	assert.Equal(t, 3, refunder.count("pay-retry"))
	assert.Equal(t, 1, refunder.count("pay-done"))
	assert.Equal(t, 1, refunder.count("pay-missing"))
	assert.Equal(t, 3, refunder.count("pay-hopeless"))
}
