// Package gateway holds payment gateway adapters.
package gateway

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"cabbooking/internal/domain"
	"cabbooking/internal/service"
)

// ErrNoReference is returned when refunding a payment that never reached Stripe.
var ErrNoReference = errors.New("payment has no gateway reference")

// Stripe charges riders through PaymentIntents. The intent carries the
// payment's transaction ID so webhook relays can report back by it.
type Stripe struct {
	checkoutURL string
}

// Ensure Stripe implements service.Gateway.
var _ service.Gateway = (*Stripe)(nil)

// NewStripe configures the Stripe client with secretKey. checkoutURL is the
// hosted page that confirms an intent given its client secret.
func NewStripe(secretKey, checkoutURL string) *Stripe {
	stripe.Key = secretKey
	return &Stripe{checkoutURL: checkoutURL}
}

func (s *Stripe) Name() string { return "STRIPE" }

// Initiate creates a PaymentIntent and returns its ID as the reference.
func (s *Stripe) Initiate(ctx context.Context, req service.GatewayRequest) (*service.GatewayInitiation, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinorUnits(req.Amount)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	params.AddMetadata("payment_id", req.PaymentID)
	params.AddMetadata("transaction_id", req.TransactionID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	return &service.GatewayInitiation{
		RedirectURL: s.redirectURL(pi.ClientSecret),
		Reference:   pi.ID,
	}, nil
}

func (s *Stripe) redirectURL(clientSecret string) string {
	return s.checkoutURL + "?client_secret=" + url.QueryEscape(clientSecret)
}

// Refund refunds the PaymentIntent recorded on the payment in full. Stripe
// replays the first result for a repeated idempotencyKey.
func (s *Stripe) Refund(ctx context.Context, payment *domain.Payment, idempotencyKey string) error {
	if payment.GatewayReference == "" {
		return ErrNoReference
	}
	params := refundParams(payment, idempotencyKey)
	params.Context = ctx

	_, err := refund.New(params)
	return err
}

func refundParams(payment *domain.Payment, idempotencyKey string) *stripe.RefundParams {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(payment.GatewayReference)}
	params.SetIdempotencyKey(idempotencyKey)
	params.AddMetadata("transaction_id", payment.TransactionID)
	return params
}

// ToMinorUnits converts an amount to the smallest currency unit.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
