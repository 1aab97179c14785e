package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
)

func TestToMinorUnits(t *testing.T) {
	t.Parallel()

	tests := map[float64]int64{
		0:        0,
		10:       1000,
		22.96:    2296,
		287.9873: 28799,
	}
	for in, want := range tests {
		assert.Equal(t, want, ToMinorUnits(in), in)
	}
}

func TestStripe_RefundWithoutReference(t *testing.T) {
	t.Parallel()

	s := &Stripe{checkoutURL: "https://pay.example.com/checkout"}
	err := s.Refund(context.Background(), &domain.Payment{ID: "pay-1"}, "refund-tx-1")
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestRefundParams(t *testing.T) {
	t.Parallel()

	params := refundParams(&domain.Payment{ID: "pay-1", TransactionID: "tx-1", GatewayReference: "pi_123"}, "refund-tx-1")

	require.NotNil(t, params.IdempotencyKey)
	assert.Equal(t, "refund-tx-1", *params.IdempotencyKey)
	assert.Equal(t, "pi_123", *params.PaymentIntent)
	assert.Equal(t, "tx-1", params.Metadata["transaction_id"])
}

func TestStripe_RedirectURL(t *testing.T) {
	t.Parallel()

	s := &Stripe{checkoutURL: "https://pay.example.com/checkout"}
	assert.Equal(t, "https://pay.example.com/checkout?client_secret=pi_123_secret_abc", s.redirectURL("pi_123_secret_abc"))
	assert.Equal(t, "STRIPE", s.Name())
}
