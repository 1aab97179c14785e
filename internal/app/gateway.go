package app

import (
	"cabbooking/internal/config"
	"cabbooking/internal/gateway"
	"cabbooking/internal/service"
)

// NewGateway returns the configured payment gateway.
func NewGateway(cfg config.GatewayConfig) service.Gateway {
	if cfg.Provider == "stripe" {
		return gateway.NewStripe(cfg.StripeSecretKey, cfg.CheckoutURL)
	}
	return service.NewMockGateway(cfg.MockRedirectURL)
}
