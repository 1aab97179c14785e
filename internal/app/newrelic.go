package app

import (
	"github.com/newrelic/go-agent/v3/newrelic"

	"cabbooking/internal/config"
	"cabbooking/internal/logger"
)

// NewNewRelic starts the New Relic agent. It returns nil when disabled or
// when the agent cannot start; callers treat nil as "no instrumentation".
func NewNewRelic(cfg config.NewRelicConfig, log *logger.Logger) *newrelic.Application {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil
	}

	nrApp, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		log.Warn("failed to initialize New Relic", logger.Err(err))
		return nil
	}

	log.Info("New Relic enabled", logger.String("app", cfg.AppName))
	return nrApp
}
