package app

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"

	"cabbooking/internal/config"
	"cabbooking/internal/logger"
	"cabbooking/internal/repository"
	"cabbooking/internal/repository/memory"
	"cabbooking/internal/repository/postgres"
)

// NewStore opens the configured storage backend. The returned func releases
// its resources.
func NewStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application, log *logger.Logger) (repository.Store, func(), error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to PostgreSQL", logger.String("host", cfg.Database.Host))

	return postgres.NewStore(db), func() { _ = db.Close() }, nil
}
