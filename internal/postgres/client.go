package postgres

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/logger"
	sentryService "github.com/tillpoint/tillpoint/internal/sentry"
	"go.uber.org/fx"
)

// IClient is the transaction boundary used by services
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

var _ IClient = (*DB)(nil)

// Module provides the connection pool and the transaction client
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
		fx.Invoke(registerHooks),
	)
}

// NewClient returns the transaction client used by services
func NewClient(db *DB, sentry *sentryService.Service, logger *logger.Logger) IClient {
	return NewSentryClient(db, sentry, logger)
}

func registerHooks(lc fx.Lifecycle, db *DB, cfg *config.Configuration, logger *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Postgres.AutoMigrate {
				return nil
			}
			logger.Infow("applying database migrations")
			return Migrate(ctx, db)
		},
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}
