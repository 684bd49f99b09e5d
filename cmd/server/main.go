package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/api"
	"github.com/tillpoint/tillpoint/internal/cache"
	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/publisher"
	"github.com/tillpoint/tillpoint/internal/pubsub"
	"github.com/tillpoint/tillpoint/internal/pubsub/kafka"
	"github.com/tillpoint/tillpoint/internal/pubsub/memory"
	pgrepo "github.com/tillpoint/tillpoint/internal/repository/postgres"
	"github.com/tillpoint/tillpoint/internal/sentry"
	"github.com/tillpoint/tillpoint/internal/service"
	"github.com/tillpoint/tillpoint/internal/types"
	"github.com/tillpoint/tillpoint/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Invoke(validator.NewValidator),
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,
			providePubSub,
			publisher.NewEventPublisher,
		),
		sentry.Module(),
		postgres.Module(),
		pgrepo.Module(),
	)

	// Service and API layers
	opts = append(opts,
		service.Module(),
		api.Module(),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

// providePubSub selects the event transport configured under events.pubsub
func providePubSub(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	var (
		ps  pubsub.PubSub
		err error
	)

	switch cfg.Events.PubSub {
	case types.KafkaPubSub:
		ps, err = kafka.NewPubSub(cfg, log)
		if err != nil {
			return nil, err
		}
	default:
		ps = memory.NewPubSub(log)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing event pubsub")
			return ps.Close()
		},
	})
	return ps, nil
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return srv.Shutdown(ctx)
		},
	})
}
