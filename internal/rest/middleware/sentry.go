package middleware

import (
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/types"
)

// SentryMiddleware returns a middleware that captures panics and tags the
// request hub with the store and request ids
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryScope copies request scoped identifiers onto the sentry hub. It must
// run after StoreMiddleware.
func SentryScope(c *gin.Context) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		ctx := c.Request.Context()
		hub.ConfigureScope(func(scope *sentrygo.Scope) {
			scope.SetTag("store_id", types.GetStoreID(ctx))
			scope.SetTag("request_id", types.GetRequestID(ctx))
		})
	}
	c.Next()
}
