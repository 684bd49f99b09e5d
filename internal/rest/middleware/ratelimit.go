package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/config"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
	"golang.org/x/time/rate"
)

// storeLimiters hands out one token bucket per store
type storeLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (l *storeLimiters) get(storeID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[storeID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[storeID] = limiter
	}
	return limiter
}

// RateLimitMiddleware throttles requests per store. It must run after StoreMiddleware.
func RateLimitMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limiters := &storeLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
		burst:    cfg.RateLimit.Burst,
	}

	return func(c *gin.Context) {
		storeID := types.GetStoreID(c.Request.Context())
		if !limiters.get(storeID).Allow() {
			abortWith(c, ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, please slow down").
				WithReportableDetails(map[string]any{
					"store_id": storeID,
				}).
				Mark(ierr.ErrRateLimited))
			return
		}
		c.Next()
	}
}
