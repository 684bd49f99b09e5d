package cache

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// startSpan opens a child span for a cache call when the request carries a
// Sentry hub. Store lookups are the main cache users, so the key is recorded
// to tell id lookups from slug lookups.
func startSpan(ctx context.Context, operation, key string) *sentry.Span {
	if sentry.GetHubFromContext(ctx) == nil {
		return nil
	}

	span := sentry.StartSpan(ctx, "cache."+operation)
	span.Op = "cache." + operation
	span.Description = key
	span.SetData("cache.key", key)
	return span
}

// finishLookup records whether a get was served from memory and closes the span
func finishLookup(span *sentry.Span, hit bool) {
	if span == nil {
		return
	}
	span.SetData("cache.hit", hit)
	span.Status = sentry.SpanStatusOK
	span.Finish()
}

func finishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}
