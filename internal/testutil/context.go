package testutil

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/types"
)

// SetupContext returns a context carrying the default store, user and a fresh request id
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetStoreID(ctx, types.DefaultStoreID)
	ctx = types.SetUserID(ctx, types.DefaultUserID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
