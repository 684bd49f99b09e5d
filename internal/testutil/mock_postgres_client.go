package testutil

import (
	"context"
	"sync/atomic"

	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type mockTx struct{}

// MockPostgresClient runs transaction functions directly; failed functions are
// counted as rollbacks so tests can assert on them
type MockPostgresClient struct {
	logger    *logger.Logger
	commits   atomic.Int64
	rollbacks atomic.Int64
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if _, ok := ctx.Value(types.CtxDBTransaction).(*mockTx); ok {
		return fn(ctx)
	}

	txCtx := context.WithValue(ctx, types.CtxDBTransaction, &mockTx{})
	if err := fn(txCtx); err != nil {
		c.rollbacks.Add(1)
		return err
	}
	c.commits.Add(1)
	return nil
}

// Commits returns the number of outermost transactions that succeeded
func (c *MockPostgresClient) Commits() int64 {
	return c.commits.Load()
}

// Rollbacks returns the number of outermost transactions that failed
func (c *MockPostgresClient) Rollbacks() int64 {
	return c.rollbacks.Load()
}
