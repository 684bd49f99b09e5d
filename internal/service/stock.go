package service

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	"github.com/tillpoint/tillpoint/internal/logger"
)

type stockReservation struct {
	skuID    string
	quantity int64
}

// stockReservations records decremented stock so a failed invoice can hand it back
type stockReservations struct {
	repo    catalog.Repository
	logger  *logger.Logger
	storeID string
	items   []stockReservation
}

func newStockReservations(repo catalog.Repository, logger *logger.Logger, storeID string) *stockReservations {
	return &stockReservations{
		repo:    repo,
		logger:  logger,
		storeID: storeID,
	}
}

func (r *stockReservations) push(skuID string, quantity int64) {
	r.items = append(r.items, stockReservation{skuID: skuID, quantity: quantity})
}

// release returns reserved stock in reverse order. Failures are logged and the
// remaining reservations are still released.
func (r *stockReservations) release(ctx context.Context) {
	for i := len(r.items) - 1; i >= 0; i-- {
		item := r.items[i]
		if _, err := r.repo.IncrementStock(ctx, r.storeID, item.skuID, item.quantity); err != nil {
			r.logger.Errorw("failed to release reserved stock",
				"store_id", r.storeID,
				"sku_id", item.skuID,
				"quantity", item.quantity,
				"error", err,
			)
		}
	}
	r.items = nil
}
