package postgres

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
)

type sequenceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceSequenceRepository creates the per-store invoice number counter
func NewInvoiceSequenceRepository(db *postgres.DB, logger *logger.Logger) invoice.SequenceRepository {
	return &sequenceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sequenceRepository) NextValue(ctx context.Context, storeID, period string) (int64, error) {
	span := StartRepositorySpan(ctx, "invoice_sequence", "next_value", map[string]interface{}{
		"store_id": storeID,
		"period":   period,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO invoice_sequences (store_id, year_month, last_value, created_at, updated_at)
		VALUES ($1, $2, 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (store_id, year_month) DO UPDATE
		SET last_value = invoice_sequences.last_value + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING last_value`

	var lastValue int64
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &lastValue, query, storeID, period); err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Invoice number generation failed").
			Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("generated invoice sequence value",
		"store_id", storeID,
		"year_month", period,
		"sequence", lastValue,
	)
	return lastValue, nil
}
