package types

import (
	"github.com/samber/lo"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
)

// Status is the lifecycle state of catalog rows. Deleted rows are kept for
// history and skipped by every read.
// Any changes to this type should be reflected in the database schema by running migrations
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

func (s Status) Validate() error {
	allowed := []Status{
		StatusActive,
		StatusInactive,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid status").
			WithHint("Please provide a valid status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
