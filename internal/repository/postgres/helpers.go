package postgres

import (
	"database/sql"

	"github.com/lib/pq"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

func sqlOrder(order string) string {
	if order == types.OrderAsc {
		return "ASC"
	}
	return "DESC"
}

func stringArray[T ~string](values []T) interface{} {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return pq.Array(out)
}

// requireAffected turns an update that matched no row into a not found error
func requireAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to update %s", entity).
			Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		return ierr.NewError("no rows affected").
			WithHintf("%s %s not found", entity, id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
