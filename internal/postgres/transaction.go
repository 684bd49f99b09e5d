package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

type txContextKey struct{}

// Tx is the transaction shared by every repository call made with the same
// context. Depth counts the savepoints opened on top of it.
type Tx struct {
	*sqlx.Tx
	ID    string
	depth int
}

// txFromContext returns the transaction bound to ctx, if any
func txFromContext(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*Tx)
	return tx, ok
}

func savepointName(depth int) string {
	return fmt.Sprintf("tillpoint_sp_%d", depth)
}

// WithTx runs fn inside a transaction. An invoice written by fn is either
// stored with all of its stock decrements and its number or not at all.
// Nested calls open a savepoint so an inner failure only undoes its own work.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := db.begin(ctx)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not start a database transaction").
			Mark(ierr.ErrDatabase)
	}

	defer func() {
		if r := recover(); r != nil {
			db.logger.Errorw("panic inside transaction, rolling back",
				"tx_id", tx.ID,
				"depth", tx.depth,
				"panic", r,
			)
			_ = db.rollback(ctx, tx)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := db.rollback(ctx, tx); rbErr != nil {
			db.logger.Errorw("rollback failed",
				"tx_id", tx.ID,
				"depth", tx.depth,
				"error", rbErr,
				"cause", err,
			)
		}
		return err
	}

	if err := db.commit(ctx, tx); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save changes").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// begin joins the transaction already on ctx with a savepoint, or opens a
// read committed transaction and binds it to the returned context
func (db *DB) begin(ctx context.Context) (context.Context, *Tx, error) {
	if tx, ok := txFromContext(ctx); ok {
		tx.depth++
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName(tx.depth)); err != nil {
			tx.depth--
			return ctx, nil, fmt.Errorf("savepoint at depth %d: %w", tx.depth+1, err)
		}
		db.logger.Debugw("savepoint opened", "tx_id", tx.ID, "depth", tx.depth)
		return ctx, tx, nil
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return ctx, nil, fmt.Errorf("begin: %w", err)
	}

	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	db.logger.Debugw("transaction opened", "tx_id", tx.ID)
	return context.WithValue(ctx, txContextKey{}, tx), tx, nil
}

func (db *DB) commit(ctx context.Context, tx *Tx) error {
	if tx.depth > 0 {
		name := savepointName(tx.depth)
		tx.depth--
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return fmt.Errorf("release %s: %w", name, err)
		}
		return nil
	}

	db.logger.Debugw("transaction committed", "tx_id", tx.ID)
	return tx.Commit()
}

func (db *DB) rollback(ctx context.Context, tx *Tx) error {
	if tx.depth > 0 {
		name := savepointName(tx.depth)
		tx.depth--
		db.logger.Debugw("rolling back to savepoint", "tx_id", tx.ID, "savepoint", name)
		if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); err != nil {
			return fmt.Errorf("rollback to %s: %w", name, err)
		}
		return nil
	}

	db.logger.Debugw("transaction rolled back", "tx_id", tx.ID)
	return tx.Rollback()
}
