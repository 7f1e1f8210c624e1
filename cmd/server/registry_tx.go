package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "secureupdate/pkg/domain-errors"
	txcontext "secureupdate/pkg/platform/tx"
)

const defaultRegistryTxTimeout = 5 * time.Second

// sqlRegistryTx runs each contract call in one SQL transaction. Stores pick
// the transaction up from the callback context.
type sqlRegistryTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newSQLRegistryTx(db *sql.DB) *sqlRegistryTx {
	return &sqlRegistryTx{db: db}
}

func (t *sqlRegistryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRegistryTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
