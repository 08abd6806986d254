package database

import (
	"context"
	"database/sql"

	"github.com/samber/oops"
)

type Transactor struct {
	db      *sql.DB
	queries *Queries
}

func NewTransactor(db *sql.DB, queries *Queries) *Transactor {
	return &Transactor{
		db:      db,
		queries: queries,
	}
}

func (t *Transactor) Transaction(ctx context.Context, callback func(ctx context.Context, tx *sql.Tx, qtx TxQueries) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Errorf("BeginTx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	qtx := t.queries.WithTx(tx)

	if err = callback(ctx, tx, qtx); err != nil {
		return oops.Errorf("callback: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return oops.Errorf("Commit: %w", err)
	}

	return nil
}
