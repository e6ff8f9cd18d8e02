package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/careconnect/careconnect-api/pkg/database"
)

// ext resolves the executor for ctx: the transaction it carries, or the pool.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := database.TxFromContext(ctx); ok {
		return tx
	}
	return db
}
