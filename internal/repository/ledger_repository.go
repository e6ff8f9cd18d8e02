package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/careconnect/careconnect-api/internal/models"
)

// ErrLedgerGuard reports a guarded ledger update that matched no row, meaning
// the mutation would have broken a counter invariant.
var ErrLedgerGuard = errors.New("ledger guard rejected update")

// LedgerRepository persists the per (location, item) inventory counters.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Credit adds donated stock to the pair, creating the row if needed.
func (r *LedgerRepository) Credit(ctx context.Context, location, item string, quantity int) error {
	const query = `INSERT INTO inventory_ledger (location, item, total_donated, total_requested, allocated)
	VALUES ($1, $2, $3, 0, 0)
	ON CONFLICT (location, item) DO UPDATE SET total_donated = inventory_ledger.total_donated + EXCLUDED.total_donated`
	if _, err := ext(ctx, r.db).ExecContext(ctx, query, location, item, quantity); err != nil {
		return fmt.Errorf("credit ledger: %w", err)
	}
	return nil
}

// AddRequested adds demand to the pair, creating the row if needed.
func (r *LedgerRepository) AddRequested(ctx context.Context, location, item string, quantity int) error {
	const query = `INSERT INTO inventory_ledger (location, item, total_donated, total_requested, allocated)
	VALUES ($1, $2, 0, $3, 0)
	ON CONFLICT (location, item) DO UPDATE SET total_requested = inventory_ledger.total_requested + EXCLUDED.total_requested`
	if _, err := ext(ctx, r.db).ExecContext(ctx, query, location, item, quantity); err != nil {
		return fmt.Errorf("add requested: %w", err)
	}
	return nil
}

// ReduceRequested removes demand from the pair. The update is guarded so the
// counter can never go negative.
func (r *LedgerRepository) ReduceRequested(ctx context.Context, location, item string, quantity int) error {
	const query = `UPDATE inventory_ledger SET total_requested = total_requested - $3
	WHERE location = $1 AND item = $2 AND total_requested >= $3`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, location, item, quantity)
	if err != nil {
		return fmt.Errorf("reduce requested: %w", err)
	}
	return guardRows(res)
}

// Commit reserves donated stock for a request. The update is guarded so the
// allocation can never exceed the donated total.
func (r *LedgerRepository) Commit(ctx context.Context, location, item string, quantity int) error {
	const query = `UPDATE inventory_ledger SET allocated = allocated + $3
	WHERE location = $1 AND item = $2 AND allocated + $3 <= total_donated`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, location, item, quantity)
	if err != nil {
		return fmt.Errorf("commit allocation: %w", err)
	}
	return guardRows(res)
}

// Release returns reserved stock to the available pool. The update is guarded
// so the allocation can never go negative.
func (r *LedgerRepository) Release(ctx context.Context, location, item string, quantity int) error {
	const query = `UPDATE inventory_ledger SET allocated = allocated - $3
	WHERE location = $1 AND item = $2 AND allocated >= $3`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, location, item, quantity)
	if err != nil {
		return fmt.Errorf("release allocation: %w", err)
	}
	return guardRows(res)
}

// Get fetches the counters for one pair. A missing row is reported as
// (nil, nil) since it is equivalent to all-zero counters.
func (r *LedgerRepository) Get(ctx context.Context, location, item string) (*models.InventoryRecord, error) {
	const query = `SELECT location, item, total_donated, total_requested, allocated
	FROM inventory_ledger WHERE location = $1 AND item = $2`
	var record models.InventoryRecord
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &record, query, location, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger record: %w", err)
	}
	return &record, nil
}

// ListByLocation returns every ledger row for one community club.
func (r *LedgerRepository) ListByLocation(ctx context.Context, location string) ([]models.InventoryRecord, error) {
	const query = `SELECT location, item, total_donated, total_requested, allocated
	FROM inventory_ledger WHERE location = $1 ORDER BY item`
	records := make([]models.InventoryRecord, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &records, query, location); err != nil {
		return nil, fmt.Errorf("list ledger by location: %w", err)
	}
	return records, nil
}

// AggregateByLocation sums the counters per community club.
func (r *LedgerRepository) AggregateByLocation(ctx context.Context) ([]models.LocationAggregate, error) {
	const query = `SELECT location,
       COALESCE(SUM(total_donated), 0) AS total_donated,
       COALESCE(SUM(total_requested), 0) AS total_requested,
       COALESCE(SUM(allocated), 0) AS allocated
	FROM inventory_ledger GROUP BY location ORDER BY location`
	aggregates := make([]models.LocationAggregate, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &aggregates, query); err != nil {
		return nil, fmt.Errorf("aggregate ledger: %w", err)
	}
	return aggregates, nil
}

// AggregateForLocation sums the counters of one club. A club with no ledger
// rows yields zero counters.
func (r *LedgerRepository) AggregateForLocation(ctx context.Context, location string) (*models.LocationAggregate, error) {
	const query = `SELECT $1::text AS location,
       COALESCE(SUM(total_donated), 0) AS total_donated,
       COALESCE(SUM(total_requested), 0) AS total_requested,
       COALESCE(SUM(allocated), 0) AS allocated
	FROM inventory_ledger WHERE location = $1`
	var aggregate models.LocationAggregate
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &aggregate, query, location); err != nil {
		return nil, fmt.Errorf("aggregate ledger for location: %w", err)
	}
	return &aggregate, nil
}

func guardRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLedgerGuard
	}
	return nil
}
