package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careconnect/careconnect-api/internal/models"
)

const requestColumns = `id, requester_email, category, item, quantity, allocation, location, status, created_at, matched_at`

// RequestRepository persists request records.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request row.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO requests
	(id, requester_email, category, item, quantity, allocation, location, status, created_at, matched_at)
	VALUES (:id, :requester_email, :category, :item, :quantity, :allocation, :location, :status, :created_at, :matched_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	var request models.Request
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &request, nil
}

// ListByRequester returns a requester's requests, newest first.
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterEmail string) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE requester_email = $1 ORDER BY created_at DESC, id`
	requests := make([]models.Request, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &requests, query, requesterEmail); err != nil {
		return nil, fmt.Errorf("list requests by requester: %w", err)
	}
	return requests, nil
}

// ListPendingForKey returns the Pending queue for one (location, item) pair in
// first-come-first-served order. Ties on created_at break by id.
func (r *RequestRepository) ListPendingForKey(ctx context.Context, location, item string) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
	WHERE location = $1 AND item = $2 AND status = 'Pending'
	ORDER BY created_at, id`
	requests := make([]models.Request, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &requests, query, location, item); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return requests, nil
}

// ListMatchedByLocation returns a club's Matched requests awaiting pickup,
// oldest match first.
func (r *RequestRepository) ListMatchedByLocation(ctx context.Context, location string) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
	WHERE location = $1 AND status = 'Matched'
	ORDER BY matched_at, id`
	requests := make([]models.Request, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &requests, query, location); err != nil {
		return nil, fmt.Errorf("list matched requests: %w", err)
	}
	return requests, nil
}

// MarkMatched promotes a Pending request to Matched with its full allocation.
func (r *RequestRepository) MarkMatched(ctx context.Context, id string, allocation int, matchedAt time.Time) error {
	const query = `UPDATE requests SET status = 'Matched', allocation = $2, matched_at = $3
	WHERE id = $1 AND status = 'Pending'`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, id, allocation, matchedAt)
	if err != nil {
		return fmt.Errorf("mark request matched: %w", err)
	}
	return guardNamedRows(res, "request no longer pending")
}

// UpdateFields rewrites the editable fields of a Pending, unallocated request.
func (r *RequestRepository) UpdateFields(ctx context.Context, request *models.Request) error {
	const query = `UPDATE requests
	SET category = :category, item = :item, quantity = :quantity, location = :location
	WHERE id = :id AND status = 'Pending' AND allocation = 0`
	res, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, request)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return guardNamedRows(res, "request no longer editable")
}

// Delete removes a request while it is still Pending and unallocated.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM requests WHERE id = $1 AND status = 'Pending' AND allocation = 0`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return guardNamedRows(res, "request not deletable")
}

// DeleteMatched removes a Matched request after its allocation was released.
func (r *RequestRepository) DeleteMatched(ctx context.Context, id string) error {
	const query = `DELETE FROM requests WHERE id = $1 AND status = 'Matched'`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete matched request: %w", err)
	}
	return guardNamedRows(res, "request no longer matched")
}

// Complete marks a Matched request as picked up.
func (r *RequestRepository) Complete(ctx context.Context, id string) error {
	const query = `UPDATE requests SET status = 'Completed' WHERE id = $1 AND status = 'Matched'`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("complete request: %w", err)
	}
	return guardNamedRows(res, "request no longer matched")
}

// ListMatchedBefore returns Matched requests whose match is older than the
// cutoff. The sweeper expires these.
func (r *RequestRepository) ListMatchedBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests
	WHERE status = 'Matched' AND matched_at IS NOT NULL AND matched_at < $1
	ORDER BY matched_at, id`
	requests := make([]models.Request, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &requests, query, cutoff); err != nil {
		return nil, fmt.Errorf("list matched before cutoff: %w", err)
	}
	return requests, nil
}

// LocationRequestCounts tallies a club's requests. Fulfilled covers Matched
// and Completed.
type LocationRequestCounts struct {
	Location  string `db:"location"`
	Total     int    `db:"total"`
	Fulfilled int    `db:"fulfilled"`
}

// CountByLocation tallies requests per club.
func (r *RequestRepository) CountByLocation(ctx context.Context) ([]LocationRequestCounts, error) {
	const query = `SELECT location,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status IN ('Matched', 'Completed')) AS fulfilled
	FROM requests GROUP BY location ORDER BY location`
	counts := make([]LocationRequestCounts, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &counts, query); err != nil {
		return nil, fmt.Errorf("count requests by location: %w", err)
	}
	return counts, nil
}

// MarkExpired moves a Matched request to Expired.
func (r *RequestRepository) MarkExpired(ctx context.Context, id string) error {
	const query = `UPDATE requests SET status = 'Expired' WHERE id = $1 AND status = 'Matched'`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark request expired: %w", err)
	}
	return guardNamedRows(res, "request no longer matched")
}
