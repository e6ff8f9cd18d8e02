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

const donationColumns = `id, donor_email, category, item, quantity, location, image_link, expiry_date, status, approved_at, created_at`

// DonationRepository persists donation records.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs the repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a new donation row.
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if donation.Status == "" {
		donation.Status = models.DonationPending
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO donations
	(id, donor_email, category, item, quantity, location, image_link, expiry_date, status, approved_at, created_at)
	VALUES (:id, :donor_email, :category, :item, :quantity, :location, :image_link, :expiry_date, :status, :approved_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, donation); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// GetByID fetches a donation by identifier.
func (r *DonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	var donation models.Donation
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &donation, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	return &donation, nil
}

// ListByDonor returns a donor's donations, newest first.
func (r *DonationRepository) ListByDonor(ctx context.Context, donorEmail string) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE donor_email = $1 ORDER BY created_at DESC, id`
	donations := make([]models.Donation, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &donations, query, donorEmail); err != nil {
		return nil, fmt.Errorf("list donations by donor: %w", err)
	}
	return donations, nil
}

// ListByLocationAndStatus returns a club's donations in one status, oldest
// first so managers review in arrival order.
func (r *DonationRepository) ListByLocationAndStatus(ctx context.Context, location string, status models.DonationStatus) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE location = $1 AND status = $2 ORDER BY created_at, id`
	donations := make([]models.Donation, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &donations, query, location, status); err != nil {
		return nil, fmt.Errorf("list donations by location: %w", err)
	}
	return donations, nil
}

// Update rewrites the editable fields of a Pending donation. The guard keeps
// reviewed donations immutable.
func (r *DonationRepository) Update(ctx context.Context, donation *models.Donation) error {
	const query = `UPDATE donations
	SET category = :category, item = :item, quantity = :quantity, location = :location,
	    image_link = :image_link, expiry_date = :expiry_date
	WHERE id = :id AND status = 'Pending'`
	res, err := sqlx.NamedExecContext(ctx, ext(ctx, r.db), query, donation)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	return guardNamedRows(res, "donation no longer editable")
}

// UpdateStatus advances a donation from one status to another. The guard makes
// concurrent transitions idempotent losers instead of double-applies.
func (r *DonationRepository) UpdateStatus(ctx context.Context, id string, from, to models.DonationStatus, approvedAt *time.Time) error {
	const query = `UPDATE donations SET status = $3, approved_at = COALESCE($4, approved_at)
	WHERE id = $1 AND status = $2`
	res, err := ext(ctx, r.db).ExecContext(ctx, query, id, from, to, approvedAt)
	if err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	return guardNamedRows(res, "donation status already changed")
}

// Delete removes a donation while it is still in one of the given statuses.
func (r *DonationRepository) Delete(ctx context.Context, id string, statuses ...models.DonationStatus) error {
	args := make([]interface{}, 0, len(statuses)+1)
	args = append(args, id)
	placeholders := ""
	for i, status := range statuses {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+2)
		args = append(args, status)
	}
	query := fmt.Sprintf(`DELETE FROM donations WHERE id = $1 AND status IN (%s)`, placeholders)
	res, err := ext(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return guardNamedRows(res, "donation not deletable")
}

// ListStaleApproved returns Approved donations whose approval is older than
// the cutoff. The sweeper expires these.
func (r *DonationRepository) ListStaleApproved(ctx context.Context, cutoff time.Time) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations
	WHERE status = 'Approved' AND approved_at IS NOT NULL AND approved_at < $1
	ORDER BY approved_at, id`
	donations := make([]models.Donation, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &donations, query, cutoff); err != nil {
		return nil, fmt.Errorf("list stale approved donations: %w", err)
	}
	return donations, nil
}

// ListExpiredPerishables returns unreviewed perishable donations whose expiry
// date has passed.
func (r *DonationRepository) ListExpiredPerishables(ctx context.Context, now time.Time) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations
	WHERE status IN ('Pending', 'Approved') AND expiry_date IS NOT NULL AND expiry_date < $1
	ORDER BY expiry_date, id`
	donations := make([]models.Donation, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &donations, query, now); err != nil {
		return nil, fmt.Errorf("list expired perishables: %w", err)
	}
	return donations, nil
}

// LocationDonationCount tallies a club's donation records.
type LocationDonationCount struct {
	Location string `db:"location"`
	Total    int    `db:"total"`
}

// CountByLocation tallies donations per club.
func (r *DonationRepository) CountByLocation(ctx context.Context) ([]LocationDonationCount, error) {
	const query = `SELECT location, COUNT(*) AS total FROM donations GROUP BY location ORDER BY location`
	counts := make([]LocationDonationCount, 0)
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &counts, query); err != nil {
		return nil, fmt.Errorf("count donations by location: %w", err)
	}
	return counts, nil
}

func guardNamedRows(res sql.Result, msg string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", msg, ErrStaleRecord)
	}
	return nil
}

// ErrStaleRecord reports a guarded mutation that matched no row because the
// record moved to another state first.
var ErrStaleRecord = errors.New("record state changed concurrently")
