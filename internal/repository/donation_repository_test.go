package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/careconnect-api/internal/models"
)

func newDonationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDonationRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO donations")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	donation := &models.Donation{
		DonorEmail: "alice@example.com",
		Category:   models.CategoryEssentials,
		Item:       "Blanket",
		Quantity:   2,
		Location:   "Tampines CC",
		ImageLink:  "https://img.example.com/blanket.jpg",
	}
	require.NoError(t, repo.Create(context.Background(), donation))
	require.NotEmpty(t, donation.ID)
	require.Equal(t, models.DonationPending, donation.Status)

	rows := sqlmock.NewRows([]string{"id", "donor_email", "category", "item", "quantity", "location", "image_link", "expiry_date", "status", "approved_at", "created_at"}).
		AddRow(donation.ID, "alice@example.com", "Essentials", "Blanket", 2, "Tampines CC", donation.ImageLink, nil, "Pending", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, donor_email, category, item")).
		WithArgs(donation.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), donation.ID)
	require.NoError(t, err)
	require.Equal(t, donation.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepositoryGetMissingReturnsNil(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, donor_email, category, item")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepositoryUpdateStatusGuard(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET status =")).
		WithArgs("don-1", models.DonationPending, models.DonationApproved, &now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "don-1", models.DonationPending, models.DonationApproved, &now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE donations SET status =")).
		WithArgs("don-1", models.DonationPending, models.DonationApproved, &now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "don-1", models.DonationPending, models.DonationApproved, &now)
	require.ErrorIs(t, err, ErrStaleRecord)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepositoryDeleteByStatuses(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM donations WHERE id = $1 AND status IN ($2, $3)")).
		WithArgs("don-1", models.DonationPending, models.DonationApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "don-1", models.DonationPending, models.DonationApproved))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDonationRepositoryListStaleApproved(t *testing.T) {
	db, mock, cleanup := newDonationRepoMock(t)
	defer cleanup()

	repo := NewDonationRepository(db)
	cutoff := time.Now().Add(-48 * time.Hour)
	approvedAt := cutoff.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "donor_email", "category", "item", "quantity", "location", "image_link", "expiry_date", "status", "approved_at", "created_at"}).
		AddRow("don-9", "bob@example.com", "Food", "Biscuits", 5, "Bishan CC", "https://img.example.com/b.jpg", nil, "Approved", approvedAt, approvedAt.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'Approved' AND approved_at IS NOT NULL")).
		WithArgs(cutoff).
		WillReturnRows(rows)

	stale, err := repo.ListStaleApproved(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, "don-9", stale[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
