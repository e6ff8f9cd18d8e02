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

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "requester_email", "category", "item", "quantity", "allocation", "location", "status", "created_at", "matched_at"})
}

func TestRequestRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	request := &models.Request{
		RequesterEmail: "carol@example.com",
		Category:       models.CategoryFood,
		Item:           "Rice 5kg",
		Quantity:       2,
		Location:       "Tampines CC",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestPending, request.Status)
	require.Zero(t, request.Allocation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListPendingForKeyOrder(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	base := time.Now().Add(-time.Hour)
	rows := requestRows().
		AddRow("req-1", "a@example.com", "Food", "Rice 5kg", 2, 0, "Tampines CC", "Pending", base, nil).
		AddRow("req-2", "b@example.com", "Food", "Rice 5kg", 5, 0, "Tampines CC", "Pending", base.Add(time.Minute), nil)
	mock.ExpectQuery(regexp.QuoteMeta("AND status = 'Pending'")).
		WithArgs("Tampines CC", "Rice 5kg").
		WillReturnRows(rows)

	pending, err := repo.ListPendingForKey(context.Background(), "Tampines CC", "Rice 5kg")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "req-1", pending[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryMarkMatchedGuard(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = 'Matched'")).
		WithArgs("req-1", 2, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkMatched(context.Background(), "req-1", 2, now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = 'Matched'")).
		WithArgs("req-1", 2, now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.MarkMatched(context.Background(), "req-1", 2, now), ErrStaleRecord)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDeleteGuardsPendingUnallocated(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM requests WHERE id = $1 AND status = 'Pending' AND allocation = 0")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "req-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM requests WHERE id = $1 AND status = 'Pending' AND allocation = 0")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "req-1"), ErrStaleRecord)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCompleteGuard(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = 'Completed'")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Complete(context.Background(), "req-1"), ErrStaleRecord)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListMatchedBefore(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	cutoff := time.Now().Add(-48 * time.Hour)
	matchedAt := cutoff.Add(-2 * time.Hour)
	rows := requestRows().
		AddRow("req-7", "d@example.com", "Drinks", "Milo Tin", 1, 1, "Bishan CC", "Matched", matchedAt.Add(-time.Hour), matchedAt)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'Matched' AND matched_at IS NOT NULL")).
		WithArgs(cutoff).
		WillReturnRows(rows)

	overdue, err := repo.ListMatchedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, 1, overdue[0].Allocation)
	require.NoError(t, mock.ExpectationsWereMet())
}
