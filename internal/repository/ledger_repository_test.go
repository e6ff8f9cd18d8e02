package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/careconnect-api/pkg/database"
)

func newLedgerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLedgerRepositoryCreditAndGet(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_ledger")).
		WithArgs("Tampines CC", "Rice 5kg", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Credit(context.Background(), "Tampines CC", "Rice 5kg", 10))

	rows := sqlmock.NewRows([]string{"location", "item", "total_donated", "total_requested", "allocated"}).
		AddRow("Tampines CC", "Rice 5kg", 10, 4, 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT location, item, total_donated, total_requested, allocated")).
		WithArgs("Tampines CC", "Rice 5kg").
		WillReturnRows(rows)

	record, err := repo.Get(context.Background(), "Tampines CC", "Rice 5kg")
	require.NoError(t, err)
	require.Equal(t, 6, record.Available())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryJoinsContextTransaction(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory_ledger")).
		WithArgs("Tampines CC", "Rice 5kg", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory_ledger SET allocated = allocated +")).
		WithArgs("Tampines CC", "Rice 5kg", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := database.NewTxManager(db)
	err := m.InTx(context.Background(), func(ctx context.Context) error {
		if err := repo.Credit(ctx, "Tampines CC", "Rice 5kg", 10); err != nil {
			return err
		}
		return repo.Commit(ctx, "Tampines CC", "Rice 5kg", 4)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryGetMissingRowIsZero(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT location, item, total_donated, total_requested, allocated")).
		WithArgs("Bishan CC", "Kettle").
		WillReturnRows(sqlmock.NewRows([]string{"location", "item", "total_donated", "total_requested", "allocated"}))

	record, err := repo.Get(context.Background(), "Bishan CC", "Kettle")
	require.NoError(t, err)
	require.Nil(t, record)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryCommitGuard(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory_ledger SET allocated = allocated +")).
		WithArgs("Tampines CC", "Rice 5kg", 50).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Commit(context.Background(), "Tampines CC", "Rice 5kg", 50)
	require.ErrorIs(t, err, ErrLedgerGuard)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryReleaseGuard(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory_ledger SET allocated = allocated -")).
		WithArgs("Tampines CC", "Rice 5kg", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Release(context.Background(), "Tampines CC", "Rice 5kg", 3))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE inventory_ledger SET allocated = allocated -")).
		WithArgs("Tampines CC", "Rice 5kg", 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Release(context.Background(), "Tampines CC", "Rice 5kg", 99), ErrLedgerGuard)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryAggregateByLocation(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	repo := NewLedgerRepository(db)
	rows := sqlmock.NewRows([]string{"location", "total_donated", "total_requested", "allocated"}).
		AddRow("Bishan CC", 20, 10, 8).
		AddRow("Tampines CC", 3, 12, 3)
	mock.ExpectQuery(regexp.QuoteMeta("FROM inventory_ledger GROUP BY location")).
		WillReturnRows(rows)

	aggregates, err := repo.AggregateByLocation(context.Background())
	require.NoError(t, err)
	require.Len(t, aggregates, 2)
	require.Equal(t, 2.0, *aggregates[0].FulfilmentRate())
	require.Equal(t, 0.25, *aggregates[1].FulfilmentRate())
	require.NoError(t, mock.ExpectationsWereMet())
}
