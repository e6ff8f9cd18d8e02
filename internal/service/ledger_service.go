package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/internal/repository"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
)

type ledgerStore interface {
	Credit(ctx context.Context, location, item string, quantity int) error
	AddRequested(ctx context.Context, location, item string, quantity int) error
	ReduceRequested(ctx context.Context, location, item string, quantity int) error
	Commit(ctx context.Context, location, item string, quantity int) error
	Release(ctx context.Context, location, item string, quantity int) error
	Get(ctx context.Context, location, item string) (*models.InventoryRecord, error)
	ListByLocation(ctx context.Context, location string) ([]models.InventoryRecord, error)
	AggregateByLocation(ctx context.Context) ([]models.LocationAggregate, error)
	AggregateForLocation(ctx context.Context, location string) (*models.LocationAggregate, error)
}

// LedgerService fronts the inventory counters. Guard rejections from the
// store are surfaced as invariant violations, since callers only mutate the
// ledger while holding the pair's lock.
type LedgerService struct {
	repo   ledgerStore
	logger *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(repo ledgerStore, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, logger: logger}
}

// Credit adds donated stock for a pair.
func (s *LedgerService) Credit(ctx context.Context, location, item string, quantity int) error {
	return s.wrap("credit", location, item, quantity, s.repo.Credit(ctx, location, item, quantity))
}

// AddRequested adds demand for a pair.
func (s *LedgerService) AddRequested(ctx context.Context, location, item string, quantity int) error {
	return s.wrap("add_requested", location, item, quantity, s.repo.AddRequested(ctx, location, item, quantity))
}

// ReduceRequested removes demand for a pair.
func (s *LedgerService) ReduceRequested(ctx context.Context, location, item string, quantity int) error {
	return s.wrap("reduce_requested", location, item, quantity, s.repo.ReduceRequested(ctx, location, item, quantity))
}

// Commit reserves available stock against a request.
func (s *LedgerService) Commit(ctx context.Context, location, item string, quantity int) error {
	return s.wrap("commit", location, item, quantity, s.repo.Commit(ctx, location, item, quantity))
}

// Release returns reserved stock to the pool.
func (s *LedgerService) Release(ctx context.Context, location, item string, quantity int) error {
	return s.wrap("release", location, item, quantity, s.repo.Release(ctx, location, item, quantity))
}

// Record returns the counters for a pair. A pair never touched before reads
// as all zeroes.
func (s *LedgerService) Record(ctx context.Context, location, item string) (models.InventoryRecord, error) {
	record, err := s.repo.Get(ctx, location, item)
	if err != nil {
		return models.InventoryRecord{}, err
	}
	if record == nil {
		return models.InventoryRecord{Location: location, Item: item}, nil
	}
	return *record, nil
}

// Available returns the unreserved donated quantity for a pair.
func (s *LedgerService) Available(ctx context.Context, location, item string) (int, error) {
	record, err := s.Record(ctx, location, item)
	if err != nil {
		return 0, err
	}
	return record.Available(), nil
}

// ListByLocation returns every ledger row of one club.
func (s *LedgerService) ListByLocation(ctx context.Context, location string) ([]models.InventoryRecord, error) {
	return s.repo.ListByLocation(ctx, location)
}

// AggregateByLocation sums the counters per club.
func (s *LedgerService) AggregateByLocation(ctx context.Context) ([]models.LocationAggregate, error) {
	return s.repo.AggregateByLocation(ctx)
}

// AggregateForLocation sums the counters of one club.
func (s *LedgerService) AggregateForLocation(ctx context.Context, location string) (models.LocationAggregate, error) {
	aggregate, err := s.repo.AggregateForLocation(ctx, location)
	if err != nil {
		return models.LocationAggregate{}, err
	}
	if aggregate == nil {
		return models.LocationAggregate{Location: location}, nil
	}
	return *aggregate, nil
}

func (s *LedgerService) wrap(op, location, item string, quantity int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrLedgerGuard) {
		s.logger.Error("ledger guard rejected mutation",
			zap.String("op", op),
			zap.String("location", location),
			zap.String("item", item),
			zap.Int("quantity", quantity))
		return appErrors.ErrInvariantViolation
	}
	return err
}
