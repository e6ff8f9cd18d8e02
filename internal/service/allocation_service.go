package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/pkg/keylock"
)

type pendingQueue interface {
	ListPendingForKey(ctx context.Context, location, item string) ([]models.Request, error)
	MarkMatched(ctx context.Context, id string, allocation int, matchedAt time.Time) error
}

type allocationLedger interface {
	Available(ctx context.Context, location, item string) (int, error)
	Commit(ctx context.Context, location, item string, quantity int) error
	Release(ctx context.Context, location, item string, quantity int) error
}

type passMetrics interface {
	ObserveAllocationPass(granted, matched int)
}

// PassResult reports what one allocation pass granted.
type PassResult struct {
	Granted int
	Matched []models.Request
}

// AllocationService walks the pending queue of one (location, item) pair and
// grants requests first-come-first-served. Grants are all-or-nothing, and the
// pass stops at the first request that cannot be fully served so a large
// early request is never starved by smaller arrivals behind it.
type AllocationService struct {
	requests pendingQueue
	ledger   allocationLedger
	locks    *keylock.Registry
	logger   *zap.Logger
	metrics  passMetrics
	now      func() time.Time
}

// NewAllocationService constructs the service. Metrics may be nil.
func NewAllocationService(requests pendingQueue, ledger allocationLedger, locks *keylock.Registry, metrics passMetrics, logger *zap.Logger) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		requests: requests,
		ledger:   ledger,
		locks:    locks,
		logger:   logger,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Pass acquires the pair's lock and runs one allocation pass.
func (s *AllocationService) Pass(ctx context.Context, location, item string) (PassResult, error) {
	key := keylock.Key(location, item)
	if err := s.locks.Lock(ctx, key); err != nil {
		return PassResult{}, err
	}
	defer s.locks.Unlock(key)
	return s.PassLocked(ctx, location, item)
}

// PassLocked runs one allocation pass. The caller must already hold the
// pair's lock.
func (s *AllocationService) PassLocked(ctx context.Context, location, item string) (PassResult, error) {
	available, err := s.ledger.Available(ctx, location, item)
	if err != nil {
		return PassResult{}, err
	}
	if available <= 0 {
		return PassResult{}, nil
	}

	pending, err := s.requests.ListPendingForKey(ctx, location, item)
	if err != nil {
		return PassResult{}, err
	}

	result := PassResult{}
	for _, request := range pending {
		if request.Quantity > available {
			break
		}
		if err := s.ledger.Commit(ctx, location, item, request.Quantity); err != nil {
			return result, err
		}
		matchedAt := s.now()
		if err := s.requests.MarkMatched(ctx, request.ID, request.Quantity, matchedAt); err != nil {
			// The request escaped Pending between listing and matching.
			// Hand its reservation back and keep going.
			if releaseErr := s.ledger.Release(ctx, location, item, request.Quantity); releaseErr != nil {
				return result, releaseErr
			}
			s.logger.Warn("skipped concurrently mutated request",
				zap.String("request_id", request.ID),
				zap.Error(err))
			continue
		}
		available -= request.Quantity
		request.Status = models.RequestMatched
		request.Allocation = request.Quantity
		request.MatchedAt = &matchedAt
		result.Granted += request.Quantity
		result.Matched = append(result.Matched, request)
		if available == 0 {
			break
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveAllocationPass(result.Granted, len(result.Matched))
	}
	if result.Granted > 0 {
		s.logger.Info("allocation pass granted stock",
			zap.String("location", location),
			zap.String("item", item),
			zap.Int("granted", result.Granted),
			zap.Int("matched", len(result.Matched)))
	}
	return result, nil
}
