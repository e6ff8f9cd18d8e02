package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/internal/repository"
	"github.com/careconnect/careconnect-api/pkg/config"
	"github.com/careconnect/careconnect-api/pkg/keylock"
)

type sweeperRequestStore interface {
	ListMatchedBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error)
	MarkExpired(ctx context.Context, id string) error
}

type sweeperDonationStore interface {
	ListStaleApproved(ctx context.Context, cutoff time.Time) ([]models.Donation, error)
	ListExpiredPerishables(ctx context.Context, now time.Time) ([]models.Donation, error)
	Delete(ctx context.Context, id string, statuses ...models.DonationStatus) error
}

type sweeperLedger interface {
	Release(ctx context.Context, location, item string, quantity int) error
	ReduceRequested(ctx context.Context, location, item string, quantity int) error
}

type sweeperNotifier interface {
	RequestExpired(request models.Request)
	RequestsMatched(matched []models.Request)
	DonationExpired(donation models.Donation)
}

// SweeperService expires overdue records: Matched requests nobody collected,
// Approved donations nobody dropped off, and perishables past their expiry
// date. Expiring a match hands the stock back, so a pass runs right after.
type SweeperService struct {
	requests  sweeperRequestStore
	donations sweeperDonationStore
	ledger    sweeperLedger
	allocator donationAllocator
	tx        txRunner
	locks     *keylock.Registry
	notifier  sweeperNotifier
	shortage  shortageEvaluator
	cfg       config.SweeperConfig
	logger    *zap.Logger
}

// NewSweeperService constructs the service.
func NewSweeperService(requests sweeperRequestStore, donations sweeperDonationStore, ledger sweeperLedger, allocator donationAllocator, tx txRunner, locks *keylock.Registry, notifier sweeperNotifier, shortage shortageEvaluator, cfg config.SweeperConfig, logger *zap.Logger) *SweeperService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweeperService{
		requests:  requests,
		donations: donations,
		ledger:    ledger,
		allocator: allocator,
		tx:        tx,
		locks:     locks,
		notifier:  notifier,
		shortage:  shortage,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *SweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired(ctx, time.Now().UTC())
		}
	}
}

// SweepExpired runs one full sweep against the given clock reading.
func (s *SweeperService) SweepExpired(ctx context.Context, now time.Time) {
	touched := make(map[string]struct{})
	s.expireStaleMatches(ctx, now, touched)
	s.expireStaleApproved(ctx, now)
	s.expirePerishables(ctx, now)
	for location := range touched {
		s.shortage.Evaluate(ctx, location)
	}
}

func (s *SweeperService) expireStaleMatches(ctx context.Context, now time.Time, touched map[string]struct{}) {
	overdue, err := s.requests.ListMatchedBefore(ctx, now.Add(-s.cfg.MatchedTTL))
	if err != nil {
		s.logger.Error("listing overdue matches failed", zap.Error(err))
		return
	}
	for _, request := range overdue {
		matched, err := s.expireMatchLocked(ctx, request)
		if err != nil {
			if errors.Is(err, repository.ErrStaleRecord) {
				continue
			}
			s.logger.Error("expiring match failed",
				zap.String("request_id", request.ID),
				zap.Error(err))
			continue
		}
		touched[request.Location] = struct{}{}
		s.notifier.RequestExpired(request)
		if len(matched) > 0 {
			s.notifier.RequestsMatched(matched)
		}
	}
}

func (s *SweeperService) expireMatchLocked(ctx context.Context, request models.Request) ([]models.Request, error) {
	key := keylock.Key(request.Location, request.Item)
	if err := s.locks.Lock(ctx, key); err != nil {
		return nil, err
	}
	defer s.locks.Unlock(key)

	var result PassResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requests.MarkExpired(ctx, request.ID); err != nil {
			return err
		}
		if err := s.ledger.Release(ctx, request.Location, request.Item, request.Allocation); err != nil {
			return err
		}
		if err := s.ledger.ReduceRequested(ctx, request.Location, request.Item, request.Quantity); err != nil {
			return err
		}
		var passErr error
		result, passErr = s.allocator.PassLocked(ctx, request.Location, request.Item)
		return passErr
	})
	if err != nil {
		return nil, err
	}
	return result.Matched, nil
}

func (s *SweeperService) expireStaleApproved(ctx context.Context, now time.Time) {
	stale, err := s.donations.ListStaleApproved(ctx, now.Add(-s.cfg.ApprovedTTL))
	if err != nil {
		s.logger.Error("listing stale approved donations failed", zap.Error(err))
		return
	}
	s.removeDonations(ctx, stale, models.DonationApproved)
}

func (s *SweeperService) expirePerishables(ctx context.Context, now time.Time) {
	expired, err := s.donations.ListExpiredPerishables(ctx, now)
	if err != nil {
		s.logger.Error("listing expired perishables failed", zap.Error(err))
		return
	}
	s.removeDonations(ctx, expired, models.DonationPending, models.DonationApproved)
}

func (s *SweeperService) removeDonations(ctx context.Context, donations []models.Donation, statuses ...models.DonationStatus) {
	for _, donation := range donations {
		if err := s.donations.Delete(ctx, donation.ID, statuses...); err != nil {
			if errors.Is(err, repository.ErrStaleRecord) {
				continue
			}
			s.logger.Error("removing expired donation failed",
				zap.String("donation_id", donation.ID),
				zap.Error(err))
			continue
		}
		s.notifier.DonationExpired(donation)
	}
}
