package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/pkg/config"
	"github.com/careconnect/careconnect-api/pkg/keylock"
)

type sweeperRequestStoreStub struct {
	overdue []models.Request
	expired []string
}

func (s *sweeperRequestStoreStub) ListMatchedBefore(context.Context, time.Time) ([]models.Request, error) {
	return s.overdue, nil
}

func (s *sweeperRequestStoreStub) MarkExpired(_ context.Context, id string) error {
	s.expired = append(s.expired, id)
	return nil
}

type sweeperDonationStoreStub struct {
	staleApproved []models.Donation
	perishables   []models.Donation
	deleted       []string
}

func (s *sweeperDonationStoreStub) ListStaleApproved(context.Context, time.Time) ([]models.Donation, error) {
	return s.staleApproved, nil
}

func (s *sweeperDonationStoreStub) ListExpiredPerishables(context.Context, time.Time) ([]models.Donation, error) {
	return s.perishables, nil
}

func (s *sweeperDonationStoreStub) Delete(_ context.Context, id string, _ ...models.DonationStatus) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type sweeperNotifierStub struct {
	expiredRequests  []models.Request
	matched          [][]models.Request
	expiredDonations []models.Donation
}

func (s *sweeperNotifierStub) RequestExpired(request models.Request) {
	s.expiredRequests = append(s.expiredRequests, request)
}

func (s *sweeperNotifierStub) RequestsMatched(matched []models.Request) {
	s.matched = append(s.matched, matched)
}

func (s *sweeperNotifierStub) DonationExpired(donation models.Donation) {
	s.expiredDonations = append(s.expiredDonations, donation)
}

func sweeperConfig() config.SweeperConfig {
	return config.SweeperConfig{
		Interval:    time.Minute,
		MatchedTTL:  48 * time.Hour,
		ApprovedTTL: 48 * time.Hour,
	}
}

func TestSweepExpiresOverdueMatchAndReallocates(t *testing.T) {
	matchedAt := time.Now().Add(-72 * time.Hour)
	requests := &sweeperRequestStoreStub{overdue: []models.Request{{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Rice 5kg",
		Quantity:       2,
		Allocation:     2,
		Location:       "Tampines CC",
		Status:         models.RequestMatched,
		MatchedAt:      &matchedAt,
	}}}
	donations := &sweeperDonationStoreStub{}
	ledger := &ledgerOpsStub{}
	allocator := &allocatorStub{results: []PassResult{{
		Granted: 2,
		Matched: []models.Request{{ID: "req-2", Status: models.RequestMatched}},
	}}}
	notifier := &sweeperNotifierStub{}
	shortage := &shortageStub{}
	svc := NewSweeperService(requests, donations, ledger, allocator, &txRunnerStub{}, keylock.New(), notifier, shortage, sweeperConfig(), nil)

	svc.SweepExpired(context.Background(), time.Now().UTC())

	require.Equal(t, []string{"req-1"}, requests.expired)
	require.Equal(t, []int{2}, ledger.released)
	require.Equal(t, []int{2}, ledger.reduceRequested)
	require.Len(t, notifier.expiredRequests, 1)
	require.Len(t, notifier.matched, 1)
	require.Equal(t, []string{"Tampines CC"}, shortage.evaluated)
}

func TestSweepRemovesStaleApprovedAndPerishables(t *testing.T) {
	donations := &sweeperDonationStoreStub{
		staleApproved: []models.Donation{{ID: "don-1", DonorEmail: "alice@example.com", Status: models.DonationApproved}},
		perishables:   []models.Donation{{ID: "don-2", DonorEmail: "bob@example.com", Status: models.DonationPending}},
	}
	notifier := &sweeperNotifierStub{}
	svc := NewSweeperService(&sweeperRequestStoreStub{}, donations, &ledgerOpsStub{}, &allocatorStub{}, &txRunnerStub{}, keylock.New(), notifier, &shortageStub{}, sweeperConfig(), nil)

	svc.SweepExpired(context.Background(), time.Now().UTC())

	require.ElementsMatch(t, []string{"don-1", "don-2"}, donations.deleted)
	require.Len(t, notifier.expiredDonations, 2)
}

func TestSweepNothingOverdueIsQuiet(t *testing.T) {
	notifier := &sweeperNotifierStub{}
	shortage := &shortageStub{}
	svc := NewSweeperService(&sweeperRequestStoreStub{}, &sweeperDonationStoreStub{}, &ledgerOpsStub{}, &allocatorStub{}, &txRunnerStub{}, keylock.New(), notifier, shortage, sweeperConfig(), nil)

	svc.SweepExpired(context.Background(), time.Now().UTC())

	require.Empty(t, notifier.expiredRequests)
	require.Empty(t, notifier.expiredDonations)
	require.Empty(t, shortage.evaluated)
}
