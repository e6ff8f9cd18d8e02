package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/keylock"
)

type donationStoreStub struct {
	byID    map[string]*models.Donation
	deleted []string
}

func newDonationStoreStub() *donationStoreStub {
	return &donationStoreStub{byID: make(map[string]*models.Donation)}
}

func (s *donationStoreStub) Create(_ context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = "don-" + donation.Item
	}
	copied := *donation
	s.byID[donation.ID] = &copied
	return nil
}

func (s *donationStoreStub) GetByID(_ context.Context, id string) (*models.Donation, error) {
	donation, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *donation
	return &copied, nil
}

func (s *donationStoreStub) ListByDonor(context.Context, string) ([]models.Donation, error) {
	return nil, nil
}

func (s *donationStoreStub) ListByLocationAndStatus(context.Context, string, models.DonationStatus) ([]models.Donation, error) {
	return nil, nil
}

func (s *donationStoreStub) Update(_ context.Context, donation *models.Donation) error {
	copied := *donation
	s.byID[donation.ID] = &copied
	return nil
}

func (s *donationStoreStub) UpdateStatus(_ context.Context, id string, _, to models.DonationStatus, approvedAt *time.Time) error {
	s.byID[id].Status = to
	if approvedAt != nil {
		s.byID[id].ApprovedAt = approvedAt
	}
	return nil
}

func (s *donationStoreStub) Delete(_ context.Context, id string, _ ...models.DonationStatus) error {
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type creditLedgerStub struct {
	credits   []int
	creditErr error
}

func (s *creditLedgerStub) Credit(_ context.Context, _, _ string, quantity int) error {
	if s.creditErr != nil {
		return s.creditErr
	}
	s.credits = append(s.credits, quantity)
	return nil
}

type donationNotifierStub struct {
	submitted []models.Donation
	approved  []models.Donation
	added     []models.Donation
	rejected  []models.Donation
	matched   [][]models.Request
}

func (s *donationNotifierStub) DonationSubmitted(d models.Donation) {
	s.submitted = append(s.submitted, d)
}
func (s *donationNotifierStub) DonationApproved(d models.Donation) { s.approved = append(s.approved, d) }
func (s *donationNotifierStub) DonationAdded(d models.Donation)    { s.added = append(s.added, d) }
func (s *donationNotifierStub) DonationRejected(d models.Donation) { s.rejected = append(s.rejected, d) }
func (s *donationNotifierStub) RequestsMatched(matched []models.Request) {
	s.matched = append(s.matched, matched)
}

func newDonationService(store *donationStoreStub, ledger *creditLedgerStub, allocator *allocatorStub) (*DonationService, *donationNotifierStub, *shortageStub) {
	notifier := &donationNotifierStub{}
	shortage := &shortageStub{}
	svc := NewDonationService(store, ledger, allocator, &txRunnerStub{}, keylock.New(), notifier, shortage, nil)
	return svc, notifier, shortage
}

func seedDonation(store *donationStoreStub, status models.DonationStatus) *models.Donation {
	donation := &models.Donation{
		ID:         "don-1",
		DonorEmail: "alice@example.com",
		Category:   models.CategoryEssentials,
		Item:       "Blanket",
		Quantity:   4,
		Location:   "Tampines CC",
		ImageLink:  "https://img.example.com/blanket.jpg",
		Status:     status,
	}
	store.byID[donation.ID] = donation
	return donation
}

func TestDonationCreateRequiresExpiryForPerishables(t *testing.T) {
	svc, _, _ := newDonationService(newDonationStoreStub(), &creditLedgerStub{}, &allocatorStub{})

	_, err := svc.Create(context.Background(), "alice@example.com", dto.CreateDonationRequest{
		Category:  "Food",
		Item:      "Biscuits",
		Quantity:  3,
		Location:  "Tampines CC",
		ImageLink: "https://img.example.com/b.jpg",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDonationCreateRejectsPastExpiry(t *testing.T) {
	svc, _, _ := newDonationService(newDonationStoreStub(), &creditLedgerStub{}, &allocatorStub{})

	_, err := svc.Create(context.Background(), "alice@example.com", dto.CreateDonationRequest{
		Category:   "Food",
		Item:       "Biscuits",
		Quantity:   3,
		Location:   "Tampines CC",
		ImageLink:  "https://img.example.com/b.jpg",
		ExpiryDate: "2001-01-01",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDonationCreateNonPerishableHasNoExpiry(t *testing.T) {
	store := newDonationStoreStub()
	svc, notifier, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	donation, err := svc.Create(context.Background(), "alice@example.com", dto.CreateDonationRequest{
		Category:  "Electronics",
		Item:      "Kettle",
		Quantity:  1,
		Location:  "Bishan CC",
		ImageLink: "https://img.example.com/k.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, models.DonationPending, donation.Status)
	require.Nil(t, donation.ExpiryDate)
	require.Len(t, notifier.submitted, 1)
}

func TestDonationApproveOnlyFromPending(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationApproved)
	svc, _, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	_, err := svc.Approve(context.Background(), "Tampines CC", "don-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestDonationApproveNotifiesDonor(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationPending)
	svc, notifier, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	donation, err := svc.Approve(context.Background(), "Tampines CC", "don-1")
	require.NoError(t, err)
	require.Equal(t, models.DonationApproved, donation.Status)
	require.NotNil(t, donation.ApprovedAt)
	require.Len(t, notifier.approved, 1)
}

func TestDonationAddCreditsLedgerAndAllocates(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationApproved)
	ledger := &creditLedgerStub{}
	allocator := &allocatorStub{results: []PassResult{{
		Granted: 2,
		Matched: []models.Request{{ID: "req-1", RequesterEmail: "carol@example.com", Status: models.RequestMatched}},
	}}}
	svc, notifier, shortage := newDonationService(store, ledger, allocator)

	donation, err := svc.Add(context.Background(), "Tampines CC", "don-1")
	require.NoError(t, err)
	require.Equal(t, models.DonationAdded, donation.Status)
	require.Equal(t, []int{4}, ledger.credits)
	require.Equal(t, 1, allocator.calls)
	require.Len(t, notifier.added, 1)
	require.Len(t, notifier.matched, 1)
	require.Equal(t, []string{"Tampines CC"}, shortage.evaluated)
}

func TestDonationAddAbortsAsOneUnitWhenCreditFails(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationApproved)
	ledger := &creditLedgerStub{creditErr: context.DeadlineExceeded}
	allocator := &allocatorStub{}
	runner := &txRunnerStub{}
	notifier := &donationNotifierStub{}
	svc := NewDonationService(store, ledger, allocator, runner, keylock.New(), notifier, &shortageStub{}, nil)

	_, err := svc.Add(context.Background(), "Tampines CC", "don-1")
	require.Error(t, err)
	require.Equal(t, 1, runner.calls)
	require.Equal(t, 1, runner.rolledBack)
	require.Zero(t, allocator.calls)
	require.Empty(t, notifier.added)
}

func TestDonationAddRequiresApprovedStatus(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationPending)
	svc, _, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	_, err := svc.Add(context.Background(), "Tampines CC", "don-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestDonationManagerScopedToOwnClub(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationPending)
	svc, _, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	_, err := svc.Approve(context.Background(), "Bishan CC", "don-1")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestDonationRejectRemovesRecord(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationPending)
	svc, notifier, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	require.NoError(t, svc.Reject(context.Background(), "Tampines CC", "don-1"))
	require.Equal(t, []string{"don-1"}, store.deleted)
	require.Len(t, notifier.rejected, 1)

	found, err := svc.Get(context.Background(), "alice@example.com", "don-1")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	require.Nil(t, found)
}

func TestDonationOwnerDeleteBlockedAfterAdd(t *testing.T) {
	store := newDonationStoreStub()
	seedDonation(store, models.DonationAdded)
	svc, _, _ := newDonationService(store, &creditLedgerStub{}, &allocatorStub{})

	err := svc.Delete(context.Background(), "alice@example.com", "don-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}
