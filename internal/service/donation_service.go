package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/internal/repository"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/keylock"
)

type donationStore interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id string) (*models.Donation, error)
	ListByDonor(ctx context.Context, donorEmail string) ([]models.Donation, error)
	ListByLocationAndStatus(ctx context.Context, location string, status models.DonationStatus) ([]models.Donation, error)
	Update(ctx context.Context, donation *models.Donation) error
	UpdateStatus(ctx context.Context, id string, from, to models.DonationStatus, approvedAt *time.Time) error
	Delete(ctx context.Context, id string, statuses ...models.DonationStatus) error
}

type donationLedger interface {
	Credit(ctx context.Context, location, item string, quantity int) error
}

type donationAllocator interface {
	PassLocked(ctx context.Context, location, item string) (PassResult, error)
}

type donationNotifier interface {
	DonationSubmitted(donation models.Donation)
	DonationApproved(donation models.Donation)
	DonationAdded(donation models.Donation)
	DonationRejected(donation models.Donation)
	RequestsMatched(matched []models.Request)
}

type shortageEvaluator interface {
	Evaluate(ctx context.Context, location string)
}

// txRunner runs a function inside one database transaction so multi-step
// transitions commit or roll back together.
type txRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DonationService runs the donation lifecycle. The Added transition credits
// the inventory ledger and triggers an allocation pass under the pair's lock.
type DonationService struct {
	repo      donationStore
	ledger    donationLedger
	allocator donationAllocator
	tx        txRunner
	locks     *keylock.Registry
	notifier  donationNotifier
	shortage  shortageEvaluator
	logger    *zap.Logger
	now       func() time.Time
}

// NewDonationService constructs the service.
func NewDonationService(repo donationStore, ledger donationLedger, allocator donationAllocator, tx txRunner, locks *keylock.Registry, notifier donationNotifier, shortage shortageEvaluator, logger *zap.Logger) *DonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DonationService{
		repo:      repo,
		ledger:    ledger,
		allocator: allocator,
		tx:        tx,
		locks:     locks,
		notifier:  notifier,
		shortage:  shortage,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new Pending donation for the donor.
func (s *DonationService) Create(ctx context.Context, donorEmail string, req dto.CreateDonationRequest) (*models.Donation, error) {
	category := models.Category(req.Category)
	expiry, err := validateDonationFields(category, req.ExpiryDate, s.now())
	if err != nil {
		return nil, err
	}
	donation := &models.Donation{
		DonorEmail: donorEmail,
		Category:   category,
		Item:       req.Item,
		Quantity:   req.Quantity,
		Location:   req.Location,
		ImageLink:  req.ImageLink,
		ExpiryDate: expiry,
		Status:     models.DonationPending,
	}
	if err := s.repo.Create(ctx, donation); err != nil {
		return nil, err
	}
	s.notifier.DonationSubmitted(*donation)
	s.logger.Info("donation created",
		zap.String("donation_id", donation.ID),
		zap.String("location", donation.Location),
		zap.String("item", donation.Item))
	return donation, nil
}

// ListMine returns the donor's donations.
func (s *DonationService) ListMine(ctx context.Context, donorEmail string) ([]models.Donation, error) {
	return s.repo.ListByDonor(ctx, donorEmail)
}

// Get returns one donation the caller owns.
func (s *DonationService) Get(ctx context.Context, donorEmail, id string) (*models.Donation, error) {
	donation, err := s.loadOwned(ctx, donorEmail, id)
	if err != nil {
		return nil, err
	}
	return donation, nil
}

// Update edits a Pending donation the caller owns.
func (s *DonationService) Update(ctx context.Context, donorEmail, id string, req dto.UpdateDonationRequest) (*models.Donation, error) {
	donation, err := s.loadOwned(ctx, donorEmail, id)
	if err != nil {
		return nil, err
	}
	if !donation.CanEdit() {
		return nil, appErrors.InvalidState(string(donation.Status), "only pending donations can be edited")
	}
	if req.Category != "" {
		donation.Category = models.Category(req.Category)
	}
	if req.Item != "" {
		donation.Item = req.Item
	}
	if req.Quantity > 0 {
		donation.Quantity = req.Quantity
	}
	if req.Location != "" {
		donation.Location = req.Location
	}
	if req.ImageLink != "" {
		donation.ImageLink = req.ImageLink
	}
	expiryInput := req.ExpiryDate
	if expiryInput == "" && donation.Category.Perishable() && donation.ExpiryDate != nil {
		expiryInput = donation.ExpiryDate.Format("2006-01-02")
	}
	if !donation.Category.Perishable() {
		// A stale expiry from a previous perishable category is dropped.
		expiryInput = ""
	}
	expiry, err := validateDonationFields(donation.Category, expiryInput, s.now())
	if err != nil {
		return nil, err
	}
	donation.ExpiryDate = expiry
	if err := s.repo.Update(ctx, donation); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return nil, appErrors.InvalidState(string(donation.Status), "donation was reviewed concurrently")
		}
		return nil, err
	}
	return donation, nil
}

// Delete withdraws a Pending or Approved donation the caller owns. The record
// is removed entirely since nothing was credited yet.
func (s *DonationService) Delete(ctx context.Context, donorEmail, id string) error {
	donation, err := s.loadOwned(ctx, donorEmail, id)
	if err != nil {
		return err
	}
	if !donation.CanOwnerDelete() {
		return appErrors.InvalidState(string(donation.Status), "added donations cannot be withdrawn")
	}
	if err := s.repo.Delete(ctx, id, models.DonationPending, models.DonationApproved); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return appErrors.InvalidState(string(donation.Status), "donation was added concurrently")
		}
		return err
	}
	return nil
}

// ListForReview returns a club's Pending and Approved donations for its
// manager.
func (s *DonationService) ListForReview(ctx context.Context, location string) (*dto.ManagerDonationList, error) {
	pending, err := s.repo.ListByLocationAndStatus(ctx, location, models.DonationPending)
	if err != nil {
		return nil, err
	}
	approved, err := s.repo.ListByLocationAndStatus(ctx, location, models.DonationApproved)
	if err != nil {
		return nil, err
	}
	return &dto.ManagerDonationList{Pending: pending, Approved: approved}, nil
}

// Approve moves a Pending donation to Approved.
func (s *DonationService) Approve(ctx context.Context, managerCC, id string) (*models.Donation, error) {
	donation, err := s.loadForManager(ctx, managerCC, id)
	if err != nil {
		return nil, err
	}
	if !donation.CanApprove() {
		return nil, appErrors.InvalidState(string(donation.Status), "only pending donations can be approved")
	}
	approvedAt := s.now()
	if err := s.repo.UpdateStatus(ctx, id, models.DonationPending, models.DonationApproved, &approvedAt); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return nil, appErrors.InvalidState(string(donation.Status), "donation was reviewed concurrently")
		}
		return nil, err
	}
	donation.Status = models.DonationApproved
	donation.ApprovedAt = &approvedAt
	s.notifier.DonationApproved(*donation)
	return donation, nil
}

// Reject removes a Pending or Approved donation from the club's queue.
func (s *DonationService) Reject(ctx context.Context, managerCC, id string) error {
	donation, err := s.loadForManager(ctx, managerCC, id)
	if err != nil {
		return err
	}
	if !donation.CanReject() {
		return appErrors.InvalidState(string(donation.Status), "added donations cannot be rejected")
	}
	if err := s.repo.Delete(ctx, id, models.DonationPending, models.DonationApproved); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return appErrors.InvalidState(string(donation.Status), "donation was added concurrently")
		}
		return err
	}
	s.notifier.DonationRejected(*donation)
	return nil
}

// Add credits an Approved donation to the inventory ledger and immediately
// runs an allocation pass for the pair. The transition is terminal.
func (s *DonationService) Add(ctx context.Context, managerCC, id string) (*models.Donation, error) {
	donation, err := s.loadForManager(ctx, managerCC, id)
	if err != nil {
		return nil, err
	}
	if !donation.CanAdd() {
		return nil, appErrors.InvalidState(string(donation.Status), "only approved donations can be added")
	}

	result, err := s.addLocked(ctx, donation)
	if err != nil {
		return nil, err
	}

	donation.Status = models.DonationAdded
	s.notifier.DonationAdded(*donation)
	if len(result.Matched) > 0 {
		s.notifier.RequestsMatched(result.Matched)
	}
	s.shortage.Evaluate(ctx, donation.Location)
	return donation, nil
}

func (s *DonationService) addLocked(ctx context.Context, donation *models.Donation) (PassResult, error) {
	key := keylock.Key(donation.Location, donation.Item)
	if err := s.locks.Lock(ctx, key); err != nil {
		return PassResult{}, err
	}
	defer s.locks.Unlock(key)

	var result PassResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, donation.ID, models.DonationApproved, models.DonationAdded, nil); err != nil {
			return err
		}
		if err := s.ledger.Credit(ctx, donation.Location, donation.Item, donation.Quantity); err != nil {
			return err
		}
		var passErr error
		result, passErr = s.allocator.PassLocked(ctx, donation.Location, donation.Item)
		return passErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return PassResult{}, appErrors.InvalidState(string(donation.Status), "donation was added concurrently")
		}
		return PassResult{}, err
	}
	return result, nil
}

func (s *DonationService) loadOwned(ctx context.Context, donorEmail, id string) (*models.Donation, error) {
	donation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, appErrors.ErrNotFound
	}
	if donation.DonorEmail != donorEmail {
		return nil, appErrors.ErrForbidden
	}
	return donation, nil
}

func (s *DonationService) loadForManager(ctx context.Context, managerCC, id string) (*models.Donation, error) {
	donation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, appErrors.ErrNotFound
	}
	if donation.Location != managerCC {
		return nil, appErrors.ErrForbidden
	}
	return donation, nil
}

func validateDonationFields(category models.Category, expiryDate string, now time.Time) (*time.Time, error) {
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if category.Perishable() {
		if expiryDate == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiry date is required for perishable categories")
		}
		expiry, err := time.Parse("2006-01-02", expiryDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiry date must be YYYY-MM-DD")
		}
		if !expiry.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "expiry date must be in the future")
		}
		return &expiry, nil
	}
	if expiryDate != "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expiry date only applies to perishable categories")
	}
	return nil, nil
}
