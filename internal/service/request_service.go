package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/internal/repository"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/keylock"
)

type requestStore interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	ListByRequester(ctx context.Context, requesterEmail string) ([]models.Request, error)
	ListMatchedByLocation(ctx context.Context, location string) ([]models.Request, error)
	UpdateFields(ctx context.Context, request *models.Request) error
	Delete(ctx context.Context, id string) error
	DeleteMatched(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
}

type requestLedger interface {
	AddRequested(ctx context.Context, location, item string, quantity int) error
	ReduceRequested(ctx context.Context, location, item string, quantity int) error
	Release(ctx context.Context, location, item string, quantity int) error
}

type requestNotifier interface {
	RequestsMatched(matched []models.Request)
}

// RequestService runs the request lifecycle. Every ledger mutation happens
// under the (location, item) lock, and allocation passes run whenever demand
// is registered or reserved stock is freed.
type RequestService struct {
	repo      requestStore
	ledger    requestLedger
	allocator donationAllocator
	tx        txRunner
	locks     *keylock.Registry
	notifier  requestNotifier
	shortage  shortageEvaluator
	logger    *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(repo requestStore, ledger requestLedger, allocator donationAllocator, tx txRunner, locks *keylock.Registry, notifier requestNotifier, shortage shortageEvaluator, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		repo:      repo,
		ledger:    ledger,
		allocator: allocator,
		tx:        tx,
		locks:     locks,
		notifier:  notifier,
		shortage:  shortage,
		logger:    logger,
	}
}

// Create registers a new request and immediately tries to serve it from
// existing stock.
func (s *RequestService) Create(ctx context.Context, requesterEmail string, req dto.CreateRequestRequest) (*models.Request, error) {
	category := models.Category(req.Category)
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	request := &models.Request{
		RequesterEmail: requesterEmail,
		Category:       category,
		Item:           req.Item,
		Quantity:       req.Quantity,
		Location:       req.Location,
		Status:         models.RequestPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	result, err := s.registerDemand(ctx, request.Location, request.Item, request.Quantity)
	if err != nil {
		return nil, err
	}
	for _, matched := range result.Matched {
		if matched.ID == request.ID {
			*request = matched
		}
	}
	if len(result.Matched) > 0 {
		s.notifier.RequestsMatched(result.Matched)
	}
	s.shortage.Evaluate(ctx, request.Location)
	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("location", request.Location),
		zap.String("item", request.Item),
		zap.String("status", string(request.Status)))
	return request, nil
}

// ListMine returns the requester's requests.
func (s *RequestService) ListMine(ctx context.Context, requesterEmail string) ([]models.Request, error) {
	return s.repo.ListByRequester(ctx, requesterEmail)
}

// Get returns one request the caller owns.
func (s *RequestService) Get(ctx context.Context, requesterEmail, id string) (*models.Request, error) {
	return s.loadOwned(ctx, requesterEmail, id)
}

// Update edits a Pending, unallocated request. Moving the request to another
// (location, item) pair shifts its demand in the ledger and re-runs the
// allocation pass on the new pair.
func (s *RequestService) Update(ctx context.Context, requesterEmail, id string, req dto.UpdateRequestRequest) (*models.Request, error) {
	request, err := s.loadOwned(ctx, requesterEmail, id)
	if err != nil {
		return nil, err
	}
	if !request.CanEdit() {
		return nil, appErrors.InvalidState(string(request.Status), "only pending requests can be edited")
	}

	oldLocation, oldItem, oldQuantity := request.Location, request.Item, request.Quantity
	if req.Category != "" {
		category := models.Category(req.Category)
		if !category.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
		request.Category = category
	}
	if req.Item != "" {
		request.Item = req.Item
	}
	if req.Quantity > 0 {
		request.Quantity = req.Quantity
	}
	if req.Location != "" {
		request.Location = req.Location
	}

	oldKey := keylock.Key(oldLocation, oldItem)
	sameKey := oldKey == keylock.Key(request.Location, request.Item)
	if err := s.locks.Lock(ctx, oldKey); err != nil {
		return nil, err
	}
	var result PassResult
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateFields(ctx, request); err != nil {
			return err
		}
		if err := s.ledger.ReduceRequested(ctx, oldLocation, oldItem, oldQuantity); err != nil {
			return err
		}
		if !sameKey {
			return nil
		}
		if err := s.ledger.AddRequested(ctx, request.Location, request.Item, request.Quantity); err != nil {
			return err
		}
		var passErr error
		result, passErr = s.allocator.PassLocked(ctx, request.Location, request.Item)
		return passErr
	})
	s.locks.Unlock(oldKey)
	if err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return nil, appErrors.InvalidState(string(request.Status), "request was matched concurrently")
		}
		return nil, err
	}
	if !sameKey {
		result, err = s.registerDemand(ctx, request.Location, request.Item, request.Quantity)
		if err != nil {
			return nil, err
		}
	}

	for _, matched := range result.Matched {
		if matched.ID == request.ID {
			*request = matched
		}
	}
	if len(result.Matched) > 0 {
		s.notifier.RequestsMatched(result.Matched)
	}
	s.shortage.Evaluate(ctx, request.Location)
	if oldLocation != request.Location {
		s.shortage.Evaluate(ctx, oldLocation)
	}
	return request, nil
}

// Delete withdraws a Pending request and removes its demand from the ledger.
func (s *RequestService) Delete(ctx context.Context, requesterEmail, id string) error {
	request, err := s.loadOwned(ctx, requesterEmail, id)
	if err != nil {
		return err
	}
	if !request.CanDelete() {
		return appErrors.InvalidState(string(request.Status), "only pending requests can be deleted")
	}

	key := keylock.Key(request.Location, request.Item)
	if err := s.locks.Lock(ctx, key); err != nil {
		return err
	}
	defer s.locks.Unlock(key)
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.ledger.ReduceRequested(ctx, request.Location, request.Item, request.Quantity)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return appErrors.InvalidState(string(request.Status), "request was matched concurrently")
		}
		return err
	}
	s.shortage.Evaluate(ctx, request.Location)
	return nil
}

// Reject withdraws a Matched request. The reserved stock is released back to
// the pool and may immediately serve another pending request.
func (s *RequestService) Reject(ctx context.Context, requesterEmail string, payload dto.RejectRequestPayload) error {
	request, err := s.loadOwned(ctx, requesterEmail, payload.RequestID)
	if err != nil {
		return err
	}
	if !request.CanReject() {
		return appErrors.InvalidState(string(request.Status), "only matched requests can be rejected")
	}
	if request.Item != payload.Item || request.Location != payload.Location {
		return appErrors.Clone(appErrors.ErrValidation, "item or location does not match the request")
	}

	result, err := s.rejectLocked(ctx, request)
	if err != nil {
		return err
	}
	if len(result.Matched) > 0 {
		s.notifier.RequestsMatched(result.Matched)
	}
	s.shortage.Evaluate(ctx, request.Location)
	return nil
}

// ListMatchedByLocation returns a club's Matched requests awaiting pickup.
func (s *RequestService) ListMatchedByLocation(ctx context.Context, location string) ([]models.Request, error) {
	return s.repo.ListMatchedByLocation(ctx, location)
}

// Complete marks a Matched request of the manager's club as picked up. The
// ledger keeps the allocation and demand so fulfilment history stays intact.
func (s *RequestService) Complete(ctx context.Context, managerCC, id string) (*models.Request, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, appErrors.ErrNotFound
	}
	if request.Location != managerCC {
		return nil, appErrors.ErrForbidden
	}
	if !request.CanComplete() {
		return nil, appErrors.InvalidState(string(request.Status), "only matched requests can be completed")
	}
	if err := s.repo.Complete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleRecord) {
			return nil, appErrors.InvalidState(string(request.Status), "request changed state concurrently")
		}
		return nil, err
	}
	request.Status = models.RequestCompleted
	return request, nil
}

func (s *RequestService) registerDemand(ctx context.Context, location, item string, quantity int) (PassResult, error) {
	key := keylock.Key(location, item)
	if err := s.locks.Lock(ctx, key); err != nil {
		return PassResult{}, err
	}
	defer s.locks.Unlock(key)
	var result PassResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.ledger.AddRequested(ctx, location, item, quantity); err != nil {
			return err
		}
		var passErr error
		result, passErr = s.allocator.PassLocked(ctx, location, item)
		return passErr
	})
	if err != nil {
		return PassResult{}, err
	}
	return result, nil
}

func (s *RequestService) rejectLocked(ctx context.Context, request *models.Request) (PassResult, error) {
	key := keylock.Key(request.Location, request.Item)
	if err := s.locks.Lock(ctx, key); err != nil {
		return PassResult{}, err
	}
	defer s.locks.Unlock(key)

	var result PassResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteMatched(ctx, request.ID); err != nil {
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
		if errors.Is(err, repository.ErrStaleRecord) {
			return PassResult{}, appErrors.InvalidState(string(request.Status), "request changed state concurrently")
		}
		return PassResult{}, err
	}
	return result, nil
}

func (s *RequestService) loadOwned(ctx context.Context, requesterEmail, id string) (*models.Request, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, appErrors.ErrNotFound
	}
	if request.RequesterEmail != requesterEmail {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}
