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

type requestStoreStub struct {
	byID      map[string]*models.Request
	created   []*models.Request
	deleted   []string
	completed []string
}

func newRequestStoreStub() *requestStoreStub {
	return &requestStoreStub{byID: make(map[string]*models.Request)}
}

func (s *requestStoreStub) Create(_ context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = "req-" + request.Item
	}
	request.Status = models.RequestPending
	s.created = append(s.created, request)
	copied := *request
	s.byID[request.ID] = &copied
	return nil
}

func (s *requestStoreStub) GetByID(_ context.Context, id string) (*models.Request, error) {
	request, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (s *requestStoreStub) ListByRequester(context.Context, string) ([]models.Request, error) {
	return nil, nil
}

func (s *requestStoreStub) ListMatchedByLocation(context.Context, string) ([]models.Request, error) {
	return nil, nil
}

func (s *requestStoreStub) UpdateFields(_ context.Context, request *models.Request) error {
	copied := *request
	s.byID[request.ID] = &copied
	return nil
}

func (s *requestStoreStub) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *requestStoreStub) DeleteMatched(_ context.Context, id string) error {
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *requestStoreStub) Complete(_ context.Context, id string) error {
	s.byID[id].Status = models.RequestCompleted
	s.completed = append(s.completed, id)
	return nil
}

// txRunnerStub stands in for the transaction manager. A failing step counts
// as a rollback so tests can assert the sequence aborted as one unit.
type txRunnerStub struct {
	calls      int
	rolledBack int
}

func (s *txRunnerStub) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	err := fn(ctx)
	if err != nil {
		s.rolledBack++
	}
	return err
}

type ledgerOpsStub struct {
	addRequested    []int
	reduceRequested []int
	released        []int
	releaseErr      error
}

func (s *ledgerOpsStub) AddRequested(_ context.Context, _, _ string, quantity int) error {
	s.addRequested = append(s.addRequested, quantity)
	return nil
}

func (s *ledgerOpsStub) ReduceRequested(_ context.Context, _, _ string, quantity int) error {
	s.reduceRequested = append(s.reduceRequested, quantity)
	return nil
}

func (s *ledgerOpsStub) Release(_ context.Context, _, _ string, quantity int) error {
	if s.releaseErr != nil {
		return s.releaseErr
	}
	s.released = append(s.released, quantity)
	return nil
}

type allocatorStub struct {
	results []PassResult
	calls   int
}

func (s *allocatorStub) PassLocked(context.Context, string, string) (PassResult, error) {
	s.calls++
	if len(s.results) == 0 {
		return PassResult{}, nil
	}
	result := s.results[0]
	s.results = s.results[1:]
	return result, nil
}

type notifierStub struct {
	matched [][]models.Request
}

func (s *notifierStub) RequestsMatched(matched []models.Request) {
	s.matched = append(s.matched, matched)
}

type shortageStub struct {
	evaluated []string
}

func (s *shortageStub) Evaluate(_ context.Context, location string) {
	s.evaluated = append(s.evaluated, location)
}

func newRequestService(store *requestStoreStub, ledger *ledgerOpsStub, allocator *allocatorStub) (*RequestService, *notifierStub, *shortageStub) {
	notifier := &notifierStub{}
	shortage := &shortageStub{}
	svc := NewRequestService(store, ledger, allocator, &txRunnerStub{}, keylock.New(), notifier, shortage, nil)
	return svc, notifier, shortage
}

func TestRequestCreateImmediatelyMatchedWhenStockAvailable(t *testing.T) {
	store := newRequestStoreStub()
	ledger := &ledgerOpsStub{}
	matchedAt := time.Now().UTC()
	allocator := &allocatorStub{results: []PassResult{{
		Granted: 2,
		Matched: []models.Request{{
			ID:             "req-Rice 5kg",
			RequesterEmail: "carol@example.com",
			Item:           "Rice 5kg",
			Quantity:       2,
			Allocation:     2,
			Location:       "Tampines CC",
			Status:         models.RequestMatched,
			MatchedAt:      &matchedAt,
		}},
	}}}
	svc, notifier, shortage := newRequestService(store, ledger, allocator)

	request, err := svc.Create(context.Background(), "carol@example.com", dto.CreateRequestRequest{
		Category: "Food",
		Item:     "Rice 5kg",
		Quantity: 2,
		Location: "Tampines CC",
	})
	require.NoError(t, err)
	require.Equal(t, models.RequestMatched, request.Status)
	require.Equal(t, 2, request.Allocation)
	require.Equal(t, []int{2}, ledger.addRequested)
	require.Len(t, notifier.matched, 1)
	require.Equal(t, []string{"Tampines CC"}, shortage.evaluated)
}

func TestRequestCreateStaysPendingWithoutStock(t *testing.T) {
	store := newRequestStoreStub()
	svc, notifier, _ := newRequestService(store, &ledgerOpsStub{}, &allocatorStub{})

	request, err := svc.Create(context.Background(), "carol@example.com", dto.CreateRequestRequest{
		Category: "Essentials",
		Item:     "Blanket",
		Quantity: 1,
		Location: "Bishan CC",
	})
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, request.Status)
	require.Zero(t, request.Allocation)
	require.Empty(t, notifier.matched)
}

func TestRequestCreateRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newRequestService(newRequestStoreStub(), &ledgerOpsStub{}, &allocatorStub{})

	_, err := svc.Create(context.Background(), "carol@example.com", dto.CreateRequestRequest{
		Category: "Toys",
		Item:     "Lego",
		Quantity: 1,
		Location: "Bishan CC",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRequestRejectReleasesStockAndReallocates(t *testing.T) {
	store := newRequestStoreStub()
	matchedAt := time.Now().UTC()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Rice 5kg",
		Quantity:       2,
		Allocation:     2,
		Location:       "Tampines CC",
		Status:         models.RequestMatched,
		MatchedAt:      &matchedAt,
	}
	ledger := &ledgerOpsStub{}
	allocator := &allocatorStub{results: []PassResult{{
		Granted: 2,
		Matched: []models.Request{{ID: "req-2", RequesterEmail: "dan@example.com", Status: models.RequestMatched}},
	}}}
	svc, notifier, shortage := newRequestService(store, ledger, allocator)

	err := svc.Reject(context.Background(), "carol@example.com", dto.RejectRequestPayload{
		RequestID: "req-1",
		Item:      "Rice 5kg",
		Location:  "Tampines CC",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"req-1"}, store.deleted)
	require.Equal(t, []int{2}, ledger.released)
	require.Equal(t, []int{2}, ledger.reduceRequested)
	require.Len(t, notifier.matched, 1)
	require.Equal(t, "req-2", notifier.matched[0][0].ID)
	require.Equal(t, []string{"Tampines CC"}, shortage.evaluated)
}

func TestRequestRejectAbortsAsOneUnitWhenReleaseFails(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Rice 5kg",
		Quantity:       2,
		Allocation:     2,
		Location:       "Tampines CC",
		Status:         models.RequestMatched,
	}
	ledger := &ledgerOpsStub{releaseErr: context.DeadlineExceeded}
	allocator := &allocatorStub{}
	runner := &txRunnerStub{}
	notifier := &notifierStub{}
	svc := NewRequestService(store, ledger, allocator, runner, keylock.New(), notifier, &shortageStub{}, nil)

	err := svc.Reject(context.Background(), "carol@example.com", dto.RejectRequestPayload{
		RequestID: "req-1",
		Item:      "Rice 5kg",
		Location:  "Tampines CC",
	})
	require.Error(t, err)
	require.Equal(t, 1, runner.calls)
	require.Equal(t, 1, runner.rolledBack)
	require.Zero(t, allocator.calls)
	require.Empty(t, ledger.reduceRequested)
	require.Empty(t, notifier.matched)
}

func TestRequestRejectValidatesItemAndLocation(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Rice 5kg",
		Quantity:       2,
		Allocation:     2,
		Location:       "Tampines CC",
		Status:         models.RequestMatched,
	}
	svc, _, _ := newRequestService(store, &ledgerOpsStub{}, &allocatorStub{})

	err := svc.Reject(context.Background(), "carol@example.com", dto.RejectRequestPayload{
		RequestID: "req-1",
		Item:      "Rice 10kg",
		Location:  "Tampines CC",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRequestRejectRequiresMatchedStatus(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Rice 5kg",
		Quantity:       2,
		Location:       "Tampines CC",
		Status:         models.RequestPending,
	}
	svc, _, _ := newRequestService(store, &ledgerOpsStub{}, &allocatorStub{})

	err := svc.Reject(context.Background(), "carol@example.com", dto.RejectRequestPayload{
		RequestID: "req-1",
		Item:      "Rice 5kg",
		Location:  "Tampines CC",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestRequestDeleteRemovesDemand(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Blanket",
		Quantity:       3,
		Location:       "Bishan CC",
		Status:         models.RequestPending,
	}
	ledger := &ledgerOpsStub{}
	svc, _, shortage := newRequestService(store, ledger, &allocatorStub{})

	require.NoError(t, svc.Delete(context.Background(), "carol@example.com", "req-1"))
	require.Equal(t, []int{3}, ledger.reduceRequested)
	require.Equal(t, []string{"Bishan CC"}, shortage.evaluated)
}

func TestRequestDeleteBlockedWhileAllocated(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Blanket",
		Quantity:       3,
		Allocation:     3,
		Location:       "Bishan CC",
		Status:         models.RequestPending,
	}
	ledger := &ledgerOpsStub{}
	svc, _, _ := newRequestService(store, ledger, &allocatorStub{})

	err := svc.Delete(context.Background(), "carol@example.com", "req-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	require.Empty(t, store.deleted)
	require.Empty(t, ledger.reduceRequested)
}

func TestRequestCompleteScopedToManagerClub(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Item:           "Rice 5kg",
		Quantity:       2,
		Allocation:     2,
		Location:       "Tampines CC",
		Status:         models.RequestMatched,
	}
	svc, _, _ := newRequestService(store, &ledgerOpsStub{}, &allocatorStub{})

	_, err := svc.Complete(context.Background(), "Bishan CC", "req-1")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	request, err := svc.Complete(context.Background(), "Tampines CC", "req-1")
	require.NoError(t, err)
	require.Equal(t, models.RequestCompleted, request.Status)
	require.Equal(t, []string{"req-1"}, store.completed)
}

func TestRequestOwnershipEnforced(t *testing.T) {
	store := newRequestStoreStub()
	store.byID["req-1"] = &models.Request{
		ID:             "req-1",
		RequesterEmail: "carol@example.com",
		Status:         models.RequestPending,
	}
	svc, _, _ := newRequestService(store, &ledgerOpsStub{}, &allocatorStub{})

	_, err := svc.Get(context.Background(), "mallory@example.com", "req-1")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Get(context.Background(), "carol@example.com", "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}
