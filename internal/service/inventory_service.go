package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/internal/repository"
	"github.com/careconnect/careconnect-api/pkg/config"
)

const markerCacheKey = "markers:all"

type inventoryLedger interface {
	AggregateByLocation(ctx context.Context) ([]models.LocationAggregate, error)
	ListByLocation(ctx context.Context, location string) ([]models.InventoryRecord, error)
}

type requestCounter interface {
	CountByLocation(ctx context.Context) ([]repository.LocationRequestCounts, error)
}

type donationCounter interface {
	CountByLocation(ctx context.Context) ([]repository.LocationDonationCount, error)
}

type projectionCache interface {
	Get(ctx context.Context, key string) (string, error)
	SetTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

type severeItemLister interface {
	SevereShortageItems(ctx context.Context, location string) ([]string, error)
}

// InventoryService builds the read-side projections: per-club summaries,
// per-item inventory detail and the public map markers. Markers are cached in
// redis since the public map is the hottest read.
type InventoryService struct {
	ledger    inventoryLedger
	requests  requestCounter
	donations donationCounter
	severe    severeItemLister
	cache     projectionCache
	threshold float64
	cfg       config.MarkersConfig
	logger    *zap.Logger
}

// NewInventoryService constructs the service.
func NewInventoryService(ledger inventoryLedger, requests requestCounter, donations donationCounter, severe severeItemLister, cache projectionCache, threshold float64, cfg config.MarkersConfig, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	return &InventoryService{
		ledger:    ledger,
		requests:  requests,
		donations: donations,
		severe:    severe,
		cache:     cache,
		threshold: threshold,
		cfg:       cfg,
		logger:    logger,
	}
}

// CCSummaries builds the per-club aggregate view across all clubs.
func (s *InventoryService) CCSummaries(ctx context.Context) ([]dto.CCSummary, error) {
	aggregates, err := s.ledger.AggregateByLocation(ctx)
	if err != nil {
		return nil, err
	}
	requestCounts, err := s.requests.CountByLocation(ctx)
	if err != nil {
		return nil, err
	}
	donationCounts, err := s.donations.CountByLocation(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make(map[string]*dto.CCSummary)
	order := make([]string, 0)
	ensure := func(location string) *dto.CCSummary {
		if summary, ok := summaries[location]; ok {
			return summary
		}
		summary := &dto.CCSummary{Location: location, SevereShortageItems: []string{}}
		summaries[location] = summary
		order = append(order, location)
		return summary
	}
	for _, aggregate := range aggregates {
		summary := ensure(aggregate.Location)
		summary.FulfillmentRate = aggregate.FulfilmentRate()
	}
	for _, count := range requestCounts {
		summary := ensure(count.Location)
		summary.TotalRequests = count.Total
		summary.FulfilledRequests = count.Fulfilled
	}
	for _, count := range donationCounts {
		summary := ensure(count.Location)
		summary.TotalDonations = count.Total
	}

	sort.Strings(order)
	out := make([]dto.CCSummary, 0, len(order))
	for _, location := range order {
		summary := summaries[location]
		items, err := s.severe.SevereShortageItems(ctx, location)
		if err != nil {
			return nil, err
		}
		if items != nil {
			summary.SevereShortageItems = items
		}
		out = append(out, *summary)
	}
	return out, nil
}

// InventoryDetail builds the per-item view of one club. A pair nobody has
// requested reads as fully fulfilled.
func (s *InventoryService) InventoryDetail(ctx context.Context, location string) ([]dto.ItemInventory, error) {
	records, err := s.ledger.ListByLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemInventory, 0, len(records))
	for _, record := range records {
		pct := 100.0
		if record.TotalRequested > 0 {
			pct = float64(record.TotalDonated) / float64(record.TotalRequested) * 100
		}
		items = append(items, dto.ItemInventory{
			ItemName:       record.Item,
			TotalRequested: record.TotalRequested,
			TotalDonated:   record.TotalDonated,
			FulfillmentPct: pct,
		})
	}
	return items, nil
}

// Markers builds the public community club map markers, serving from the
// redis cache when fresh.
func (s *InventoryService) Markers(ctx context.Context) ([]dto.Marker, error) {
	if cached, err := s.cache.Get(ctx, markerCacheKey); err == nil && cached != "" {
		var markers []dto.Marker
		if err := json.Unmarshal([]byte(cached), &markers); err == nil {
			return markers, nil
		}
		s.logger.Warn("dropping unreadable marker cache entry")
	}

	aggregates, err := s.ledger.AggregateByLocation(ctx)
	if err != nil {
		return nil, err
	}
	markers := make([]dto.Marker, 0, len(aggregates))
	for _, aggregate := range aggregates {
		rate := aggregate.FulfilmentRate()
		markers = append(markers, dto.Marker{
			Name:           aggregate.Location,
			FulfilmentRate: rate,
			LowFulfilment:  rate != nil && *rate < s.threshold,
			Link:           s.cfg.LinkBase + url.PathEscape(aggregate.Location),
		})
	}

	if encoded, err := json.Marshal(markers); err == nil {
		if err := s.cache.SetTTL(ctx, markerCacheKey, string(encoded), s.cfg.CacheTTL); err != nil {
			s.logger.Warn("marker cache write failed", zap.Error(err))
		}
	}
	return markers, nil
}
