package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
)

const (
	shortageStateOK  = "ok"
	shortageStateLow = "low"
)

type shortageLedger interface {
	AggregateForLocation(ctx context.Context, location string) (models.LocationAggregate, error)
	ListByLocation(ctx context.Context, location string) ([]models.InventoryRecord, error)
}

type shortageStateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type shortageBroadcaster interface {
	ShortageDetected(event dto.ShortageEvent)
}

type shortageMetrics interface {
	ObserveShortageEvent(location string)
}

// ShortageService watches each club's fulfilment rate and broadcasts when it
// crosses below the threshold. Only the downward crossing fires, so a club
// stuck in shortage does not spam its subscribers. The last known side of the
// threshold is kept in redis so restarts do not re-broadcast.
type ShortageService struct {
	ledger      shortageLedger
	state       shortageStateStore
	broadcaster shortageBroadcaster
	metrics     shortageMetrics
	threshold   float64
	logger      *zap.Logger
}

// NewShortageService constructs the service. Metrics may be nil.
func NewShortageService(ledger shortageLedger, state shortageStateStore, broadcaster shortageBroadcaster, metrics shortageMetrics, threshold float64, logger *zap.Logger) *ShortageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	return &ShortageService{
		ledger:      ledger,
		state:       state,
		broadcaster: broadcaster,
		metrics:     metrics,
		threshold:   threshold,
		logger:      logger,
	}
}

// Evaluate recomputes the club's fulfilment rate and fires a broadcast on a
// downward crossing. Failures are logged, never returned, since callers treat
// shortage detection as best effort.
func (s *ShortageService) Evaluate(ctx context.Context, location string) {
	aggregate, err := s.ledger.AggregateForLocation(ctx, location)
	if err != nil {
		s.logger.Error("shortage evaluation failed", zap.String("location", location), zap.Error(err))
		return
	}

	rate := aggregate.FulfilmentRate()
	current := shortageStateOK
	if rate != nil && *rate < s.threshold {
		current = shortageStateLow
	}

	key := shortageStateKey(location)
	previous, err := s.state.Get(ctx, key)
	if err != nil {
		s.logger.Error("shortage state read failed", zap.String("location", location), zap.Error(err))
		return
	}
	if previous == current {
		return
	}
	if err := s.state.Set(ctx, key, current); err != nil {
		s.logger.Error("shortage state write failed", zap.String("location", location), zap.Error(err))
		return
	}
	if current != shortageStateLow {
		return
	}

	items, err := s.SevereShortageItems(ctx, location)
	if err != nil {
		s.logger.Error("severe shortage listing failed", zap.String("location", location), zap.Error(err))
		items = nil
	}
	event := dto.ShortageEvent{Location: location, Rate: *rate, Items: items}
	s.broadcaster.ShortageDetected(event)
	if s.metrics != nil {
		s.metrics.ObserveShortageEvent(location)
	}
	s.logger.Warn("shortage detected",
		zap.String("location", location),
		zap.Float64("rate", *rate),
		zap.Strings("items", items))
}

// SevereShortageItems lists the club's items whose donated total covers less
// than the threshold share of demand.
func (s *ShortageService) SevereShortageItems(ctx context.Context, location string) ([]string, error) {
	records, err := s.ledger.ListByLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0)
	for _, record := range records {
		if record.TotalRequested == 0 {
			continue
		}
		if float64(record.TotalDonated) < s.threshold*float64(record.TotalRequested) {
			items = append(items, record.Item)
		}
	}
	return items, nil
}

func shortageStateKey(location string) string {
	return fmt.Sprintf("shortage:state:%s", location)
}

// RedisStateStore keeps shortage crossing state in redis.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore constructs the store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// Get reads a state value. A missing key reads as empty.
func (s *RedisStateStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state: %w", err)
	}
	return value, nil
}

// Set writes a state value with no expiry.
func (s *RedisStateStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// SetTTL writes a value that expires after ttl.
func (s *RedisStateStore) SetTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}
