package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careconnect/careconnect-api/internal/models"
)

// SubscriptionRepository persists shortage broadcast subscriptions.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs the repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert subscribes a user to a club. Re-subscribing is a no-op.
func (r *SubscriptionRepository) Upsert(ctx context.Context, subscriberEmail, location string) error {
	const query = `INSERT INTO subscriptions (subscriber_email, location, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (subscriber_email, location) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, subscriberEmail, location, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Delete removes a subscription. Removing a missing subscription is a no-op.
func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberEmail, location string) error {
	const query = `DELETE FROM subscriptions WHERE subscriber_email = $1 AND location = $2`
	if _, err := r.db.ExecContext(ctx, query, subscriberEmail, location); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// ListByUser returns the clubs a user is subscribed to.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, subscriberEmail string) ([]models.Subscription, error) {
	const query = `SELECT subscriber_email, location, created_at
	FROM subscriptions WHERE subscriber_email = $1 ORDER BY location`
	subscriptions := make([]models.Subscription, 0)
	if err := r.db.SelectContext(ctx, &subscriptions, query, subscriberEmail); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// ListSubscribersForLocation returns the emails subscribed to one club.
func (r *SubscriptionRepository) ListSubscribersForLocation(ctx context.Context, location string) ([]string, error) {
	const query = `SELECT subscriber_email FROM subscriptions WHERE location = $1 ORDER BY subscriber_email`
	emails := make([]string, 0)
	if err := r.db.SelectContext(ctx, &emails, query, location); err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return emails, nil
}
