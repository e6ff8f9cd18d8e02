package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
	"github.com/careconnect/careconnect-api/pkg/config"
	"github.com/careconnect/careconnect-api/pkg/jobs"
)

const jobTypeDeliver = "notification.deliver"

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByReceiver(ctx context.Context, receiverEmail string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, receiverEmail string) (int, error)
	MarkAllRead(ctx context.Context, receiverEmail string) error
	Delete(ctx context.Context, id, receiverEmail string) error
}

type subscriptionStore interface {
	Upsert(ctx context.Context, subscriberEmail, location string) error
	Delete(ctx context.Context, subscriberEmail, location string) error
	ListByUser(ctx context.Context, subscriberEmail string) ([]models.Subscription, error)
	ListSubscribersForLocation(ctx context.Context, location string) ([]string, error)
}

type managerDirectory interface {
	FindManagersByLocation(ctx context.Context, location string) ([]models.User, error)
}

type deliveryPayload struct {
	ReceiverEmail string
	Message       string
}

// NotificationService persists notifications and owns the background queue
// that delivers them. Dispatch is fire-and-forget so lifecycle transitions
// never block on delivery.
type NotificationService struct {
	repo     notificationStore
	subs     subscriptionStore
	managers managerDirectory
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewNotificationService constructs the service and its delivery queue.
func NewNotificationService(repo notificationStore, subs subscriptionStore, managers managerDirectory, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, subs: subs, managers: managers, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handleDelivery, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		BufferSize: cfg.BufferSize,
		MaxRetries: 2,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch queues one notification for delivery. When the queue is not
// running the notification is written synchronously so nothing is lost.
func (s *NotificationService) Dispatch(receiverEmail, message string) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeDeliver,
		Payload: deliveryPayload{ReceiverEmail: receiverEmail, Message: message},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("queue unavailable, delivering inline", zap.Error(err))
		if err := s.deliver(context.Background(), receiverEmail, message); err != nil {
			s.logger.Error("notification delivery failed", zap.String("receiver", receiverEmail), zap.Error(err))
		}
	}
}

// DonationSubmitted notifies the club's managers that a donation awaits
// review.
func (s *NotificationService) DonationSubmitted(donation models.Donation) {
	managers, err := s.managers.FindManagersByLocation(context.Background(), donation.Location)
	if err != nil {
		s.logger.Error("manager lookup failed", zap.String("location", donation.Location), zap.Error(err))
		return
	}
	message := fmt.Sprintf("A donation of %d x %s at %s is awaiting review.", donation.Quantity, donation.Item, donation.Location)
	for _, manager := range managers {
		s.Dispatch(manager.Email, message)
	}
}

// DonationApproved notifies the donor of approval.
func (s *NotificationService) DonationApproved(donation models.Donation) {
	s.Dispatch(donation.DonorEmail, fmt.Sprintf("Your donation of %d x %s at %s has been approved. Please drop it off at the counter.", donation.Quantity, donation.Item, donation.Location))
}

// DonationAdded notifies the donor that the goods entered inventory.
func (s *NotificationService) DonationAdded(donation models.Donation) {
	s.Dispatch(donation.DonorEmail, fmt.Sprintf("Your donation of %d x %s has been added to the inventory of %s. Thank you!", donation.Quantity, donation.Item, donation.Location))
}

// DonationRejected notifies the donor of rejection.
func (s *NotificationService) DonationRejected(donation models.Donation) {
	s.Dispatch(donation.DonorEmail, fmt.Sprintf("Your donation of %d x %s at %s was not accepted.", donation.Quantity, donation.Item, donation.Location))
}

// DonationExpired notifies the donor that an unclaimed or expired donation
// was removed.
func (s *NotificationService) DonationExpired(donation models.Donation) {
	s.Dispatch(donation.DonorEmail, fmt.Sprintf("Your donation of %d x %s at %s expired and was removed.", donation.Quantity, donation.Item, donation.Location))
}

// RequestsMatched notifies every requester whose request was just granted.
func (s *NotificationService) RequestsMatched(matched []models.Request) {
	for _, request := range matched {
		s.Dispatch(request.RequesterEmail, fmt.Sprintf("Good news! Your request for %d x %s is reserved at %s. Please collect it within 48 hours.", request.Quantity, request.Item, request.Location))
	}
}

// RequestExpired notifies the requester that an uncollected match lapsed.
func (s *NotificationService) RequestExpired(request models.Request) {
	s.Dispatch(request.RequesterEmail, fmt.Sprintf("Your reservation for %d x %s at %s expired because it was not collected.", request.Quantity, request.Item, request.Location))
}

// ShortageDetected broadcasts a shortage to the club's subscribers.
func (s *NotificationService) ShortageDetected(event dto.ShortageEvent) {
	subscribers, err := s.subs.ListSubscribersForLocation(context.Background(), event.Location)
	if err != nil {
		s.logger.Error("subscriber lookup failed", zap.String("location", event.Location), zap.Error(err))
		return
	}
	message := fmt.Sprintf("%s is running low on donations (fulfilment %.0f%%).", event.Location, event.Rate*100)
	if len(event.Items) > 0 {
		message = fmt.Sprintf("%s Most needed: %s.", message, strings.Join(event.Items, ", "))
	}
	for _, email := range subscribers {
		s.Dispatch(email, message)
	}
	s.logger.Info("shortage broadcast queued",
		zap.String("location", event.Location),
		zap.Int("subscribers", len(subscribers)))
}

// Subscribe registers the caller for a club's shortage broadcasts.
func (s *NotificationService) Subscribe(ctx context.Context, email, location string) error {
	return s.subs.Upsert(ctx, email, location)
}

// Unsubscribe removes the caller's subscription for a club.
func (s *NotificationService) Unsubscribe(ctx context.Context, email, location string) error {
	return s.subs.Delete(ctx, email, location)
}

// Subscriptions lists the caller's subscriptions.
func (s *NotificationService) Subscriptions(ctx context.Context, email string) ([]models.Subscription, error) {
	return s.subs.ListByUser(ctx, email)
}

// List returns the caller's notifications.
func (s *NotificationService) List(ctx context.Context, email string) ([]models.Notification, error) {
	return s.repo.ListByReceiver(ctx, email)
}

// UnreadCount returns how many notifications the caller has not seen.
func (s *NotificationService) UnreadCount(ctx context.Context, email string) (int, error) {
	return s.repo.UnreadCount(ctx, email)
}

// MarkAllRead flags every notification of the caller as viewed.
func (s *NotificationService) MarkAllRead(ctx context.Context, email string) error {
	return s.repo.MarkAllRead(ctx, email)
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, email string) error {
	return s.repo.Delete(ctx, id, email)
}

func (s *NotificationService) handleDelivery(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(deliveryPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.deliver(ctx, payload.ReceiverEmail, payload.Message)
}

func (s *NotificationService) deliver(ctx context.Context, receiverEmail, message string) error {
	return s.repo.Create(ctx, &models.Notification{
		ReceiverEmail: receiverEmail,
		Message:       message,
	})
}
