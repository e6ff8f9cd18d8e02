package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careconnect/careconnect-api/internal/dto"
	"github.com/careconnect/careconnect-api/internal/models"
	appErrors "github.com/careconnect/careconnect-api/pkg/errors"
	"github.com/careconnect/careconnect-api/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, email string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, email string) (int, error)
	MarkAllRead(ctx context.Context, email string) error
	Delete(ctx context.Context, id, email string) error
	Subscribe(ctx context.Context, email, location string) error
	Unsubscribe(ctx context.Context, email, location string) error
	Subscriptions(ctx context.Context, email string) ([]models.Subscription, error)
}

// NotificationHandler exposes notification and subscription endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	notifications, err := h.service.List(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, map[string]interface{}{"unread": unread})
}

// UnreadCount godoc
// @Summary Count the caller's unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	unread, err := h.service.UnreadCount(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, map[string]int{"unread": unread}, nil)
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags Notifications
// @Success 204
// @Router /notifications/mark-read [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.MarkAllRead(c.Request.Context(), claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete one notification
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Subscribe godoc
// @Summary Subscribe to a club's shortage broadcasts
// @Tags Broadcast
// @Accept json
// @Param payload body dto.SubscriptionRequest true "Subscription payload"
// @Success 204
// @Router /broadcast/subscribe [post]
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	h.changeSubscription(c, h.service.Subscribe)
}

// Unsubscribe godoc
// @Summary Unsubscribe from a club's shortage broadcasts
// @Tags Broadcast
// @Accept json
// @Param payload body dto.SubscriptionRequest true "Subscription payload"
// @Success 204
// @Router /broadcast/unsubscribe [post]
func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	h.changeSubscription(c, h.service.Unsubscribe)
}

// Subscriptions godoc
// @Summary List the caller's shortage subscriptions
// @Tags Broadcast
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /broadcast/subscriptions [get]
func (h *NotificationHandler) Subscriptions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subscriptions, err := h.service.Subscriptions(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subscriptions, nil)
}

func (h *NotificationHandler) changeSubscription(c *gin.Context, op func(context.Context, string, string) error) {
	var req dto.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subscription payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subscription payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := op(c.Request.Context(), claims.Email, req.Location); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
