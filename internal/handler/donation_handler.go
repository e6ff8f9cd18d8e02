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

type donationService interface {
	Create(ctx context.Context, donorEmail string, req dto.CreateDonationRequest) (*models.Donation, error)
	ListMine(ctx context.Context, donorEmail string) ([]models.Donation, error)
	Get(ctx context.Context, donorEmail, id string) (*models.Donation, error)
	Update(ctx context.Context, donorEmail, id string, req dto.UpdateDonationRequest) (*models.Donation, error)
	Delete(ctx context.Context, donorEmail, id string) error
	ListForReview(ctx context.Context, location string) (*dto.ManagerDonationList, error)
	Approve(ctx context.Context, managerCC, id string) (*models.Donation, error)
	Reject(ctx context.Context, managerCC, id string) error
	Add(ctx context.Context, managerCC, id string) (*models.Donation, error)
}

// DonationHandler exposes REST endpoints for the donation lifecycle.
type DonationHandler struct {
	service donationService
}

// NewDonationHandler constructs the handler.
func NewDonationHandler(service donationService) *DonationHandler {
	return &DonationHandler{service: service}
}

// Create godoc
// @Summary Submit a donation
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body dto.CreateDonationRequest true "Donation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /donations [post]
func (h *DonationHandler) Create(c *gin.Context) {
	var req dto.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid donation payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid donation payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	donation, err := h.service.Create(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, donation)
}

// List godoc
// @Summary List the caller's donations
// @Tags Donations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /donations [get]
func (h *DonationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	donations, err := h.service.ListMine(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, nil)
}

// Get godoc
// @Summary Fetch one of the caller's donations
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /donations/{id} [get]
func (h *DonationHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	donation, err := h.service.Get(c.Request.Context(), claims.Email, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Update godoc
// @Summary Edit a pending donation
// @Tags Donations
// @Accept json
// @Produce json
// @Param id path string true "Donation ID"
// @Param payload body dto.UpdateDonationRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /donations/{id} [put]
func (h *DonationHandler) Update(c *gin.Context) {
	var req dto.UpdateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid donation payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	donation, err := h.service.Update(c.Request.Context(), claims.Email, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Delete godoc
// @Summary Withdraw a donation
// @Tags Donations
// @Param id path string true "Donation ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /donations/{id} [delete]
func (h *DonationHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.Email, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForReview godoc
// @Summary List the club's reviewable donations
// @Tags Manager
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /manager/donations [get]
func (h *DonationHandler) ListForReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	list, err := h.service.ListForReview(c.Request.Context(), claims.CC)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Approve godoc
// @Summary Approve a pending donation
// @Tags Manager
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /manager/donations/{id}/approve [post]
func (h *DonationHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	donation, err := h.service.Approve(c.Request.Context(), claims.CC, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}

// Reject godoc
// @Summary Reject a donation
// @Tags Manager
// @Param id path string true "Donation ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /manager/donations/{id}/reject [post]
func (h *DonationHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Reject(c.Request.Context(), claims.CC, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Add godoc
// @Summary Credit an approved donation to inventory
// @Tags Manager
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /manager/donations/{id}/add [post]
func (h *DonationHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	donation, err := h.service.Add(c.Request.Context(), claims.CC, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donation, nil)
}
