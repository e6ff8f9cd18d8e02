package dto

import "github.com/careconnect/careconnect-api/internal/models"

// CreateDonationRequest is the payload for submitting a donation.
// ExpiryDate is YYYY-MM-DD and is required for perishable categories.
type CreateDonationRequest struct {
	Category   string `json:"category" validate:"required"`
	Item       string `json:"item" validate:"required,max=120"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	Location   string `json:"location" validate:"required"`
	ImageLink  string `json:"image_link" validate:"required"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// UpdateDonationRequest edits a Pending donation. Empty fields keep the
// stored value.
type UpdateDonationRequest struct {
	Category   string `json:"category,omitempty"`
	Item       string `json:"item,omitempty" validate:"omitempty,max=120"`
	Quantity   int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Location   string `json:"location,omitempty"`
	ImageLink  string `json:"image_link,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// ManagerDonationList groups a club's reviewable donations by status.
type ManagerDonationList struct {
	Pending  []models.Donation `json:"pending"`
	Approved []models.Donation `json:"approved"`
}
