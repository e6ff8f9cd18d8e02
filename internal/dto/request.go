package dto

// CreateRequestRequest is the payload for submitting a request.
type CreateRequestRequest struct {
	Category string `json:"category" validate:"required"`
	Item     string `json:"item" validate:"required,max=120"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Location string `json:"location" validate:"required"`
}

// UpdateRequestRequest edits a Pending, unallocated request. Empty fields
// keep the stored value.
type UpdateRequestRequest struct {
	Category string `json:"category,omitempty"`
	Item     string `json:"item,omitempty" validate:"omitempty,max=120"`
	Quantity int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Location string `json:"location,omitempty"`
}

// RejectRequestPayload withdraws a Matched request. Item and location are
// validated against the stored record, never trusted as authoritative input.
type RejectRequestPayload struct {
	RequestID string `json:"request_id" validate:"required"`
	Item      string `json:"item" validate:"required"`
	Location  string `json:"location" validate:"required"`
}
