package dto

// CCSummary is the per-club aggregate projection.
type CCSummary struct {
	Location            string   `json:"location"`
	TotalDonations      int      `json:"total_donations"`
	TotalRequests       int      `json:"total_requests"`
	FulfilledRequests   int      `json:"fulfilled_requests"`
	FulfillmentRate     *float64 `json:"fulfillment_rate,omitempty"`
	SevereShortageItems []string `json:"severe_shortage_items"`
}

// ItemInventory is the per-item detail projection for one club.
type ItemInventory struct {
	ItemName       string  `json:"item_name"`
	TotalRequested int     `json:"total_requested"`
	TotalDonated   int     `json:"total_donated"`
	FulfillmentPct float64 `json:"fulfillment_pct"`
}

// Marker feeds the public community club map.
type Marker struct {
	Name           string   `json:"name"`
	FulfilmentRate *float64 `json:"fulfilmentRate,omitempty"`
	LowFulfilment  bool     `json:"lowFulfilment"`
	Link           string   `json:"link"`
}

// ShortageEvent is emitted when a club's fulfilment rate crosses below the
// shortage threshold.
type ShortageEvent struct {
	Location string   `json:"location"`
	Rate     float64  `json:"rate"`
	Items    []string `json:"items"`
}

// SubscriptionRequest subscribes or unsubscribes the caller to a club.
type SubscriptionRequest struct {
	Location string `json:"location" validate:"required"`
}
