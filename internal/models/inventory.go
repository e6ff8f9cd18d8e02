package models

// InventoryRecord holds the running totals for one (location, item) pair.
// Invariant: 0 <= Allocated <= TotalDonated, and Allocated equals the sum of
// allocation over all Matched and Completed requests for the pair.
type InventoryRecord struct {
	Location       string `db:"location" json:"location"`
	Item           string `db:"item" json:"item"`
	TotalDonated   int    `db:"total_donated" json:"total_donated"`
	TotalRequested int    `db:"total_requested" json:"total_requested"`
	Allocated      int    `db:"allocated" json:"allocated"`
}

// Available is the donated quantity not yet reserved against a request.
func (r InventoryRecord) Available() int {
	return r.TotalDonated - r.Allocated
}

// LocationAggregate sums the ledger rows for one community club.
type LocationAggregate struct {
	Location       string `db:"location" json:"location"`
	TotalDonated   int    `db:"total_donated" json:"total_donated"`
	TotalRequested int    `db:"total_requested" json:"total_requested"`
	Allocated      int    `db:"allocated" json:"allocated"`
}

// FulfilmentRate is TotalDonated / TotalRequested, or nil when nothing has
// been requested yet.
func (a LocationAggregate) FulfilmentRate() *float64 {
	if a.TotalRequested == 0 {
		return nil
	}
	rate := float64(a.TotalDonated) / float64(a.TotalRequested)
	return &rate
}
