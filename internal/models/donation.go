package models

import "time"

// Category enumerates the item categories a donation or request may carry.
type Category string

const (
	CategoryFood        Category = "Food"
	CategoryDrinks      Category = "Drinks"
	CategoryFurnitures  Category = "Furnitures"
	CategoryElectronics Category = "Electronics"
	CategoryEssentials  Category = "Essentials"
)

// Valid reports whether the category is one of the closed set.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryDrinks, CategoryFurnitures, CategoryElectronics, CategoryEssentials:
		return true
	}
	return false
}

// Perishable categories require an expiry date on donations.
func (c Category) Perishable() bool {
	return c == CategoryFood || c == CategoryDrinks
}

// DonationStatus is the closed donation lifecycle enumeration. A rejected or
// owner-deleted donation is removed from the active set rather than flagged,
// so no terminal "Rejected" value is ever persisted.
type DonationStatus string

const (
	DonationPending  DonationStatus = "Pending"
	DonationApproved DonationStatus = "Approved"
	// DonationAdded is terminal: the quantity has been credited to the
	// inventory ledger and can never be un-credited.
	DonationAdded DonationStatus = "Added"
)

// Donation is an offer of goods at a community club.
type Donation struct {
	ID         string         `db:"id" json:"id"`
	DonorEmail string         `db:"donor_email" json:"donor_email"`
	Category   Category       `db:"category" json:"category"`
	Item       string         `db:"item" json:"item"`
	Quantity   int            `db:"quantity" json:"quantity"`
	Location   string         `db:"location" json:"location"`
	ImageLink  string         `db:"image_link" json:"image_link"`
	ExpiryDate *time.Time     `db:"expiry_date" json:"expiry_date,omitempty"`
	Status     DonationStatus `db:"status" json:"status"`
	ApprovedAt *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// CanApprove reports whether the manager may approve the donation.
func (d *Donation) CanApprove() bool { return d.Status == DonationPending }

// CanAdd reports whether the manager may credit the donation to inventory.
func (d *Donation) CanAdd() bool { return d.Status == DonationApproved }

// CanReject reports whether the manager may reject the donation.
func (d *Donation) CanReject() bool {
	return d.Status == DonationPending || d.Status == DonationApproved
}

// CanEdit reports whether the owner may still change the donation.
func (d *Donation) CanEdit() bool { return d.Status == DonationPending }

// CanOwnerDelete reports whether the owner may withdraw the donation.
func (d *Donation) CanOwnerDelete() bool {
	return d.Status == DonationPending || d.Status == DonationApproved
}
