package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	// RoleClient may donate, request, and subscribe to club broadcasts.
	RoleClient UserRole = "CLIENT"
	// RoleManager oversees one community club and approves its inventory.
	RoleManager UserRole = "MANAGER"
)

// User represents an application user stored in the users table. Managers
// carry the community club they oversee; clients carry their declared income.
type User struct {
	ID            string           `db:"id" json:"id"`
	Email         string           `db:"email" json:"email"`
	PasswordHash  string           `db:"password_hash" json:"-"`
	FullName      string           `db:"full_name" json:"full_name"`
	ContactNumber string           `db:"contact_number" json:"contact_number"`
	Role          UserRole         `db:"role" json:"role"`
	CC            *string          `db:"cc" json:"cc,omitempty"`
	MonthlyIncome *decimal.Decimal `db:"monthly_income" json:"monthly_income,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// Location returns the manager's community club, or "" for clients.
func (u *User) Location() string {
	if u == nil || u.CC == nil {
		return ""
	}
	return *u.CC
}
