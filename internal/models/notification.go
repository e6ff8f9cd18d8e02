package models

import "time"

// Notification is a persisted message for one user.
type Notification struct {
	ID            string    `db:"id" json:"id"`
	ReceiverEmail string    `db:"receiver_email" json:"receiver_email"`
	Message       string    `db:"message" json:"message"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	Viewed        bool      `db:"viewed" json:"viewed"`
}

// Subscription registers a user for shortage broadcasts of one club.
type Subscription struct {
	SubscriberEmail string    `db:"subscriber_email" json:"subscriber_email"`
	Location        string    `db:"location" json:"location"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
