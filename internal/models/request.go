package models

import "time"

// RequestStatus is the closed request lifecycle enumeration.
type RequestStatus string

const (
	RequestPending   RequestStatus = "Pending"
	RequestMatched   RequestStatus = "Matched"
	RequestExpired   RequestStatus = "Expired"
	RequestCompleted RequestStatus = "Completed"
)

// Request is a client's ask for goods at a community club. Matching is
// all-or-nothing: a Pending request always has allocation 0, and a Matched
// request always has allocation == quantity.
type Request struct {
	ID             string        `db:"id" json:"id"`
	RequesterEmail string        `db:"requester_email" json:"requester_email"`
	Category       Category      `db:"category" json:"category"`
	Item           string        `db:"item" json:"item"`
	Quantity       int           `db:"quantity" json:"quantity"`
	Allocation     int           `db:"allocation" json:"allocation"`
	Location       string        `db:"location" json:"location"`
	Status         RequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	MatchedAt      *time.Time    `db:"matched_at" json:"matched_at,omitempty"`
}

// CanEdit reports whether the requester may still change the request.
func (r *Request) CanEdit() bool {
	return r.Status == RequestPending && r.Allocation == 0
}

// CanDelete reports whether the requester may delete the request. A pending
// request that already holds an allocation is mid-match and must not vanish.
func (r *Request) CanDelete() bool {
	return r.Status == RequestPending && r.Allocation == 0
}

// CanReject reports whether the requester may withdraw the matched request.
func (r *Request) CanReject() bool { return r.Status == RequestMatched }

// CanComplete reports whether the manager may complete the request.
func (r *Request) CanComplete() bool { return r.Status == RequestMatched }
