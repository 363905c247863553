package models

import "time"

// Appointment request statuses.
const (
	RequestPending   = "pending"
	RequestConfirmed = "confirmed"
	RequestRejected  = "rejected"
)

// AppointmentRequest is a customer's request for an office-hours appointment
// with a staff member. Date and times are wall-clock strings; the request is
// decided (confirmed or rejected) exactly once and never mutated afterwards.
type AppointmentRequest struct {
	ID            int64     `json:"id"`
	StaffUsername string    `json:"staff_username"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	BusinessName  string    `json:"business_name,omitempty"`
	Date          string    `json:"date"`       // "2006-01-02"
	StartTime     string    `json:"start_time"` // "HH:mm"
	EndTime       string    `json:"end_time"`   // "HH:mm"
	Reason        string    `json:"reason"`
	Status        string    `json:"status"` // pending, confirmed, rejected
	CreatedAt     time.Time `json:"created_at"`
}

// IsDecided reports whether the request has already been confirmed or rejected.
func (r *AppointmentRequest) IsDecided() bool {
	return r.Status != RequestPending
}

// IsPast reports whether the requested date precedes the given day.
// This is display-only derived state, never written back to storage.
func (r *AppointmentRequest) IsPast(now time.Time) bool {
	d, err := time.ParseInLocation("2006-01-02", r.Date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}
