package models

import "time"

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Booking represents a room reservation.
type Booking struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"` // public UUID, safe to hand to customers
	RoomID        int64     `json:"room_id"`
	RoomName      string    `json:"room_name,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	Organization  string    `json:"organization,omitempty"`
	Purpose       string    `json:"purpose"`
	NeedHelp      bool      `json:"need_help"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"` // pending, confirmed
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Duration returns the booked duration.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// OverlapsWith checks if this booking overlaps with another booking.
// Uses half-open interval [start, end) semantics - end boundary is exclusive,
// so a booking ending at 10:00 does not overlap one starting at 10:00.
func (b *Booking) OverlapsWith(other *Booking) bool {
	return b.StartTime.Before(other.EndTime) && other.StartTime.Before(b.EndTime)
}

// ContainsTime checks if the booking covers a specific point in time.
func (b *Booking) ContainsTime(t time.Time) bool {
	return !t.Before(b.StartTime) && t.Before(b.EndTime)
}

// OnDate checks if any part of the booking falls on the given calendar date.
func (b *Booking) OnDate(date time.Time) bool {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	return b.StartTime.Before(dayEnd) && dayStart.Before(b.EndTime)
}
