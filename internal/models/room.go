package models

import "time"

// Room represents a bookable facility room.
type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	ImageURL    string    `json:"image_url,omitempty"` // opaque data URL, stored as-is
	OpenTime    string    `json:"open_time"`           // "HH:mm", same every day
	CloseTime   string    `json:"close_time"`          // "HH:mm"
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
