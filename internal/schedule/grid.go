package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSlotMinutes is the granularity of the booking grid.
const DefaultSlotMinutes = 30

// Slot is one bookable period on the grid.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
	Available bool
}

// SlotInfo is a simplified representation for API responses.
type SlotInfo struct {
	Start     string `json:"start"` // "10:00"
	End       string `json:"end"`   // "10:30"
	Available bool   `json:"available"`
}

// ParseClock parses an "HH:mm" string onto the given date, keeping the
// date's location.
func ParseClock(date time.Time, clock string) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", clock)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour: %s", clock)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid minute: %s", clock)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// FormatClock renders a time as the grid's "HH:mm" string.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// GenerateGrid builds the slot grid for one day between the open and close
// clock times. A trailing period that would run past closing is dropped, so
// an 18:15 close with 30-minute slots ends the grid at 18:00.
func GenerateGrid(date time.Time, openClock, closeClock string, slotMinutes int) ([]Slot, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	open, err := ParseClock(date, openClock)
	if err != nil {
		return nil, fmt.Errorf("parse open time: %w", err)
	}

	closeAt, err := ParseClock(date, closeClock)
	if err != nil {
		return nil, fmt.Errorf("parse close time: %w", err)
	}

	if !open.Before(closeAt) {
		return nil, nil
	}

	slotDuration := time.Duration(slotMinutes) * time.Minute
	var slots []Slot
	for cursor := open; !cursor.Add(slotDuration).After(closeAt); cursor = cursor.Add(slotDuration) {
		slots = append(slots, Slot{
			StartTime: cursor,
			EndTime:   cursor.Add(slotDuration),
			Available: true,
		})
	}

	return slots, nil
}

// ToSlotInfo converts slots to their API representation.
func ToSlotInfo(slots []Slot) []SlotInfo {
	result := make([]SlotInfo, len(slots))
	for i, s := range slots {
		result[i] = SlotInfo{
			Start:     FormatClock(s.StartTime),
			End:       FormatClock(s.EndTime),
			Available: s.Available,
		}
	}
	return result
}

// AvailableStarts returns the "HH:mm" start strings of available slots.
func AvailableStarts(slots []Slot) []string {
	var starts []string
	for _, s := range slots {
		if s.Available {
			starts = append(starts, FormatClock(s.StartTime))
		}
	}
	return starts
}
