package schedule

import (
	"time"

	"roomdesk/internal/models"
)

// Hours describes a room's daily open window as "HH:mm" clock strings.
type Hours struct {
	Open  string
	Close string
}

// RoomSlots builds the slot grid for a room on a date and marks slots that
// overlap an existing booking as unavailable. Bookings outside the date are
// ignored by the overlap check, so callers may pass a day's worth or more.
func RoomSlots(date time.Time, hours Hours, bookings []models.Booking, slotMinutes int) ([]Slot, error) {
	slots, err := GenerateGrid(date, hours.Open, hours.Close, slotMinutes)
	if err != nil {
		return nil, err
	}

	taken := bookingIntervals(bookings)
	for i := range slots {
		if AnyOverlap(Interval{Start: slots[i].StartTime, End: slots[i].EndTime}, taken) {
			slots[i].Available = false
		}
	}

	return slots, nil
}

// ValidateBooking checks a requested interval against the room's hours and
// its existing bookings. A zero End is defaulted to one slot after Start,
// reversed endpoints are swapped. On rejection a RejectionError explains
// which rule failed.
func ValidateBooking(hours Hours, start, end time.Time, bookings []models.Booking, slotMinutes int) (Interval, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	if end.IsZero() {
		end = start.Add(time.Duration(slotMinutes) * time.Minute)
	}
	requested := Interval{Start: start, End: end}.Normalize()
	if !requested.IsValid() {
		return Interval{}, rejectf(ReasonInvalidInterval, "booking must have a positive duration")
	}

	open, err := ParseClock(requested.Start, hours.Open)
	if err != nil {
		return Interval{}, err
	}
	closeAt, err := ParseClock(requested.Start, hours.Close)
	if err != nil {
		return Interval{}, err
	}

	if requested.Start.Before(open) || requested.End.After(closeAt) {
		return Interval{}, rejectf(ReasonOutOfHours, "booking %s - %s is outside opening hours %s - %s",
			FormatClock(requested.Start), FormatClock(requested.End), hours.Open, hours.Close)
	}

	if AnyOverlap(requested, bookingIntervals(bookings)) {
		return Interval{}, rejectf(ReasonConflict, "room is already booked between %s and %s",
			FormatClock(requested.Start), FormatClock(requested.End))
	}

	return requested, nil
}

func bookingIntervals(bookings []models.Booking) []Interval {
	intervals := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		intervals = append(intervals, Interval{Start: b.StartTime, End: b.EndTime})
	}
	return intervals
}
