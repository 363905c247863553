package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// dateKeyFormat is how date-specific override keys are stored in the
// office hours blob, alongside weekday name keys like "Monday".
const dateKeyFormat = "2006-01-02"

// OfficeHours holds a staff member's working slots as a single document:
// weekday name keys carry the recurring weekly template, date keys carry
// per-date overrides. An override always wins for its date, including an
// empty one, which marks the day off.
type OfficeHours struct {
	entries map[string][]string
}

// NewOfficeHours returns an empty office hours document.
func NewOfficeHours() *OfficeHours {
	return &OfficeHours{entries: make(map[string][]string)}
}

// ParseOfficeHours decodes the stored JSON blob. An empty blob yields an
// empty document rather than an error.
func ParseOfficeHours(raw string) (*OfficeHours, error) {
	oh := NewOfficeHours()
	if raw == "" {
		return oh, nil
	}
	if err := json.Unmarshal([]byte(raw), &oh.entries); err != nil {
		return nil, fmt.Errorf("parse office hours: %w", err)
	}
	if oh.entries == nil {
		oh.entries = make(map[string][]string)
	}
	return oh, nil
}

// Marshal encodes the document back to its JSON blob form.
func (o *OfficeHours) Marshal() (string, error) {
	data, err := json.Marshal(o.entries)
	if err != nil {
		return "", fmt.Errorf("marshal office hours: %w", err)
	}
	return string(data), nil
}

// Resolve returns the slot start times for a date, sorted by clock time.
// A date override, empty included, takes precedence over the weekday
// template. A missing weekday entry means no working slots.
func (o *OfficeHours) Resolve(date time.Time) []string {
	if slots, ok := o.entries[date.Format(dateKeyFormat)]; ok {
		return normalizeSlots(slots)
	}
	return normalizeSlots(o.entries[date.Weekday().String()])
}

// HasOverride reports whether a date-specific entry exists for the date.
func (o *OfficeHours) HasOverride(date time.Time) bool {
	_, ok := o.entries[date.Format(dateKeyFormat)]
	return ok
}

// SetOverride stores the working slots for one specific date. Passing an
// empty or nil slice marks the date as a day off.
func (o *OfficeHours) SetOverride(date time.Time, slots []string) {
	o.entries[date.Format(dateKeyFormat)] = storedSlots(slots)
}

// ClearOverride removes a date-specific entry, falling back to the weekday
// template for that date.
func (o *OfficeHours) ClearOverride(date time.Time) {
	delete(o.entries, date.Format(dateKeyFormat))
}

// SetWeekday stores the recurring template slots for a weekday.
func (o *OfficeHours) SetWeekday(day time.Weekday, slots []string) {
	o.entries[day.String()] = storedSlots(slots)
}

// storedSlots keeps day-off entries as empty arrays so they marshal as
// "[]" instead of null.
func storedSlots(slots []string) []string {
	norm := normalizeSlots(slots)
	if norm == nil {
		return []string{}
	}
	return norm
}

// Weekday returns the recurring template slots for a weekday.
func (o *OfficeHours) Weekday(day time.Weekday) []string {
	return normalizeSlots(o.entries[day.String()])
}

// AvailableRanges resolves a date and merges its slots into display
// strings like "9:00 AM - 11:00 AM".
func (o *OfficeHours) AvailableRanges(date time.Time, slotMinutes int) ([]string, error) {
	return MergeSlotRanges(o.Resolve(date), slotMinutes)
}

// normalizeSlots deduplicates, zero-pads and sorts "HH:mm" slot strings.
// Entries that do not parse as clock times are dropped.
func normalizeSlots(slots []string) []string {
	if len(slots) == 0 {
		return nil
	}

	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool, len(slots))
	var out []string
	for _, s := range slots {
		t, err := ParseClock(day, s)
		if err != nil {
			continue
		}
		norm := FormatClock(t)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}

	sort.Strings(out)
	return out
}
