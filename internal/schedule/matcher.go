package schedule

import (
	"time"
)

// MaxSelectionSlots caps how many grid slots one appointment may cover.
const MaxSelectionSlots = 2

// MatchSelection validates a set of selected "HH:mm" slot starts against
// the staff member's resolved availability for the day. At most two slots
// may be picked and when two are picked they must be back to back. Rules
// run against the selection exactly as submitted, in order: length,
// well-formedness of every entry, contiguity, availability. On success
// the zero-padded, sorted selection is returned.
func MatchSelection(selection, available []string, slotMinutes int) ([]string, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}

	if len(selection) == 0 || len(selection) > MaxSelectionSlots {
		return nil, rejectf(ReasonTooLong, "select one or two time slots")
	}

	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	picked := make([]string, 0, len(selection))
	times := make([]time.Time, 0, len(selection))
	for _, s := range selection {
		t, err := ParseClock(day, s)
		if err != nil {
			return nil, rejectf(ReasonInvalidInterval, "malformed time slot %q", s)
		}
		picked = append(picked, FormatClock(t))
		times = append(times, t)
	}

	if len(picked) == 2 {
		if times[1].Before(times[0]) {
			times[0], times[1] = times[1], times[0]
			picked[0], picked[1] = picked[1], picked[0]
		}
		// A duplicated slot lands here too: its gap is zero, not one slot.
		if times[1].Sub(times[0]) != time.Duration(slotMinutes)*time.Minute {
			return nil, rejectf(ReasonNotContiguous, "selected slots %s and %s are not back to back", picked[0], picked[1])
		}
	}

	offered := make(map[string]bool, len(available))
	for _, s := range normalizeSlots(available) {
		offered[s] = true
	}
	for _, s := range picked {
		if !offered[s] {
			return nil, rejectf(ReasonUnavailable, "slot %s is not available on that day", s)
		}
	}

	return picked, nil
}
