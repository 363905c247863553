package schedule

import (
	"fmt"
	"sort"
	"time"
)

// FormatRangeLabel renders an interval as a human-readable 12-hour range,
// e.g. "9:00 AM - 11:00 AM".
func FormatRangeLabel(iv Interval) string {
	return fmt.Sprintf("%s - %s", iv.Start.Format("3:04 PM"), iv.End.Format("3:04 PM"))
}

// MergeSlotRanges merges a list of "HH:mm" slot start times into display
// ranges. Contiguous slots collapse into one range whose end is the last
// slot's start plus the slot duration. Duplicates are ignored and input
// order does not matter.
func MergeSlotRanges(starts []string, slotMinutes int) ([]string, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if len(starts) == 0 {
		return nil, nil
	}

	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool, len(starts))
	var times []time.Time
	for _, s := range starts {
		if seen[s] {
			continue
		}
		seen[s] = true
		t, err := ParseClock(day, s)
		if err != nil {
			return nil, fmt.Errorf("parse slot %q: %w", s, err)
		}
		times = append(times, t)
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	slotDuration := time.Duration(slotMinutes) * time.Minute
	var labels []string
	rangeStart := times[0]
	prev := times[0]
	for _, t := range times[1:] {
		if t.Sub(prev) == slotDuration {
			prev = t
			continue
		}
		labels = append(labels, FormatRangeLabel(Interval{Start: rangeStart, End: prev.Add(slotDuration)}))
		rangeStart = t
		prev = t
	}
	labels = append(labels, FormatRangeLabel(Interval{Start: rangeStart, End: prev.Add(slotDuration)}))

	return labels, nil
}
