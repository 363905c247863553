package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOfficeHours(t *testing.T) {
	t.Run("empty blob", func(t *testing.T) {
		oh, err := ParseOfficeHours("")
		require.NoError(t, err)
		assert.Empty(t, oh.Resolve(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseOfficeHours("{not json")
		assert.Error(t, err)
	})

	t.Run("null blob", func(t *testing.T) {
		oh, err := ParseOfficeHours("null")
		require.NoError(t, err)
		oh.SetWeekday(time.Monday, []string{"09:00"})
		assert.Equal(t, []string{"09:00"}, oh.Weekday(time.Monday))
	})
}

func TestOfficeHours_Resolve(t *testing.T) {
	// 2026-03-09 is a Monday.
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	oh, err := ParseOfficeHours(`{
		"Monday": ["09:00", "09:30", "10:00"],
		"Tuesday": ["14:00"],
		"2026-03-10": ["16:00", "16:30"]
	}`)
	require.NoError(t, err)

	t.Run("weekday template", func(t *testing.T) {
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, oh.Resolve(monday))
	})

	t.Run("date override wins", func(t *testing.T) {
		assert.Equal(t, []string{"16:00", "16:30"}, oh.Resolve(tuesday))
	})

	t.Run("template applies on other weeks", func(t *testing.T) {
		nextTuesday := tuesday.AddDate(0, 0, 7)
		assert.Equal(t, []string{"14:00"}, oh.Resolve(nextTuesday))
	})

	t.Run("missing weekday means closed", func(t *testing.T) {
		sunday := monday.AddDate(0, 0, -1)
		assert.Empty(t, oh.Resolve(sunday))
	})

	t.Run("empty override wins over template", func(t *testing.T) {
		oh.SetOverride(monday, nil)
		assert.Empty(t, oh.Resolve(monday))
		assert.True(t, oh.HasOverride(monday))
	})

	t.Run("clearing override restores template", func(t *testing.T) {
		oh.ClearOverride(monday)
		assert.False(t, oh.HasOverride(monday))
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, oh.Resolve(monday))
	})
}

func TestOfficeHours_Normalization(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	oh := NewOfficeHours()
	oh.SetWeekday(time.Monday, []string{"10:00", "9:00", "09:00", "bad"})

	assert.Equal(t, []string{"09:00", "10:00"}, oh.Resolve(monday))
}

func TestOfficeHours_Marshal(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	oh := NewOfficeHours()
	oh.SetWeekday(time.Monday, []string{"09:00", "09:30"})
	oh.SetOverride(monday, nil)

	raw, err := oh.Marshal()
	require.NoError(t, err)

	var decoded map[string][]string
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, []string{"09:00", "09:30"}, decoded["Monday"])

	// Day-off overrides must survive as empty arrays, not null.
	dayOff, ok := decoded["2026-03-09"]
	require.True(t, ok)
	assert.NotNil(t, dayOff)
	assert.Empty(t, dayOff)

	reparsed, err := ParseOfficeHours(raw)
	require.NoError(t, err)
	assert.True(t, reparsed.HasOverride(monday))
	assert.Empty(t, reparsed.Resolve(monday))
}

func TestOfficeHours_AvailableRanges(t *testing.T) {
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	oh := NewOfficeHours()
	oh.SetWeekday(time.Monday, []string{"09:00", "09:30", "13:00"})

	ranges, err := oh.AvailableRanges(monday, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"9:00 AM - 10:00 AM", "1:00 PM - 1:30 PM"}, ranges)
}
