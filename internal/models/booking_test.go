package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datetime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestBooking_Duration(t *testing.T) {
	b := Booking{
		StartTime: datetime(2026, 3, 9, 9, 0),
		EndTime:   datetime(2026, 3, 9, 10, 30),
	}
	assert.Equal(t, 90*time.Minute, b.Duration())
}

func TestBooking_OverlapsWith(t *testing.T) {
	existing := Booking{
		StartTime: datetime(2026, 3, 9, 10, 0),
		EndTime:   datetime(2026, 3, 9, 12, 0),
	}

	// No overlap - before
	before := Booking{
		StartTime: datetime(2026, 3, 9, 8, 0),
		EndTime:   datetime(2026, 3, 9, 10, 0),
	}
	assert.False(t, existing.OverlapsWith(&before))

	// No overlap - back-to-back after
	after := Booking{
		StartTime: datetime(2026, 3, 9, 12, 0),
		EndTime:   datetime(2026, 3, 9, 13, 0),
	}
	assert.False(t, existing.OverlapsWith(&after))

	// Overlap - starts during
	during := Booking{
		StartTime: datetime(2026, 3, 9, 11, 0),
		EndTime:   datetime(2026, 3, 9, 13, 0),
	}
	assert.True(t, existing.OverlapsWith(&during))

	// Overlap - fully contained
	contained := Booking{
		StartTime: datetime(2026, 3, 9, 10, 30),
		EndTime:   datetime(2026, 3, 9, 11, 30),
	}
	assert.True(t, existing.OverlapsWith(&contained))
}

func TestBooking_ContainsTime(t *testing.T) {
	b := Booking{
		StartTime: datetime(2026, 3, 9, 10, 0),
		EndTime:   datetime(2026, 3, 9, 12, 0),
	}

	assert.True(t, b.ContainsTime(datetime(2026, 3, 9, 10, 0)))
	assert.True(t, b.ContainsTime(datetime(2026, 3, 9, 11, 30)))
	assert.False(t, b.ContainsTime(datetime(2026, 3, 9, 12, 0)))
	assert.False(t, b.ContainsTime(datetime(2026, 3, 9, 9, 59)))
}

func TestBooking_OnDate(t *testing.T) {
	b := Booking{
		StartTime: datetime(2026, 3, 9, 10, 0),
		EndTime:   datetime(2026, 3, 9, 12, 0),
	}

	assert.True(t, b.OnDate(datetime(2026, 3, 9, 0, 0)))
	assert.False(t, b.OnDate(datetime(2026, 3, 8, 0, 0)))
	assert.False(t, b.OnDate(datetime(2026, 3, 10, 0, 0)))
}

func TestAppointmentRequest_IsPast(t *testing.T) {
	now := datetime(2026, 3, 9, 15, 0)

	past := AppointmentRequest{Date: "2026-03-08"}
	assert.True(t, past.IsPast(now))

	today := AppointmentRequest{Date: "2026-03-09"}
	assert.False(t, today.IsPast(now))

	future := AppointmentRequest{Date: "2026-03-10"}
	assert.False(t, future.IsPast(now))

	malformed := AppointmentRequest{Date: "soon"}
	assert.False(t, malformed.IsPast(now))
}

func TestAppointmentRequest_IsDecided(t *testing.T) {
	assert.False(t, (&AppointmentRequest{Status: RequestPending}).IsDecided())
	assert.True(t, (&AppointmentRequest{Status: RequestConfirmed}).IsDecided())
	assert.True(t, (&AppointmentRequest{Status: RequestRejected}).IsDecided())
}
