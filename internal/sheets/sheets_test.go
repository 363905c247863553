package sheets

import (
	"testing"
	"time"

	sheetsapi "google.golang.org/api/sheets/v4"

	"roomdesk/internal/models"
)

func TestFilterActiveBookings(t *testing.T) {
	s := &SheetsService{}

	bookings := []models.Booking{
		{ID: 1, Status: models.StatusPending},
		{ID: 2, Status: models.StatusConfirmed},
		{ID: 3, Status: "cancelled"},
	}

	active := s.filterActiveBookings(bookings)

	if len(active) != 2 {
		t.Errorf("Expected 2 active bookings, got %d", len(active))
	}

	for _, b := range active {
		if b.Status == "cancelled" {
			t.Errorf("Cancelled booking found in active list")
		}
	}
}

func TestBookingRowValues(t *testing.T) {
	booking := &models.Booking{
		ID:            123,
		Reference:     "e3b0c442-98fc-4b51-9d2c-000000000000",
		RoomName:      "Meeting Room A",
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "5551234567",
		Organization:  "Acme",
		Purpose:       "Board meeting",
		StartTime:     time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
		Status:        models.StatusConfirmed,
		CreatedAt:     time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	values := bookingRowValues(booking)

	expected := []interface{}{
		"e3b0c442-98fc-4b51-9d2c-000000000000",
		"Meeting Room A",
		"2026-03-09",
		"10:00 - 11:00",
		"confirmed",
		"Jane Doe",
		"jane@example.com",
		"5551234567",
		"Acme",
		"Board meeting",
		"2026-03-01 09:30:00",
	}

	if len(values) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(values))
	}
	if len(values) != len(bookingHeaders) {
		t.Fatalf("Row has %d values but header has %d columns", len(values), len(bookingHeaders))
	}

	for i, v := range values {
		if v != expected[i] {
			t.Errorf("At index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

func TestCacheOperations(t *testing.T) {
	s := &SheetsService{
		rowCache: make(map[int64]int),
	}

	s.setCachedRow(100, 5)
	row, ok := s.getCachedRow(100)
	if !ok || row != 5 {
		t.Errorf("Expected row 5, got %d (ok=%v)", row, ok)
	}

	s.deleteCacheRow(100)
	_, ok = s.getCachedRow(100)
	if ok {
		t.Errorf("Expected row to be deleted from cache")
	}

	s.setCachedRow(200, 10)
	s.ClearCache()
	_, ok = s.getCachedRow(200)
	if ok {
		t.Errorf("Expected cache to be cleared")
	}
}

func TestRowFromUpdatedRange(t *testing.T) {
	tests := []struct {
		name    string
		updated string
		want    int
		ok      bool
	}{
		{"single row append", "Bookings!A7:K7", 7, true},
		{"single cell", "Bookings!A12", 12, true},
		{"no row number", "Bookings!A:K", 0, false},
		{"garbage", "nope", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &sheetsapi.AppendValuesResponse{
				Updates: &sheetsapi.UpdateValuesResponse{UpdatedRange: tt.updated},
			}
			row, ok := rowFromUpdatedRange(resp)
			if ok != tt.ok || row != tt.want {
				t.Errorf("rowFromUpdatedRange(%q) = (%d, %v), want (%d, %v)", tt.updated, row, ok, tt.want, tt.ok)
			}
		})
	}

	if _, ok := rowFromUpdatedRange(nil); ok {
		t.Error("Expected nil response to yield no row")
	}
}
