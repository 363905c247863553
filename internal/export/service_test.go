package export

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"roomdesk/internal/database"
	"roomdesk/internal/models"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetBookingsBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) ListAuditEvents(ctx context.Context, from, to time.Time) ([]database.AuditEvent, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]database.AuditEvent), args.Error(1)
}

func TestBookingsWorkbook(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	start := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	from := start.AddDate(0, 0, -1)
	to := start.AddDate(0, 0, 1)

	repo := new(mockRepo)
	repo.On("GetBookingsBetween", ctx, from, to).Return([]models.Booking{
		{
			Reference:     "ref-1",
			RoomName:      "Conference A",
			CustomerName:  "Alice",
			CustomerEmail: "alice@example.com",
			NeedHelp:      true,
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			Status:        models.StatusConfirmed,
			CreatedAt:     start.AddDate(0, 0, -2),
		},
	}, nil).Once()
	repo.On("ListAuditEvents", ctx, from, to).Return([]database.AuditEvent{
		{Actor: "admin", Action: "booking_confirmed", Entity: "booking", EntityID: "ref-1", CreatedAt: start},
	}, nil).Once()

	svc := NewService(repo, &logger)
	data, err := svc.BookingsWorkbook(ctx, from, to)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	file, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer file.Close()

	assert.ElementsMatch(t, []string{"Bookings", "Audit"}, file.GetSheetList())

	rows, err := file.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Reference", rows[0][0])
	assert.Equal(t, "ref-1", rows[1][0])
	assert.Equal(t, "Conference A", rows[1][1])
	assert.Equal(t, "yes", rows[1][7])
	assert.Equal(t, "10:00", rows[1][9])

	auditRows, err := file.GetRows("Audit")
	require.NoError(t, err)
	require.Len(t, auditRows, 2)
	assert.Equal(t, "booking_confirmed", auditRows[1][2])

	width, err := file.GetColWidth("Bookings", "D")
	require.NoError(t, err)
	assert.InDelta(t, 26, width, 0.01, "email column keeps its configured width")

	panes, err := file.GetPanes("Bookings")
	require.NoError(t, err)
	assert.True(t, panes.Freeze, "header row stays frozen")
	assert.Equal(t, 1, panes.YSplit)

	repo.AssertExpectations(t)
}
