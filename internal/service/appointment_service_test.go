package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomdesk/internal/database"
	"roomdesk/internal/models"
	"roomdesk/internal/schedule"
)

type mockApptRepo struct {
	mock.Mock
}

func (m *mockApptRepo) GetStaffByUsername(ctx context.Context, username string) (*models.StaffMember, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffMember), args.Error(1)
}
func (m *mockApptRepo) CreateAppointmentRequest(ctx context.Context, req *models.AppointmentRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockApptRepo) GetAppointmentRequest(ctx context.Context, id int64) (*models.AppointmentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppointmentRequest), args.Error(1)
}
func (m *mockApptRepo) ListAppointmentRequests(ctx context.Context, staffUsername string) ([]models.AppointmentRequest, error) {
	args := m.Called(ctx, staffUsername)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppointmentRequest), args.Error(1)
}
func (m *mockApptRepo) CountConfirmedForStaffSlot(ctx context.Context, staffUsername, date, start, end string) (int, error) {
	args := m.Called(ctx, staffUsername, date, start, end)
	return args.Int(0), args.Error(1)
}
func (m *mockApptRepo) DecideAppointmentRequest(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *mockApptRepo) RecordAudit(ctx context.Context, event database.AuditEvent) error {
	return m.Called(ctx, event).Error(0)
}

func newApptFixture(t *testing.T, blob string) (*mockApptRepo, *mockStaffRepo, *AppointmentService) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	staffRepo := new(mockStaffRepo)
	staffSvc := NewStaffService(staffRepo, nil, nil, 30, &logger)
	repo := new(mockApptRepo)
	svc := NewAppointmentService(repo, staffSvc, nil, nil, 30, &logger)
	staffRepo.On("GetStaffByUsername", mock.Anything, "jsmith").Return(testStaff(blob), nil).Maybe()
	repo.On("GetStaffByUsername", mock.Anything, "jsmith").Return(testStaff(blob), nil).Maybe()
	return repo, staffRepo, svc
}

func TestAppointmentService_OpenSlots(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	blob := `{"Monday":["09:00","09:30","10:00"]}`

	t.Run("confirmed requests are removed", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, blob)
		repo.On("ListAppointmentRequests", ctx, "jsmith").Return([]models.AppointmentRequest{
			{StaffUsername: "jsmith", Date: "2026-03-09", StartTime: "09:00", EndTime: "09:30", Status: models.RequestConfirmed},
			{StaffUsername: "jsmith", Date: "2026-03-09", StartTime: "10:00", EndTime: "10:30", Status: models.RequestPending},
			{StaffUsername: "jsmith", Date: "2026-03-10", StartTime: "09:30", EndTime: "10:00", Status: models.RequestConfirmed},
		}, nil).Once()

		open, err := svc.OpenSlots(ctx, "jsmith", monday)
		require.NoError(t, err)

		// Pending requests and other days do not block slots.
		assert.Equal(t, []string{"09:30", "10:00"}, open)
	})

	t.Run("day off", func(t *testing.T) {
		_, _, svc := newApptFixture(t, `{"Monday":[]}`)

		open, err := svc.OpenSlots(ctx, "jsmith", monday)
		require.NoError(t, err)
		assert.Empty(t, open)
	})

	t.Run("pending account refuses appointments", func(t *testing.T) {
		logger := zerolog.New(io.Discard)
		repo := new(mockApptRepo)
		staffRepo := new(mockStaffRepo)
		svc := NewAppointmentService(repo, NewStaffService(staffRepo, nil, nil, 30, &logger), nil, nil, 30, &logger)

		pending := testStaff(blob)
		pending.Status = models.AccountPending
		repo.On("GetStaffByUsername", ctx, "jsmith").Return(pending, nil).Once()

		_, err := svc.OpenSlots(ctx, "jsmith", monday)
		reason, ok := schedule.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, schedule.ReasonUnavailable, reason)
	})

	t.Run("pending admin refuses appointments", func(t *testing.T) {
		logger := zerolog.New(io.Discard)
		repo := new(mockApptRepo)
		staffRepo := new(mockStaffRepo)
		svc := NewAppointmentService(repo, NewStaffService(staffRepo, nil, nil, 30, &logger), nil, nil, 30, &logger)

		admin := testStaff(blob)
		admin.Role = models.RoleAdmin
		admin.Status = models.AccountPending
		repo.On("GetStaffByUsername", ctx, "jsmith").Return(admin, nil).Once()

		_, err := svc.OpenSlots(ctx, "jsmith", monday)
		reason, ok := schedule.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, schedule.ReasonUnavailable, reason)
	})

	t.Run("active admin serves slots", func(t *testing.T) {
		logger := zerolog.New(io.Discard)
		repo := new(mockApptRepo)
		staffRepo := new(mockStaffRepo)
		svc := NewAppointmentService(repo, NewStaffService(staffRepo, nil, nil, 30, &logger), nil, nil, 30, &logger)

		admin := testStaff(blob)
		admin.Role = models.RoleAdmin
		repo.On("GetStaffByUsername", ctx, "jsmith").Return(admin, nil).Once()
		staffRepo.On("GetStaffByUsername", mock.Anything, "jsmith").Return(admin, nil).Once()
		repo.On("ListAppointmentRequests", ctx, "jsmith").Return([]models.AppointmentRequest(nil), nil).Once()

		open, err := svc.OpenSlots(ctx, "jsmith", monday)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, open)
	})
}

func TestAppointmentService_CreateRequest(t *testing.T) {
	ctx := context.Background()
	blob := `{"Monday":["09:00","09:30","10:00"]}`

	baseRequest := func() *models.AppointmentRequest {
		return &models.AppointmentRequest{
			StaffUsername: "jsmith",
			CustomerName:  "Alice",
			CustomerEmail: "alice@example.com",
			Date:          "2026-03-09",
		}
	}

	t.Run("two slot selection", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, blob)
		repo.On("ListAppointmentRequests", ctx, "jsmith").Return([]models.AppointmentRequest(nil), nil).Once()
		repo.On("CreateAppointmentRequest", ctx, mock.Anything).Return(int64(3), nil).Once()

		req := baseRequest()
		require.NoError(t, svc.CreateRequest(ctx, req, []string{"09:30", "09:00"}))
		assert.Equal(t, int64(3), req.ID)
		assert.Equal(t, "09:00", req.StartTime)
		assert.Equal(t, "10:00", req.EndTime)
		assert.Equal(t, models.RequestPending, req.Status)
		repo.AssertExpectations(t)
	})

	t.Run("gap between slots", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, blob)
		repo.On("ListAppointmentRequests", ctx, "jsmith").Return([]models.AppointmentRequest(nil), nil).Once()

		err := svc.CreateRequest(ctx, baseRequest(), []string{"09:00", "10:00"})
		reason, ok := schedule.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, schedule.ReasonNotContiguous, reason)
	})

	t.Run("slot outside office hours", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, blob)
		repo.On("ListAppointmentRequests", ctx, "jsmith").Return([]models.AppointmentRequest(nil), nil).Once()

		err := svc.CreateRequest(ctx, baseRequest(), []string{"15:00"})
		reason, ok := schedule.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, schedule.ReasonUnavailable, reason)
	})

	t.Run("too many slots", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, blob)
		repo.On("ListAppointmentRequests", ctx, "jsmith").Return([]models.AppointmentRequest(nil), nil).Once()

		err := svc.CreateRequest(ctx, baseRequest(), []string{"09:00", "09:30", "10:00"})
		reason, ok := schedule.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, schedule.ReasonTooLong, reason)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, _, svc := newApptFixture(t, blob)
		req := baseRequest()
		req.Date = "soon"
		assert.Error(t, svc.CreateRequest(ctx, req, []string{"09:00"}))
	})
}

func TestAppointmentService_Decide(t *testing.T) {
	ctx := context.Background()

	pending := func() *models.AppointmentRequest {
		return &models.AppointmentRequest{
			ID:            3,
			StaffUsername: "jsmith",
			Date:          "2026-03-09",
			StartTime:     "09:00",
			EndTime:       "10:00",
			Status:        models.RequestPending,
		}
	}

	t.Run("confirm", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, "{}")
		repo.On("GetAppointmentRequest", ctx, int64(3)).Return(pending(), nil).Once()
		repo.On("CountConfirmedForStaffSlot", ctx, "jsmith", "2026-03-09", "09:00", "10:00").Return(0, nil).Once()
		repo.On("DecideAppointmentRequest", ctx, int64(3), models.RequestConfirmed).Return(nil).Once()
		repo.On("RecordAudit", ctx, mock.Anything).Return(nil).Once()

		decided, err := svc.Decide(ctx, 3, true, "jsmith")
		require.NoError(t, err)
		assert.Equal(t, models.RequestConfirmed, decided.Status)
		repo.AssertExpectations(t)
	})

	t.Run("confirm blocked by existing confirmation", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, "{}")
		repo.On("GetAppointmentRequest", ctx, int64(3)).Return(pending(), nil).Once()
		repo.On("CountConfirmedForStaffSlot", ctx, "jsmith", "2026-03-09", "09:00", "10:00").Return(1, nil).Once()

		_, err := svc.Decide(ctx, 3, true, "jsmith")
		reason, ok := schedule.IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, schedule.ReasonConflict, reason)
	})

	t.Run("reject skips conflict check", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, "{}")
		repo.On("GetAppointmentRequest", ctx, int64(3)).Return(pending(), nil).Once()
		repo.On("DecideAppointmentRequest", ctx, int64(3), models.RequestRejected).Return(nil).Once()
		repo.On("RecordAudit", ctx, mock.Anything).Return(nil).Once()

		decided, err := svc.Decide(ctx, 3, false, "jsmith")
		require.NoError(t, err)
		assert.Equal(t, models.RequestRejected, decided.Status)
	})

	t.Run("already decided", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, "{}")
		repo.On("GetAppointmentRequest", ctx, int64(3)).Return(pending(), nil).Once()
		repo.On("DecideAppointmentRequest", ctx, int64(3), models.RequestRejected).Return(database.ErrAlreadyDecided).Once()

		_, err := svc.Decide(ctx, 3, false, "jsmith")
		assert.ErrorIs(t, err, database.ErrAlreadyDecided)
	})

	t.Run("re-confirming a confirmed request", func(t *testing.T) {
		repo, _, svc := newApptFixture(t, "{}")
		confirmed := pending()
		confirmed.Status = models.RequestConfirmed
		repo.On("GetAppointmentRequest", ctx, int64(3)).Return(confirmed, nil).Once()

		// Must not be reported as a slot conflict against its own row.
		_, err := svc.Decide(ctx, 3, true, "jsmith")
		assert.ErrorIs(t, err, database.ErrAlreadyDecided)
		repo.AssertNotCalled(t, "CountConfirmedForStaffSlot", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})
}
