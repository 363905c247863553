package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"roomdesk/internal/cache"
	"roomdesk/internal/database"
	"roomdesk/internal/events"
	"roomdesk/internal/metrics"
	"roomdesk/internal/models"
	"roomdesk/internal/schedule"
)

// AppointmentRepository is the storage surface the appointment service needs.
type AppointmentRepository interface {
	GetStaffByUsername(ctx context.Context, username string) (*models.StaffMember, error)
	CreateAppointmentRequest(ctx context.Context, req *models.AppointmentRequest) (int64, error)
	GetAppointmentRequest(ctx context.Context, id int64) (*models.AppointmentRequest, error)
	ListAppointmentRequests(ctx context.Context, staffUsername string) ([]models.AppointmentRequest, error)
	CountConfirmedForStaffSlot(ctx context.Context, staffUsername, date, start, end string) (int, error)
	DecideAppointmentRequest(ctx context.Context, id int64, status string) error
	RecordAudit(ctx context.Context, event database.AuditEvent) error
}

// AppointmentService handles office-hours appointment requests and the
// staff decisions over them.
type AppointmentService struct {
	repo        AppointmentRepository
	staff       *StaffService
	bus         EventPublisher
	cache       *cache.Cache
	locks       *keyedMutex
	slotMinutes int
	logger      *zerolog.Logger
}

func NewAppointmentService(repo AppointmentRepository, staff *StaffService, bus EventPublisher, c *cache.Cache, slotMinutes int, logger *zerolog.Logger) *AppointmentService {
	if slotMinutes <= 0 {
		slotMinutes = schedule.DefaultSlotMinutes
	}
	return &AppointmentService{
		repo:        repo,
		staff:       staff,
		bus:         bus,
		cache:       c,
		locks:       newKeyedMutex(),
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// OpenSlots returns the staff member's resolved slots for a date with the
// ones already taken by confirmed appointments removed.
func (s *AppointmentService) OpenSlots(ctx context.Context, username string, date time.Time) ([]string, error) {
	username = normalizeUsername(username)

	member, err := s.repo.GetStaffByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if member.Status != models.AccountActive {
		return nil, &schedule.RejectionError{Reason: schedule.ReasonUnavailable, Message: "staff member is not accepting appointments"}
	}

	availability, err := s.staff.Availability(ctx, username, date)
	if err != nil {
		return nil, err
	}
	if len(availability.Slots) == 0 {
		return nil, nil
	}

	requests, err := s.repo.ListAppointmentRequests(ctx, username)
	if err != nil {
		return nil, err
	}

	dateKey := date.Format("2006-01-02")
	var taken []models.AppointmentRequest
	for _, r := range requests {
		if r.Date == dateKey && r.Status == models.RequestConfirmed {
			taken = append(taken, r)
		}
	}

	var open []string
	for _, slot := range availability.Slots {
		end, err := slotEnd(slot, s.slotMinutes)
		if err != nil {
			return nil, err
		}
		if !slotTaken(slot, end, taken) {
			open = append(open, slot)
		}
	}

	return open, nil
}

// CreateRequest validates a visitor's slot selection and stores a pending
// appointment request. Selection rules: one or two slots, two must be back
// to back, all must be open on that date.
func (s *AppointmentService) CreateRequest(ctx context.Context, req *models.AppointmentRequest, selection []string) error {
	req.StaffUsername = normalizeUsername(req.StaffUsername)

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return fmt.Errorf("invalid date %q", req.Date)
	}

	unlock := s.locks.Lock("appt:" + req.StaffUsername + ":" + req.Date)
	defer unlock()

	open, err := s.OpenSlots(ctx, req.StaffUsername, date)
	if err != nil {
		return err
	}

	picked, err := schedule.MatchSelection(selection, open, s.slotMinutes)
	if err != nil {
		return err
	}

	end, err := slotEnd(picked[len(picked)-1], s.slotMinutes)
	if err != nil {
		return err
	}
	req.StartTime = picked[0]
	req.EndTime = end
	req.Status = models.RequestPending

	id, err := s.repo.CreateAppointmentRequest(ctx, req)
	if err != nil {
		return err
	}
	req.ID = id

	s.publish(events.AppointmentCreated, req)

	s.logger.Info().
		Int64("request_id", id).
		Str("staff", req.StaffUsername).
		Str("date", req.Date).
		Str("window", req.StartTime+" - "+req.EndTime).
		Msg("Appointment request created")

	return nil
}

// Decide confirms or rejects a pending request. Decisions take effect
// exactly once; confirming re-checks that no other confirmed appointment
// claimed the window in the meantime.
func (s *AppointmentService) Decide(ctx context.Context, id int64, approve bool, actor string) (*models.AppointmentRequest, error) {
	req, err := s.repo.GetAppointmentRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsDecided() {
		return nil, database.ErrAlreadyDecided
	}

	unlock := s.locks.Lock("appt:" + req.StaffUsername + ":" + req.Date)
	defer unlock()

	status := models.RequestRejected
	if approve {
		status = models.RequestConfirmed

		conflicts, err := s.repo.CountConfirmedForStaffSlot(ctx, req.StaffUsername, req.Date, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		if conflicts > 0 {
			return nil, &schedule.RejectionError{Reason: schedule.ReasonConflict, Message: "another appointment was already confirmed for this window"}
		}
	}

	if err := s.repo.DecideAppointmentRequest(ctx, id, status); err != nil {
		return nil, err
	}
	req.Status = status

	metrics.IncAppointmentDecision(status)
	s.cache.Invalidate(ctx, cache.StaffDayKey(req.StaffUsername, req.Date))
	s.publish(events.AppointmentDecided, req)
	s.audit(ctx, actor, "appointment_"+status, req)

	return req, nil
}

// List returns appointment requests, optionally scoped to one staff member.
func (s *AppointmentService) List(ctx context.Context, staffUsername string) ([]models.AppointmentRequest, error) {
	return s.repo.ListAppointmentRequests(ctx, normalizeUsername(staffUsername))
}

func (s *AppointmentService) publish(eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

func (s *AppointmentService) audit(ctx context.Context, actor, action string, req *models.AppointmentRequest) {
	err := s.repo.RecordAudit(ctx, database.AuditEvent{
		Actor:    actor,
		Action:   action,
		Entity:   "appointment_request",
		EntityID: fmt.Sprintf("%d", req.ID),
		Details:  fmt.Sprintf("%s %s %s-%s", req.StaffUsername, req.Date, req.StartTime, req.EndTime),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record audit event")
	}
}

func slotEnd(start string, slotMinutes int) (string, error) {
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	t, err := schedule.ParseClock(day, start)
	if err != nil {
		return "", err
	}
	return schedule.FormatClock(t.Add(time.Duration(slotMinutes) * time.Minute)), nil
}

// slotTaken reports whether [start, end) overlaps any confirmed request.
// Zero-padded "HH:mm" strings compare correctly as strings.
func slotTaken(start, end string, confirmed []models.AppointmentRequest) bool {
	for _, r := range confirmed {
		if r.StartTime < end && start < r.EndTime {
			return true
		}
	}
	return false
}
