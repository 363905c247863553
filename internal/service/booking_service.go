package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"roomdesk/internal/cache"
	"roomdesk/internal/database"
	"roomdesk/internal/events"
	"roomdesk/internal/metrics"
	"roomdesk/internal/models"
	"roomdesk/internal/schedule"
)

// BookingRepository is the storage surface the booking service needs.
type BookingRepository interface {
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetRooms(ctx context.Context, activeOnly bool) ([]models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) (int64, error)
	UpdateRoom(ctx context.Context, room *models.Room) error
	DeactivateRoom(ctx context.Context, id int64) error
	GetBookingsForRoomDate(ctx context.Context, roomID int64, date time.Time) ([]models.Booking, error)
	GetBookingsBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) (int64, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	DeleteBooking(ctx context.Context, id int64) error
	DeleteOldBookings(ctx context.Context, retention time.Duration) (int64, error)
	RecordAudit(ctx context.Context, event database.AuditEvent) error
}

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// DayAvailability is a room's slot grid for one date, plus the merged
// free ranges for display.
type DayAvailability struct {
	RoomID          int64               `json:"room_id"`
	RoomName        string              `json:"room_name"`
	Date            string              `json:"date"`
	Slots           []schedule.SlotInfo `json:"slots"`
	AvailableRanges []string            `json:"available_ranges"`
}

// BookingService owns room listing, availability and the booking lifecycle.
type BookingService struct {
	repo        BookingRepository
	bus         EventPublisher
	cache       *cache.Cache
	locks       *keyedMutex
	slotMinutes int
	logger      *zerolog.Logger
}

func NewBookingService(repo BookingRepository, bus EventPublisher, c *cache.Cache, slotMinutes int, logger *zerolog.Logger) *BookingService {
	if slotMinutes <= 0 {
		slotMinutes = schedule.DefaultSlotMinutes
	}
	return &BookingService{
		repo:        repo,
		bus:         bus,
		cache:       c,
		locks:       newKeyedMutex(),
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// ListRooms returns rooms currently open for booking.
func (s *BookingService) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.repo.GetRooms(ctx, true)
}

// GetRoom returns a room by ID, active or not.
func (s *BookingService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

// RoomDay computes the slot grid and free ranges for a room on a date.
// Results come from the cache when fresh.
func (s *BookingService) RoomDay(ctx context.Context, roomID int64, date time.Time) (*DayAvailability, error) {
	dateKey := date.Format("2006-01-02")
	cacheKey := cache.RoomDayKey(roomID, dateKey)

	var cached DayAvailability
	if s.cache.Read(ctx, cacheKey, &cached) {
		metrics.IncAvailabilityCache("hit")
		return &cached, nil
	}
	metrics.IncAvailabilityCache("miss")

	day, err := s.computeRoomDay(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	s.cache.Write(ctx, cacheKey, day)
	return day, nil
}

func (s *BookingService) computeRoomDay(ctx context.Context, roomID int64, date time.Time) (*DayAvailability, error) {
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookingsForRoomDate(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	slots, err := schedule.RoomSlots(date, schedule.Hours{Open: room.OpenTime, Close: room.CloseTime}, bookings, s.slotMinutes)
	if err != nil {
		return nil, err
	}

	ranges, err := schedule.MergeSlotRanges(schedule.AvailableStarts(slots), s.slotMinutes)
	if err != nil {
		return nil, err
	}

	return &DayAvailability{
		RoomID:          room.ID,
		RoomName:        room.Name,
		Date:            date.Format("2006-01-02"),
		Slots:           schedule.ToSlotInfo(slots),
		AvailableRanges: ranges,
	}, nil
}

// CreateRoom adds a room to the bookable inventory.
func (s *BookingService) CreateRoom(ctx context.Context, room *models.Room, actor string) error {
	if room.Name == "" {
		return fmt.Errorf("room name is required")
	}
	if _, err := schedule.ParseClock(time.Now(), room.OpenTime); err != nil {
		return fmt.Errorf("invalid open_time %q", room.OpenTime)
	}
	if _, err := schedule.ParseClock(time.Now(), room.CloseTime); err != nil {
		return fmt.Errorf("invalid close_time %q", room.CloseTime)
	}

	id, err := s.repo.CreateRoom(ctx, room)
	if err != nil {
		return err
	}
	room.ID = id

	s.auditRoom(ctx, actor, "room_created", room.ID)
	s.logger.Info().Int64("room_id", id).Str("name", room.Name).Msg("Room created")
	return nil
}

// UpdateRoom replaces a room's details. Cached availability for the room
// is dropped since the operating window may have moved.
func (s *BookingService) UpdateRoom(ctx context.Context, room *models.Room, actor string) error {
	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return err
	}

	s.invalidateRoomHorizon(ctx, room.ID)
	s.auditRoom(ctx, actor, "room_updated", room.ID)
	return nil
}

// DeactivateRoom hides a room from new bookings without touching its
// booking history.
func (s *BookingService) DeactivateRoom(ctx context.Context, id int64, actor string) error {
	if err := s.repo.DeactivateRoom(ctx, id); err != nil {
		return err
	}

	s.invalidateRoomHorizon(ctx, id)
	s.auditRoom(ctx, actor, "room_deactivated", id)
	return nil
}

// ListBookings returns bookings whose start falls inside [from, to).
func (s *BookingService) ListBookings(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	return s.repo.GetBookingsBetween(ctx, from, to)
}

// CreateBooking validates the requested interval against the room's hours
// and existing bookings, then stores it as pending. The per-room-day lock
// plus the repository's transactional re-check keep a concurrent request
// from double-booking the same slots.
func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	dateKey := booking.StartTime.Format("2006-01-02")
	unlock := s.locks.Lock(fmt.Sprintf("room:%d:%s", booking.RoomID, dateKey))
	defer unlock()

	room, err := s.repo.GetRoom(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		metrics.IncBookingRejected(string(schedule.ReasonUnavailable))
		return &schedule.RejectionError{Reason: schedule.ReasonUnavailable, Message: "room is not available for booking"}
	}

	existing, err := s.repo.GetBookingsForRoomDate(ctx, booking.RoomID, booking.StartTime)
	if err != nil {
		return err
	}

	hours := schedule.Hours{Open: room.OpenTime, Close: room.CloseTime}
	interval, err := schedule.ValidateBooking(hours, booking.StartTime, booking.EndTime, existing, s.slotMinutes)
	if err != nil {
		if reason, ok := schedule.IsRejection(err); ok {
			metrics.IncBookingRejected(string(reason))
		}
		return err
	}

	booking.StartTime = interval.Start
	booking.EndTime = interval.End
	booking.RoomName = room.Name
	booking.Status = models.StatusPending
	if booking.Reference == "" {
		booking.Reference = uuid.NewString()
	}

	id, err := s.repo.CreateBooking(ctx, booking)
	if errors.Is(err, database.ErrBookingConflict) {
		metrics.IncBookingRejected(string(schedule.ReasonConflict))
		return &schedule.RejectionError{Reason: schedule.ReasonConflict, Message: "room was booked by someone else, pick another slot"}
	}
	if err != nil {
		return err
	}
	booking.ID = id

	metrics.IncBookingCreated(booking.Status)
	s.invalidateRoomDay(ctx, booking.RoomID, dateKey)
	s.publish(events.BookingCreated, booking)
	s.audit(ctx, booking.CustomerEmail, "booking_created", booking)

	s.logger.Info().
		Int64("booking_id", id).
		Int64("room_id", booking.RoomID).
		Str("reference", booking.Reference).
		Time("start", booking.StartTime).
		Msg("Booking created")

	return nil
}

// ConfirmBooking moves a pending booking to confirmed.
func (s *BookingService) ConfirmBooking(ctx context.Context, id int64, actor string) (*models.Booking, error) {
	if err := s.repo.UpdateBookingStatus(ctx, id, models.StatusConfirmed); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCreated(models.StatusConfirmed)
	s.invalidateRoomDay(ctx, booking.RoomID, booking.StartTime.Format("2006-01-02"))
	s.publish(events.BookingConfirmed, booking)
	s.audit(ctx, actor, "booking_confirmed", booking)

	return booking, nil
}

// DeleteBooking removes a booking, freeing its slots immediately.
func (s *BookingService) DeleteBooking(ctx context.Context, id int64, actor string) error {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.invalidateRoomDay(ctx, booking.RoomID, booking.StartTime.Format("2006-01-02"))
	s.publish(events.BookingDeleted, booking)
	s.audit(ctx, actor, "booking_deleted", booking)

	return nil
}

// CleanupOldBookings deletes bookings past the retention window.
func (s *BookingService) CleanupOldBookings(ctx context.Context, retention time.Duration) error {
	deleted, err := s.repo.DeleteOldBookings(ctx, retention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("Removed old bookings")
	}
	return nil
}

func (s *BookingService) invalidateRoomDay(ctx context.Context, roomID int64, dateKey string) {
	s.cache.Invalidate(ctx, cache.RoomDayKey(roomID, dateKey))
}

// invalidateRoomHorizon drops cached availability for the coming weeks
// after a room edit moved its operating window.
func (s *BookingService) invalidateRoomHorizon(ctx context.Context, roomID int64) {
	keys := make([]string, 0, 28)
	today := time.Now()
	for i := 0; i < 28; i++ {
		d := today.AddDate(0, 0, i).Format("2006-01-02")
		keys = append(keys, cache.RoomDayKey(roomID, d))
	}
	s.cache.Invalidate(ctx, keys...)
}

func (s *BookingService) auditRoom(ctx context.Context, actor, action string, roomID int64) {
	err := s.repo.RecordAudit(ctx, database.AuditEvent{
		Actor:    actor,
		Action:   action,
		Entity:   "room",
		EntityID: fmt.Sprintf("%d", roomID),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record audit event")
	}
}

func (s *BookingService) publish(eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

func (s *BookingService) audit(ctx context.Context, actor, action string, booking *models.Booking) {
	err := s.repo.RecordAudit(ctx, database.AuditEvent{
		Actor:    actor,
		Action:   action,
		Entity:   "booking",
		EntityID: booking.Reference,
		Details:  fmt.Sprintf("%s %s-%s", booking.RoomName, booking.StartTime.Format("2006-01-02 15:04"), booking.EndTime.Format("15:04")),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record audit event")
	}
}
