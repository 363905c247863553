package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"roomdesk/internal/cache"
	"roomdesk/internal/database"
	"roomdesk/internal/events"
	"roomdesk/internal/models"
	"roomdesk/internal/schedule"
)

// StaffRepository is the storage surface the staff service needs.
type StaffRepository interface {
	GetStaffByUsername(ctx context.Context, username string) (*models.StaffMember, error)
	ListStaff(ctx context.Context, activeOnly bool) ([]models.StaffMember, error)
	CreateStaff(ctx context.Context, s *models.StaffMember) (int64, error)
	UpdateOfficeHours(ctx context.Context, username, blob string) error
	SetAccountStatus(ctx context.Context, username, status string) error
	RecordAudit(ctx context.Context, event database.AuditEvent) error
}

// StaffService manages staff accounts and their published office hours.
type StaffService struct {
	repo        StaffRepository
	bus         EventPublisher
	cache       *cache.Cache
	locks       *keyedMutex
	slotMinutes int
	logger      *zerolog.Logger
}

func NewStaffService(repo StaffRepository, bus EventPublisher, c *cache.Cache, slotMinutes int, logger *zerolog.Logger) *StaffService {
	if slotMinutes <= 0 {
		slotMinutes = schedule.DefaultSlotMinutes
	}
	return &StaffService{
		repo:        repo,
		bus:         bus,
		cache:       c,
		locks:       newKeyedMutex(),
		slotMinutes: slotMinutes,
		logger:      logger,
	}
}

// ListStaff returns approved staff accounts.
func (s *StaffService) ListStaff(ctx context.Context) ([]models.StaffMember, error) {
	return s.repo.ListStaff(ctx, true)
}

// GetStaff returns a staff member by username.
func (s *StaffService) GetStaff(ctx context.Context, username string) (*models.StaffMember, error) {
	return s.repo.GetStaffByUsername(ctx, normalizeUsername(username))
}

// RegisterStaff creates a pending account awaiting admin approval.
func (s *StaffService) RegisterStaff(ctx context.Context, member *models.StaffMember) error {
	member.Username = normalizeUsername(member.Username)
	if member.Username == "" {
		return fmt.Errorf("username is required")
	}
	if member.Role == "" {
		member.Role = models.RoleStaff
	}
	member.Status = models.AccountPending

	id, err := s.repo.CreateStaff(ctx, member)
	if err != nil {
		return err
	}
	member.ID = id

	s.logger.Info().Str("username", member.Username).Msg("Staff account registered, awaiting approval")
	return nil
}

// ApproveStaff activates a pending staff account.
func (s *StaffService) ApproveStaff(ctx context.Context, username, actor string) error {
	username = normalizeUsername(username)
	if err := s.repo.SetAccountStatus(ctx, username, models.AccountActive); err != nil {
		return err
	}
	s.auditHours(ctx, actor, "staff_approved", username, "")
	return nil
}

// StaffWeeklyHours is a staff member's recurring template rendered as
// display ranges per weekday. Weekdays without slots are omitted.
type StaffWeeklyHours struct {
	Username string              `json:"username"`
	FullName string              `json:"full_name,omitempty"`
	Hours    map[string][]string `json:"hours"`
}

// WeeklyHours renders the weekly template of every active staff member.
func (s *StaffService) WeeklyHours(ctx context.Context) ([]StaffWeeklyHours, error) {
	members, err := s.repo.ListStaff(ctx, true)
	if err != nil {
		return nil, err
	}

	out := make([]StaffWeeklyHours, 0, len(members))
	for _, member := range members {
		hours, err := schedule.ParseOfficeHours(member.OfficeHours)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", member.Username).Msg("Skipping unreadable office hours")
			continue
		}

		weekly := make(map[string][]string)
		for day := time.Sunday; day <= time.Saturday; day++ {
			slots := hours.Weekday(day)
			if len(slots) == 0 {
				continue
			}
			ranges, err := schedule.MergeSlotRanges(slots, s.slotMinutes)
			if err != nil {
				return nil, err
			}
			weekly[day.String()] = ranges
		}

		out = append(out, StaffWeeklyHours{
			Username: member.Username,
			FullName: member.FullName,
			Hours:    weekly,
		})
	}
	return out, nil
}

// Hours returns the parsed office hours document for a staff member.
func (s *StaffService) Hours(ctx context.Context, username string) (*schedule.OfficeHours, error) {
	member, err := s.repo.GetStaffByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, err
	}
	return schedule.ParseOfficeHours(member.OfficeHours)
}

// StaffDayAvailability is a staff member's resolved working slots for a
// date, plus the merged ranges for display.
type StaffDayAvailability struct {
	Username        string   `json:"username"`
	Date            string   `json:"date"`
	Slots           []string `json:"slots"`
	AvailableRanges []string `json:"available_ranges"`
}

// Availability resolves a staff member's working slots for a date. A date
// override, empty included, beats the weekly template. Results come from
// the cache when fresh.
func (s *StaffService) Availability(ctx context.Context, username string, date time.Time) (*StaffDayAvailability, error) {
	username = normalizeUsername(username)
	dateKey := date.Format("2006-01-02")
	cacheKey := cache.StaffDayKey(username, dateKey)

	var cached StaffDayAvailability
	if s.cache.Read(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	hours, err := s.Hours(ctx, username)
	if err != nil {
		return nil, err
	}

	slots := hours.Resolve(date)
	ranges, err := schedule.MergeSlotRanges(slots, s.slotMinutes)
	if err != nil {
		return nil, err
	}

	day := &StaffDayAvailability{
		Username:        username,
		Date:            dateKey,
		Slots:           slots,
		AvailableRanges: ranges,
	}
	s.cache.Write(ctx, cacheKey, day)
	return day, nil
}

// ReplaceHours swaps the whole office hours document for a staff member.
// Weekday name keys hold the weekly template, "2006-01-02" keys hold
// per-date overrides.
func (s *StaffService) ReplaceHours(ctx context.Context, username string, doc map[string][]string, actor string) error {
	username = normalizeUsername(username)
	unlock := s.locks.Lock("hours:" + username)
	defer unlock()

	if _, err := s.repo.GetStaffByUsername(ctx, username); err != nil {
		return err
	}

	hours := schedule.NewOfficeHours()
	for key, slots := range doc {
		day, ok := parseWeekdayName(key)
		if ok {
			hours.SetWeekday(day, slots)
			continue
		}
		date, err := time.Parse("2006-01-02", key)
		if err != nil {
			return fmt.Errorf("unknown schedule key %q", key)
		}
		hours.SetOverride(date, slots)
	}

	return s.storeHours(ctx, username, hours, actor, "hours_replaced")
}

// SetDateOverride stores per-date working slots, overriding the weekly
// template for that date. Empty slots mark a day off.
func (s *StaffService) SetDateOverride(ctx context.Context, username string, date time.Time, slots []string, actor string) error {
	username = normalizeUsername(username)
	unlock := s.locks.Lock("hours:" + username)
	defer unlock()

	hours, err := s.Hours(ctx, username)
	if err != nil {
		return err
	}
	hours.SetOverride(date, slots)

	return s.storeHours(ctx, username, hours, actor, "hours_override_set")
}

// ClearDateOverride removes a per-date entry so the weekly template
// applies again.
func (s *StaffService) ClearDateOverride(ctx context.Context, username string, date time.Time, actor string) error {
	username = normalizeUsername(username)
	unlock := s.locks.Lock("hours:" + username)
	defer unlock()

	hours, err := s.Hours(ctx, username)
	if err != nil {
		return err
	}
	hours.ClearOverride(date)

	return s.storeHours(ctx, username, hours, actor, "hours_override_cleared")
}

func (s *StaffService) storeHours(ctx context.Context, username string, hours *schedule.OfficeHours, actor, action string) error {
	blob, err := hours.Marshal()
	if err != nil {
		return err
	}
	if err := s.repo.UpdateOfficeHours(ctx, username, blob); err != nil {
		return err
	}

	s.invalidateStaffCache(ctx, username)
	s.auditHours(ctx, actor, action, username, blob)

	if s.bus != nil {
		payload := map[string]string{"username": username}
		if err := s.bus.PublishJSON(events.HoursUpdated, payload); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish event")
		}
	}

	s.logger.Info().Str("username", username).Str("action", action).Msg("Office hours updated")
	return nil
}

// invalidateStaffCache drops cached availability for the coming weeks.
// Hours changes are rare enough that clearing a fixed horizon is simpler
// than tracking which dates a template edit touches.
func (s *StaffService) invalidateStaffCache(ctx context.Context, username string) {
	keys := make([]string, 0, 28)
	today := time.Now()
	for i := 0; i < 28; i++ {
		d := today.AddDate(0, 0, i).Format("2006-01-02")
		keys = append(keys, cache.StaffDayKey(username, d))
	}
	s.cache.Invalidate(ctx, keys...)
}

func (s *StaffService) auditHours(ctx context.Context, actor, action, username, details string) {
	err := s.repo.RecordAudit(ctx, database.AuditEvent{
		Actor:    actor,
		Action:   action,
		Entity:   "staff",
		EntityID: username,
		Details:  details,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record audit event")
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func parseWeekdayName(name string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}
