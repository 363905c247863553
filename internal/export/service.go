package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"roomdesk/internal/database"
	"roomdesk/internal/models"
)

// Repository provides the data that goes into workbooks.
type Repository interface {
	GetBookingsBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	ListAuditEvents(ctx context.Context, from, to time.Time) ([]database.AuditEvent, error)
}

// Service renders xlsx workbooks of bookings and the audit trail.
type Service struct {
	repo   Repository
	logger *zerolog.Logger
}

func NewService(repo Repository, logger *zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

var bookingColumns = []column{
	{"Reference", 14}, {"Room", 20}, {"Customer", 22}, {"Email", 26},
	{"Phone", 16}, {"Organization", 22}, {"Purpose", 30}, {"Needs setup help", 16},
	{"Date", 12}, {"Start", 8}, {"End", 8}, {"Status", 11}, {"Created", 17},
}

var auditColumns = []column{
	{"When", 20}, {"Actor", 18}, {"Action", 22}, {"Entity", 12},
	{"Entity ID", 12}, {"Details", 40},
}

// BookingsWorkbook builds a workbook with a bookings sheet and an audit
// sheet for the [from, to) window.
func (s *Service) BookingsWorkbook(ctx context.Context, from, to time.Time) ([]byte, error) {
	bookings, err := s.repo.GetBookingsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	events, err := s.repo.ListAuditEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load audit events: %w", err)
	}

	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	defer wb.close()

	if err := writeBookingsSheet(wb, bookings); err != nil {
		return nil, err
	}
	if err := writeAuditSheet(wb, events); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := wb.save(&buf); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}

	s.logger.Info().
		Int("bookings", len(bookings)).
		Int("audit_events", len(events)).
		Msg("Bookings workbook generated")

	return buf.Bytes(), nil
}

func writeBookingsSheet(wb *workbook, bookings []models.Booking) error {
	sheet, err := wb.addSheet("Bookings", bookingColumns)
	if err != nil {
		return err
	}

	for _, b := range bookings {
		needHelp := "no"
		if b.NeedHelp {
			needHelp = "yes"
		}
		err := sheet.append(
			b.Reference,
			b.RoomName,
			b.CustomerName,
			b.CustomerEmail,
			b.CustomerPhone,
			b.Organization,
			b.Purpose,
			needHelp,
			b.StartTime.Format("2006-01-02"),
			b.StartTime.Format("15:04"),
			b.EndTime.Format("15:04"),
			b.Status,
			b.CreatedAt.Format("2006-01-02 15:04"),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func writeAuditSheet(wb *workbook, events []database.AuditEvent) error {
	sheet, err := wb.addSheet("Audit", auditColumns)
	if err != nil {
		return err
	}

	for _, e := range events {
		err := sheet.append(
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Actor,
			e.Action,
			e.Entity,
			e.EntityID,
			e.Details,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
