package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"roomdesk/internal/events"
	"roomdesk/internal/models"
)

var bookingHeaders = []interface{}{
	"Reference", "Room", "Date", "Time", "Status",
	"Customer", "Email", "Phone", "Organization", "Purpose", "Created",
}

// SheetsService mirrors bookings into a Google spreadsheet so staff can
// watch the schedule without touching the admin API.
type SheetsService struct {
	srv           *sheetsapi.Service
	spreadsheetID string
	sheetName     string
	logger        *zerolog.Logger

	// rowCache maps booking ID to its 1-based sheet row.
	rowCache map[int64]int
	cacheMu  sync.RWMutex
}

// NewSheetsService authorizes against the Sheets API using a service
// account credentials file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	return &SheetsService{
		srv:           srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		rowCache:      make(map[int64]int),
	}, nil
}

// Subscribe registers the mirror's event handlers on the bus. Each
// handler drains its own queue, so spreadsheet calls stay off the
// request path while create/confirm ordering is preserved per handler.
func (s *SheetsService) Subscribe(bus *events.EventBus) {
	bus.SubscribeAsync(events.BookingCreated, s.handleBookingUpsert)
	bus.SubscribeAsync(events.BookingConfirmed, s.handleBookingUpsert)
	bus.SubscribeAsync(events.BookingDeleted, s.handleBookingDelete)
}

func (s *SheetsService) handleBookingUpsert(event events.Event) error {
	var booking models.Booking
	if err := json.Unmarshal(event.Payload, &booking); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	if err := s.UpsertBooking(context.Background(), &booking); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to mirror booking to sheet")
		return err
	}
	return nil
}

func (s *SheetsService) handleBookingDelete(event events.Event) error {
	var booking models.Booking
	if err := json.Unmarshal(event.Payload, &booking); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	if err := s.RemoveBooking(context.Background(), booking.ID); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to remove booking from sheet")
		return err
	}
	return nil
}

// UpsertBooking writes the booking's row, appending if it has no cached
// position yet.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	values := bookingRowValues(booking)

	if row, ok := s.getCachedRow(booking.ID); ok {
		rangeRef := fmt.Sprintf("%s!A%d", s.sheetName, row)
		_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rangeRef, &sheetsapi.ValueRange{
			Values: [][]interface{}{values},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		return nil
	}

	resp, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName, &sheetsapi.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	if row, ok := rowFromUpdatedRange(resp); ok {
		s.setCachedRow(booking.ID, row)
	}
	return nil
}

// RemoveBooking blanks the booking's row. Rows are not physically
// deleted so cached positions of later rows stay valid.
func (s *SheetsService) RemoveBooking(ctx context.Context, bookingID int64) error {
	row, ok := s.getCachedRow(bookingID)
	if !ok {
		return nil
	}

	blank := make([]interface{}, len(bookingHeaders))
	for i := range blank {
		blank[i] = ""
	}

	rangeRef := fmt.Sprintf("%s!A%d", s.sheetName, row)
	_, err := s.srv.Spreadsheets.Values.Update(s.spreadsheetID, rangeRef, &sheetsapi.ValueRange{
		Values: [][]interface{}{blank},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}

	s.deleteCacheRow(bookingID)
	return nil
}

// SyncBookings rewrites the whole sheet from the given bookings. Cached
// row positions are rebuilt from scratch.
func (s *SheetsService) SyncBookings(ctx context.Context, bookings []models.Booking) error {
	active := s.filterActiveBookings(bookings)

	rows := [][]interface{}{bookingHeaders}
	for i := range active {
		rows = append(rows, bookingRowValues(&active[i]))
	}

	_, err := s.srv.Spreadsheets.Values.Clear(s.spreadsheetID, s.sheetName, &sheetsapi.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", &sheetsapi.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.ClearCache()
	for i := range active {
		// Row 1 is the header.
		s.setCachedRow(active[i].ID, i+2)
	}

	s.logger.Info().Int("rows", len(active)).Msg("Synced bookings to sheet")
	return nil
}

func (s *SheetsService) filterActiveBookings(bookings []models.Booking) []models.Booking {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == models.StatusPending || b.Status == models.StatusConfirmed {
			active = append(active, b)
		}
	}
	return active
}

func bookingRowValues(b *models.Booking) []interface{} {
	return []interface{}{
		b.Reference,
		b.RoomName,
		b.StartTime.Format("2006-01-02"),
		b.StartTime.Format("15:04") + " - " + b.EndTime.Format("15:04"),
		b.Status,
		b.CustomerName,
		b.CustomerEmail,
		b.CustomerPhone,
		b.Organization,
		b.Purpose,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// rowFromUpdatedRange extracts the 1-based row from an append response
// range like "Bookings!A7:K7".
func rowFromUpdatedRange(resp *sheetsapi.AppendValuesResponse) (int, bool) {
	if resp == nil || resp.Updates == nil {
		return 0, false
	}
	ref := resp.Updates.UpdatedRange
	if i := strings.IndexByte(ref, '!'); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		ref = ref[:i]
	}
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	row, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return row, row > 0
}

func (s *SheetsService) getCachedRow(bookingID int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[bookingID]
	return row, ok
}

func (s *SheetsService) setCachedRow(bookingID int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[bookingID] = row
}

func (s *SheetsService) deleteCacheRow(bookingID int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, bookingID)
}

// ClearCache drops all cached row positions.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
}
