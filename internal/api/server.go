package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"roomdesk/internal/database"
	"roomdesk/internal/schedule"
	"roomdesk/internal/service"
)

// Exporter renders a bookings workbook for the export endpoint.
type Exporter interface {
	BookingsWorkbook(ctx context.Context, from, to time.Time) ([]byte, error)
}

// HTTPServer serves the public and admin JSON API.
type HTTPServer struct {
	server   *http.Server
	bookings *service.BookingService
	staff    *service.StaffService
	appts    *service.AppointmentService
	exporter Exporter
	log      *zerolog.Logger

	publicKey string
	adminKey  string
}

// NewHTTPServer wires the API routes. publicKey guards customer-facing
// endpoints, adminKey guards staff and admin operations; an empty
// publicKey leaves the public surface open.
func NewHTTPServer(addr, publicKey, adminKey string,
	bookings *service.BookingService, staff *service.StaffService,
	appts *service.AppointmentService, exporter Exporter,
	log *zerolog.Logger) *HTTPServer {

	s := &HTTPServer{
		bookings:  bookings,
		staff:     staff,
		appts:     appts,
		exporter:  exporter,
		log:       log,
		publicKey: publicKey,
		adminKey:  adminKey,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/rooms/", s.handleRoomSubpath)
	mux.HandleFunc("/api/bookings", s.handleBookings)
	mux.HandleFunc("/api/bookings/", s.admin(s.handleBookingSubpath))
	mux.HandleFunc("/api/staff", s.handleStaff)
	mux.HandleFunc("/api/staff-hours", s.public(s.handleStaffHoursListing))
	mux.HandleFunc("/api/staff/", s.handleStaffSubpath)
	mux.HandleFunc("/api/appointment-requests", s.handleAppointmentRequests)
	mux.HandleFunc("/api/appointment-requests/", s.admin(s.handleAppointmentSubpath))
	mux.HandleFunc("/api/export/bookings.xlsx", s.admin(s.handleExportBookings))

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start runs the HTTP server until it is shut down.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) public(next http.HandlerFunc) http.HandlerFunc {
	return s.requireKey(s.publicKey, next)
}

func (s *HTTPServer) admin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireKey(s.adminKey, next)
}

func (s *HTTPServer) requireKey(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key != "" {
			got := r.Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service failures onto HTTP statuses. Rejections
// carry their reason so clients can present the right message.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var rejection *schedule.RejectionError
	switch {
	case errors.As(err, &rejection):
		status := http.StatusUnprocessableEntity
		if rejection.Reason == schedule.ReasonConflict {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{
			"error":  rejection.Message,
			"reason": string(rejection.Reason),
		})
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "request already decided")
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseRangeParams reads a half-open [from, to) range from the query.
// A single "date" covers that one day; otherwise "from"/"to" bound the
// range, defaulting to a month either side of today.
func parseRangeParams(r *http.Request) (time.Time, time.Time, error) {
	if v := r.URL.Query().Get("date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, day.AddDate(0, 0, 1), nil
	}

	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(0, 1, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

func parseDateParam(r *http.Request) (time.Time, error) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	return time.Parse("2006-01-02", dateStr)
}
