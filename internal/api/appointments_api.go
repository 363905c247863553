package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"roomdesk/internal/metrics"
	"roomdesk/internal/models"
)

// CreateAppointmentRequest is the request body for
// POST /api/appointment-requests. Slots are HH:MM grid starts; one or two
// contiguous slots may be selected.
type CreateAppointmentRequest struct {
	StaffUsername string   `json:"staff_username"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	BusinessName  string   `json:"business_name,omitempty"`
	Date          string   `json:"date"` // YYYY-MM-DD
	Slots         []string `json:"slots"`
	Reason        string   `json:"reason,omitempty"`
}

// AppointmentView is an appointment request with display-only derived
// fields attached.
type AppointmentView struct {
	models.AppointmentRequest
	PreferredTime string `json:"preferred_time"`
	Past          bool   `json:"past"`
}

func appointmentView(req models.AppointmentRequest, now time.Time) AppointmentView {
	return AppointmentView{
		AppointmentRequest: req,
		PreferredTime:      req.StartTime + " - " + req.EndTime,
		Past:               req.IsPast(now),
	}
}

// handleAppointmentRequests creates a request (public) or lists them (admin).
// POST /api/appointment-requests
// GET  /api/appointment-requests?staff=username
func (s *HTTPServer) handleAppointmentRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.public(s.handleCreateAppointment)(w, r)
	case http.MethodGet:
		s.admin(s.handleListAppointments)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_appointment")

	var req CreateAppointmentRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.StaffUsername == "" || req.CustomerName == "" || req.CustomerEmail == "" {
		writeError(w, http.StatusBadRequest, "staff_username, customer_name and customer_email are required")
		return
	}
	if req.Date == "" || len(req.Slots) == 0 {
		writeError(w, http.StatusBadRequest, "date and slots are required")
		return
	}

	appointment := &models.AppointmentRequest{
		StaffUsername: req.StaffUsername,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		BusinessName:  req.BusinessName,
		Date:          req.Date,
		Reason:        req.Reason,
	}

	if err := s.appts.CreateRequest(r.Context(), appointment, req.Slots); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appointmentView(*appointment, time.Now()))
}

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_appointments")

	requests, err := s.appts.List(r.Context(), r.URL.Query().Get("staff"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	now := time.Now()
	views := make([]AppointmentView, 0, len(requests))
	for _, req := range requests {
		views = append(views, appointmentView(req, now))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"requests": views})
}

// handleAppointmentSubpath dispatches /api/appointment-requests/{id}/confirm
// and /api/appointment-requests/{id}/reject.
func (s *HTTPServer) handleAppointmentSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/appointment-requests/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var approve bool
	switch parts[1] {
	case "confirm":
		approve = true
	case "reject":
		approve = false
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	metrics.IncHTTP("decide_appointment")

	decided, err := s.appts.Decide(r.Context(), id, approve, "admin")
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, appointmentView(*decided, time.Now()))
}
