package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"roomdesk/internal/metrics"
	"roomdesk/internal/models"
)

// ReplaceHoursRequest is the request body for PUT /api/staff/{username}/hours.
// Keys are weekday names for the weekly template or YYYY-MM-DD dates for
// overrides; values are lists of HH:MM slot starts. An empty list on a
// date key marks a day off.
type ReplaceHoursRequest struct {
	Hours map[string][]string `json:"hours"`
}

// OverrideRequest is the request body for POST .../hours/override.
type OverrideRequest struct {
	Date  string   `json:"date"` // YYYY-MM-DD
	Slots []string `json:"slots"`
	Clear bool     `json:"clear,omitempty"`
}

// RegisterStaffRequest is the request body for POST /api/staff.
type RegisterStaffRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"` // defaults to staff
	Bio      string `json:"bio,omitempty"`
}

// handleStaff lists approved staff members (public) or registers a new
// account awaiting approval (admin).
// GET  /api/staff
// POST /api/staff
func (s *HTTPServer) handleStaff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.public(s.handleListStaff)(w, r)
	case http.MethodPost:
		s.admin(s.handleRegisterStaff)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleListStaff(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff")

	staff, err := s.staff.ListStaff(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"staff": staff})
}

func (s *HTTPServer) handleRegisterStaff(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("register_staff")

	var req RegisterStaffRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	member := &models.StaffMember{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		Bio:      req.Bio,
	}

	if err := s.staff.RegisterStaff(r.Context(), member); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// handleStaffHoursListing returns every active staff member's weekly
// template as display ranges.
// GET /api/staff-hours
func (s *HTTPServer) handleStaffHoursListing(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_hours_listing")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	hours, err := s.staff.WeeklyHours(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"staff_hours": hours})
}

// handleStaffSubpath dispatches /api/staff/{username}/slots,
// /api/staff/{username}/hours and /api/staff/{username}/hours/override.
// Slots are public, hours edits need the admin key.
func (s *HTTPServer) handleStaffSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/staff/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	username := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "slots":
		s.public(func(w http.ResponseWriter, r *http.Request) {
			s.handleStaffSlots(w, r, username)
		})(w, r)
	case len(parts) == 2 && parts[1] == "approve":
		s.admin(func(w http.ResponseWriter, r *http.Request) {
			s.handleApproveStaff(w, r, username)
		})(w, r)
	case len(parts) == 2 && parts[1] == "hours":
		s.admin(func(w http.ResponseWriter, r *http.Request) {
			s.handleStaffHours(w, r, username)
		})(w, r)
	case len(parts) == 3 && parts[1] == "hours" && parts[2] == "override":
		s.admin(func(w http.ResponseWriter, r *http.Request) {
			s.handleStaffOverride(w, r, username)
		})(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleApproveStaff activates a pending staff account.
// POST /api/staff/{username}/approve
func (s *HTTPServer) handleApproveStaff(w http.ResponseWriter, r *http.Request, username string) {
	metrics.IncHTTP("approve_staff")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.staff.ApproveStaff(r.Context(), username, "admin"); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleStaffSlots returns the open appointment slots and display ranges
// for a staff member on a date.
// GET /api/staff/{username}/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleStaffSlots(w http.ResponseWriter, r *http.Request, username string) {
	metrics.IncHTTP("staff_slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	availability, err := s.staff.Availability(r.Context(), username, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	open, err := s.appts.OpenSlots(r.Context(), username, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":         availability.Username,
		"date":             availability.Date,
		"available_ranges": availability.AvailableRanges,
		"open_slots":       open,
	})
}

// handleStaffHours replaces a staff member's whole schedule document.
// PUT /api/staff/{username}/hours
func (s *HTTPServer) handleStaffHours(w http.ResponseWriter, r *http.Request, username string) {
	metrics.IncHTTP("staff_hours")
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ReplaceHoursRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Hours == nil {
		writeError(w, http.StatusBadRequest, "hours is required")
		return
	}

	if err := s.staff.ReplaceHours(r.Context(), username, req.Hours, "admin"); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// handleStaffOverride sets or clears a single date override.
// POST /api/staff/{username}/hours/override
func (s *HTTPServer) handleStaffOverride(w http.ResponseWriter, r *http.Request, username string) {
	metrics.IncHTTP("staff_override")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req OverrideRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	if req.Clear {
		err = s.staff.ClearDateOverride(r.Context(), username, date, "admin")
	} else {
		err = s.staff.SetDateOverride(r.Context(), username, date, req.Slots, "admin")
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
