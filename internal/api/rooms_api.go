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

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	RoomID        int64  `json:"room_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	Organization  string `json:"organization,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	NeedHelp      bool   `json:"need_help,omitempty"`
	Date          string `json:"date"`               // YYYY-MM-DD
	StartTime     string `json:"start_time"`         // HH:MM
	EndTime       string `json:"end_time,omitempty"` // HH:MM, defaults to one slot
}

// RoomRequest is the request body for creating or updating a room.
type RoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	OpenTime    string `json:"open_time"`  // HH:MM
	CloseTime   string `json:"close_time"` // HH:MM
	IsActive    *bool  `json:"is_active,omitempty"`
}

// handleRooms lists the bookable rooms (public) or creates one (admin).
// GET  /api/rooms
// POST /api/rooms
func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.public(s.handleListRooms)(w, r)
	case http.MethodPost:
		s.admin(s.handleCreateRoom)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rooms")

	rooms, err := s.bookings.ListRooms(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_room")

	req, ok := decodeRoomRequest(w, r)
	if !ok {
		return
	}

	room := &models.Room{
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
		OpenTime:    req.OpenTime,
		CloseTime:   req.CloseTime,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}

	if err := s.bookings.CreateRoom(r.Context(), room, "admin"); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// handleRoomSubpath dispatches /api/rooms/{id}/slots (public) and
// /api/rooms/{id} updates (admin).
func (s *HTTPServer) handleRoomSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	parts := strings.Split(rest, "/")

	roomID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "slots":
		s.public(func(w http.ResponseWriter, r *http.Request) {
			s.handleRoomSlots(w, r, roomID)
		})(w, r)
	case len(parts) == 1 && r.Method == http.MethodPut:
		s.admin(func(w http.ResponseWriter, r *http.Request) {
			s.handleUpdateRoom(w, r, roomID)
		})(w, r)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.admin(func(w http.ResponseWriter, r *http.Request) {
			s.handleDeactivateRoom(w, r, roomID)
		})(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleUpdateRoom(w http.ResponseWriter, r *http.Request, roomID int64) {
	metrics.IncHTTP("update_room")

	req, ok := decodeRoomRequest(w, r)
	if !ok {
		return
	}

	room := &models.Room{
		ID:          roomID,
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
		OpenTime:    req.OpenTime,
		CloseTime:   req.CloseTime,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}

	if err := s.bookings.UpdateRoom(r.Context(), room, "admin"); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleDeactivateRoom(w http.ResponseWriter, r *http.Request, roomID int64) {
	metrics.IncHTTP("deactivate_room")

	if err := s.bookings.DeactivateRoom(r.Context(), roomID, "admin"); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func decodeRoomRequest(w http.ResponseWriter, r *http.Request) (*RoomRequest, bool) {
	var req RoomRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.Name == "" || req.OpenTime == "" || req.CloseTime == "" {
		writeError(w, http.StatusBadRequest, "name, open_time and close_time are required")
		return nil, false
	}
	return &req, true
}

// handleRoomSlots returns the slot grid and free ranges for a room.
// GET /api/rooms/{id}/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleRoomSlots(w http.ResponseWriter, r *http.Request, roomID int64) {
	metrics.IncHTTP("room_slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date, err := parseDateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	day, err := s.bookings.RoomDay(r.Context(), roomID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, day)
}

// handleBookings creates a booking (public) or lists them (admin).
// POST /api/bookings
// GET  /api/bookings?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.public(s.handleCreateBooking)(w, r)
	case http.MethodGet:
		s.admin(s.handleListBookings)(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	from, to, err := parseRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.RoomID <= 0 || req.CustomerName == "" || req.CustomerEmail == "" {
		writeError(w, http.StatusBadRequest, "room_id, customer_name and customer_email are required")
		return
	}
	if req.Date == "" || req.StartTime == "" {
		writeError(w, http.StatusBadRequest, "date and start_time are required")
		return
	}

	start, err := time.Parse("2006-01-02 15:04", req.Date+" "+req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date or start_time format")
		return
	}

	var end time.Time
	if req.EndTime != "" {
		end, err = time.Parse("2006-01-02 15:04", req.Date+" "+req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_time format")
			return
		}
	}

	booking := &models.Booking{
		RoomID:        req.RoomID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Organization:  req.Organization,
		Purpose:       req.Purpose,
		NeedHelp:      req.NeedHelp,
		StartTime:     start,
		EndTime:       end,
	}

	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// handleBookingSubpath dispatches /api/bookings/{id} and
// /api/bookings/{id}/confirm.
func (s *HTTPServer) handleBookingSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	parts := strings.Split(rest, "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "confirm" && r.Method == http.MethodPost:
		s.handleConfirmBooking(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleDeleteBooking(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleConfirmBooking approves a pending booking.
// POST /api/bookings/{id}/confirm
func (s *HTTPServer) handleConfirmBooking(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("confirm_booking")

	booking, err := s.bookings.ConfirmBooking(r.Context(), id, "admin")
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// handleDeleteBooking rejects or cancels a booking, freeing its slots.
// DELETE /api/bookings/{id}
func (s *HTTPServer) handleDeleteBooking(w http.ResponseWriter, r *http.Request, id int64) {
	metrics.IncHTTP("delete_booking")

	if err := s.bookings.DeleteBooking(r.Context(), id, "admin"); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
