package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomdesk/internal/models"
)

const requestColumns = `id, staff_username, customer_name, customer_email, customer_phone,
	business_name, date, start_time, end_time, reason, status, created_at`

func scanRequest(scanner interface{ Scan(...interface{}) error }) (models.AppointmentRequest, error) {
	var r models.AppointmentRequest
	var phone, business, reason sql.NullString
	err := scanner.Scan(&r.ID, &r.StaffUsername, &r.CustomerName, &r.CustomerEmail, &phone,
		&business, &r.Date, &r.StartTime, &r.EndTime, &reason, &r.Status, &r.CreatedAt)
	r.CustomerPhone = phone.String
	r.BusinessName = business.String
	r.Reason = reason.String
	return r, err
}

// CreateAppointmentRequest inserts a pending appointment request.
func (db *DB) CreateAppointmentRequest(ctx context.Context, req *models.AppointmentRequest) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO appointment_requests (staff_username, customer_name, customer_email,
			customer_phone, business_name, date, start_time, end_time, reason, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.StaffUsername, req.CustomerName, req.CustomerEmail, req.CustomerPhone,
		req.BusinessName, req.Date, req.StartTime, req.EndTime, req.Reason, req.Status)
	if err != nil {
		return 0, fmt.Errorf("insert appointment request: %w", err)
	}
	return res.LastInsertId()
}

// GetAppointmentRequest returns a single request by ID.
func (db *DB) GetAppointmentRequest(ctx context.Context, id int64) (*models.AppointmentRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM appointment_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query appointment request: %w", err)
	}
	return &r, nil
}

// ListAppointmentRequests returns a staff member's requests, newest date
// first. An empty username lists everyone's.
func (db *DB) ListAppointmentRequests(ctx context.Context, staffUsername string) ([]models.AppointmentRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM appointment_requests`
	var args []interface{}
	if staffUsername != "" {
		query += ` WHERE staff_username = ?`
		args = append(args, staffUsername)
	}
	query += ` ORDER BY date DESC, start_time DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointment requests: %w", err)
	}
	defer rows.Close()

	var requests []models.AppointmentRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment request: %w", err)
		}
		requests = append(requests, r)
	}

	return requests, rows.Err()
}

// CountConfirmedForStaffSlot counts confirmed requests that overlap the
// given "HH:mm" window on a date. Windows are half-open, so a request
// ending exactly when another starts does not count.
func (db *DB) CountConfirmedForStaffSlot(ctx context.Context, staffUsername, date, start, end string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointment_requests
		 WHERE staff_username = ? AND date = ? AND status = 'confirmed'
		 AND start_time < ? AND end_time > ?`,
		staffUsername, date, end, start).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count confirmed requests: %w", err)
	}
	return count, nil
}

// DecideAppointmentRequest moves a pending request to confirmed or
// rejected. The status guard makes the decision take effect exactly once;
// a second decision returns ErrAlreadyDecided.
func (db *DB) DecideAppointmentRequest(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE appointment_requests SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`, status, id)
	if err != nil {
		return fmt.Errorf("decide appointment request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := db.GetAppointmentRequest(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyDecided
	}
	return nil
}
