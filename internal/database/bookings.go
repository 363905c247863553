package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roomdesk/internal/models"
)

const bookingColumns = `id, reference, room_id, room_name, customer_name, customer_email,
	customer_phone, organization, purpose, need_help, start_time, end_time, status,
	created_at, updated_at`

func scanBooking(scanner interface{ Scan(...interface{}) error }) (models.Booking, error) {
	var b models.Booking
	var phone, organization, purpose sql.NullString
	err := scanner.Scan(&b.ID, &b.Reference, &b.RoomID, &b.RoomName, &b.CustomerName,
		&b.CustomerEmail, &phone, &organization, &purpose, &b.NeedHelp,
		&b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	b.CustomerPhone = phone.String
	b.Organization = organization.String
	b.Purpose = purpose.String
	return b, err
}

// GetBookingsForRoomDate returns a room's bookings whose start falls on the
// given calendar day, in the day's location.
func (db *DB) GetBookingsForRoomDate(ctx context.Context, roomID int64, date time.Time) ([]models.Booking, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE room_id = ? AND start_time >= ? AND start_time < ?
		 ORDER BY start_time`,
		roomID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// GetBooking returns a single booking by ID.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return &b, nil
}

// GetBookingsBetween returns all bookings starting inside [from, to),
// newest first. Used by exports and the sheets mirror.
func (db *DB) GetBookingsBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE start_time >= ? AND start_time < ?
		 ORDER BY start_time DESC`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// CreateBooking inserts a booking inside a transaction, re-checking for an
// overlapping booking first so a concurrent insert between the service's
// availability check and this call cannot double-book the room. Returns
// ErrBookingConflict when the slot was taken in the meantime.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var conflicts int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE room_id = ? AND start_time < ? AND end_time > ?`,
		booking.RoomID, booking.EndTime, booking.StartTime).Scan(&conflicts)
	if err != nil {
		return 0, fmt.Errorf("check conflicts: %w", err)
	}
	if conflicts > 0 {
		return 0, ErrBookingConflict
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (reference, room_id, room_name, customer_name, customer_email,
			customer_phone, organization, purpose, need_help, start_time, end_time, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.Reference, booking.RoomID, booking.RoomName, booking.CustomerName,
		booking.CustomerEmail, booking.CustomerPhone, booking.Organization, booking.Purpose,
		booking.NeedHelp, booking.StartTime, booking.EndTime, booking.Status)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return id, nil
}

// UpdateBookingStatus moves a booking to a new status.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBooking removes a booking, freeing its slots.
func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOldBookings removes bookings that ended more than retention ago and
// returns how many were deleted.
func (db *DB) DeleteOldBookings(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE end_time < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old bookings: %w", err)
	}
	return res.RowsAffected()
}
