package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomdesk/internal/models"
)

const roomColumns = `id, name, description, capacity, image_url, open_time, close_time,
	is_active, created_at, updated_at`

func scanRoom(scanner interface{ Scan(...interface{}) error }) (models.Room, error) {
	var r models.Room
	var description, imageURL sql.NullString
	err := scanner.Scan(&r.ID, &r.Name, &description, &r.Capacity, &imageURL,
		&r.OpenTime, &r.CloseTime, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	r.Description = description.String
	r.ImageURL = imageURL.String
	return r, err
}

// GetRooms returns rooms ordered by name. With activeOnly set, deactivated
// rooms are excluded.
func (db *DB) GetRooms(ctx context.Context, activeOnly bool) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

// GetRoom returns a single room by ID.
func (db *DB) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	r, err := scanRoom(db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &r, nil
}

// CreateRoom inserts a new room and returns its ID.
func (db *DB) CreateRoom(ctx context.Context, room *models.Room) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO rooms (name, description, capacity, image_url, open_time, close_time, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.Name, room.Description, room.Capacity, room.ImageURL,
		room.OpenTime, room.CloseTime, room.IsActive)
	if err != nil {
		return 0, fmt.Errorf("insert room: %w", err)
	}
	return res.LastInsertId()
}

// UpdateRoom updates a room's details and opening window.
func (db *DB) UpdateRoom(ctx context.Context, room *models.Room) error {
	res, err := db.ExecContext(ctx,
		`UPDATE rooms SET name = ?, description = ?, capacity = ?, image_url = ?,
			open_time = ?, close_time = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		room.Name, room.Description, room.Capacity, room.ImageURL,
		room.OpenTime, room.CloseTime, room.IsActive, room.ID)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
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

// DeactivateRoom hides a room from new bookings. Existing bookings keep
// the denormalized room name and stay intact.
func (db *DB) DeactivateRoom(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE rooms SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate room: %w", err)
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
