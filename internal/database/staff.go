package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomdesk/internal/models"
)

const staffColumns = `id, username, full_name, email, role, status, bio, office_hours,
	created_at, updated_at`

func scanStaff(scanner interface{ Scan(...interface{}) error }) (models.StaffMember, error) {
	var s models.StaffMember
	var fullName, email, bio sql.NullString
	err := scanner.Scan(&s.ID, &s.Username, &fullName, &email, &s.Role, &s.Status,
		&bio, &s.OfficeHours, &s.CreatedAt, &s.UpdatedAt)
	s.FullName = fullName.String
	s.Email = email.String
	s.Bio = bio.String
	return s, err
}

// GetStaffByUsername returns a staff member with their office hours blob.
func (db *DB) GetStaffByUsername(ctx context.Context, username string) (*models.StaffMember, error) {
	s, err := scanStaff(db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE username = ?`, username))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query staff member: %w", err)
	}
	return &s, nil
}

// ListStaff returns staff members ordered by name. With activeOnly set,
// pending accounts are excluded.
func (db *DB) ListStaff(ctx context.Context, activeOnly bool) ([]models.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members`
	if activeOnly {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY full_name, username`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var staff []models.StaffMember
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		staff = append(staff, s)
	}

	return staff, rows.Err()
}

// CreateStaff inserts a new staff member. New accounts start pending until
// an admin approves them.
func (db *DB) CreateStaff(ctx context.Context, s *models.StaffMember) (int64, error) {
	hours := s.OfficeHours
	if hours == "" {
		hours = "{}"
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO staff_members (username, full_name, email, role, status, bio, office_hours)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Username, s.FullName, s.Email, s.Role, s.Status, s.Bio, hours)
	if err != nil {
		return 0, fmt.Errorf("insert staff member: %w", err)
	}
	return res.LastInsertId()
}

// UpdateOfficeHours replaces a staff member's office hours blob.
func (db *DB) UpdateOfficeHours(ctx context.Context, username, blob string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE staff_members SET office_hours = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE username = ?`, blob, username)
	if err != nil {
		return fmt.Errorf("update office hours: %w", err)
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

// SetAccountStatus approves or suspends a staff account.
func (db *DB) SetAccountStatus(ctx context.Context, username, status string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE staff_members SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE username = ?`, status, username)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
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
