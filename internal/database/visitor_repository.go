package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

const visitorColumns = `id, name, destination, purpose, host_employee, status,
	checkin_time, checkout_time, photo_path`

// VisitorRepository handles visitors database operations
type VisitorRepository struct {
	db *sqlx.DB
}

// NewVisitorRepository creates a new VisitorRepository
func NewVisitorRepository(db *sqlx.DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

// CheckIn inserts a new IN entry and returns it
func (r *VisitorRepository) CheckIn(ctx context.Context, in models.VisitorCheckIn, now time.Time) (*models.VisitorEntry, error) {
	entry := &models.VisitorEntry{
		Name:        in.Name,
		Destination: in.Destination,
		Purpose:     in.Purpose,
		Status:      models.EntryStatusIn,
		CheckinTime: now,
	}

	query := `
		INSERT INTO visitors (name, destination, purpose, status, checkin_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.Name, entry.Destination, entry.Purpose, entry.Status, entry.CheckinTime,
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check in visitor: %w", err)
	}

	return entry, nil
}

// CheckOutByName checks out the newest IN entry whose name matches case-insensitively
func (r *VisitorRepository) CheckOutByName(ctx context.Context, name string, now time.Time) (int64, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			SELECT id FROM visitors
			WHERE LOWER(name) = LOWER($1) AND status = 'IN'
			ORDER BY checkin_time DESC, id DESC
			LIMIT 1
			FOR UPDATE
		`
		if err := tx.GetContext(ctx, &id, query, name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find visitor for checkout: %w", err)
		}
		return checkOutVisitor(ctx, tx, id, now)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CheckOutByID checks out the entry with the given id if it is currently IN
func (r *VisitorRepository) CheckOutByID(ctx context.Context, id int64, now time.Time) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return checkOutVisitor(ctx, tx, id, now)
	})
}

func checkOutVisitor(ctx context.Context, tx *sqlx.Tx, id int64, now time.Time) error {
	query := `
		UPDATE visitors
		SET checkout_time = $1, status = 'OUT'
		WHERE id = $2 AND status = 'IN'
	`
	result, err := tx.ExecContext(ctx, query, now, id)
	if err != nil {
		return fmt.Errorf("failed to check out visitor: %w", err)
	}
	return requireOneRow(result)
}

// PreRegister inserts a PRE-REGISTERED entry unless one already exists for the
// same name and destination within [dayStart, dayEnd)
func (r *VisitorRepository) PreRegister(ctx context.Context, p models.PreRegistration, now, dayStart, dayEnd time.Time) (*models.VisitorEntry, error) {
	entry := &models.VisitorEntry{
		Name:         p.Name,
		Destination:  p.Destination,
		Purpose:      p.Purpose,
		HostEmployee: &p.EmployeeName,
		Status:       models.EntryStatusPreRegistered,
		CheckinTime:  now,
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Serialise concurrent pre-registrations of the same visitor
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, p.Name+"|"+p.Destination); err != nil {
			return fmt.Errorf("failed to lock pre-registration: %w", err)
		}

		var count int
		countQuery := `
			SELECT COUNT(*) FROM visitors
			WHERE name = $1 AND destination = $2 AND status = 'PRE-REGISTERED'
			  AND checkin_time >= $3 AND checkin_time < $4
		`
		if err := tx.GetContext(ctx, &count, countQuery, p.Name, p.Destination, dayStart, dayEnd); err != nil {
			return fmt.Errorf("failed to check existing pre-registration: %w", err)
		}
		if count > 0 {
			return ErrAlreadyPreRegistered
		}

		insertQuery := `
			INSERT INTO visitors (name, destination, purpose, host_employee, status, checkin_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		if err := tx.QueryRowxContext(ctx, insertQuery,
			entry.Name, entry.Destination, entry.Purpose, entry.HostEmployee, entry.Status, entry.CheckinTime,
		).Scan(&entry.ID); err != nil {
			return fmt.Errorf("failed to pre-register visitor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ConfirmPreRegistration flips a PRE-REGISTERED entry to IN and stamps its check-in time
func (r *VisitorRepository) ConfirmPreRegistration(ctx context.Context, id int64, now time.Time) (*models.VisitorEntry, error) {
	var entry models.VisitorEntry
	query := `
		UPDATE visitors
		SET checkin_time = $1, status = 'IN'
		WHERE id = $2 AND status = 'PRE-REGISTERED'
		RETURNING ` + visitorColumns

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &entry, query, now, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to confirm pre-registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// GetByID retrieves a visitor entry by id
func (r *VisitorRepository) GetByID(ctx context.Context, id int64) (*models.VisitorEntry, error) {
	var entry models.VisitorEntry
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`

	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get visitor: %w", err)
	}
	return &entry, nil
}

// List returns every visitor entry, newest first
func (r *VisitorRepository) List(ctx context.Context) ([]models.VisitorEntry, error) {
	entries := []models.VisitorEntry{}
	query := `SELECT ` + visitorColumns + ` FROM visitors ORDER BY checkin_time DESC, id DESC`

	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	return entries, nil
}

// SearchByName returns entries whose name contains term case-insensitively, newest first
func (r *VisitorRepository) SearchByName(ctx context.Context, term string) ([]models.VisitorEntry, error) {
	entries := []models.VisitorEntry{}
	query := `SELECT ` + visitorColumns + ` FROM visitors
		WHERE name ILIKE $1
		ORDER BY checkin_time DESC, id DESC`

	if err := r.db.SelectContext(ctx, &entries, query, likePattern(term)); err != nil {
		return nil, fmt.Errorf("failed to search visitors: %w", err)
	}
	return entries, nil
}

// SetPhotoPath attaches a stored photo to a visitor entry
func (r *VisitorRepository) SetPhotoPath(ctx context.Context, id int64, path string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE visitors SET photo_path = $1 WHERE id = $2`, path, id)
	if err != nil {
		return fmt.Errorf("failed to set visitor photo: %w", err)
	}
	return requireOneRow(result)
}
