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

const vehicleColumns = `id, driver_name, plate_number, mileage_in, mileage_out, status,
	checkin_time, checkout_time, photo_path`

// VehicleRepository handles vehicles database operations
type VehicleRepository struct {
	db *sqlx.DB
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db *sqlx.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// CheckIn inserts a new IN entry. The plate must already be normalised.
func (r *VehicleRepository) CheckIn(ctx context.Context, in models.VehicleCheckIn, now time.Time) (*models.VehicleEntry, error) {
	entry := &models.VehicleEntry{
		DriverName:  in.DriverName,
		PlateNumber: in.PlateNumber,
		MileageIn:   in.MileageIn,
		Status:      models.EntryStatusIn,
		CheckinTime: now,
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM vehicles WHERE plate_number = $1 AND status = 'IN'`,
			entry.PlateNumber,
		); err != nil {
			return fmt.Errorf("failed to check plate status: %w", err)
		}
		if count > 0 {
			return ErrAlreadyCheckedIn
		}

		query := `
			INSERT INTO vehicles (driver_name, plate_number, mileage_in, status, checkin_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		if err := tx.QueryRowxContext(ctx, query,
			entry.DriverName, entry.PlateNumber, entry.MileageIn, entry.Status, entry.CheckinTime,
		).Scan(&entry.ID); err != nil {
			if isUniqueViolation(err) {
				return ErrPlateExists
			}
			return fmt.Errorf("failed to check in vehicle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// CheckOutByPlate checks out the newest IN entry for the plate. mileageOut may be nil.
func (r *VehicleRepository) CheckOutByPlate(ctx context.Context, plate string, mileageOut *int64, now time.Time) (int64, error) {
	var id int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			SELECT id FROM vehicles
			WHERE plate_number = $1 AND status = 'IN'
			ORDER BY checkin_time DESC, id DESC
			LIMIT 1
			FOR UPDATE
		`
		if err := tx.GetContext(ctx, &id, query, plate); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find vehicle for checkout: %w", err)
		}
		return checkOutVehicle(ctx, tx, id, mileageOut, now)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CheckOutByID checks out the entry with the given id if it is currently IN
func (r *VehicleRepository) CheckOutByID(ctx context.Context, id int64, mileageOut *int64, now time.Time) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return checkOutVehicle(ctx, tx, id, mileageOut, now)
	})
}

func checkOutVehicle(ctx context.Context, tx *sqlx.Tx, id int64, mileageOut *int64, now time.Time) error {
	// COALESCE keeps an unset mileage_out NULL when none was supplied
	query := `
		UPDATE vehicles
		SET checkout_time = $1, status = 'OUT', mileage_out = COALESCE($2, mileage_out)
		WHERE id = $3 AND status = 'IN'
	`
	result, err := tx.ExecContext(ctx, query, now, mileageOut, id)
	if err != nil {
		return fmt.Errorf("failed to check out vehicle: %w", err)
	}
	return requireOneRow(result)
}

// GetByID retrieves a vehicle entry by id
func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*models.VehicleEntry, error) {
	var entry models.VehicleEntry
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &entry, nil
}

// List returns every vehicle entry, newest first
func (r *VehicleRepository) List(ctx context.Context) ([]models.VehicleEntry, error) {
	entries := []models.VehicleEntry{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY checkin_time DESC, id DESC`

	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return entries, nil
}

// SearchByPlate returns entries whose plate contains term case-insensitively, newest first
func (r *VehicleRepository) SearchByPlate(ctx context.Context, term string) ([]models.VehicleEntry, error) {
	entries := []models.VehicleEntry{}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles
		WHERE plate_number ILIKE $1
		ORDER BY checkin_time DESC, id DESC`

	if err := r.db.SelectContext(ctx, &entries, query, likePattern(term)); err != nil {
		return nil, fmt.Errorf("failed to search vehicles: %w", err)
	}
	return entries, nil
}

// SetPhotoPath attaches a stored photo to a vehicle entry
func (r *VehicleRepository) SetPhotoPath(ctx context.Context, id int64, path string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE vehicles SET photo_path = $1 WHERE id = $2`, path, id)
	if err != nil {
		return fmt.Errorf("failed to set vehicle photo: %w", err)
	}
	return requireOneRow(result)
}
