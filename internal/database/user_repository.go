package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/models"
)

const userColumns = `id, username, password_hash, role, created_at, password_changed_at`

// UserRepository handles guard and admin account operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// GetByUsername retrieves an account by its lowercase username
func (r *UserRepository) GetByUsername(username string) (*models.Credential, error) {
	var user models.Credential
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1
	`

	err := r.db.Get(&user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

// GetByID retrieves an account by id
func (r *UserRepository) GetByID(id int64) (*models.Credential, error) {
	var user models.Credential
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// List returns all accounts ordered by role then username
func (r *UserRepository) List() ([]models.Credential, error) {
	users := []models.Credential{}
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY role, username
	`

	if err := r.db.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Create inserts a new account
func (r *UserRepository) Create(username, passwordHash, role string) (*models.Credential, error) {
	user := &models.Credential{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}

	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, password_changed_at
	`

	err := r.db.QueryRow(query, username, passwordHash, role).Scan(&user.ID, &user.CreatedAt, &user.PasswordChangedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// EnsureExists inserts the account unless the username is already taken.
// It reports whether a row was created.
func (r *UserRepository) EnsureExists(username, passwordHash, role string) (bool, error) {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`

	result, err := r.db.Exec(query, username, passwordHash, role)
	if err != nil {
		return false, fmt.Errorf("failed to seed user %s: %w", username, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// UpdatePassword replaces the password digest of an account. Tokens issued
// before changedAt stop being accepted.
func (r *UserRepository) UpdatePassword(username, passwordHash string, changedAt time.Time) error {
	query := `UPDATE users SET password_hash = $1, password_changed_at = $2 WHERE username = $3`

	result, err := r.db.Exec(query, passwordHash, changedAt, username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireOneRow(result)
}

// Delete removes an account by id
func (r *UserRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireOneRow(result)
}
