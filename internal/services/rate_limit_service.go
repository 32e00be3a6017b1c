package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/database"
)

// Identifier types stored in login_attempts
const (
	LimitByUsername = "username"
	LimitByIP       = "ip"
)

// RateLimitService throttles failed logins per username and per client IP
type RateLimitService struct {
	db  database.DB
	cfg config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:  db,
		cfg: cfg,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "username" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginRateLimit reports a *RateLimitError when either identifier has
// too many recent failures
func (s *RateLimitService) CheckLoginRateLimit(username, ip string) error {
	if username != "" && s.cfg.LoginMaxAttempts > 0 {
		count, last, err := s.getFailureCount(username, LimitByUsername)
		if err != nil {
			return fmt.Errorf("failed to check username rate limit: %w", err)
		}
		if count >= s.cfg.LoginMaxAttempts {
			retryAfter := last.Add(s.cfg.LoginWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed login attempts for this account. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       LimitByUsername,
			}
		}
	}

	if ip != "" && s.cfg.LoginMaxIPAttempts > 0 {
		count, last, err := s.getFailureCount(ip, LimitByIP)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}
		if count >= s.cfg.LoginMaxIPAttempts {
			retryAfter := last.Add(s.cfg.LoginWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many failed login attempts from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       LimitByIP,
			}
		}
	}

	return nil
}

func (s *RateLimitService) getFailureCount(identifier, identifierType string) (int, time.Time, error) {
	windowStart := time.Now().Add(-s.cfg.LoginWindow)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_attempts
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var last time.Time
	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, err
	}

	return count, last, nil
}

// RecordFailedLogin stores one failure for the username and for the IP
func (s *RateLimitService) RecordFailedLogin(username, ip string) error {
	if username != "" {
		if err := s.record(username, LimitByUsername); err != nil {
			return fmt.Errorf("failed to record username attempt: %w", err)
		}
	}
	if ip != "" {
		if err := s.record(ip, LimitByIP); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}
	return nil
}

func (s *RateLimitService) record(identifier, identifierType string) error {
	query := `
		INSERT INTO login_attempts (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`
	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// ResetUsername forgets the failures of an account after a successful login
func (s *RateLimitService) ResetUsername(username string) error {
	_, err := s.db.Exec(
		`DELETE FROM login_attempts WHERE identifier = $1 AND identifier_type = $2`,
		username, LimitByUsername,
	)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// CleanupExpiredAttempts removes attempts older than the window
func (s *RateLimitService) CleanupExpiredAttempts() (int64, error) {
	cutoffTime := time.Now().Add(-s.cfg.LoginWindow)

	result, err := s.db.Exec(`DELETE FROM login_attempts WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup login attempts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
