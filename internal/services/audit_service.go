package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/utils"
)

// Audit actions
const (
	AuditActionLoginSuccess      = "login_success"
	AuditActionLoginFailed       = "login_failed"
	AuditActionRateLimited       = "rate_limit_violation"
	AuditActionCheckIn           = "checkin"
	AuditActionCheckOut          = "checkout"
	AuditActionQRScan            = "qr_scan"
	AuditActionPreRegister       = "pre_register"
	AuditActionConfirmPreRegistr = "confirm_pre_registration"
	AuditActionPhotoUpload       = "photo_upload"
	AuditActionUserCreated       = "user_created"
	AuditActionUserDeleted       = "user_deleted"
	AuditActionPasswordChanged   = "admin_password_changed"
)

// AuditService records gate and account events in audit_logs
type AuditService struct {
	db      database.DB
	enabled bool
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB, enabled bool) *AuditService {
	return &AuditService{
		db:      db,
		enabled: enabled,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	Username   string // empty before authentication
	Action     string
	EntityType string // visitor, vehicle, user, auth
	EntityID   *int64
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(username, ipAddress, userAgent string, success bool, reason string) error {
	action := AuditActionLoginFailed
	details := map[string]interface{}{"success": success}
	if success {
		action = AuditActionLoginSuccess
	} else if reason != "" {
		details["reason"] = reason
	}

	return s.Log(AuditEvent{
		Username:   username,
		Action:     action,
		EntityType: "auth",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogRateLimitViolation logs a throttled login
func (s *AuditService) LogRateLimitViolation(username, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return s.Log(AuditEvent{
		Username:   username,
		Action:     AuditActionRateLimited,
		EntityType: "auth",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"limit_type":  limitType,
			"retry_after": retryAfter,
		},
	})
}

// Log writes an event. Parsed device info is added to the details.
func (s *AuditService) Log(event AuditEvent) error {
	if !s.enabled {
		return nil
	}

	details := make(map[string]interface{}, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	details["device_info"] = utils.ParseUserAgent(event.UserAgent)

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	var username *string
	if event.Username != "" {
		username = &event.Username
	}

	query := `
		INSERT INTO audit_logs (username, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = s.db.Exec(
		query,
		username,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		models.JSONDocument(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents returns the newest audit events
func (s *AuditService) GetRecentEvents(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, username, action, entity_type, entity_id, ip_address, user_agent, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	events := []models.AuditLog{}
	if err := s.db.Select(&events, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	result, err := s.db.Exec(`DELETE FROM audit_logs WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
