package handlers

import (
	"github.com/bdlgate/gatepass-backend/internal/middleware"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/bdlgate/gatepass-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// auditRecorder writes audit events for the current request without failing it
type auditRecorder struct {
	service *services.AuditService
	logger  *logrus.Logger
}

func (a auditRecorder) record(c *gin.Context, action, entityType string, entityID *int64, details map[string]interface{}) {
	if a.service == nil {
		return
	}

	event := services.AuditEvent{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  utils.GetRealIP(c),
		UserAgent:  utils.GetUserAgent(c),
		Details:    details,
	}
	if user, ok := middleware.GetUserContext(c); ok {
		event.Username = user.Username
	}
	if requestID := middleware.GetRequestID(c); requestID != "" {
		if event.Details == nil {
			event.Details = map[string]interface{}{}
		}
		event.Details["request_id"] = requestID
	}

	if err := a.service.Log(event); err != nil {
		a.logger.WithError(err).WithField("action", action).Warn("Failed to write audit event")
	}
}

func (a auditRecorder) recordLogin(c *gin.Context, username string, success bool, reason string) {
	if a.service == nil {
		return
	}
	if err := a.service.LogLogin(username, utils.GetRealIP(c), utils.GetUserAgent(c), success, reason); err != nil {
		a.logger.WithError(err).Warn("Failed to write login audit event")
	}
}

func idRef(id int64) *int64 {
	return &id
}
