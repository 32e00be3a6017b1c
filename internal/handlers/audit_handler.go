package handlers

import (
	"net/http"
	"strconv"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuditHandler exposes the audit trail to admins
type AuditHandler struct {
	service *services.AuditService
	logger  *logrus.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(service *services.AuditService, logger *logrus.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /api/audit-logs?limit=
func (h *AuditHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be a number",
				Code:    "VALIDATION_ERROR",
			})
			return
		}
		limit = n
	}

	events, err := h.service.GetRecentEvents(limit)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if events == nil {
		events = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, events)
}
