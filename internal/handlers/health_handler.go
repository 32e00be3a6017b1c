package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthHandler reports service and database liveness
type HealthHandler struct {
	db     database.DB
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.DB, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Check handles GET /health and GET /api/health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, dbStatus, code := "healthy", "connected", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check database ping failed")
		status, dbStatus, code = "unhealthy", "disconnected", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
