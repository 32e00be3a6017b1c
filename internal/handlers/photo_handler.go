package handlers

import (
	"net/http"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PhotoHandler handles entry photo uploads
type PhotoHandler struct {
	ledger *services.LedgerService
	audit  auditRecorder
	logger *logrus.Logger
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(ledger *services.LedgerService, audit *services.AuditService, logger *logrus.Logger) *PhotoHandler {
	return &PhotoHandler{
		ledger: ledger,
		audit:  auditRecorder{service: audit, logger: logger},
		logger: logger,
	}
}

// Upload handles POST /api/photos
// @Summary Attach a base64 photo to a visitor or vehicle entry
// @Tags Photos
// @Accept json
// @Produce json
// @Param request body models.PhotoUploadRequest true "Photo"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/photos [post]
func (h *PhotoHandler) Upload(c *gin.Context) {
	var req models.PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	kind, _ := models.ParseEntryKind(req.Type)
	url, err := h.ledger.AttachPhoto(c.Request.Context(), kind, req.ID, req.Photo)
	if err != nil {
		respondError(c, h.logger, err, "Entry not found")
		return
	}

	h.audit.record(c, services.AuditActionPhotoUpload, string(kind), idRef(req.ID), nil)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Photo uploaded successfully",
		"photo_url": url,
	})
}
