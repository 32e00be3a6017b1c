package handlers

import (
	"net/http"
	"strings"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

// VisitorHandler handles the visitor ledger routes
type VisitorHandler struct {
	ledger *services.LedgerService
	audit  auditRecorder
	logger *logrus.Logger
}

// NewVisitorHandler creates a new visitor handler
func NewVisitorHandler(ledger *services.LedgerService, audit *services.AuditService, logger *logrus.Logger) *VisitorHandler {
	return &VisitorHandler{
		ledger: ledger,
		audit:  auditRecorder{service: audit, logger: logger},
		logger: logger,
	}
}

// List handles GET /api/visitors
// @Summary List visitor entries newest first
// @Tags Visitors
// @Produce json
// @Success 200 {array} models.VisitorEntry
// @Router /api/visitors [get]
func (h *VisitorHandler) List(c *gin.Context) {
	entries, err := h.ledger.ListVisitors(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if entries == nil {
		entries = []models.VisitorEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Post handles POST /api/visitors for both checkin and checkout actions
// @Summary Check a visitor in or out
// @Tags Visitors
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/visitors [post]
func (h *VisitorHandler) Post(c *gin.Context) {
	var action models.ActionRequest
	if err := c.ShouldBindBodyWith(&action, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}

	if action.Action == "checkout" {
		h.checkOut(c)
		return
	}
	h.checkIn(c)
}

func (h *VisitorHandler) checkIn(c *gin.Context) {
	var req models.VisitorCheckInRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.ledger.CheckInVisitor(c.Request.Context(), req.Name, req.Destination, req.Purpose)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	h.audit.record(c, services.AuditActionCheckIn, string(models.EntryKindVisitor), idRef(result.EntryID), map[string]interface{}{
		"name": result.Subject,
	})

	resp := gin.H{
		"success":    true,
		"message":    "Visitor checked in successfully",
		"visitor_id": result.EntryID,
	}
	if result.QRCode != "" {
		resp["qr_code"] = result.QRCode
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VisitorHandler) checkOut(c *gin.Context) {
	var req models.CheckOutRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}

	id, err := h.ledger.CheckOutVisitor(c.Request.Context(), req.Identifier)
	if err != nil {
		respondError(c, h.logger, err, "Visitor not found or already checked out")
		return
	}

	h.audit.record(c, services.AuditActionCheckOut, string(models.EntryKindVisitor), idRef(id), nil)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Visitor checked out successfully",
		"visitor_id": id,
	})
}

// PreRegister handles POST /api/pre-register
// @Summary Pre-register an expected visitor
// @Tags Visitors
// @Accept json
// @Produce json
// @Param request body models.PreRegisterRequest true "Expected visitor"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} ErrorResponse
// @Router /api/pre-register [post]
func (h *VisitorHandler) PreRegister(c *gin.Context) {
	var req models.PreRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.ledger.PreRegister(c.Request.Context(), req.Name, req.Destination, req.Purpose, req.EmployeeName)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	h.audit.record(c, services.AuditActionPreRegister, string(models.EntryKindVisitor), idRef(result.EntryID), map[string]interface{}{
		"name":     result.Subject,
		"employee": strings.TrimSpace(req.EmployeeName),
	})

	resp := gin.H{
		"success":    true,
		"message":    "Visitor pre-registered successfully",
		"visitor_id": result.EntryID,
	}
	if result.QRCode != "" {
		resp["qr_code"] = result.QRCode
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPreRegistration handles POST /api/confirm-pre-registration
// @Summary Check in a pre-registered visitor
// @Tags Visitors
// @Accept json
// @Produce json
// @Param request body models.ConfirmPreRegistrationRequest true "Scanned QR text or visitor id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /api/confirm-pre-registration [post]
func (h *VisitorHandler) ConfirmPreRegistration(c *gin.Context) {
	var req models.ConfirmPreRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var (
		entry *models.VisitorEntry
		qr    string
		err   error
	)
	switch {
	case req.QRData != "":
		entry, qr, err = h.ledger.ConfirmPreRegistrationToken(c.Request.Context(), req.QRData)
	case req.VisitorID != 0:
		entry, qr, err = h.ledger.ConfirmPreRegistration(c.Request.Context(), req.VisitorID)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "qr_data or visitor_id is required",
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	if err != nil {
		respondError(c, h.logger, err, "Pre-registered visitor not found")
		return
	}

	h.audit.record(c, services.AuditActionConfirmPreRegistr, string(models.EntryKindVisitor), idRef(entry.ID), nil)

	resp := gin.H{
		"success":    true,
		"message":    "Pre-registration confirmed",
		"visitor_id": entry.ID,
		"visitor":    entry,
	}
	if qr != "" {
		resp["qr_code"] = qr
	}
	c.JSON(http.StatusOK, resp)
}
