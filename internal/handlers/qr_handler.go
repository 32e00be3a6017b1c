package handlers

import (
	"net/http"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// QRHandler handles scanned gate passes
type QRHandler struct {
	ledger *services.LedgerService
	audit  auditRecorder
	logger *logrus.Logger
}

// NewQRHandler creates a new QR handler
func NewQRHandler(ledger *services.LedgerService, audit *services.AuditService, logger *logrus.Logger) *QRHandler {
	return &QRHandler{
		ledger: ledger,
		audit:  auditRecorder{service: audit, logger: logger},
		logger: logger,
	}
}

// Scan handles POST /api/qr/scan
// @Summary Decode a scanned pass and apply it
// @Description VISITOR and VEHICLE passes check the entry out, PREGISTERED passes check the visitor in
// @Tags QR
// @Accept json
// @Produce json
// @Param request body models.QRScanRequest true "Scanned QR text"
// @Success 200 {object} services.ScanResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/qr/scan [post]
func (h *QRHandler) Scan(c *gin.Context) {
	var req models.QRScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.ledger.ScanQR(c.Request.Context(), req.QRData)
	if err != nil {
		respondError(c, h.logger, err, "Entry not found or already processed")
		return
	}

	h.audit.record(c, services.AuditActionQRScan, string(result.Kind), idRef(result.EntryID), map[string]interface{}{
		"result": result.Action,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": scanMessage(result),
		"result":  result,
	})
}

func scanMessage(r *services.ScanResult) string {
	switch {
	case r.Action == services.ScanActionConfirmed:
		return "Pre-registered visitor checked in"
	case r.Kind == models.EntryKindVehicle:
		return "Vehicle checked out successfully"
	default:
		return "Visitor checked out successfully"
	}
}
