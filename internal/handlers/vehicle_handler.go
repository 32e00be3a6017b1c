package handlers

import (
	"net/http"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

// VehicleHandler handles the vehicle ledger routes
type VehicleHandler struct {
	ledger *services.LedgerService
	audit  auditRecorder
	logger *logrus.Logger
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(ledger *services.LedgerService, audit *services.AuditService, logger *logrus.Logger) *VehicleHandler {
	return &VehicleHandler{
		ledger: ledger,
		audit:  auditRecorder{service: audit, logger: logger},
		logger: logger,
	}
}

// List handles GET /api/vehicles
// @Summary List vehicle entries newest first
// @Tags Vehicles
// @Produce json
// @Success 200 {array} models.VehicleEntry
// @Router /api/vehicles [get]
func (h *VehicleHandler) List(c *gin.Context) {
	entries, err := h.ledger.ListVehicles(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if entries == nil {
		entries = []models.VehicleEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// Post handles POST /api/vehicles for both checkin and checkout actions
// @Summary Check a vehicle in or out
// @Tags Vehicles
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/vehicles [post]
func (h *VehicleHandler) Post(c *gin.Context) {
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

func (h *VehicleHandler) checkIn(c *gin.Context) {
	var req models.VehicleCheckInRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.ledger.CheckInVehicle(c.Request.Context(), req.Driver, req.Plate, req.MileageIn.String())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	h.audit.record(c, services.AuditActionCheckIn, string(models.EntryKindVehicle), idRef(result.EntryID), map[string]interface{}{
		"plate": result.Subject,
	})

	resp := gin.H{
		"success":    true,
		"message":    "Vehicle checked in successfully",
		"vehicle_id": result.EntryID,
	}
	if result.QRCode != "" {
		resp["qr_code"] = result.QRCode
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VehicleHandler) checkOut(c *gin.Context) {
	var req models.VehicleCheckOutRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}

	id, err := h.ledger.CheckOutVehicle(c.Request.Context(), req.Identifier, req.MileageOut.String())
	if err != nil {
		respondError(c, h.logger, err, "Vehicle not found or already checked out")
		return
	}

	h.audit.record(c, services.AuditActionCheckOut, string(models.EntryKindVehicle), idRef(id), nil)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Vehicle checked out successfully",
		"vehicle_id": id,
	})
}
