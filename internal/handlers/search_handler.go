package handlers

import (
	"net/http"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SearchHandler handles ledger search
type SearchHandler struct {
	ledger *services.LedgerService
	logger *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(ledger *services.LedgerService, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		ledger: ledger,
		logger: logger,
	}
}

// Search handles GET /api/search/:entity?q=
// @Summary Search visitors by name or vehicles by plate
// @Tags Search
// @Produce json
// @Param entity path string true "visitors or vehicles"
// @Param q query string true "Substring to match, case-insensitive"
// @Success 200 {array} object
// @Failure 400 {object} ErrorResponse
// @Router /api/search/{entity} [get]
func (h *SearchHandler) Search(c *gin.Context) {
	kind, ok := models.ParseEntryKind(c.Param("entity"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "entity must be visitors or vehicles",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	q := c.Query("q")
	ctx := c.Request.Context()

	if kind == models.EntryKindVehicle {
		entries, err := h.ledger.SearchVehicles(ctx, q)
		if err != nil {
			respondError(c, h.logger, err, "")
			return
		}
		if entries == nil {
			entries = []models.VehicleEntry{}
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	entries, err := h.ledger.SearchVisitors(ctx, q)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if entries == nil {
		entries = []models.VisitorEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
