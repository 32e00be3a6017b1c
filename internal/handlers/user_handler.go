package handlers

import (
	"net/http"
	"strconv"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler handles admin account management
type UserHandler struct {
	credentials *services.CredentialService
	audit       auditRecorder
	logger      *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(credentials *services.CredentialService, audit *services.AuditService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		credentials: credentials,
		audit:       auditRecorder{service: audit, logger: logger},
		logger:      logger,
	}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.credentials.ListUsers()
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if users == nil {
		users = []models.Credential{}
	}
	c.JSON(http.StatusOK, users)
}

// Create handles POST /api/users
// @Summary Create a guard or admin account
// @Tags Users
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "Account"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} ErrorResponse
// @Router /api/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.credentials.CreateUser(req.Username, req.Password, req.Role)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}

	h.audit.record(c, services.AuditActionUserCreated, "user", idRef(user.ID), map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User created successfully",
		"user":    user,
	})
}

// Delete handles DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid user id",
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	user, err := h.credentials.DeleteUser(id)
	if err != nil {
		respondError(c, h.logger, err, "User not found")
		return
	}

	h.audit.record(c, services.AuditActionUserDeleted, "user", idRef(user.ID), map[string]interface{}{
		"username": user.Username,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}

// UpdateAdminPassword handles POST /api/admin/password
func (h *UserHandler) UpdateAdminPassword(c *gin.Context) {
	var req models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.credentials.UpdateAdminPassword(req.Password); err != nil {
		respondError(c, h.logger, err, "Admin account not found")
		return
	}

	h.audit.record(c, services.AuditActionPasswordChanged, "user", nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin password updated successfully",
	})
}
