package handlers

import (
	"errors"
	"net/http"

	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/bdlgate/gatepass-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles guard and admin login
type AuthHandler struct {
	credentials *services.CredentialService
	rateLimit   *services.RateLimitService
	audit       auditRecorder
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler. rateLimit and audit may be nil.
func NewAuthHandler(
	credentials *services.CredentialService,
	rateLimit *services.RateLimitService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		rateLimit:   rateLimit,
		audit:       auditRecorder{service: audit, logger: logger},
		logger:      logger,
	}
}

// Login handles POST /api/login
// @Summary Log in a guard or admin
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} map[string]interface{}
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	username := services.NormalizeUsername(req.Username)
	clientIP := utils.GetRealIP(c)

	if h.rateLimit != nil {
		if err := h.rateLimit.CheckLoginRateLimit(username, clientIP); err != nil {
			var rateLimitErr *services.RateLimitError
			if errors.As(err, &rateLimitErr) {
				if h.audit.service != nil {
					if aerr := h.audit.service.LogRateLimitViolation(username, clientIP, utils.GetUserAgent(c), rateLimitErr.Type, rateLimitErr.RetryAfter); aerr != nil {
						h.logger.WithError(aerr).Warn("Failed to write rate limit audit event")
					}
				}
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":       "rate_limit_exceeded",
					"message":     rateLimitErr.Message,
					"retry_after": rateLimitErr.RetryAfter,
					"type":        rateLimitErr.Type,
				})
				return
			}
			h.logger.WithError(err).Error("Failed to check login rate limit")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "rate_limit_check_failed",
				Message: "Failed to check rate limit",
			})
			return
		}
	}

	resp, err := h.credentials.Login(username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.recordFailure(username, clientIP)
			h.audit.recordLogin(c, username, false, "invalid_credentials")
		}
		respondError(c, h.logger, err, "")
		return
	}

	if h.rateLimit != nil {
		if err := h.rateLimit.ResetUsername(username); err != nil {
			h.logger.WithError(err).WithField("username", username).Warn("Failed to reset login attempts")
		}
	}
	h.audit.recordLogin(c, username, true, "")

	h.logger.WithFields(logrus.Fields{
		"username": resp.Username,
		"role":     resp.Role,
	}).Info("User logged in")

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) recordFailure(username, clientIP string) {
	if h.rateLimit == nil {
		return
	}
	if err := h.rateLimit.RecordFailedLogin(username, clientIP); err != nil {
		h.logger.WithError(err).Warn("Failed to record failed login")
	}
}
