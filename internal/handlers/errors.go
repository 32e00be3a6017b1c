package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/bdlgate/gatepass-backend/pkg/qrtoken"
	gatevalidator "github.com/bdlgate/gatepass-backend/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	kind    string
	message string
	code    string
}

// Sentinel errors with a fixed client-facing meaning
var errorMappings = []errorMapping{
	{database.ErrAlreadyCheckedIn, http.StatusConflict, "conflict", "Vehicle already checked in", "ALREADY_CHECKED_IN"},
	{database.ErrPlateExists, http.StatusConflict, "duplicate", "Vehicle with this plate number already exists", "DUPLICATE_PLATE"},
	{database.ErrAlreadyPreRegistered, http.StatusConflict, "conflict", "Visitor already pre-registered for today", "ALREADY_PRE_REGISTERED"},
	{database.ErrUsernameTaken, http.StatusConflict, "conflict", "Username already exists", "USERNAME_TAKEN"},
	{services.ErrProtectedAccount, http.StatusBadRequest, "validation_error", "Cannot delete admin user", "PROTECTED_ACCOUNT"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized", "Invalid username or password", "INVALID_CREDENTIALS"},
}

// respondError maps service and repository errors onto HTTP responses.
// notFound is the message used for database.ErrNotFound.
func respondError(c *gin.Context, logger *logrus.Logger, err error, notFound string) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: ve.Message,
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	var pe *qrtoken.ParseError
	if errors.As(err, &pe) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_qr",
			Message: "Invalid QR code: " + pe.Reason,
			Code:    "INVALID_QR",
		})
		return
	}

	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: notFound,
			Code:    "NOT_FOUND",
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: m.kind, Message: m.message, Code: m.code})
			return
		}
	}

	logger.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Internal server error",
	})
}

// respondBindError reports a request body that failed decoding or field validation
func respondBindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "payload_too_large",
			Message: fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit),
			Code:    "PAYLOAD_TOO_LARGE",
		})
		return
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: describeBindError(err),
		Code:    "VALIDATION_ERROR",
	})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case gatevalidator.QRSafeTag:
			msgs = append(msgs, fmt.Sprintf("%s must not contain ':'", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
