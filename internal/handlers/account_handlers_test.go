package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("gate1"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		s.users.ExpectQuery(`FROM users\s+WHERE username = \$1`).
			WithArgs("guard1").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(2), "guard1", string(hash), models.RoleGuard, time.Now(), time.Now()))

		w := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": " Guard1 ", "password": "gate1"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "guard1", body["username"])
		assert.Equal(t, models.RoleGuard, body["role"])
		assert.NotEmpty(t, body["access_token"])
		assert.Equal(t, float64(3600), body["expires_in"])
	})

	t.Run("Wrong password", func(t *testing.T) {
		s.users.ExpectQuery(`FROM users`).
			WithArgs("guard1").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(2), "guard1", string(hash), models.RoleGuard, time.Now(), time.Now()))

		w := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "guard1", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeBody(t, w)["code"])
	})

	t.Run("Unknown user", func(t *testing.T) {
		s.users.ExpectQuery(`FROM users`).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(userColumns))

		w := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ghost", "password": "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Oversized body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"username": "guard1",
			"password": strings.Repeat("x", 8*1024),
		})
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeBody(t, w)["code"])
	})

	assert.NoError(t, s.users.ExpectationsWereMet())
}

func TestRoleEnforcement(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/visitors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/users", s.token(t, models.RoleGuard), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/audit-logs", s.token(t, models.RoleGuard), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserManagement(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleAdmin)

	t.Run("Duplicate username", func(t *testing.T) {
		s.users.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505"})

		w := s.do(t, http.MethodPost, "/api/users", token, map[string]string{
			"username": "guard2", "password": "secret", "role": "guard",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Protected admin cannot be deleted", func(t *testing.T) {
		s.users.ExpectQuery(`FROM users\s+WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "admin", "hash", models.RoleAdmin, time.Now(), time.Now().Add(-time.Hour)))

		w := s.do(t, http.MethodDelete, "/api/users/1", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "PROTECTED_ACCOUNT", decodeBody(t, w)["code"])
	})

	t.Run("Invalid id", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/api/users/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown role", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/users", token, map[string]string{
			"username": "guard3", "password": "secret", "role": "owner",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.NoError(t, s.users.ExpectationsWereMet())
}

func TestDeletedAccountTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.token(t, models.RoleAdmin)
	guardToken := s.token(t, models.RoleGuard)

	s.users.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(2), "guard1", "hash", models.RoleGuard, time.Now(), time.Now().Add(-time.Hour)))
	s.users.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := s.do(t, http.MethodDelete, "/api/users/2", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s.deleteAccount(2)

	w = s.do(t, http.MethodGet, "/api/visitors", guardToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_REVOKED", decodeBody(t, w)["code"])

	assert.NoError(t, s.users.ExpectationsWereMet())
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestDemotedAccountTokenIsRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleAdmin)
	s.accounts[token].Role = models.RoleGuard

	w := s.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_REVOKED", decodeBody(t, w)["code"])
	assert.NoError(t, s.users.ExpectationsWereMet())
}

func TestAuditLogsLimit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/audit-logs?limit=abc", s.token(t, models.RoleAdmin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectPing()
	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])

	s.mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	w = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decodeBody(t, w)["status"])
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &services.ValidationError{Field: "name", Message: "name is required"}, http.StatusBadRequest},
		{"not found", database.ErrNotFound, http.StatusNotFound},
		{"wrapped conflict", errors.Join(errors.New("tx"), database.ErrAlreadyCheckedIn), http.StatusConflict},
		{"duplicate plate", database.ErrPlateExists, http.StatusConflict},
		{"pre-registered", database.ErrAlreadyPreRegistered, http.StatusConflict},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, logger, tt.err, "missing")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
