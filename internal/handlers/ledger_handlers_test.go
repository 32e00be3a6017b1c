package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitorCheckIn(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	s.mock.ExpectQuery(`INSERT INTO visitors`).
		WithArgs("John", "HR", "Meeting", "IN", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	w := s.do(t, http.MethodPost, "/api/visitors", token, map[string]string{
		"action":      "checkin",
		"name":        "John",
		"destination": "HR",
		"purpose":     "Meeting",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(7), body["visitor_id"])
	assert.Equal(t, "/static/qr_visitors/visitor_7.png", body["qr_code"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestVisitorCheckInValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"unknown action", map[string]string{"action": "teleport"}},
		{"missing purpose", map[string]string{"action": "checkin", "name": "John", "destination": "HR"}},
		{"delimiter in name", map[string]string{"action": "checkin", "name": "Jo:hn", "destination": "HR", "purpose": "Meeting"}},
		{"blank name", map[string]string{"action": "checkin", "name": "   ", "destination": "HR", "purpose": "Meeting"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/visitors", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
		})
	}
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestVisitorCheckOutNotFound(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT id FROM visitors`).
		WithArgs("Nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.mock.ExpectRollback()

	w := s.do(t, http.MethodPost, "/api/visitors", s.token(t, models.RoleGuard), map[string]string{
		"action":     "checkout",
		"identifier": "Nobody",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, w)["code"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestVehicleCheckIn(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	t.Run("Normalises plate and accepts string mileage", func(t *testing.T) {
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vehicles`).
			WithArgs("ABC-123").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		s.mock.ExpectQuery(`INSERT INTO vehicles`).
			WithArgs("Sam", "ABC-123", int64(1000), "IN", testNow).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
		s.mock.ExpectCommit()

		w := s.do(t, http.MethodPost, "/api/vehicles", token, map[string]string{
			"action": "checkin",
			"driver": "Sam",
			"plate":  "abc-123",
			"m_in":   "1000",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody(t, w)
		assert.Equal(t, float64(3), body["vehicle_id"])
		assert.Equal(t, "/static/qr_vehicles/vehicle_3.png", body["qr_code"])
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("Plate already inside", func(t *testing.T) {
		s.mock.ExpectBegin()
		s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vehicles`).
			WithArgs("ABC-123").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		s.mock.ExpectRollback()

		w := s.do(t, http.MethodPost, "/api/vehicles", token, map[string]interface{}{
			"action": "checkin",
			"driver": "Sam",
			"plate":  "ABC-123",
			"m_in":   1000,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ALREADY_CHECKED_IN", decodeBody(t, w)["code"])
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})

	t.Run("Negative mileage", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/vehicles", token, map[string]interface{}{
			"action": "checkin",
			"driver": "Sam",
			"plate":  "ABC-123",
			"m_in":   -5,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})
}

func TestCheckInAuditRecordsStoredValues(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	s.mock.ExpectQuery(`INSERT INTO visitors`).
		WithArgs("John", "HR", "Meeting", "IN", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	s.expectAudit(services.AuditActionCheckIn, auditDetails{"name": "John"})

	w := s.do(t, http.MethodPost, "/api/visitors", token, map[string]string{
		"action":      "checkin",
		"name":        "  John ",
		"destination": "HR",
		"purpose":     "Meeting",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vehicles`).
		WithArgs("ABC-123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	s.mock.ExpectQuery(`INSERT INTO vehicles`).
		WithArgs("Sam", "ABC-123", int64(1000), "IN", testNow).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	s.mock.ExpectCommit()
	s.expectAudit(services.AuditActionCheckIn, auditDetails{"plate": "ABC-123"})

	w = s.do(t, http.MethodPost, "/api/vehicles", token, map[string]interface{}{
		"action": "checkin",
		"driver": "Sam",
		"plate":  " abc-123 ",
		"m_in":   1000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.NoError(t, s.mock.ExpectationsWereMet())
	assert.NoError(t, s.audit.ExpectationsWereMet())
}

func TestVehicleCheckOut(t *testing.T) {
	s := newTestServer(t)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT id FROM vehicles`).
		WithArgs("ABC-123").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	s.mock.ExpectExec(`UPDATE vehicles`).
		WithArgs(testNow, int64(1050), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	w := s.do(t, http.MethodPost, "/api/vehicles", s.token(t, models.RoleGuard), map[string]interface{}{
		"action":     "checkout",
		"identifier": "abc-123",
		"m_out":      1050,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(3), decodeBody(t, w)["vehicle_id"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestQRScan(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	t.Run("Malformed payload", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/qr/scan", token, map[string]string{"qr_data": "HELLO"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_QR", decodeBody(t, w)["code"])
	})

	t.Run("Visitor pass checks out once", func(t *testing.T) {
		s.mock.ExpectBegin()
		s.mock.ExpectExec(`UPDATE visitors`).
			WithArgs(testNow, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		s.mock.ExpectCommit()

		w := s.do(t, http.MethodPost, "/api/qr/scan", token, map[string]string{"qr_data": "VISITOR:7:John:HR:Meeting"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		result := decodeBody(t, w)["result"].(map[string]interface{})
		assert.Equal(t, "checked_out", result["action"])
		assert.Equal(t, "visitor", result["type"])
		assert.Equal(t, float64(7), result["id"])

		s.mock.ExpectBegin()
		s.mock.ExpectExec(`UPDATE visitors`).
			WithArgs(testNow, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.mock.ExpectRollback()

		w = s.do(t, http.MethodPost, "/api/qr/scan", token, map[string]string{"qr_data": "VISITOR:7:John:HR:Meeting"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})
}

func TestConfirmPreRegistrationRequiresInput(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	w := s.do(t, http.MethodPost, "/api/confirm-pre-registration", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/confirm-pre-registration", token, map[string]string{"qr_data": "VISITOR:7:John:HR:Meeting"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, w)["code"])
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, models.RoleGuard)

	t.Run("Empty query", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/search/visitors?q=", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown entity", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/search/trucks?q=jo", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("No matches returns empty array", func(t *testing.T) {
		s.mock.ExpectQuery(`FROM visitors`).
			WithArgs("%jo%").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "destination", "purpose", "status", "checkin_time"}))

		w := s.do(t, http.MethodGet, "/api/search/visitors?q=jo", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		assert.NoError(t, s.mock.ExpectationsWereMet())
	})
}
