package handlers

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/internal/services"
	"github.com/bdlgate/gatepass-backend/pkg/jwt"
	"github.com/bdlgate/gatepass-backend/pkg/qrtoken"
	"github.com/bdlgate/gatepass-backend/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

var userColumns = []string{"id", "username", "password_hash", "role", "created_at", "password_changed_at"}

// testServer routes ledger queries to mock, account queries to users and
// audit writes to audit. users matches out of order so each authenticated
// request can register its own session lookup. Unexpected audit writes only
// log a warning.
type testServer struct {
	router   *gin.Engine
	mock     sqlmock.Sqlmock
	users    sqlmock.Sqlmock
	audit    sqlmock.Sqlmock
	jwt      *jwt.Service
	accounts map[string]*testAccount
}

type testAccount struct {
	models.Credential
	deleted bool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db := &database.PostgresDB{DB: sqlx.NewDb(sqlDB, "sqlmock")}

	usersDB, usersMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { usersDB.Close() })
	usersMock.MatchExpectationsInOrder(false)
	userStore := database.NewUserRepository(&database.PostgresDB{DB: sqlx.NewDb(usersDB, "sqlmock")})

	auditDB, auditMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { auditDB.Close() })
	auditMock.MatchExpectationsInOrder(false)
	auditService := services.NewAuditService(&database.PostgresDB{DB: sqlx.NewDb(auditDB, "sqlmock")}, true)

	store, err := storage.NewLocalStore(t.TempDir(), "/static")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := func() time.Time { return testNow }
	jwtService := jwt.NewService("handler-test-secret", time.Hour)
	credentials := services.NewCredentialService(userStore, jwtService, 4, logger)
	ledger := services.NewLedgerService(
		database.NewVisitorRepository(db.DB),
		database.NewVehicleRepository(db.DB),
		services.NewPassService(qrtoken.NewRenderer(128, "low"), store),
		services.NewPhotoService(store, config.PhotoConfig{MaxBytes: 1 << 20, MaxWidth: 64, JPEGQuality: 80}, clock),
		clock,
		logger,
	)

	router := gin.New()
	RegisterRoutes(router, Routes{
		Auth:     NewAuthHandler(credentials, nil, auditService, logger),
		Visitors: NewVisitorHandler(ledger, auditService, logger),
		Vehicles: NewVehicleHandler(ledger, auditService, logger),
		QR:       NewQRHandler(ledger, auditService, logger),
		Search:   NewSearchHandler(ledger, logger),
		Photos:   NewPhotoHandler(ledger, auditService, logger),
		Users:    NewUserHandler(credentials, auditService, logger),
		Audit:    NewAuditHandler(auditService, logger),
		Health:   NewHealthHandler(db, logger),
	}, RouteConfig{
		JWT:               jwtService,
		Sessions:          credentials,
		Logger:            logger,
		MaxBodyBytes:      4 * 1024,
		MaxPhotoBodyBytes: 2 << 20,
	})

	return &testServer{
		router:   router,
		mock:     mock,
		users:    usersMock,
		audit:    auditMock,
		jwt:      jwtService,
		accounts: make(map[string]*testAccount),
	}
}

// token issues a token for the seed admin (id 1) or guard1 (id 2)
func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	account := &testAccount{Credential: models.Credential{ID: 2, Username: "guard1", Role: role}}
	if role == models.RoleAdmin {
		account.ID, account.Username = 1, "admin"
	}

	token, err := s.jwt.GenerateAccessToken(account.ID, account.Username, account.Role)
	require.NoError(t, err)
	s.accounts[token] = account
	return token
}

// deleteAccount makes later session lookups for id find no row
func (s *testServer) deleteAccount(id int64) {
	for _, account := range s.accounts {
		if account.ID == id {
			account.deleted = true
		}
	}
}

func (s *testServer) expectSession(token string) {
	account, ok := s.accounts[token]
	if !ok {
		return
	}

	rows := sqlmock.NewRows(userColumns)
	if !account.deleted {
		rows.AddRow(account.ID, account.Username, "hash", account.Role, time.Now(), time.Now().Add(-time.Hour))
	}
	s.users.ExpectQuery(`FROM users\s+WHERE id = \$1`).
		WithArgs(account.ID).
		WillReturnRows(rows)
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		s.expectSession(token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// auditDetails matches an audit_logs details argument holding the given keys
type auditDetails map[string]string

func (d auditDetails) Match(v driver.Value) bool {
	var raw []byte
	switch value := v.(type) {
	case string:
		raw = []byte(value)
	case []byte:
		raw = value
	default:
		return false
	}

	var details map[string]interface{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return false
	}
	for k, want := range d {
		if details[k] != want {
			return false
		}
	}
	return true
}

func (s *testServer) expectAudit(action string, details auditDetails) {
	s.audit.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(sqlmock.AnyArg(), action, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), details).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
