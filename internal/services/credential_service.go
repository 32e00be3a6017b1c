package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bdlgate/gatepass-backend/internal/config"
	"github.com/bdlgate/gatepass-backend/internal/database"
	"github.com/bdlgate/gatepass-backend/internal/models"
	"github.com/bdlgate/gatepass-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account persistence used by CredentialService
type UserStore interface {
	GetByUsername(username string) (*models.Credential, error)
	GetByID(id int64) (*models.Credential, error)
	List() ([]models.Credential, error)
	Create(username, passwordHash, role string) (*models.Credential, error)
	EnsureExists(username, passwordHash, role string) (bool, error)
	UpdatePassword(username, passwordHash string, changedAt time.Time) error
	Delete(id int64) error
}

// CredentialService handles guard/admin login and account management
type CredentialService struct {
	users      UserStore
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

// NewCredentialService creates a new credential service
func NewCredentialService(users UserStore, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *CredentialService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &CredentialService{
		users:      users,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// NormalizeUsername lowercases and trims a username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Login verifies the password and issues an access token
func (s *CredentialService) Login(username, password string) (*models.LoginResponse, error) {
	username = NormalizeUsername(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &models.LoginResponse{
		Success:     true,
		Username:    user.Username,
		Role:        user.Role,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtService.AccessTokenExpiry().Seconds()),
	}, nil
}

// ListUsers returns all accounts ordered by role then username
func (s *CredentialService) ListUsers() ([]models.Credential, error) {
	return s.users.List()
}

// CreateUser adds an account. An empty role defaults to guard.
func (s *CredentialService) CreateUser(username, password, role string) (*models.Credential, error) {
	username = NormalizeUsername(username)
	password = strings.TrimSpace(password)
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = models.RoleGuard
	}

	if username == "" {
		return nil, invalid("username", "username is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && role != models.RoleGuard {
		return nil, invalid("role", "role must be admin or guard")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	return s.users.Create(username, hash, role)
}

// DeleteUser removes an account other than the seed admin
func (s *CredentialService) DeleteUser(id int64) (*models.Credential, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user.Username == models.ProtectedUsername {
		return nil, ErrProtectedAccount
	}

	if err := s.users.Delete(id); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAdminPassword rotates the password of the seed admin account
func (s *CredentialService) UpdateAdminPassword(password string) error {
	password = strings.TrimSpace(password)
	if err := checkPassword(password); err != nil {
		return err
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(models.ProtectedUsername, hash, time.Now())
}

// VerifySession checks a validated token against the current account row.
// A deleted account or one whose identity no longer matches the claims yields
// jwt.ErrTokenRevoked, as does a password change after the token was issued.
func (s *CredentialService) VerifySession(claims *jwt.Claims) error {
	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return jwt.ErrTokenRevoked
		}
		return fmt.Errorf("failed to load account for session: %w", err)
	}

	if user.Username != claims.Username || user.Role != claims.Role {
		return jwt.ErrTokenRevoked
	}

	// iat has second precision
	if claims.IssuedAt != nil && claims.IssuedAt.Time.Before(user.PasswordChangedAt.Truncate(time.Second)) {
		return jwt.ErrTokenRevoked
	}

	return nil
}

// SeedAccounts creates the admin account and, when withGuard is set, the
// default guard account. Existing accounts keep their passwords.
func (s *CredentialService) SeedAccounts(seed config.SeedConfig, withGuard bool) error {
	if err := s.seed(models.ProtectedUsername, seed.AdminPassword, models.RoleAdmin); err != nil {
		return err
	}
	if withGuard && seed.GuardUsername != "" {
		return s.seed(NormalizeUsername(seed.GuardUsername), seed.GuardPassword, models.RoleGuard)
	}
	return nil
}

func (s *CredentialService) seed(username, password, role string) error {
	hash, err := s.hash(password)
	if err != nil {
		return err
	}

	created, err := s.users.EnsureExists(username, hash, role)
	if err != nil {
		return err
	}
	if created {
		s.logger.WithFields(logrus.Fields{"username": username, "role": role}).Info("Seeded gate account")
	}
	return nil
}

// bcrypt only reads the first 72 bytes
const maxPasswordBytes = 72

func checkPassword(password string) error {
	if password == "" {
		return invalid("password", "password is required")
	}
	if len(password) > maxPasswordBytes {
		return invalid("password", "password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func (s *CredentialService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
