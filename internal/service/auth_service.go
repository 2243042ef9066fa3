package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/archie-s/card-vault/internal/access"
	"github.com/archie-s/card-vault/internal/auth"
	"github.com/archie-s/card-vault/internal/config"
	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/repository"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

// RegisterUserInput carries registration fields. RoleName defaults to
// customer; customer registrations also get a customer profile.
type RegisterUserInput struct {
	Username  string
	Email     string
	Password  string
	RoleName  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthService coordinates login, registration and caller introspection.
type AuthService struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	permissions access.PermissionSource
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	logger      *zap.Logger
}

// AuthDependencies encapsulates repo requirements for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	RoleRepo    repository.RoleRepository
	Permissions access.PermissionSource
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		roles:       deps.RoleRepo,
		permissions: deps.Permissions,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours),
		bcryptCost:  cfg.Auth.BcryptCost,
		logger:      deps.Logger,
	}
}

// Login authenticates a user by username and issues a role-bearing token.
// last_login is touched on success; the failure message never distinguishes
// unknown user from bad password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last_login", zap.String("user_id", user.ID), zap.Error(err))
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// RegisterUser creates a user under the given role, plus a customer profile
// when the role is customer.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	roleName := strings.TrimSpace(input.RoleName)
	if roleName == "" {
		roleName = domain.RoleCustomer
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": roleName})
		}
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.NewConflict("username already taken", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if role.Name == domain.RoleCustomer {
		customer := &domain.Customer{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Email:     input.Email,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Phone:     input.Phone,
		}
		if err := s.users.CreateCustomer(ctx, customer); err != nil {
			return nil, err
		}
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", role.Name))
	return user, nil
}

// Me returns the user together with its effective permission names.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, []string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	perms, err := s.permissions.Permissions(ctx, user.RoleName)
	if err != nil {
		return nil, nil, err
	}
	return user, perms, nil
}

// ListUsers returns all users for administrative listings.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Logout no-ops for the stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
