package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/repository"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Owner is the canonical
// owning identity used for card isolation; it is always keyed by user id.
type Principal struct {
	User  *domain.User
	Owner domain.OwnerRef
}

// Role returns the caller's role name, empty when unauthenticated.
func (p *Principal) Role() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.RoleName
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{
		User:  user,
		Owner: domain.UserOwner(user.ID),
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
