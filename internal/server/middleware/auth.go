package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/identity"
	"github.com/mamadbah2/prodtrack/internal/server/respond"
)

// IdentityKey is the gin context key holding the caller identity.
const IdentityKey = "identity"

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity.Identity, error)
}

// Auth validates the bearer token on every protected route and stores the
// resolved identity in the gin context and the request context.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respond.Abort(c, http.StatusUnauthorized, "Unauthorized - No token provided")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			respond.Abort(c, http.StatusUnauthorized, "Unauthorized - Invalid authorization header")
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				respond.Error(c, nil, err)
				return
			}
			respond.Abort(c, http.StatusUnauthorized, apperr.Message(err))
			return
		}

		c.Set(IdentityKey, id)
		c.Request = c.Request.WithContext(identity.WithContext(c.Request.Context(), id))
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in the allowed list.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			respond.Abort(c, http.StatusUnauthorized, "Unauthorized - No token provided")
			return
		}
		if !allowed[id.Role] {
			respond.Abort(c, http.StatusForbidden, "Forbidden - Insufficient permissions")
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller stored by Auth.
func GetIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}
