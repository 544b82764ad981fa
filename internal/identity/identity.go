// Package identity carries the authenticated caller through a request.
package identity

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// Identity is the resolved caller of a request.
type Identity struct {
	ID    primitive.ObjectID `json:"id"`
	Email string             `json:"email"`
	Role  models.Role        `json:"role"`
	Name  string             `json:"name"`
}

// FromUser builds the identity of a stored user.
func FromUser(u *models.User) Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role, Name: u.Name}
}

// Is reports whether the caller has one of the given roles.
func (i Identity) Is(roles ...models.Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying id.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
