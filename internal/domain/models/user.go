package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account able to sign in. Supervisors carry the machines they
// are responsible for in MachineIDs.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name         string               `bson:"name" json:"name"`
	Email        string               `bson:"email" json:"email"`
	Phone        string               `bson:"phone" json:"phone"`
	PasswordHash string               `bson:"password" json:"-"`
	Role         Role                 `bson:"role" json:"role"`
	MachineIDs   []primitive.ObjectID `bson:"machineIds" json:"machineIds"`
	IsActive     bool                 `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserFilter narrows user listings. Nil fields are not applied.
type UserFilter struct {
	Role     *Role
	IsActive *bool
}

// Matches reports whether u satisfies the filter.
func (f UserFilter) Matches(u User) bool {
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.IsActive != nil && u.IsActive != *f.IsActive {
		return false
	}
	return true
}
