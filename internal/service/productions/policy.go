package productions

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/identity"
)

// Actor is the caller of a production operation together with the machines
// assigned to them.
type Actor struct {
	identity.Identity
	MachineIDs []primitive.ObjectID
}

// Decision is the outcome of a policy check. Scope is only meaningful when
// Allowed is true.
type Decision struct {
	Allowed bool
	Scope   models.ProductionScope
	Reason  string
}

// Allow grants the operation within scope.
func Allow(scope models.ProductionScope) Decision {
	return Decision{Allowed: true, Scope: scope}
}

// Deny refuses the operation.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into an Authorization error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.Authorization(d.Reason)
}

// ReadScope returns the rows an actor may read.
//
// Admins read everything, operators read their own records and supervisors
// read the records of their assigned machines. A supervisor without any
// assigned machine reads everything.
func ReadScope(a Actor) Decision {
	switch a.Role {
	case models.RoleAdmin:
		return Allow(models.ProductionScope{})
	case models.RoleOperator:
		id := a.ID
		return Allow(models.ProductionScope{OperatorID: &id})
	case models.RoleSupervisor:
		if len(a.MachineIDs) == 0 {
			return Allow(models.ProductionScope{})
		}
		ids := append([]primitive.ObjectID(nil), a.MachineIDs...)
		return Allow(models.ProductionScope{MachineIDs: ids})
	default:
		return Deny("Forbidden - insufficient permissions")
	}
}

// CanView decides whether a single record may be read.
func CanView(a Actor, p models.Production) Decision {
	d := ReadScope(a)
	if !d.Allowed {
		return d
	}
	if !d.Scope.Admits(p) {
		return Deny("Forbidden - cannot view this production")
	}
	return d
}

// CanCreate decides whether a record may be created. Every role may create.
func CanCreate(a Actor) Decision {
	if !a.Is(models.RoleAdmin, models.RoleSupervisor, models.RoleOperator) {
		return Deny("Forbidden - insufficient permissions")
	}
	return Allow(models.ProductionScope{})
}

// CanUpdate decides whether a record may be modified. Supervisors may update
// records they supervise or that belong to one of their machines.
func CanUpdate(a Actor, p models.Production) Decision {
	switch a.Role {
	case models.RoleAdmin:
		return Allow(models.ProductionScope{})
	case models.RoleSupervisor:
		if p.SupervisedBy(a.ID) || containsID(a.MachineIDs, p.MachineID) {
			return Allow(models.ProductionScope{})
		}
		return Deny("Forbidden - You cannot update this production")
	default:
		return Deny("Forbidden - insufficient permissions")
	}
}

// CanDelete decides whether a record may be removed. Only admins delete.
func CanDelete(a Actor) Decision {
	if a.Role != models.RoleAdmin {
		return Deny("Forbidden - insufficient permissions")
	}
	return Allow(models.ProductionScope{})
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
