package shared

import (
	"github.com/google/uuid"
)

// OperationContext identifies who is performing a financial operation and for
// which cooperative organization. It is passed explicitly into every
// ledger-touching call; there is no ambient per-request state.
type OperationContext struct {
	ActorID        uuid.UUID
	OrganizationID uuid.UUID
}

// NewOperationContext creates an operation context for the given actor and organization
func NewOperationContext(actorID, organizationID uuid.UUID) OperationContext {
	return OperationContext{
		ActorID:        actorID,
		OrganizationID: organizationID,
	}
}

// Validate ensures both identifiers are present
func (o OperationContext) Validate() error {
	if o.ActorID == uuid.Nil {
		return NewDomainError("INVALID_ACTOR", "Actor ID is required")
	}
	if o.OrganizationID == uuid.Nil {
		return NewDomainError("INVALID_ORGANIZATION", "Organization ID is required")
	}
	return nil
}
