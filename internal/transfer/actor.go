package transfer

import (
	"github.com/google/uuid"

	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/outbox"
)

// Actor is the authenticated user submitting a document.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsAdmin() bool  { return a.Role == enums.UserRoleAdmin }
func (a Actor) IsDriver() bool { return a.Role == enums.UserRoleDriver }

// Validate rejects anonymous actors and unknown roles.
func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !a.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown role")
	}
	return nil
}

// Ref is the outbox envelope form of the actor.
func (a Actor) Ref() *outbox.ActorRef {
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}
