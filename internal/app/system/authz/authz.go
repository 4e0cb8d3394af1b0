// internal/app/system/authz/authz.go
package authz

import (
	"context"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is an authenticated identity with its id already parsed.
type Caller struct {
	*auth.Identity
	UserID primitive.ObjectID
}

// RequireAuthenticated returns the caller stored in ctx, or
// apperr.NotAuthenticated. A malformed id fails closed as unauthenticated;
// the verifier only ever stores ids it loaded from the users collection.
func RequireAuthenticated(ctx context.Context) (Caller, error) {
	id, ok := auth.CurrentIdentity(ctx)
	if !ok {
		return Caller{}, apperr.NotAuthenticated
	}
	oid, err := primitive.ObjectIDFromHex(id.ID)
	if err != nil {
		return Caller{}, apperr.NotAuthenticated
	}
	return Caller{Identity: id, UserID: oid}, nil
}
