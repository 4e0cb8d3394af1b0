// internal/app/policy/coursepolicy/coursepolicy.go
package coursepolicy

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Actions named in NOT_AUTHORIZED messages.
const (
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Enrollments is the lookup the policy needs; *enrollmentstore.Store satisfies it.
type Enrollments interface {
	Get(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Enrollment, error)
}

// RequireProfessor returns the caller's PROFESSOR enrollment on courseID, or
// apperr.Forbidden(action) when there is none (including when the course does
// not exist). Storage failures are returned wrapped and are not authorization
// decisions. The check reads the store on every call.
func RequireProfessor(ctx context.Context, store Enrollments, userID, courseID primitive.ObjectID, action string) (*models.Enrollment, error) {
	e, err := store.Get(ctx, userID, courseID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Forbidden(action)
	}
	if err != nil {
		return nil, fmt.Errorf("professor check: %w", err)
	}
	if e.Role != models.RoleProfessor {
		return nil, apperr.Forbidden(action)
	}
	return e, nil
}
