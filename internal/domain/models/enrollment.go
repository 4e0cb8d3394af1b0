// internal/domain/models/enrollment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment roles.
const (
	RoleStudent   = "STUDENT"
	RoleProfessor = "PROFESSOR"
)

// IsValidRole reports whether role is STUDENT or PROFESSOR.
func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleProfessor
}

// Enrollment is the authoritative join between users and courses.
// Exactly one document per (user_id, course_id); role is a scalar ("STUDENT"|"PROFESSOR").
type Enrollment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	CourseID  primitive.ObjectID `bson:"course_id" json:"course_id"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
