// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course difficulty levels.
const (
	LevelBeginner     = "BEGINNER"
	LevelIntermediate = "INTERMEDIATE"
	LevelAdvanced     = "ADVANCED"
)

// Levels lists the allowed course levels in display order.
var Levels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

// IsValidLevel reports whether level is one of the allowed course levels.
// The comparison is exact; levels are upper-case enum values.
func IsValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Course is a unit of teaching content. Who may edit it is decided by the
// enrollments collection (role PROFESSOR), not by a field on the course.
type Course struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	Level       string             `bson:"level" json:"level"` // BEGINNER | INTERMEDIATE | ADVANCED

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
