// internal/app/store/enrollments/enrollmentstore.go
package enrollmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/coursehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("enrollments")}
}

var errBadRole = errors.New(`role must be "STUDENT" or "PROFESSOR"`)

// ErrDuplicateEnrollment is returned when the (user, course) pair is already
// enrolled. The unique index uniq_enr_user_course is what detects it, so it
// holds under concurrent inserts.
var ErrDuplicateEnrollment = errors.New("user is already enrolled in this course")

// Add enrolls userID in courseID with role.
func (s *Store) Add(ctx context.Context, userID, courseID primitive.ObjectID, role string) (models.Enrollment, error) {
	if !models.IsValidRole(role) {
		return models.Enrollment{}, errBadRole
	}
	e := models.Enrollment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		CourseID:  courseID,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Enrollment{}, ErrDuplicateEnrollment
		}
		return models.Enrollment{}, err
	}
	return e, nil
}

// AddProfessor enrolls the creator of a course as its PROFESSOR.
func (s *Store) AddProfessor(ctx context.Context, userID, courseID primitive.ObjectID) (models.Enrollment, error) {
	return s.Add(ctx, userID, courseID, models.RoleProfessor)
}

// Get loads the enrollment for (userID, courseID). Returns mongo.ErrNoDocuments if absent.
func (s *Store) Get(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "course_id": courseID}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Exists checks if userID is enrolled in courseID with any role.
func (s *Store) Exists(ctx context.Context, userID, courseID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "course_id": courseID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the enrollment for (userID, courseID).
// Returns the number of documents deleted (0 or 1).
func (s *Store) Remove(ctx context.Context, userID, courseID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "course_id": courseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByCourse removes all enrollments for a course.
// Returns the number of documents deleted.
func (s *Store) DeleteByCourse(ctx context.Context, courseID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByUser returns userID's enrollments in insertion order.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Enrollment, error) {
	return s.list(ctx, bson.M{"user_id": userID})
}

// ListByCourse returns courseID's enrollments in insertion order.
func (s *Store) ListByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Enrollment, error) {
	return s.list(ctx, bson.M{"course_id": courseID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Enrollment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
