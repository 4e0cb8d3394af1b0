// internal/app/features/courses/service.go
package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/coursehub/internal/app/policy/coursepolicy"
	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/coursehub/internal/app/store/enrollments"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/authz"
	"github.com/dalemusser/coursehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coursehub/internal/app/system/inputval"
	"github.com/dalemusser/coursehub/internal/app/system/normalize"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/app/system/txn"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service is the only path that creates, edits, or deletes courses.
type Service struct {
	db          *mongo.Database
	courses     *coursestore.Store
	enrollments *enrollmentstore.Store
	audit       *auditlog.Logger
	log         *zap.Logger
}

// NewService wires the courses feature. audit may be nil.
func NewService(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:          db,
		courses:     coursestore.New(db),
		enrollments: enrollmentstore.New(db),
		audit:       audit,
		log:         logger,
	}
}

// CreateCourseRequest is a new course. Description may be empty.
type CreateCourseRequest struct {
	Title       string `validate:"required,max=200" label:"Title"`
	Description string `validate:"max=10000" label:"Description"`
	Level       string `validate:"required,courselevel" label:"Level"`
}

// UpdateCourseRequest is a partial edit; nil fields are left unchanged.
type UpdateCourseRequest struct {
	Title       *string `validate:"omitnil,required,max=200" label:"Title"`
	Description *string `validate:"omitnil,max=10000" label:"Description"`
	Level       *string `validate:"omitnil,required,courselevel" label:"Level"`
}

func cleanTitle(s string) string {
	return normalize.Title(htmlsanitize.StripTags(s))
}

func cleanDescription(s string) string {
	return htmlsanitize.Description(strings.TrimSpace(s))
}

// parseCourseID maps a malformed id to the same NotFound a missing course gets.
func parseCourseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.CourseNotFound()
	}
	return oid, nil
}

// Create inserts a course and enrolls the caller as its PROFESSOR in one
// unit of work. Either both rows exist afterwards or neither does.
func (s *Service) Create(ctx context.Context, req CreateCourseRequest) (models.Course, error) {
	req.Title = cleanTitle(req.Title)
	req.Description = cleanDescription(req.Description)
	req.Level = normalize.Enum(req.Level)
	if res := inputval.Validate(req); res.HasErrors() {
		return models.Course{}, apperr.Invalid(res.First())
	}

	caller, err := authz.RequireAuthenticated(ctx)
	if err != nil {
		return models.Course{}, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "create course")
	defer cancel()

	// The id is fixed before the unit of work so a retried or non-transactional
	// run inserts (and, on failure, removes) the same document.
	course := models.Course{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
	}

	var created models.Course
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		c, err := s.courses.Create(ctx, course)
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		if _, err := s.enrollments.AddProfessor(ctx, caller.UserID, c.ID); err != nil {
			return fmt.Errorf("enroll creator: %w", err)
		}
		created = c
		return nil
	})
	if err != nil {
		s.compensateCreate(course.ID)
		return models.Course{}, err
	}

	s.log.Info("course created",
		zap.String("course_id", created.ID.Hex()),
		zap.String("user_id", caller.ID))
	s.audit.CourseCreated(ctx, caller.UserID, created.ID, created.Title)
	return created, nil
}

// compensateCreate removes a course whose professor enrollment could not be
// written. Inside a transaction the abort already did this and the delete
// matches nothing; without one it is the only rollback.
func (s *Service) compensateCreate(courseID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	if _, err := s.enrollments.DeleteByCourse(ctx, courseID); err != nil {
		s.log.Error("compensate course create: remove enrollments", zap.String("course_id", courseID.Hex()), zap.Error(err))
	}
	n, err := s.courses.Delete(ctx, courseID)
	if err != nil {
		s.log.Error("compensate course create: remove course", zap.String("course_id", courseID.Hex()), zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Warn("removed course left without a professor", zap.String("course_id", courseID.Hex()))
	}
}

// Update applies the non-nil fields of req. Only a PROFESSOR of the course
// may update it; on NotAuthorized nothing is written. Input is validated
// before the caller is checked.
func (s *Service) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if req.Title != nil {
		t := cleanTitle(*req.Title)
		req.Title = &t
	}
	if req.Description != nil {
		d := cleanDescription(*req.Description)
		req.Description = &d
	}
	if req.Level != nil {
		l := normalize.Enum(*req.Level)
		req.Level = &l
	}
	if res := inputval.Validate(req); res.HasErrors() {
		return nil, apperr.Invalid(res.First())
	}

	caller, err := authz.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "update course")
	defer cancel()

	courseID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// No enrollment can reference a malformed id.
		return nil, apperr.Forbidden(coursepolicy.ActionEdit)
	}
	if _, err := coursepolicy.RequireProfessor(ctx, s.enrollments, caller.UserID, courseID, coursepolicy.ActionEdit); err != nil {
		return nil, err
	}

	updated, err := s.courses.Update(ctx, courseID, coursestore.Update{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Professor row outlived its course.
		return nil, apperr.CourseNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}

	s.audit.CourseUpdated(ctx, caller.UserID, courseID, changedFields(req))
	return updated, nil
}

func changedFields(req UpdateCourseRequest) string {
	var f []string
	if req.Title != nil {
		f = append(f, "title")
	}
	if req.Description != nil {
		f = append(f, "description")
	}
	if req.Level != nil {
		f = append(f, "level")
	}
	return strings.Join(f, ",")
}

// Delete removes a course and all of its enrollments in one unit of work.
// Only a PROFESSOR of the course may delete it.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	caller, err := authz.RequireAuthenticated(ctx)
	if err != nil {
		return false, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), s.log, "delete course")
	defer cancel()

	courseID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, apperr.Forbidden(coursepolicy.ActionDelete)
	}
	if _, err := coursepolicy.RequireProfessor(ctx, s.enrollments, caller.UserID, courseID, coursepolicy.ActionDelete); err != nil {
		return false, err
	}

	// Course first: an enroll racing this delete either lands before the
	// enrollment sweep or sees the course gone on its recheck.
	var removed int64
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.courses.Delete(ctx, courseID); err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		n, err := s.enrollments.DeleteByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("delete enrollments: %w", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return false, err
	}

	s.log.Info("course deleted",
		zap.String("course_id", courseID.Hex()),
		zap.String("user_id", caller.ID),
		zap.Int64("enrollments_removed", removed))
	s.audit.CourseDeleted(ctx, caller.UserID, courseID, removed)
	return true, nil
}

// List returns every course, newest first.
func (s *Service) List(ctx context.Context) ([]models.Course, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "list courses")
	defer cancel()

	out, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

// Get loads one course. A missing course or malformed id is NotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Course, error) {
	courseID, err := parseCourseID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "get course")
	defer cancel()

	c, err := s.courses.GetByID(ctx, courseID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.CourseNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// ByID loads the given courses keyed by id in one query. Missing ids are
// absent from the map.
func (s *Service) ByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Course, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "load courses")
	defer cancel()

	out, err := s.courses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	return out, nil
}
