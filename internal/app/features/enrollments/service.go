// internal/app/features/enrollments/service.go
package enrollments

import (
	"context"
	"errors"
	"fmt"

	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/coursehub/internal/app/store/enrollments"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/authz"
	"github.com/dalemusser/coursehub/internal/app/system/inputval"
	"github.com/dalemusser/coursehub/internal/app/system/normalize"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Self-professor policies. With SelfProfessorAllow any authenticated user may
// enroll themselves as PROFESSOR of any course and thereby gain edit and
// delete rights on it.
const (
	SelfProfessorAllow = "allow"
	SelfProfessorDeny  = "deny"
)

// ErrSelfProfessorDenied is returned by Enroll when role PROFESSOR is
// requested and the policy is SelfProfessorDeny.
var ErrSelfProfessorDenied = apperr.New(apperr.CodeNotAuthorized, "Not authorized to enroll as a professor in this course")

// Service owns the (user, course, role) ledger.
type Service struct {
	courses       *coursestore.Store
	enrollments   *enrollmentstore.Store
	audit         *auditlog.Logger
	log           *zap.Logger
	selfProfessor string

	testHookAfterAdd func(ctx context.Context)
}

// NewService wires the enrollments feature. An empty selfProfessor policy
// means SelfProfessorAllow. audit may be nil.
func NewService(db *mongo.Database, selfProfessor string, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if selfProfessor == "" {
		selfProfessor = SelfProfessorAllow
	}
	return &Service{
		courses:       coursestore.New(db),
		enrollments:   enrollmentstore.New(db),
		audit:         audit,
		log:           logger,
		selfProfessor: selfProfessor,
	}
}

// EnrollRequest enrolls the caller in CourseID. An empty Role means STUDENT.
type EnrollRequest struct {
	CourseID string
	Role     string `validate:"required,courserole" label:"Role"`
}

// Enroll records the caller's enrollment. A second enrollment in the same
// course fails with apperr.AlreadyEnrolled, whatever the role; of several
// concurrent attempts exactly one succeeds.
func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (models.Enrollment, error) {
	req.Role = normalize.Enum(req.Role)
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if res := inputval.Validate(req); res.HasErrors() {
		return models.Enrollment{}, apperr.Invalid(res.First())
	}

	caller, err := authz.RequireAuthenticated(ctx)
	if err != nil {
		return models.Enrollment{}, err
	}

	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		return models.Enrollment{}, apperr.CourseNotFound()
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "enroll")
	defer cancel()

	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("enroll course lookup: %w", err)
	}
	if !exists {
		return models.Enrollment{}, apperr.CourseNotFound()
	}

	enrolled, err := s.enrollments.Exists(ctx, caller.UserID, courseID)
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("enroll pre-check: %w", err)
	}
	if enrolled {
		return models.Enrollment{}, apperr.AlreadyEnrolled
	}

	if req.Role == models.RoleProfessor && s.selfProfessor == SelfProfessorDeny {
		s.log.Warn("self professor enrollment denied",
			zap.String("user_id", caller.ID),
			zap.String("course_id", courseID.Hex()))
		s.audit.SelfProfessorEnrollment(ctx, caller.UserID, courseID, false)
		return models.Enrollment{}, ErrSelfProfessorDenied
	}

	// The pre-check above is advisory; the unique (user_id, course_id)
	// index decides between concurrent attempts.
	e, err := s.enrollments.Add(ctx, caller.UserID, courseID, req.Role)
	if errors.Is(err, enrollmentstore.ErrDuplicateEnrollment) {
		return models.Enrollment{}, apperr.AlreadyEnrolled
	}
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("enroll: %w", err)
	}
	if s.testHookAfterAdd != nil {
		s.testHookAfterAdd(ctx)
	}

	// A course delete that ran after the existence check has already swept
	// its enrollments and will not see this row.
	exists, err = s.courses.Exists(ctx, courseID)
	if err != nil {
		return models.Enrollment{}, fmt.Errorf("enroll course recheck: %w", err)
	}
	if !exists {
		if _, err := s.enrollments.Remove(ctx, caller.UserID, courseID); err != nil {
			s.log.Error("remove enrollment for deleted course",
				zap.String("user_id", caller.ID),
				zap.String("course_id", courseID.Hex()),
				zap.Error(err))
		}
		return models.Enrollment{}, apperr.CourseNotFound()
	}

	if e.Role == models.RoleProfessor {
		s.log.Warn("user enrolled themselves as professor",
			zap.String("user_id", caller.ID),
			zap.String("course_id", courseID.Hex()))
		s.audit.SelfProfessorEnrollment(ctx, caller.UserID, courseID, true)
	}
	s.audit.Enrolled(ctx, caller.UserID, courseID, e.Role)
	return e, nil
}

// Unenroll removes the caller's enrollment in courseID. The course and user
// are untouched, even when the last professor leaves.
func (s *Service) Unenroll(ctx context.Context, courseID string) (bool, error) {
	caller, err := authz.RequireAuthenticated(ctx)
	if err != nil {
		return false, err
	}

	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return false, apperr.EnrollmentNotFound
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "unenroll")
	defer cancel()

	n, err := s.enrollments.Remove(ctx, caller.UserID, oid)
	if err != nil {
		return false, fmt.Errorf("unenroll: %w", err)
	}
	if n == 0 {
		return false, apperr.EnrollmentNotFound
	}

	s.audit.Unenrolled(ctx, caller.UserID, oid)
	return true, nil
}

// ForUser lists userID's enrollments in insertion order. A malformed id
// matches nothing.
func (s *Service) ForUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []models.Enrollment{}, nil
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "user enrollments")
	defer cancel()

	out, err := s.enrollments.ListByUser(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("user enrollments: %w", err)
	}
	return out, nil
}

// ForCourse lists courseID's enrollments in insertion order. A malformed id
// matches nothing.
func (s *Service) ForCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return []models.Enrollment{}, nil
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "course enrollments")
	defer cancel()

	out, err := s.enrollments.ListByCourse(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("course enrollments: %w", err)
	}
	return out, nil
}
