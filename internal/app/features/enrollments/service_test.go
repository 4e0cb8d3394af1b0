package enrollments_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/features/courses"
	"github.com/dalemusser/coursehub/internal/app/features/enrollments"
	"github.com/dalemusser/coursehub/internal/app/store/audit"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/indexes"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type env struct {
	db    *mongo.Database
	fx    *testutil.Fixtures
	audit *audit.Store
	al    *auditlog.Logger
}

func setup(t *testing.T) (*env, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := audit.New(db)
	return &env{
		db:    db,
		fx:    testutil.NewFixtures(t, db),
		audit: store,
		al:    auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB, Course: auditlog.DB}),
	}, ctx
}

func TestEnroll(t *testing.T) {
	e, ctx := setup(t)
	svc := enrollments.NewService(e.db, enrollments.SelfProfessorAllow, e.al, zap.NewNop())
	u := e.fx.CreateUser(ctx, "John", "john@student.com")
	c := e.fx.CreateCourse(ctx, "Go", models.LevelBeginner, time.Time{})
	uctx := testutil.AsUser(ctx, u)

	got, err := svc.Enroll(uctx, enrollments.EnrollRequest{CourseID: c.ID.Hex()})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if got.Role != models.RoleStudent || got.UserID != u.ID || got.CourseID != c.ID {
		t.Errorf("enrollment = %+v, want STUDENT of %s", got, c.ID.Hex())
	}

	// Same course again, even with another role.
	for _, role := range []string{"", "STUDENT", "PROFESSOR"} {
		_, err := svc.Enroll(uctx, enrollments.EnrollRequest{CourseID: c.ID.Hex(), Role: role})
		if !errors.Is(err, apperr.AlreadyEnrolled) {
			t.Errorf("re-enroll role %q: err = %v, want AlreadyEnrolled", role, err)
		}
	}

	events, err := e.audit.GetByCourse(ctx, c.ID, 10)
	if err != nil || len(events) != 1 || events[0].EventType != audit.EventEnrolled {
		t.Errorf("audit events = %+v, %v", events, err)
	}
}

func TestEnroll_Errors(t *testing.T) {
	e, ctx := setup(t)
	svc := enrollments.NewService(e.db, "", nil, zap.NewNop())
	u := e.fx.CreateUser(ctx, "John", "john@student.com")
	c := e.fx.CreateCourse(ctx, "Go", models.LevelBeginner, time.Time{})

	tests := []struct {
		name string
		ctx  context.Context
		req  enrollments.EnrollRequest
		want error
	}{
		{"anonymous", ctx, enrollments.EnrollRequest{CourseID: c.ID.Hex()}, apperr.NotAuthenticated},
		{"unknown course", testutil.AsUser(ctx, u), enrollments.EnrollRequest{CourseID: "000000000000000000000000"}, apperr.NotFound},
		{"malformed course id", testutil.AsUser(ctx, u), enrollments.EnrollRequest{CourseID: "x"}, apperr.NotFound},
		{"bad role", testutil.AsUser(ctx, u), enrollments.EnrollRequest{CourseID: c.ID.Hex(), Role: "ADMIN"}, apperr.InvalidInput},
		{"bad role checked before caller", ctx, enrollments.EnrollRequest{CourseID: c.ID.Hex(), Role: "ADMIN"}, apperr.InvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Enroll(tt.ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	n, _ := e.db.Collection("enrollments").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("enrollments = %d, want 0", n)
	}
}

func TestEnroll_ConcurrentExactlyOne(t *testing.T) {
	e, ctx := setup(t)
	svc := enrollments.NewService(e.db, "", nil, zap.NewNop())
	u := e.fx.CreateUser(ctx, "John", "john@student.com")
	c := e.fx.CreateCourse(ctx, "Go", models.LevelBeginner, time.Time{})
	uctx := testutil.AsUser(ctx, u)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Enroll(uctx, enrollments.EnrollRequest{CourseID: c.ID.Hex()})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.AlreadyEnrolled):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful enrollments = %d, want 1", ok)
	}
	count, _ := e.db.Collection("enrollments").CountDocuments(ctx, bson.M{"user_id": u.ID, "course_id": c.ID})
	if count != 1 {
		t.Errorf("stored enrollments = %d, want 1", count)
	}
}

func TestEnroll_SelfProfessorAllowGrantsEditRights(t *testing.T) {
	e, ctx := setup(t)
	core, logs := observer.New(zapcore.WarnLevel)
	svc := enrollments.NewService(e.db, enrollments.SelfProfessorAllow, e.al, zap.New(core))
	courseSvc := courses.NewService(e.db, nil, zap.NewNop())

	u := e.fx.CreateUser(ctx, "Eve", "eve@test.com")
	c := e.fx.CreateCourse(ctx, "Go", models.LevelBeginner, time.Time{})
	uctx := testutil.AsUser(ctx, u)

	got, err := svc.Enroll(uctx, enrollments.EnrollRequest{CourseID: c.ID.Hex(), Role: "professor"})
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if got.Role != models.RoleProfessor {
		t.Fatalf("role = %q, want PROFESSOR", got.Role)
	}
	if logs.FilterMessage("user enrolled themselves as professor").Len() != 1 {
		t.Error("expected a warning for self professor enrollment")
	}
	n, _ := e.audit.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventSelfProfessorEnrollment})
	if n != 1 {
		t.Errorf("self_professor_enrollment events = %d, want 1", n)
	}

	title := "Renamed"
	if _, err := courseSvc.Update(uctx, c.ID.Hex(), courses.UpdateCourseRequest{Title: &title}); err != nil {
		t.Errorf("self-made professor should be able to edit: %v", err)
	}
}

func TestEnroll_SelfProfessorDeny(t *testing.T) {
	e, ctx := setup(t)
	svc := enrollments.NewService(e.db, enrollments.SelfProfessorDeny, e.al, zap.NewNop())
	u := e.fx.CreateUser(ctx, "Eve", "eve@test.com")
	c := e.fx.CreateCourse(ctx, "Go", models.LevelBeginner, time.Time{})
	uctx := testutil.AsUser(ctx, u)

	_, err := svc.Enroll(uctx, enrollments.EnrollRequest{CourseID: c.ID.Hex(), Role: models.RoleProfessor})
	if !errors.Is(err, apperr.NotAuthorized) {
		t.Fatalf("err = %v, want NotAuthorized", err)
	}

	// Students are unaffected by the policy.
	if _, err := svc.Enroll(uctx, enrollments.EnrollRequest{CourseID: c.ID.Hex()}); err != nil {
		t.Errorf("student enroll under deny policy failed: %v", err)
	}

	events, _ := e.audit.Query(ctx, audit.QueryFilter{EventType: audit.EventSelfProfessorEnrollment})
	if len(events) != 1 || events[0].Success {
		t.Errorf("expected one denied self_professor_enrollment event, got %+v", events)
	}
}

func TestUnenroll(t *testing.T) {
	e, ctx := setup(t)
	svc := enrollments.NewService(e.db, "", nil, zap.NewNop())
	prof := e.fx.CreateUser(ctx, "Jane", "jane@prof.com")
	c := e.fx.CreateProfessorCourse(ctx, prof, "Go")
	pctx := testutil.AsUser(ctx, prof)

	if _, err := svc.Unenroll(ctx, c.ID.Hex()); !errors.Is(err, apperr.NotAuthenticated) {
		t.Errorf("anonymous: err = %v, want NotAuthenticated", err)
	}

	// The last professor may leave; the course stays.
	ok, err := svc.Unenroll(pctx, c.ID.Hex())
	if err != nil || !ok {
		t.Fatalf("Unenroll = %v, %v", ok, err)
	}
	if n, _ := e.db.Collection("courses").CountDocuments(ctx, bson.M{"_id": c.ID}); n != 1 {
		t.Error("course must survive unenrollment")
	}

	for _, id := range []string{c.ID.Hex(), "bad-id"} {
		if _, err := svc.Unenroll(pctx, id); !errors.Is(err, apperr.EnrollmentNotFound) {
			t.Errorf("Unenroll(%q): err = %v, want EnrollmentNotFound", id, err)
		}
	}
}

func TestForUserAndForCourse(t *testing.T) {
	e, ctx := setup(t)
	svc := enrollments.NewService(e.db, "", nil, zap.NewNop())
	prof := e.fx.CreateUser(ctx, "Jane", "jane@prof.com")
	stu := e.fx.CreateUser(ctx, "John", "john@student.com")
	c1 := e.fx.CreateCourse(ctx, "Go", models.LevelBeginner, time.Time{})
	c2 := e.fx.CreateCourse(ctx, "Rust", models.LevelAdvanced, time.Time{})
	e1 := e.fx.CreateEnrollment(ctx, prof.ID, c1.ID, models.RoleProfessor)
	e2 := e.fx.CreateEnrollment(ctx, stu.ID, c1.ID, models.RoleStudent)
	e3 := e.fx.CreateEnrollment(ctx, stu.ID, c2.ID, models.RoleStudent)

	byCourse, err := svc.ForCourse(ctx, c1.ID.Hex())
	if err != nil || len(byCourse) != 2 || byCourse[0].ID != e1.ID || byCourse[1].ID != e2.ID {
		t.Errorf("ForCourse = %+v, %v", byCourse, err)
	}
	byUser, err := svc.ForUser(ctx, stu.ID.Hex())
	if err != nil || len(byUser) != 2 || byUser[0].ID != e2.ID || byUser[1].ID != e3.ID {
		t.Errorf("ForUser = %+v, %v", byUser, err)
	}
	empty, err := svc.ForUser(ctx, "nope")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("ForUser(bad id) = %#v, %v; want empty", empty, err)
	}
}
