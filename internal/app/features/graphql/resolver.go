package graphql

import (
	"context"

	"github.com/dalemusser/coursehub/internal/app/features/accounts"
	"github.com/dalemusser/coursehub/internal/app/features/courses"
	"github.com/dalemusser/coursehub/internal/app/features/enrollments"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	gql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	accounts    *accounts.Service
	courses     *courses.Service
	enrollments *enrollments.Service
	log         *zap.Logger
}

// NewResolver wires the root resolver to the feature services.
func NewResolver(acc *accounts.Service, crs *courses.Service, enr *enrollments.Service, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{accounts: acc, courses: crs, enrollments: enr, log: logger}
}

// fail converts a service error into what the client sees. *apperr.Error
// values pass through and carry their code in extensions; anything else is
// logged and replaced with apperr.Internal.
//
// graphql-go reads Extensions from the returned value itself, not from the
// wrapped chain, so the *apperr.Error must be returned unwrapped.
func (r *Resolver) fail(op string, err error) error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	r.log.Error("graphql resolver failed", zap.String("op", op), zap.Error(err))
	return apperr.Internal
}

func (r *Resolver) users(list []models.User) []*userResolver {
	out := make([]*userResolver, len(list))
	for i := range list {
		out[i] = &userResolver{root: r, u: list[i]}
	}
	return out
}

func (r *Resolver) courseList(list []models.Course) []*courseResolver {
	out := make([]*courseResolver, len(list))
	for i := range list {
		out[i] = &courseResolver{root: r, c: list[i]}
	}
	return out
}

func (r *Resolver) enrollmentList(list []models.Enrollment) []*enrollmentResolver {
	batch := &enrollmentBatch{root: r, list: list}
	out := make([]*enrollmentResolver, len(list))
	for i := range list {
		out[i] = &enrollmentResolver{batch: batch, e: list[i]}
	}
	return out
}

/*─────────────────────────────────────────────────────────────────────────────
  Queries
─────────────────────────────────────────────────────────────────────────────*/

func (r *Resolver) Courses(ctx context.Context) ([]*courseResolver, error) {
	list, err := r.courses.List(ctx)
	if err != nil {
		return nil, r.fail("courses", err)
	}
	return r.courseList(list), nil
}

func (r *Resolver) Course(ctx context.Context, args struct{ ID gql.ID }) (*courseResolver, error) {
	c, err := r.courses.Get(ctx, string(args.ID))
	if err != nil {
		return nil, r.fail("course", err)
	}
	return &courseResolver{root: r, c: *c}, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	u, err := r.accounts.Me(ctx)
	if err != nil {
		return nil, r.fail("me", err)
	}
	if u == nil {
		return nil, nil
	}
	return &userResolver{root: r, u: *u}, nil
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	list, err := r.accounts.Users(ctx)
	if err != nil {
		return nil, r.fail("users", err)
	}
	return r.users(list), nil
}

func (r *Resolver) UserEnrollments(ctx context.Context, args struct{ UserID gql.ID }) ([]*enrollmentResolver, error) {
	list, err := r.enrollments.ForUser(ctx, string(args.UserID))
	if err != nil {
		return nil, r.fail("userEnrollments", err)
	}
	return r.enrollmentList(list), nil
}

func (r *Resolver) CourseEnrollments(ctx context.Context, args struct{ CourseID gql.ID }) ([]*enrollmentResolver, error) {
	list, err := r.enrollments.ForCourse(ctx, string(args.CourseID))
	if err != nil {
		return nil, r.fail("courseEnrollments", err)
	}
	return r.enrollmentList(list), nil
}

/*─────────────────────────────────────────────────────────────────────────────
  Mutations
─────────────────────────────────────────────────────────────────────────────*/

func (r *Resolver) Login(ctx context.Context, args struct{ Email, Password string }) (*authPayloadResolver, error) {
	p, err := r.accounts.Login(ctx, accounts.LoginRequest{Email: args.Email, Password: args.Password})
	if err != nil {
		return nil, r.fail("login", err)
	}
	return &authPayloadResolver{root: r, p: p}, nil
}

func (r *Resolver) Register(ctx context.Context, args struct{ Name, Email, Password string }) (*authPayloadResolver, error) {
	p, err := r.accounts.Register(ctx, accounts.RegisterRequest{
		Name:     args.Name,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, r.fail("register", err)
	}
	return &authPayloadResolver{root: r, p: p}, nil
}

type courseInput struct {
	Title       string
	Description string
	Level       string
}

type updateCourseInput struct {
	Title       *string
	Description *string
	Level       *string
}

func (r *Resolver) CreateCourse(ctx context.Context, args struct{ Input courseInput }) (*courseResolver, error) {
	c, err := r.courses.Create(ctx, courses.CreateCourseRequest{
		Title:       args.Input.Title,
		Description: args.Input.Description,
		Level:       args.Input.Level,
	})
	if err != nil {
		return nil, r.fail("createCourse", err)
	}
	return &courseResolver{root: r, c: c}, nil
}

func (r *Resolver) UpdateCourse(ctx context.Context, args struct {
	ID    gql.ID
	Input updateCourseInput
}) (*courseResolver, error) {
	c, err := r.courses.Update(ctx, string(args.ID), courses.UpdateCourseRequest{
		Title:       args.Input.Title,
		Description: args.Input.Description,
		Level:       args.Input.Level,
	})
	if err != nil {
		return nil, r.fail("updateCourse", err)
	}
	return &courseResolver{root: r, c: *c}, nil
}

func (r *Resolver) DeleteCourse(ctx context.Context, args struct{ ID gql.ID }) (bool, error) {
	ok, err := r.courses.Delete(ctx, string(args.ID))
	if err != nil {
		return false, r.fail("deleteCourse", err)
	}
	return ok, nil
}

func (r *Resolver) EnrollInCourse(ctx context.Context, args struct {
	CourseID gql.ID
	Role     string
}) (*enrollmentResolver, error) {
	req := enrollments.EnrollRequest{CourseID: string(args.CourseID), Role: args.Role}
	e, err := r.enrollments.Enroll(ctx, req)
	if err != nil {
		return nil, r.fail("enrollInCourse", err)
	}
	return r.enrollmentList([]models.Enrollment{e})[0], nil
}

func (r *Resolver) UnenrollFromCourse(ctx context.Context, args struct{ CourseID gql.ID }) (bool, error) {
	ok, err := r.enrollments.Unenroll(ctx, string(args.CourseID))
	if err != nil {
		return false, r.fail("unenrollFromCourse", err)
	}
	return ok, nil
}
