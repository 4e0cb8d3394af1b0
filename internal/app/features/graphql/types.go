package graphql

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dalemusser/coursehub/internal/app/features/accounts"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/domain/models"
	gql "github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func epochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

type userResolver struct {
	root *Resolver
	u    models.User
}

func (r *userResolver) ID() gql.ID    { return gql.ID(r.u.ID.Hex()) }
func (r *userResolver) Name() string  { return r.u.Name }
func (r *userResolver) Email() string { return r.u.Email }

func (r *userResolver) Enrollments(ctx context.Context) ([]*enrollmentResolver, error) {
	list, err := r.root.enrollments.ForUser(ctx, r.u.ID.Hex())
	if err != nil {
		return nil, r.root.fail("User.enrollments", err)
	}
	return r.root.enrollmentList(list), nil
}

type courseResolver struct {
	root *Resolver
	c    models.Course
}

func (r *courseResolver) ID() gql.ID          { return gql.ID(r.c.ID.Hex()) }
func (r *courseResolver) Title() string       { return r.c.Title }
func (r *courseResolver) Description() string { return r.c.Description }
func (r *courseResolver) Level() string       { return r.c.Level }
func (r *courseResolver) CreatedAt() string   { return epochMillis(r.c.CreatedAt) }
func (r *courseResolver) UpdatedAt() string   { return epochMillis(r.c.UpdatedAt) }

func (r *courseResolver) Enrollments(ctx context.Context) ([]*enrollmentResolver, error) {
	list, err := r.root.enrollments.ForCourse(ctx, r.c.ID.Hex())
	if err != nil {
		return nil, r.root.fail("Course.enrollments", err)
	}
	return r.root.enrollmentList(list), nil
}

// enrollmentBatch is shared by the rows of one enrollment list so that
// Enrollment.user and Enrollment.course cost one query each per list, not per
// row. Loads happen on first use; rows may resolve concurrently.
type enrollmentBatch struct {
	root *Resolver
	list []models.Enrollment

	usersOnce sync.Once
	users     map[primitive.ObjectID]models.User
	usersErr  error

	coursesOnce sync.Once
	courses     map[primitive.ObjectID]models.Course
	coursesErr  error
}

func (b *enrollmentBatch) loadUsers(ctx context.Context) (map[primitive.ObjectID]models.User, error) {
	b.usersOnce.Do(func() {
		ids := make([]primitive.ObjectID, 0, len(b.list))
		for _, e := range b.list {
			ids = append(ids, e.UserID)
		}
		b.users, b.usersErr = b.root.accounts.UsersByID(ctx, ids)
	})
	return b.users, b.usersErr
}

func (b *enrollmentBatch) loadCourses(ctx context.Context) (map[primitive.ObjectID]models.Course, error) {
	b.coursesOnce.Do(func() {
		ids := make([]primitive.ObjectID, 0, len(b.list))
		for _, e := range b.list {
			ids = append(ids, e.CourseID)
		}
		b.courses, b.coursesErr = b.root.courses.ByID(ctx, ids)
	})
	return b.courses, b.coursesErr
}

type enrollmentResolver struct {
	batch *enrollmentBatch
	e     models.Enrollment
}

func (r *enrollmentResolver) ID() gql.ID   { return gql.ID(r.e.ID.Hex()) }
func (r *enrollmentResolver) Role() string { return r.e.Role }

func (r *enrollmentResolver) User(ctx context.Context) (*userResolver, error) {
	users, err := r.batch.loadUsers(ctx)
	if err != nil {
		return nil, r.batch.root.fail("Enrollment.user", err)
	}
	u, ok := users[r.e.UserID]
	if !ok {
		return nil, apperr.NotFound
	}
	return &userResolver{root: r.batch.root, u: u}, nil
}

func (r *enrollmentResolver) Course(ctx context.Context) (*courseResolver, error) {
	courses, err := r.batch.loadCourses(ctx)
	if err != nil {
		return nil, r.batch.root.fail("Enrollment.course", err)
	}
	c, ok := courses[r.e.CourseID]
	if !ok {
		return nil, apperr.CourseNotFound()
	}
	return &courseResolver{root: r.batch.root, c: c}, nil
}

type authPayloadResolver struct {
	root *Resolver
	p    accounts.AuthPayload
}

func (r *authPayloadResolver) Token() string { return r.p.Token }

func (r *authPayloadResolver) User() *userResolver {
	return &userResolver{root: r.root, u: r.p.User}
}
