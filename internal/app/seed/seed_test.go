package seed_test

import (
	"testing"

	"github.com/dalemusser/coursehub/internal/app/seed"
	enrollmentstore "github.com/dalemusser/coursehub/internal/app/store/enrollments"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/indexes"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.uber.org/zap"
)

func TestDemo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	res, err := seed.Demo(ctx, db, zap.NewNop())
	if err != nil {
		t.Fatalf("Demo failed: %v", err)
	}
	if res != (seed.Result{Users: 3, Courses: 4, Enrollments: 4}) {
		t.Errorf("result = %+v", res)
	}

	prof, err := userstore.New(db).GetByEmail(ctx, "jane@professor.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !auth.CheckPassword(prof.PasswordHash, seed.DemoPassword) {
		t.Error("demo password does not verify")
	}
	list, err := enrollmentstore.New(db).ListByUser(ctx, prof.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].Role != models.RoleProfessor || list[1].Role != models.RoleProfessor {
		t.Errorf("professor enrollments = %+v", list)
	}

	// A second run leaves the data alone.
	again, err := seed.Demo(ctx, db, zap.NewNop())
	if err != nil || !again.Skipped {
		t.Errorf("second run = %+v, %v; want skipped", again, err)
	}
	if n, _ := userstore.New(db).Count(ctx); n != 3 {
		t.Errorf("users after second run = %d, want 3", n)
	}
}
