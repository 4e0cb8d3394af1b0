package userstore_test

import (
	"context"
	"errors"
	"testing"

	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/indexes"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreate_NormalizesEmailAndName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := userstore.New(db)
	u, err := store.Create(ctx, models.User{Name: "  Jane Professor ", Email: " Jane@Professor.COM ", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.Email != "jane@professor.com" {
		t.Errorf("email: got %q, want %q", u.Email, "jane@professor.com")
	}
	if u.Name != "Jane Professor" {
		t.Errorf("name: got %q, want %q", u.Name, "Jane Professor")
	}
	if u.NameCI != "jane professor" {
		t.Errorf("name_ci: got %q, want %q", u.NameCI, "jane professor")
	}

	got, err := store.GetByEmail(ctx, "JANE@professor.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail id: got %s, want %s", got.ID.Hex(), u.ID.Hex())
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	store := userstore.New(db)
	if _, err := store.Create(ctx, models.User{Name: "A", Email: "dup@test.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "B", Email: "DUP@test.com", PasswordHash: "y"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("second Create: got %v, want ErrDuplicateEmail", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := userstore.New(db).GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID: got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestListAndGetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	a := fx.CreateUser(ctx, "Alice", "alice@test.com")
	b := fx.CreateUser(ctx, "Bob", "bob@test.com")

	store := userstore.New(db)
	users, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 || users[0].ID != a.ID || users[1].ID != b.ID {
		t.Fatalf("List: got %d users in unexpected order", len(users))
	}

	byID, err := store.GetByIDs(ctx, []primitive.ObjectID{b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(byID) != 1 || byID[b.ID].Name != "Bob" {
		t.Errorf("GetByIDs: got %v", byID)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count: got %d, %v; want 2", n, err)
	}
}

func TestFetcher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "John Student", "john@student.com")
	f := userstore.NewFetcher(db)

	tests := []struct {
		name   string
		id     string
		wantOK bool
	}{
		{"existing user", u.ID.Hex(), true},
		{"unknown user", primitive.NewObjectID().Hex(), false},
		{"malformed id", "not-an-id", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := f.FetchUser(ctx, tt.id)
			if (id != nil) != tt.wantOK {
				t.Fatalf("FetchUser(%q): got %+v, want present=%v", tt.id, id, tt.wantOK)
			}
			if id != nil && (id.Name != "John Student" || id.Email != "john@student.com") {
				t.Errorf("identity: got %+v", id)
			}
		})
	}
}

func TestFetcher_CanceledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "John", "john@test.com")

	dead, stop := context.WithCancel(context.Background())
	stop()
	if id := userstore.NewFetcher(db).FetchUser(dead, u.ID.Hex()); id != nil {
		t.Errorf("expected nil identity on failed read, got %+v", id)
	}
}
