package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequireAuthenticated(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{"no identity", context.Background(), apperr.NotAuthenticated},
		{"malformed id", auth.WithIdentity(context.Background(), &auth.Identity{ID: "nope"}), apperr.NotAuthenticated},
		{"valid identity", auth.WithIdentity(context.Background(), &auth.Identity{ID: oid.Hex(), Name: "Jane"}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller, err := authz.RequireAuthenticated(tt.ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err: got %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && caller.UserID != oid {
				t.Errorf("UserID: got %s, want %s", caller.UserID.Hex(), oid.Hex())
			}
		})
	}
}
