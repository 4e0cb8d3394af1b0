package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/domain/models"
)

// IdentityOf converts a stored user into the identity the verifier would
// produce for them.
func IdentityOf(u models.User) *auth.Identity {
	return &auth.Identity{ID: u.ID.Hex(), Name: u.Name, Email: u.Email}
}

// AsUser returns a context carrying u's identity, bypassing token
// verification. Use it to call services directly.
func AsUser(ctx context.Context, u models.User) context.Context {
	return auth.WithIdentity(ctx, IdentityOf(u))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates an HTTP request with u's identity in context.
func NewAuthenticatedRequest(method, target string, body io.Reader, u models.User) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(AsUser(req.Context(), u))
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
