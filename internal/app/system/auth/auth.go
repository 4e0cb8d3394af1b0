// Package auth resolves bearer tokens to the user making a request.
//
// Identity is what the rest of the app sees: it is built from the stored
// user on every request (one read per request), so a deleted user loses
// access immediately even while their token is still unexpired.
package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Identity is the authenticated caller, injected into the request context.
type Identity struct {
	ID    string // user ObjectID hex
	Name  string
	Email string
}

// UserFetcher loads the current state of a user. Implementations return nil
// when the user does not exist or anything goes wrong; they never error.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *Identity
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// CurrentIdentity returns the identity stored by LoadBearerUser, if any.
func CurrentIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// Verifier turns a raw token into an Identity.
type Verifier struct {
	tokens *Tokens
	users  UserFetcher
	log    *zap.Logger
}

// NewVerifier creates a Verifier that checks signatures with tokens and
// loads users through users.
func NewVerifier(tokens *Tokens, users UserFetcher, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{tokens: tokens, users: users, log: logger}
}

// Resolve returns the identity for token, or nil when the token is empty,
// malformed, signed with another key or algorithm, expired, missing its
// user id, or names a user that no longer exists. It never returns an error;
// an unauthenticated caller is a normal outcome.
func (v *Verifier) Resolve(ctx context.Context, token string) *Identity {
	if token == "" {
		return nil
	}
	userID, err := v.tokens.Parse(token)
	if err != nil {
		v.log.Debug("bearer token rejected", zap.Error(err))
		return nil
	}
	return v.users.FetchUser(ctx, userID)
}

// LoadBearerUser resolves the Authorization header and stores the identity in
// the request context. Requests without a valid token pass through
// unauthenticated; individual operations decide whether that is allowed.
func (v *Verifier) LoadBearerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := v.Resolve(r.Context(), BearerToken(r)); id != nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
// A header without the scheme is taken as the bare token.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}
