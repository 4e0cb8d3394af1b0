// internal/app/features/accounts/service.go
package accounts

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/apperr"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/authz"
	"github.com/dalemusser/coursehub/internal/app/system/inputval"
	"github.com/dalemusser/coursehub/internal/app/system/normalize"
	"github.com/dalemusser/coursehub/internal/app/system/ratelimit"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service issues credentials and serves account reads.
type Service struct {
	users   *userstore.Store
	tokens  *auth.Tokens
	limiter *ratelimit.LoginLimiter
	audit   *auditlog.Logger
	log     *zap.Logger
}

// NewService wires the accounts feature. limiter and audit may be nil.
func NewService(db *mongo.Database, tokens *auth.Tokens, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:   userstore.New(db),
		tokens:  tokens,
		limiter: limiter,
		audit:   audit,
		log:     logger,
	}
}

// LoginRequest carries login credentials as typed by the user.
type LoginRequest struct {
	Email    string
	Password string
}

// RegisterRequest carries a new account.
type RegisterRequest struct {
	Name     string `validate:"required,max=200" label:"Name"`
	Email    string `validate:"required,max=254,mailaddr" label:"Email"`
	Password string `validate:"required,min=6,max=72,maxbytes=72" label:"Password"`
}

// AuthPayload is returned by Login and Register.
type AuthPayload struct {
	Token string
	User  models.User
}

// Login verifies email and password and returns a fresh token.
// An unknown email and a wrong password fail with the same
// apperr.InvalidCredentials so callers cannot probe for accounts.
func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthPayload, error) {
	email := normalize.Email(req.Email)

	if !s.limiter.Allow(email) {
		s.audit.LoginRateLimited(ctx, email)
		return AuthPayload{}, apperr.RateLimited
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "login")
	defer cancel()

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.audit.LoginFailed(ctx, nil, email, "user not found")
		return AuthPayload{}, apperr.InvalidCredentials
	}
	if err != nil {
		return AuthPayload{}, fmt.Errorf("login lookup: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.audit.LoginFailed(ctx, &u.ID, email, "wrong password")
		return AuthPayload{}, apperr.InvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID.Hex())
	if err != nil {
		return AuthPayload{}, fmt.Errorf("issue token: %w", err)
	}

	s.limiter.ResetEmail(email)
	s.audit.LoginSuccess(ctx, u.ID, email)
	return AuthPayload{Token: token, User: *u}, nil
}

// Register creates an account and returns a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (AuthPayload, error) {
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)
	if res := inputval.Validate(req); res.HasErrors() {
		return AuthPayload{}, apperr.Invalid(res.First())
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "register")
	defer cancel()

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return AuthPayload{}, apperr.UserExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return AuthPayload{}, fmt.Errorf("register lookup: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return AuthPayload{}, fmt.Errorf("hash password: %w", err)
	}

	// A concurrent registration for the same email can pass the lookup
	// above; the unique index turns the loser into ErrDuplicateEmail.
	u, err := s.users.Create(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return AuthPayload{}, apperr.UserExists
	}
	if err != nil {
		return AuthPayload{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID.Hex())
	if err != nil {
		return AuthPayload{}, fmt.Errorf("issue token: %w", err)
	}

	s.audit.UserRegistered(ctx, u.ID, u.Email)
	return AuthPayload{Token: token, User: u}, nil
}

// Me returns the caller's account. A caller whose account disappeared after
// the token was resolved gets (nil, nil).
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	caller, err := authz.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), s.log, "me")
	defer cancel()

	u, err := s.users.GetByID(ctx, caller.UserID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load me: %w", err)
	}
	return u, nil
}

// Users lists every account in insertion order.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "list users")
	defer cancel()

	out, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// UsersByID loads the given accounts keyed by id in one query. Missing ids
// are absent from the map.
func (s *Service) UsersByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.log, "load users")
	defer cancel()

	out, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return out, nil
}
