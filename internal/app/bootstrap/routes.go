// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/dalemusser/coursehub/internal/app/features/accounts"
	coursesfeature "github.com/dalemusser/coursehub/internal/app/features/courses"
	enrollmentsfeature "github.com/dalemusser/coursehub/internal/app/features/enrollments"
	graphqlfeature "github.com/dalemusser/coursehub/internal/app/features/graphql"
	healthfeature "github.com/dalemusser/coursehub/internal/app/features/health"
	auditstore "github.com/dalemusser/coursehub/internal/app/store/audit"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Routes:
//
//	GET  /health   database liveness
//	POST /graphql  the GraphQL API
//
// Every request passes through the bearer-token middleware, which attaches
// the caller's identity when the token is valid and the user still exists.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tokens, err := auth.NewTokens(appCfg.JWTSecret, appCfg.TokenTTL)
	if err != nil {
		logger.Error("token signer init failed", zap.Error(err))
		return nil, err
	}
	verifier := auth.NewVerifier(tokens, userstore.NewFetcher(db), logger)

	audit := auditlog.New(auditstore.New(db), logger, auditlog.Config{
		Auth:   appCfg.AuditLogAuth,
		Course: appCfg.AuditLogCourse,
	})

	accounts := accountsfeature.NewService(db, tokens, deps.LoginLimiter, audit, logger)
	courses := coursesfeature.NewService(db, audit, logger)
	enrollments := enrollmentsfeature.NewService(db, appCfg.SelfProfessorEnroll, audit, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(appCfg.CORSOrigins)))

	// Client IP and user agent for audit events; after RealIP.
	r.Use(auditlog.CaptureClient)

	// Global auth middleware: loads the bearer identity into context if valid.
	r.Use(verifier.LoadBearerUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	root := graphqlfeature.NewResolver(accounts, courses, enrollments, logger)
	r.Mount("/graphql", graphqlfeature.Routes(graphqlfeature.NewHandler(root, logger)))

	return r, nil
}

// corsOptions allows credentialed requests from origins. An empty list
// allows no cross-origin callers rather than go-chi/cors's "*" default.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return opts
}
