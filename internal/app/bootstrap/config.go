// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coursehub/internal/app/features/enrollments"
	"github.com/dalemusser/coursehub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the out-of-the-box signing key. ValidateConfig refuses it
// in prod.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest JWT secret accepted in prod.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for coursehub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: COURSEHUB_MONGO_URI, COURSEHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "coursehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	// Identity tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing key for identity tokens (must be strong in production)"},
	{Name: "token_ttl", Default: "72h", Desc: "Identity token lifetime (e.g., 72h, 30m); 0 disables expiry"},

	// Transport
	{Name: "cors_origins", Default: "http://localhost:3000,http://127.0.0.1:3000", Desc: "Comma-separated origins allowed to call /graphql"},

	// Enrollment policy
	{Name: "self_professor_enroll", Default: enrollments.SelfProfessorAllow, Desc: "Whether users may enroll themselves as PROFESSOR: 'allow' or 'deny'"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per email per window (0 disables)"},
	{Name: "login_rate_window", Default: "15m", Desc: "Login rate limit window"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_course", Default: "all", Desc: "Course and enrollment event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// MongoDB deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for lists and single-document writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection units of work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, COURSEHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COURSEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	// token_ttl is parsed here rather than with appValues.Duration so that an
	// explicit 0 means "no expiry" instead of "use the default".
	ttl, err := time.ParseDuration(strings.TrimSpace(appValues.String("token_ttl")))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("invalid token_ttl: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		TokenTTL:  ttl,

		CORSOrigins: splitList(appValues.String("cors_origins")),

		SelfProfessorEnroll: strings.ToLower(strings.TrimSpace(appValues.String("self_professor_enroll"))),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogCourse: appValues.String("audit_log_course"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		return errors.New("mongo_database must not be empty")
	}

	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret {
			return errors.New("jwt_secret must be changed from the development default in prod")
		}
		if len(appCfg.JWTSecret) < minProdSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d bytes in prod", minProdSecretLen)
		}
	} else if appCfg.JWTSecret == devJWTSecret {
		logger.Warn("using the development jwt_secret; set COURSEHUB_JWT_SECRET before deploying")
	}
	if appCfg.TokenTTL < 0 {
		return fmt.Errorf("token_ttl must not be negative, got %s", appCfg.TokenTTL)
	}

	switch appCfg.SelfProfessorEnroll {
	case enrollments.SelfProfessorAllow, enrollments.SelfProfessorDeny:
	default:
		return fmt.Errorf("self_professor_enroll must be %q or %q, got %q",
			enrollments.SelfProfessorAllow, enrollments.SelfProfessorDeny, appCfg.SelfProfessorEnroll)
	}

	if appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("login_rate_limit must not be negative, got %d", appCfg.LoginRateLimit)
	}
	if appCfg.LoginRateLimit > 0 && appCfg.LoginRateWindow <= 0 {
		return errors.New("login_rate_window must be positive when login_rate_limit is set")
	}

	if !auditlog.ValidSetting(appCfg.AuditLogAuth) {
		return fmt.Errorf("audit_log_auth must be one of all, db, log, off; got %q", appCfg.AuditLogAuth)
	}
	if !auditlog.ValidSetting(appCfg.AuditLogCourse) {
		return fmt.Errorf("audit_log_course must be one of all, db, log, off; got %q", appCfg.AuditLogCourse)
	}

	if len(appCfg.CORSOrigins) == 0 {
		logger.Warn("cors_origins is empty; browsers on other origins cannot call /graphql")
	}
	return nil
}
