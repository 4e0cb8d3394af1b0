// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (COURSEHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, log level and the environment name; everything specific
// to coursehub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Identity tokens
	JWTSecret string        // HS256 signing key (must be strong in production)
	TokenTTL  time.Duration // 0 disables expiry

	// Browser origins allowed to call /graphql with credentials.
	CORSOrigins []string

	// Whether enrollInCourse may self-assign PROFESSOR: "allow" or "deny".
	SelfProfessorEnroll string

	// Login throttling per email. A limit of 0 disables it.
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Audit logging destinations: "all", "db", "log", or "off".
	AuditLogAuth   string
	AuditLogCourse string

	// MongoDB operation deadlines (see internal/app/system/timeouts).
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
