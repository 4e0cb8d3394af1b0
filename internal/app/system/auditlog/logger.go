// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/coursehub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, registration).
	Auth string
	// Course controls logging for course and enrollment changes.
	Course string
}

// ValidSetting reports whether s is one of All, DB, Log, Off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// client carries request metadata into service calls, which only see a context.
type client struct {
	ip        string
	userAgent string
}

type clientKey struct{}

// WithClient returns a copy of ctx carrying the caller's IP and user agent.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, client{ip: ip, userAgent: userAgent})
}

func clientFrom(ctx context.Context) client {
	c, _ := ctx.Value(clientKey{}).(client)
	return c
}

// CaptureClient is middleware that stores r.RemoteAddr and the User-Agent in
// the request context. Mount it after middleware.RealIP so proxies are honored.
func CaptureClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClient(r.Context(), r.RemoteAddr, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.CourseID != nil {
		fields = append(fields, zap.String("course_id", event.CourseID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// IP and user agent are filled from ctx when the event leaves them empty.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryCourse:
		setting = l.config.Course
	default:
		setting = All
	}
	if setting == Off || setting == "" {
		return
	}

	c := clientFrom(ctx)
	if event.IP == "" {
		event.IP = c.ip
	}
	if event.UserAgent == "" {
		event.UserAgent = c.userAgent
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}

	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a failed login. userID is nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		UserID:        userID,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": email},
	})
}

// LoginRateLimited logs a login refused by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginRateLimited,
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details:       map[string]string{"attempted_email": email},
	})
}

// UserRegistered logs a new account.
func (l *Logger) UserRegistered(ctx context.Context, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventUserRegistered,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// --- Course Events ---

// CourseCreated logs a new course and its creator.
func (l *Logger) CourseCreated(ctx context.Context, actorID, courseID primitive.ObjectID, title string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryCourse,
		EventType: audit.EventCourseCreated,
		ActorID:   &actorID,
		CourseID:  &courseID,
		Success:   true,
		Details:   map[string]string{"title": title},
	})
}

// CourseUpdated logs a course edit. fieldsChanged is a comma-separated list.
func (l *Logger) CourseUpdated(ctx context.Context, actorID, courseID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryCourse,
		EventType: audit.EventCourseUpdated,
		ActorID:   &actorID,
		CourseID:  &courseID,
		Success:   true,
		Details:   map[string]string{"fields_changed": fieldsChanged},
	})
}

// CourseDeleted logs a course removal and how many enrollments went with it.
func (l *Logger) CourseDeleted(ctx context.Context, actorID, courseID primitive.ObjectID, enrollmentsRemoved int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryCourse,
		EventType: audit.EventCourseDeleted,
		ActorID:   &actorID,
		CourseID:  &courseID,
		Success:   true,
		Details:   map[string]string{"enrollments_removed": int64ToString(enrollmentsRemoved)},
	})
}

// Enrolled logs a user joining a course.
func (l *Logger) Enrolled(ctx context.Context, userID, courseID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryCourse,
		EventType: audit.EventEnrolled,
		UserID:    &userID,
		ActorID:   &userID,
		CourseID:  &courseID,
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

// Unenrolled logs a user leaving a course.
func (l *Logger) Unenrolled(ctx context.Context, userID, courseID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryCourse,
		EventType: audit.EventUnenrolled,
		UserID:    &userID,
		ActorID:   &userID,
		CourseID:  &courseID,
		Success:   true,
	})
}

// SelfProfessorEnrollment logs a user granting themselves PROFESSOR on a
// course. allowed is false when policy rejected the attempt.
func (l *Logger) SelfProfessorEnrollment(ctx context.Context, userID, courseID primitive.ObjectID, allowed bool) {
	e := audit.Event{
		Category:  audit.CategoryCourse,
		EventType: audit.EventSelfProfessorEnrollment,
		UserID:    &userID,
		ActorID:   &userID,
		CourseID:  &courseID,
		Success:   allowed,
	}
	if !allowed {
		e.FailureReason = "self professor enrollment denied"
	}
	l.Log(ctx, e)
}

// --- Helper functions ---

func int64ToString(i int64) string {
	return strconv.FormatInt(i, 10)
}
