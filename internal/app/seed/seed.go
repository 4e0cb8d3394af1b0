// Package seed loads the demo data set: three users sharing the password
// "password123", four courses, and four enrollments.
package seed

import (
	"context"
	"fmt"

	coursestore "github.com/dalemusser/coursehub/internal/app/store/courses"
	enrollmentstore "github.com/dalemusser/coursehub/internal/app/store/enrollments"
	userstore "github.com/dalemusser/coursehub/internal/app/store/users"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

type demoUser struct{ key, name, email string }

type demoCourse struct{ key, title, description, level string }

type demoEnrollment struct{ user, course, role string }

var demoUsers = []demoUser{
	{"student", "John Student", "john@student.com"},
	{"professor", "Dr. Jane Professor", "jane@professor.com"},
	{"admin", "Admin User", "admin@edutech.com"},
}

var demoCourses = []demoCourse{
	{"react", "React Fundamentals",
		"Learn the basics of React including components, state management, and hooks. Perfect for beginners who want to start building modern web applications.",
		models.LevelBeginner},
	{"node", "Node.js Backend Development",
		"Master backend development with Node.js, Express, and databases. Build robust APIs and server-side applications.",
		models.LevelIntermediate},
	{"fullstack", "Full Stack Web Development",
		"Complete full-stack development course covering React, Node.js, databases, and deployment. Advanced project-based learning.",
		models.LevelAdvanced},
	{"python", "Python for Data Science",
		"Learn Python programming with focus on data analysis, machine learning, and visualization using pandas, numpy, and matplotlib.",
		models.LevelIntermediate},
}

var demoEnrollments = []demoEnrollment{
	{"student", "react", models.RoleStudent},
	{"professor", "react", models.RoleProfessor},
	{"professor", "node", models.RoleProfessor},
	{"student", "python", models.RoleStudent},
}

// Result counts what Demo inserted. Skipped is set when users already
// existed and nothing was written.
type Result struct {
	Users       int
	Courses     int
	Enrollments int
	Skipped     bool
}

// Demo inserts the demo data set unless the users collection is non-empty.
// It is not transactional; run it against an empty database.
func Demo(ctx context.Context, db *mongo.Database, logger *zap.Logger) (Result, error) {
	users := userstore.New(db)
	courses := coursestore.New(db)
	enrollments := enrollmentstore.New(db)

	n, err := users.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		logger.Info("users already present; skipping seed", zap.Int64("users", n))
		return Result{Skipped: true}, nil
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return Result{}, fmt.Errorf("hash demo password: %w", err)
	}

	var res Result
	seededUsers := make(map[string]models.User, len(demoUsers))
	for _, du := range demoUsers {
		u, err := users.Create(ctx, models.User{Name: du.name, Email: du.email, PasswordHash: hash})
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", du.email, err)
		}
		seededUsers[du.key] = u
		res.Users++
	}

	seededCourses := make(map[string]models.Course, len(demoCourses))
	for _, dc := range demoCourses {
		c, err := courses.Create(ctx, models.Course{Title: dc.title, Description: dc.description, Level: dc.level})
		if err != nil {
			return res, fmt.Errorf("create course %q: %w", dc.title, err)
		}
		seededCourses[dc.key] = c
		res.Courses++
	}

	for _, de := range demoEnrollments {
		if _, err := enrollments.Add(ctx, seededUsers[de.user].ID, seededCourses[de.course].ID, de.role); err != nil {
			return res, fmt.Errorf("enroll %s in %s: %w", de.user, de.course, err)
		}
		res.Enrollments++
	}

	logger.Info("database seeded",
		zap.Int("users", res.Users),
		zap.Int("courses", res.Courses),
		zap.Int("enrollments", res.Enrollments))
	return res, nil
}
