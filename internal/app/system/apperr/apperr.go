// Package apperr defines the error taxonomy returned by coursehub services.
//
// Every error a client is allowed to see is an *Error with a stable Code and
// a human-readable Message. The GraphQL layer copies Code into the response's
// "extensions.code" field, so clients can branch on Code and show Message.
//
// Errors compare by Code:
//
//	errors.Is(err, apperr.NotAuthorized) // true for any NOT_AUTHORIZED message variant
//
// Anything that is not an *Error (storage failures, timeouts) is internal and
// must be logged and replaced with a generic message before it reaches a client.
package apperr

import (
	"errors"
	"fmt"
)

// Codes.
const (
	CodeNotAuthenticated   = "UNAUTHENTICATED"
	CodeNotAuthorized      = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUserExists         = "USER_EXISTS"
	CodeAlreadyEnrolled    = "ALREADY_ENROLLED"
	CodeEnrollmentNotFound = "ENROLLMENT_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidInput       = "BAD_USER_INPUT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// Error is a client-visible failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Extensions is read by graphql-go and rendered under "extensions".
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

// New returns an *Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	NotAuthenticated   = New(CodeNotAuthenticated, "Not authenticated")
	NotAuthorized      = New(CodeNotAuthorized, "Not authorized")
	InvalidCredentials = New(CodeInvalidCredentials, "Invalid credentials")
	UserExists         = New(CodeUserExists, "User already exists")
	AlreadyEnrolled    = New(CodeAlreadyEnrolled, "Already enrolled in this course")
	EnrollmentNotFound = New(CodeEnrollmentNotFound, "Enrollment not found")
	NotFound           = New(CodeNotFound, "Not found")
	InvalidInput       = New(CodeInvalidInput, "Invalid input")
	RateLimited        = New(CodeRateLimited, "Too many login attempts")
	Internal           = New(CodeInternal, "Internal server error")
)

// Forbidden returns a NOT_AUTHORIZED error naming the attempted action,
// e.g. Forbidden("edit") -> "Not authorized to edit this course".
func Forbidden(action string) *Error {
	return New(CodeNotAuthorized, fmt.Sprintf("Not authorized to %s this course", action))
}

// Invalid returns a BAD_USER_INPUT error with the given message.
func Invalid(message string) *Error {
	return New(CodeInvalidInput, message)
}

// CourseNotFound is the NOT_FOUND variant used for course lookups.
func CourseNotFound() *Error {
	return New(CodeNotFound, "Course not found")
}

// As extracts the *Error from err's chain. ok is false for internal errors.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf returns err's code, or CodeInternal when err is not an *Error.
func CodeOf(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return CodeInternal
}
