// internal/app/system/inputval/inputval.go
package inputval

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule, already rendered for the client.
type FieldError struct {
	Field   string // label (or Go field name when no label tag is set)
	Tag     string // the failing rule, e.g. "required", "max"
	Message string
}

// Result collects the failures of one Validate call, in struct field order.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "" when there are none.
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their human label so messages read naturally.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		return f.Name
	})

	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return IsValidObjectID(fl.Field().String())
	})
	_ = v.RegisterValidation("courselevel", func(fl validator.FieldLevel) bool {
		return models.IsValidLevel(fl.Field().String())
	})
	_ = v.RegisterValidation("courserole", func(fl validator.FieldLevel) bool {
		return models.IsValidRole(fl.Field().String())
	})
	_ = v.RegisterValidation("mailaddr", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	// max counts runes; maxbytes bounds the encoded length (bcrypt reads 72 bytes).
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= n
	})
	return v
}

// Validate checks s against its `validate` struct tags.
//
//	type RegisterRequest struct {
//	    Name string `validate:"required,max=200" label:"Name"`
//	}
//	if res := inputval.Validate(req); res.HasErrors() { ... res.First() ... }
func Validate(s any) *Result {
	res := &Result{}
	err := validate.Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s is too long (at most %s bytes).", label, fe.Param())
	case "email", "mailaddr":
		return fmt.Sprintf("A valid %s is required.", strings.ToLower(label))
	case "objectid":
		return fmt.Sprintf("%s is not a valid id.", label)
	case "courselevel":
		return fmt.Sprintf("%s must be one of %s.", label, strings.Join(models.Levels, ", "))
	case "courserole":
		return fmt.Sprintf("%s must be %s or %s.", label, models.RoleStudent, models.RoleProfessor)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

// IsValidEmail accepts a bare addr-spec ("user@example.com"). Display-name
// forms, surrounding whitespace, and dot-atom violations are rejected.
// Single-label domains ("admin@localhost") are allowed.
func IsValidEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s || strings.ContainsAny(s, " \t<>") {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && addr.Name == ""
}

// IsValidObjectID reports whether s is a 24-char hex Mongo ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
