// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email trims surrounding whitespace and lowercases. Emails are stored in
// this form, so lookups must normalize the same way.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and keeps case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Title trims and collapses internal runs of whitespace to one space.
func Title(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Enum trims and upper-cases a course level or enrollment role, so
// " student " and "STUDENT" compare equal.
func Enum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
