// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GradeVault Contributors

package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Field length limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxEmailLength    = 254
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MaxCourseLength   = 100
	MaxSemesterLength = 50
)

// Reason classifies why a value was rejected, so callers can present
// field-specific messages.
type Reason string

// Rejection reasons.
const (
	ReasonEmpty         Reason = "empty"
	ReasonTooShort      Reason = "too_short"
	ReasonTooLong       Reason = "too_long"
	ReasonInvalidFormat Reason = "invalid_format"
	ReasonForbidden     Reason = "forbidden"
)

// ValidationError represents an input validation rejection.
type ValidationError struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,30}$`)
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

	// Free-text names (courses, semesters): letters, digits, spaces, and
	// common punctuation.
	freeTextRegex = regexp.MustCompile(`^[\p{L}\p{N} ,.'&()/:#-]+$`)

	scriptBlockRegex = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	iframeBlockRegex = regexp.MustCompile(`(?is)<iframe\b.*?</iframe\s*>`)
	jsSchemeRegex    = regexp.MustCompile(`(?i)javascript\s*:`)
	eventAttrRegex   = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// sqlKeywords is a defense-in-depth blacklist applied to usernames. The
// persistence layer uses parameterized queries exclusively; this heuristic
// only keeps obviously hostile identifiers out of logs and exports.
var sqlKeywords = []string{
	"select", "insert", "update", "delete", "drop", "create", "alter",
	"union", "join", "where", "order", "group", "having", "exec", "execute",
	"--", "/*", "*/", ";",
}

// weakPasswords are substrings that disqualify a password outright.
var weakPasswords = []string{
	"password", "123456", "qwerty", "abc123", "letmein", "admin",
}

// Sanitize strips NUL/control bytes, <script> and <iframe> blocks, the
// javascript: scheme, and inline on*= event-handler patterns. It is shared
// by every field validator and safe to apply to already-clean input.
func Sanitize(s string) string {
	s = scriptBlockRegex.ReplaceAllString(s, "")
	s = iframeBlockRegex.ReplaceAllString(s, "")
	s = jsSchemeRegex.ReplaceAllString(s, "")
	s = eventAttrRegex.ReplaceAllString(s, "")

	return strings.Map(func(r rune) rune {
		if r == 0 || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// ValidateUsername normalizes and validates a username. Returns the
// sanitized value or a *ValidationError.
func ValidateUsername(username string) (string, error) {
	u := Sanitize(strings.TrimSpace(username))
	if u == "" {
		return "", &ValidationError{Field: "username", Reason: ReasonEmpty, Message: "cannot be empty"}
	}
	if len(u) < MinUsernameLength {
		return "", &ValidationError{Field: "username", Reason: ReasonTooShort, Message: fmt.Sprintf("must be at least %d characters", MinUsernameLength)}
	}
	if len(u) > MaxUsernameLength {
		return "", &ValidationError{Field: "username", Reason: ReasonTooLong, Message: fmt.Sprintf("must be at most %d characters", MaxUsernameLength)}
	}
	if !usernameRegex.MatchString(u) {
		return "", &ValidationError{Field: "username", Reason: ReasonInvalidFormat, Message: "may contain only letters, digits, underscore, dot, and hyphen"}
	}
	lower := strings.ToLower(u)
	for _, kw := range sqlKeywords {
		if strings.Contains(lower, kw) {
			return "", &ValidationError{Field: "username", Reason: ReasonForbidden, Message: "contains a forbidden sequence"}
		}
	}
	return u, nil
}

// ValidateEmail normalizes (trims, lowercases) and validates an email
// address. Returns the normalized value or a *ValidationError.
func ValidateEmail(email string) (string, error) {
	e := Sanitize(strings.ToLower(strings.TrimSpace(email)))
	if e == "" {
		return "", &ValidationError{Field: "email", Reason: ReasonEmpty, Message: "cannot be empty"}
	}
	if len(e) > MaxEmailLength {
		return "", &ValidationError{Field: "email", Reason: ReasonTooLong, Message: fmt.Sprintf("must be at most %d characters", MaxEmailLength)}
	}
	if !emailRegex.MatchString(e) {
		return "", &ValidationError{Field: "email", Reason: ReasonInvalidFormat, Message: "must look like local@domain.tld"}
	}
	return e, nil
}

// ValidatePassword validates password length and strength. The password is
// returned unmodified; it is never sanitized or trimmed, since every byte is
// significant to the hash.
func ValidatePassword(password string) (string, error) {
	if password == "" {
		return "", &ValidationError{Field: "password", Reason: ReasonEmpty, Message: "cannot be empty"}
	}
	if len(password) < MinPasswordLength {
		return "", &ValidationError{Field: "password", Reason: ReasonTooShort, Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	if len(password) > MaxPasswordLength {
		return "", &ValidationError{Field: "password", Reason: ReasonTooLong, Message: fmt.Sprintf("must be at most %d characters", MaxPasswordLength)}
	}

	lower := strings.ToLower(password)
	for _, weak := range weakPasswords {
		if strings.Contains(lower, weak) {
			return "", &ValidationError{Field: "password", Reason: ReasonForbidden, Message: "is too common"}
		}
	}

	if characterClasses(password) < 2 {
		return "", &ValidationError{Field: "password", Reason: ReasonInvalidFormat, Message: "needs at least two of: lowercase, uppercase, digit, special character"}
	}
	return password, nil
}

// ValidateCourseName normalizes and validates a course name.
func ValidateCourseName(name string) (string, error) {
	return validateFreeText("course", name, MaxCourseLength)
}

// ValidateSemesterName normalizes and validates a semester name.
func ValidateSemesterName(name string) (string, error) {
	return validateFreeText("semester", name, MaxSemesterLength)
}

func validateFreeText(field, name string, maxLen int) (string, error) {
	n := Sanitize(strings.TrimSpace(name))
	if n == "" {
		return "", &ValidationError{Field: field, Reason: ReasonEmpty, Message: "cannot be empty"}
	}
	if len(n) > maxLen {
		return "", &ValidationError{Field: field, Reason: ReasonTooLong, Message: fmt.Sprintf("must be at most %d characters", maxLen)}
	}
	if !freeTextRegex.MatchString(n) {
		return "", &ValidationError{Field: field, Reason: ReasonInvalidFormat, Message: "contains unsupported characters"}
	}
	return n, nil
}

// characterClasses counts how many of {lowercase, uppercase, digit, special}
// appear in the password.
func characterClasses(password string) int {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	count := 0
	for _, ok := range []bool{lower, upper, digit, special} {
		if ok {
			count++
		}
	}
	return count
}
