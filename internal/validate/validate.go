package validate

import (
	"regexp"
	"sort"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// FieldErrors maps a field name to a user-facing message. It is the
// local-validation error class: an action that produces one never
// reaches the network.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(f))
	for name := range f {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, name := range fields {
		parts = append(parts, name+": "+f[name])
	}
	return strings.Join(parts, "; ")
}

// Set records the first message for a field; later messages for the
// same field are ignored so the most specific rule wins.
func (f FieldErrors) Set(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = message
	}
}

func (f FieldErrors) OrNil() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

func Email(s string) bool {
	return emailPattern.MatchString(s)
}

func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
