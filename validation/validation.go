package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Error lets Violations travel as an error value.
func (v Violations) Error() string {
	fields := make([]string, 0, len(v))
	for f, code := range v {
		fields = append(fields, f+":"+code)
	}
	return "validation failed: " + strings.Join(fields, ",")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// Email records "invalid_email" unless value is a bare address. Empty values are left to Required.
func Email(field, value string, v Violations) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v[field] = "invalid_email"
	}
}

// MaxLength records "too_long" when value exceeds n characters.
func MaxLength(field, value string, n int, v Violations) {
	if utf8.RuneCountInString(value) > n {
		v[field] = "too_long"
	}
}
