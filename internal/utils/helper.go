package utils

import (
	"regexp"
	"strings"
)

var nonDigitRegex = regexp.MustCompile(`[^0-9]`)

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NormalizePhoneID converts Indonesian phone numbers to +62 E.164 form.
func NormalizePhoneID(phone string) string {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(digits, "62"):
		return "+" + digits
	case strings.HasPrefix(digits, "0"):
		return "+62" + digits[1:]
	default:
		return "+62" + digits
	}
}
