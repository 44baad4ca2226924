package logger

import (
	"strings"
)

// MaskPhone masks a phone number for logging, keeping only the last three
// digits (e.g. "+62812345678" -> "********678")
func MaskPhone(phone string) string {
	if len(phone) <= 3 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-3) + phone[len(phone)-3:]
}

// sensitiveParams are query parameters whose values must never be logged
var sensitiveParams = []string{
	"token",
	"code",
	"answer",
	"grant",
	"key",
	"secret",
}

// SanitizeQueryString reports whether a raw query string contains sensitive
// parameters and should be redacted from logs
func SanitizeQueryString(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	queryLower := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(queryLower, param+"=") {
			return true
		}
	}

	return false
}
