// Package security provides the PII masking transform applied to results
// before they leave the system.
package security

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// MaskPII redacts common email and phone patterns from text.
func MaskPII(text string) string {
	text = emailPattern.ReplaceAllString(text, "[EMAIL_REDACTED]")
	text = phonePattern.ReplaceAllString(text, "[PHONE_REDACTED]")
	return text
}
