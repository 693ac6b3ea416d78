// Package email derives a presentable display name from an address, used in
// mail greetings when no subject name was captured.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail turns the local part of an address into a display name:
// "maria.lopez@example.com" becomes "Maria Lopez". Addresses with an empty
// local part fall back to "Cliente" to match the Spanish mail templates.
func DeriveNameFromEmail(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Cliente"
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
