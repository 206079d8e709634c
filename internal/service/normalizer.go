package service

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	statusSepRegex  = regexp.MustCompile(`[\s\-]+`)
)

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// sanitizeString collapses whitespace runs into single spaces and trims.
func sanitizeString(value string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(value, " "))
}

// normalizeID trims an identifier. Ids are compared byte for byte, so case is
// left alone.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

// normalizeStatus turns "Issued Paid" and "issued-paid" into "issued_paid".
func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	return statusSepRegex.ReplaceAllString(status, "_")
}

// normalizePremium trims textual premiums and otherwise passes the value
// through. Parsing happens at read time so malformed text is kept as written.
func normalizePremium(v any) any {
	switch p := v.(type) {
	case string:
		return strings.TrimSpace(p)
	case []byte:
		return strings.TrimSpace(string(p))
	default:
		return v
	}
}
