package service

import "strings"

// NormalizeEmail produces the dedup key for an address: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsReservedEmail reports whether a normalized address belongs to one of the
// reserved test domains.
func IsReservedEmail(email string, reservedDomains []string) bool {
	for _, domain := range reservedDomains {
		domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "@")
		if domain == "" {
			continue
		}
		if strings.HasSuffix(email, "@"+domain) {
			return true
		}
	}
	return false
}

// SplitName splits a display name into the first token and the remaining
// tokens joined by single spaces.
func SplitName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
