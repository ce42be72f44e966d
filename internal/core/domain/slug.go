package domain

import "strings"

// =============================================================================
// Project Name Derivation
// =============================================================================

// DeriveProjectName converts a customer-facing site name into a valid
// platform project name.
//
// The transformation rules are:
//   - Lowercase letters (a-z) and digits (0-9) are kept as-is
//   - Uppercase letters (A-Z) are converted to lowercase
//   - Spaces and runs of removed characters become a single hyphen
//   - Leading and trailing hyphens are trimmed
//   - The result is truncated to the project name length limit
//
// Example:
//
//	DeriveProjectName("Hello World")       // returns "hello-world"
//	DeriveProjectName("Anna's Bakery 2.0") // returns "annas-bakery-20"
func DeriveProjectName(siteName string) string {
	var b strings.Builder
	for _, r := range siteName {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32) // convert to lowercase
		case r == ' ':
			b.WriteRune('-')
		}
		// All other characters are dropped
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")

	if len(slug) > maxProjectNameLength {
		slug = strings.Trim(slug[:maxProjectNameLength], "-")
	}
	return slug
}
