// internal/app/system/normalize/normalize.go

// Package normalize holds the canonical forms for user-supplied identity
// fields. Stores normalize on write so lookups can rely on a single
// representation.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Status canonicalizes an identity status to "active" or "disabled";
// anything unrecognized becomes "active".
func Status(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled":
		return "disabled"
	default:
		return "active"
	}
}

// Provider canonicalizes a sign-in provider to "password" or "google";
// anything unrecognized becomes "password".
func Provider(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google":
		return "google"
	default:
		return "password"
	}
}

// Category lowercases and trims a goal/catalog category so filters match
// regardless of how the client cased it.
func Category(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Interests trims each entry and drops empties, preserving order.
func Interests(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
