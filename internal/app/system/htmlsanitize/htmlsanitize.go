// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize cleans user-authored HTML before storage and
// display. Profile bios, goal descriptions, and tip content accept a
// limited rich-text vocabulary; everything else is stripped.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is built once; bluemonday policies are safe for concurrent use.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Formatting beyond the UGC defaults.
	p.AllowElements("u", "s", "sub", "sup", "mark")

	// Rich text editors attach classes for presentation.
	p.AllowAttrs("class").Globally()

	// Presentational styles limited to table layout properties.
	p.AllowStyles("width", "height", "text-align", "vertical-align",
		"background-color", "color").
		OnElements("table", "thead", "tbody", "tr", "th", "td")

	return p
}

// Sanitize removes unsafe markup from HTML, keeping the allowed
// formatting vocabulary intact.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes and returns template.HTML for direct use in
// templates. Only call this on content that has gone through Sanitize
// semantics; the return value bypasses template escaping.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s looks like plain text rather than HTML.
// Heuristic: text containing a <...> pair is treated as HTML.
func IsPlainText(s string) bool {
	lt := strings.Index(s, "<")
	if lt == -1 {
		return true
	}
	return !strings.Contains(s[lt:], ">")
}

// PlainTextToHTML escapes plain text and wraps it in a paragraph,
// converting newlines to <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders stored content for templates: plain text is
// escaped and paragraph-wrapped, HTML is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
