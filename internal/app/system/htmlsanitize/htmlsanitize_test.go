package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/accord/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if got := htmlsanitize.Sanitize("Hello, World!"); got != "Hello, World!" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert('xss')</script>"
	if got := htmlsanitize.Sanitize(input); got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	input := `<button onclick="alert('xss')">Click</button>`
	if got := htmlsanitize.Sanitize(input); got == input {
		t.Error("expected onclick attribute to be removed")
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	input := `<a href="javascript:alert('xss')">Click</a>`
	if got := htmlsanitize.Sanitize(input); got == input {
		t.Error("expected javascript: href to be removed")
	}
}

func TestSanitize_AllowsSafeLinks(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="https://example.com">Link</a>`)
	// bluemonday adds rel="nofollow" to user links
	if !strings.Contains(got, "https://example.com") {
		t.Errorf("expected safe link preserved, got %q", got)
	}
}

func TestSanitize_AllowsTables(t *testing.T) {
	input := `<table><thead><tr><th>Header</th></tr></thead><tbody><tr><td>Cell</td></tr></tbody></table>`
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected table preserved, got %q", got)
	}
}

func TestSanitize_AllowsTableAttributes(t *testing.T) {
	got := htmlsanitize.Sanitize(`<table><tr><td colspan="2" rowspan="2">Cell</td></tr></table>`)
	if !strings.Contains(got, `colspan="2"`) || !strings.Contains(got, `rowspan="2"`) {
		t.Errorf("expected colspan/rowspan preserved, got %q", got)
	}
}

func TestSanitize_AllowsClassAttribute(t *testing.T) {
	got := htmlsanitize.Sanitize(`<table class="my-table"><tr><td class="my-cell">Cell</td></tr></table>`)
	if !strings.Contains(got, `class="my-table"`) {
		t.Errorf("expected class attribute preserved, got %q", got)
	}
}

func TestSanitize_AllowsTextFormatting(t *testing.T) {
	input := "<u>underline</u> <s>strikethrough</s> <sub>sub</sub> <sup>sup</sup> <mark>mark</mark>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected text formatting preserved, got %q", got)
	}
}

func TestSanitize_AllowsLists(t *testing.T) {
	for _, input := range []string{
		"<ul><li>Item 1</li><li>Item 2</li></ul>",
		"<ol><li>First</li><li>Second</li></ol>",
	} {
		if got := htmlsanitize.Sanitize(input); got != input {
			t.Errorf("expected list preserved, got %q", got)
		}
	}
}

func TestSanitize_AllowsBlockLevelContent(t *testing.T) {
	for _, input := range []string{
		"<blockquote>A quote</blockquote>",
		"<h1>Heading 1</h1><h2>Heading 2</h2><h3>Heading 3</h3>",
		"<pre><code>function test() {}</code></pre>",
	} {
		if got := htmlsanitize.Sanitize(input); got != input {
			t.Errorf("expected %q preserved, got %q", input, got)
		}
	}
}

func TestSanitize_RemovesIframe(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p>Content</p><iframe src="https://evil.com"></iframe>`)
	if strings.Contains(got, "iframe") {
		t.Error("expected iframe to be removed")
	}
	if !strings.Contains(got, "Content") {
		t.Error("expected safe content to be preserved")
	}
}

func TestSanitize_RemovesStyleTags(t *testing.T) {
	got := htmlsanitize.Sanitize(`<style>body { color: red; }</style><p>Text</p>`)
	if strings.Contains(got, "<style>") {
		t.Error("expected style tag to be removed")
	}
}

func TestSanitize_RemovesOnError(t *testing.T) {
	got := htmlsanitize.Sanitize(`<img src="x" onerror="alert('xss')">`)
	if strings.Contains(got, "onerror") {
		t.Error("expected onerror attribute to be removed")
	}
}

func TestSanitize_AllowsImages(t *testing.T) {
	got := htmlsanitize.Sanitize(`<img src="https://example.com/image.png" alt="Image">`)
	if !strings.Contains(got, "src=") || !strings.Contains(got, "alt=") {
		t.Errorf("expected image preserved, got %q", got)
	}
}

func TestSanitize_RemovesDataURLInImage(t *testing.T) {
	got := htmlsanitize.Sanitize(`<img src="data:text/html,<script>alert('xss')</script>">`)
	if strings.Contains(got, "data:text/html") {
		t.Error("expected data:text/html to be removed from image src")
	}
}

func TestSanitize_RemovesFormElements(t *testing.T) {
	got := htmlsanitize.Sanitize(`<form action="/submit"><input type="text" name="data"><button>Submit</button></form>`)
	if strings.Contains(got, "<form") || strings.Contains(got, "<input") {
		t.Error("expected form elements to be removed")
	}
}

func TestSanitize_AllowsStyleOnTableElements(t *testing.T) {
	got := htmlsanitize.Sanitize(`<table style="width:100%"><tr><td style="text-align:center">Cell</td></tr></table>`)
	if !strings.Contains(got, "style=") {
		t.Errorf("expected style attribute on table elements, got %q", got)
	}
}

func TestSanitizeToHTML(t *testing.T) {
	got := htmlsanitize.SanitizeToHTML("<p>Hello</p><script>alert('xss')</script>")
	if got != template.HTML("<p>Hello</p>") {
		t.Errorf("expected script removed, got %q", got)
	}
	if htmlsanitize.SanitizeToHTML("") != "" {
		t.Error("expected empty template.HTML for empty input")
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"<p>Hello</p>", false},
		{"5 < 10", true},
		{"5 > 3", true},
	}
	for _, tt := range tests {
		if got := htmlsanitize.IsPlainText(tt.input); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"Hello, World!", "<p>Hello, World!</p>"},
		{"Line 1\nLine 2\nLine 3", "<p>Line 1<br>Line 2<br>Line 3</p>"},
		{"A & B", "<p>A &amp; B</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PlainTextToHTML(tt.input); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPlainTextToHTML_HTMLEscaped(t *testing.T) {
	got := htmlsanitize.PlainTextToHTML("<script>alert('xss')</script>")
	if strings.Contains(got, "<script>") {
		t.Error("expected HTML to be escaped")
	}
	if !strings.Contains(got, "&lt;") || !strings.Contains(got, "&gt;") {
		t.Error("expected < and > to be escaped")
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := []struct {
		input string
		want  template.HTML
	}{
		{"", ""},
		{"Hello, World!", "<p>Hello, World!</p>"},
		{"<p>Hello</p>", "<p>Hello</p>"},
		{"<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"Line 1\nLine 2", "<p>Line 1<br>Line 2</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PrepareForDisplay(tt.input); got != tt.want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
