// Package htmlsanitize cleans announcement bodies before they are stored and
// prepares stored bodies for display.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		tables := []string{"table", "thead", "tbody", "tfoot", "tr", "td", "th"}
		p.AllowAttrs("class").OnElements(tables...)
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		p.AllowStyles("width", "text-align").OnElements(tables...)
		p.AllowElements("u", "s", "mark")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, unsafe URLs and anything outside
// the allowed formatting set.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for direct use in templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders a stored body: plain text is escaped and
// paragraphed, markup is sanitized again.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
