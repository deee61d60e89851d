package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/traineehub/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string // exact output when non-empty
		absent  []string
		present []string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "Workshop on Monday", want: "Workshop on Monday"},
		{name: "formatting kept", in: "<p><strong>Bold</strong> and <em>italic</em></p>", want: "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{name: "lists kept", in: "<ul><li>One</li><li>Two</li></ul>", want: "<ul><li>One</li><li>Two</li></ul>"},
		{name: "script removed", in: "<p>Hi</p><script>alert(1)</script>", want: "<p>Hi</p>"},
		{name: "handlers removed", in: `<img src="x" onerror="alert(1)">`, absent: []string{"onerror"}},
		{name: "javascript href removed", in: `<a href="javascript:alert(1)">x</a>`, absent: []string{"javascript:"}},
		{name: "https link kept", in: `<a href="https://example.com">x</a>`, present: []string{"https://example.com"}},
		{name: "iframe removed", in: `<p>Body</p><iframe src="https://evil.example"></iframe>`, absent: []string{"iframe"}, present: []string{"Body"}},
		{name: "form removed", in: `<form action="/x"><input name="a"></form>`, absent: []string{"<form", "<input"}},
		{name: "table attrs kept", in: `<table class="grid"><tr><td colspan="2" style="text-align:center">Cell</td></tr></table>`, present: []string{`class="grid"`, `colspan="2"`, "style="}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.Sanitize(tt.in)
			if tt.want != "" || tt.in == "" {
				if got != tt.want {
					t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(got, s) {
					t.Errorf("expected %q removed, got %q", s, got)
				}
			}
			for _, s := range tt.present {
				if !strings.Contains(got, s) {
					t.Errorf("expected %q kept, got %q", s, got)
				}
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	cases := map[string]bool{
		"":             true,
		"hello":        true,
		"5 < 10":       true,
		"5 > 3":        true,
		"<p>hello</p>": false,
	}
	for in, want := range cases {
		if got := htmlsanitize.IsPlainText(in); got != want {
			t.Errorf("IsPlainText(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	if got := htmlsanitize.PlainTextToHTML("Line 1\nLine 2"); got != "<p>Line 1<br>Line 2</p>" {
		t.Errorf("got %q", got)
	}
	if got := htmlsanitize.PlainTextToHTML("A & B"); got != "<p>A &amp; B</p>" {
		t.Errorf("got %q", got)
	}
	if got := htmlsanitize.PlainTextToHTML(""); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want template.HTML
	}{
		{"", ""},
		{"Hello", "<p>Hello</p>"},
		{"<p>Hello</p>", "<p>Hello</p>"},
		{"<p>Hello</p><script>alert(1)</script>", "<p>Hello</p>"},
	}
	for _, tt := range tests {
		if got := htmlsanitize.PrepareForDisplay(tt.in); got != tt.want {
			t.Errorf("PrepareForDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
