// Package formutil helps re-render a form after a failed submission with
// the entered values, an error message and the common page fields.
//
//	type newTaskData struct {
//		formutil.Base
//		Title    string
//		Trainees []traineeOption
//	}
//
//	data := newTaskData{Title: title}
//	formutil.SetBase(&data.Base, r, "New Task", "/tasks")
//	data.SetError("Title is required.")
//	templates.Render(w, r, "task_form", data)
package formutil

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
)

// Base is the page base plus the form error line.
type Base struct {
	viewdata.BaseVM
	Error template.HTML
}

// SetBase fills the page fields from the signed-in user and the request.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
}

// SetError sets a plain-text error. The message is escaped.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// HasError reports whether an error is set.
func (b Base) HasError() bool { return b.Error != "" }

// DateLayout is the format of <input type="date"> values.
const DateLayout = "2006-01-02"

// ParseDate parses a date field as midnight UTC. An empty value returns nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatDate renders t for a date input; nil gives "".
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
