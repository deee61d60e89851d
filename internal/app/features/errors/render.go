// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

type renderFunc func(w http.ResponseWriter, r *http.Request, status int, title, msg, backDefault string)

// renderPage writes status and renders the shared error page.
func renderPage(w http.ResponseWriter, r *http.Request, status int, title, msg, backDefault string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, backDefault),
		Status:  status,
		Message: msg,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderForbidden shows the access error page with msg.
// An empty backURL resolves a safe back link with "/" as fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	renderPage(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderUnauthorized shows the "sign in required" page.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	renderPage(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}
