// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Status  int
	Message string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct {
	render renderFunc
}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{render: renderPage}
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "Access denied", "You don't have permission to view this page.", "/")
}

// Unauthorized renders a friendly "sign in required" page.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", "/login")
}

// NotFound renders the 404 page. Bootstrap installs it as the router's
// NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Not found", "The page you asked for does not exist.", "/")
}
