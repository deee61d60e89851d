// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account page (typically at "/profile").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeProfile)
		pr.Post("/name", h.HandleUpdateName)
		pr.Post("/password", h.HandleChangePassword)
	})

	return r
}
