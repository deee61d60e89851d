// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the announcement pages. Every signed-in user can read the
// announcements addressed to them; only admins manage them.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))
		pr.Get("/new", h.ShowNew)
		pr.Post("/new", h.Create)
		pr.Get("/{id}/edit", h.ShowEdit)
		pr.Post("/{id}", h.Update)
		pr.Post("/{id}/flags", h.SetFlags)
		pr.Post("/{id}/delete", h.Delete)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.List)
		pr.Get("/{id}", h.Show)
	})

	return r
}
