// internal/app/features/repair/routes.go
package repair

import (
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the repair tools (typically at "/repair"). Admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServePage)
	r.Post("/orphans/{id}/materialize", h.HandleMaterialize)
	r.Post("/orphans/{id}/delete", h.HandleDelete)
	r.Post("/unprovisioned/{id}/provision", h.HandleProvision)
	return r
}
