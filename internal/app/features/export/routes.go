// internal/app/features/export/routes.go
package export

import (
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the downloads (typically at "/export").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSupervisor))
		pr.Get("/trainees.xlsx", h.ServeTrainees)
	})

	// Trainees may download their own attendance.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/attendance.xlsx", h.ServeAttendance)
	})

	return r
}
