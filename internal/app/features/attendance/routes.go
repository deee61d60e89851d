// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the attendance pages (typically at "/attendance").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeView)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleTrainee))
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleRecord)
		pr.Get("/{id}/amend", h.ServeAmend)
		pr.Post("/{id}/amend", h.HandleAmend)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSupervisor))
		pr.Post("/{id}/decide", h.HandleDecide)
	})

	return r
}
