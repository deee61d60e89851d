// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Mount registers /dashboard and the three role homes on r.
// A user who opens another role's home is sent back to their own.
func Mount(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/dashboard", h.ServeDashboard)
	r.With(sm.RequireRole(models.RoleAdmin)).Get("/admin", h.ServeAdmin)
	r.With(sm.RequireRole(models.RoleSupervisor)).Get("/supervisor", h.ServeSupervisor)
	r.With(sm.RequireRole(models.RoleTrainee)).Get("/trainee", h.ServeTrainee)
}
