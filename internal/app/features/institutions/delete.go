// internal/app/features/institutions/delete.go
package institutions

import (
	"context"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete deletes an institution and redirects back to the list.
// Trainees and supervisors that point at it stay; joins leave them out
// until they are moved to another institution.
//
// Route: POST /institutions/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	idHex := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad institution id", err, "Invalid institution id.", "/institutions")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n, err := institutionstore.New(h.DB).Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete institution failed", err, "Unable to delete institution.", "/institutions")
		return
	}
	if n == 0 {
		h.Log.Info("institution delete: no document found (idempotent)", zap.String("institution_id", idHex))
	} else {
		actor := authz.ActorID(r)
		h.AuditLog.AdminAction(ctx, r, actor, audit.EventInstitutionDeleted, &id, nil)
	}

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.InstitutionsBackURL), http.StatusSeeOther)
}
