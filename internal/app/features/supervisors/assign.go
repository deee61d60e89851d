// internal/app/features/supervisors/assign.go
package supervisors

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	assignmentstore "github.com/dalemusser/traineehub/internal/app/store/assignments"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// assignTarget reads the supervisor id from the path and the trainee id
// from the form. It writes the error response and returns ok=false when
// either is unusable.
func (h *Handler) assignTarget(w http.ResponseWriter, r *http.Request) (supID, traineeID primitive.ObjectID, ok bool) {
	supID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad supervisor id", err, "Invalid supervisor id.", "/supervisors")
		return supID, traineeID, false
	}
	back := "/supervisors/" + supID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return supID, traineeID, false
	}
	traineeID, err = primitive.ObjectIDFromHex(r.FormValue("trainee_id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad trainee id", err, "Please choose a trainee.", back)
		return supID, traineeID, false
	}
	return supID, traineeID, true
}

// HandleAssign links a trainee to the supervisor. Making the link primary
// is allowed even when the trainee already has a primary supervisor; the
// supervisor page warns about it instead.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	supID, traineeID, ok := h.assignTarget(w, r)
	if !ok {
		return
	}
	back := "/supervisors/" + supID.Hex()
	primary := r.FormValue("is_primary") == "on" || r.FormValue("is_primary") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := supervisorstore.New(h.DB).GetByID(ctx, supID); err != nil {
		if err == mongo.ErrNoDocuments {
			h.ErrLog.LogNotFound(w, r, "supervisor not found", err, "That supervisor no longer exists.", "/supervisors")
			return
		}
		h.ErrLog.LogServerError(w, r, "load supervisor failed", err, "Unable to assign trainee.", back)
		return
	}
	if _, err := traineestore.New(h.DB).GetByID(ctx, traineeID); err != nil {
		if err == mongo.ErrNoDocuments {
			h.ErrLog.LogBadRequest(w, r, "trainee not found", err, "That trainee no longer exists.", back)
			return
		}
		h.ErrLog.LogServerError(w, r, "load trainee failed", err, "Unable to assign trainee.", back)
		return
	}

	actor := authz.ActorID(r)
	_, err := assignmentstore.New(h.DB).Assign(ctx, supID, traineeID, primary, &actor)
	if err != nil && !errors.Is(err, assignmentstore.ErrAlreadyAssigned) {
		h.ErrLog.LogServerError(w, r, "assign trainee failed", err, "Unable to assign trainee.", back)
		return
	}
	if err == nil {
		h.AuditLog.AdminAction(ctx, r, actor, audit.EventTraineeAssigned, &traineeID, map[string]string{
			"supervisor_id": supID.Hex(),
			"primary":       strconv.FormatBool(primary),
		})
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleUnassign removes the link. Removing a link that is already gone
// is not an error.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	supID, traineeID, ok := h.assignTarget(w, r)
	if !ok {
		return
	}
	back := "/supervisors/" + supID.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := assignmentstore.New(h.DB).Unassign(ctx, supID, traineeID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "unassign trainee failed", err, "Unable to remove assignment.", back)
		return
	}
	if n > 0 {
		actor := authz.ActorID(r)
		h.AuditLog.AdminAction(ctx, r, actor, audit.EventTraineeUnassigned, &traineeID, map[string]string{
			"supervisor_id": supID.Hex(),
		})
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

// HandleSetPrimary sets or clears is_primary on one link.
func (h *Handler) HandleSetPrimary(w http.ResponseWriter, r *http.Request) {
	supID, traineeID, ok := h.assignTarget(w, r)
	if !ok {
		return
	}
	back := "/supervisors/" + supID.Hex()
	primary := r.FormValue("is_primary") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := assignmentstore.New(h.DB).SetPrimary(ctx, supID, traineeID, primary)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "assignment not found", err, "That trainee is not assigned to this supervisor.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "set primary failed", err, "Unable to update assignment.", back)
		return
	}

	asg := assignmentstore.New(h.DB)
	if n, err := asg.CountPrimaries(ctx, traineeID); err == nil && n > 1 {
		h.Log.Info("trainee has several primary supervisors",
			zap.String("trainee_id", traineeID.Hex()), zap.Int64("primaries", n))
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventPrimaryChanged, &traineeID, map[string]string{
		"supervisor_id": supID.Hex(),
		"primary":       strconv.FormatBool(primary),
	})

	http.Redirect(w, r, back, http.StatusSeeOther)
}
