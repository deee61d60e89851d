// internal/app/features/evaluations/view.go
package evaluations

import (
	"context"
	"net/http"

	evaluationstore "github.com/dalemusser/traineehub/internal/app/store/evaluations"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// loadInScope reads {id} and loads the evaluation if the caller may see it.
// Trainees may see only their approved evaluations; a pending or rejected
// one is reported as not found.
func (h *Handler) loadInScope(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Evaluation, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad evaluation id", err, "Invalid evaluation id.", "/evaluations")
		return models.Evaluation{}, false
	}
	e, err := evaluationstore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && authz.IsTrainee(r) && e.Status != models.EvaluationApproved) {
		h.ErrLog.LogNotFound(w, r, "evaluation not found", err, "That evaluation does not exist.", "/evaluations")
		return e, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load evaluation failed", err, "Unable to load evaluation.", "/evaluations")
		return e, false
	}
	ok, err := h.Policy.CanAccessTrainee(r.WithContext(ctx), e.TraineeID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "evaluation access check failed", err, "Unable to load evaluation.", "/evaluations")
		return e, false
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "evaluation outside scope", nil, "You do not have access to this evaluation.", "/evaluations")
		return e, false
	}
	return e, true
}

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}

	data := viewData{
		BaseVM:     viewdata.NewBaseVM(r, "Evaluation", "/evaluations"),
		Evaluation: e,
		CanDecide:  authz.IsAdmin(r) && e.Status == models.EvaluationPending,
	}
	opts, _ := traineeoptions.Load(ctx, h.DB, []primitive.ObjectID{e.TraineeID})
	data.TraineeName = traineeoptions.NameMap(opts).Of(e.TraineeID)

	users := userstore.New(h.DB)
	if sup, err := supervisorstore.New(h.DB).GetByID(ctx, e.SupervisorID); err == nil {
		if u, err := users.GetByID(ctx, sup.UserID); err == nil {
			data.Supervisor = u.FullName
		}
	}
	if e.DecidedBy != nil {
		if u, err := users.GetByID(ctx, *e.DecidedBy); err == nil {
			data.DecidedBy = u.FullName
		}
	}
	templates.Render(w, r, "evaluation_view", data)
}
