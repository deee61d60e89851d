// internal/app/features/supervisors/view.go
package supervisors

import (
	"context"
	"net/http"

	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/counts"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeView shows a supervisor, the assigned trainees and a picker for
// assigning more.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad supervisor id", err, "Invalid supervisor id.", "/supervisors")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sup, err := supervisorstore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "supervisor not found", err, "That supervisor no longer exists.", "/supervisors")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load supervisor failed", err, "Unable to load supervisor.", "/supervisors")
		return
	}

	data := viewData{
		BaseVM:     viewdata.NewBaseVM(r, "Supervisor", "/supervisors"),
		Supervisor: sup,
	}
	if u, err := userstore.New(h.DB).GetByID(ctx, sup.UserID); err == nil {
		data.User = u
	} else if err != mongo.ErrNoDocuments {
		h.Log.Warn("load supervisor user failed", zap.Error(err))
		data.Incomplete = true
	}
	if inst, err := institutionstore.New(h.DB).GetByID(ctx, sup.InstitutionID); err == nil {
		data.Institution = inst.DisplayName("en")
	}

	data.Assigned, err = h.Expander.Expand(ctx, sup.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "expand assigned trainees failed", err, "Unable to load assigned trainees.", "/supervisors")
		return
	}
	if data.Assigned.Incomplete {
		data.Incomplete = true
	}

	assigned := make(map[primitive.ObjectID]bool, len(data.Assigned.Rows))
	ids := make([]primitive.ObjectID, 0, len(data.Assigned.Rows))
	for _, row := range data.Assigned.Rows {
		assigned[row.Trainee.ID] = true
		ids = append(ids, row.Trainee.ID)
	}

	data.MultiPrimary, err = h.multiPrimary(ctx, ids)
	if err != nil {
		h.Log.Warn("count primaries failed", zap.Error(err))
		data.Incomplete = true
	}

	opts, err := traineeoptions.Load(ctx, h.DB, nil)
	if err != nil {
		h.Log.Warn("load trainee options failed", zap.Error(err))
		data.Incomplete = true
	}
	for _, o := range opts {
		if !assigned[o.ID] {
			data.Available = append(data.Available, o)
		}
	}

	templates.Render(w, r, "supervisor_view", data)
}

// multiPrimary returns the trainees among ids with more than one primary
// supervisor.
func (h *Handler) multiPrimary(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	primaries, err := counts.ByField(ctx, h.DB, "supervisor_trainee",
		bson.M{"trainee_id": bson.M{"$in": ids}, "is_primary": true}, "trainee_id")
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]bool)
	for id, n := range primaries {
		if n > 1 {
			out[id] = true
		}
	}
	return out, nil
}

