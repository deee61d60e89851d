// internal/app/features/repair/page.go
package repair

import (
	"context"
	"errors"
	"net/http"

	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/store/queries/integrity"
	"github.com/dalemusser/traineehub/internal/app/system/counts"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var notices = map[string]string{
	"materialized": "A placeholder user was created. Complete its name and email on the trainee page.",
	"deleted":      "The orphaned trainee record and its assignments were deleted.",
	"provisioned":  "The trainee record was created.",
	"noop":         "Nothing to do: that row was already repaired.",
}

// rowState carries per-row failures and sticky form values into a re-render.
type rowState struct {
	errs  map[primitive.ObjectID]string
	forms map[primitive.ObjectID]provisionForm
}

// ServePage handles GET /repair: scan, then list every violation with its
// repair actions.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, rowState{})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, st rowState) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.Tools.Scan(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "integrity scan failed", err, "Unable to scan for broken records.", "/dashboard")
		return
	}

	data := pageData{
		BaseVM: viewdata.NewBaseVM(r, "Repair Tools", "/dashboard"),
		Clean:  rep.Clean(),
		Notice: notices[r.URL.Query().Get("done")],
	}

	insts, err := institutionstore.New(h.DB).List(ctx)
	if err != nil {
		h.Log.Warn("load institutions failed", zap.Error(err))
	}
	names := make(map[primitive.ObjectID]string, len(insts))
	for _, i := range insts {
		names[i.ID] = i.DisplayName("en")
		data.Institutions = append(data.Institutions, institutionOption{ID: i.ID.Hex(), Name: i.DisplayName("en")})
	}

	var assigned map[primitive.ObjectID]int64
	if len(rep.Orphaned) > 0 {
		ids := make([]primitive.ObjectID, 0, len(rep.Orphaned))
		for _, o := range rep.Orphaned {
			ids = append(ids, o.Trainee.ID)
		}
		assigned, err = counts.ByField(ctx, h.DB, "supervisor_trainee",
			bson.M{"trainee_id": bson.M{"$in": ids}}, "trainee_id")
		if err != nil {
			h.Log.Warn("count orphan assignments failed", zap.Error(err))
		}
	}

	for _, o := range rep.Orphaned {
		data.Orphans = append(data.Orphans, orphanRow{
			Trainee:        o.Trainee,
			Institution:    names[o.Trainee.InstitutionID],
			AuthUserExists: o.AuthUserExists,
			Assignments:    assigned[o.Trainee.ID],
			Error:          st.errs[o.Trainee.ID],
		})
	}
	for _, u := range rep.Unprovisioned {
		data.Unprovisioned = append(data.Unprovisioned, unprovisionedRow{
			User:  u,
			Form:  st.forms[u.ID],
			Error: st.errs[u.ID],
		})
	}
	templates.Render(w, r, "repair_page", data)
}

// errorMessage turns a repair failure into the text shown on its row.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, integrity.ErrConfirmationRequired):
		return "Tick the confirmation box to delete this record."
	case errors.Is(err, integrity.ErrNotOrphaned):
		return "This trainee's user exists again, so nothing was deleted."
	case errors.Is(err, integrity.ErrNoAuthRecord):
		return "No sign-in record exists for this user id, so no placeholder can be created. Delete the record instead."
	case errors.Is(err, integrity.ErrTraineeNotFound):
		return "This trainee record no longer exists."
	case errors.Is(err, integrity.ErrUserNotFound):
		return "This user no longer exists."
	case errors.Is(err, integrity.ErrNotTraineeRole):
		return "This user is no longer a trainee."
	case errors.Is(err, integrity.ErrInstitutionNotFound):
		return "Please choose an existing institution."
	default:
		return "The repair could not be saved. Try again."
	}
}
