// internal/app/features/repair/actions.go
package repair

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/queries/integrity"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type provisionInput struct {
	InstitutionID string `validate:"required,objectid" label:"Institution"`
	StartDate     string `validate:"required" label:"Start date"`
	University    string `validate:"max=200" label:"University"`
	Major         string `validate:"max=200" label:"Major"`
	StudentNumber string `validate:"max=50" label:"Student number"`
}

func subjectID(w http.ResponseWriter, r *http.Request, h *Handler) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad repair subject id", err, "Invalid id.", "/repair")
		return primitive.NilObjectID, false
	}
	return id, true
}

// finish redirects after a successful repair, or re-renders the page with
// the failure shown on that row only.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, out integrity.Outcome, err error, done string, st rowState) {
	if err != nil {
		if st.errs == nil {
			st.errs = map[primitive.ObjectID]string{}
		}
		st.errs[out.SubjectID] = errorMessage(err)
		h.render(w, r, st)
		return
	}
	if out.NoOp {
		done = "noop"
	}
	http.Redirect(w, r, "/repair?done="+done, http.StatusSeeOther)
}

// HandleMaterialize recreates the missing user of an orphaned trainee.
func (h *Handler) HandleMaterialize(w http.ResponseWriter, r *http.Request) {
	id, ok := subjectID(w, r, h)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor := authz.ActorID(r)
	out, err := h.Tools.MaterializePrincipal(ctx, actor, id)
	out.SubjectID = id
	h.finish(w, r, out, err, "materialized", rowState{})
}

// HandleDelete deletes an orphaned trainee and its assignments. The form
// must carry confirm=yes.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := subjectID(w, r, h)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/repair")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor := authz.ActorID(r)
	confirmed := r.FormValue("confirm") == "yes"
	out, err := h.Tools.DeleteOrphan(ctx, actor, id, confirmed)
	out.SubjectID = id
	h.finish(w, r, out, err, "deleted", rowState{})
}

// HandleProvision creates the missing trainee record of a trainee user.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	id, ok := subjectID(w, r, h)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/repair")
		return
	}

	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }
	form := provisionForm{
		InstitutionID: field("institution_id"),
		StartDate:     field("start_date"),
		University:    field("university"),
		Major:         field("major"),
		StudentNumber: field("student_number"),
	}
	st := rowState{
		errs:  map[primitive.ObjectID]string{},
		forms: map[primitive.ObjectID]provisionForm{id: form},
	}

	in := provisionInput(form)
	if result := inputval.Validate(in); result.HasErrors() {
		st.errs[id] = result.First()
		h.render(w, r, st)
		return
	}
	start, err := formutil.ParseDate(form.StartDate)
	if err != nil || start == nil {
		st.errs[id] = "Start date must be a valid date."
		h.render(w, r, st)
		return
	}
	instID, _ := primitive.ObjectIDFromHex(form.InstitutionID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	actor := authz.ActorID(r)
	out, err := h.Tools.ProvisionTrainee(ctx, actor, id, integrity.ProvisionInput{
		InstitutionID: instID,
		StartDate:     *start,
		University:    form.University,
		Major:         form.Major,
		StudentNumber: form.StudentNumber,
	})
	out.SubjectID = id
	h.finish(w, r, out, err, "provisioned", st)
}
