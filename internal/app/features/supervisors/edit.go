// internal/app/features/supervisors/edit.go
package supervisors

import (
	"context"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad supervisor id", err, "Invalid supervisor id.", "/supervisors")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
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
	insts, err := h.institutionOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load institutions failed", err, "Unable to load institutions.", "/supervisors")
		return
	}

	data := formData{
		ID:            sup.ID.Hex(),
		InstitutionID: sup.InstitutionID.Hex(),
		Position:      sup.Position,
		Department:    sup.Department,
		Phone:         sup.Phone,
		Institutions:  insts,
	}
	if u, err := userstore.New(h.DB).GetByID(ctx, sup.UserID); err == nil {
		data.Name, data.Email = u.FullName, u.Email
	}
	formutil.SetBase(&data.Base, r, "Edit Supervisor", "/supervisors/"+sup.ID.Hex())
	templates.Render(w, r, "supervisor_form", data)
}

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad supervisor id", err, "Invalid supervisor id.", "/supervisors")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/supervisors")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := formData{ID: id.Hex()}
	readProfile(r, &data)

	reRender := func(msg string) {
		insts, err := h.institutionOptions(ctx)
		if err != nil {
			h.Log.Warn("load institutions failed", zap.Error(err))
		}
		data.Institutions = insts
		formutil.SetBase(&data.Base, r, "Edit Supervisor", "/supervisors/"+id.Hex())
		data.SetError(msg)
		templates.Render(w, r, "supervisor_form", data)
	}

	if result := inputval.Validate(data.profile()); result.HasErrors() {
		reRender(result.First())
		return
	}
	sup := data.model()

	exists, err := institutionstore.New(h.DB).Exists(ctx, sup.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check institution failed", err, "Unable to save supervisor.", "/supervisors")
		return
	}
	if !exists {
		reRender("Please choose an existing institution.")
		return
	}

	err = supervisorstore.New(h.DB).Update(ctx, id, sup)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "supervisor not found", err, "That supervisor no longer exists.", "/supervisors")
		return
	}
	if err != nil {
		h.Log.Error("update supervisor failed", zap.String("supervisor_id", id.Hex()), zap.Error(err))
		reRender("Database error while saving the supervisor.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventSupervisorUpdated, &id, nil)

	opts := navigation.SupervisorsBackURL
	opts.Fallback = "/supervisors/" + id.Hex()
	http.Redirect(w, r, navigation.SafeBackURL(r, opts), http.StatusSeeOther)
}
