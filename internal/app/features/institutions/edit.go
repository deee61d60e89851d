// internal/app/features/institutions/edit.go
package institutions

import (
	"context"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeEdit renders the edit form for one institution.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad institution id", err, "Invalid institution id.", "/institutions")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	inst, err := institutionstore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "institution not found", err, "That institution no longer exists.", "/institutions")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load institution failed", err, "Unable to load institution.", "/institutions")
		return
	}

	data := formData{
		ID:      inst.ID.Hex(),
		NameEN:  inst.NameEN,
		NameAR:  inst.NameAR,
		Email:   inst.Email,
		Phone:   inst.Phone,
		Address: inst.Address,
		Website: inst.Website,
	}
	formutil.SetBase(&data.Base, r, "Edit Institution", "/institutions")
	templates.Render(w, r, "institution_form", data)
}

// HandleEdit saves the edit form. The last write wins.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad institution id", err, "Invalid institution id.", "/institutions")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/institutions")
		return
	}

	data := readForm(r)
	data.ID = id.Hex()
	reRender := func(msg string) {
		formutil.SetBase(&data.Base, r, "Edit Institution", "/institutions")
		data.SetError(msg)
		templates.Render(w, r, "institution_form", data)
	}

	if msg := validateForm(data); msg != "" {
		reRender(msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = institutionstore.New(h.DB).Update(ctx, id, data.model())
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "institution not found", err, "That institution no longer exists.", "/institutions")
		return
	}
	if err != nil {
		reRender(storeErrorMessage(err, "updating"))
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventInstitutionUpdated, &id, nil)

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.InstitutionsBackURL), http.StatusSeeOther)
}
