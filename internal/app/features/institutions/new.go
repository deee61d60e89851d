// internal/app/features/institutions/new.go
package institutions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// institutionInput defines validation rules shared by create and edit.
// At least one name is required; the store enforces that.
type institutionInput struct {
	NameEN  string `validate:"max=200" label:"English name"`
	NameAR  string `validate:"max=200" label:"Arabic name"`
	Email   string `validate:"omitempty,email,max=254" label:"Email"`
	Phone   string `validate:"max=50" label:"Phone"`
	Address string `validate:"max=500" label:"Address"`
	Website string `validate:"omitempty,url,max=300" label:"Website"`
}

func readForm(r *http.Request) formData {
	return formData{
		NameEN:  strings.TrimSpace(r.FormValue("name_en")),
		NameAR:  strings.TrimSpace(r.FormValue("name_ar")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Address: strings.TrimSpace(r.FormValue("address")),
		Website: strings.TrimSpace(r.FormValue("website")),
	}
}

// validateForm returns the first user-facing problem with d, or "".
func validateForm(d formData) string {
	input := institutionInput{
		NameEN:  d.NameEN,
		NameAR:  d.NameAR,
		Email:   d.Email,
		Phone:   d.Phone,
		Address: d.Address,
		Website: d.Website,
	}
	if result := inputval.Validate(input); result.HasErrors() {
		return result.First()
	}
	if d.NameEN == "" && d.NameAR == "" {
		return "An English or Arabic name is required."
	}
	return ""
}

func (d formData) model() models.Institution {
	return models.Institution{
		NameEN:  d.NameEN,
		NameAR:  d.NameAR,
		Email:   d.Email,
		Phone:   d.Phone,
		Address: d.Address,
		Website: d.Website,
	}
}

func storeErrorMessage(err error, action string) string {
	switch {
	case errors.Is(err, institutionstore.ErrDuplicateInstitution):
		return "An institution with that name already exists."
	case errors.Is(err, institutionstore.ErrNameRequired):
		return "An English or Arabic name is required."
	default:
		return "Database error while " + action + " institution."
	}
}

// ServeNew renders the "New Institution" form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	var data formData
	formutil.SetBase(&data.Base, r, "New Institution", "/institutions")
	templates.Render(w, r, "institution_form", data)
}

// HandleCreate processes the New Institution form submission.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/institutions")
		return
	}

	data := readForm(r)
	reRender := func(msg string) {
		formutil.SetBase(&data.Base, r, "New Institution", "/institutions")
		data.SetError(msg)
		templates.Render(w, r, "institution_form", data)
	}

	if msg := validateForm(data); msg != "" {
		reRender(msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inst, err := institutionstore.New(h.DB).Create(ctx, data.model())
	if err != nil {
		reRender(storeErrorMessage(err, "creating"))
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventInstitutionCreated, &inst.ID, map[string]string{
		"name": inst.DisplayName("en"),
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.InstitutionsBackURL), http.StatusSeeOther)
}
