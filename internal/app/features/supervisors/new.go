// internal/app/features/supervisors/new.go
package supervisors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/accounts"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createSupervisorInput struct {
	FullName string `validate:"required,max=200" label:"Full name"`
	Email    string `validate:"required,email,max=254" label:"Email"`
	Password string `validate:"omitempty,min=8,max=128" label:"Password"`
	profileInput
}

type profileInput struct {
	InstitutionID string `validate:"required,objectid" label:"Institution"`
	Position      string `validate:"max=200" label:"Position"`
	Department    string `validate:"max=200" label:"Department"`
	Phone         string `validate:"max=50" label:"Phone"`
}

func readProfile(r *http.Request, d *formData) {
	d.InstitutionID = strings.TrimSpace(r.FormValue("institution_id"))
	d.Position = strings.TrimSpace(r.FormValue("position"))
	d.Department = strings.TrimSpace(r.FormValue("department"))
	d.Phone = strings.TrimSpace(r.FormValue("phone"))
}

func (d formData) profile() profileInput {
	return profileInput{
		InstitutionID: d.InstitutionID,
		Position:      d.Position,
		Department:    d.Department,
		Phone:         d.Phone,
	}
}

func (d formData) model() models.Supervisor {
	s := models.Supervisor{Position: d.Position, Department: d.Department, Phone: d.Phone}
	s.InstitutionID, _ = primitive.ObjectIDFromHex(d.InstitutionID)
	return s
}

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	insts, err := h.institutionOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load institutions failed", err, "Unable to load institutions.", "/supervisors")
		return
	}
	data := formData{Institutions: insts}
	formutil.SetBase(&data.Base, r, "New Supervisor", "/supervisors")
	templates.Render(w, r, "supervisor_form", data)
}

// HandleCreate creates the principal with role supervisor, its credential
// and the supervisor row.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/supervisors")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := formData{
		Name:  strings.TrimSpace(r.FormValue("full_name")),
		Email: strings.TrimSpace(r.FormValue("email")),
	}
	readProfile(r, &data)
	password := r.FormValue("password")

	reRender := func(msg string) {
		insts, err := h.institutionOptions(ctx)
		if err != nil {
			h.Log.Warn("load institutions failed", zap.Error(err))
		}
		data.Institutions = insts
		formutil.SetBase(&data.Base, r, "New Supervisor", "/supervisors")
		data.SetError(msg)
		templates.Render(w, r, "supervisor_form", data)
	}

	input := createSupervisorInput{FullName: data.Name, Email: data.Email, Password: password, profileInput: data.profile()}
	if result := inputval.Validate(input); result.HasErrors() {
		reRender(result.First())
		return
	}
	sup := data.model()

	exists, err := institutionstore.New(h.DB).Exists(ctx, sup.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check institution failed", err, "Unable to create supervisor.", "/supervisors")
		return
	}
	if !exists {
		reRender("Please choose an existing institution.")
		return
	}

	u, err := h.Accounts.Create(ctx, accounts.Input{
		FullName: data.Name,
		Email:    data.Email,
		Role:     models.RoleSupervisor,
		Password: password,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail), errors.Is(err, credentialstore.ErrDuplicateLogin):
			reRender("A user with that email already exists.")
		case errors.Is(err, accounts.ErrPasswordTooShort):
			reRender("Password must be at least 8 characters.")
		default:
			h.Log.Error("create supervisor principal failed", zap.Error(err))
			reRender("Database error while creating the account.")
		}
		return
	}

	sup.UserID = u.ID
	created, err := supervisorstore.New(h.DB).Create(ctx, sup)
	if err != nil {
		h.Log.Error("create supervisor row failed",
			zap.String("user_id", u.ID.Hex()), zap.Error(err))
		reRender("The account was created but its supervisor profile could not be saved.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventSupervisorCreated, &created.ID, map[string]string{
		"user_id": u.ID.Hex(),
		"email":   u.Email,
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.SupervisorsBackURL), http.StatusSeeOther)
}
