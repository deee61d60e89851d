// internal/app/features/trainees/new.go
package trainees

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/accounts"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
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

// createTraineeInput defines validation rules for the New Trainee form.
type createTraineeInput struct {
	FullName      string `validate:"required,max=200" label:"Full name"`
	Email         string `validate:"required,email,max=254" label:"Email"`
	Password      string `validate:"omitempty,min=8,max=128" label:"Password"`
	InstitutionID string `validate:"required,objectid" label:"Institution"`
	profileInput
}

// profileInput is shared with the edit form.
type profileInput struct {
	University    string `validate:"max=200" label:"University"`
	Major         string `validate:"max=200" label:"Major"`
	AcademicYear  string `validate:"max=20" label:"Academic year"`
	StudentNumber string `validate:"max=50" label:"Student number"`
	Phone         string `validate:"max=50" label:"Phone"`
}

func readProfile(r *http.Request, d *formData) {
	d.InstitutionID = strings.TrimSpace(r.FormValue("institution_id"))
	d.University = strings.TrimSpace(r.FormValue("university"))
	d.Major = strings.TrimSpace(r.FormValue("major"))
	d.AcademicYear = strings.TrimSpace(r.FormValue("academic_year"))
	d.StudentNumber = strings.TrimSpace(r.FormValue("student_number"))
	d.Phone = strings.TrimSpace(r.FormValue("phone"))
	d.StartDate = strings.TrimSpace(r.FormValue("start_date"))
	d.EndDate = strings.TrimSpace(r.FormValue("end_date"))
}

func (d formData) profile() profileInput {
	return profileInput{
		University:    d.University,
		Major:         d.Major,
		AcademicYear:  d.AcademicYear,
		StudentNumber: d.StudentNumber,
		Phone:         d.Phone,
	}
}

// traineeModel builds the trainee row from the form. The caller has
// validated InstitutionID.
func (d formData) traineeModel() (models.Trainee, string) {
	t := models.Trainee{
		University:    d.University,
		Major:         d.Major,
		AcademicYear:  d.AcademicYear,
		StudentNumber: d.StudentNumber,
		Phone:         d.Phone,
		Status:        d.Status,
	}
	t.InstitutionID, _ = primitive.ObjectIDFromHex(d.InstitutionID)

	start, err := formutil.ParseDate(d.StartDate)
	if err != nil {
		return t, "Start date must be a valid date."
	}
	if start != nil {
		t.StartDate = *start
	}
	end, err := formutil.ParseDate(d.EndDate)
	if err != nil {
		return t, "End date must be a valid date."
	}
	if end != nil && start != nil && end.Before(*start) {
		return t, "End date cannot be before the start date."
	}
	t.EndDate = end
	return t, ""
}

// ServeNew renders the New Trainee form.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	insts, err := h.institutionOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load institutions failed", err, "Unable to load institutions.", "/trainees")
		return
	}
	data := formData{Institutions: insts, InstitutionID: r.URL.Query().Get("institution")}
	formutil.SetBase(&data.Base, r, "New Trainee", "/trainees")
	templates.Render(w, r, "trainee_form", data)
}

// HandleCreate creates the principal, its credential and the trainee row.
// These are separate writes. If the trainee row fails after the principal
// exists, the admin is told to finish it from the repair page, where the
// principal shows up as unprovisioned.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/trainees")
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
		formutil.SetBase(&data.Base, r, "New Trainee", "/trainees")
		data.SetError(msg)
		templates.Render(w, r, "trainee_form", data)
	}

	input := createTraineeInput{
		FullName:      data.Name,
		Email:         data.Email,
		Password:      password,
		InstitutionID: data.InstitutionID,
		profileInput:  data.profile(),
	}
	if result := inputval.Validate(input); result.HasErrors() {
		reRender(result.First())
		return
	}
	tr, msg := data.traineeModel()
	if msg != "" {
		reRender(msg)
		return
	}

	exists, err := institutionstore.New(h.DB).Exists(ctx, tr.InstitutionID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check institution failed", err, "Unable to create trainee.", "/trainees")
		return
	}
	if !exists {
		reRender("Please choose an existing institution.")
		return
	}

	u, err := h.Accounts.Create(ctx, accounts.Input{
		FullName: data.Name,
		Email:    data.Email,
		Role:     models.RoleTrainee,
		Password: password,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail), errors.Is(err, credentialstore.ErrDuplicateLogin):
			reRender("A user with that email already exists.")
		case errors.Is(err, accounts.ErrPasswordTooShort):
			reRender("Password must be at least 8 characters.")
		default:
			h.Log.Error("create trainee principal failed", zap.Error(err))
			reRender("Database error while creating the account.")
		}
		return
	}

	tr.UserID = u.ID
	created, err := traineestore.New(h.DB).Create(ctx, tr)
	if err != nil {
		h.Log.Error("create trainee row failed; principal left unprovisioned",
			zap.String("user_id", u.ID.Hex()), zap.Error(err))
		reRender("The account was created but its trainee profile could not be saved. Finish it from Repair.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventTraineeCreated, &created.ID, map[string]string{
		"user_id": u.ID.Hex(),
		"email":   u.Email,
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.TraineesBackURL), http.StatusSeeOther)
}
