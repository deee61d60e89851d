// internal/app/features/trainees/edit.go
package trainees

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
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
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type editTraineeInput struct {
	Status        string `validate:"required,oneof=active completed suspended transferred withdrawn" label:"Status"`
	InstitutionID string `validate:"required,objectid" label:"Institution"`
	profileInput
}

// ServeEdit renders the edit form for one trainee's profile and status.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad trainee id", err, "Invalid trainee id.", "/trainees")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tr, err := traineestore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "trainee not found", err, "That trainee no longer exists.", "/trainees")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load trainee failed", err, "Unable to load trainee.", "/trainees")
		return
	}
	insts, err := h.institutionOptions(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load institutions failed", err, "Unable to load institutions.", "/trainees")
		return
	}

	data := formData{
		ID:            tr.ID.Hex(),
		Status:        tr.Status,
		InstitutionID: tr.InstitutionID.Hex(),
		University:    tr.University,
		Major:         tr.Major,
		AcademicYear:  tr.AcademicYear,
		StudentNumber: tr.StudentNumber,
		Phone:         tr.Phone,
		StartDate:     formutil.FormatDate(&tr.StartDate),
		EndDate:       formutil.FormatDate(tr.EndDate),
		Statuses:      models.TraineeStatuses,
		Institutions:  insts,
	}
	if u, err := userstore.New(h.DB).GetByID(ctx, tr.UserID); err == nil {
		data.Name, data.Email = u.FullName, u.Email
	}
	formutil.SetBase(&data.Base, r, "Edit Trainee", "/trainees/"+tr.ID.Hex())
	templates.Render(w, r, "trainee_form", data)
}

// HandleEdit saves profile fields and status. The last write wins.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad trainee id", err, "Invalid trainee id.", "/trainees")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/trainees")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := formData{
		ID:     id.Hex(),
		Name:   strings.TrimSpace(r.FormValue("full_name")),
		Status: strings.TrimSpace(r.FormValue("status")),
	}
	readProfile(r, &data)

	reRender := func(msg string) {
		insts, err := h.institutionOptions(ctx)
		if err != nil {
			h.Log.Warn("load institutions failed", zap.Error(err))
		}
		data.Institutions = insts
		data.Statuses = models.TraineeStatuses
		formutil.SetBase(&data.Base, r, "Edit Trainee", "/trainees/"+id.Hex())
		data.SetError(msg)
		templates.Render(w, r, "trainee_form", data)
	}

	input := editTraineeInput{Status: data.Status, InstitutionID: data.InstitutionID, profileInput: data.profile()}
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
		h.ErrLog.LogServerError(w, r, "check institution failed", err, "Unable to save trainee.", "/trainees")
		return
	}
	if !exists {
		reRender("Please choose an existing institution.")
		return
	}

	err = traineestore.New(h.DB).Update(ctx, id, tr)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "trainee not found", err, "That trainee no longer exists.", "/trainees")
		return
	}
	if err != nil {
		h.Log.Error("update trainee failed", zap.String("trainee_id", id.Hex()), zap.Error(err))
		reRender("Database error while saving the trainee.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventTraineeUpdated, &id, map[string]string{"status": tr.Status})

	opts := navigation.TraineesBackURL
	opts.Fallback = "/trainees/" + id.Hex()
	http.Redirect(w, r, navigation.SafeBackURL(r, opts), http.StatusSeeOther)
}
