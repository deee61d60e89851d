// internal/app/features/reports/submit.go
package reports

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type reportInput struct {
	Type    string `validate:"required,oneof=daily weekly monthly" label:"Type"`
	Title   string `validate:"required,max=200" label:"Title"`
	Content string `validate:"required,max=20000" label:"Content"`
}

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	data := formData{Type: models.ReportDaily, Types: models.ReportTypes}
	formutil.SetBase(&data.Base, r, "New Report", "/reports")
	templates.Render(w, r, "report_form", data)
}

// HandleCreate submits a report for the signed-in trainee.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/reports")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := formData{
		Type:        strings.TrimSpace(r.FormValue("type")),
		ReportTitle: strings.TrimSpace(r.FormValue("title")),
		Content:     strings.TrimSpace(r.FormValue("content")),
		Types:       models.ReportTypes,
	}
	reRender := func(msg string) {
		formutil.SetBase(&data.Base, r, "New Report", "/reports")
		data.SetError(msg)
		templates.Render(w, r, "report_form", data)
	}

	if result := inputval.Validate(reportInput{Type: data.Type, Title: data.ReportTitle, Content: data.Content}); result.HasErrors() {
		reRender(result.First())
		return
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to submit report.", "/reports")
		return
	}
	traineeID := scope.TraineeID()
	if traineeID.IsZero() {
		reRender("Your trainee profile is incomplete. Ask an administrator to finish it before submitting reports.")
		return
	}

	rep, err := reportstore.New(h.DB).Create(ctx, models.Report{
		TraineeID: traineeID,
		Type:      data.Type,
		Title:     data.ReportTitle,
		Content:   data.Content,
	})
	if err != nil {
		h.Log.Error("create report failed", zap.String("trainee_id", traineeID.Hex()), zap.Error(err))
		reRender("Database error while saving the report.")
		return
	}
	h.AuditLog.AdminAction(ctx, r, authz.ActorID(r), audit.EventReportSubmitted, &traineeID, map[string]string{
		"report_id": rep.ID.Hex(),
		"type":      rep.Type,
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.ReportsBackURL), http.StatusSeeOther)
}

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, _, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	back := "/reports/" + rep.ID.Hex()
	if !editable(rep) {
		h.ErrLog.LogBadRequest(w, r, "report not editable", reportstore.ErrNotEditable, "This report has been reviewed and can no longer be edited.", back)
		return
	}
	data := formData{ID: rep.ID.Hex(), Type: rep.Type, ReportTitle: rep.Title, Content: rep.Content, Types: models.ReportTypes}
	formutil.SetBase(&data.Base, r, "Revise Report", back)
	templates.Render(w, r, "report_form", data)
}

// HandleEdit saves a revision. The report goes back to pending.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, _, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	back := "/reports/" + rep.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return
	}

	data := formData{
		ID:          rep.ID.Hex(),
		Type:        rep.Type,
		ReportTitle: strings.TrimSpace(r.FormValue("title")),
		Content:     strings.TrimSpace(r.FormValue("content")),
		Types:       models.ReportTypes,
	}
	reRender := func(msg string) {
		formutil.SetBase(&data.Base, r, "Revise Report", back)
		data.SetError(msg)
		templates.Render(w, r, "report_form", data)
	}

	if result := inputval.Validate(reportInput{Type: data.Type, Title: data.ReportTitle, Content: data.Content}); result.HasErrors() {
		reRender(result.First())
		return
	}

	err := reportstore.New(h.DB).Resubmit(ctx, rep.ID, data.ReportTitle, data.Content)
	if errors.Is(err, reportstore.ErrNotEditable) {
		reRender("This report has been reviewed and can no longer be edited.")
		return
	}
	if err != nil {
		h.Log.Error("resubmit report failed", zap.String("report_id", rep.ID.Hex()), zap.Error(err))
		reRender("Database error while saving the report.")
		return
	}
	h.AuditLog.AdminAction(ctx, r, authz.ActorID(r), audit.EventReportResubmitted, &rep.TraineeID, map[string]string{
		"report_id":   rep.ID.Hex(),
		"prev_status": rep.Status,
	})

	http.Redirect(w, r, back, http.StatusSeeOther)
}
