// internal/app/features/reports/review.go
package reports

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type reviewInput struct {
	Status  string `validate:"required,oneof=approved rejected revision_required" label:"Decision"`
	Comment string `validate:"max=2000" label:"Comment"`
}

// HandleReview records a supervisor or admin decision on a report in scope.
// Asking for a revision needs a comment telling the trainee what to change.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
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

	in := reviewInput{
		Status:  strings.TrimSpace(r.FormValue("status")),
		Comment: strings.TrimSpace(r.FormValue("comment")),
	}
	reRender := func(msg string) {
		data := h.viewFor(ctx, r, rep)
		data.Comment = in.Comment
		data.Error = msg
		templates.Render(w, r, "report_view", data)
	}

	if result := inputval.Validate(in); result.HasErrors() {
		reRender(result.First())
		return
	}
	if in.Status == models.ReportRevisionRequired && in.Comment == "" {
		reRender("Please say what should be revised.")
		return
	}

	actor := authz.ActorID(r)
	if err := reportstore.New(h.DB).Review(ctx, rep.ID, in.Status, actor, in.Comment); err != nil {
		h.Log.Error("review report failed", zap.String("report_id", rep.ID.Hex()), zap.Error(err))
		reRender("Database error while saving the review.")
		return
	}
	h.AuditLog.Decision(ctx, r, actor, audit.EventReportReviewed, rep.ID, in.Status, in.Comment)

	http.Redirect(w, r, back, http.StatusSeeOther)
}
