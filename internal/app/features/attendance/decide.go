// internal/app/features/attendance/decide.go
package attendance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// HandleDecide approves or rejects a pending attendance record. A rejection
// needs a reason. Decisions are final.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	back := "/attendance/" + a.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return
	}
	if ok, err := h.Policy.CanReview(r.WithContext(ctx), a.TraineeID); err != nil || !ok {
		h.ErrLog.LogForbidden(w, r, "attendance review not allowed", err, "You cannot review this record.", back)
		return
	}

	actor := authz.ActorID(r)
	decision := strings.TrimSpace(r.FormValue("decision"))
	reason := strings.TrimSpace(r.FormValue("reason"))

	var (
		ap  models.Approval
		err error
	)
	switch models.ApprovalState(decision) {
	case models.ApprovalApproved:
		ap = models.Approve(actor, time.Now())
		reason = ""
	case models.ApprovalRejected:
		ap, err = models.Reject(actor, time.Now(), reason)
	default:
		h.ErrLog.LogBadRequest(w, r, "bad attendance decision", models.ErrUnknownApprovalState, "Please approve or reject the record.", back)
		return
	}
	if errors.Is(err, models.ErrRejectionReasonRequired) {
		data := h.viewFor(ctx, r, a)
		data.Error = "Please give a reason for the rejection."
		templates.Render(w, r, "attendance_view", data)
		return
	}

	err = attendancestore.New(h.DB).Decide(ctx, a.ID, ap)
	if errors.Is(err, attendancestore.ErrAlreadyFinal) {
		h.ErrLog.LogBadRequest(w, r, "attendance already decided", err, "This record has already been decided.", back)
		return
	}
	if err != nil {
		h.Log.Error("decide attendance failed", zap.String("attendance_id", a.ID.Hex()), zap.Error(err))
		h.ErrLog.LogServerError(w, r, "decide attendance failed", err, "Unable to save the decision.", back)
		return
	}
	h.AuditLog.Decision(ctx, r, actor, audit.EventAttendanceDecided, a.ID, decision, reason)

	http.Redirect(w, r, back, http.StatusSeeOther)
}
