// internal/app/features/evaluations/decide.go
package evaluations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	evaluationstore "github.com/dalemusser/traineehub/internal/app/store/evaluations"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

// HandleDecide approves or rejects a pending evaluation. Deciding twice is
// refused.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	back := "/evaluations/" + e.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return
	}

	decision := strings.TrimSpace(r.FormValue("decision"))
	if decision != models.EvaluationApproved && decision != models.EvaluationRejected {
		h.ErrLog.LogBadRequest(w, r, "bad evaluation decision", evaluationstore.ErrBadDecision, "Please approve or reject the evaluation.", back)
		return
	}

	actor := authz.ActorID(r)
	err := evaluationstore.New(h.DB).Decide(ctx, e.ID, decision, actor)
	if errors.Is(err, evaluationstore.ErrAlreadyFinal) {
		h.ErrLog.LogBadRequest(w, r, "evaluation already decided", err, "This evaluation has already been decided.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "decide evaluation failed", err, "Unable to save the decision.", back)
		return
	}
	h.AuditLog.Decision(ctx, r, actor, audit.EventEvaluationDecided, e.ID, decision, "")

	http.Redirect(w, r, back, http.StatusSeeOther)
}
