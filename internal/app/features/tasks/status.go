// internal/app/features/tasks/status.go
package tasks

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleStatus moves a task to a new status if the caller's role allows it.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	back := "/tasks/" + task.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return
	}

	status := strings.TrimSpace(r.FormValue("status"))
	role, _, _, _ := authz.UserCtx(r)
	allowed := false
	for _, s := range nextStatuses(role, task.Status) {
		if s == status {
			allowed = true
			break
		}
	}
	if !allowed {
		h.ErrLog.LogBadRequest(w, r, "task status not allowed", nil, "That status change is not allowed.", back)
		return
	}

	if err := taskstore.New(h.DB).SetStatus(ctx, task.ID, status); err != nil {
		h.Log.Error("set task status failed", zap.String("task_id", task.ID.Hex()), zap.Error(err))
		h.ErrLog.LogServerError(w, r, "set task status failed", err, "Unable to update task.", back)
		return
	}
	h.AuditLog.AdminAction(ctx, r, authz.ActorID(r), audit.EventTaskStatusChanged, &task.TraineeID, map[string]string{
		"task_id": task.ID.Hex(),
		"from":    task.Status,
		"to":      status,
	})
	http.Redirect(w, r, back, http.StatusSeeOther)
}
