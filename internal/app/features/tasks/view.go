// internal/app/features/tasks/view.go
package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}

	role, _, _, _ := authz.UserCtx(r)
	data := viewData{
		BaseVM:       viewdata.NewBaseVM(r, task.Title, "/tasks"),
		Task:         task,
		Overdue:      task.IsOverdue(time.Now()),
		NextStatuses: nextStatuses(role, task.Status),
		CanDelete:    !authz.IsTrainee(r),
	}
	opts, _ := traineeoptions.Load(ctx, h.DB, []primitive.ObjectID{task.TraineeID})
	data.TraineeName = traineeoptions.NameMap(opts).Of(task.TraineeID)
	if u, err := userstore.New(h.DB).GetByID(ctx, task.AssignedBy); err == nil {
		data.AssignedBy = u.FullName
	}
	templates.Render(w, r, "task_view", data)
}
