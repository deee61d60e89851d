// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"net/http"
	"time"

	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/limits"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ServeList handles GET /tasks with ?status=, ?priority=, ?trainee= and
// ?overdue=1. Tasks are ordered by due date, undated last.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := listData{
		BaseVM:      viewdata.NewBaseVM(r, "Tasks", "/dashboard"),
		Status:      query.Get(r, "status"),
		Priority:    query.Get(r, "priority"),
		Trainee:     query.Get(r, "trainee"),
		OverdueOnly: query.Get(r, "overdue") == "1",
		Statuses:    models.TaskStatuses,
		Priorities:  models.TaskPriorities,
		CanAssign:   !authz.IsTrainee(r),
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load tasks.", "/dashboard")
		return
	}
	if scope.Incomplete() {
		data.NoProfile = true
		templates.Render(w, r, "tasks_list", data)
		return
	}

	now := time.Now()
	filter := bson.M{}
	ids := scope.Filter()
	if tid, err := primitive.ObjectIDFromHex(data.Trainee); err == nil && scope.Allows(tid) {
		ids = []primitive.ObjectID{tid}
	} else {
		data.Trainee = ""
	}
	if ids != nil {
		filter["trainee_id"] = bson.M{"$in": ids}
	}
	if models.IsValidTaskStatus(data.Status) {
		filter["status"] = data.Status
	} else {
		data.Status = ""
	}
	if models.IsValidTaskPriority(data.Priority) {
		filter["priority"] = data.Priority
	} else {
		data.Priority = ""
	}
	if data.OverdueOnly {
		filter["due_date"] = bson.M{"$lt": now}
		if data.Status == "" {
			filter["status"] = bson.M{"$nin": models.OverdueExempt}
		}
	}

	var tasks []models.Task
	if ids == nil || len(ids) > 0 {
		find := options.Find().
			SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: -1}}).
			SetLimit(int64(limits.MaxListRows + 1))
		tasks, err = taskstore.New(h.DB).Find(ctx, filter, find)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "find tasks failed", err, "Unable to load tasks.", "/dashboard")
			return
		}
	}
	if len(tasks) > limits.MaxListRows {
		tasks = tasks[:limits.MaxListRows]
		data.Truncated = true
	}
	tasks = datedFirst(tasks)

	opts, err := traineeoptions.Load(ctx, h.DB, scope.Filter())
	if err != nil {
		h.Log.Warn("load trainee names failed", zap.Error(err))
	}
	names := traineeoptions.NameMap(opts)
	if !authz.IsTrainee(r) {
		data.Trainees = opts
	}

	data.Rows = make([]listRow, 0, len(tasks))
	for _, t := range tasks {
		data.Rows = append(data.Rows, listRow{Task: t, TraineeName: names.Of(t.TraineeID), Overdue: t.IsOverdue(now)})
	}
	templates.Render(w, r, "tasks_list", data)
}

// datedFirst moves tasks without a due date after the dated ones, keeping
// order otherwise. Mongo sorts missing fields first.
func datedFirst(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	var undated []models.Task
	for _, t := range tasks {
		if t.DueDate == nil {
			undated = append(undated, t)
			continue
		}
		out = append(out, t)
	}
	return append(out, undated...)
}
