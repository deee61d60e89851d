// internal/app/features/tasks/new.go
package tasks

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
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

type taskInput struct {
	TraineeID   string `validate:"required,objectid" label:"Trainee"`
	Title       string `validate:"required,max=200" label:"Title"`
	Description string `validate:"max=5000" label:"Description"`
	Priority    string `validate:"required,oneof=low medium high urgent" label:"Priority"`
}

// pickerOptions lists the active trainees in scope.
func (h *Handler) pickerOptions(ctx context.Context, scope traineepolicy.Scope) []traineeoptions.Option {
	opts, err := traineeoptions.Load(ctx, h.DB, scope.Filter())
	if err != nil {
		h.Log.Warn("load trainee options failed", zap.Error(err))
	}
	return traineeoptions.Active(opts)
}

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load trainees.", "/tasks")
		return
	}
	data := formData{
		TraineeID:  r.URL.Query().Get("trainee"),
		Priority:   models.PriorityMedium,
		Trainees:   h.pickerOptions(ctx, scope),
		Priorities: models.TaskPriorities,
	}
	formutil.SetBase(&data.Base, r, "New Task", "/tasks")
	if scope.Incomplete() {
		data.SetError("Your supervisor profile is incomplete, so you cannot assign tasks yet.")
	}
	templates.Render(w, r, "task_form", data)
}

// HandleCreate assigns a task to a trainee in the caller's scope.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/tasks")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to create task.", "/tasks")
		return
	}

	data := formData{
		TraineeID:   strings.TrimSpace(r.FormValue("trainee_id")),
		TaskTitle:   strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Priority:    strings.TrimSpace(r.FormValue("priority")),
		DueDate:     strings.TrimSpace(r.FormValue("due_date")),
		Priorities:  models.TaskPriorities,
	}
	reRender := func(msg string) {
		data.Trainees = h.pickerOptions(ctx, scope)
		formutil.SetBase(&data.Base, r, "New Task", "/tasks")
		data.SetError(msg)
		templates.Render(w, r, "task_form", data)
	}

	in := taskInput{TraineeID: data.TraineeID, Title: data.TaskTitle, Description: data.Description, Priority: data.Priority}
	if result := inputval.Validate(in); result.HasErrors() {
		reRender(result.First())
		return
	}
	due, err := formutil.ParseDate(data.DueDate)
	if err != nil {
		reRender("Due date must be a valid date.")
		return
	}
	traineeID, _ := primitive.ObjectIDFromHex(data.TraineeID)
	if !scope.Allows(traineeID) {
		reRender("Please choose one of your trainees.")
		return
	}

	actor := authz.ActorID(r)
	task, err := taskstore.New(h.DB).Create(ctx, models.Task{
		TraineeID:   traineeID,
		AssignedBy:  actor,
		Title:       data.TaskTitle,
		Description: data.Description,
		Priority:    data.Priority,
		DueDate:     due,
	})
	if err != nil {
		h.Log.Error("create task failed", zap.Error(err))
		reRender("Database error while saving the task.")
		return
	}
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventTaskCreated, &traineeID, map[string]string{
		"task_id":  task.ID.Hex(),
		"priority": task.Priority,
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.TasksBackURL), http.StatusSeeOther)
}

// HandleDelete removes a task in scope.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	task, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	n, err := taskstore.New(h.DB).Delete(ctx, task.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete task failed", err, "Unable to delete task.", "/tasks/"+task.ID.Hex())
		return
	}
	if n > 0 {
		actor := authz.ActorID(r)
		h.AuditLog.AdminAction(ctx, r, actor, audit.EventTaskDeleted, &task.TraineeID, map[string]string{
			"task_id": task.ID.Hex(),
			"title":   task.Title,
		})
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}
