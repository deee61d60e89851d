// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves trainee tasks. Supervisors and admins assign them,
// trainees move them along.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Policy   *traineepolicy.Policy
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Policy:   traineepolicy.NewFromDB(db),
	}
}

// loadInScope reads {id} and loads the task if its trainee is in the
// caller's scope. It writes the error response otherwise.
func (h *Handler) loadInScope(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Task, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad task id", err, "Invalid task id.", "/tasks")
		return models.Task{}, false
	}
	task, err := taskstore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "task not found", err, "That task no longer exists.", "/tasks")
		return task, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load task failed", err, "Unable to load task.", "/tasks")
		return task, false
	}
	ok, err := h.Policy.CanAccessTrainee(r.WithContext(ctx), task.TraineeID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "task access check failed", err, "Unable to load task.", "/tasks")
		return task, false
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "task outside scope", nil, "You do not have access to this task.", "/tasks")
		return task, false
	}
	return task, true
}

// nextStatuses returns the statuses the caller may move a task to.
// Trainees only start and submit work; reviewers may set any status.
// Finished tasks are closed to trainees.
func nextStatuses(role, current string) []string {
	var from []string
	if role == models.RoleTrainee {
		switch current {
		case models.TaskApproved, models.TaskCompleted, models.TaskCancelled:
			return nil
		}
		from = []string{models.TaskInProgress, models.TaskSubmitted}
	} else {
		from = models.TaskStatuses
	}
	out := make([]string, 0, len(from))
	for _, s := range from {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}
