// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves daily attendance. Trainees record one entry per day;
// supervisors and admins approve or reject the entries.
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

func (h *Handler) loadInScope(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Attendance, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad attendance id", err, "Invalid attendance id.", "/attendance")
		return models.Attendance{}, false
	}
	a, err := attendancestore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "attendance not found", err, "That attendance record does not exist.", "/attendance")
		return a, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load attendance failed", err, "Unable to load attendance.", "/attendance")
		return a, false
	}
	ok, err := h.Policy.CanAccessTrainee(r.WithContext(ctx), a.TraineeID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "attendance access check failed", err, "Unable to load attendance.", "/attendance")
		return a, false
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "attendance outside scope", nil, "You do not have access to this record.", "/attendance")
		return a, false
	}
	return a, true
}
