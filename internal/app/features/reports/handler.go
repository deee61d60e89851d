// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves trainee progress reports: trainees submit and revise
// them, supervisors and admins review them.
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

// loadInScope reads {id}, loads the report and resolves the caller's scope.
// It writes the error response and returns ok=false when the id is bad,
// the report is missing, or the report's trainee is out of scope.
func (h *Handler) loadInScope(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Report, traineepolicy.Scope, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad report id", err, "Invalid report id.", "/reports")
		return models.Report{}, traineepolicy.Scope{}, false
	}
	rep, err := reportstore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "report not found", err, "That report no longer exists.", "/reports")
		return rep, traineepolicy.Scope{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load report failed", err, "Unable to load report.", "/reports")
		return rep, traineepolicy.Scope{}, false
	}
	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load report.", "/reports")
		return rep, scope, false
	}
	if !scope.Allows(rep.TraineeID) {
		h.ErrLog.LogForbidden(w, r, "report outside scope", nil, "You do not have access to this report.", "/reports")
		return rep, scope, false
	}
	return rep, scope, true
}
