// internal/app/features/evaluations/handler.go
package evaluations

import (
	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves trainee evaluations. Supervisors score their trainees,
// admins approve or reject the scores, trainees see approved ones.
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
