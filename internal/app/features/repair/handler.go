// internal/app/features/repair/handler.go
package repair

import (
	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/store/queries/integrity"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin repair page for orphaned trainees and trainee
// principals without a trainee record.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Tools    *integrity.Tools
}

// NewHandler wires the repair tools to the audit log so every state
// transition is recorded.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Tools:    integrity.NewFromDB(db, audit, logger),
	}
}
