// internal/app/features/announcements/handler.go
package announcements

import (
	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	announcementstore "github.com/dalemusser/traineehub/internal/app/store/announcements"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all Announcements handlers.
type Handler struct {
	DB       *mongo.Database
	Store    *announcementstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Policy   *traineepolicy.Policy
}

// NewHandler constructs an Announcements Handler.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Store:    announcementstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Policy:   traineepolicy.NewFromDB(db),
	}
}

// GetStore returns the announcement store for use by other packages.
func (h *Handler) GetStore() *announcementstore.Store {
	return h.Store
}
