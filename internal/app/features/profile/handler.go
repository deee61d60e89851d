// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	"github.com/dalemusser/traineehub/internal/app/store/queries/profiles"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's own account page.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	Users       *userstore.Store
	Credentials *credentialstore.Store
	Profiles    *profiles.Resolver
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
		Users:       userstore.New(db),
		Credentials: credentialstore.New(db),
		Profiles:    profiles.NewFromDB(db),
	}
}
