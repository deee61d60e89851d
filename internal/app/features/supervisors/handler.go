// internal/app/features/supervisors/handler.go
package supervisors

import (
	"context"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/store/accounts"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin supervisor pages, including trainee assignment.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	Expander *assignedtrainees.Expander
	Accounts *accounts.Creator
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Expander: assignedtrainees.NewFromDB(db),
		Accounts: accounts.New(db),
	}
}

func (h *Handler) institutionOptions(ctx context.Context) ([]institutionOption, error) {
	insts, err := institutionstore.New(h.DB).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]institutionOption, 0, len(insts))
	for _, i := range insts {
		out = append(out, institutionOption{ID: i.ID.Hex(), Name: i.DisplayName("en")})
	}
	return out, nil
}
