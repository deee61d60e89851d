// internal/app/features/trainees/handler.go
package trainees

import (
	"context"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	"github.com/dalemusser/traineehub/internal/app/store/accounts"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger

	Policy   *traineepolicy.Policy
	Expander *assignedtrainees.Expander
	Accounts *accounts.Creator
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Policy:   traineepolicy.NewFromDB(db),
		Expander: assignedtrainees.NewFromDB(db),
		Accounts: accounts.New(db),
	}
}

// institutionOptions loads the institution picker.
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
