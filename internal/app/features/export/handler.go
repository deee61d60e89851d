// internal/app/features/export/handler.go
package export

import (
	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves spreadsheet downloads of denormalized trainee and
// attendance rows. Every download is limited to the caller's scope.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	Policy   *traineepolicy.Policy
	Expander *assignedtrainees.Expander
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Policy:   traineepolicy.NewFromDB(db),
		Expander: assignedtrainees.NewFromDB(db),
	}
}
