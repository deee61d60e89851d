// internal/app/features/dashboard/handler.go
package dashboard

import (
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	metricsstore "github.com/dalemusser/traineehub/internal/app/store/metrics"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/store/queries/integrity"
	"github.com/dalemusser/traineehub/internal/app/store/queries/profiles"
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// recentLimit caps the task, report and announcement lists on the trainee dashboard.
const recentLimit = 5

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	Profiles  *profiles.Resolver
	Expander  *assignedtrainees.Expander
	Metrics   *metricsstore.Aggregator
	Integrity *integrity.Tools

	// Revalidate is how long a browser may reuse a rendered dashboard.
	// Zero disables caching.
	Revalidate time.Duration
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, revalidate time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		Profiles:   profiles.NewFromDB(db),
		Expander:   assignedtrainees.NewFromDB(db),
		Metrics:    metricsstore.NewFromDB(db),
		Integrity:  integrity.NewFromDB(db, nil, logger),
		Revalidate: revalidate,
	}
}

// ServeDashboard sends the user to the dashboard for their role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, auth.HomeFor(u.Role), http.StatusSeeOther)
}

func (h *Handler) setCacheHeaders(w http.ResponseWriter) {
	if h.Revalidate <= 0 {
		w.Header().Set("Cache-Control", "no-store")
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(h.Revalidate.Seconds())))
}

// warnSection logs a failed dashboard section; the section renders empty.
func (h *Handler) warnSection(page string) func(section string, err error) {
	return func(section string, err error) {
		h.Log.Warn("dashboard section failed",
			zap.String("dashboard", page),
			zap.String("section", section),
			zap.Error(err))
	}
}
