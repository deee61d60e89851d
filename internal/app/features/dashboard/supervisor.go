// internal/app/features/dashboard/supervisor.go
package dashboard

import (
	"context"
	"net/http"

	metricsstore "github.com/dalemusser/traineehub/internal/app/store/metrics"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/store/queries/profiles"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type supervisorData struct {
	viewdata.BaseVM

	Profile        profiles.Profile
	ProfileMissing bool

	Rows           []assignedtrainees.Row
	Dropped        []assignedtrainees.Dropped
	TraineesFailed bool
	JoinProblems   []string

	Metrics metricsstore.Summary
}

// Incomplete reports whether any section rendered from a failed read.
func (d supervisorData) Incomplete() bool {
	return d.TraineesFailed || len(d.JoinProblems) > 0 || d.Metrics.Incomplete() ||
		d.Profile.InstitutionStatus == profiles.InstitutionFailed
}

func (h *Handler) ServeSupervisor(w http.ResponseWriter, r *http.Request) {
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := h.buildSupervisor(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve supervisor profile failed", err, "Unable to load your dashboard.", "/")
		return
	}
	data.BaseVM = viewdata.NewBaseVM(r, "Supervisor Dashboard", "/supervisor")

	h.setCacheHeaders(w)
	templates.Render(w, r, "supervisor_dashboard", data)
}

// buildSupervisor returns an error only when the profile itself cannot be
// resolved. A missing supervisor row yields ProfileMissing and no further reads.
func (h *Handler) buildSupervisor(ctx context.Context, userID primitive.ObjectID) (supervisorData, error) {
	var d supervisorData

	prof, err := h.Profiles.Resolve(ctx, userID, models.RoleSupervisor)
	if err != nil {
		return d, err
	}
	d.Profile = prof
	if prof.Incomplete() {
		d.ProfileMissing = true
		return d, nil
	}

	var (
		g   errgroup.Group
		log = h.warnSection("supervisor")
		sid = prof.Supervisor.ID
	)
	g.Go(func() error {
		res, err := h.Expander.Expand(ctx, sid)
		if err != nil {
			log("trainees", err)
			d.TraineesFailed = true
			return nil
		}
		for section, e := range res.Errors {
			log(section, e)
		}
		d.Rows, d.Dropped, d.JoinProblems = res.Rows, res.Dropped, res.Problems
		return nil
	})
	g.Go(func() error {
		d.Metrics = h.Metrics.Summary(ctx, metricsstore.ForSupervisor(sid), log)
		return nil
	})
	// Sections record their own errors; the group never fails.
	_ = g.Wait()

	if len(d.Dropped) > 0 {
		h.Log.Info("assigned trainees excluded from dashboard",
			zap.String("supervisor_id", sid.Hex()),
			zap.Int("dropped", len(d.Dropped)))
	}
	return d, nil
}
