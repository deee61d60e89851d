// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"

	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	metricsstore "github.com/dalemusser/traineehub/internal/app/store/metrics"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type adminData struct {
	viewdata.BaseVM

	Metrics      metricsstore.Summary
	Institutions int64
	Supervisors  int64

	Orphaned        int
	Unprovisioned   int
	IntegrityFailed bool
	CountsFailed    bool
}

// Incomplete reports whether any section rendered from a failed read.
func (d adminData) Incomplete() bool {
	return d.Metrics.Incomplete() || d.IntegrityFailed || d.CountsFailed
}

// NeedsRepair reports whether the repair page has work to do.
func (d adminData) NeedsRepair() bool { return d.Orphaned+d.Unprovisioned > 0 }

func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := h.buildAdmin(ctx)
	data.BaseVM = viewdata.NewBaseVM(r, "Admin Dashboard", "/admin")

	h.setCacheHeaders(w)
	templates.Render(w, r, "admin_dashboard", data)
}

// buildAdmin reads every admin section concurrently. Failures are logged
// and flagged; they never abort the page.
func (h *Handler) buildAdmin(ctx context.Context) adminData {
	var (
		d   adminData
		g   errgroup.Group
		log = h.warnSection("admin")
	)

	g.Go(func() error {
		d.Metrics = h.Metrics.Summary(ctx, metricsstore.Global(), log)
		return nil
	})
	g.Go(func() error {
		rep, err := h.Integrity.Scan(ctx)
		if err != nil {
			log("integrity", err)
			d.IntegrityFailed = true
			return nil
		}
		d.Orphaned = len(rep.Orphaned)
		d.Unprovisioned = len(rep.Unprovisioned)
		return nil
	})
	g.Go(func() error {
		var err error
		if d.Institutions, err = institutionstore.New(h.DB).Count(ctx, bson.M{}); err != nil {
			log("institutions", err)
			d.CountsFailed = true
			return nil
		}
		if d.Supervisors, err = supervisorstore.New(h.DB).Count(ctx, bson.M{}); err != nil {
			log("supervisors", err)
			d.CountsFailed = true
		}
		return nil
	})
	// Sections record their own errors; the group never fails.
	_ = g.Wait()

	h.Log.Debug("admin dashboard built",
		zap.Bool("incomplete", d.Incomplete()),
		zap.Int("orphaned", d.Orphaned),
		zap.Int("unprovisioned", d.Unprovisioned))
	return d
}
