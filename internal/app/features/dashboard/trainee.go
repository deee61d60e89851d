// internal/app/features/dashboard/trainee.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	announcementstore "github.com/dalemusser/traineehub/internal/app/store/announcements"
	metricsstore "github.com/dalemusser/traineehub/internal/app/store/metrics"
	"github.com/dalemusser/traineehub/internal/app/store/queries/profiles"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/fetch"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type traineeData struct {
	viewdata.BaseVM

	Profile        profiles.Profile
	ProfileMissing bool

	Metrics       metricsstore.Summary
	Tasks         fetch.Result[models.Task]
	Reports       fetch.Result[models.Report]
	Announcements fetch.Result[models.Announcement]

	Now time.Time
}

// Incomplete reports whether any section rendered from a failed read.
func (d traineeData) Incomplete() bool {
	return d.Metrics.Incomplete() || !d.Tasks.Ok() || !d.Reports.Ok() || !d.Announcements.Ok() ||
		d.Profile.InstitutionStatus == profiles.InstitutionFailed
}

func (h *Handler) ServeTrainee(w http.ResponseWriter, r *http.Request) {
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data, err := h.buildTrainee(ctx, userID, time.Now())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve trainee profile failed", err, "Unable to load your dashboard.", "/")
		return
	}
	data.BaseVM = viewdata.NewBaseVM(r, "My Dashboard", "/trainee")

	h.setCacheHeaders(w)
	templates.Render(w, r, "trainee_dashboard", data)
}

func (h *Handler) buildTrainee(ctx context.Context, userID primitive.ObjectID, now time.Time) (traineeData, error) {
	d := traineeData{Now: now}

	prof, err := h.Profiles.Resolve(ctx, userID, models.RoleTrainee)
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
		log = h.warnSection("trainee")
		tid = prof.Trainee.ID
		ids = []primitive.ObjectID{tid}
	)
	g.Go(func() error {
		d.Metrics = h.Metrics.Summary(ctx, metricsstore.ForTrainee(tid), log)
		return nil
	})
	g.Go(func() error {
		rows, err := taskstore.New(h.DB).ListByTrainees(ctx, ids)
		d.Tasks = fetch.Of(openTasks(rows), err)
		if err != nil {
			log("tasks", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := reportstore.New(h.DB).ListByTrainees(ctx, ids)
		d.Reports = fetch.Of(firstN(rows, recentLimit), err)
		if err != nil {
			log("reports", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := announcementstore.New(h.DB).ListForTrainee(ctx, tid, recentLimit)
		d.Announcements = fetch.Of(rows, err)
		if err != nil {
			log("announcements", err)
		}
		return nil
	})
	// Each section keeps its own error so one failure leaves the others
	// rendered. The group never fails.
	_ = g.Wait()
	return d, nil
}

// openTasks keeps unfinished tasks, soonest due first as the store returns them.
func openTasks(rows []models.Task) []models.Task {
	var out []models.Task
	for _, t := range rows {
		switch t.Status {
		case models.TaskApproved, models.TaskCompleted, models.TaskCancelled:
			continue
		}
		out = append(out, t)
		if len(out) == recentLimit {
			break
		}
	}
	return out
}

func firstN[T any](rows []T, n int) []T {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
