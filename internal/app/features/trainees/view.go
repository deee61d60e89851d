// internal/app/features/trainees/view.go
package trainees

import (
	"context"
	"net/http"
	"sort"

	assignmentstore "github.com/dalemusser/traineehub/internal/app/store/assignments"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	evaluationstore "github.com/dalemusser/traineehub/internal/app/store/evaluations"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/fetch"
	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// viewRecent caps each history section on the trainee page.
const viewRecent = 10

// ServeView shows one trainee with its supervisors and recent records.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad trainee id", err, "Invalid trainee id.", "/trainees")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := h.Policy.CanAccessTrainee(r.WithContext(ctx), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "trainee access check failed", err, "Unable to load trainee.", "/trainees")
		return
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "trainee outside scope", nil, "You do not have access to this trainee.", "/trainees")
		return
	}

	tr, err := traineestore.New(h.DB).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.LogNotFound(w, r, "trainee not found", err, "That trainee no longer exists.", "/trainees")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load trainee failed", err, "Unable to load trainee.", "/trainees")
		return
	}

	data := h.buildView(ctx, tr)
	data.BaseVM = viewdata.NewBaseVM(r, "Trainee", "/trainees")
	data.CanEdit = authz.IsAdmin(r)
	templates.Render(w, r, "trainee_view", data)
}

// buildView loads the joined profile and every history section
// concurrently. Section failures are logged and rendered as failed.
func (h *Handler) buildView(ctx context.Context, tr models.Trainee) viewData {
	d := viewData{Trainee: tr}
	ids := []primitive.ObjectID{tr.ID}
	warn := func(section string, err error) {
		if err != nil {
			h.Log.Warn("trainee view section failed",
				zap.String("trainee_id", tr.ID.Hex()),
				zap.String("section", section),
				zap.Error(err))
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		res := h.Expander.Join(ctx, []models.Trainee{tr})
		for section, err := range res.Errors {
			warn(section, err)
		}
		if len(res.Rows) == 1 {
			d.User = res.Rows[0].User
			d.Institution = res.Rows[0].Institution
		}
		if len(res.Dropped) == 1 {
			d.Missing = res.Dropped[0].Reason
		}
		return nil
	})
	g.Go(func() error {
		lines, err := h.supervisorLines(ctx, tr.ID)
		warn("supervisors", err)
		d.Supervisors = fetch.Of(lines, err)
		return nil
	})
	g.Go(func() error {
		items, err := reportstore.New(h.DB).ListByTrainees(ctx, ids)
		warn("reports", err)
		d.Reports = fetch.Of(firstN(items, viewRecent), err)
		return nil
	})
	g.Go(func() error {
		items, err := taskstore.New(h.DB).ListByTrainees(ctx, ids)
		warn("tasks", err)
		d.Tasks = fetch.Of(firstN(items, viewRecent), err)
		return nil
	})
	g.Go(func() error {
		items, err := evaluationstore.New(h.DB).ListByTrainees(ctx, ids)
		warn("evaluations", err)
		d.Evaluations = fetch.Of(firstN(items, viewRecent), err)
		return nil
	})
	g.Go(func() error {
		items, err := attendancestore.New(h.DB).ListByTrainees(ctx, ids)
		warn("attendance", err)
		d.Attendance = fetch.Of(firstN(items, viewRecent), err)
		return nil
	})
	// Sections record their own errors; the group never fails.
	_ = g.Wait()
	return d
}

// supervisorLines resolves assignment → supervisor → user for one trainee.
// Assignments whose supervisor or user is gone are skipped.
func (h *Handler) supervisorLines(ctx context.Context, traineeID primitive.ObjectID) ([]supervisorLine, error) {
	asg, err := assignmentstore.New(h.DB).ListByTrainee(ctx, traineeID)
	if err != nil || len(asg) == 0 {
		return nil, err
	}
	sups, err := supervisorstore.New(h.DB).GetByIDs(ctx, idset.Collect(asg, func(a models.Assignment) primitive.ObjectID { return a.SupervisorID }))
	if err != nil {
		return nil, err
	}
	users, err := userstore.New(h.DB).GetByIDs(ctx, idset.Collect(sups, func(s models.Supervisor) primitive.ObjectID { return s.UserID }))
	if err != nil {
		return nil, err
	}

	supUser := make(map[primitive.ObjectID]primitive.ObjectID, len(sups))
	for _, s := range sups {
		supUser[s.ID] = s.UserID
	}
	names := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	var out []supervisorLine
	for _, a := range asg {
		uid, ok := supUser[a.SupervisorID]
		if !ok {
			continue
		}
		name, ok := names[uid]
		if !ok {
			continue
		}
		out = append(out, supervisorLine{Name: name, IsPrimary: a.IsPrimary})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsPrimary && !out[j].IsPrimary })
	return out, nil
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
