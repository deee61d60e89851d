// internal/app/features/supervisors/list.go
package supervisors

import (
	"context"
	"net/http"
	"sort"
	"strings"

	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"github.com/dalemusser/traineehub/internal/app/system/limits"
	"github.com/dalemusser/traineehub/internal/app/system/counts"
	"github.com/dalemusser/traineehub/internal/app/system/search"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ServeList handles GET /supervisors.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sups, err := supervisorstore.New(h.DB).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(int64(limits.MaxListRows)))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find supervisors failed", err, "Unable to load supervisors.", "/dashboard")
		return
	}

	data := listData{
		BaseVM: viewdata.NewBaseVM(r, "Supervisors", "/dashboard"),
		Q:      query.Search(r, "q"),
	}
	rows, orphans, incomplete := h.joinList(ctx, sups)
	data.Rows = filterRows(rows, data.Q)
	data.Orphans, data.Incomplete = orphans, incomplete
	templates.Render(w, r, "supervisors_list", data)
}

// filterRows keeps rows whose name or email starts with q. An email-looking
// query re-sorts the result by email.
func filterRows(rows []listItem, q string) []listItem {
	fq := search.Query(q)
	if fq == "" {
		return rows
	}
	out := rows[:0:0]
	for _, row := range rows {
		if search.Matches(fq, text.Fold(row.Name), text.Fold(row.Email)) {
			out = append(out, row)
		}
	}
	if search.IsEmailQuery(q) {
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Email) < strings.ToLower(out[j].Email)
		})
	}
	return out
}

// joinList attaches users, institutions and assignment counts. Supervisors
// whose user is gone are returned as orphans. A failed lookup leaves its
// column blank and reports incomplete.
func (h *Handler) joinList(ctx context.Context, sups []models.Supervisor) ([]listItem, []models.Supervisor, bool) {
	if len(sups) == 0 {
		return nil, nil, false
	}
	ids := idset.Collect(sups, func(s models.Supervisor) primitive.ObjectID { return s.ID })

	var (
		users    []models.User
		insts    []models.Institution
		assigned map[primitive.ObjectID]int64
		userErr  error
		instErr  error
		countErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		users, userErr = userstore.New(h.DB).GetByIDs(ctx, idset.Collect(sups, func(s models.Supervisor) primitive.ObjectID { return s.UserID }))
		return nil
	})
	g.Go(func() error {
		insts, instErr = institutionstore.New(h.DB).GetByIDs(ctx, idset.Collect(sups, func(s models.Supervisor) primitive.ObjectID { return s.InstitutionID }))
		return nil
	})
	g.Go(func() error {
		assigned, countErr = counts.ByField(ctx, h.DB, "supervisor_trainee",
			bson.M{"supervisor_id": bson.M{"$in": ids}}, "supervisor_id")
		return nil
	})
	// userErr and countErr are reported separately below.
	_ = g.Wait()

	incomplete := false
	for section, err := range map[string]error{"users": userErr, "institutions": instErr, "assignments": countErr} {
		if err != nil {
			h.Log.Warn("supervisor list section failed", zap.String("section", section), zap.Error(err))
			incomplete = true
		}
	}

	userByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	instName := make(map[primitive.ObjectID]string, len(insts))
	for _, i := range insts {
		instName[i.ID] = i.DisplayName("en")
	}

	var rows []listItem
	var orphans []models.Supervisor
	for _, s := range sups {
		item := listItem{
			ID:          s.ID,
			Institution: instName[s.InstitutionID],
			Position:    s.Position,
			Department:  s.Department,
			Trainees:    assigned[s.ID],
		}
		if userErr == nil {
			u, ok := userByID[s.UserID]
			if !ok {
				orphans = append(orphans, s)
				continue
			}
			item.Name, item.Email = u.FullName, u.Email
		}
		rows = append(rows, item)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows, orphans, incomplete
}
