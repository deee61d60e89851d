// internal/app/features/trainees/list.go
package trainees

import (
	"context"
	"net/http"

	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/system/limits"
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
)

// ServeList handles GET /trainees with optional ?q= (name, email or
// student number), ?status= and ?institution= filters.
//
// The list is a manual join: trainee rows are read first, then their users
// and institutions by id set. Rows whose user or institution is gone are
// listed separately for admins, never shown with made-up values.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := listData{
		BaseVM:      viewdata.NewBaseVM(r, "Trainees", "/dashboard"),
		Q:           query.Search(r, "q"),
		Status:      query.Get(r, "status"),
		Institution: query.Get(r, "institution"),
		Statuses:    models.TraineeStatuses,
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve trainee scope failed", err, "Unable to load trainees.", "/dashboard")
		return
	}
	if scope.Incomplete() {
		data.NoProfile = true
		templates.Render(w, r, "trainees_list", data)
		return
	}

	filter := bson.M{}
	if ids := scope.Filter(); ids != nil {
		filter["_id"] = bson.M{"$in": ids}
	}
	if models.IsValidTraineeStatus(data.Status) {
		filter["status"] = data.Status
	} else {
		data.Status = ""
	}
	if oid, err := primitive.ObjectIDFromHex(data.Institution); err == nil {
		filter["institution_id"] = oid
	} else {
		data.Institution = ""
	}

	if scope.All {
		if data.Institutions, err = h.institutionOptions(ctx); err != nil {
			h.Log.Warn("load institution filter failed", zap.Error(err))
		}
	}

	find := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limits.MaxListRows + 1))
	trainees, err := traineestore.New(h.DB).Find(ctx, filter, find)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find trainees failed", err, "Unable to load trainees.", "/dashboard")
		return
	}
	if len(trainees) > limits.MaxListRows {
		trainees = trainees[:limits.MaxListRows]
		data.Truncated = true
	}

	res := h.Expander.Join(ctx, trainees)
	for section, ferr := range res.Errors {
		h.Log.Warn("trainee list section failed", zap.String("section", section), zap.Error(ferr))
	}
	data.Rows = matchSearch(res.Rows, data.Q)
	data.Incomplete = res.Incomplete
	if scope.All {
		data.Dropped = res.Dropped
	}

	templates.Render(w, r, "trainees_list", data)
}

// matchSearch keeps rows whose name, email or student number starts with q
// (folded). Rows without a loaded user match on student number only.
func matchSearch(rows []assignedtrainees.Row, q string) []assignedtrainees.Row {
	fq := search.Query(q)
	if fq == "" {
		return rows
	}
	out := rows[:0:0]
	for _, row := range rows {
		fields := []string{text.Fold(row.Trainee.StudentNumber)}
		if row.User != nil {
			fields = append(fields, row.User.FullNameCI, row.User.EmailCI)
		}
		if search.Matches(fq, fields...) {
			out = append(out, row)
		}
	}
	return out
}
