// internal/app/features/export/trainees.go
package export

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/app/policy/traineepolicy"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var errPartialJoin = errors.New("trainee join incomplete")

var traineeHeaders = []string{
	"Name", "Email", "Institution", "Student number", "University", "Major",
	"Academic year", "Status", "Start date", "End date", "Phone",
}

// traineeRows flattens joined rows. Rows with a missing user or
// institution never reach here: the join drops them.
func traineeRows(rows []assignedtrainees.Row) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		tr := row.Trainee
		var email, inst string
		if row.User != nil {
			email = row.User.Email
		}
		if row.Institution != nil {
			inst = row.Institution.DisplayName("en")
		}
		out = append(out, []any{
			row.Name(), email, inst, tr.StudentNumber, tr.University, tr.Major,
			tr.AcademicYear, tr.Status, dateCell(&tr.StartDate), dateCell(tr.EndDate), tr.Phone,
		})
	}
	return out
}

// loadTrainees returns the joined rows visible to scope, optionally
// filtered by status. A join with a failed section is an error: a
// spreadsheet with silently blank columns is worse than no download.
func (h *Handler) loadTrainees(ctx context.Context, scope traineepolicy.Scope, status string) ([]assignedtrainees.Row, error) {
	filter := bson.M{}
	if ids := scope.Filter(); ids != nil {
		if len(ids) == 0 {
			return nil, nil
		}
		filter["_id"] = bson.M{"$in": ids}
	}
	if models.IsValidTraineeStatus(status) {
		filter["status"] = status
	}

	trainees, err := traineestore.New(h.DB).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	res := h.Expander.Join(ctx, trainees)
	if res.Incomplete {
		for section, ferr := range res.Errors {
			h.Log.Warn("trainee export section failed", zap.String("section", section), zap.Error(ferr))
		}
		return nil, errPartialJoin
	}
	if len(res.Dropped) > 0 {
		h.Log.Info("trainee export skipped rows with dangling references", zap.Int("dropped", len(res.Dropped)))
	}
	return res.Rows, nil
}

// ServeTrainees handles GET /export/trainees.xlsx with an optional ?status=.
func (h *Handler) ServeTrainees(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve export scope failed", err, "Unable to export trainees.", "/trainees")
		return
	}
	if scope.Incomplete() {
		h.ErrLog.LogForbidden(w, r, "export without profile", nil, "Your profile is incomplete. Ask an administrator to finish it.", "/dashboard")
		return
	}

	rows, err := h.loadTrainees(ctx, scope, strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load trainees for export failed", err, "Unable to export trainees.", "/trainees")
		return
	}

	book, err := sheet{
		Name:    "Trainees",
		Headers: traineeHeaders,
		Widths:  []float64{28, 32, 30, 16, 28, 22, 14, 12, 12, 12, 16},
		Rows:    traineeRows(rows),
	}.build()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build trainee workbook failed", err, "Unable to export trainees.", "/trainees")
		return
	}
	defer book.Close()

	if err := send(w, book, filename("trainees", time.Now())); err != nil {
		h.Log.Warn("write trainee workbook failed", zap.Error(err))
	}
}
