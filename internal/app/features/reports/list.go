// internal/app/features/reports/list.go
package reports

import (
	"context"
	"net/http"

	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/limits"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ServeList handles GET /reports with optional ?status=, ?type= and
// ?trainee= filters. Trainees see their own reports, supervisors those of
// their assigned trainees, admins all.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	data := listData{
		BaseVM:   viewdata.NewBaseVM(r, "Reports", "/dashboard"),
		Status:   query.Get(r, "status"),
		Type:     query.Get(r, "type"),
		Trainee:  query.Get(r, "trainee"),
		Statuses: []string{models.ReportPending, models.ReportApproved, models.ReportRejected, models.ReportRevisionRequired},
		Types:    models.ReportTypes,
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load reports.", "/dashboard")
		return
	}
	if scope.Incomplete() {
		data.NoProfile = true
		templates.Render(w, r, "reports_list", data)
		return
	}
	data.CanSubmit = authz.IsTrainee(r)

	filter := bson.M{}
	ids := scope.Filter()
	if tid, err := primitive.ObjectIDFromHex(data.Trainee); err == nil && scope.Allows(tid) {
		ids = []primitive.ObjectID{tid}
	} else {
		data.Trainee = ""
	}
	if ids != nil {
		filter["trainee_id"] = bson.M{"$in": ids}
	}
	if data.Status != "" && (data.Status == models.ReportPending || models.IsReviewStatus(data.Status)) {
		filter["status"] = data.Status
	} else {
		data.Status = ""
	}
	if models.IsValidReportType(data.Type) {
		filter["type"] = data.Type
	} else {
		data.Type = ""
	}

	var reps []models.Report
	if ids == nil || len(ids) > 0 {
		find := options.Find().
			SetSort(bson.D{{Key: "submitted_at", Value: -1}}).
			SetLimit(int64(limits.MaxListRows + 1))
		reps, err = reportstore.New(h.DB).Find(ctx, filter, find)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "find reports failed", err, "Unable to load reports.", "/dashboard")
			return
		}
	}
	if len(reps) > limits.MaxListRows {
		reps = reps[:limits.MaxListRows]
		data.Truncated = true
	}

	opts, err := traineeoptions.Load(ctx, h.DB, scope.Filter())
	if err != nil {
		h.Log.Warn("load trainee names failed", zap.Error(err))
	}
	names := traineeoptions.NameMap(opts)
	if !authz.IsTrainee(r) {
		data.Trainees = opts
	}

	data.Rows = make([]listRow, 0, len(reps))
	for _, rep := range reps {
		data.Rows = append(data.Rows, listRow{Report: rep, TraineeName: names.Of(rep.TraineeID)})
	}

	templates.Render(w, r, "reports_list", data)
}
