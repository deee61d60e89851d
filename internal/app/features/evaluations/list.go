// internal/app/features/evaluations/list.go
package evaluations

import (
	"context"
	"net/http"

	evaluationstore "github.com/dalemusser/traineehub/internal/app/store/evaluations"
	metricsstore "github.com/dalemusser/traineehub/internal/app/store/metrics"
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

var evaluationStatuses = []string{models.EvaluationPending, models.EvaluationApproved, models.EvaluationRejected}

// ServeList handles GET /evaluations with ?status= and ?trainee=.
// Trainees see only approved evaluations of their own.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	isTrainee := authz.IsTrainee(r)
	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, "Evaluations", "/dashboard"),
		Status:    query.Get(r, "status"),
		Trainee:   query.Get(r, "trainee"),
		Statuses:  evaluationStatuses,
		CanCreate: authz.IsSupervisor(r),
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load evaluations.", "/dashboard")
		return
	}
	if scope.Incomplete() {
		data.NoProfile = true
		templates.Render(w, r, "evaluations_list", data)
		return
	}

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
	switch {
	case isTrainee:
		filter["status"] = models.EvaluationApproved
		data.Status = ""
		data.Statuses = nil
	case data.Status == models.EvaluationPending || data.Status == models.EvaluationApproved || data.Status == models.EvaluationRejected:
		filter["status"] = data.Status
	default:
		data.Status = ""
	}

	var evals []models.Evaluation
	if ids == nil || len(ids) > 0 {
		find := options.Find().
			SetSort(bson.D{{Key: "evaluated_at", Value: -1}}).
			SetLimit(int64(limits.MaxListRows + 1))
		evals, err = evaluationstore.New(h.DB).Find(ctx, filter, find)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "find evaluations failed", err, "Unable to load evaluations.", "/dashboard")
			return
		}
	}
	if len(evals) > limits.MaxListRows {
		evals = evals[:limits.MaxListRows]
		data.Truncated = true
	}

	opts, err := traineeoptions.Load(ctx, h.DB, scope.Filter())
	if err != nil {
		h.Log.Warn("load trainee names failed", zap.Error(err))
	}
	names := traineeoptions.NameMap(opts)
	if !isTrainee {
		data.Trainees = opts
	}

	data.Rows = make([]listRow, 0, len(evals))
	for _, e := range evals {
		data.Rows = append(data.Rows, listRow{Evaluation: e, TraineeName: names.Of(e.TraineeID)})
	}
	data.Average = averageOverall(evals)
	templates.Render(w, r, "evaluations_list", data)
}

// averageOverall is the mean overall score of the listed rows.
func averageOverall(evals []models.Evaluation) float64 {
	scores := make([]float64, len(evals))
	for i, e := range evals {
		scores[i] = e.OverallScore
	}
	return metricsstore.Mean(scores)
}
