// internal/app/features/attendance/list.go
package attendance

import (
	"context"
	"net/http"
	"time"

	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
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

const monthLayout = "2006-01"

// monthRange parses "YYYY-MM" into the [first day, first day of next month)
// window used for stored attendance dates.
func monthRange(s string) (time.Time, time.Time, bool) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return t, t.AddDate(0, 1, 0), true
}

// ServeList handles GET /attendance with ?trainee=, ?state= and ?month=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	isTrainee := authz.IsTrainee(r)
	data := listData{
		BaseVM:    viewdata.NewBaseVM(r, "Attendance", "/dashboard"),
		Trainee:   query.Get(r, "trainee"),
		State:     query.Get(r, "state"),
		Month:     query.Get(r, "month"),
		States:    approvalStates,
		CanRecord: isTrainee,
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to load attendance.", "/dashboard")
		return
	}
	if scope.Incomplete() {
		data.NoProfile = true
		data.CanRecord = false
		templates.Render(w, r, "attendance_list", data)
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
	switch data.State {
	case string(models.ApprovalPending), string(models.ApprovalApproved), string(models.ApprovalRejected):
		filter["approval.state"] = data.State
	default:
		data.State = ""
	}
	if from, to, ok := monthRange(data.Month); ok {
		filter["date"] = bson.M{"$gte": from, "$lt": to}
	} else {
		data.Month = ""
	}

	var rows []models.Attendance
	if ids == nil || len(ids) > 0 {
		find := options.Find().
			SetSort(bson.D{{Key: "date", Value: -1}}).
			SetLimit(int64(limits.MaxListRows + 1))
		rows, err = attendancestore.New(h.DB).Find(ctx, filter, find)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "find attendance failed", err, "Unable to load attendance.", "/dashboard")
			return
		}
	}
	if len(rows) > limits.MaxListRows {
		rows = rows[:limits.MaxListRows]
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

	data.Rows = make([]listRow, 0, len(rows))
	for _, a := range rows {
		data.Rows = append(data.Rows, listRow{Attendance: a, TraineeName: names.Of(a.TraineeID)})
	}
	data.Rate = metricsstore.Rate(rows)
	templates.Render(w, r, "attendance_list", data)
}
