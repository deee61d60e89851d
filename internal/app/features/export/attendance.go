// internal/app/features/export/attendance.go
package export

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var attendanceHeaders = []string{
	"Trainee", "Date", "Status", "Check in", "Check out", "Approval", "Rejection reason", "Notes",
}

// monthWindow parses "YYYY-MM" into [first day, first day of next month).
// An empty string means the current month in server-local time.
func monthWindow(s string, now time.Time) (time.Time, time.Time, bool) {
	if s == "" {
		lt := now.In(time.Local)
		from := time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), true
	}
	from, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, from.AddDate(0, 1, 0), true
}

func attendanceRows(recs []models.Attendance, names traineeoptions.Names) [][]any {
	sort.SliceStable(recs, func(i, j int) bool {
		ni, nj := names.Of(recs[i].TraineeID), names.Of(recs[j].TraineeID)
		if ni != nj {
			return ni < nj
		}
		return recs[i].Date.Before(recs[j].Date)
	})
	out := make([][]any, 0, len(recs))
	for _, a := range recs {
		out = append(out, []any{
			names.Of(a.TraineeID), dateCell(&a.Date), a.Status, a.CheckIn, a.CheckOut,
			string(a.Approval.State), a.Approval.RejectionReason, a.Notes,
		})
	}
	return out
}

// ServeAttendance handles GET /export/attendance.xlsx for one month
// (?month=YYYY-MM, default current). Supervisors may narrow to one of
// their trainees with ?trainee=.
func (h *Handler) ServeAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	from, to, ok := monthWindow(month, time.Now())
	if !ok {
		h.ErrLog.LogBadRequest(w, r, "bad export month", nil, "Month must look like 2026-03.", "/attendance")
		return
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve export scope failed", err, "Unable to export attendance.", "/attendance")
		return
	}
	if scope.Incomplete() {
		h.ErrLog.LogForbidden(w, r, "export without profile", nil, "Your profile is incomplete. Ask an administrator to finish it.", "/dashboard")
		return
	}

	ids := scope.Filter()
	if oid, err := primitive.ObjectIDFromHex(r.URL.Query().Get("trainee")); err == nil {
		if !scope.Allows(oid) {
			h.ErrLog.LogForbidden(w, r, "export of out-of-scope trainee", nil, "You do not have access to that trainee.", "/attendance")
			return
		}
		ids = []primitive.ObjectID{oid}
	}

	recs, err := attendancestore.New(h.DB).ListRange(ctx, ids, from, to)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load attendance for export failed", err, "Unable to export attendance.", "/attendance")
		return
	}
	opts, err := traineeoptions.Load(ctx, h.DB, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load trainee names for export failed", err, "Unable to export attendance.", "/attendance")
		return
	}

	book, err := sheet{
		Name:    "Attendance " + from.Format("2006-01"),
		Headers: attendanceHeaders,
		Widths:  []float64{28, 12, 10, 10, 10, 10, 30, 40},
		Rows:    attendanceRows(recs, traineeoptions.NameMap(opts)),
	}.build()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "build attendance workbook failed", err, "Unable to export attendance.", "/attendance")
		return
	}
	defer book.Close()

	if err := send(w, book, filename("attendance_"+from.Format("200601"), time.Now())); err != nil {
		h.Log.Warn("write attendance workbook failed", zap.Error(err))
	}
}
