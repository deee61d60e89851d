// internal/app/features/attendance/record.go
package attendance

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/navigation"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type attendanceInput struct {
	Status   string `validate:"required,oneof=present absent excused late half_day" label:"Status"`
	CheckIn  string `validate:"hhmm" label:"Check-in"`
	CheckOut string `validate:"hhmm" label:"Check-out"`
	Notes    string `validate:"max=1000" label:"Notes"`
}

func readForm(r *http.Request) formData {
	field := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }
	return formData{
		Date:     field("date"),
		Status:   field("status"),
		CheckIn:  field("check_in"),
		CheckOut: field("check_out"),
		Notes:    field("notes"),
	}
}

func (d formData) input() attendanceInput {
	return attendanceInput{Status: d.Status, CheckIn: d.CheckIn, CheckOut: d.CheckOut, Notes: d.Notes}
}

// checkTimes rejects a check-out earlier than the check-in. Both are HH:MM,
// so they compare as strings.
func checkTimes(in attendanceInput) string {
	if in.CheckIn != "" && in.CheckOut != "" && in.CheckOut < in.CheckIn {
		return "Check-out must not be earlier than check-in."
	}
	return ""
}

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	data := formData{
		Date:     time.Now().Format(formutil.DateLayout),
		Status:   models.AttendancePresent,
		Statuses: models.AttendanceStatuses,
	}
	formutil.SetBase(&data.Base, r, "Record Attendance", "/attendance")
	templates.Render(w, r, "attendance_form", data)
}

// HandleRecord stores today's (or a past day's) attendance for the signed-in
// trainee. A second record for the same day is refused.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/attendance")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data := readForm(r)
	reRender := func(msg string) {
		data.Statuses = models.AttendanceStatuses
		formutil.SetBase(&data.Base, r, "Record Attendance", "/attendance")
		data.SetError(msg)
		templates.Render(w, r, "attendance_form", data)
	}

	in := data.input()
	if result := inputval.Validate(in); result.HasErrors() {
		reRender(result.First())
		return
	}
	if msg := checkTimes(in); msg != "" {
		reRender(msg)
		return
	}
	day, err := formutil.ParseDate(data.Date)
	if err != nil || day == nil {
		reRender("Date must be a valid date.")
		return
	}
	if day.After(models.DayOf(time.Now(), time.Local)) {
		reRender("Attendance cannot be recorded for a future date.")
		return
	}

	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve scope failed", err, "Unable to record attendance.", "/attendance")
		return
	}
	traineeID := scope.TraineeID()
	if traineeID.IsZero() {
		reRender("Your trainee profile is incomplete, so attendance cannot be recorded yet.")
		return
	}

	rec, err := attendancestore.New(h.DB).Record(ctx, models.Attendance{
		TraineeID: traineeID,
		Date:      *day,
		Status:    in.Status,
		CheckIn:   in.CheckIn,
		CheckOut:  in.CheckOut,
		Notes:     in.Notes,
	})
	if errors.Is(err, attendancestore.ErrDuplicateDay) {
		reRender("Attendance for that date has already been recorded.")
		return
	}
	if err != nil {
		h.Log.Error("record attendance failed", zap.Error(err))
		reRender("Database error while recording attendance.")
		return
	}
	h.AuditLog.AdminAction(ctx, r, authz.ActorID(r), audit.EventAttendanceRecorded, &traineeID, map[string]string{
		"attendance_id": rec.ID.Hex(),
		"date":          rec.Date.Format(formutil.DateLayout),
		"status":        rec.Status,
	})

	http.Redirect(w, r, navigation.SafeBackURL(r, navigation.AttendanceBackURL), http.StatusSeeOther)
}

func (h *Handler) ServeAmend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	data := formData{
		ID:       a.ID.Hex(),
		Date:     a.Date.Format(formutil.DateLayout),
		Status:   a.Status,
		CheckIn:  a.CheckIn,
		CheckOut: a.CheckOut,
		Notes:    a.Notes,
		Statuses: models.AttendanceStatuses,
		IsAmend:  true,
	}
	formutil.SetBase(&data.Base, r, "Amend Attendance", "/attendance/"+a.ID.Hex())
	if !a.Approval.IsPending() {
		data.SetError("This record has already been reviewed and can no longer be changed.")
	}
	templates.Render(w, r, "attendance_form", data)
}

// HandleAmend corrects a record that is still awaiting review. The date is
// fixed once recorded.
func (h *Handler) HandleAmend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	back := "/attendance/" + a.ID.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", back)
		return
	}

	data := readForm(r)
	data.ID = a.ID.Hex()
	data.Date = a.Date.Format(formutil.DateLayout)
	data.IsAmend = true
	reRender := func(msg string) {
		data.Statuses = models.AttendanceStatuses
		formutil.SetBase(&data.Base, r, "Amend Attendance", back)
		data.SetError(msg)
		templates.Render(w, r, "attendance_form", data)
	}

	in := data.input()
	if result := inputval.Validate(in); result.HasErrors() {
		reRender(result.First())
		return
	}
	if msg := checkTimes(in); msg != "" {
		reRender(msg)
		return
	}

	err := attendancestore.New(h.DB).Amend(ctx, a.ID, in.Status, in.CheckIn, in.CheckOut, in.Notes)
	if errors.Is(err, attendancestore.ErrNotPending) {
		reRender("This record has already been reviewed and can no longer be changed.")
		return
	}
	if err != nil {
		h.Log.Error("amend attendance failed", zap.String("attendance_id", a.ID.Hex()), zap.Error(err))
		reRender("Database error while saving attendance.")
		return
	}

	actor := authz.ActorID(r)
	h.AuditLog.AdminAction(ctx, r, actor, audit.EventAttendanceAmended, &a.TraineeID, map[string]string{
		"attendance_id": a.ID.Hex(),
		"from":          a.Status,
		"to":            in.Status,
	})

	http.Redirect(w, r, back, http.StatusSeeOther)
}
