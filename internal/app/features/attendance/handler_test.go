package attendance

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/app/system/indexes"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type fixture struct {
	h        *Handler
	fx       *testutil.Fixtures
	ctx      context.Context
	inst     models.Institution
	traineeU models.User
	trainee  models.Trainee
	supU     models.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db, logger); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	f := fixture{h: NewHandler(db, uierrors.NewErrorLogger(logger), audits, logger), fx: testutil.NewFixtures(t, db), ctx: ctx}
	f.inst = f.fx.CreateInstitution(ctx, "Tech U")
	f.traineeU, f.trainee = f.fx.CreateTraineeUser(ctx, "Layla", "layla@example.com", f.inst.ID)
	var sup models.Supervisor
	f.supU, sup = f.fx.CreateSupervisorUser(ctx, "Mona", "mona@example.com", f.inst.ID)
	f.fx.Assign(ctx, sup.ID, f.trainee.ID, true)
	return f
}

func (f fixture) record(t *testing.T, day time.Time) models.Attendance {
	t.Helper()
	a, err := attendancestore.New(f.h.DB).Record(f.ctx, models.Attendance{TraineeID: f.trainee.ID, Date: day, Status: models.AttendancePresent})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func serve(fn http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func TestHandleRecord_OncePerDay(t *testing.T) {
	f := setup(t)
	form := url.Values{
		"date":      {"2026-03-02"},
		"status":    {models.AttendanceLate},
		"check_in":  {"09:20"},
		"check_out": {"17:00"},
	}
	rec := serve(f.h.HandleRecord, testutil.NewFormRequest("/attendance", form, testutil.TraineeUser(f.traineeU.ID)))
	rec.AssertRedirect(t, "/attendance")

	var a models.Attendance
	if err := f.h.DB.Collection("attendance").FindOne(f.ctx, bson.M{"trainee_id": f.trainee.ID}).Decode(&a); err != nil {
		t.Fatalf("attendance not saved: %v", err)
	}
	if a.Status != models.AttendanceLate || !a.Approval.IsPending() {
		t.Errorf("attendance = %+v", a)
	}
	recorded := bson.M{"event_type": audit.EventAttendanceRecorded, "user_id": f.trainee.ID, "details.attendance_id": a.ID.Hex()}
	if n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, recorded); n != 1 {
		t.Errorf("attendance_recorded events = %d, want 1", n)
	}

	form.Set("status", models.AttendancePresent)
	rec = serve(f.h.HandleRecord, testutil.NewFormRequest("/attendance", form, testutil.TraineeUser(f.traineeU.ID)))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("second record for the same day should be refused")
	}
	n, _ := f.h.DB.Collection("attendance").CountDocuments(f.ctx, bson.M{"trainee_id": f.trainee.ID})
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}
	if n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, bson.M{"event_type": audit.EventAttendanceRecorded}); n != 1 {
		t.Errorf("refused record should not be audited, events = %d", n)
	}
}

func TestHandleRecord_Rejections(t *testing.T) {
	f := setup(t)
	future := time.Now().AddDate(0, 0, 3).Format("2006-01-02")

	tests := []struct {
		name string
		form url.Values
	}{
		{"unknown status", url.Values{"date": {"2026-03-02"}, "status": {"sick"}}},
		{"bad clock", url.Values{"date": {"2026-03-02"}, "status": {"present"}, "check_in": {"25:00"}}},
		{"out before in", url.Values{"date": {"2026-03-02"}, "status": {"present"}, "check_in": {"10:00"}, "check_out": {"09:00"}}},
		{"future date", url.Values{"date": {future}, "status": {"present"}}},
		{"missing date", url.Values{"status": {"present"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(f.h.HandleRecord, testutil.NewFormRequest("/attendance", tt.form, testutil.TraineeUser(f.traineeU.ID)))
			if rec.Code == http.StatusSeeOther {
				t.Fatal("expected re-render")
			}
		})
	}
	n, _ := f.h.DB.Collection("attendance").CountDocuments(f.ctx, bson.M{})
	if n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestHandleDecide_RejectNeedsReason(t *testing.T) {
	f := setup(t)
	a := f.record(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	sup := testutil.SupervisorUser(f.supU.ID)

	req := testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/decide", url.Values{"decision": {"rejected"}}, sup)
	rec := serve(f.h.HandleDecide, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("rejection without a reason should re-render")
	}

	req = testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/decide", url.Values{"decision": {"rejected"}, "reason": {"no sign-in sheet"}}, sup)
	rec = serve(f.h.HandleDecide, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertRedirect(t, "/attendance/"+a.ID.Hex())

	got, err := attendancestore.New(f.h.DB).GetByID(f.ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Approval.State != models.ApprovalRejected || got.Approval.RejectionReason != "no sign-in sheet" {
		t.Errorf("approval = %+v", got.Approval)
	}
	if got.Approval.ReviewedBy == nil || *got.Approval.ReviewedBy != f.supU.ID {
		t.Errorf("reviewed by = %v", got.Approval.ReviewedBy)
	}
	n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, bson.M{"event_type": audit.EventAttendanceDecided})
	if n != 1 {
		t.Errorf("audit events = %d, want 1", n)
	}
}

func TestHandleDecide_ApproveClearsReason(t *testing.T) {
	f := setup(t)
	a := f.record(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))

	req := testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/decide", url.Values{"decision": {"approved"}, "reason": {"ignored"}}, testutil.AdminUser())
	rec := serve(f.h.HandleDecide, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertRedirect(t, "/attendance/"+a.ID.Hex())

	got, _ := attendancestore.New(f.h.DB).GetByID(f.ctx, a.ID)
	if got.Approval.State != models.ApprovalApproved || got.Approval.RejectionReason != "" {
		t.Errorf("approval = %+v", got.Approval)
	}
}

func TestHandleDecide_Final(t *testing.T) {
	f := setup(t)
	a := f.record(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC))
	sup := testutil.SupervisorUser(f.supU.ID)
	decide := func(form url.Values) *testutil.ResponseRecorder {
		req := testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/decide", form, sup)
		return serve(f.h.HandleDecide, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	}

	decide(url.Values{"decision": {"approved"}}).AssertRedirect(t, "/attendance/"+a.ID.Hex())
	decide(url.Values{"decision": {"rejected"}, "reason": {"changed my mind"}}).AssertStatus(t, http.StatusBadRequest)

	got, _ := attendancestore.New(f.h.DB).GetByID(f.ctx, a.ID)
	if got.Approval.State != models.ApprovalApproved {
		t.Errorf("approval = %+v, want approved to stand", got.Approval)
	}
	if n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, bson.M{"event_type": audit.EventAttendanceDecided}); n != 1 {
		t.Errorf("audit events = %d, want 1", n)
	}
}

func TestHandleDecide_UnassignedSupervisorForbidden(t *testing.T) {
	f := setup(t)
	a := f.record(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	otherU, _ := f.fx.CreateSupervisorUser(f.ctx, "Other", "other@example.com", f.inst.ID)

	req := testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/decide", url.Values{"decision": {"approved"}}, testutil.SupervisorUser(otherU.ID))
	rec := serve(f.h.HandleDecide, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleAmend_OnlyWhilePending(t *testing.T) {
	f := setup(t)
	a := f.record(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	trainee := testutil.TraineeUser(f.traineeU.ID)

	form := url.Values{"status": {models.AttendanceHalfDay}, "notes": {"left at noon"}}
	req := testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/amend", form, trainee)
	rec := serve(f.h.HandleAmend, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertRedirect(t, "/attendance/"+a.ID.Hex())

	got, _ := attendancestore.New(f.h.DB).GetByID(f.ctx, a.ID)
	if got.Status != models.AttendanceHalfDay || got.Notes != "left at noon" {
		t.Errorf("amended = %+v", got)
	}

	if err := attendancestore.New(f.h.DB).Decide(f.ctx, a.ID, models.Approve(f.supU.ID, time.Now())); err != nil {
		t.Fatal(err)
	}
	form.Set("status", models.AttendancePresent)
	req = testutil.NewFormRequest("/attendance/"+a.ID.Hex()+"/amend", form, trainee)
	rec = serve(f.h.HandleAmend, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("reviewed record should not be amendable")
	}
	got, _ = attendancestore.New(f.h.DB).GetByID(f.ctx, a.ID)
	if got.Status != models.AttendanceHalfDay {
		t.Errorf("status changed after review: %s", got.Status)
	}
}

func TestMonthRange(t *testing.T) {
	from, to, ok := monthRange("2026-02")
	if !ok {
		t.Fatal("expected a valid month")
	}
	if !from.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range = %v .. %v", from, to)
	}
	if _, _, ok := monthRange("Feb 2026"); ok {
		t.Error("expected an invalid month")
	}
}
