package reports

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	h         *Handler
	fx        *testutil.Fixtures
	ctx       context.Context
	inst      models.Institution
	traineeU  models.User
	trainee   models.Trainee
	supU      models.User
	otherSupU models.User
}

// setup creates one trainee assigned to one supervisor, plus a second
// supervisor with no assignments.
func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})

	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	f := fixture{
		h:   NewHandler(db, uierrors.NewErrorLogger(logger), audits, logger),
		fx:  testutil.NewFixtures(t, db),
		ctx: ctx,
	}
	f.inst = f.fx.CreateInstitution(ctx, "Tech U")
	f.traineeU, f.trainee = f.fx.CreateTraineeUser(ctx, "Layla", "layla@example.com", f.inst.ID)
	var sup models.Supervisor
	f.supU, sup = f.fx.CreateSupervisorUser(ctx, "Mona", "mona@example.com", f.inst.ID)
	f.otherSupU, _ = f.fx.CreateSupervisorUser(ctx, "Other", "other@example.com", f.inst.ID)
	f.fx.Assign(ctx, sup.ID, f.trainee.ID, true)
	return f
}

func (f fixture) report(t *testing.T) models.Report {
	t.Helper()
	rep, err := reportstore.New(f.h.DB).Create(f.ctx, models.Report{
		TraineeID: f.trainee.ID, Type: models.ReportWeekly, Title: "Week 1", Content: "Did things",
	})
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func serve(fn http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func withID(req *http.Request, id primitive.ObjectID) *http.Request {
	return testutil.WithChiURLParam(req, "id", id.Hex())
}

func TestHandleCreate_TraineeSubmitsPending(t *testing.T) {
	f := setup(t)
	form := url.Values{"type": {"daily"}, "title": {"Day 1"}, "content": {"Set up my laptop"}}
	rec := serve(f.h.HandleCreate, testutil.NewFormRequest("/reports", form, testutil.TraineeUser(f.traineeU.ID)))
	rec.AssertRedirect(t, "/reports")

	var rep models.Report
	if err := f.h.DB.Collection("reports").FindOne(f.ctx, bson.M{"trainee_id": f.trainee.ID}).Decode(&rep); err != nil {
		t.Fatalf("report not saved: %v", err)
	}
	if rep.Status != models.ReportPending || rep.Title != "Day 1" {
		t.Errorf("report = %+v", rep)
	}
	submitted := bson.M{"event_type": audit.EventReportSubmitted, "actor_id": f.traineeU.ID, "details.report_id": rep.ID.Hex()}
	if n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, submitted); n != 1 {
		t.Errorf("report_submitted events = %d, want 1", n)
	}
}

func TestHandleCreate_TraineeWithoutProfile(t *testing.T) {
	f := setup(t)
	bare := f.fx.CreateUser(f.ctx, "No Row", "norow@example.com", models.RoleTrainee)

	form := url.Values{"type": {"daily"}, "title": {"Day 1"}, "content": {"x"}}
	rec := serve(f.h.HandleCreate, testutil.NewFormRequest("/reports", form, testutil.TraineeUser(bare.ID)))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("should not save without a trainee profile")
	}
	if n, _ := f.h.DB.Collection("reports").CountDocuments(f.ctx, bson.M{}); n != 0 {
		t.Errorf("reports = %d", n)
	}
}

func TestHandleReview_AssignedSupervisorDecides(t *testing.T) {
	f := setup(t)
	rep := f.report(t)

	form := url.Values{"status": {models.ReportApproved}, "comment": {"Good work"}}
	req := withID(testutil.NewFormRequest("/reports/x/review", form, testutil.SupervisorUser(f.supU.ID)), rep.ID)
	rec := serve(f.h.HandleReview, req)
	rec.AssertRedirect(t, "/reports/"+rep.ID.Hex())

	got, err := reportstore.New(f.h.DB).GetByID(f.ctx, rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ReportApproved || got.ReviewedBy == nil || *got.ReviewedBy != f.supU.ID {
		t.Errorf("report = %+v", got)
	}
	n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, bson.M{"event_type": audit.EventReportReviewed})
	if n != 1 {
		t.Errorf("review audit events = %d", n)
	}
}

func TestHandleReview_UnassignedSupervisorForbidden(t *testing.T) {
	f := setup(t)
	rep := f.report(t)

	form := url.Values{"status": {models.ReportApproved}}
	req := withID(testutil.NewFormRequest("/x", form, testutil.SupervisorUser(f.otherSupU.ID)), rep.ID)
	rec := serve(f.h.HandleReview, req)
	rec.AssertStatus(t, http.StatusForbidden)

	got, _ := reportstore.New(f.h.DB).GetByID(f.ctx, rep.ID)
	if got.Status != models.ReportPending {
		t.Errorf("status changed to %q", got.Status)
	}
}

func TestHandleReview_RevisionNeedsComment(t *testing.T) {
	f := setup(t)
	rep := f.report(t)

	form := url.Values{"status": {models.ReportRevisionRequired}}
	req := withID(testutil.NewFormRequest("/x", form, testutil.AdminUser()), rep.ID)
	if rec := serve(f.h.HandleReview, req); rec.Code == http.StatusSeeOther {
		t.Fatal("revision without comment should re-render")
	}
	got, _ := reportstore.New(f.h.DB).GetByID(f.ctx, rep.ID)
	if got.Status != models.ReportPending {
		t.Errorf("status = %q", got.Status)
	}
}

func TestHandleEdit_RevisionCycle(t *testing.T) {
	f := setup(t)
	rep := f.report(t)
	store := reportstore.New(f.h.DB)
	if err := store.Review(f.ctx, rep.ID, models.ReportRevisionRequired, f.supU.ID, "more detail"); err != nil {
		t.Fatal(err)
	}

	form := url.Values{"title": {"Week 1 (revised)"}, "content": {"More detail"}}
	req := withID(testutil.NewFormRequest("/x", form, testutil.TraineeUser(f.traineeU.ID)), rep.ID)
	serve(f.h.HandleEdit, req).AssertRedirect(t, "/reports/"+rep.ID.Hex())

	got, _ := store.GetByID(f.ctx, rep.ID)
	if got.Status != models.ReportPending || got.Title != "Week 1 (revised)" {
		t.Errorf("report = %+v", got)
	}
	resubmitted := bson.M{"event_type": audit.EventReportResubmitted, "user_id": f.trainee.ID, "details.prev_status": models.ReportRevisionRequired}
	if n, _ := f.h.DB.Collection("audit_events").CountDocuments(f.ctx, resubmitted); n != 1 {
		t.Errorf("report_resubmitted events = %d, want 1", n)
	}

	if err := store.Review(f.ctx, rep.ID, models.ReportApproved, f.supU.ID, ""); err != nil {
		t.Fatal(err)
	}
	req = withID(testutil.NewFormRequest("/x", form, testutil.TraineeUser(f.traineeU.ID)), rep.ID)
	if rec := serve(f.h.HandleEdit, req); rec.Code == http.StatusSeeOther {
		t.Error("approved report should not be editable")
	}
}

func TestServeView_OtherTraineeForbidden(t *testing.T) {
	f := setup(t)
	rep := f.report(t)
	otherU, _ := f.fx.CreateTraineeUser(f.ctx, "Omar", "omar@example.com", f.inst.ID)

	req := withID(testutil.NewAuthenticatedRequest(http.MethodGet, "/reports/"+rep.ID.Hex(), testutil.TraineeUser(otherU.ID)), rep.ID)
	serve(f.h.ServeView, req).AssertStatus(t, http.StatusForbidden)
}
