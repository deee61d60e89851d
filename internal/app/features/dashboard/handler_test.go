package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return NewHandler(db, uierrors.NewErrorLogger(logger), 0, logger), testutil.NewFixtures(t, db)
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	return ctx
}

func TestServeDashboard_RedirectsToRoleHome(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	tests := []struct {
		user testutil.TestUser
		want string
	}{
		{testutil.AdminUser(), "/admin"},
		{testutil.SupervisorUser(primitive.NewObjectID()), "/supervisor"},
		{testutil.TraineeUser(primitive.NewObjectID()), "/trainee"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", tt.user))
		if loc := rec.Header().Get("Location"); loc != tt.want {
			t.Errorf("%s: Location = %q, want %q", tt.user.Role, loc, tt.want)
		}
	}
}

func TestSetCacheHeaders(t *testing.T) {
	h := &Handler{}
	rec := httptest.NewRecorder()
	h.setCacheHeaders(rec)
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("zero revalidate: Cache-Control = %q", got)
	}

	h.Revalidate = 60 * time.Second
	rec = httptest.NewRecorder()
	h.setCacheHeaders(rec)
	if got := rec.Header().Get("Cache-Control"); got != "private, max-age=60" {
		t.Errorf("Cache-Control = %q, want private, max-age=60", got)
	}
}

func TestBuildSupervisor_MissingProfileIsNotAnError(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testCtx(t)

	u := fx.CreateUser(ctx, "No Row", "norow@example.com", models.RoleSupervisor)

	d, err := h.buildSupervisor(ctx, u.ID)
	if err != nil {
		t.Fatalf("buildSupervisor: %v", err)
	}
	if !d.ProfileMissing {
		t.Error("expected ProfileMissing")
	}
	if len(d.Rows) != 0 || d.Incomplete() {
		t.Error("a missing profile should not load trainees or flag incompleteness")
	}
}

func TestBuildSupervisor_ExcludesBrokenJoins(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testCtx(t)

	inst := fx.CreateInstitution(ctx, "Polytechnic")
	supUser, sup := fx.CreateSupervisorUser(ctx, "Sam Supervisor", "sam@example.com", inst.ID)

	_, good := fx.CreateTraineeUser(ctx, "Alice Trainee", "alice@example.com", inst.ID)
	orphan := fx.CreateTrainee(ctx, primitive.NewObjectID(), inst.ID)
	_, lostInst := fx.CreateTraineeUser(ctx, "Bob Trainee", "bob@example.com", primitive.NewObjectID())

	fx.Assign(ctx, sup.ID, good.ID, true)
	fx.Assign(ctx, sup.ID, orphan.ID, false)
	fx.Assign(ctx, sup.ID, lostInst.ID, false)

	d, err := h.buildSupervisor(ctx, supUser.ID)
	if err != nil {
		t.Fatalf("buildSupervisor: %v", err)
	}
	if len(d.Rows) != 1 || d.Rows[0].Trainee.ID != good.ID {
		t.Fatalf("rows = %+v, want only the fully joined trainee", d.Rows)
	}
	reasons := map[primitive.ObjectID]string{}
	for _, dr := range d.Dropped {
		reasons[dr.TraineeID] = dr.Reason
	}
	if reasons[orphan.ID] != assignedtrainees.ReasonUserMissing {
		t.Errorf("orphan reason = %q", reasons[orphan.ID])
	}
	if reasons[lostInst.ID] != assignedtrainees.ReasonInstitutionMissing {
		t.Errorf("deleted institution reason = %q", reasons[lostInst.ID])
	}
	if d.Incomplete() {
		t.Error("missing join targets are exclusions, not failures")
	}
	if got := d.Metrics.Count("trainees_total"); got != 3 {
		t.Errorf("scoped trainees_total = %d, want 3 (every assigned trainee row)", got)
	}
}

func TestBuildTrainee_MissingProfile(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testCtx(t)

	u := fx.CreateUser(ctx, "Unprovisioned", "unprov@example.com", models.RoleTrainee)
	d, err := h.buildTrainee(ctx, u.ID, time.Now())
	if err != nil {
		t.Fatalf("buildTrainee: %v", err)
	}
	if !d.ProfileMissing {
		t.Error("expected ProfileMissing")
	}
}

func TestBuildTrainee_LoadsOwnSections(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testCtx(t)

	inst := fx.CreateInstitution(ctx, "Institute")
	u, tr := fx.CreateTraineeUser(ctx, "Tara Trainee", "tara@example.com", inst.ID)
	other := fx.CreateTrainee(ctx, primitive.NewObjectID(), inst.ID)

	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	for _, task := range []models.Task{
		{ID: primitive.NewObjectID(), TraineeID: tr.ID, Title: "Overdue", Priority: models.PriorityHigh, Status: models.TaskPending, DueDate: &past, CreatedAt: now},
		{ID: primitive.NewObjectID(), TraineeID: tr.ID, Title: "Done", Priority: models.PriorityLow, Status: models.TaskApproved, DueDate: &past, CreatedAt: now},
		{ID: primitive.NewObjectID(), TraineeID: other.ID, Title: "Not mine", Priority: models.PriorityLow, Status: models.TaskPending, CreatedAt: now},
	} {
		if _, err := fx.DB().Collection("tasks").InsertOne(ctx, task); err != nil {
			t.Fatalf("insert task: %v", err)
		}
	}

	d, err := h.buildTrainee(ctx, u.ID, now)
	if err != nil {
		t.Fatalf("buildTrainee: %v", err)
	}
	if d.Profile.Institution == nil || d.Profile.Institution.ID != inst.ID {
		t.Error("institution should be attached to the profile")
	}
	tasks := d.Tasks.OrEmpty()
	if len(tasks) != 1 || tasks[0].Title != "Overdue" {
		t.Fatalf("tasks = %+v, want only the open task", tasks)
	}
	if !tasks[0].IsOverdue(d.Now) {
		t.Error("task should render as overdue")
	}
	// The approved task is closed for work but still past due.
	if got := d.Metrics.Count("tasks_overdue"); got != 2 {
		t.Errorf("tasks_overdue = %d, want 2", got)
	}
	if d.Reports.OrEmpty() != nil || !d.Reports.Ok() {
		t.Error("no reports should read as an ok, empty section")
	}
	if d.Incomplete() {
		t.Error("no section failed")
	}
}

func TestBuildAdmin_IntegrityCounts(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testCtx(t)

	inst := fx.CreateInstitution(ctx, "Campus")
	// Four trainee principals, two of them with trainee rows.
	for _, email := range []string{"a@example.com", "b@example.com"} {
		fx.CreateTraineeUser(ctx, "Provisioned", email, inst.ID)
	}
	for _, email := range []string{"c@example.com", "d@example.com"} {
		fx.CreateUser(ctx, "Unprovisioned", email, models.RoleTrainee)
	}
	fx.CreateTrainee(ctx, primitive.NewObjectID(), inst.ID)

	d := h.buildAdmin(ctx)
	if d.Unprovisioned != 2 {
		t.Errorf("Unprovisioned = %d, want 2", d.Unprovisioned)
	}
	if d.Orphaned != 1 {
		t.Errorf("Orphaned = %d, want 1", d.Orphaned)
	}
	if !d.NeedsRepair() {
		t.Error("NeedsRepair should be true")
	}
	if d.Institutions != 1 {
		t.Errorf("Institutions = %d, want 1", d.Institutions)
	}
	if got := d.Metrics.Count("trainees_total"); got != 3 {
		t.Errorf("trainees_total = %d, want 3", got)
	}
	if d.Incomplete() {
		t.Error("nothing failed")
	}
}

func TestBuildAdmin_AverageOfNoEvaluationsIsZero(t *testing.T) {
	h, _ := newTestHandler(t)
	d := h.buildAdmin(testCtx(t))
	if got := d.Metrics.Get("avg_score"); got != 0 {
		t.Errorf("avg_score = %v, want 0", got)
	}
}
