package export

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	h      *Handler
	fx     *testutil.Fixtures
	ctx    context.Context
	layla  models.Trainee
	laylaU models.User
	omar   models.Trainee
	supU   models.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	f := fixture{h: NewHandler(db, uierrors.NewErrorLogger(logger), logger), fx: testutil.NewFixtures(t, db), ctx: ctx}
	inst := f.fx.CreateInstitution(ctx, "Tech U")
	f.laylaU, f.layla = f.fx.CreateTraineeUser(ctx, "Layla", "layla@example.com", inst.ID)
	_, f.omar = f.fx.CreateTraineeUser(ctx, "Omar", "omar@example.com", inst.ID)
	var sup models.Supervisor
	f.supU, sup = f.fx.CreateSupervisorUser(ctx, "Mona", "mona@example.com", inst.ID)
	f.fx.Assign(ctx, sup.ID, f.layla.ID, true)
	return f
}

func serve(fn http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

// readRows opens the downloaded workbook and returns its first sheet.
func readRows(t *testing.T, rec *testutil.ResponseRecorder) [][]string {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("Content-Type = %q (status %d)", ct, rec.Code)
	}
	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestServeTrainees_AdminSeesEveryone(t *testing.T) {
	f := setup(t)
	// dangling user: left out of the sheet
	f.fx.CreateTrainee(f.ctx, primitive.NewObjectID(), f.layla.InstitutionID)

	rec := serve(f.h.ServeTrainees, testutil.NewAuthenticatedRequest("GET", "/export/trainees.xlsx", testutil.AdminUser()))
	rows := readRows(t, rec)

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][2] != "Institution" {
		t.Errorf("header = %v", rows[0])
	}
	names := map[string]bool{rows[1][0]: true, rows[2][0]: true}
	if !names["Layla"] || !names["Omar"] {
		t.Errorf("names = %v", names)
	}
	if rows[1][2] != "Tech U" {
		t.Errorf("institution = %q", rows[1][2])
	}
	if cd := rec.Header().Get("Content-Disposition"); !regexp.MustCompile(`filename="trainees_\d{8}_[0-9a-f]{8}\.xlsx"`).MatchString(cd) {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestServeTrainees_SupervisorScope(t *testing.T) {
	f := setup(t)
	rec := serve(f.h.ServeTrainees, testutil.NewAuthenticatedRequest("GET", "/export/trainees.xlsx", testutil.SupervisorUser(f.supU.ID)))
	rows := readRows(t, rec)

	if len(rows) != 2 || rows[1][0] != "Layla" {
		t.Errorf("rows = %v, want only Layla", rows)
	}
}

func TestServeTrainees_SupervisorWithoutProfile(t *testing.T) {
	f := setup(t)
	u := f.fx.CreateUser(f.ctx, "Ghost", "ghost@example.com", models.RoleSupervisor)

	rec := serve(f.h.ServeTrainees, testutil.NewAuthenticatedRequest("GET", "/export/trainees.xlsx", testutil.SupervisorUser(u.ID)))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeAttendance_TraineeOwnRows(t *testing.T) {
	f := setup(t)
	store := attendancestore.New(f.h.DB)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, tr := range []models.Trainee{f.layla, f.omar} {
		if _, err := store.Record(f.ctx, models.Attendance{TraineeID: tr.ID, Date: day, Status: models.AttendanceLate, CheckIn: "09:10"}); err != nil {
			t.Fatal(err)
		}
	}
	// other month: excluded
	if _, err := store.Record(f.ctx, models.Attendance{TraineeID: f.layla.ID, Date: day.AddDate(0, 1, 0), Status: models.AttendancePresent}); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/export/attendance.xlsx?month=2026-03", testutil.TraineeUser(f.laylaU.ID))
	rows := readRows(t, serve(f.h.ServeAttendance, req))

	if len(rows) != 2 {
		t.Fatalf("rows = %v, want header + 1", rows)
	}
	want := []string{"Layla", "2026-03-02", "late", "09:10", "", "pending"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("col %d = %q, want %q", i, rows[1][i], v)
		}
	}
}

func TestServeAttendance_Rejections(t *testing.T) {
	f := setup(t)

	rec := serve(f.h.ServeAttendance, testutil.NewAuthenticatedRequest("GET", "/export/attendance.xlsx?month=March", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)

	target := "/export/attendance.xlsx?trainee=" + f.omar.ID.Hex()
	rec = serve(f.h.ServeAttendance, testutil.NewAuthenticatedRequest("GET", target, testutil.SupervisorUser(f.supU.ID)))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestMonthWindow(t *testing.T) {
	from, to, ok := monthWindow("2026-12", time.Now())
	if !ok || !from.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got [%v, %v) ok=%v", from, to, ok)
	}
	if _, _, ok := monthWindow("2026-13", time.Now()); ok {
		t.Error("month 13 should not parse")
	}
	now := time.Date(2026, 5, 17, 12, 0, 0, 0, time.Local)
	from, _, _ = monthWindow("", now)
	if from.Month() != time.May || from.Day() != 1 {
		t.Errorf("default month = %v", from)
	}
}
