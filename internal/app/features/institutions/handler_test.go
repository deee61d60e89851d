package institutions_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/features/institutions"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/app/system/indexes"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*institutions.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	return institutions.NewHandler(db, uierrors.NewErrorLogger(logger), audits, logger), db
}

// serve runs fn, tolerating a panic from template rendering when the
// engine has not been booted. Status and redirects are written first.
func serve(fn http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	func() {
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func count(t *testing.T, db *mongo.Database, coll string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("count %s: %v", coll, err)
	}
	return n
}

func TestHandleCreate_Success(t *testing.T) {
	h, db := newTestHandler(t)

	form := url.Values{
		"name_en": {"  King Saud University "},
		"name_ar": {"جامعة الملك سعود"},
		"email":   {"Info@KSU.edu.sa"},
	}
	rec := serve(h.HandleCreate, testutil.NewFormRequest("/institutions", form, testutil.AdminUser()))

	rec.AssertRedirect(t, "/institutions")
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var inst models.Institution
	if err := db.Collection("institutions").FindOne(ctx, bson.M{}).Decode(&inst); err != nil {
		t.Fatalf("institution not stored: %v", err)
	}
	if inst.NameEN != "King Saud University" || inst.Email != "info@ksu.edu.sa" {
		t.Errorf("stored %+v", inst)
	}
	if n := count(t, db, "audit_events", bson.M{"event_type": audit.EventInstitutionCreated}); n != 1 {
		t.Errorf("expected 1 audit event, got %d", n)
	}
}

func TestHandleCreate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"no name", url.Values{"email": {"a@b.com"}}},
		{"bad email", url.Values{"name_en": {"X"}, "email": {"not-an-email"}}},
		{"bad website", url.Values{"name_en": {"X"}, "website": {"ksu"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, db := newTestHandler(t)
			rec := serve(h.HandleCreate, testutil.NewFormRequest("/institutions", tt.form, testutil.AdminUser()))
			if rec.Code == http.StatusSeeOther {
				t.Fatal("invalid form should not redirect")
			}
			if n := count(t, db, "institutions", bson.M{}); n != 0 {
				t.Errorf("expected nothing stored, got %d", n)
			}
		})
	}
}

func TestHandleCreate_Duplicate(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	testutil.NewFixtures(t, db).CreateInstitution(ctx, "Qassim University")

	rec := serve(h.HandleCreate, testutil.NewFormRequest("/institutions",
		url.Values{"name_en": {"qassim university"}}, testutil.AdminUser()))
	if rec.Code == http.StatusSeeOther {
		t.Fatal("duplicate should re-render the form")
	}
	if n := count(t, db, "institutions", bson.M{}); n != 1 {
		t.Errorf("expected 1 institution, got %d", n)
	}
}

func TestHandleEdit_Updates(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	inst := testutil.NewFixtures(t, db).CreateInstitution(ctx, "Old Name")

	req := testutil.NewFormRequest("/institutions/"+inst.ID.Hex()+"/edit",
		url.Values{"name_en": {"New Name"}, "phone": {"011 000"}}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", inst.ID.Hex())
	rec := serve(h.HandleEdit, req)

	rec.AssertRedirect(t, "/institutions")
	var got models.Institution
	if err := db.Collection("institutions").FindOne(ctx, bson.M{"_id": inst.ID}).Decode(&got); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.NameEN != "New Name" || got.NameCI != "new name" || got.Phone != "011 000" {
		t.Errorf("not updated: %+v", got)
	}
}

func TestHandleDelete(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Gone University")
	_, tr := fx.CreateTraineeUser(ctx, "Stays", "stays@example.com", inst.ID)

	req := testutil.NewFormRequest("/institutions/"+inst.ID.Hex()+"/delete", url.Values{}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", inst.ID.Hex())
	rec := serve(h.HandleDelete, req)

	rec.AssertRedirect(t, "/institutions")
	if n := count(t, db, "institutions", bson.M{}); n != 0 {
		t.Errorf("institution not deleted")
	}
	if n := count(t, db, "trainees", bson.M{"_id": tr.ID}); n != 1 {
		t.Error("trainees of a deleted institution are kept")
	}
	if n := count(t, db, "audit_events", bson.M{"event_type": audit.EventInstitutionDeleted}); n != 1 {
		t.Errorf("expected 1 audit event, got %d", n)
	}

	// Deleting again is a no-op redirect without another audit event.
	rec = serve(h.HandleDelete, req)
	rec.AssertRedirect(t, "/institutions")
	if n := count(t, db, "audit_events", bson.M{"event_type": audit.EventInstitutionDeleted}); n != 1 {
		t.Errorf("repeat delete should not audit, got %d", n)
	}
}

func TestHandleDelete_BadID(t *testing.T) {
	h, _ := newTestHandler(t)
	req := testutil.NewFormRequest("/institutions/nope/delete", url.Values{}, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", "nope")
	rec := serve(h.HandleDelete, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeList_ReachesRender(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateInstitution(ctx, "Listed")

	rec := serve(h.ServeList, httptest.NewRequest(http.MethodGet, "/institutions?q=lis", nil))
	if rec.Code >= 500 {
		t.Errorf("list failed with %d", rec.Code)
	}
}
