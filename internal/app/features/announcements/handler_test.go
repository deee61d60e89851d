package announcements_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/traineehub/internal/app/features/announcements"
	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	announcementstore "github.com/dalemusser/traineehub/internal/app/store/announcements"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*announcements.Handler, *mongo.Database, *announcementstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	handler := announcements.NewHandler(db, uierrors.NewErrorLogger(logger), audits, logger)
	return handler, db, announcementstore.New(db)
}

func serve(fn http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	func() {
		// Template rendering may panic in tests without initialized templates.
		defer func() { _ = recover() }()
		fn(rec, req)
	}()
	return rec
}

func TestGetStore(t *testing.T) {
	h, _, _ := newTestHandler(t)
	if h.GetStore() == nil {
		t.Fatal("GetStore() returned nil")
	}
}

func TestCreate_SanitizesAndTargets(t *testing.T) {
	h, db, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Tech U")
	_, tr := fx.CreateTraineeUser(ctx, "Layla", "layla@example.com", inst.ID)

	form := url.Values{
		"title":      {"Workshop"},
		"type":       {models.AnnouncementWorkshop},
		"body":       {`<p>Bring a laptop</p><script>alert(1)</script>`},
		"active":     {"on"},
		"recipients": {tr.ID.Hex(), tr.ID.Hex(), "not-an-id"},
	}
	rec := serve(h.Create, testutil.NewFormRequest("/announcements/new", form, testutil.AdminUser()))
	rec.AssertRedirect(t, "/announcements?success=created")

	var a models.Announcement
	if err := db.Collection("announcements").FindOne(ctx, bson.M{"title": "Workshop"}).Decode(&a); err != nil {
		t.Fatalf("announcement not saved: %v", err)
	}
	if strings.Contains(a.Body, "script") || !strings.Contains(a.Body, "Bring a laptop") {
		t.Errorf("body not sanitized: %q", a.Body)
	}
	if !a.Targeted || !a.Active || a.Pinned {
		t.Errorf("flags = %+v", a)
	}
	ids, _ := store.Recipients(ctx, a.ID)
	if len(ids) != 1 || ids[0] != tr.ID {
		t.Errorf("recipients = %v", ids)
	}
	n, _ := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventAnnouncementCreated})
	if n != 1 {
		t.Errorf("audit events = %d", n)
	}
}

func TestCreate_PlainTextKeepsLineBreaks(t *testing.T) {
	h, db, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	form := url.Values{"title": {"Notice"}, "type": {"general"}, "body": {"line one\nline two"}}
	serve(h.Create, testutil.NewFormRequest("/announcements/new", form, testutil.AdminUser()))

	var a models.Announcement
	if err := db.Collection("announcements").FindOne(ctx, bson.M{"title": "Notice"}).Decode(&a); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a.Body, "<p>line one<br") || !strings.HasSuffix(a.Body, "line two</p>") {
		t.Errorf("body = %q", a.Body)
	}
}

func TestCreate_Rejections(t *testing.T) {
	h, db, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, form := range []url.Values{
		{"title": {""}, "type": {"general"}},
		{"title": {"Memo"}, "type": {"memo"}},
	} {
		rec := serve(h.Create, testutil.NewFormRequest("/announcements/new", form, testutil.AdminUser()))
		if rec.Code == http.StatusSeeOther {
			t.Errorf("form %v should re-render", form)
		}
	}
	n, _ := db.Collection("announcements").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("announcements = %d, want 0", n)
	}
}

func TestShow_TargetedVisibility(t *testing.T) {
	h, db, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Tech U")
	meU, me := fx.CreateTraineeUser(ctx, "Layla", "layla@example.com", inst.ID)
	otherU, _ := fx.CreateTraineeUser(ctx, "Omar", "omar@example.com", inst.ID)
	supU, sup := fx.CreateSupervisorUser(ctx, "Mona", "mona@example.com", inst.ID)
	fx.Assign(ctx, sup.ID, me.ID, true)

	a, err := store.Create(ctx, models.Announcement{Title: "For Layla", Active: true}, []primitive.ObjectID{me.ID})
	if err != nil {
		t.Fatal(err)
	}
	show := func(user testutil.TestUser) int {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/announcements/"+a.ID.Hex(), user)
		return serve(h.Show, testutil.WithChiURLParam(req, "id", a.ID.Hex())).Code
	}

	if code := show(testutil.TraineeUser(otherU.ID)); code != http.StatusNotFound {
		t.Errorf("other trainee got %d, want 404", code)
	}
	if code := show(testutil.TraineeUser(meU.ID)); code == http.StatusNotFound {
		t.Error("recipient should see the announcement")
	}
	if code := show(testutil.SupervisorUser(supU.ID)); code == http.StatusNotFound {
		t.Error("supervisor of a recipient should see the announcement")
	}

	if err := store.SetFlags(ctx, a.ID, false, false); err != nil {
		t.Fatal(err)
	}
	if code := show(testutil.TraineeUser(meU.ID)); code != http.StatusNotFound {
		t.Errorf("inactive announcement got %d, want 404", code)
	}
}

func TestSetFlagsAndDelete(t *testing.T) {
	h, db, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Announcement{Title: "t", Active: true}, []primitive.ObjectID{primitive.NewObjectID()})
	admin := testutil.AdminUser()

	req := testutil.NewFormRequest("/announcements/"+a.ID.Hex()+"/flags", url.Values{"pinned": {"on"}}, admin)
	rec := serve(h.SetFlags, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertRedirect(t, "/announcements?success=flags")

	got, _ := store.GetByID(ctx, a.ID)
	if !got.Pinned || got.Active {
		t.Errorf("flags = pinned %v active %v", got.Pinned, got.Active)
	}

	req = testutil.NewFormRequest("/announcements/"+a.ID.Hex()+"/delete", url.Values{}, admin)
	rec = serve(h.Delete, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertRedirect(t, "/announcements?success=deleted")

	if n, _ := db.Collection("announcement_recipients").CountDocuments(ctx, bson.M{"announcement_id": a.ID}); n != 0 {
		t.Errorf("recipients left = %d", n)
	}
	if _, err := store.GetByID(ctx, a.ID); err != mongo.ErrNoDocuments {
		t.Errorf("expected deleted, got %v", err)
	}
}

func TestBannerLoader(t *testing.T) {
	_, db, store := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	inst := fx.CreateInstitution(ctx, "Tech U")
	meU, me := fx.CreateTraineeUser(ctx, "Layla", "layla@example.com", inst.ID)
	supU, _ := fx.CreateSupervisorUser(ctx, "Mona", "mona@example.com", inst.ID)

	store.Create(ctx, models.Announcement{Title: "Pinned for all", Active: true, Pinned: true}, nil)
	store.Create(ctx, models.Announcement{Title: "Pinned for Layla", Active: true, Pinned: true}, []primitive.ObjectID{me.ID})
	store.Create(ctx, models.Announcement{Title: "Not pinned", Active: true}, nil)

	load := announcements.BannerLoader(db, zap.NewNop())

	if got := load(ctx, models.RoleTrainee, meU.ID); len(got) != 2 {
		t.Errorf("trainee banners = %+v, want 2", got)
	}
	if got := load(ctx, models.RoleSupervisor, supU.ID); len(got) != 1 || got[0].Title != "Pinned for all" {
		t.Errorf("supervisor banners = %+v", got)
	}
	if got := load(context.Background(), models.RoleTrainee, primitive.NewObjectID()); len(got) != 1 {
		t.Errorf("trainee without profile should see general banners, got %+v", got)
	}
}
