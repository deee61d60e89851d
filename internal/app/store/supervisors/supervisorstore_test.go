package supervisorstore_test

import (
	"testing"

	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGetByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := supervisorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Supervisor{UserID: uid, Position: " Lead Engineer ", Department: "IT"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Position != "Lead Engineer" {
		t.Errorf("expected trimmed position, got %q", created.Position)
	}

	got, err := store.GetByUserID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got %v, want %v", got.ID, created.ID)
	}
	if _, err := store.GetByUserID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Create_UserRequired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := supervisorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Supervisor{}); err != supervisorstore.ErrUserRequired {
		t.Errorf("expected ErrUserRequired, got %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := supervisorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inst := fixtures.CreateInstitution(ctx, "Inst")
	_, sup := fixtures.CreateSupervisorUser(ctx, "Omar", "omar@example.com", inst.ID)

	if err := store.Update(ctx, sup.ID, models.Supervisor{InstitutionID: inst.ID, Department: "HR"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := store.GetByID(ctx, sup.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Department != "HR" {
		t.Errorf("Department = %q", got.Department)
	}
	if err := store.Update(ctx, primitive.NewObjectID(), models.Supervisor{}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}
