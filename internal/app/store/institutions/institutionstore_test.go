package institutionstore_test

import (
	"testing"

	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := institutionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Institution{
		NameEN: " Riyadh Polytechnic ",
		NameAR: "كلية الرياض التقنية",
		Email:  "Info@RP.edu",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameEN != "Riyadh Polytechnic" || created.NameCI == "" {
		t.Errorf("unexpected name fields: %q %q", created.NameEN, created.NameCI)
	}
	if created.Email != "info@rp.edu" {
		t.Errorf("expected lowercased email, got %q", created.Email)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_NameRequired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := institutionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Institution{Email: "x@y.z"}); err != institutionstore.ErrNameRequired {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
}

func TestStore_Create_ArabicOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := institutionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Institution{NameAR: "جامعة"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.DisplayName("en") != "جامعة" {
		t.Errorf("expected Arabic fallback, got %q", created.DisplayName("en"))
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := institutionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inst := fixtures.CreateInstitution(ctx, "Old Name")
	if err := store.Update(ctx, inst.ID, models.Institution{NameEN: "New Name", Phone: " 123 "}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := store.GetByID(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.NameEN != "New Name" || got.Phone != "123" {
		t.Errorf("unexpected after update: %+v", got)
	}

	if err := store.Update(ctx, primitive.NewObjectID(), models.Institution{NameEN: "x"}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for missing id, got %v", err)
	}

	n, err := store.Delete(ctx, inst.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	ok, err := store.Exists(ctx, inst.ID)
	if err != nil || ok {
		t.Errorf("Exists after delete = %v, %v", ok, err)
	}
}

func TestStore_GetByIDs_SkipsDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := institutionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateInstitution(ctx, "A")
	b := fixtures.CreateInstitution(ctx, "B")
	if _, err := store.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, b.ID})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("expected only A, got %+v", got)
	}
}
