package counts_test

import (
	"testing"

	"github.com/dalemusser/traineehub/internal/app/system/counts"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestByField(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateInstitution(ctx, "Inst A")
	b := fx.CreateInstitution(ctx, "Inst B")
	fx.CreateTrainee(ctx, primitive.NewObjectID(), a.ID)
	fx.CreateTrainee(ctx, primitive.NewObjectID(), a.ID)
	fx.CreateTrainee(ctx, primitive.NewObjectID(), b.ID)

	got, err := counts.ByField(ctx, db, "trainees",
		bson.M{"institution_id": bson.M{"$in": []primitive.ObjectID{a.ID, b.ID}}}, "institution_id")
	if err != nil {
		t.Fatalf("ByField: %v", err)
	}
	if got[a.ID] != 2 || got[b.ID] != 1 {
		t.Errorf("counts = %v", got)
	}
}

func TestByField_NoMatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := counts.ByField(ctx, db, "trainees", bson.M{"status": "nope"}, "institution_id")
	if err != nil {
		t.Fatalf("ByField: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestByField_SkipsMissingKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := db.Collection("things").InsertMany(ctx, []any{
		bson.M{"kind": "x"},
		bson.M{"kind": "x", "owner_id": "not-an-id"},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := counts.ByField(ctx, db, "things", bson.M{"kind": "x"}, "owner_id")
	if err != nil {
		t.Fatalf("ByField: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no ObjectID keys, got %v", got)
	}
}
