package credentialstore_test

import (
	"testing"

	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

func TestStore_CreateAndVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	c, err := store.Create(ctx, uid, " Sara@Example.com ", "password", "s3cret-pass")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.ID != uid {
		t.Errorf("credential id should equal user id")
	}
	if c.PasswordHash == "" || c.PasswordHash == "s3cret-pass" {
		t.Error("expected a bcrypt hash")
	}

	got, err := store.GetByLoginID(ctx, "SARA@example.com")
	if err != nil {
		t.Fatalf("GetByLoginID failed: %v", err)
	}
	if err := credentialstore.Verify(got, "s3cret-pass"); err != nil {
		t.Errorf("Verify correct password: %v", err)
	}
	if err := credentialstore.Verify(got, "wrong"); err != credentialstore.ErrInvalidPassword {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestStore_GoogleCredentialHasNoPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	if _, err := store.Create(ctx, uid, "g@example.com", "google", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := store.GetByUserID(ctx, uid)
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if err := credentialstore.Verify(got, "anything"); err != credentialstore.ErrNoPassword {
		t.Errorf("expected ErrNoPassword, got %v", err)
	}
}

func TestStore_GetByUserID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByUserID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
	if err := store.SetPassword(ctx, primitive.NewObjectID(), "x"); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments from SetPassword, got %v", err)
	}
}

func TestStore_ExistingIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := credentialstore.New(db).WithCost(bcrypt.MinCost)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	has, missing := primitive.NewObjectID(), primitive.NewObjectID()
	if _, err := store.Create(ctx, has, "has@example.com", "password", "pw"); err != nil {
		t.Fatal(err)
	}

	got, err := store.ExistingIDs(ctx, []primitive.ObjectID{has, missing})
	if err != nil {
		t.Fatalf("ExistingIDs failed: %v", err)
	}
	if len(got) != 1 || got[0] != has {
		t.Errorf("ExistingIDs = %v, want [%s]", got, has.Hex())
	}
	if got, err := store.ExistingIDs(ctx, nil); got != nil || err != nil {
		t.Errorf("expected nil, nil for empty input")
	}
}
