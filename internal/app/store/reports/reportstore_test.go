package reportstore_test

import (
	"testing"

	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateForcesPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reportstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, err := store.Create(ctx, models.Report{
		TraineeID: primitive.NewObjectID(),
		Type:      models.ReportWeekly,
		Title:     " Week 3 ",
		Status:    models.ReportApproved,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Status != models.ReportPending {
		t.Errorf("expected pending, got %q", r.Status)
	}
	if r.Title != "Week 3" {
		t.Errorf("expected trimmed title, got %q", r.Title)
	}

	if _, err := store.Create(ctx, models.Report{Title: "x", Type: "yearly"}); err != reportstore.ErrBadType {
		t.Errorf("expected ErrBadType, got %v", err)
	}
}

func TestStore_ReviewAndResubmit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reportstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tr := primitive.NewObjectID()
	r, err := store.Create(ctx, models.Report{TraineeID: tr, Type: models.ReportDaily, Title: "Day 1"})
	if err != nil {
		t.Fatal(err)
	}
	reviewer := primitive.NewObjectID()

	if err := store.Review(ctx, r.ID, "pending", reviewer, ""); err != reportstore.ErrBadReview {
		t.Errorf("expected ErrBadReview, got %v", err)
	}
	if err := store.Review(ctx, r.ID, models.ReportRevisionRequired, reviewer, "add detail"); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if err := store.Resubmit(ctx, r.ID, "Day 1 (revised)", "more"); err != nil {
		t.Fatalf("Resubmit failed: %v", err)
	}
	got, _ := store.GetByID(ctx, r.ID)
	if got.Status != models.ReportPending || got.Title != "Day 1 (revised)" {
		t.Errorf("unexpected after resubmit: %+v", got)
	}

	if err := store.Review(ctx, r.ID, models.ReportApproved, reviewer, "ok"); err != nil {
		t.Fatal(err)
	}
	if err := store.Resubmit(ctx, r.ID, "again", ""); err != reportstore.ErrNotEditable {
		t.Errorf("expected ErrNotEditable for approved report, got %v", err)
	}
	got, _ = store.GetByID(ctx, r.ID)
	if got.ReviewedBy == nil || *got.ReviewedBy != reviewer || got.ReviewComment != "ok" {
		t.Errorf("review metadata not recorded: %+v", got)
	}
}

func TestStore_ListByTrainees(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reportstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, tr := range []primitive.ObjectID{a, a, b} {
		if _, err := store.Create(ctx, models.Report{TraineeID: tr, Type: models.ReportDaily, Title: "r"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListByTrainees(ctx, []primitive.ObjectID{a})
	if err != nil || len(got) != 2 {
		t.Errorf("ListByTrainees = %d, %v", len(got), err)
	}
	got, err = store.ListByTrainees(ctx, nil)
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for empty ids")
	}
	all, err := store.ListAll(ctx)
	if err != nil || len(all) != 3 {
		t.Errorf("ListAll = %d, %v", len(all), err)
	}
}
