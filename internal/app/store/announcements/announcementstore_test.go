package announcementstore_test

import (
	"testing"

	announcementstore "github.com/dalemusser/traineehub/internal/app/store/announcements"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_ListForTrainee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me, other := primitive.NewObjectID(), primitive.NewObjectID()

	global, err := store.Create(ctx, models.Announcement{Title: "Holiday", Active: true}, nil)
	if err != nil {
		t.Fatalf("Create(global) failed: %v", err)
	}
	mine, _ := store.Create(ctx, models.Announcement{Title: "Your workshop", Type: models.AnnouncementWorkshop, Active: true, Pinned: true}, []primitive.ObjectID{me})
	store.Create(ctx, models.Announcement{Title: "Not yours", Active: true}, []primitive.ObjectID{other})
	store.Create(ctx, models.Announcement{Title: "Draft", Active: false}, nil)

	if global.Type != models.AnnouncementGeneral || global.Targeted {
		t.Errorf("unexpected global announcement: %+v", global)
	}
	if !mine.Targeted {
		t.Error("announcement with recipients should be targeted")
	}

	got, err := store.ListForTrainee(ctx, me, 0)
	if err != nil {
		t.Fatalf("ListForTrainee failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListForTrainee = %d rows, want 2", len(got))
	}
	if got[0].ID != mine.ID {
		t.Errorf("pinned announcement should come first, got %q", got[0].Title)
	}
}

func TestStore_RecipientsAndCascade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	ann, _ := store.Create(ctx, models.Announcement{Title: "t", Active: true}, []primitive.ObjectID{a, b})

	ids, err := store.Recipients(ctx, ann.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("Recipients = %v, %v", ids, err)
	}

	n, err := store.DeleteRecipientsByTrainee(ctx, a)
	if err != nil || n != 1 {
		t.Errorf("DeleteRecipientsByTrainee = %d, %v; want 1", n, err)
	}

	if err := store.SetRecipients(ctx, ann.ID, nil); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetByID(ctx, ann.ID)
	if got.Targeted {
		t.Error("clearing recipients should untarget the announcement")
	}

	if _, err := store.Create(ctx, models.Announcement{Title: "x", Type: "memo"}, nil); err != announcementstore.ErrBadType {
		t.Errorf("expected ErrBadType, got %v", err)
	}
}

func TestStore_ListGeneral(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := announcementstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store.Create(ctx, models.Announcement{Title: "Everyone", Active: true}, nil)
	store.Create(ctx, models.Announcement{Title: "One trainee", Active: true}, []primitive.ObjectID{primitive.NewObjectID()})
	store.Create(ctx, models.Announcement{Title: "Hidden", Active: false}, nil)

	got, err := store.ListGeneral(ctx, 0)
	if err != nil {
		t.Fatalf("ListGeneral failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Everyone" {
		t.Errorf("ListGeneral = %+v", got)
	}
}
