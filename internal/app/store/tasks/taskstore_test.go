package taskstore_test

import (
	"testing"
	"time"

	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/traineehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task, err := store.Create(ctx, models.Task{TraineeID: primitive.NewObjectID(), Title: "Read handbook"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("expected medium priority, got %q", task.Priority)
	}
	if task.Status != models.TaskPending {
		t.Errorf("expected pending status, got %q", task.Status)
	}

	if _, err := store.Create(ctx, models.Task{Title: "x", Priority: "someday"}); err != taskstore.ErrBadPriority {
		t.Errorf("expected ErrBadPriority, got %v", err)
	}
	if _, err := store.Create(ctx, models.Task{Title: "  "}); err != taskstore.ErrTitleMissing {
		t.Errorf("expected ErrTitleMissing, got %v", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	task, _ := store.Create(ctx, models.Task{TraineeID: primitive.NewObjectID(), Title: "t"})
	if err := store.SetStatus(ctx, task.ID, models.TaskSubmitted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := store.SetStatus(ctx, task.ID, "done"); err != taskstore.ErrBadStatus {
		t.Errorf("expected ErrBadStatus, got %v", err)
	}
	if err := store.SetStatus(ctx, primitive.NewObjectID(), models.TaskApproved); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
	got, _ := store.GetByID(ctx, task.ID)
	if got.Status != models.TaskSubmitted {
		t.Errorf("status = %q", got.Status)
	}
}

func TestStore_CountOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	mk := func(tr primitive.ObjectID, due *time.Time, status string) {
		task, err := store.Create(ctx, models.Task{TraineeID: tr, Title: "t", DueDate: due})
		if err != nil {
			t.Fatal(err)
		}
		if status != "" {
			// legacy terminal statuses bypass SetStatus validation
			if _, err := db.Collection("tasks").UpdateByID(ctx, task.ID, bson.M{"$set": bson.M{"status": status}}); err != nil {
				t.Fatal(err)
			}
		}
	}
	mk(a, &past, "")                    // overdue
	mk(a, &past, models.TaskInProgress) // overdue
	mk(a, &past, models.TaskCompleted)  // finished
	mk(a, &future, "")                  // not due
	mk(a, nil, "")                      // no due date
	mk(b, &past, models.TaskCancelled)  // finished
	mk(b, &past, models.TaskApproved)   // overdue
	mk(b, &past, models.TaskRejected)   // overdue

	tests := []struct {
		name string
		ids  []primitive.ObjectID
		want int64
	}{
		{"global", nil, 4},
		{"trainee a", []primitive.ObjectID{a}, 2},
		{"trainee b", []primitive.ObjectID{b}, 2},
		{"empty scope", []primitive.ObjectID{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.CountOverdue(ctx, tt.ids, now)
			if err != nil {
				t.Fatalf("CountOverdue: %v", err)
			}
			if got != tt.want {
				t.Errorf("CountOverdue = %d, want %d", got, tt.want)
			}
		})
	}
}
