// Package taskstore persists tasks assigned to trainees.
package taskstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrBadPriority  = errors.New(`priority must be "low"|"medium"|"high"|"urgent"`)
	ErrBadStatus    = errors.New("unknown task status")
	ErrTitleMissing = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

var byDue = options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: -1}})

// Create inserts a task. Priority defaults to medium, status to pending.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return models.Task{}, ErrTitleMissing
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if !models.IsValidTaskPriority(t.Priority) {
		return models.Task{}, ErrBadPriority
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Status = models.TaskPending
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// SetStatus moves a task to status. Unknown statuses are refused.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !models.IsValidTaskStatus(status) {
		return ErrBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Task, error) {
	return s.Find(ctx, bson.M{}, byDue)
}

func (s *Store) ListByTrainees(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"trainee_id": bson.M{"$in": ids}}, byDue)
}

// CountOverdue counts tasks whose due date is before now and whose status is
// not in models.OverdueExempt.
// A nil ids slice means every trainee; an empty non-nil slice counts nothing.
func (s *Store) CountOverdue(ctx context.Context, ids []primitive.ObjectID, now time.Time) (int64, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"due_date": bson.M{"$lt": now.UTC()},
		"status":   bson.M{"$nin": models.OverdueExempt},
	}
	if ids != nil {
		filter["trainee_id"] = bson.M{"$in": ids}
	}
	return s.c.CountDocuments(ctx, filter)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
