// Package assignmentstore manages supervisor_trainee links.
package assignmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/traineehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyAssigned is returned when the (supervisor, trainee) pair exists.
var ErrAlreadyAssigned = errors.New("this trainee is already assigned to this supervisor")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("supervisor_trainee")}
}

// Assign links a supervisor to a trainee. by may be nil for system actions.
func (s *Store) Assign(ctx context.Context, supervisorID, traineeID primitive.ObjectID, primary bool, by *primitive.ObjectID) (models.Assignment, error) {
	a := models.Assignment{
		ID:           primitive.NewObjectID(),
		SupervisorID: supervisorID,
		TraineeID:    traineeID,
		IsPrimary:    primary,
		AssignedAt:   time.Now().UTC(),
		AssignedBy:   by,
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Assignment{}, ErrAlreadyAssigned
		}
		return models.Assignment{}, err
	}
	return a, nil
}

// Unassign removes the (supervisor, trainee) link. Returns the number deleted.
func (s *Store) Unassign(ctx context.Context, supervisorID, traineeID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"supervisor_id": supervisorID, "trainee_id": traineeID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// SetPrimary flips is_primary on one link.
func (s *Store) SetPrimary(ctx context.Context, supervisorID, traineeID primitive.ObjectID, primary bool) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"supervisor_id": supervisorID, "trainee_id": traineeID},
		bson.M{"$set": bson.M{"is_primary": primary}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListBySupervisor returns the supervisor's links, oldest first.
func (s *Store) ListBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{"supervisor_id": supervisorID}, options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}}))
}

// ListByTrainee returns every link for a trainee.
func (s *Store) ListByTrainee(ctx context.Context, traineeID primitive.ObjectID) ([]models.Assignment, error) {
	return s.find(ctx, bson.M{"trainee_id": traineeID})
}

// CountPrimaries returns how many supervisors are primary for a trainee.
func (s *Store) CountPrimaries(ctx context.Context, traineeID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"trainee_id": traineeID, "is_primary": true})
}

// IsAssigned reports whether the pair is linked.
func (s *Store) IsAssigned(ctx context.Context, supervisorID, traineeID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"supervisor_id": supervisorID, "trainee_id": traineeID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByTrainee removes every link for a trainee.
func (s *Store) DeleteByTrainee(ctx context.Context, traineeID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"trainee_id": traineeID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
