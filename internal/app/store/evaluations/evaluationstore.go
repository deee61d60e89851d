// Package evaluationstore persists supervisor evaluations of trainees.
package evaluationstore

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrScoreRange   = errors.New("scores must be between 0 and 100")
	ErrBadDecision  = errors.New(`decision must be "approved"|"rejected"`)
	ErrAlreadyFinal = errors.New("evaluation has already been decided")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("evaluations")}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "evaluated_at", Value: -1}})

func inRange(v float64) bool { return v >= 0 && v <= models.MaxScore }

// Create inserts a pending evaluation. A zero overall score is filled with the
// mean of the five dimensions, rounded to one decimal place.
func (s *Store) Create(ctx context.Context, e models.Evaluation) (models.Evaluation, error) {
	sc := e.Scores
	for _, v := range []float64{sc.Technical, sc.Communication, sc.Teamwork, sc.Punctuality, sc.Initiative, e.OverallScore} {
		if !inRange(v) {
			return models.Evaluation{}, ErrScoreRange
		}
	}
	if e.OverallScore == 0 {
		e.OverallScore = math.Round(sc.Mean()*10) / 10
	}
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Status = models.EvaluationPending
	e.DecidedBy, e.DecidedAt = nil, nil
	e.Comments = strings.TrimSpace(e.Comments)
	if e.EvaluatedAt.IsZero() {
		e.EvaluatedAt = now
	}
	e.CreatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Evaluation{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Evaluation, error) {
	var e models.Evaluation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Evaluation{}, err
	}
	return e, nil
}

// Decide approves or rejects a pending evaluation.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, status string, by primitive.ObjectID) error {
	if status != models.EvaluationApproved && status != models.EvaluationRejected {
		return ErrBadDecision
	}
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.EvaluationPending},
		bson.M{"$set": bson.M{"status": status, "decided_by": by, "decided_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
		return ErrAlreadyFinal
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Evaluation, error) {
	return s.Find(ctx, bson.M{}, newestFirst)
}

func (s *Store) ListByTrainees(ctx context.Context, ids []primitive.ObjectID) ([]models.Evaluation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"trainee_id": bson.M{"$in": ids}}, newestFirst)
}

// ListBySupervisor returns evaluations written by one supervisor profile.
func (s *Store) ListBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]models.Evaluation, error) {
	return s.Find(ctx, bson.M{"supervisor_id": supervisorID}, newestFirst)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Evaluation, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Evaluation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
