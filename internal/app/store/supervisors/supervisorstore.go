package supervisorstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateSupervisor = errors.New("this user already has a supervisor profile")
	ErrUserRequired        = errors.New("user_id is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("supervisors")}
}

func (s *Store) Create(ctx context.Context, sup models.Supervisor) (models.Supervisor, error) {
	if sup.UserID.IsZero() {
		return models.Supervisor{}, ErrUserRequired
	}
	now := time.Now().UTC()
	sup.ID = primitive.NewObjectID()
	sup.Position = strings.TrimSpace(sup.Position)
	sup.Department = strings.TrimSpace(sup.Department)
	sup.Phone = strings.TrimSpace(sup.Phone)
	sup.CreatedAt = now
	sup.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sup); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Supervisor{}, ErrDuplicateSupervisor
		}
		return models.Supervisor{}, err
	}
	return sup, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Supervisor, error) {
	var sup models.Supervisor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sup); err != nil {
		return models.Supervisor{}, err
	}
	return sup, nil
}

// GetByUserID loads the supervisor row for a principal. Returns
// mongo.ErrNoDocuments when the principal has none.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Supervisor, error) {
	var sup models.Supervisor
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&sup); err != nil {
		return models.Supervisor{}, err
	}
	return sup, nil
}

func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Supervisor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Update writes the editable profile fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, sup models.Supervisor) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"institution_id": sup.InstitutionID,
		"position":       strings.TrimSpace(sup.Position),
		"department":     strings.TrimSpace(sup.Department),
		"phone":          strings.TrimSpace(sup.Phone),
		"updated_at":     time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Supervisor, error) {
	return s.Find(ctx, bson.M{})
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Supervisor, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Supervisor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
