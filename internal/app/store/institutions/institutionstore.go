// internal/app/store/institutions/institutionstore.go
package institutionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/traineehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateInstitution = errors.New("an institution with this name already exists")
	ErrNameRequired         = errors.New("an English or Arabic name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("institutions")}
}

func normalize(inst *models.Institution) error {
	inst.NameEN = strings.TrimSpace(inst.NameEN)
	inst.NameAR = strings.TrimSpace(inst.NameAR)
	if inst.NameEN == "" && inst.NameAR == "" {
		return ErrNameRequired
	}
	inst.NameCI = text.Fold(inst.DisplayName("en"))
	inst.Email = strings.ToLower(strings.TrimSpace(inst.Email))
	return nil
}

func (s *Store) Create(ctx context.Context, inst models.Institution) (models.Institution, error) {
	if err := normalize(&inst); err != nil {
		return models.Institution{}, err
	}
	now := time.Now().UTC()
	inst.ID = primitive.NewObjectID()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, inst); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Institution{}, ErrDuplicateInstitution
		}
		return models.Institution{}, err
	}
	return inst, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Institution, error) {
	var inst models.Institution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inst); err != nil {
		return models.Institution{}, err
	}
	return inst, nil
}

// GetByIDs loads multiple institutions by their ObjectIDs. Deleted
// institutions are simply absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Institution, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Exists reports whether an institution with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update replaces an institution's editable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, inst models.Institution) error {
	if err := normalize(&inst); err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name_en":    inst.NameEN,
		"name_ar":    inst.NameAR,
		"name_ci":    inst.NameCI,
		"email":      inst.Email,
		"phone":      strings.TrimSpace(inst.Phone),
		"address":    strings.TrimSpace(inst.Address),
		"website":    strings.TrimSpace(inst.Website),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateInstitution
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an institution by ID. Trainees and supervisors that point
// at it are left in place; readers exclude them from joins.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns all institutions sorted by folded English name.
func (s *Store) List(ctx context.Context) ([]models.Institution, error) {
	return s.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
}

// Find returns institutions matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Institution, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Institution
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of institutions matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
