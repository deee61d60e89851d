package userstore

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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when the email (case-folded) is taken.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateID is returned by Insert when a user with the preset _id exists.
	ErrDuplicateID = errors.New("a user with this id already exists")
	errBadRole     = errors.New(`role must be "admin"|"supervisor"|"trainee"`)
	errNoEmail     = errors.New("email is required")
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads the users whose ids are in ids. Missing ids are simply absent
// from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with id exists.
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

func prepare(u *models.User) error {
	u.FullName = strings.TrimSpace(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.EmailCI = text.Fold(u.Email)
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
	if u.Status == "" {
		u.Status = "active"
	}
	if !models.IsValidRole(u.Role) {
		return errBadRole
	}
	if u.Email == "" {
		return errNoEmail
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// Create inserts a new user with a fresh id after normalizing fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	if err := prepare(&u); err != nil {
		return models.User{}, err
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Insert inserts u keeping its preset id. Used when the id is dictated by
// another record (the credential a placeholder principal is rebuilt from).
func (s *Store) Insert(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		return s.Create(ctx, u)
	}
	if err := prepare(&u); err != nil {
		return models.User{}, err
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			if strings.Contains(err.Error(), "_id_") {
				return models.User{}, ErrDuplicateID
			}
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListByRole returns users with the given role, sorted by folded name.
func (s *Store) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return s.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
}

// IDsByRole returns the ids of all users with role.
func (s *Store) IDsByRole(ctx context.Context, role string) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"role": role}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// UpdateProfile changes a user's display name and email.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName, email string) error {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"full_name":    fullName,
		"full_name_ci": text.Fold(fullName),
		"email":        email,
		"email_ci":     text.Fold(email),
		"placeholder":  false,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateEmail
	}
	return err
}

// SetRole changes a user's role. Returns mongo.ErrNoDocuments when no
// user has id.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.IsValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a user by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns users matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of users matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
