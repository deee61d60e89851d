// Package credentialstore holds the authentication records behind principals.
// A credential's _id is the user id it authenticates.
package credentialstore

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
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateLogin  = errors.New("a credential with this login already exists")
	ErrInvalidPassword = errors.New("invalid password")
	ErrNoPassword      = errors.New("credential has no password")
)

type Store struct {
	c    *mongo.Collection
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("credentials"), cost: bcrypt.DefaultCost}
}

// WithCost returns a copy of the store that hashes with the given bcrypt cost.
// Tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	return &Store{c: s.c, cost: cost}
}

// Create stores a credential for userID. password may be empty for
// externally authenticated (google) principals.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, loginID, authMethod, password string) (models.Credential, error) {
	loginID = strings.ToLower(strings.TrimSpace(loginID))
	c := models.Credential{
		ID:         userID,
		LoginID:    loginID,
		LoginIDCI:  text.Fold(loginID),
		AuthMethod: authMethod,
		CreatedAt:  time.Now().UTC(),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return models.Credential{}, err
		}
		c.PasswordHash = string(hash)
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Credential{}, ErrDuplicateLogin
		}
		return models.Credential{}, err
	}
	return c, nil
}

// GetByUserID returns the credential for a principal id.
// Returns mongo.ErrNoDocuments when none exists.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Credential, error) {
	var c models.Credential
	if err := s.c.FindOne(ctx, bson.M{"_id": userID}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ExistingIDs returns the subset of userIDs that have a credential.
func (s *Store) ExistingIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}}, options.Find().SetProjection(bson.M{"_id": 1}))
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
	out := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out, nil
}

// GetByLoginID looks up a credential by case-insensitive login id.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (*models.Credential, error) {
	var c models.Credential
	if err := s.c.FindOne(ctx, bson.M{"login_id_ci": text.Fold(strings.TrimSpace(loginID))}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Verify checks password against the credential's hash.
func Verify(c *models.Credential, password string) error {
	if c == nil || c.PasswordHash == "" {
		return ErrNoPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// SetPassword replaces the hash for userID.
func (s *Store) SetPassword(ctx context.Context, userID primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, userID, bson.M{"$set": bson.M{"password_hash": string(hash)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the credential for userID.
func (s *Store) Delete(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
