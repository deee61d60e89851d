package traineestore

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
	// ErrDuplicateTrainee is returned when the user already has a trainee row.
	ErrDuplicateTrainee = errors.New("this user already has a trainee profile")
	ErrBadStatus        = errors.New(`status must be "active"|"completed"|"suspended"|"transferred"|"withdrawn"`)
	ErrUserRequired     = errors.New("user_id is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("trainees")}
}

// Create inserts a trainee row. Status defaults to active and StartDate to today.
func (s *Store) Create(ctx context.Context, t models.Trainee) (models.Trainee, error) {
	if t.UserID.IsZero() {
		return models.Trainee{}, ErrUserRequired
	}
	if t.Status == "" {
		t.Status = models.TraineeActive
	}
	if !models.IsValidTraineeStatus(t.Status) {
		return models.Trainee{}, ErrBadStatus
	}
	now := time.Now().UTC()
	if t.StartDate.IsZero() {
		t.StartDate = models.DayOf(now, time.UTC)
	}
	t.ID = primitive.NewObjectID()
	t.University = strings.TrimSpace(t.University)
	t.Major = strings.TrimSpace(t.Major)
	t.StudentNumber = strings.TrimSpace(t.StudentNumber)
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Trainee{}, ErrDuplicateTrainee
		}
		return models.Trainee{}, err
	}
	return t, nil
}

// GetByID loads a trainee row. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Trainee, error) {
	var t models.Trainee
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Trainee{}, err
	}
	return t, nil
}

// GetByUserID loads the trainee row for a principal. Returns
// mongo.ErrNoDocuments when the principal has no trainee row.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Trainee, error) {
	var t models.Trainee
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&t); err != nil {
		return models.Trainee{}, err
	}
	return t, nil
}

// GetByIDs loads the trainee rows in ids. Missing ids are absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Trainee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListAll returns every trainee row.
func (s *Store) ListAll(ctx context.Context) ([]models.Trainee, error) {
	return s.Find(ctx, bson.M{})
}

// ListByTrainees is GetByIDs under the name the aggregator expects.
func (s *Store) ListByTrainees(ctx context.Context, ids []primitive.ObjectID) ([]models.Trainee, error) {
	return s.GetByIDs(ctx, ids)
}

// UserIDs returns the user_id of every trainee row.
func (s *Store) UserIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"user_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		UserID primitive.ObjectID `bson:"user_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.UserID)
	}
	return out, nil
}

// Update writes the editable profile fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Trainee) error {
	if t.Status != "" && !models.IsValidTraineeStatus(t.Status) {
		return ErrBadStatus
	}
	set := bson.M{
		"institution_id": t.InstitutionID,
		"university":     strings.TrimSpace(t.University),
		"major":          strings.TrimSpace(t.Major),
		"academic_year":  strings.TrimSpace(t.AcademicYear),
		"student_number": strings.TrimSpace(t.StudentNumber),
		"phone":          strings.TrimSpace(t.Phone),
		"updated_at":     time.Now().UTC(),
	}
	if t.Status != "" {
		set["status"] = t.Status
	}
	if !t.StartDate.IsZero() {
		set["start_date"] = t.StartDate
	}
	update := bson.M{"$set": set}
	if t.EndDate != nil {
		set["end_date"] = *t.EndDate
	} else {
		update["$unset"] = bson.M{"end_date": ""}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus changes only the status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !models.IsValidTraineeStatus(status) {
		return ErrBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a trainee row. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns trainees matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Trainee, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Trainee
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of trainees matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
