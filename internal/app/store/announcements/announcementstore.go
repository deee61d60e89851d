// Package announcementstore persists announcements and their recipients.
package announcementstore

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
	ErrBadType      = errors.New(`type must be "circular"|"workshop"|"general"`)
	ErrTitleMissing = errors.New("title is required")
)

type Store struct {
	c    *mongo.Collection
	rcpt *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:    db.Collection("announcements"),
		rcpt: db.Collection("announcement_recipients"),
	}
}

// pinned first, then newest
var listOrder = options.Find().SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}})

// Create inserts an announcement. A non-empty recipients list marks it
// targeted and writes one recipient row per trainee. Body must already be
// sanitized.
func (s *Store) Create(ctx context.Context, a models.Announcement, recipients []primitive.ObjectID) (models.Announcement, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return models.Announcement{}, ErrTitleMissing
	}
	if a.Type == "" {
		a.Type = models.AnnouncementGeneral
	}
	if !models.IsValidAnnouncementType(a.Type) {
		return models.Announcement{}, ErrBadType
	}
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Targeted = len(recipients) > 0
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Announcement{}, err
	}
	if err := s.SetRecipients(ctx, a.ID, recipients); err != nil {
		return a, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var a models.Announcement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// Update rewrites the editable fields.
func (s *Store) Update(ctx context.Context, a models.Announcement) error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return ErrTitleMissing
	}
	if !models.IsValidAnnouncementType(a.Type) {
		return ErrBadType
	}
	res, err := s.c.UpdateByID(ctx, a.ID, bson.M{"$set": bson.M{
		"title":      a.Title,
		"body":       a.Body,
		"type":       a.Type,
		"pinned":     a.Pinned,
		"active":     a.Active,
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

// SetFlags toggles pinned and active.
func (s *Store) SetFlags(ctx context.Context, id primitive.ObjectID, pinned, active bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"pinned":     pinned,
		"active":     active,
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

// SetRecipients replaces the recipient rows of an announcement.
func (s *Store) SetRecipients(ctx context.Context, id primitive.ObjectID, trainees []primitive.ObjectID) error {
	if _, err := s.rcpt.DeleteMany(ctx, bson.M{"announcement_id": id}); err != nil {
		return err
	}
	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"targeted": len(trainees) > 0}}); err != nil {
		return err
	}
	if len(trainees) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(trainees))
	for _, tid := range trainees {
		docs = append(docs, models.AnnouncementRecipient{
			ID:             primitive.NewObjectID(),
			AnnouncementID: id,
			TraineeID:      tid,
			CreatedAt:      now,
		})
	}
	_, err := s.rcpt.InsertMany(ctx, docs)
	return err
}

// Recipients returns the trainee ids an announcement targets.
func (s *Store) Recipients(ctx context.Context, id primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.rcpt.Find(ctx, bson.M{"announcement_id": id})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.AnnouncementRecipient
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.TraineeID)
	}
	return out, nil
}

// ListAll returns every announcement, pinned first.
func (s *Store) ListAll(ctx context.Context) ([]models.Announcement, error) {
	return s.find(ctx, bson.M{}, listOrder)
}

// ListForTrainee returns the active announcements a trainee sees: every
// untargeted one plus those that list the trainee as a recipient.
func (s *Store) ListForTrainee(ctx context.Context, traineeID primitive.ObjectID, limit int64) ([]models.Announcement, error) {
	ids, err := s.rcpt.Distinct(ctx, "announcement_id", bson.M{"trainee_id": traineeID})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []interface{}{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	filter := bson.M{
		"active": true,
		"$or": []bson.M{
			{"targeted": bson.M{"$ne": true}},
			{"_id": bson.M{"$in": ids}},
		},
	}
	return s.find(ctx, filter, opts)
}

// ListGeneral returns the active announcements that target no trainee in
// particular. Supervisors and admins see these on their dashboards.
func (s *Store) ListGeneral(ctx context.Context, limit int64) ([]models.Announcement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, bson.M{"active": true, "targeted": bson.M{"$ne": true}}, opts)
}

// Delete removes an announcement and its recipient rows.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if _, err := s.rcpt.DeleteMany(ctx, bson.M{"announcement_id": id}); err != nil {
		return 0, err
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteRecipientsByTrainee drops every recipient row for a trainee.
func (s *Store) DeleteRecipientsByTrainee(ctx context.Context, traineeID primitive.ObjectID) (int64, error) {
	res, err := s.rcpt.DeleteMany(ctx, bson.M{"trainee_id": traineeID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Announcement, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Announcement
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
