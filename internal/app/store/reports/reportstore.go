package reportstore

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
	ErrBadType      = errors.New(`type must be "daily"|"weekly"|"monthly"`)
	ErrBadReview    = errors.New(`review status must be "approved"|"rejected"|"revision_required"`)
	ErrNotEditable  = errors.New("only pending reports or reports sent back for revision can be edited")
	ErrTitleMissing = errors.New("title is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reports")}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})

// Create submits a report. Status always starts at pending.
func (s *Store) Create(ctx context.Context, r models.Report) (models.Report, error) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return models.Report{}, ErrTitleMissing
	}
	if !models.IsValidReportType(r.Type) {
		return models.Report{}, ErrBadType
	}
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Status = models.ReportPending
	r.ReviewedBy, r.ReviewedAt, r.ReviewComment = nil, nil, ""
	r.SubmittedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Report, error) {
	var r models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

// Resubmit lets the trainee edit a pending or revision_required report; it
// goes back to pending.
func (s *Store) Resubmit(ctx context.Context, id primitive.ObjectID, title, content string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrTitleMissing
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []string{models.ReportPending, models.ReportRevisionRequired}}},
		bson.M{"$set": bson.M{
			"title":      title,
			"content":    content,
			"status":     models.ReportPending,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotEditable
	}
	return nil
}

// Review records a reviewer decision.
func (s *Store) Review(ctx context.Context, id primitive.ObjectID, status string, reviewer primitive.ObjectID, comment string) error {
	if !models.IsReviewStatus(status) {
		return ErrBadReview
	}
	now := time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":         status,
		"reviewed_by":    reviewer,
		"reviewed_at":    now,
		"review_comment": strings.TrimSpace(comment),
		"updated_at":     now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListAll returns every report, newest first.
func (s *Store) ListAll(ctx context.Context) ([]models.Report, error) {
	return s.Find(ctx, bson.M{}, newestFirst)
}

// ListByTrainees returns the reports of the given trainees, newest first.
func (s *Store) ListByTrainees(ctx context.Context, ids []primitive.ObjectID) ([]models.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"trainee_id": bson.M{"$in": ids}}, newestFirst)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Report, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
