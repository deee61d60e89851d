// Package attendancestore persists daily attendance records.
package attendancestore

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
	ErrDuplicateDay = errors.New("attendance for this date has already been recorded")
	ErrBadStatus    = errors.New("unknown attendance status")
	ErrNotPending   = errors.New("only records awaiting review can be changed")
	ErrAlreadyFinal = errors.New("attendance has already been decided")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance")}
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

// Record inserts one attendance record. Date is truncated to its calendar
// day; a second record for the same trainee and day is ErrDuplicateDay.
func (s *Store) Record(ctx context.Context, a models.Attendance) (models.Attendance, error) {
	if !models.IsValidAttendanceStatus(a.Status) {
		return models.Attendance{}, ErrBadStatus
	}
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Date = models.DayOf(a.Date, time.UTC)
	a.Notes = strings.TrimSpace(a.Notes)
	a.Approval = models.PendingApproval()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Attendance{}, ErrDuplicateDay
		}
		return models.Attendance{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Attendance, error) {
	var a models.Attendance
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Attendance{}, err
	}
	return a, nil
}

// Decide stores a review decision built with models.Approve or models.Reject.
// Only a pending record can be decided; a decided one returns ErrAlreadyFinal.
func (s *Store) Decide(ctx context.Context, id primitive.ObjectID, ap models.Approval) error {
	if err := ap.Validate(); err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "approval.state": models.ApprovalPending},
		bson.M{"$set": bson.M{
			"approval":   ap,
			"updated_at": time.Now().UTC(),
		}})
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

// Amend lets the trainee correct a record that has not been reviewed yet.
func (s *Store) Amend(ctx context.Context, id primitive.ObjectID, status, checkIn, checkOut, notes string) error {
	if !models.IsValidAttendanceStatus(status) {
		return ErrBadStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "approval.state": models.ApprovalPending},
		bson.M{"$set": bson.M{
			"status":     status,
			"check_in":   checkIn,
			"check_out":  checkOut,
			"notes":      strings.TrimSpace(notes),
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotPending
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Attendance, error) {
	return s.Find(ctx, bson.M{}, newestFirst)
}

func (s *Store) ListByTrainees(ctx context.Context, ids []primitive.ObjectID) ([]models.Attendance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"trainee_id": bson.M{"$in": ids}}, newestFirst)
}

// ListRange returns records dated in [from, to) for the given trainees.
// A nil ids slice means every trainee.
func (s *Store) ListRange(ctx context.Context, ids []primitive.ObjectID, from, to time.Time) ([]models.Attendance, error) {
	if ids != nil && len(ids) == 0 {
		return nil, nil
	}
	filter := bson.M{"date": bson.M{"$gte": from.UTC(), "$lt": to.UTC()}}
	if ids != nil {
		filter["trainee_id"] = bson.M{"$in": ids}
	}
	return s.Find(ctx, filter, newestFirst)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Attendance, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Attendance
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
