// Package traineeoptions lists trainees with display names for pickers and
// for labelling rows that carry only a trainee_id.
package traineeoptions

import (
	"context"
	"sort"

	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Option is one selectable trainee.
type Option struct {
	ID          primitive.ObjectID
	Name        string
	Institution string
	Status      string
}

// Names maps trainee id to display name.
type Names map[primitive.ObjectID]string

// Of returns the name for id, or "Unknown trainee" when id is not listed.
func (n Names) Of(id primitive.ObjectID) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return "Unknown trainee"
}

// Load returns the trainees in filter (nil means all, an empty slice means
// none) joined to their users and institutions. Trainees whose user or
// institution is gone are left out. Sorted by name.
func Load(ctx context.Context, db *mongo.Database, filter []primitive.ObjectID) ([]Option, error) {
	if filter != nil && len(filter) == 0 {
		return nil, nil
	}
	q := bson.M{}
	if filter != nil {
		q["_id"] = bson.M{"$in": filter}
	}
	trainees, err := traineestore.New(db).Find(ctx, q)
	if err != nil {
		return nil, err
	}
	res := assignedtrainees.NewFromDB(db).Join(ctx, trainees)

	out := make([]Option, 0, len(res.Rows))
	for _, row := range res.Rows {
		o := Option{ID: row.Trainee.ID, Name: row.Name(), Status: row.Trainee.Status}
		if row.Institution != nil {
			o.Institution = row.Institution.DisplayName("en")
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Active keeps the options whose trainee status is active.
func Active(opts []Option) []Option {
	out := opts[:0:0]
	for _, o := range opts {
		if o.Status == models.TraineeActive {
			out = append(out, o)
		}
	}
	return out
}

// NameMap indexes opts by id.
func NameMap(opts []Option) Names {
	m := make(Names, len(opts))
	for _, o := range opts {
		m[o.ID] = o.Name
	}
	return m
}
