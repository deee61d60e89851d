// Package counts groups and counts documents in one aggregation round trip,
// for list pages that show "N trainees" next to each row.
package counts

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Aggregator is satisfied by *mongo.Database.
type Aggregator interface {
	Collection(name string, opts ...*options.CollectionOptions) *mongo.Collection
}

// ByField counts documents in coll matching match, grouped by the ObjectID
// field key.
//
//	counts.ByField(ctx, db, "supervisor_trainee", bson.M{"supervisor_id": bson.M{"$in": ids}}, "supervisor_id")
//
// Ids with no matching documents are absent from the map, so a lookup
// yields 0. Documents whose key is missing or not an ObjectID are skipped.
func ByField(ctx context.Context, db Aggregator, coll string, match bson.M, key string) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + key},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := db.Collection(coll).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]int64)
	for cur.Next(ctx) {
		var row struct {
			ID any   `bson:"_id"`
			N  int64 `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if id, ok := row.ID.(primitive.ObjectID); ok {
			out[id] = row.N
		}
	}
	return out, cur.Err()
}
