// Package idset builds deduplicated ObjectID sets for $in queries.
package idset

import "go.mongodb.org/mongo-driver/bson/primitive"

// Unique returns ids without duplicates or NilObjectID, keeping first-seen order.
func Unique(ids []primitive.ObjectID) []primitive.ObjectID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Collect maps items to ids and dedupes them.
func Collect[T any](items []T, key func(T) primitive.ObjectID) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		ids = append(ids, key(it))
	}
	return Unique(ids)
}

// Contains reports whether id is in ids.
func Contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
