// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionIndexes is one collection and the indexes it must carry.
type CollectionIndexes struct {
	Collection string
	Indexes    []mongo.IndexModel
}

func idx(name string, unique bool, keys ...string) mongo.IndexModel {
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: 1})
	}
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: d, Options: opts}
}

// ttl builds an index that expires documents once key is in the past.
func ttl(name, key string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: key, Value: 1}},
		Options: options.Index().SetName(name).SetExpireAfterSeconds(0),
	}
}

// Desired lists every index the application relies on, in ensure order.
func Desired() []CollectionIndexes {
	return []CollectionIndexes{
		{"users", []mongo.IndexModel{
			idx("uniq_users_emailci", true, "email_ci"),
			idx("idx_users_role_fullnameci_id", false, "role", "full_name_ci", "_id"),
		}},
		{"credentials", []mongo.IndexModel{
			idx("uniq_credentials_loginidci", true, "login_id_ci"),
		}},
		{"institutions", []mongo.IndexModel{
			idx("uniq_institutions_nameci", true, "name_ci"),
		}},
		{"trainees", []mongo.IndexModel{
			idx("uniq_trainees_user", true, "user_id"),
			idx("idx_trainees_institution", false, "institution_id"),
			idx("idx_trainees_status", false, "status"),
		}},
		{"supervisors", []mongo.IndexModel{
			idx("uniq_supervisors_user", true, "user_id"),
		}},
		{"supervisor_trainee", []mongo.IndexModel{
			idx("uniq_supervisor_trainee", true, "supervisor_id", "trainee_id"),
			idx("idx_supervisor_trainee_trainee", false, "trainee_id"),
		}},
		{"reports", []mongo.IndexModel{
			idx("idx_reports_trainee_status", false, "trainee_id", "status"),
		}},
		{"tasks", []mongo.IndexModel{
			idx("idx_tasks_trainee_due", false, "trainee_id", "due_date"),
		}},
		{"evaluations", []mongo.IndexModel{
			idx("idx_evaluations_trainee_evaluatedat", false, "trainee_id", "evaluated_at"),
			idx("idx_evaluations_supervisor", false, "supervisor_id"),
		}},
		{"attendance", []mongo.IndexModel{
			idx("uniq_attendance_trainee_date", true, "trainee_id", "date"),
			idx("idx_attendance_date", false, "date"),
		}},
		{"announcements", []mongo.IndexModel{
			idx("idx_announcements_active_pinned_created", false, "active", "pinned", "created_at"),
		}},
		{"announcement_recipients", []mongo.IndexModel{
			idx("uniq_announcement_recipient", true, "announcement_id", "trainee_id"),
			idx("idx_announcement_recipients_trainee", false, "trainee_id"),
		}},
		{"oauth_states", []mongo.IndexModel{
			idx("uniq_oauth_states_state", true, "state"),
			ttl("ttl_oauth_states_expiresat", "expires_at"),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_category_ts", false, "category", "timestamp"),
			idx("idx_audit_user_ts", false, "user_id", "timestamp"),
		}},
	}
}

/*
EnsureAll is called from EnsureSchema. Each collection is reconciled
independently and every problem is collected so startup can fail with the
full list.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string
	for _, ci := range Desired() {
		if err := ensureIndexSet(ctx, log, db.Collection(ci.Collection), ci.Indexes); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

// keySig renders a key pattern as "a:1, b:1" so indexes can be matched by
// keys regardless of their name.
func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool { return b != nil && *b }

// isDuplicateKeyErr matches E11000 across Mongo and DocumentDB error shapes.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// isOptionsConflictErr matches IndexOptionsConflict, returned when the same
// keys already exist under another name or with other options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// listExisting maps key signature to index for one collection.
func listExisting(ctx context.Context, log *zap.Logger, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// A collection that does not exist yet lists as an error on some servers.
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(ix.Key)] = ix
	}
	return out
}

// ensureIndexSet makes every model present under its desired name and
// options. An index with the same keys but another name is renamed; one
// with the same keys but a different uniqueness is dropped and recreated.
func ensureIndexSet(ctx context.Context, log *zap.Logger, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, log, coll, m); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureOne(ctx context.Context, log *zap.Logger, coll *mongo.Collection, m mongo.IndexModel) error {
	var name string
	var unique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	start := time.Now()
	fields := []zap.Field{
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", isTrue(unique)),
	}

	if ex, ok := listExisting(ctx, log, coll)[sig]; ok {
		if isTrue(ex.Unique) == isTrue(unique) && (name == "" || ex.Name == name) {
			log.Debug("index present", fields...)
			return nil
		}
		if err := recreate(ctx, coll, ex.Name, m); err != nil {
			log.Warn("index recreate failed", append(fields, zap.String("from", ex.Name), zap.Error(err))...)
			return createErr(coll.Name(), name, sig, unique, err)
		}
		log.Info("index recreated", append(fields, zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))...)
		return nil
	}

	_, err := coll.Indexes().CreateOne(ctx, m)
	if err != nil && isOptionsConflictErr(err) {
		// Another process created the same keys between our list and create.
		if ex, ok := listExisting(ctx, log, coll)[sig]; ok {
			if isTrue(ex.Unique) == isTrue(unique) {
				log.Info("index present (post-conflict)", append(fields, zap.String("existing", ex.Name))...)
				return nil
			}
			err = recreate(ctx, coll, ex.Name, m)
		}
	}
	if err != nil {
		log.Warn("index ensure failed", append(fields, zap.Error(err))...)
		return createErr(coll.Name(), name, sig, unique, err)
	}
	log.Info("index created", append(fields, zap.Duration("took", time.Since(start)))...)
	return nil
}

func recreate(ctx context.Context, coll *mongo.Collection, existing string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, existing); err != nil {
		return fmt.Errorf("drop %s: %w", existing, err)
	}
	_, err := coll.Indexes().CreateOne(ctx, m)
	return err
}

// createErr describes a failed create. Duplicate keys under a unique index
// get a finder hint for the offending collection.
func createErr(coll, name, sig string, unique *bool, err error) error {
	if isDuplicateKeyErr(err) && isTrue(unique) {
		field := strings.SplitN(sig, ":", 2)[0]
		return fmt.Errorf("%s(%s): cannot create unique index (duplicates present); find them with "+
			`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
			coll, name, coll, field)
	}
	return fmt.Errorf("%s(%s): %w", coll, name, err)
}
