// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Schema is one collection's JSON-Schema validator.
type Schema struct {
	Collection string
	Validator  bson.M
}

// EnsureAll creates each collection when missing and attaches its
// validator. Validation is "moderate": documents already in the collection
// that do not match are left alone until they are next updated.
// Servers without collMod support (some DocumentDB versions) are skipped
// with a log line.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string
	for _, s := range Schemas() {
		if _, err := ensureCollection(ctx, db, s.Collection, logger); err != nil {
			problems = append(problems, s.Collection+": "+err.Error())
			continue
		}
		if err := setValidator(ctx, db, s.Collection, s.Validator); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", s.Collection))
				continue
			}
			problems = append(problems, s.Collection+": "+err.Error())
			continue
		}
		logger.Debug("validator ensured", zap.String("collection", s.Collection))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Schemas lists every validated collection. The enums come from the models
// package so a new role or status cannot drift from what the server accepts.
func Schemas() []Schema {
	return []Schema{
		{"users", usersSchema()},
		{"credentials", credentialsSchema()},
		{"trainees", principalRowSchema()},
		{"supervisors", principalRowSchema()},
		{"supervisor_trainee", assignmentSchema()},
		{"evaluations", evaluationsSchema()},
		{"attendance", attendanceSchema()},
	}
}

/* ---------------------- collection helpers ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection makes sure name exists. created is true only when this
// call made it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 59 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 115 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enum(vals ...string) bson.M {
	a := make(bson.A, 0, len(vals))
	for _, v := range vals {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func object(required []string, props bson.M) bson.M {
	req := make(bson.A, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return bson.M{"$jsonSchema": bson.M{
		"bsonType":   "object",
		"required":   req,
		"properties": props,
	}}
}

func usersSchema() bson.M {
	return object([]string{"full_name", "role"}, bson.M{
		"full_name": nonBlank,
		"role":      enum(models.AllRoles...),
		"email":     bson.M{"bsonType": "string"},
	})
}

func credentialsSchema() bson.M {
	methods := make([]string, 0, len(models.AllAuthMethods))
	for _, m := range models.AllAuthMethods {
		methods = append(methods, m.Value)
	}
	return object([]string{"login_id", "auth_method"}, bson.M{
		"login_id":    nonBlank,
		"auth_method": enum(methods...),
	})
}

// principalRowSchema covers trainees and supervisors: detail rows keyed by
// the principal's user id.
func principalRowSchema() bson.M {
	return object([]string{"user_id"}, bson.M{
		"user_id": bson.M{"bsonType": "objectId"},
	})
}

func assignmentSchema() bson.M {
	return object([]string{"supervisor_id", "trainee_id"}, bson.M{
		"supervisor_id": bson.M{"bsonType": "objectId"},
		"trainee_id":    bson.M{"bsonType": "objectId"},
		"is_primary":    bson.M{"bsonType": "bool"},
	})
}

func evaluationsSchema() bson.M {
	return object([]string{"trainee_id", "status"}, bson.M{
		"trainee_id": bson.M{"bsonType": "objectId"},
		"status":     enum(models.EvaluationPending, models.EvaluationApproved, models.EvaluationRejected),
	})
}

func attendanceSchema() bson.M {
	return object([]string{"trainee_id", "status"}, bson.M{
		"trainee_id": bson.M{"bsonType": "objectId"},
		"status":     enum(models.AttendanceStatuses...),
	})
}
