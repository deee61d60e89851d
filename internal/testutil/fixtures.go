package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test documents directly, bypassing store validation, so
// tests can also build the broken states the repair tools look for.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert into %s: %v", coll, err)
	}
}

// CreateInstitution creates a test institution.
func (f *Fixtures) CreateInstitution(ctx context.Context, nameEN string) models.Institution {
	f.t.Helper()
	now := time.Now().UTC()
	inst := models.Institution{
		ID:        primitive.NewObjectID(),
		NameEN:    nameEN,
		NameAR:    "مؤسسة " + nameEN,
		NameCI:    text.Fold(nameEN),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "institutions", inst)
	return inst
}

// CreateUser creates a test principal with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      strings.ToLower(email),
		EmailCI:    text.Fold(email),
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAdmin creates a test admin principal.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin)
}

// CreateCredential creates the authentication record for userID.
func (f *Fixtures) CreateCredential(ctx context.Context, userID primitive.ObjectID, loginID string) models.Credential {
	f.t.Helper()
	c := models.Credential{
		ID:         userID,
		LoginID:    loginID,
		LoginIDCI:  text.Fold(loginID),
		AuthMethod: models.AuthPassword,
		CreatedAt:  time.Now().UTC(),
	}
	f.insert(ctx, "credentials", c)
	return c
}

// CreateTrainee creates a trainee row. userID may reference a missing user.
func (f *Fixtures) CreateTrainee(ctx context.Context, userID, institutionID primitive.ObjectID) models.Trainee {
	f.t.Helper()
	now := time.Now().UTC()
	tr := models.Trainee{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		InstitutionID: institutionID,
		University:    "Test University",
		Major:         "Computer Science",
		Status:        models.TraineeActive,
		StartDate:     now.AddDate(0, -1, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "trainees", tr)
	return tr
}

// CreateTraineeUser creates a trainee principal together with its trainee row.
func (f *Fixtures) CreateTraineeUser(ctx context.Context, fullName, email string, institutionID primitive.ObjectID) (models.User, models.Trainee) {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, models.RoleTrainee)
	return u, f.CreateTrainee(ctx, u.ID, institutionID)
}

// CreateSupervisorUser creates a supervisor principal together with its supervisor row.
func (f *Fixtures) CreateSupervisorUser(ctx context.Context, fullName, email string, institutionID primitive.ObjectID) (models.User, models.Supervisor) {
	f.t.Helper()
	u := f.CreateUser(ctx, fullName, email, models.RoleSupervisor)
	now := time.Now().UTC()
	s := models.Supervisor{
		ID:            primitive.NewObjectID(),
		UserID:        u.ID,
		InstitutionID: institutionID,
		Position:      "Mentor",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.insert(ctx, "supervisors", s)
	return u, s
}

// Assign links a supervisor to a trainee.
func (f *Fixtures) Assign(ctx context.Context, supervisorID, traineeID primitive.ObjectID, primary bool) models.Assignment {
	f.t.Helper()
	a := models.Assignment{
		ID:           primitive.NewObjectID(),
		SupervisorID: supervisorID,
		TraineeID:    traineeID,
		IsPrimary:    primary,
		AssignedAt:   time.Now().UTC(),
	}
	f.insert(ctx, "supervisor_trainee", a)
	return a
}

// CreateEvaluation creates an evaluation with the given overall score and status.
func (f *Fixtures) CreateEvaluation(ctx context.Context, traineeID, supervisorID primitive.ObjectID, overall float64, status string, at time.Time) models.Evaluation {
	f.t.Helper()
	e := models.Evaluation{
		ID:           primitive.NewObjectID(),
		TraineeID:    traineeID,
		SupervisorID: supervisorID,
		Scores: models.EvaluationScores{
			Technical: overall, Communication: overall, Teamwork: overall,
			Punctuality: overall, Initiative: overall,
		},
		OverallScore: overall,
		Status:       status,
		EvaluatedAt:  at,
		CreatedAt:    at,
	}
	f.insert(ctx, "evaluations", e)
	return e
}
