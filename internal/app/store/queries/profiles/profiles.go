// internal/app/store/queries/profiles/profiles.go
package profiles

// Terminology: Profile
//   - A principal lives in `users`. Its role-detail record (profile) lives in
//     `trainees` or `supervisors` and points back through user_id.
//   - Admins have no detail record; their profile is always found.

import (
	"context"
	"errors"

	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	supervisorstore "github.com/dalemusser/traineehub/internal/app/store/supervisors"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUnknownRole is returned for roles that have no profile shape.
var ErrUnknownRole = errors.New("unknown role")

// InstitutionStatus describes how the profile's institution resolved.
type InstitutionStatus string

const (
	InstitutionResolved InstitutionStatus = "resolved"
	InstitutionMissing  InstitutionStatus = "missing" // FK empty or dangling
	InstitutionFailed   InstitutionStatus = "failed"  // lookup error; see InstitutionErr
)

// Profile is the result of Resolve.
//
// Found is false when the role-detail record does not exist. That is an
// expected state: callers render an "incomplete profile" page instead of an
// empty dashboard. It is never reported as an error.
//
// Institution is set only when InstitutionStatus is InstitutionResolved.
type Profile struct {
	UserID primitive.ObjectID
	Role   string
	Found  bool

	Trainee    *models.Trainee
	Supervisor *models.Supervisor

	Institution       *models.Institution
	InstitutionStatus InstitutionStatus
	InstitutionErr    error
}

// Incomplete reports whether the caller should render the incomplete-profile state.
func (p Profile) Incomplete() bool { return !p.Found }

// InstitutionID returns the institution FK of whichever detail record was found.
func (p Profile) InstitutionID() primitive.ObjectID {
	switch {
	case p.Trainee != nil:
		return p.Trainee.InstitutionID
	case p.Supervisor != nil:
		return p.Supervisor.InstitutionID
	}
	return primitive.NilObjectID
}

type TraineeGetter interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Trainee, error)
}

type SupervisorGetter interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Supervisor, error)
}

type InstitutionGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Institution, error)
}

// Resolver maps a principal to its role-detail record.
type Resolver struct {
	trainees     TraineeGetter
	supervisors  SupervisorGetter
	institutions InstitutionGetter
}

func New(t TraineeGetter, s SupervisorGetter, i InstitutionGetter) *Resolver {
	return &Resolver{trainees: t, supervisors: s, institutions: i}
}

// NewFromDB wires a Resolver to the Mongo-backed stores.
func NewFromDB(db *mongo.Database) *Resolver {
	return New(traineestore.New(db), supervisorstore.New(db), institutionstore.New(db))
}

// Resolve loads the detail record for (userID, role) and then its institution.
//
// The two lookups are sequential because the second depends on the first.
// Only a failure of the detail lookup is returned as an error. A failed
// institution lookup is recorded on the Profile so the page can still render.
func (r *Resolver) Resolve(ctx context.Context, userID primitive.ObjectID, role string) (Profile, error) {
	p := Profile{UserID: userID, Role: role}

	switch role {
	case models.RoleAdmin:
		p.Found = true
		return p, nil

	case models.RoleTrainee:
		t, err := r.trainees.GetByUserID(ctx, userID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return p, nil
		}
		if err != nil {
			return Profile{}, err
		}
		p.Found = true
		p.Trainee = &t

	case models.RoleSupervisor:
		s, err := r.supervisors.GetByUserID(ctx, userID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return p, nil
		}
		if err != nil {
			return Profile{}, err
		}
		p.Found = true
		p.Supervisor = &s

	default:
		return Profile{}, ErrUnknownRole
	}

	r.attachInstitution(ctx, &p)
	return p, nil
}

func (r *Resolver) attachInstitution(ctx context.Context, p *Profile) {
	id := p.InstitutionID()
	if id.IsZero() {
		p.InstitutionStatus = InstitutionMissing
		return
	}
	inst, err := r.institutions.GetByID(ctx, id)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		p.InstitutionStatus = InstitutionMissing
	case err != nil:
		p.InstitutionStatus = InstitutionFailed
		p.InstitutionErr = err
	default:
		p.Institution = &inst
		p.InstitutionStatus = InstitutionResolved
	}
}
