// Package traineepolicy decides which trainee records the current user may see.
//
// Authorization rules:
//   - Admins can view and manage every trainee
//   - Supervisors can view trainees assigned to them in supervisor_trainee
//   - Trainees can view only their own records
//   - A supervisor or trainee without a profile row sees nothing
package traineepolicy

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/store/queries/profiles"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProfileResolver interface {
	Resolve(ctx context.Context, userID primitive.ObjectID, role string) (profiles.Profile, error)
}

type AssignedIDs interface {
	TraineeIDs(ctx context.Context, supervisorID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Scope is the set of trainees a user may access.
type Scope struct {
	// All is true for admins; TraineeIDs is then unused.
	All bool
	// TraineeIDs is the explicit allow list for supervisors and trainees.
	TraineeIDs []primitive.ObjectID
	// Profile is the resolved profile of the current user.
	Profile profiles.Profile
	// Signed is false when no valid user is in the request.
	Signed bool
}

// Allows reports whether traineeID is in scope.
func (s Scope) Allows(traineeID primitive.ObjectID) bool {
	if s.All {
		return true
	}
	for _, id := range s.TraineeIDs {
		if id == traineeID {
			return true
		}
	}
	return false
}

// Filter returns ids for a store query: nil means unrestricted, an empty
// non-nil slice means nothing is visible.
func (s Scope) Filter() []primitive.ObjectID {
	if s.All {
		return nil
	}
	if s.TraineeIDs == nil {
		return []primitive.ObjectID{}
	}
	return s.TraineeIDs
}

// Incomplete reports whether the user lacks the profile row its role needs.
func (s Scope) Incomplete() bool { return s.Signed && !s.Profile.Found }

// SupervisorID returns the supervisor profile id, or NilObjectID.
func (s Scope) SupervisorID() primitive.ObjectID {
	if s.Profile.Supervisor == nil {
		return primitive.NilObjectID
	}
	return s.Profile.Supervisor.ID
}

// TraineeID returns the trainee profile id, or NilObjectID.
func (s Scope) TraineeID() primitive.ObjectID {
	if s.Profile.Trainee == nil {
		return primitive.NilObjectID
	}
	return s.Profile.Trainee.ID
}

type Policy struct {
	profiles ProfileResolver
	assigned AssignedIDs
}

func New(p ProfileResolver, a AssignedIDs) *Policy {
	return &Policy{profiles: p, assigned: a}
}

// NewFromDB wires a Policy to the Mongo-backed resolver and expander.
func NewFromDB(db *mongo.Database) *Policy {
	return New(profiles.NewFromDB(db), assignedtrainees.NewFromDB(db))
}

// ScopeFor resolves the current user's scope.
// Returns an error only if a database operation fails.
func (p *Policy) ScopeFor(r *http.Request) (Scope, error) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return Scope{}, nil
	}
	ctx := r.Context()

	prof, err := p.profiles.Resolve(ctx, userID, role)
	if errors.Is(err, profiles.ErrUnknownRole) {
		return Scope{Signed: true}, nil
	}
	if err != nil {
		return Scope{}, err
	}
	s := Scope{Profile: prof, Signed: true}

	switch role {
	case models.RoleAdmin:
		s.All = true
	case models.RoleSupervisor:
		if prof.Supervisor == nil {
			return s, nil
		}
		ids, err := p.assigned.TraineeIDs(ctx, prof.Supervisor.ID)
		if err != nil {
			return Scope{}, err
		}
		s.TraineeIDs = ids
	case models.RoleTrainee:
		if prof.Trainee != nil {
			s.TraineeIDs = []primitive.ObjectID{prof.Trainee.ID}
		}
	}
	return s, nil
}

// CanAccessTrainee reports whether the current user may view traineeID.
// Returns an error only if a database operation fails.
func (p *Policy) CanAccessTrainee(r *http.Request, traineeID primitive.ObjectID) (bool, error) {
	s, err := p.ScopeFor(r)
	if err != nil {
		return false, err
	}
	return s.Allows(traineeID), nil
}

// CanReview reports whether the current user may decide on a trainee's
// reports and attendance. Trainees never review their own records.
func (p *Policy) CanReview(r *http.Request, traineeID primitive.ObjectID) (bool, error) {
	if authz.IsTrainee(r) {
		return false, nil
	}
	return p.CanAccessTrainee(r, traineeID)
}
