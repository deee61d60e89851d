// internal/app/store/queries/assignedtrainees/assignedtrainees.go
package assignedtrainees

// The expander joins supervisor_trainee → trainees → users/institutions in
// application code. A $lookup + $unwind pipeline silently drops a row whose
// foreign key dangles; here every hop is a separate fetch whose failure is
// visible, and every dropped row is reported with a reason.

import (
	"context"
	"sort"

	assignmentstore "github.com/dalemusser/traineehub/internal/app/store/assignments"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

type AssignmentLister interface {
	ListBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]models.Assignment, error)
}

type TraineeFetcher interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Trainee, error)
}

type UserFetcher interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type InstitutionFetcher interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Institution, error)
}

// Drop reasons.
const (
	ReasonTraineeMissing     = "trainee_missing"
	ReasonUserMissing        = "user_missing"
	ReasonInstitutionMissing = "institution_missing"
)

// Problem sections, reported when a fetch failed.
const (
	SectionUsers        = "users"
	SectionInstitutions = "institutions"
)

// Row is one assigned trainee with its owning user and institution.
// User or Institution is nil only when its fetch failed (Result.Incomplete).
type Row struct {
	Assignment  models.Assignment
	Trainee     models.Trainee
	User        *models.User
	Institution *models.Institution
}

// Name returns the user's full name, or "" when the user could not be loaded.
func (r Row) Name() string {
	if r.User == nil {
		return ""
	}
	return r.User.FullName
}

// Dropped is an assignment excluded because a join target does not exist.
type Dropped struct {
	TraineeID primitive.ObjectID
	Reason    string
}

// Result of Expand.
//
//   - Rows:       joined rows, sorted by user name
//   - Dropped:    rows excluded because a referenced record is gone
//   - Incomplete: a user or institution fetch failed; rows are kept with
//     the missing half nil and Problems names the failed sections
type Result struct {
	Rows       []Row
	Dropped    []Dropped
	Incomplete bool
	Problems   []string
	Errors     map[string]error
}

// Expander builds the denormalized list of a supervisor's trainees.
type Expander struct {
	assignments  AssignmentLister
	trainees     TraineeFetcher
	users        UserFetcher
	institutions InstitutionFetcher
}

func New(a AssignmentLister, t TraineeFetcher, u UserFetcher, i InstitutionFetcher) *Expander {
	return &Expander{assignments: a, trainees: t, users: u, institutions: i}
}

// NewFromDB wires an Expander to the Mongo-backed stores.
func NewFromDB(db *mongo.Database) *Expander {
	return New(assignmentstore.New(db), traineestore.New(db), userstore.New(db), institutionstore.New(db))
}

// TraineeIDs returns the deduplicated trainee ids assigned to a supervisor.
// It reads only supervisor_trainee; the ids may reference deleted trainees.
func (e *Expander) TraineeIDs(ctx context.Context, supervisorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := e.assignments.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	return idset.Collect(rows, func(a models.Assignment) primitive.ObjectID { return a.TraineeID }), nil
}

// Expand resolves a supervisor's trainees:
//
//  1. assignments for the supervisor → trainee ids
//  2. trainees by id set
//  3. user ids and institution ids from step 2
//  4. users and institutions by id set, concurrently
//  5. join in memory
//
// A supervisor with no assignments returns an empty Result without issuing
// any id-set query. Errors from steps 1 and 2 are returned; failures in
// step 4 mark the Result incomplete instead.
func (e *Expander) Expand(ctx context.Context, supervisorID primitive.ObjectID) (Result, error) {
	var res Result

	asg, err := e.assignments.ListBySupervisor(ctx, supervisorID)
	if err != nil {
		return res, err
	}
	traineeIDs := idset.Collect(asg, func(a models.Assignment) primitive.ObjectID { return a.TraineeID })
	if len(traineeIDs) == 0 {
		return res, nil
	}

	trainees, err := e.trainees.GetByIDs(ctx, traineeIDs)
	if err != nil {
		return res, err
	}
	traineeByID := make(map[primitive.ObjectID]models.Trainee, len(trainees))
	for _, t := range trainees {
		traineeByID[t.ID] = t
	}

	seen := make(map[primitive.ObjectID]bool, len(asg))
	ordered := make([]models.Trainee, 0, len(trainees))
	asgByTrainee := make(map[primitive.ObjectID]models.Assignment, len(asg))
	for _, a := range asg {
		if seen[a.TraineeID] || a.TraineeID.IsZero() {
			continue
		}
		seen[a.TraineeID] = true

		t, ok := traineeByID[a.TraineeID]
		if !ok {
			res.Dropped = append(res.Dropped, Dropped{TraineeID: a.TraineeID, Reason: ReasonTraineeMissing})
			continue
		}
		ordered = append(ordered, t)
		asgByTrainee[t.ID] = a
	}

	e.attach(ctx, &res, ordered, asgByTrainee)
	return res, nil
}

// Join attaches users and institutions to trainees the caller already
// loaded, with the same drop and failure rules as Expand. Row.Assignment is
// the zero value.
func (e *Expander) Join(ctx context.Context, trainees []models.Trainee) Result {
	var res Result
	e.attach(ctx, &res, trainees, nil)
	return res
}

// attach runs steps 3 to 5 of Expand.
func (e *Expander) attach(ctx context.Context, res *Result, trainees []models.Trainee, asg map[primitive.ObjectID]models.Assignment) {
	userIDs := idset.Collect(trainees, func(t models.Trainee) primitive.ObjectID { return t.UserID })
	instIDs := idset.Collect(trainees, func(t models.Trainee) primitive.ObjectID { return t.InstitutionID })

	var (
		users   []models.User
		insts   []models.Institution
		userErr error
		instErr error
		g       errgroup.Group
	)
	g.Go(func() error {
		if len(userIDs) > 0 {
			users, userErr = e.users.GetByIDs(ctx, userIDs)
		}
		return nil
	})
	g.Go(func() error {
		if len(instIDs) > 0 {
			insts, instErr = e.institutions.GetByIDs(ctx, instIDs)
		}
		return nil
	})
	// Both lookups run to completion; each failure marks its own section.
	_ = g.Wait()

	if userErr != nil {
		res.fail(SectionUsers, userErr)
	}
	if instErr != nil {
		res.fail(SectionInstitutions, instErr)
	}

	userByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	instByID := make(map[primitive.ObjectID]models.Institution, len(insts))
	for _, i := range insts {
		instByID[i.ID] = i
	}

	for _, t := range trainees {
		row := Row{Assignment: asg[t.ID], Trainee: t}

		if userErr == nil {
			u, ok := userByID[t.UserID]
			if !ok {
				res.Dropped = append(res.Dropped, Dropped{TraineeID: t.ID, Reason: ReasonUserMissing})
				continue
			}
			row.User = &u
		}
		if instErr == nil {
			i, ok := instByID[t.InstitutionID]
			if !ok {
				res.Dropped = append(res.Dropped, Dropped{TraineeID: t.ID, Reason: ReasonInstitutionMissing})
				continue
			}
			row.Institution = &i
		}
		res.Rows = append(res.Rows, row)
	}

	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.User != nil && b.User != nil && a.User.FullNameCI != b.User.FullNameCI {
			return a.User.FullNameCI < b.User.FullNameCI
		}
		return a.Trainee.ID.Hex() < b.Trainee.ID.Hex()
	})
}

func (r *Result) fail(section string, err error) {
	r.Incomplete = true
	r.Problems = append(r.Problems, section)
	if r.Errors == nil {
		r.Errors = map[string]error{}
	}
	r.Errors[section] = err
}
