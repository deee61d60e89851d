// internal/app/store/queries/integrity/integrity.go
package integrity

// Two invariants are expected but not enforced by the datastore:
//
//   - every trainees.user_id references a users row
//   - every user with role "trainee" has exactly one trainees row
//
// Find* detect rows that break them. The repair actions fix one row each,
// are admin-only at the route level, and are idempotent: repeating an action
// on a row that is already fixed performs no write.
//
// Each repaired row moves through
//
//	detected → repairing → fixed | deleted | still_broken
//
// and every transition is logged.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	announcementstore "github.com/dalemusser/traineehub/internal/app/store/announcements"
	assignmentstore "github.com/dalemusser/traineehub/internal/app/store/assignments"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	institutionstore "github.com/dalemusser/traineehub/internal/app/store/institutions"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"github.com/dalemusser/traineehub/internal/app/system/txn"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrConfirmationRequired = errors.New("deleting a trainee record requires confirmation")
	ErrNotOrphaned          = errors.New("trainee's user exists; it is not orphaned")
	ErrNoAuthRecord         = errors.New("no authentication record exists for this user id")
	ErrTraineeNotFound      = errors.New("trainee record not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotTraineeRole       = errors.New("user does not have the trainee role")
	ErrInstitutionNotFound  = errors.New("institution not found")
)

// State of a repaired row.
type State string

const (
	StateDetected    State = "detected"
	StateRepairing   State = "repairing"
	StateFixed       State = "fixed"
	StateDeleted     State = "deleted"
	StateStillBroken State = "still_broken"
)

// Outcome describes the end state of one repair action.
// NoOp is true when the row was already fixed and nothing was written.
type Outcome struct {
	SubjectID primitive.ObjectID
	State     State
	NoOp      bool
	Err       error
}

// OrphanedTrainee is a trainee row whose user_id matches no users row.
// AuthUserExists reports whether a credential with that id exists, which is
// what allows a placeholder principal to be materialized.
type OrphanedTrainee struct {
	Trainee        models.Trainee
	AuthUserExists bool
}

// Report is the full detection result shown on the repair page.
type Report struct {
	Orphaned      []OrphanedTrainee
	Unprovisioned []models.User
}

// Clean reports whether no violations were found.
func (r Report) Clean() bool { return len(r.Orphaned) == 0 && len(r.Unprovisioned) == 0 }

/*─────────────────────────────────────────────────────────────────────────────*
| Collaborators                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type TraineeStore interface {
	ListAll(ctx context.Context) ([]models.Trainee, error)
	UserIDs(ctx context.Context) ([]primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Trainee, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Trainee, error)
	Create(ctx context.Context, t models.Trainee) (models.Trainee, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
}

type CredentialStore interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Credential, error)
	ExistingIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
}

type InstitutionChecker interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Cascade removes rows that reference a trainee being deleted.
type Cascade interface {
	DeleteByTrainee(ctx context.Context, traineeID primitive.ObjectID) (int64, error)
}

// Recorder receives state transitions. *auditlog.Logger satisfies it.
type Recorder interface {
	RepairTransition(ctx context.Context, actorID primitive.ObjectID, eventType string, subjectID primitive.ObjectID, from, to string, err error)
}

// Tools detects and repairs integrity violations.
type Tools struct {
	Trainees     TraineeStore
	Users        UserStore
	Credentials  CredentialStore
	Institutions InstitutionChecker
	Cascades     []Cascade
	Recorder     Recorder
	Log          *zap.Logger

	// Client, when set, runs the delete cascade in one transaction.
	Client *mongo.Client
}

// recipientCascade adapts the announcement store to Cascade.
type recipientCascade struct{ s *announcementstore.Store }

func (r recipientCascade) DeleteByTrainee(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return r.s.DeleteRecipientsByTrainee(ctx, id)
}

// NewFromDB wires Tools to the Mongo-backed stores.
func NewFromDB(db *mongo.Database, rec Recorder, log *zap.Logger) *Tools {
	return &Tools{
		Trainees:     traineestore.New(db),
		Users:        userstore.New(db),
		Credentials:  credentialstore.New(db),
		Institutions: institutionstore.New(db),
		Cascades: []Cascade{
			assignmentstore.New(db),
			recipientCascade{announcementstore.New(db)},
		},
		Recorder: rec,
		Log:      log,
		Client:   db.Client(),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Detection                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// FindOrphanedTrainees returns every trainee whose user_id has no users row.
func (t *Tools) FindOrphanedTrainees(ctx context.Context) ([]OrphanedTrainee, error) {
	trainees, err := t.Trainees.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	userIDs := idset.Collect(trainees, func(tr models.Trainee) primitive.ObjectID { return tr.UserID })
	users, err := t.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	present := make(map[primitive.ObjectID]bool, len(users))
	for _, u := range users {
		present[u.ID] = true
	}

	var orphans []models.Trainee
	var missing []primitive.ObjectID
	for _, tr := range trainees {
		if !present[tr.UserID] {
			orphans = append(orphans, tr)
			missing = append(missing, tr.UserID)
		}
	}
	if len(orphans) == 0 {
		return nil, nil
	}

	withAuth, err := t.Credentials.ExistingIDs(ctx, idset.Unique(missing))
	if err != nil {
		return nil, err
	}
	out := make([]OrphanedTrainee, 0, len(orphans))
	for _, tr := range orphans {
		out = append(out, OrphanedTrainee{Trainee: tr, AuthUserExists: idset.Contains(withAuth, tr.UserID)})
	}
	return out, nil
}

// FindUnprovisionedTrainees returns every trainee-role user with no trainee row.
func (t *Tools) FindUnprovisionedTrainees(ctx context.Context) ([]models.User, error) {
	users, err := t.Users.ListByRole(ctx, models.RoleTrainee)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	have, err := t.Trainees.UserIDs(ctx)
	if err != nil {
		return nil, err
	}
	provisioned := make(map[primitive.ObjectID]bool, len(have))
	for _, id := range have {
		provisioned[id] = true
	}
	var out []models.User
	for _, u := range users {
		if !provisioned[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

// Scan runs both detections concurrently.
func (t *Tools) Scan(ctx context.Context) (Report, error) {
	var rep Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rep.Orphaned, err = t.FindOrphanedTrainees(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rep.Unprovisioned, err = t.FindUnprovisionedTrainees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return rep, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Repair actions                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// MaterializePrincipal recreates the missing users row of an orphaned
// trainee from its credential. The new user is flagged Placeholder so an
// admin can complete the name and email later.
func (t *Tools) MaterializePrincipal(ctx context.Context, actorID, traineeID primitive.ObjectID) (Outcome, error) {
	tr, err := t.Trainees.GetByID(ctx, traineeID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return t.fail(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateDetected, ErrTraineeNotFound)
	}
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateDetected, err)
	}

	if _, err := t.Users.GetByID(ctx, tr.UserID); err == nil {
		return noop(traineeID, StateFixed), nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return t.fail(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateDetected, err)
	}

	cred, err := t.Credentials.GetByUserID(ctx, tr.UserID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return t.fail(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateDetected, ErrNoAuthRecord)
	}
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateDetected, err)
	}

	t.transition(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateDetected, StateRepairing, nil)
	_, err = t.Users.Insert(ctx, placeholderUser(tr.UserID, cred))
	if errors.Is(err, userstore.ErrDuplicateID) {
		// created concurrently
		err = nil
	}
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateRepairing, err)
	}
	t.transition(ctx, actorID, audit.EventRepairMaterialize, traineeID, StateRepairing, StateFixed, nil)
	return Outcome{SubjectID: traineeID, State: StateFixed}, nil
}

func placeholderUser(id primitive.ObjectID, cred *models.Credential) models.User {
	login := strings.TrimSpace(cred.LoginID)
	email := login
	if !strings.Contains(email, "@") {
		email = fmt.Sprintf("%s@placeholder.invalid", id.Hex())
	}
	name := login
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	if name == "" {
		name = "Trainee " + id.Hex()[18:]
	}
	return models.User{
		ID:          id,
		FullName:    name,
		Email:       email,
		Role:        models.RoleTrainee,
		Status:      "active",
		Placeholder: true,
	}
}

// DeleteOrphan deletes an orphaned trainee row and the rows that reference
// it. confirmed must be true. A trainee that is already gone is a no-op.
// Dependents are removed before the trainee, inside a transaction where the
// deployment allows one, so a failure part way leaves the trainee detectable
// for another attempt.
func (t *Tools) DeleteOrphan(ctx context.Context, actorID, traineeID primitive.ObjectID, confirmed bool) (Outcome, error) {
	if !confirmed {
		return Outcome{SubjectID: traineeID, State: StateDetected, Err: ErrConfirmationRequired}, ErrConfirmationRequired
	}
	tr, err := t.Trainees.GetByID(ctx, traineeID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return noop(traineeID, StateDeleted), nil
	}
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairDelete, traineeID, StateDetected, err)
	}

	if _, err := t.Users.GetByID(ctx, tr.UserID); err == nil {
		return Outcome{SubjectID: traineeID, State: StateDetected, Err: ErrNotOrphaned}, ErrNotOrphaned
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return t.fail(ctx, actorID, audit.EventRepairDelete, traineeID, StateDetected, err)
	}

	t.transition(ctx, actorID, audit.EventRepairDelete, traineeID, StateDetected, StateRepairing, nil)
	err = txn.Run(ctx, t.Client, t.Log, func(ctx context.Context) error {
		for _, c := range t.Cascades {
			if _, err := c.DeleteByTrainee(ctx, traineeID); err != nil {
				return err
			}
		}
		_, err := t.Trainees.Delete(ctx, traineeID)
		return err
	})
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairDelete, traineeID, StateRepairing, err)
	}
	t.transition(ctx, actorID, audit.EventRepairDelete, traineeID, StateRepairing, StateDeleted, nil)
	return Outcome{SubjectID: traineeID, State: StateDeleted}, nil
}

// ProvisionInput is the form behind "create trainee record".
type ProvisionInput struct {
	InstitutionID primitive.ObjectID
	StartDate     time.Time
	University    string
	Major         string
	StudentNumber string
}

// ProvisionTrainee creates the missing trainee row for a trainee-role user.
// A user that already has one is a no-op.
func (t *Tools) ProvisionTrainee(ctx context.Context, actorID, userID primitive.ObjectID, in ProvisionInput) (Outcome, error) {
	u, err := t.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, ErrUserNotFound)
	}
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, err)
	}
	if u.Role != models.RoleTrainee {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, ErrNotTraineeRole)
	}

	if _, err := t.Trainees.GetByUserID(ctx, userID); err == nil {
		return noop(userID, StateFixed), nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, err)
	}

	ok, err := t.Institutions.Exists(ctx, in.InstitutionID)
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, err)
	}
	if !ok {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, ErrInstitutionNotFound)
	}

	t.transition(ctx, actorID, audit.EventRepairProvision, userID, StateDetected, StateRepairing, nil)
	_, err = t.Trainees.Create(ctx, models.Trainee{
		UserID:        userID,
		InstitutionID: in.InstitutionID,
		StartDate:     in.StartDate,
		University:    in.University,
		Major:         in.Major,
		StudentNumber: in.StudentNumber,
	})
	if errors.Is(err, traineestore.ErrDuplicateTrainee) {
		err = nil
	}
	if err != nil {
		return t.fail(ctx, actorID, audit.EventRepairProvision, userID, StateRepairing, err)
	}
	t.transition(ctx, actorID, audit.EventRepairProvision, userID, StateRepairing, StateFixed, nil)
	return Outcome{SubjectID: userID, State: StateFixed}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func noop(id primitive.ObjectID, s State) Outcome {
	return Outcome{SubjectID: id, State: s, NoOp: true}
}

func (t *Tools) fail(ctx context.Context, actorID primitive.ObjectID, event string, subject primitive.ObjectID, from State, err error) (Outcome, error) {
	t.transition(ctx, actorID, event, subject, from, StateStillBroken, err)
	return Outcome{SubjectID: subject, State: StateStillBroken, Err: err}, err
}

func (t *Tools) transition(ctx context.Context, actorID primitive.ObjectID, event string, subject primitive.ObjectID, from, to State, err error) {
	if t.Log != nil {
		fields := []zap.Field{
			zap.String("action", event),
			zap.String("subject_id", subject.Hex()),
			zap.String("actor_id", actorID.Hex()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		}
		if err != nil {
			t.Log.Warn("repair transition", append(fields, zap.Error(err))...)
		} else {
			t.Log.Info("repair transition", fields...)
		}
	}
	if t.Recorder != nil {
		t.Recorder.RepairTransition(ctx, actorID, event, subject, string(from), string(to), err)
	}
}
