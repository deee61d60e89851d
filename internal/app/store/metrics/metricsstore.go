// Package metricsstore computes dashboard counts and averages by reading raw
// rows and reducing them in memory.
//
// Every time-windowed metric uses the same window: from midnight on the first
// day of the current month in server-local time up to now.
//
// The average of an empty set is 0. Dashboards therefore cannot tell "no
// evaluations yet" from "everything scored zero"; the evaluation count is
// shown next to every average for that reason.
package metricsstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/traineehub/internal/app/system/idset"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Name identifies one metric.
type Name string

const (
	TraineesTotal        Name = "trainees_total"
	TraineesActive       Name = "trainees_active"
	ReportsTotal         Name = "reports_total"
	ReportsPending       Name = "reports_pending"
	ReportsApproved      Name = "reports_approved"
	TasksOpen            Name = "tasks_open"
	TasksOverdue         Name = "tasks_overdue"
	EvaluationsTotal     Name = "evaluations_total"
	EvaluationsPending   Name = "evaluations_pending"
	EvaluationsThisMonth Name = "evaluations_this_month"
	AvgScore             Name = "avg_score"
	AvgScoreThisMonth    Name = "avg_score_this_month"
	AttendanceRate       Name = "attendance_rate"
	AttendancePending    Name = "attendance_pending"
)

// Sections group metrics that are reduced from the same rows.
const (
	SectionTrainees    = "trainees"
	SectionReports     = "reports"
	SectionTasks       = "tasks"
	SectionEvaluations = "evaluations"
	SectionAttendance  = "attendance"
)

var sections = []string{SectionTrainees, SectionReports, SectionTasks, SectionEvaluations, SectionAttendance}

var sectionOf = map[Name]string{
	TraineesTotal:        SectionTrainees,
	TraineesActive:       SectionTrainees,
	ReportsTotal:         SectionReports,
	ReportsPending:       SectionReports,
	ReportsApproved:      SectionReports,
	TasksOpen:            SectionTasks,
	TasksOverdue:         SectionTasks,
	EvaluationsTotal:     SectionEvaluations,
	EvaluationsPending:   SectionEvaluations,
	EvaluationsThisMonth: SectionEvaluations,
	AvgScore:             SectionEvaluations,
	AvgScoreThisMonth:    SectionEvaluations,
	AttendanceRate:       SectionAttendance,
	AttendancePending:    SectionAttendance,
}

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrUnknownScope  = errors.New("unknown scope")
)

/*─────────────────────────────────────────────────────────────────────────────*
| Scope                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeSupervisor
	ScopeTrainee
)

// Scope restricts metrics to every trainee, the trainees assigned to one
// supervisor profile, or a single trainee profile.
type Scope struct {
	Kind ScopeKind
	ID   primitive.ObjectID
}

// Global covers every trainee.
func Global() Scope { return Scope{Kind: ScopeGlobal} }

// ForSupervisor covers the trainees assigned to a supervisor profile.
func ForSupervisor(supervisorID primitive.ObjectID) Scope {
	return Scope{Kind: ScopeSupervisor, ID: supervisorID}
}

// ForTrainee covers one trainee profile.
func ForTrainee(traineeID primitive.ObjectID) Scope {
	return Scope{Kind: ScopeTrainee, ID: traineeID}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sources                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// RowLister is the read side of a trainee-owned collection. ListByTrainees
// is never called with an empty id set.
type RowLister[T any] interface {
	ListAll(ctx context.Context) ([]T, error)
	ListByTrainees(ctx context.Context, traineeIDs []primitive.ObjectID) ([]T, error)
}

// AssignmentLister resolves a supervisor scope into trainee ids.
type AssignmentLister interface {
	ListBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]models.Assignment, error)
}

type Sources struct {
	Trainees    RowLister[models.Trainee]
	Reports     RowLister[models.Report]
	Tasks       RowLister[models.Task]
	Evaluations RowLister[models.Evaluation]
	Attendance  RowLister[models.Attendance]
	Assignments AssignmentLister
}

/*─────────────────────────────────────────────────────────────────────────────*
| Aggregator                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type Aggregator struct {
	src Sources
	now func() time.Time
	loc *time.Location
}

// New returns an Aggregator using the wall clock and time.Local.
func New(src Sources) *Aggregator {
	return &Aggregator{src: src, now: time.Now, loc: time.Local}
}

// WithClock overrides the clock and the zone that month windows are computed in.
func (a *Aggregator) WithClock(now func() time.Time, loc *time.Location) *Aggregator {
	cp := *a
	cp.now = now
	if loc != nil {
		cp.loc = loc
	}
	return &cp
}

// MonthStart returns midnight on the first day of now's month in loc.
func MonthStart(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, loc)
}

// Metric computes one metric for scope.
func (a *Aggregator) Metric(ctx context.Context, scope Scope, name Name) (float64, error) {
	sec, ok := sectionOf[name]
	if !ok {
		return 0, ErrUnknownMetric
	}
	ids, all, err := a.traineeIDs(ctx, scope)
	if err != nil {
		return 0, err
	}
	vals, err := a.section(ctx, sec, ids, all)
	if err != nil {
		return 0, err
	}
	return vals[name], nil
}

// Summary holds every metric for one scope. Failed lists the sections whose
// rows could not be read; their metrics read as 0.
type Summary struct {
	Values map[Name]float64
	Failed []string
}

// Get returns a metric by name. Unknown names read as 0.
func (s Summary) Get(name string) float64 { return s.Values[Name(name)] }

// Count is Get truncated to an int for templates.
func (s Summary) Count(name string) int { return int(s.Values[Name(name)]) }

// SectionFailed reports whether a section could not be computed.
func (s Summary) SectionFailed(section string) bool {
	for _, f := range s.Failed {
		if f == section {
			return true
		}
	}
	return false
}

// Incomplete reports whether any section failed.
func (s Summary) Incomplete() bool { return len(s.Failed) > 0 }

// Summary computes every section concurrently. It never returns an error;
// failures are recorded per section and reported through onErr when non-nil.
func (a *Aggregator) Summary(ctx context.Context, scope Scope, onErr func(section string, err error)) Summary {
	out := Summary{Values: make(map[Name]float64, len(sectionOf))}

	ids, all, err := a.traineeIDs(ctx, scope)
	if err != nil {
		out.Failed = append(out.Failed, sections...)
		if onErr != nil {
			onErr("scope", err)
		}
		return out
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		failed = map[string]bool{}
	)
	for _, sec := range sections {
		sec := sec
		g.Go(func() error {
			vals, err := a.section(ctx, sec, ids, all)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[sec] = true
				if onErr != nil {
					onErr(sec, err)
				}
				return nil
			}
			for k, v := range vals {
				out.Values[k] = v
			}
			return nil
		})
	}
	// Failed sections are collected in failed, not returned, so the
	// remaining sections still produce values.
	_ = g.Wait()

	for _, sec := range sections {
		if failed[sec] {
			out.Failed = append(out.Failed, sec)
		}
	}
	return out
}

// traineeIDs resolves scope. all=true means no id filter.
func (a *Aggregator) traineeIDs(ctx context.Context, scope Scope) ([]primitive.ObjectID, bool, error) {
	switch scope.Kind {
	case ScopeGlobal:
		return nil, true, nil
	case ScopeTrainee:
		return []primitive.ObjectID{scope.ID}, false, nil
	case ScopeSupervisor:
		rows, err := a.src.Assignments.ListBySupervisor(ctx, scope.ID)
		if err != nil {
			return nil, false, err
		}
		return idset.Collect(rows, func(r models.Assignment) primitive.ObjectID { return r.TraineeID }), false, nil
	default:
		return nil, false, ErrUnknownScope
	}
}

func load[T any](ctx context.Context, l RowLister[T], ids []primitive.ObjectID, all bool) ([]T, error) {
	if all {
		return l.ListAll(ctx)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return l.ListByTrainees(ctx, ids)
}

func (a *Aggregator) section(ctx context.Context, sec string, ids []primitive.ObjectID, all bool) (map[Name]float64, error) {
	now := a.now()
	from := MonthStart(now, a.loc)

	switch sec {
	case SectionTrainees:
		rows, err := load(ctx, a.src.Trainees, ids, all)
		if err != nil {
			return nil, err
		}
		return reduceTrainees(rows), nil
	case SectionReports:
		rows, err := load(ctx, a.src.Reports, ids, all)
		if err != nil {
			return nil, err
		}
		return reduceReports(rows), nil
	case SectionTasks:
		rows, err := load(ctx, a.src.Tasks, ids, all)
		if err != nil {
			return nil, err
		}
		return reduceTasks(rows, now), nil
	case SectionEvaluations:
		rows, err := load(ctx, a.src.Evaluations, ids, all)
		if err != nil {
			return nil, err
		}
		return reduceEvaluations(rows, from), nil
	case SectionAttendance:
		rows, err := load(ctx, a.src.Attendance, ids, all)
		if err != nil {
			return nil, err
		}
		return reduceAttendance(rows), nil
	}
	return nil, ErrUnknownMetric
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reducers                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func reduceTrainees(rows []models.Trainee) map[Name]float64 {
	var active float64
	for _, t := range rows {
		if t.Status == models.TraineeActive {
			active++
		}
	}
	return map[Name]float64{
		TraineesTotal:  float64(len(rows)),
		TraineesActive: active,
	}
}

func reduceReports(rows []models.Report) map[Name]float64 {
	var pending, approved float64
	for _, r := range rows {
		switch r.Status {
		case models.ReportPending:
			pending++
		case models.ReportApproved:
			approved++
		}
	}
	return map[Name]float64{
		ReportsTotal:    float64(len(rows)),
		ReportsPending:  pending,
		ReportsApproved: approved,
	}
}

func reduceTasks(rows []models.Task, now time.Time) map[Name]float64 {
	var open, overdue float64
	for _, t := range rows {
		switch t.Status {
		case models.TaskApproved, models.TaskCompleted, models.TaskCancelled:
		default:
			open++
		}
		if t.IsOverdue(now) {
			overdue++
		}
	}
	return map[Name]float64{
		TasksOpen:    open,
		TasksOverdue: overdue,
	}
}

func reduceEvaluations(rows []models.Evaluation, from time.Time) map[Name]float64 {
	var pending, thisMonth float64
	var all, month []float64
	for _, e := range rows {
		inMonth := !e.EvaluatedAt.Before(from)
		if inMonth {
			thisMonth++
		}
		if e.Status == models.EvaluationPending {
			pending++
		}
		if e.Status == models.EvaluationRejected {
			continue
		}
		all = append(all, e.OverallScore)
		if inMonth {
			month = append(month, e.OverallScore)
		}
	}
	return map[Name]float64{
		EvaluationsTotal:     float64(len(rows)),
		EvaluationsPending:   pending,
		EvaluationsThisMonth: thisMonth,
		AvgScore:             Mean(all),
		AvgScoreThisMonth:    Mean(month),
	}
}

func reduceAttendance(rows []models.Attendance) map[Name]float64 {
	var pending float64
	for _, r := range rows {
		if r.Approval.IsPending() {
			pending++
		}
	}
	return map[Name]float64{
		AttendanceRate:    Rate(rows),
		AttendancePending: pending,
	}
}

// Mean returns the arithmetic mean of xs, or 0 when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Rate returns attendance as a percentage. Present and late count as a full
// day, half_day as half, excused days are left out of the denominator.
// Returns 0 when nothing countable exists.
func Rate(rows []models.Attendance) float64 {
	var attended, countable float64
	for _, r := range rows {
		switch r.Status {
		case models.AttendancePresent, models.AttendanceLate:
			attended++
			countable++
		case models.AttendanceHalfDay:
			attended += 0.5
			countable++
		case models.AttendanceAbsent:
			countable++
		}
	}
	if countable == 0 {
		return 0
	}
	return attended / countable * 100
}
