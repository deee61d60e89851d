package metricsstore_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	metricsstore "github.com/dalemusser/traineehub/internal/app/store/metrics"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeRows is an in-memory RowLister that counts calls.
type fakeRows[T any] struct {
	mu        sync.Mutex
	rows      []T
	traineeOf func(T) primitive.ObjectID
	err       error
	listAll   int
	listByIDs int
}

func (f *fakeRows[T]) ListAll(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listAll++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeRows[T]) ListByTrainees(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listByIDs++
	if f.err != nil {
		return nil, f.err
	}
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []T
	for _, r := range f.rows {
		if want[f.traineeOf(r)] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRows[T]) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listAll + f.listByIDs
}

type fakeAssignments struct {
	rows  []models.Assignment
	err   error
	calls int
}

func (f *fakeAssignments) ListBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]models.Assignment, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Assignment
	for _, a := range f.rows {
		if a.SupervisorID == supervisorID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fixture struct {
	trainees    *fakeRows[models.Trainee]
	reports     *fakeRows[models.Report]
	tasks       *fakeRows[models.Task]
	evaluations *fakeRows[models.Evaluation]
	attendance  *fakeRows[models.Attendance]
	assignments *fakeAssignments
}

func newFixture() *fixture {
	return &fixture{
		trainees:    &fakeRows[models.Trainee]{traineeOf: func(t models.Trainee) primitive.ObjectID { return t.ID }},
		reports:     &fakeRows[models.Report]{traineeOf: func(r models.Report) primitive.ObjectID { return r.TraineeID }},
		tasks:       &fakeRows[models.Task]{traineeOf: func(t models.Task) primitive.ObjectID { return t.TraineeID }},
		evaluations: &fakeRows[models.Evaluation]{traineeOf: func(e models.Evaluation) primitive.ObjectID { return e.TraineeID }},
		attendance:  &fakeRows[models.Attendance]{traineeOf: func(a models.Attendance) primitive.ObjectID { return a.TraineeID }},
		assignments: &fakeAssignments{},
	}
}

func (f *fixture) aggregator(now time.Time) *metricsstore.Aggregator {
	return metricsstore.New(metricsstore.Sources{
		Trainees:    f.trainees,
		Reports:     f.reports,
		Tasks:       f.tasks,
		Evaluations: f.evaluations,
		Attendance:  f.attendance,
		Assignments: f.assignments,
	}).WithClock(func() time.Time { return now }, time.UTC)
}

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func TestMetric_AverageOfNoEvaluationsIsZero(t *testing.T) {
	f := newFixture()
	agg := f.aggregator(now)

	for _, name := range []metricsstore.Name{metricsstore.AvgScore, metricsstore.AvgScoreThisMonth} {
		got, err := agg.Metric(context.Background(), metricsstore.Global(), name)
		if err != nil {
			t.Fatalf("Metric(%s): %v", name, err)
		}
		if math.IsNaN(got) || got != 0 {
			t.Errorf("Metric(%s) = %v, want 0", name, got)
		}
	}
}

func TestMetric_AverageScoreWindows(t *testing.T) {
	f := newFixture()
	tr := primitive.NewObjectID()
	lastMonth := time.Date(2026, 4, 30, 23, 59, 0, 0, time.UTC)
	firstOfMonth := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f.evaluations.rows = []models.Evaluation{
		{TraineeID: tr, OverallScore: 60, Status: models.EvaluationApproved, EvaluatedAt: lastMonth},
		{TraineeID: tr, OverallScore: 80, Status: models.EvaluationApproved, EvaluatedAt: firstOfMonth},
		{TraineeID: tr, OverallScore: 90, Status: models.EvaluationPending, EvaluatedAt: now},
		{TraineeID: tr, OverallScore: 10, Status: models.EvaluationRejected, EvaluatedAt: now},
	}
	agg := f.aggregator(now)
	ctx := context.Background()

	tests := []struct {
		name metricsstore.Name
		want float64
	}{
		{metricsstore.AvgScore, (60.0 + 80 + 90) / 3},
		{metricsstore.AvgScoreThisMonth, (80.0 + 90) / 2},
		{metricsstore.EvaluationsTotal, 4},
		{metricsstore.EvaluationsPending, 1},
		{metricsstore.EvaluationsThisMonth, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			got, err := agg.Metric(ctx, metricsstore.ForTrainee(tr), tt.name)
			if err != nil {
				t.Fatalf("Metric: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthStart_UsesGivenZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on April 30 is already May 1 at UTC+3.
	instant := time.Date(2026, 4, 30, 22, 30, 0, 0, time.UTC)

	got := metricsstore.MonthStart(instant, loc)
	want := time.Date(2026, 5, 1, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("MonthStart = %v, want %v", got, want)
	}
}

func TestMetric_SupervisorWithNoAssignmentsSkipsRowQueries(t *testing.T) {
	f := newFixture()
	f.reports.rows = []models.Report{{TraineeID: primitive.NewObjectID(), Status: models.ReportPending}}
	agg := f.aggregator(now)

	got, err := agg.Metric(context.Background(), metricsstore.ForSupervisor(primitive.NewObjectID()), metricsstore.ReportsPending)
	if err != nil {
		t.Fatalf("Metric: %v", err)
	}
	if got != 0 {
		t.Errorf("ReportsPending = %v, want 0", got)
	}
	if f.assignments.calls != 1 {
		t.Errorf("assignment lookups = %d, want 1", f.assignments.calls)
	}
	if c := f.reports.calls(); c != 0 {
		t.Errorf("report queries = %d, want 0", c)
	}
}

func TestMetric_SupervisorScope(t *testing.T) {
	f := newFixture()
	sup := primitive.NewObjectID()
	mine, theirs := primitive.NewObjectID(), primitive.NewObjectID()
	f.assignments.rows = []models.Assignment{{SupervisorID: sup, TraineeID: mine}}
	f.reports.rows = []models.Report{
		{TraineeID: mine, Status: models.ReportPending},
		{TraineeID: mine, Status: models.ReportApproved},
		{TraineeID: theirs, Status: models.ReportPending},
	}
	agg := f.aggregator(now)
	ctx := context.Background()

	pending, _ := agg.Metric(ctx, metricsstore.ForSupervisor(sup), metricsstore.ReportsPending)
	if pending != 1 {
		t.Errorf("supervisor ReportsPending = %v, want 1", pending)
	}
	global, _ := agg.Metric(ctx, metricsstore.Global(), metricsstore.ReportsPending)
	if global != 2 {
		t.Errorf("global ReportsPending = %v, want 2", global)
	}
}

func TestMetric_Tasks(t *testing.T) {
	f := newFixture()
	tr := primitive.NewObjectID()
	past := now.Add(-time.Hour)
	f.tasks.rows = []models.Task{
		{TraineeID: tr, Status: models.TaskPending, DueDate: &past},
		{TraineeID: tr, Status: models.TaskSubmitted},
		{TraineeID: tr, Status: models.TaskApproved, DueDate: &past},
		{TraineeID: tr, Status: models.TaskCancelled, DueDate: &past},
		{TraineeID: tr, Status: models.TaskCompleted, DueDate: &past},
	}
	agg := f.aggregator(now)

	open, _ := agg.Metric(context.Background(), metricsstore.Global(), metricsstore.TasksOpen)
	overdue, _ := agg.Metric(context.Background(), metricsstore.Global(), metricsstore.TasksOverdue)
	if open != 2 || overdue != 2 {
		t.Errorf("open=%v overdue=%v, want 2 and 2", open, overdue)
	}
}

func TestMetric_Tasks_ApprovedPastDueIsOverdue(t *testing.T) {
	f := newFixture()
	past := now.Add(-48 * time.Hour)
	f.tasks.rows = []models.Task{{TraineeID: primitive.NewObjectID(), Status: models.TaskApproved, DueDate: &past}}

	overdue, err := f.aggregator(now).Metric(context.Background(), metricsstore.Global(), metricsstore.TasksOverdue)
	if err != nil {
		t.Fatalf("Metric: %v", err)
	}
	if overdue != 1 {
		t.Errorf("tasks_overdue = %v, want 1", overdue)
	}
}

func TestRate(t *testing.T) {
	row := func(status string) models.Attendance { return models.Attendance{Status: status} }
	tests := []struct {
		name string
		rows []models.Attendance
		want float64
	}{
		{"empty", nil, 0},
		{"only excused", []models.Attendance{row(models.AttendanceExcused)}, 0},
		{"all present", []models.Attendance{row(models.AttendancePresent), row(models.AttendanceLate)}, 100},
		{"mixed", []models.Attendance{
			row(models.AttendancePresent),
			row(models.AttendanceHalfDay),
			row(models.AttendanceAbsent),
			row(models.AttendanceAbsent),
			row(models.AttendanceExcused),
		}, 37.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metricsstore.Rate(tt.rows); got != tt.want {
				t.Errorf("Rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetric_UnknownName(t *testing.T) {
	agg := newFixture().aggregator(now)
	if _, err := agg.Metric(context.Background(), metricsstore.Global(), "coffee_consumed"); !errors.Is(err, metricsstore.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestSummary_PartialFailure(t *testing.T) {
	f := newFixture()
	tr := primitive.NewObjectID()
	f.trainees.rows = []models.Trainee{{ID: tr, Status: models.TraineeActive}}
	f.reports.err = errors.New("connection reset")

	var mu sync.Mutex
	var logged []string
	sum := f.aggregator(now).Summary(context.Background(), metricsstore.Global(), func(section string, err error) {
		mu.Lock()
		logged = append(logged, section)
		mu.Unlock()
	})

	if !sum.Incomplete() || !sum.SectionFailed(metricsstore.SectionReports) {
		t.Errorf("expected reports section to be flagged, got %v", sum.Failed)
	}
	if sum.SectionFailed(metricsstore.SectionTrainees) {
		t.Error("trainees section should not be flagged")
	}
	if sum.Count("trainees_active") != 1 {
		t.Errorf("trainees_active = %d, want 1", sum.Count("trainees_active"))
	}
	if sum.Get("reports_pending") != 0 {
		t.Errorf("failed section should read as 0")
	}
	if len(logged) != 1 || logged[0] != metricsstore.SectionReports {
		t.Errorf("onErr calls = %v", logged)
	}
}

func TestSummary_ScopeFailureFlagsEverything(t *testing.T) {
	f := newFixture()
	f.assignments.err = errors.New("timeout")

	sum := f.aggregator(now).Summary(context.Background(), metricsstore.ForSupervisor(primitive.NewObjectID()), nil)
	if len(sum.Failed) != 5 {
		t.Errorf("Failed = %v, want every section", sum.Failed)
	}
	if f.trainees.calls() != 0 {
		t.Error("no row queries expected after the scope failed")
	}
}
