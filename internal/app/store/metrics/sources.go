package metricsstore

import (
	assignmentstore "github.com/dalemusser/traineehub/internal/app/store/assignments"
	attendancestore "github.com/dalemusser/traineehub/internal/app/store/attendance"
	evaluationstore "github.com/dalemusser/traineehub/internal/app/store/evaluations"
	reportstore "github.com/dalemusser/traineehub/internal/app/store/reports"
	taskstore "github.com/dalemusser/traineehub/internal/app/store/tasks"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewFromDB wires an Aggregator to the Mongo-backed stores.
func NewFromDB(db *mongo.Database) *Aggregator {
	return New(Sources{
		Trainees:    traineestore.New(db),
		Reports:     reportstore.New(db),
		Tasks:       taskstore.New(db),
		Evaluations: evaluationstore.New(db),
		Attendance:  attendancestore.New(db),
		Assignments: assignmentstore.New(db),
	})
}
