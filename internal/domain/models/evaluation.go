// internal/domain/models/evaluation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EvaluationPending  = "pending"
	EvaluationApproved = "approved"
	EvaluationRejected = "rejected"
)

// MaxScore is the upper bound of every evaluation score.
const MaxScore = 100.0

// EvaluationScores are the five scored dimensions.
type EvaluationScores struct {
	Technical     float64 `bson:"technical" json:"technical"`
	Communication float64 `bson:"communication" json:"communication"`
	Teamwork      float64 `bson:"teamwork" json:"teamwork"`
	Punctuality   float64 `bson:"punctuality" json:"punctuality"`
	Initiative    float64 `bson:"initiative" json:"initiative"`
}

// Mean returns the plain average of the five dimensions.
func (s EvaluationScores) Mean() float64 {
	return (s.Technical + s.Communication + s.Teamwork + s.Punctuality + s.Initiative) / 5
}

// Evaluation scores a trainee on behalf of a supervisor. It becomes visible
// to the trainee only after an admin approves it.
type Evaluation struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	TraineeID    primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	SupervisorID primitive.ObjectID `bson:"supervisor_id" json:"supervisor_id"`
	Period       string             `bson:"period,omitempty" json:"period,omitempty"`
	Scores       EvaluationScores   `bson:"scores" json:"scores"`
	OverallScore float64            `bson:"overall_score" json:"overall_score"`
	Comments     string             `bson:"comments,omitempty" json:"comments,omitempty"`
	Status       string             `bson:"status" json:"status"`

	DecidedBy *primitive.ObjectID `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt *time.Time          `bson:"decided_at,omitempty" json:"decided_at,omitempty"`

	EvaluatedAt time.Time `bson:"evaluated_at" json:"evaluated_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
