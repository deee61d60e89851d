// internal/domain/models/trainee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TraineeActive      = "active"
	TraineeCompleted   = "completed"
	TraineeSuspended   = "suspended"
	TraineeTransferred = "transferred"
	TraineeWithdrawn   = "withdrawn"
)

// TraineeStatuses lists valid trainee statuses in display order.
var TraineeStatuses = []string{TraineeActive, TraineeCompleted, TraineeSuspended, TraineeTransferred, TraineeWithdrawn}

// IsValidTraineeStatus reports whether s is one of TraineeStatuses.
func IsValidTraineeStatus(s string) bool {
	for _, v := range TraineeStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Trainee is the role-detail record for a principal with role "trainee".
// UserID and InstitutionID are foreign keys that may dangle.
type Trainee struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`

	University    string `bson:"university,omitempty" json:"university,omitempty"`
	Major         string `bson:"major,omitempty" json:"major,omitempty"`
	AcademicYear  string `bson:"academic_year,omitempty" json:"academic_year,omitempty"`
	StudentNumber string `bson:"student_number,omitempty" json:"student_number,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`

	Status    string     `bson:"status" json:"status"`
	StartDate time.Time  `bson:"start_date" json:"start_date"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
