// internal/domain/models/assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment links a supervisor to a trainee (supervisor_trainee collection).
// Exactly one document per (supervisor_id, trainee_id). At most one primary
// supervisor per trainee is expected; it is warned about, not enforced.
type Assignment struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SupervisorID primitive.ObjectID  `bson:"supervisor_id" json:"supervisor_id"`
	TraineeID    primitive.ObjectID  `bson:"trainee_id" json:"trainee_id"`
	IsPrimary    bool                `bson:"is_primary" json:"is_primary"`
	AssignedAt   time.Time           `bson:"assigned_at" json:"assigned_at"`
	AssignedBy   *primitive.ObjectID `bson:"assigned_by,omitempty" json:"assigned_by,omitempty"`
}
