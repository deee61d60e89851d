// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a principal: one row per authenticated identity.
//
// NOTE:
//   - Role-specific details live in the trainees / supervisors collections,
//     keyed by user_id. A user with role "trainee" is expected to have exactly
//     one trainees row, but nothing in the datastore enforces that.
//   - Placeholder is set when the repair tools materialize a user for an
//     orphaned trainee from its credential record.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName    string             `bson:"full_name" json:"full_name"`
	FullNameCI  string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"email_ci"`
	Role        string             `bson:"role" json:"role"` // admin | supervisor | trainee
	Status      string             `bson:"status,omitempty" json:"status,omitempty"`
	Placeholder bool               `bson:"placeholder,omitempty" json:"placeholder,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
