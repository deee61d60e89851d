// internal/domain/models/supervisor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Supervisor is the role-detail record for a principal with role "supervisor".
type Supervisor struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	InstitutionID primitive.ObjectID `bson:"institution_id" json:"institution_id"`
	Position      string             `bson:"position,omitempty" json:"position,omitempty"`
	Department    string             `bson:"department,omitempty" json:"department,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
