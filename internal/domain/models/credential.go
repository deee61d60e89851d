// internal/domain/models/credential.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credential is the authentication record behind a principal.
//
// Its _id is the principal's user id. A credential can outlive (or predate)
// its users row; the repair tools use it to decide whether a placeholder
// principal may be materialized for an orphaned trainee.
type Credential struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	LoginID      string             `bson:"login_id" json:"login_id"`
	LoginIDCI    string             `bson:"login_id_ci" json:"login_id_ci"`
	AuthMethod   string             `bson:"auth_method" json:"auth_method"` // password | google
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
