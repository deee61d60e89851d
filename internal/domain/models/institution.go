// internal/domain/models/institution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Institution is a university or training provider. Names are bilingual.
type Institution struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	NameEN    string             `bson:"name_en" json:"name_en"`
	NameAR    string             `bson:"name_ar" json:"name_ar"`
	NameCI    string             `bson:"name_ci" json:"name_ci"` // folded from NameEN
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Website   string             `bson:"website,omitempty" json:"website,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns the name for the given language ("ar" or anything else
// for English), falling back to the other language when one is blank.
func (i Institution) DisplayName(lang string) string {
	if lang == "ar" && i.NameAR != "" {
		return i.NameAR
	}
	if i.NameEN != "" {
		return i.NameEN
	}
	return i.NameAR
}
