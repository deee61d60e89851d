// internal/domain/models/announcement.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AnnouncementCircular = "circular"
	AnnouncementWorkshop = "workshop"
	AnnouncementGeneral  = "general"
)

// AnnouncementTypes lists valid announcement types.
var AnnouncementTypes = []string{AnnouncementCircular, AnnouncementWorkshop, AnnouncementGeneral}

// IsValidAnnouncementType reports whether t is one of AnnouncementTypes.
func IsValidAnnouncementType(t string) bool {
	for _, v := range AnnouncementTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Announcement is a notice shown on dashboards. When Targeted is true only
// trainees listed in announcement_recipients see it.
type Announcement struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"` // sanitized HTML
	Type      string             `bson:"type" json:"type"`
	Pinned    bool               `bson:"pinned" json:"pinned"`
	Active    bool               `bson:"active" json:"active"`
	Targeted  bool               `bson:"targeted" json:"targeted"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// AnnouncementRecipient targets an announcement at one trainee.
type AnnouncementRecipient struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AnnouncementID primitive.ObjectID `bson:"announcement_id" json:"announcement_id"`
	TraineeID      primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
