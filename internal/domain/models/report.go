// internal/domain/models/report.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReportDaily   = "daily"
	ReportWeekly  = "weekly"
	ReportMonthly = "monthly"
)

// ReportTypes lists valid report types.
var ReportTypes = []string{ReportDaily, ReportWeekly, ReportMonthly}

const (
	ReportPending          = "pending"
	ReportApproved         = "approved"
	ReportRejected         = "rejected"
	ReportRevisionRequired = "revision_required"
)

// ReportReviewStatuses are the statuses a reviewer may set.
var ReportReviewStatuses = []string{ReportApproved, ReportRejected, ReportRevisionRequired}

// IsValidReportType reports whether t is one of ReportTypes.
func IsValidReportType(t string) bool {
	for _, v := range ReportTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsReviewStatus reports whether s is one of ReportReviewStatuses.
func IsReviewStatus(s string) bool {
	for _, v := range ReportReviewStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Report is a trainee's periodic progress report.
type Report struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	TraineeID primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Status    string             `bson:"status" json:"status"`

	ReviewedBy    *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewComment string              `bson:"review_comment,omitempty" json:"review_comment,omitempty"`

	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
