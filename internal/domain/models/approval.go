// internal/domain/models/approval.go
package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalState is the review state of an attendance record.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

var (
	ErrRejectionReasonRequired = errors.New("a rejection reason is required")
	ErrReasonWithoutRejection  = errors.New("a rejection reason is only allowed on rejected records")
	ErrUnknownApprovalState    = errors.New("unknown approval state")
)

// Approval is a tagged review state. RejectionReason is meaningful only when
// State is ApprovalRejected; the constructors below are the only way to
// build a value that passes Validate.
type Approval struct {
	State           ApprovalState       `bson:"state" json:"state"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
}

// PendingApproval returns the initial state of every new record.
func PendingApproval() Approval {
	return Approval{State: ApprovalPending}
}

// Approve returns an approved state reviewed by the given principal.
func Approve(by primitive.ObjectID, at time.Time) Approval {
	at = at.UTC()
	return Approval{State: ApprovalApproved, ReviewedBy: &by, ReviewedAt: &at}
}

// Reject returns a rejected state. The reason must be non-blank.
func Reject(by primitive.ObjectID, at time.Time, reason string) (Approval, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Approval{}, ErrRejectionReasonRequired
	}
	at = at.UTC()
	return Approval{State: ApprovalRejected, RejectionReason: reason, ReviewedBy: &by, ReviewedAt: &at}, nil
}

// Validate rejects combinations the two-field encoding used to allow.
func (a Approval) Validate() error {
	switch a.State {
	case ApprovalPending, ApprovalApproved:
		if a.RejectionReason != "" {
			return ErrReasonWithoutRejection
		}
	case ApprovalRejected:
		if strings.TrimSpace(a.RejectionReason) == "" {
			return ErrRejectionReasonRequired
		}
	default:
		return ErrUnknownApprovalState
	}
	return nil
}

// IsPending reports whether the record still awaits review.
func (a Approval) IsPending() bool { return a.State == ApprovalPending || a.State == "" }

// ApprovalFromLegacy converts the old approved/rejection_reason pair.
// approved=true wins over a stray reason (the invalid fourth combination),
// a non-blank reason means rejected, anything else is pending.
func ApprovalFromLegacy(approved bool, rejectionReason *string) Approval {
	if approved {
		return Approval{State: ApprovalApproved}
	}
	if rejectionReason != nil && strings.TrimSpace(*rejectionReason) != "" {
		return Approval{State: ApprovalRejected, RejectionReason: strings.TrimSpace(*rejectionReason)}
	}
	return PendingApproval()
}
