package models

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReject_RequiresReason(t *testing.T) {
	by := primitive.NewObjectID()
	if _, err := Reject(by, time.Now(), "   "); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("err = %v, want ErrRejectionReasonRequired", err)
	}
	a, err := Reject(by, time.Now(), "  late  ")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if a.State != ApprovalRejected || a.RejectionReason != "late" || *a.ReviewedBy != by {
		t.Errorf("approval = %+v", a)
	}
}

func TestApproval_Validate(t *testing.T) {
	tests := []struct {
		name string
		a    Approval
		want error
	}{
		{"pending", PendingApproval(), nil},
		{"approved", Approve(primitive.NewObjectID(), time.Now()), nil},
		{"rejected with reason", Approval{State: ApprovalRejected, RejectionReason: "no"}, nil},
		{"rejected without reason", Approval{State: ApprovalRejected}, ErrRejectionReasonRequired},
		{"approved with reason", Approval{State: ApprovalApproved, RejectionReason: "x"}, ErrReasonWithoutRejection},
		{"pending with reason", Approval{State: ApprovalPending, RejectionReason: "x"}, ErrReasonWithoutRejection},
		{"unknown", Approval{State: "maybe"}, ErrUnknownApprovalState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.a.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApprovalFromLegacy(t *testing.T) {
	reason := "wrong date"
	blank := "  "
	tests := []struct {
		name     string
		approved bool
		reason   *string
		want     ApprovalState
	}{
		{"approved", true, nil, ApprovalApproved},
		{"approved wins over stray reason", true, &reason, ApprovalApproved},
		{"reason means rejected", false, &reason, ApprovalRejected},
		{"blank reason is pending", false, &blank, ApprovalPending},
		{"nothing is pending", false, nil, ApprovalPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApprovalFromLegacy(tt.approved, tt.reason)
			if got.State != tt.want {
				t.Errorf("state = %q, want %q", got.State, tt.want)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("converted value should validate: %v", err)
			}
		})
	}
}
