// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// TaskPriorities lists valid priorities, lowest first.
var TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskSubmitted  = "submitted"
	TaskApproved   = "approved"
	TaskRejected   = "rejected"

	// Terminal statuses written by older clients. They never come from the
	// forms here but still stop a task from counting as overdue.
	TaskCompleted = "completed"
	TaskCancelled = "cancelled"
)

// OverdueExempt lists the statuses that stop a past-due task from counting
// as overdue. Approved is not among them.
var OverdueExempt = []string{TaskCompleted, TaskCancelled}

// TaskStatuses lists the statuses the forms accept.
var TaskStatuses = []string{TaskPending, TaskInProgress, TaskSubmitted, TaskApproved, TaskRejected}

// IsValidTaskPriority reports whether p is one of TaskPriorities.
func IsValidTaskPriority(p string) bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// IsValidTaskStatus reports whether s is one of TaskStatuses.
func IsValidTaskStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Task is work assigned to a trainee by a principal.
type Task struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	TraineeID   primitive.ObjectID `bson:"trainee_id" json:"trainee_id"`
	AssignedBy  primitive.ObjectID `bson:"assigned_by" json:"assigned_by"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Priority    string             `bson:"priority" json:"priority"`
	Status      string             `bson:"status" json:"status"`
	DueDate     *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the due date is before now and the status is
// not in OverdueExempt.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || !t.DueDate.Before(now) {
		return false
	}
	for _, s := range OverdueExempt {
		if t.Status == s {
			return false
		}
	}
	return true
}
