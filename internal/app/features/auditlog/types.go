// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/audit"
	"github.com/dalemusser/traineehub/internal/app/system/paging"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
)

// listItem is one audit event with its principals resolved to names.
type listItem struct {
	ID            string
	Timestamp     time.Time
	Category      string
	EventType     string
	ActorName     string
	SubjectName   string
	IP            string
	Success       bool
	FailureReason string
	Details       map[string]string
}

type listData struct {
	viewdata.BaseVM

	Items []listItem

	// Filters
	Category  string
	EventType string
	StartDate string
	EndDate   string
	Failures  bool

	Categories []categoryOption
	EventTypes []string

	paging.Pages
}

type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Sign-in"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
		{Value: audit.CategoryReview, Label: "Reviews"},
		{Value: audit.CategoryRepair, Label: "Repairs"},
	}
}

var eventsByCategory = map[string][]string{
	audit.CategoryAuth: {
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLogout,
		audit.EventPasswordChanged,
	},
	audit.CategoryAdmin: {
		audit.EventInstitutionCreated,
		audit.EventInstitutionUpdated,
		audit.EventInstitutionDeleted,
		audit.EventTraineeCreated,
		audit.EventTraineeUpdated,
		audit.EventSupervisorCreated,
		audit.EventSupervisorUpdated,
		audit.EventTraineeAssigned,
		audit.EventTraineeUnassigned,
		audit.EventPrimaryChanged,
		audit.EventAnnouncementCreated,
		audit.EventAnnouncementUpdated,
		audit.EventAnnouncementDeleted,
		audit.EventTaskCreated,
		audit.EventTaskStatusChanged,
		audit.EventTaskDeleted,
		audit.EventEvaluationCreated,
		audit.EventReportSubmitted,
		audit.EventReportResubmitted,
		audit.EventAttendanceRecorded,
		audit.EventAttendanceAmended,
	},
	audit.CategoryReview: {
		audit.EventReportReviewed,
		audit.EventEvaluationDecided,
		audit.EventAttendanceDecided,
	},
	audit.CategoryRepair: {
		audit.EventRepairMaterialize,
		audit.EventRepairDelete,
		audit.EventRepairProvision,
	},
}

// eventTypesForCategory returns the event types of category, or every
// type when category is empty.
func eventTypesForCategory(category string) []string {
	if category != "" {
		return eventsByCategory[category]
	}
	var all []string
	for _, c := range allCategories() {
		all = append(all, eventsByCategory[c.Value]...)
	}
	return all
}

func isKnownCategory(category string) bool {
	_, ok := eventsByCategory[category]
	return ok
}
