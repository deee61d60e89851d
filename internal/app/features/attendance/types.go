// internal/app/features/attendance/types.go
package attendance

import (
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

var approvalStates = []string{
	string(models.ApprovalPending),
	string(models.ApprovalApproved),
	string(models.ApprovalRejected),
}

type listRow struct {
	models.Attendance
	TraineeName string
}

type listData struct {
	viewdata.BaseVM

	Trainee string
	State   string
	Month   string

	States   []string
	Trainees []traineeoptions.Option

	Rows      []listRow
	Rate      float64
	Truncated bool
	NoProfile bool
	CanRecord bool
}

type viewData struct {
	viewdata.BaseVM

	Record      models.Attendance
	TraineeName string
	Reviewer    string
	CanDecide   bool
	CanAmend    bool
	Error       string
}

type formData struct {
	formutil.Base

	ID       string
	Date     string
	Status   string
	CheckIn  string
	CheckOut string
	Notes    string

	Statuses []string
	IsAmend  bool
}
