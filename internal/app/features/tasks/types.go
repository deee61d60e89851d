// internal/app/features/tasks/types.go
package tasks

import (
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

type listRow struct {
	models.Task
	TraineeName string
	Overdue     bool
}

type listData struct {
	viewdata.BaseVM

	Status      string
	Priority    string
	Trainee     string
	OverdueOnly bool

	Statuses   []string
	Priorities []string
	Trainees   []traineeoptions.Option

	Rows      []listRow
	Truncated bool
	NoProfile bool
	CanAssign bool
}

type viewData struct {
	viewdata.BaseVM

	Task         models.Task
	TraineeName  string
	AssignedBy   string
	Overdue      bool
	NextStatuses []string
	CanDelete    bool
}

type formData struct {
	formutil.Base

	TraineeID   string
	TaskTitle   string
	Description string
	Priority    string
	DueDate     string

	Trainees   []traineeoptions.Option
	Priorities []string
}
