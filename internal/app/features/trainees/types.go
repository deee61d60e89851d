// internal/app/features/trainees/types.go
package trainees

import (
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/system/fetch"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

type institutionOption struct {
	ID   string
	Name string
}

type listData struct {
	viewdata.BaseVM

	Q           string
	Status      string
	Institution string

	Statuses     []string
	Institutions []institutionOption

	Rows      []assignedtrainees.Row
	Dropped   []assignedtrainees.Dropped
	Truncated bool

	// Incomplete means a user or institution fetch failed; affected rows
	// show blanks.
	Incomplete bool
	// NoProfile is set for a supervisor without a supervisor row.
	NoProfile bool
}

type supervisorLine struct {
	Name      string
	IsPrimary bool
}

type viewData struct {
	viewdata.BaseVM

	Trainee     models.Trainee
	User        *models.User
	Institution *models.Institution
	// Missing names the join target that no longer exists, if any.
	Missing string

	Supervisors fetch.Result[supervisorLine]
	Reports     fetch.Result[models.Report]
	Tasks       fetch.Result[models.Task]
	Evaluations fetch.Result[models.Evaluation]
	Attendance  fetch.Result[models.Attendance]

	CanEdit bool
}

// Incomplete reports whether any section of the view failed to load.
func (d viewData) Incomplete() bool {
	return !d.Supervisors.Ok() || !d.Reports.Ok() || !d.Tasks.Ok() || !d.Evaluations.Ok() || !d.Attendance.Ok()
}

// formData backs both the new and edit forms.
type formData struct {
	formutil.Base

	ID     string // empty for new
	Name   string // read-only on edit
	Email  string
	Status string

	InstitutionID string
	University    string
	Major         string
	AcademicYear  string
	StudentNumber string
	Phone         string
	StartDate     string
	EndDate       string

	Statuses     []string
	Institutions []institutionOption
}

func (d formData) IsEdit() bool { return d.ID != "" }
