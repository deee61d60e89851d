// internal/app/features/reports/types.go
package reports

import (
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

type listRow struct {
	models.Report
	TraineeName string
}

type listData struct {
	viewdata.BaseVM

	Status  string
	Type    string
	Trainee string

	Statuses []string
	Types    []string
	Trainees []traineeoptions.Option

	Rows      []listRow
	Truncated bool
	NoProfile bool
	CanSubmit bool
}

type viewData struct {
	viewdata.BaseVM

	Report      models.Report
	TraineeName string
	Reviewer    string

	CanReview      bool
	CanEdit        bool
	ReviewStatuses []string
	Comment        string
	Error          string
}

type formData struct {
	formutil.Base

	ID          string
	Type        string
	ReportTitle string
	Content     string
	Types       []string
}

func (d formData) IsEdit() bool { return d.ID != "" }

// editable reports whether a trainee may still change the report.
func editable(r models.Report) bool {
	return r.Status == models.ReportPending || r.Status == models.ReportRevisionRequired
}
