// internal/app/features/evaluations/types.go
package evaluations

import (
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

type listRow struct {
	models.Evaluation
	TraineeName string
}

type listData struct {
	viewdata.BaseVM

	Status  string
	Trainee string

	Statuses []string
	Trainees []traineeoptions.Option

	Rows      []listRow
	Average   float64
	Truncated bool
	NoProfile bool
	CanCreate bool
}

type viewData struct {
	viewdata.BaseVM

	Evaluation  models.Evaluation
	TraineeName string
	Supervisor  string
	DecidedBy   string
	CanDecide   bool
}

type formData struct {
	formutil.Base

	TraineeID     string
	Period        string
	Technical     string
	Communication string
	Teamwork      string
	Punctuality   string
	Initiative    string
	Overall       string
	Comments      string
	EvaluatedOn   string

	Trainees []traineeoptions.Option
}
