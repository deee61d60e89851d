// internal/app/features/supervisors/types.go
package supervisors

import (
	"github.com/dalemusser/traineehub/internal/app/store/queries/assignedtrainees"
	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type institutionOption struct {
	ID   string
	Name string
}

type listItem struct {
	ID          primitive.ObjectID
	Name        string
	Email       string
	Institution string
	Position    string
	Department  string
	Trainees    int64
}

type listData struct {
	viewdata.BaseVM

	Q    string
	Rows []listItem
	// Orphans are supervisor rows whose user no longer exists.
	Orphans    []models.Supervisor
	Incomplete bool
}

type viewData struct {
	viewdata.BaseVM

	Supervisor  models.Supervisor
	User        *models.User // nil when the principal is gone
	Institution string

	Assigned  assignedtrainees.Result
	Available []traineeoptions.Option
	// MultiPrimary lists assigned trainees with more than one primary supervisor.
	MultiPrimary map[primitive.ObjectID]bool
	Incomplete   bool
}

// HasMultiPrimary reports whether the trainee has several primary supervisors.
func (d viewData) HasMultiPrimary(id primitive.ObjectID) bool { return d.MultiPrimary[id] }

type formData struct {
	formutil.Base

	ID            string
	Name          string
	Email         string
	InstitutionID string
	Position      string
	Department    string
	Phone         string

	Institutions []institutionOption
}

func (d formData) IsEdit() bool { return d.ID != "" }
