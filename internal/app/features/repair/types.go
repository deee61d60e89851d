// internal/app/features/repair/types.go
package repair

import (
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
)

type institutionOption struct {
	ID   string
	Name string
}

type orphanRow struct {
	Trainee        models.Trainee
	Institution    string
	AuthUserExists bool
	Assignments    int64
	Error          string
}

// provisionForm holds the sticky values of one "create trainee record" row.
type provisionForm struct {
	InstitutionID string
	StartDate     string
	University    string
	Major         string
	StudentNumber string
}

type unprovisionedRow struct {
	User  models.User
	Form  provisionForm
	Error string
}

type pageData struct {
	viewdata.BaseVM

	Orphans       []orphanRow
	Unprovisioned []unprovisionedRow
	Institutions  []institutionOption

	Clean  bool
	Notice string
}
