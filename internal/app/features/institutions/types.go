// internal/app/features/institutions/types.go
package institutions

import (
	"github.com/dalemusser/traineehub/internal/app/system/formutil"
	"github.com/dalemusser/traineehub/internal/app/system/paging"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listItem struct {
	ID          primitive.ObjectID
	NameEN      string
	NameAR      string
	Email       string
	Phone       string
	Trainees    int64
	Supervisors int64
}

type listData struct {
	viewdata.BaseVM

	Q     string
	Items []listItem

	Shown int
	Total int64
	paging.Nav
}

// formData backs both the new and edit forms. ID is empty for new.
type formData struct {
	formutil.Base

	ID      string
	NameEN  string
	NameAR  string
	Email   string
	Phone   string
	Address string
	Website string
}

func (d formData) IsEdit() bool { return d.ID != "" }
