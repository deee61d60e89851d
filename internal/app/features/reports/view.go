// internal/app/features/reports/view.go
package reports

import (
	"context"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/store/queries/traineeoptions"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rep, _, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	data := h.viewFor(ctx, r, rep)
	templates.Render(w, r, "report_view", data)
}

// viewFor builds the report page. Name lookups that fail leave the name
// as "Unknown".
func (h *Handler) viewFor(ctx context.Context, r *http.Request, rep models.Report) viewData {
	data := viewData{
		BaseVM:         viewdata.NewBaseVM(r, rep.Title, "/reports"),
		Report:         rep,
		CanReview:      !authz.IsTrainee(r),
		CanEdit:        authz.IsTrainee(r) && editable(rep),
		ReviewStatuses: models.ReportReviewStatuses,
	}
	opts, _ := traineeoptions.Load(ctx, h.DB, []primitive.ObjectID{rep.TraineeID})
	data.TraineeName = traineeoptions.NameMap(opts).Of(rep.TraineeID)
	if rep.ReviewedBy != nil {
		if u, err := userstore.New(h.DB).GetByID(ctx, *rep.ReviewedBy); err == nil {
			data.Reviewer = u.FullName
		} else {
			data.Reviewer = "Unknown"
		}
	}
	return data
}
