// internal/app/features/attendance/view.go
package attendance

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

func (h *Handler) viewFor(ctx context.Context, r *http.Request, a models.Attendance) viewData {
	data := viewData{
		BaseVM:   viewdata.NewBaseVM(r, "Attendance", "/attendance"),
		Record:   a,
		CanAmend: authz.IsTrainee(r) && a.Approval.IsPending(),
	}
	if !authz.IsTrainee(r) && a.Approval.IsPending() {
		ok, err := h.Policy.CanReview(r.WithContext(ctx), a.TraineeID)
		data.CanDecide = ok && err == nil
	}
	opts, _ := traineeoptions.Load(ctx, h.DB, []primitive.ObjectID{a.TraineeID})
	data.TraineeName = traineeoptions.NameMap(opts).Of(a.TraineeID)
	if a.Approval.ReviewedBy != nil {
		if u, err := userstore.New(h.DB).GetByID(ctx, *a.Approval.ReviewedBy); err == nil {
			data.Reviewer = u.FullName
		}
	}
	return data
}

func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.loadInScope(ctx, w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "attendance_view", h.viewFor(ctx, r, a))
}
