// internal/app/features/announcements/visibility.go
package announcements

import (
	"context"
	"net/http"

	announcementstore "github.com/dalemusser/traineehub/internal/app/store/announcements"
	traineestore "github.com/dalemusser/traineehub/internal/app/store/trainees"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxBanners caps the pinned notices shown above page content.
const maxBanners = 3

// visible returns the announcements the caller may read. Admins see every
// announcement including inactive ones; trainees see active general ones
// plus those targeted at them; supervisors see active general ones.
func (h *Handler) visible(ctx context.Context, r *http.Request) ([]models.Announcement, error) {
	if authz.IsAdmin(r) {
		return h.Store.ListAll(ctx)
	}
	if authz.IsTrainee(r) {
		scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if tid := scope.TraineeID(); !tid.IsZero() {
			return h.Store.ListForTrainee(ctx, tid, 0)
		}
	}
	return h.Store.ListGeneral(ctx, 0)
}

// canSee reports whether the caller may open a. A supervisor may open a
// targeted announcement when one of its trainees is a recipient.
func (h *Handler) canSee(ctx context.Context, r *http.Request, a models.Announcement) (bool, error) {
	if authz.IsAdmin(r) {
		return true, nil
	}
	if !a.Active {
		return false, nil
	}
	if !a.Targeted {
		return true, nil
	}
	scope, err := h.Policy.ScopeFor(r.WithContext(ctx))
	if err != nil {
		return false, err
	}
	recipients, err := h.Store.Recipients(ctx, a.ID)
	if err != nil {
		return false, err
	}
	for _, id := range recipients {
		if scope.Allows(id) {
			return true, nil
		}
	}
	return false, nil
}

// BannerLoader returns a viewdata.BannerLoader that shows the pinned
// announcements visible to the signed-in principal. Lookup failures are
// logged and render no banners.
func BannerLoader(db *mongo.Database, logger *zap.Logger) viewdata.BannerLoader {
	store := announcementstore.New(db)
	trainees := traineestore.New(db)
	return func(ctx context.Context, role string, userID primitive.ObjectID) []viewdata.BannerVM {
		ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
		defer cancel()

		var (
			list []models.Announcement
			err  error
		)
		if role == models.RoleTrainee {
			var tr models.Trainee
			tr, err = trainees.GetByUserID(ctx, userID)
			switch {
			case err == nil:
				list, err = store.ListForTrainee(ctx, tr.ID, 0)
			case err == mongo.ErrNoDocuments:
				list, err = store.ListGeneral(ctx, 0)
			}
		} else {
			list, err = store.ListGeneral(ctx, 0)
		}
		if err != nil {
			logger.Warn("load banners failed", zap.String("role", role), zap.Error(err))
			return nil
		}

		var out []viewdata.BannerVM
		for _, a := range list {
			if !a.Pinned {
				continue
			}
			out = append(out, viewdata.BannerVM{ID: a.ID.Hex(), Title: a.Title, Type: a.Type})
			if len(out) == maxBanners {
				break
			}
		}
		return out
	}
}
