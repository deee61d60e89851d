// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"context"
	"net/http"

	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteName is shown in the header and page titles.
const SiteName = "TraineeHub"

// BannerVM is a pinned announcement shown above page content.
type BannerVM struct {
	ID    string
	Title string
	Type  string
}

// BaseVM contains the fields every page template uses.
// Embed it in feature view models:
//
//	data := listData{BaseVM: viewdata.NewBaseVM(r, "Tasks", "/dashboard")}
type BaseVM struct {
	SiteName string

	IsLoggedIn bool
	Role       string
	UserName   string
	UserID     string

	Title       string
	BackURL     string
	CurrentPath string

	CSRFToken string

	Banners []BannerVM
}

// BannerLoader returns the pinned announcements visible to a principal.
// Bootstrap sets it once the announcement store is available.
type BannerLoader func(ctx context.Context, role string, userID primitive.ObjectID) []BannerVM

var bannerLoader BannerLoader

// SetBannerLoader installs the loader. Call once at startup.
func SetBannerLoader(l BannerLoader) { bannerLoader = l }

// NewBaseVM builds the common page fields from the request.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, name, uid, signedIn := authz.UserCtx(r)
	vm := BaseVM{
		SiteName:    SiteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if signedIn {
		vm.UserID = uid.Hex()
		if bannerLoader != nil {
			vm.Banners = bannerLoader(r.Context(), role, uid)
		}
	}
	return vm
}
