// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/traineehub/internal/app/store/accounts"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	"github.com/dalemusser/traineehub/internal/app/store/queries/profiles"
	"github.com/dalemusser/traineehub/internal/app/system/authz"
	"github.com/dalemusser/traineehub/internal/app/system/inputval"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type profileData struct {
	viewdata.BaseVM

	FullName    string
	Email       string
	AuthMethod  string
	Institution string
	Placeholder bool

	// NoProfile is set for a supervisor or trainee whose detail record is missing.
	NoProfile bool

	ShowPasswordSection bool
	MinPasswordLength   int

	Error   string
	Success string
}

type nameInput struct {
	FullName string `validate:"required,max=200" label:"Name"`
}

var successMessages = map[string]string{
	"name":     "Name saved.",
	"password": "Password changed.",
}

// load fills the page for uid. A missing credential or profile is shown as
// such, never as an error.
func (h *Handler) load(ctx context.Context, r *http.Request, uid primitive.ObjectID) (profileData, error) {
	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return profileData{}, err
	}
	data := profileData{
		BaseVM:            viewdata.NewBaseVM(r, "My account", "/dashboard"),
		FullName:          user.FullName,
		Email:             user.Email,
		Placeholder:       user.Placeholder,
		MinPasswordLength: accounts.MinPasswordLength,
	}

	cred, err := h.Credentials.GetByUserID(ctx, uid)
	switch {
	case err == nil:
		data.AuthMethod = authMethodLabel(cred.AuthMethod)
		data.ShowPasswordSection = cred.AuthMethod == models.AuthPassword
	case errors.Is(err, mongo.ErrNoDocuments):
		data.AuthMethod = "None"
	default:
		h.Log.Warn("load credential for profile failed", zap.Error(err))
	}

	prof, err := h.Profiles.Resolve(ctx, uid, user.Role)
	switch {
	case errors.Is(err, profiles.ErrUnknownRole):
	case err != nil:
		h.Log.Warn("resolve profile failed", zap.Error(err))
	case !prof.Found:
		data.NoProfile = true
	case prof.Institution != nil:
		data.Institution = prof.Institution.DisplayName("en")
	}
	return data, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, uid primitive.ObjectID, errMsg string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	data, err := h.load(ctx, r, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "profile user not found", err, "Your account no longer exists.", "/")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "Unable to load your account.", "/dashboard")
		return
	}
	data.Error = errMsg
	if errMsg == "" {
		data.Success = successMessages[r.URL.Query().Get("success")]
	}
	templates.Render(w, r, "profile", data)
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid := authz.ActorID(r)
	h.render(w, r, uid, "")
}

// HandleUpdateName handles POST /profile/name. The email is kept as is;
// saving also clears the placeholder flag left by the repair tools.
func (h *Handler) HandleUpdateName(w http.ResponseWriter, r *http.Request) {
	uid := authz.ActorID(r)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}
	in := nameInput{FullName: strings.TrimSpace(r.FormValue("full_name"))}
	if result := inputval.Validate(in); result.HasErrors() {
		h.render(w, r, uid, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Unable to save your name.", "/profile")
		return
	}
	if err := h.Users.UpdateProfile(ctx, uid, in.FullName, user.Email); err != nil {
		h.ErrLog.LogServerError(w, r, "update name failed", err, "Unable to save your name.", "/profile")
		return
	}
	http.Redirect(w, r, "/profile?success=name", http.StatusSeeOther)
}

// HandleChangePassword handles POST /profile/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	uid := authz.ActorID(r)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cred, err := h.Credentials.GetByUserID(ctx, uid)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogServerError(w, r, "load credential failed", err, "Unable to change your password.", "/profile")
		return
	}
	if err != nil || cred.AuthMethod != models.AuthPassword {
		h.render(w, r, uid, "Your account signs in with Google, so it has no password to change.")
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if msg := checkNewPassword(cred, current, next, r.FormValue("confirm_password")); msg != "" {
		h.render(w, r, uid, msg)
		return
	}

	if err := h.Credentials.SetPassword(ctx, uid, next); err != nil {
		h.ErrLog.LogServerError(w, r, "set password failed", err, "Unable to change your password.", "/profile")
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, uid)
	http.Redirect(w, r, "/profile?success=password", http.StatusSeeOther)
}

// checkNewPassword returns a user-facing message, or "" when the change
// may proceed.
func checkNewPassword(cred *models.Credential, current, next, confirm string) string {
	if credentialstore.Verify(cred, current) != nil {
		return "Current password is incorrect."
	}
	if len(next) < accounts.MinPasswordLength {
		return "New password must be at least 8 characters."
	}
	if next != confirm {
		return "New passwords do not match."
	}
	if next == current {
		return "New password must differ from the current one."
	}
	return ""
}

func authMethodLabel(method string) string {
	for _, m := range models.AllAuthMethods {
		if m.Value == method {
			return m.Label
		}
	}
	return method
}
