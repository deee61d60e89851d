// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a principal
//   - LoginID / loginID / login_id: The human-readable string users type to sign in
//
// A credential's _id equals the principal's UserID.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/traineehub/internal/app/features/errors"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/app/system/ratelimit"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgBadCredentials = "Incorrect email or password."
	msgNoPrincipal    = "Your account is not set up yet. Please contact an administrator."
	msgDisabled       = "Your account has been disabled."
	msgGoogleOnly     = "This account signs in with Google."
)

// callbackErrors maps the ?error= codes set by the Google callback to form messages.
var callbackErrors = map[string]string{
	"google_not_configured": "Google sign-in is not available.",
	"google_denied":         "Google sign-in was cancelled.",
	"invalid_state":         "Your sign-in link expired. Please try again.",
	"invalid_code":          "Google sign-in failed. Please try again.",
	"user_info":             "Google sign-in failed. Please try again.",
	"unverified_email":      "Your Google email address is not verified.",
	"no_account":            "No account is registered for that Google address.",
	"use_password":          "This account signs in with a password.",
	"account_disabled":      msgDisabled,
	"session":               "Unable to create session. Please try again.",
	"internal":              "Unable to sign in right now.",
}

type Handler struct {
	DB            *mongo.Database
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	AuditLog      *auditlog.Logger
	Limiter       *ratelimit.LoginLimiter
	GoogleEnabled bool
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	LoginID       string
	ReturnURL     string
	GoogleEnabled bool
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		DB:            db,
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		AuditLog:      audit,
		Limiter:       ratelimit.NewLoginLimiter(),
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, auth.HomeFor(u.Role), http.StatusSeeOther)
		return
	}
	h.render(w, r, callbackErrors[query.Get(r, "error")], "", query.Get(r, "return"))
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}
	loginID := strings.TrimSpace(r.FormValue("login_id"))
	password := r.FormValue("password")
	ret := r.FormValue("return")

	if loginID == "" || password == "" {
		h.render(w, r, "Please enter your email and password.", loginID, ret)
		return
	}
	if ok, reason := h.Limiter.Check(r, loginID); !ok {
		h.Log.Warn("login rate limited", zap.String("login_id", loginID), zap.String("ip", ratelimit.ClientIP(r)))
		h.render(w, r, reason, loginID, ret)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cred, err := credentialstore.New(h.DB).GetByLoginID(ctx, loginID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, loginID)
		h.render(w, r, msgBadCredentials, loginID, ret)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "credential lookup failed", err, "Unable to sign in right now.", "/login")
		return
	}

	switch err := credentialstore.Verify(cred, password); {
	case errors.Is(err, credentialstore.ErrNoPassword):
		h.render(w, r, msgGoogleOnly, loginID, ret)
		return
	case err != nil:
		h.AuditLog.LoginFailedWrongPassword(ctx, r, cred.ID, loginID)
		h.render(w, r, msgBadCredentials, loginID, ret)
		return
	}

	u, err := userstore.New(h.DB).GetByID(ctx, cred.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Credential without a principal: an admin can materialize one from /repair.
		h.Log.Warn("login for credential without principal", zap.String("user_id", cred.ID.Hex()))
		h.render(w, r, msgNoPrincipal, loginID, ret)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "user lookup failed", err, "Unable to sign in right now.", "/login")
		return
	}
	if strings.EqualFold(u.Status, "disabled") {
		h.render(w, r, msgDisabled, loginID, ret)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("login_id", loginID))
		h.render(w, r, "Unable to create session. Please try again.", loginID, ret)
		return
	}
	h.Limiter.ResetLogin(loginID)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, cred.AuthMethod, loginID)

	dest := urlutil.SafeReturn(ret, "", auth.HomeFor(u.Role))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, msg, loginID, ret string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         msg,
		LoginID:       loginID,
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	})
}
