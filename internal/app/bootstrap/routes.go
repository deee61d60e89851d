// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"
	"net/url"
	"time"

	announcementsfeature "github.com/dalemusser/traineehub/internal/app/features/announcements"
	attendancefeature "github.com/dalemusser/traineehub/internal/app/features/attendance"
	auditlogfeature "github.com/dalemusser/traineehub/internal/app/features/auditlog"
	authgooglefeature "github.com/dalemusser/traineehub/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/traineehub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/traineehub/internal/app/features/errors"
	evaluationsfeature "github.com/dalemusser/traineehub/internal/app/features/evaluations"
	exportfeature "github.com/dalemusser/traineehub/internal/app/features/export"
	healthfeature "github.com/dalemusser/traineehub/internal/app/features/health"
	homefeature "github.com/dalemusser/traineehub/internal/app/features/home"
	institutionsfeature "github.com/dalemusser/traineehub/internal/app/features/institutions"
	loginfeature "github.com/dalemusser/traineehub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/traineehub/internal/app/features/logout"
	profilefeature "github.com/dalemusser/traineehub/internal/app/features/profile"
	repairfeature "github.com/dalemusser/traineehub/internal/app/features/repair"
	reportsfeature "github.com/dalemusser/traineehub/internal/app/features/reports"
	supervisorsfeature "github.com/dalemusser/traineehub/internal/app/features/supervisors"
	tasksfeature "github.com/dalemusser/traineehub/internal/app/features/tasks"
	traineesfeature "github.com/dalemusser/traineehub/internal/app/features/trainees"
	"github.com/dalemusser/traineehub/internal/app/store/audit"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/auditlog"
	"github.com/dalemusser/traineehub/internal/app/system/auth"
	"github.com/dalemusser/traineehub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every handler receives its settings
// from appCfg here; none of them reads configuration on its own.
//
// TraineeHub boots the template engine, applies session and CSRF
// middleware, and mounts one router per feature area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser reloads the user on each request so role changes and
	// deletions take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	viewdata.SetBannerLoader(announcementsfeature.BannerLoader(db, logger))

	r := chi.NewRouter()

	r.Use(csrfProtect(appCfg, secure))
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLog, appCfg.GoogleEnabled(), logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	if appCfg.GoogleEnabled() {
		googleHandler := authgooglefeature.NewHandler(db, sessionMgr, auditLog, appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
	}

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	// Role homes
	revalidate := time.Duration(appCfg.DashboardRevalidate) * time.Second
	dashboardHandler := dashboardfeature.NewHandler(db, errLog, revalidate, logger)
	dashboardfeature.Mount(r, dashboardHandler, sessionMgr)

	// People and organizations
	institutionsHandler := institutionsfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/institutions", institutionsfeature.Routes(institutionsHandler, sessionMgr))

	traineesHandler := traineesfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/trainees", traineesfeature.Routes(traineesHandler, sessionMgr))

	supervisorsHandler := supervisorsfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/supervisors", supervisorsfeature.Routes(supervisorsHandler, sessionMgr))

	// Training records
	reportsHandler := reportsfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

	tasksHandler := tasksfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	evaluationsHandler := evaluationsfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/evaluations", evaluationsfeature.Routes(evaluationsHandler, sessionMgr))

	attendanceHandler := attendancefeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/attendance", attendancefeature.Routes(attendanceHandler, sessionMgr))

	announcementsHandler := announcementsfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/announcements", announcementsfeature.Routes(announcementsHandler, sessionMgr))

	// Admin tools and downloads
	repairHandler := repairfeature.NewHandler(db, errLog, auditLog, logger)
	r.Mount("/repair", repairfeature.Routes(repairHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	exportHandler := exportfeature.NewHandler(db, errLog, logger)
	r.Mount("/export", exportfeature.Routes(exportHandler, sessionMgr))

	return r, nil
}

// csrfProtect guards every unsafe method with gorilla/csrf. The token key
// is derived from the session key. Outside prod the app is served over plain
// http, so requests are marked plaintext for the origin check.
func csrfProtect(appCfg AppConfig, secure bool) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			errorsfeature.RenderForbidden(w, r, "Your form expired. Go back, reload the page and try again.", "")
		})),
	}
	if u, err := url.Parse(appCfg.BaseURL); err == nil && u.Host != "" {
		opts = append(opts, csrf.TrustedOrigins([]string{u.Host}))
	}
	key := sha256.Sum256([]byte("csrf:" + appCfg.SessionKey))
	protect := csrf.Protect(key[:], opts...)

	return func(next http.Handler) http.Handler {
		guarded := protect(next)
		if secure {
			return guarded
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guarded.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
