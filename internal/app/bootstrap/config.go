// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSessionKeyLen is the shortest session key accepted outside dev.
const minSessionKeyLen = 32

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for TraineeHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TRAINEEHUB_MONGO_URI, TRAINEEHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "traineehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "traineehub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "12h", Desc: "Session cookie lifetime (e.g., 12h, 30m)"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL used for OAuth callbacks"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin, review and repair event logging: 'all', 'db', 'log', or 'off'"},

	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list pages and dashboard sections"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for repair actions"},
	{Name: "timeout_batch", Default: "60s", Desc: "Deadline for spreadsheet exports"},

	{Name: "dashboard_revalidate", Default: 30, Desc: "Seconds a browser may reuse a dashboard before revalidating (0 disables caching)"},
	{Name: "integrity_scan_interval", Default: "6h", Desc: "How often to scan for orphaned or unprovisioned trainees (0 disables)"},

	{Name: "seed_admin_email", Default: "", Desc: "Email of the admin created on startup (blank disables seeding)"},
	{Name: "seed_admin_password", Default: "", Desc: "Password for the seeded admin"},
	{Name: "seed_admin_name", Default: "Administrator", Desc: "Display name for the seeded admin"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, TRAINEEHUB_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TRAINEEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 12*time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		BaseURL:            strings.TrimRight(appValues.String("base_url"), "/"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
		TimeoutBatch:  appValues.Duration("timeout_batch", 60*time.Second),

		DashboardRevalidate:   appValues.Int("dashboard_revalidate"),
		IntegrityScanInterval: appValues.Duration("integrity_scan_interval", 6*time.Hour),

		SeedAdminEmail:    strings.TrimSpace(appValues.String("seed_admin_email")),
		SeedAdminPassword: appValues.String("seed_admin_password"),
		SeedAdminName:     appValues.String("seed_admin_name"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before any connection attempt. Outside dev the
// built-in session key is refused and short keys are rejected.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

func validateApp(env string, appCfg AppConfig) error {
	var problems []string
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		problems = append(problems, "mongo_database is required")
	}
	if env != "dev" {
		if appCfg.SessionKey == devSessionKey {
			problems = append(problems, "session_key must be changed from the development default")
		}
		if len(appCfg.SessionKey) < minSessionKeyLen {
			problems = append(problems, fmt.Sprintf("session_key must be at least %d characters", minSessionKeyLen))
		}
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		problems = append(problems, "google_client_id and google_client_secret must be set together")
	}
	if appCfg.SeedAdminEmail != "" && !strings.Contains(appCfg.SeedAdminEmail, "@") {
		problems = append(problems, "seed_admin_email is not an email address")
	}
	if appCfg.DashboardRevalidate < 0 {
		problems = append(problems, "dashboard_revalidate cannot be negative")
	}
	if appCfg.IntegrityScanInterval < 0 {
		problems = append(problems, "integrity_scan_interval cannot be negative")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
