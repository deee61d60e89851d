// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// It is built once in LoadConfig and passed to every lifecycle hook.
// Handlers receive the values they need from BuildHandler; nothing below
// bootstrap reads the environment directly.
//
// WAFFLE's CoreConfig covers the framework side (ports, TLS, log level,
// CORS, body limits). Everything specific to TraineeHub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (32+ chars)
	SessionName   string        // Cookie name (default: traineehub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Google sign-in; both blank disables /auth/google
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL builds absolute callback URLs (e.g., "http://localhost:3000")
	BaseURL string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Datastore deadlines, see system/timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutBatch  time.Duration

	// Seconds browsers may reuse a dashboard before revalidating
	DashboardRevalidate int

	// How often the background integrity scan runs; zero disables it
	IntegrityScanInterval time.Duration

	// First admin, created on startup when SeedAdminEmail is set
	SeedAdminEmail    string
	SeedAdminPassword string
	SeedAdminName     string
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
