// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/traineehub/internal/app/resources"
	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	"github.com/dalemusser/traineehub/internal/app/store/oauthstate"
	"github.com/dalemusser/traineehub/internal/app/store/queries/integrity"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/app/system/tasks"
	"github.com/dalemusser/traineehub/internal/app/system/timeouts"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
		Batch:  appCfg.TimeoutBatch,
	})
	resources.LoadSharedTemplates()

	if appCfg.SeedAdminEmail != "" {
		if err := ensureSeedAdmin(ctx, deps.MongoDatabase, appCfg, logger); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	// The startup ctx ends with startup; jobs live until Shutdown.
	scheduler = tasks.NewScheduler(logger, backgroundJobs(deps.MongoDatabase, appCfg, logger)...)
	scheduler.Start(context.Background())
	return nil
}

// scheduler is stopped by Shutdown.
var scheduler *tasks.Scheduler

func backgroundJobs(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) []tasks.Job {
	jobs := []tasks.Job{tasks.OAuthStateCleanupJob(oauthstate.New(db), logger)}
	if appCfg.IntegrityScanInterval > 0 {
		// Detection only, so no transition recorder.
		scanner := integrity.NewFromDB(db, nil, logger)
		jobs = append(jobs, tasks.IntegrityScanJob(scanner, logger, appCfg.IntegrityScanInterval))
	}
	return jobs
}

// ensureSeedAdmin makes sure the configured admin exists with a
// credential. An existing user with that email is promoted to admin. A
// credential is only created when missing; an existing password is never
// overwritten.
func ensureSeedAdmin(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	users := userstore.New(db)
	creds := credentialstore.New(db)
	email := appCfg.SeedAdminEmail

	u, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		created, cerr := users.Create(ctx, models.User{
			FullName: appCfg.SeedAdminName,
			Email:    email,
			Role:     models.RoleAdmin,
		})
		if cerr != nil {
			return cerr
		}
		u = &created
		logger.Info("seed admin created", zap.String("email", email))
	case err != nil:
		return err
	case u.Role != models.RoleAdmin:
		if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Warn("seed admin promoted to admin",
			zap.String("email", email),
			zap.String("previous_role", u.Role))
	default:
		logger.Info("seed admin present", zap.String("email", email))
	}

	if _, err := creds.GetByUserID(ctx, u.ID); err == nil {
		return nil
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	method := models.AuthPassword
	if appCfg.SeedAdminPassword == "" {
		method = models.AuthGoogle
	}
	if _, err := creds.Create(ctx, u.ID, email, method, appCfg.SeedAdminPassword); err != nil {
		return err
	}
	logger.Info("seed admin credential created",
		zap.String("email", email),
		zap.String("auth_method", method))
	return nil
}
