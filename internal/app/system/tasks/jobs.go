// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/traineehub/internal/app/store/queries/integrity"
	"go.uber.org/zap"
)

// StateCleaner removes expired OAuth state tokens.
type StateCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Scanner runs the integrity detections.
type Scanner interface {
	Scan(ctx context.Context) (integrity.Report, error)
}

// OAuthStateCleanupJob removes expired OAuth state tokens. The TTL index
// does the same, but its sweep can lag by a minute or more.
func OAuthStateCleanupJob(states StateCleaner, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: time.Hour,
		Timeout:  30 * time.Second,
		Run: func(ctx context.Context) error {
			count, err := states.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// IntegrityScanJob runs the repair detections on interval and warns when
// anything needs an admin. It never repairs on its own. A zero interval
// disables the job.
func IntegrityScanJob(scanner Scanner, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:       "integrity-scan",
		Interval:   interval,
		Timeout:    2 * time.Minute,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			rep, err := scanner.Scan(ctx)
			if err != nil {
				return err
			}
			if rep.Clean() {
				logger.Debug("integrity scan clean")
				return nil
			}
			logger.Warn("integrity violations found, see /repair",
				zap.Int("orphaned_trainees", len(rep.Orphaned)),
				zap.Int("unprovisioned_trainees", len(rep.Unprovisioned)))
			return nil
		},
	}
}
