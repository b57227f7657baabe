package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/relaybot/internal/quarantine"
)

// newQuarantineCleanupTask creates the scheduled task that deletes quarantined
// files older than the configured retention. Infected files are removed too.
func newQuarantineCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "quarantine_cleanup")
	qcfg := deps.Config.Quarantine

	return func(ctx context.Context) error {
		if qcfg.Retention <= 0 {
			log.InfoContext(ctx, "Quarantine retention not set, keeping all files")
			return nil
		}

		startTime := time.Now()
		removed, err := quarantine.Sweep(qcfg.Dir, qcfg.Retention, deps.now())
		if err != nil {
			log.ErrorContext(ctx, "Quarantine cleanup finished with errors", "error", err, "removed", removed)
			return fmt.Errorf("quarantine cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "Quarantine cleanup completed", "removed", removed, "retention", qcfg.Retention, "duration", time.Since(startTime))
		return nil
	}
}
