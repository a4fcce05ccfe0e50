package tasks

import (
	"context"
	"fmt"
	"time"
)

const storePingTimeout = 10 * time.Second

// newStorePingTask returns a task that verifies the session backing store is
// reachable and reports dedup gate occupancy. These are the only stateful
// dependencies, so this gives operators a periodic health signal for both.
func newStorePingTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "store_ping")

	return func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		defer cancel()

		if err := deps.Store.Ping(pingCtx); err != nil {
			return fmt.Errorf("session store unreachable: %w", err)
		}

		log.InfoContext(ctx, "Session store healthy", "dedup_entries", deps.Gate.Len())
		return nil
	}
}
