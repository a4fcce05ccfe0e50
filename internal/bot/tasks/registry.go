// Package tasks defines the scheduled maintenance tasks run by the bot's
// scheduler.
package tasks

import (
	"context"
	"log/slog"

	"github.com/piumal/stingraybot/internal/dedup"
	"github.com/piumal/stingraybot/internal/session"
)

// ScheduledTaskFunc is the standard signature for all scheduled tasks. The
// context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps bundles the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  session.Store
	Gate   *dedup.Gate
}

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks. The keys match the task names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	taskMap := map[string]ScheduledTaskFunc{
		"store_ping": newStorePingTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(taskMap))
	return taskMap
}
