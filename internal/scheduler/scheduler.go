// Package scheduler provides the timer service that re-invokes the presence
// handlers later by name. Schedules are identified by a caller-chosen id and
// carry an opaque payload string that is handed back to the callback.
package scheduler

import "context"

// Callback receives schedule invocations.
type Callback interface {
	OnSchedule(ctx context.Context, scheduleID, payload string, isRecurring bool)
}

// Scheduler schedules one-shot and cron-recurring callbacks.
type Scheduler interface {
	// ScheduleOneTime registers a one-shot callback after delay. The
	// returned id equals scheduleID when one is given.
	ScheduleOneTime(ctx context.Context, delaySeconds int32, payload, scheduleID string) (string, error)

	// ScheduleRecurring registers a recurring callback driven by a cron
	// expression (e.g. "@every 41s").
	ScheduleRecurring(ctx context.Context, cronExpr, payload, scheduleID string) (string, error)

	// Cancel removes a schedule by id. Cancelling an unknown id returns
	// an error the caller may tolerate.
	Cancel(ctx context.Context, scheduleID string) error
}
