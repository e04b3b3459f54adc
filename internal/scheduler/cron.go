package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// timeAfterFunc is a variable for time.AfterFunc, allowing tests to override it.
var timeAfterFunc = time.AfterFunc

// entry stores metadata about a scheduled task.
type entry struct {
	payload     string
	isRecurring bool
	cronID      cron.EntryID // for recurring tasks
	timer       *time.Timer  // for one-shot tasks (nil for recurring)
}

// CronScheduler implements Scheduler on top of a cron runner for recurring
// tasks and plain timers for one-shot tasks.
type CronScheduler struct {
	logger   *zap.Logger
	cron     *cron.Cron
	callback Callback

	mu      sync.Mutex
	entries map[string]*entry
}

var _ Scheduler = (*CronScheduler)(nil)

// NewCronScheduler creates a new scheduler. The callback is registered
// afterwards with SetCallback, since the handlers it invokes are usually
// constructed later.
func NewCronScheduler(logger *zap.Logger) *CronScheduler {
	c := cron.New()
	c.Start()
	return &CronScheduler{
		logger:  logger.Named("scheduler"),
		cron:    c,
		entries: make(map[string]*entry),
	}
}

// SetCallback registers the callback invoked when schedules fire.
func (s *CronScheduler) SetCallback(cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = cb
}

// ScheduleOneTime implements Scheduler.ScheduleOneTime
func (s *CronScheduler) ScheduleOneTime(ctx context.Context, delaySeconds int32, payload, scheduleID string) (string, error) {
	if scheduleID == "" {
		scheduleID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[scheduleID]; exists {
		return "", fmt.Errorf("schedule id %q already exists", scheduleID)
	}

	capturedID := scheduleID
	timer := timeAfterFunc(time.Duration(delaySeconds)*time.Second, func() {
		s.fire(capturedID)
		// One-shot entries are removed after firing
		s.mu.Lock()
		delete(s.entries, capturedID)
		s.mu.Unlock()
	})

	s.entries[scheduleID] = &entry{payload: payload, timer: timer}
	s.logger.Debug("scheduled one-time task",
		zap.String("scheduleID", scheduleID),
		zap.Int32("delaySeconds", delaySeconds))
	return scheduleID, nil
}

// ScheduleRecurring implements Scheduler.ScheduleRecurring
func (s *CronScheduler) ScheduleRecurring(ctx context.Context, cronExpr, payload, scheduleID string) (string, error) {
	if scheduleID == "" {
		scheduleID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[scheduleID]; exists {
		return "", fmt.Errorf("schedule id %q already exists", scheduleID)
	}

	capturedID := scheduleID
	cronID, err := s.cron.AddFunc(cronExpr, func() {
		s.fire(capturedID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to schedule task: %w", err)
	}

	s.entries[scheduleID] = &entry{payload: payload, isRecurring: true, cronID: cronID}
	s.logger.Debug("scheduled recurring task",
		zap.String("scheduleID", scheduleID),
		zap.String("cron", cronExpr))
	return scheduleID, nil
}

// Cancel implements Scheduler.Cancel
func (s *CronScheduler) Cancel(ctx context.Context, scheduleID string) error {
	s.mu.Lock()
	e, exists := s.entries[scheduleID]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("schedule id %q not found", scheduleID)
	}
	delete(s.entries, scheduleID)
	s.mu.Unlock()

	if e.timer != nil {
		e.timer.Stop()
	} else {
		s.cron.Remove(e.cronID)
	}
	s.logger.Debug("cancelled schedule", zap.String("scheduleID", scheduleID))
	return nil
}

// Close cancels all schedules and stops the cron runner.
func (s *CronScheduler) Close() error {
	s.mu.Lock()
	for id, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		} else {
			s.cron.Remove(e.cronID)
		}
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.cron.Stop()
	return nil
}

// fire invokes the registered callback for a schedule.
func (s *CronScheduler) fire(scheduleID string) {
	s.mu.Lock()
	e, exists := s.entries[scheduleID]
	cb := s.callback
	s.mu.Unlock()

	if !exists {
		s.logger.Warn("schedule entry not found during callback", zap.String("scheduleID", scheduleID))
		return
	}
	if cb == nil {
		s.logger.Warn("no callback registered, dropping schedule invocation", zap.String("scheduleID", scheduleID))
		return
	}

	start := time.Now()
	cb.OnSchedule(context.Background(), scheduleID, e.payload, e.isRecurring)
	s.logger.Debug("schedule callback completed",
		zap.String("scheduleID", scheduleID),
		zap.Duration("duration", time.Since(start)))
}
