package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// fakeScheduler implements scheduler.Scheduler with in-memory bookkeeping.
type fakeScheduler struct {
	mu       sync.Mutex
	entries  map[string]fakeSchedule
	cancels  []string
	oneTimes []fakeSchedule
}

type fakeSchedule struct {
	ID           string
	Payload      string
	CronExpr     string
	DelaySeconds int32
	Recurring    bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{entries: make(map[string]fakeSchedule)}
}

func (s *fakeScheduler) ScheduleOneTime(_ context.Context, delaySeconds int32, payload, scheduleID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[scheduleID]; exists {
		return "", fmt.Errorf("schedule id %q already exists", scheduleID)
	}
	e := fakeSchedule{ID: scheduleID, Payload: payload, DelaySeconds: delaySeconds}
	s.entries[scheduleID] = e
	s.oneTimes = append(s.oneTimes, e)
	return scheduleID, nil
}

func (s *fakeScheduler) ScheduleRecurring(_ context.Context, cronExpr, payload, scheduleID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[scheduleID]; exists {
		return "", fmt.Errorf("schedule id %q already exists", scheduleID)
	}
	s.entries[scheduleID] = fakeSchedule{ID: scheduleID, Payload: payload, CronExpr: cronExpr, Recurring: true}
	return scheduleID, nil
}

func (s *fakeScheduler) Cancel(_ context.Context, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels = append(s.cancels, scheduleID)
	if _, exists := s.entries[scheduleID]; !exists {
		return fmt.Errorf("schedule id %q not found", scheduleID)
	}
	delete(s.entries, scheduleID)
	return nil
}

func (s *fakeScheduler) entry(id string) (fakeSchedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fakeTransport implements transport.Transport, recording frames per
// connection. Connections can be failed to simulate a dead socket.
type fakeTransport struct {
	mu         sync.Mutex
	open       map[string]bool
	sent       map[string][]string
	connects   []string // urls dialed
	closes     []string // connection ids closed
	connectErr error
	sendErr    map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		open:    make(map[string]bool),
		sent:    make(map[string][]string),
		sendErr: make(map[string]error),
	}
}

func (t *fakeTransport) Connect(_ context.Context, url string, _ http.Header, name string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return "", t.connectErr
	}
	t.connects = append(t.connects, url)
	t.open[name] = true
	delete(t.sendErr, name)
	return name, nil
}

func (t *fakeTransport) SendText(_ context.Context, connectionID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.sendErr[connectionID]; err != nil {
		return err
	}
	if !t.open[connectionID] {
		return fmt.Errorf("connection %q not found", connectionID)
	}
	t.sent[connectionID] = append(t.sent[connectionID], text)
	return nil
}

func (t *fakeTransport) Close(_ context.Context, connectionID string, _ int, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closes = append(t.closes, connectionID)
	if !t.open[connectionID] {
		return fmt.Errorf("connection %q not found", connectionID)
	}
	delete(t.open, connectionID)
	return nil
}

// fail marks a connection as broken so subsequent sends error out.
func (t *fakeTransport) fail(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr[connectionID] = fmt.Errorf("connection %q lost", connectionID)
}

func (t *fakeTransport) frames(connectionID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent[connectionID]...)
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.connects)
}
