package api

import (
	"sync"
	"time"

	"github.com/pokerjest/animatch/internal/event"
	"github.com/pokerjest/animatch/internal/matcher"
)

// BatchStatus is the payload of GET /api/batch/status.
type BatchStatus struct {
	Running   bool             `json:"running"`
	Current   *matcher.Summary `json:"current,omitempty"`
	Resolved  int              `json:"resolved"`
	Last      *matcher.Summary `json:"last,omitempty"`
	LastError string           `json:"last_error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// StatusTracker follows batch events on the bus.
type StatusTracker struct {
	mu     sync.RWMutex
	status BatchStatus
	now    func() time.Time
}

func NewStatusTracker(bus event.Bus) *StatusTracker {
	t := &StatusTracker{now: time.Now}
	bus.Subscribe(event.EventBatchStarted, t.onStarted)
	bus.Subscribe(event.EventReleaseResolved, t.onResolved)
	bus.Subscribe(event.EventBatchFinished, t.onFinished)
	return t
}

func (t *StatusTracker) onStarted(e event.Event) {
	sum, ok := e.Payload.(matcher.Summary)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = true
	t.status.Current = &sum
	t.status.Resolved = 0
	t.status.UpdatedAt = t.now()
}

func (t *StatusTracker) onResolved(event.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Resolved++
	t.status.UpdatedAt = t.now()
}

func (t *StatusTracker) onFinished(e event.Event) {
	sum, ok := e.Payload.(matcher.Summary)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.Current = nil
	t.status.Last = &sum
	t.status.UpdatedAt = t.now()
}

// RecordError keeps the error of the last failed batch; nil clears it.
func (t *StatusTracker) RecordError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.status.LastError = err.Error()
	} else {
		t.status.LastError = ""
	}
	t.status.UpdatedAt = t.now()
}

func (t *StatusTracker) Snapshot() BatchStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.status
	if s.Current != nil {
		cur := *s.Current
		s.Current = &cur
	}
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	return s
}
