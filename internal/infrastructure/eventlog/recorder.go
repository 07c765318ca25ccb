package eventlog

import (
	"context"
	"sync"
	"time"

	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	"go.uber.org/zap"
)

const defaultCapacity = 256

// Entry is one observed domain event, kept for the activity feed.
type Entry struct {
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	ObservedAt time.Time `json:"observedAt"`
}

// Recorder consumes domain events, logs them, and retains a bounded window
// of the most recent ones for the dashboard activity feed.
type Recorder struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{
		logger:  logger,
		entries: make([]Entry, defaultCapacity),
	}
}

// Register subscribes the recorder to every given event name.
func (r *Recorder) Register(sub domevent.Subscriber, names ...string) {
	for _, name := range names {
		sub.Subscribe(name, r.Handle)
	}
}

func (r *Recorder) Handle(_ context.Context, e domevent.Event) error {
	entry := Entry{Name: e.EventName(), Key: e.Key(), ObservedAt: time.Now().UTC()}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()

	r.logger.Info("domain_event",
		zap.String("event", entry.Name),
		zap.String("key", entry.Key),
	)
	return nil
}

// Recent returns retained entries, newest first.
func (r *Recorder) Recent() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.entries)
	}
	out := make([]Entry, 0, size)
	for i := 1; i <= size; i++ {
		idx := (r.next - i + len(r.entries)) % len(r.entries)
		out = append(out, r.entries[idx])
	}
	return out
}
