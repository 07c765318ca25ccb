package eventbus

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	domevent "github.com/jroahs/Ring-Wing-sub004/internal/domain/event"
	"github.com/jroahs/Ring-Wing-sub004/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

const (
	idleKeyTTL      = 5 * time.Minute
	cleanupInterval = time.Minute
	handlerTimeout  = 30 * time.Second
)

// Bus is the in-process outbound notification emitter. Advisory events are
// throttled per name+key; correctness-critical events always pass. It is not
// durable: fan-out happens on a background dispatch loop with a per-event
// handler concurrency cap and panic isolation.
type Bus struct {
	mu    sync.RWMutex
	subs  map[string][]domevent.Handler
	queue chan domevent.Event

	throttleMu      sync.Mutex
	lastEmit        map[string]time.Time
	defaultThrottle time.Duration

	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc
	done        chan struct{}
	concurrency int

	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(logger *zap.Logger, m *metrics.Metrics, defaultThrottle time.Duration) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultThrottle <= 0 {
		defaultThrottle = time.Second
	}
	return &Bus{
		subs:            make(map[string][]domevent.Handler),
		queue:           make(chan domevent.Event, 1024),
		lastEmit:        make(map[string]time.Time),
		defaultThrottle: defaultThrottle,
		done:            make(chan struct{}),
		concurrency:     8,
		log:             logger.With(zap.String("component", "event_bus")),
		metrics:         m,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (b *Bus) Subscribe(eventName string, h domevent.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.cancel = cancel
		go b.dispatchLoop(bg)
		go b.janitor(bg)
		b.log.Info("event_bus_started")
	})
}

func (b *Bus) Stop(ctx context.Context) {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		select {
		case <-b.done:
		case <-ctx.Done():
		}
		b.log.Info("event_bus_stopped")
	})
}

// Publish enqueues an event for fan-out. Advisory events arriving inside
// their throttle window are dropped silently; the drop is logged and counted
// but is not an error.
func (b *Bus) Publish(ctx context.Context, e domevent.Event) error {
	if e == nil {
		return nil
	}

	if t, ok := e.(domevent.Throttleable); ok {
		window := t.ThrottleHint()
		if window <= 0 {
			window = b.defaultThrottle
		}
		if !b.admit(e.EventName()+":"+e.Key(), window) {
			b.metrics.EventOutcome(e.EventName(), "throttled")
			b.log.Debug("event_throttled",
				zap.String("event", e.EventName()),
				zap.String("key", e.Key()),
			)
			return nil
		}
	}

	select {
	case b.queue <- e:
		b.metrics.EventOutcome(e.EventName(), "emitted")
		return nil
	case <-ctx.Done():
		b.metrics.EventOutcome(e.EventName(), "aborted")
		b.log.Warn("event_enqueue_aborted",
			zap.String("event", e.EventName()),
			zap.Error(ctx.Err()),
		)
		return ctx.Err()
	}
}

// admit records the emission timestamp for the key unless the previous one
// is still inside the window.
func (b *Bus) admit(key string, window time.Duration) bool {
	now := b.now()

	b.throttleMu.Lock()
	defer b.throttleMu.Unlock()

	if last, ok := b.lastEmit[key]; ok && now.Sub(last) < window {
		return false
	}
	b.lastEmit[key] = now
	return true
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.queue:
			b.fanout(ctx, e)
		}
	}
}

func (b *Bus) fanout(ctx context.Context, e domevent.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domevent.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", zap.String("event", name))
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func(h domevent.Handler) {
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event_handler_panic",
						zap.String("event", name),
						zap.Any("panic", r),
						zap.String("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(hctx, e); err != nil {
				b.log.Warn("event_handler_error",
					zap.String("event", name),
					zap.Error(err),
				)
			}
		}(h)
	}
	wg.Wait()
}

// janitor evicts throttle keys idle longer than idleKeyTTL so the table does
// not grow with one entry per historical order.
func (b *Bus) janitor(ctx context.Context) {
	t := time.NewTicker(cleanupInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cutoff := b.now().Add(-idleKeyTTL)
			b.throttleMu.Lock()
			for key, last := range b.lastEmit {
				if last.Before(cutoff) {
					delete(b.lastEmit, key)
				}
			}
			b.throttleMu.Unlock()
		}
	}
}
