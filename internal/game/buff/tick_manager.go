package buff

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Tickable is driven once per host tick with the time since the previous tick.
type Tickable interface {
	Tick(ctx context.Context, delta time.Duration)
}

type registeredTickable struct {
	name string
	t    Tickable
}

// TickManager drives registered tickables at a fixed interval.
// Tickables run in registration order on the manager's goroutine.
type TickManager struct {
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	tickables []registeredTickable

	ticks atomic.Int64
}

// NewTickManager creates a tick manager.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &TickManager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register adds t to the tick loop.
func (m *TickManager) Register(name string, t Tickable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickables = append(m.tickables, registeredTickable{name: name, t: t})

	slog.Debug("tickable registered", "name", name)
}

// Start runs the tick loop (blocks until context is canceled or Stop is called).
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("buff tick manager started", "interval", m.interval)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("buff tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("buff tick manager stopped")
			return nil

		case now := <-ticker.C:
			m.TickOnce(ctx, now.Sub(last))
			last = now
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// TickOnce ticks every registered tickable once.
func (m *TickManager) TickOnce(ctx context.Context, delta time.Duration) {
	m.mu.Lock()
	tickables := append([]registeredTickable(nil), m.tickables...)
	m.mu.Unlock()

	for _, rt := range tickables {
		rt.t.Tick(ctx, delta)
	}
	m.ticks.Add(1)
}

// Ticks returns the number of completed ticks.
func (m *TickManager) Ticks() int64 {
	return m.ticks.Load()
}
