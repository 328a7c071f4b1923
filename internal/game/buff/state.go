package buff

import (
	"context"
	"sync"
)

// SchedulerState is the process-wide scheduler state: the timing gate and
// the execution pump. One instance is owned by the process and passed to the
// executor and the controller explicitly.
//
// mu serializes the tick loop and manual runs, so Gate and Pump are only ever
// touched by one goroutine at a time.
type SchedulerState struct {
	mu sync.Mutex

	Gate    *Gate
	Pump    *Pump
	Toggles *Toggles
	Clock   Clock
}

// NewSchedulerState creates state over a clock and the cast primitive.
func NewSchedulerState(clock Clock, caster Caster, toggles *Toggles) *SchedulerState {
	if clock == nil {
		clock = NewMonotonicClock()
	}
	if toggles == nil {
		toggles = NewToggles()
	}
	return &SchedulerState{
		Gate:    NewGate(),
		Pump:    NewPump(caster),
		Toggles: toggles,
		Clock:   clock,
	}
}

// Poll advances the pump at the current clock time.
// Returns true when no cast job is pending.
func (s *SchedulerState) Poll(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pump.Poll(ctx, s.Clock.Now())
}

// Stats returns cumulative cast outcomes of the pump.
func (s *SchedulerState) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pump.Stats()
}
