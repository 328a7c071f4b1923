package buff

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/udisondev/bubblebuff/internal/model"
)

const (
	// BatchSize is the number of casts per paced batch.
	BatchSize = 8
	// BatchDelay is the pause between paced batches.
	BatchDelay = 50 * time.Millisecond
)

// ErrPumpBusy is returned by Execute while queued jobs are still running.
var ErrPumpBusy = errors.New("execution pump is busy")

// Strategy decides how many tasks run per batch and how long to wait after.
// Strategies only affect pacing, never content or order.
type Strategy interface {
	Name() string
	BatchSize(pending int) int
	Delay() time.Duration
}

// InstantStrategy runs every task back-to-back.
type InstantStrategy struct{}

func (InstantStrategy) Name() string              { return "instant" }
func (InstantStrategy) BatchSize(pending int) int { return pending }
func (InstantStrategy) Delay() time.Duration      { return 0 }

// PacedStrategy runs fixed-size batches with a delay between them.
type PacedStrategy struct {
	Size     int
	Interval time.Duration
}

func (s PacedStrategy) Name() string { return "paced" }

func (s PacedStrategy) BatchSize(pending int) int {
	if s.Size <= 0 {
		return pending
	}
	return min(s.Size, pending)
}

func (s PacedStrategy) Delay() time.Duration { return s.Interval }

// StrategyFor selects the pacing for the verbose casting preference.
func StrategyFor(verbose bool) Strategy {
	if verbose {
		return PacedStrategy{Size: BatchSize, Interval: BatchDelay}
	}
	return InstantStrategy{}
}

// Stats counts cast outcomes.
type Stats struct {
	Succeeded int
	Failed    int
}

type pumpJob struct {
	tasks    []*model.CastTask
	strategy Strategy
	next     int
}

// Pump drives cast tasks through the Caster.
//
// Jobs run strictly one after another; a submitted job never interleaves with
// another. Pacing is poll driven: the host calls Poll every tick and the pump
// runs a batch whenever its delay has elapsed.
//
// Not safe for concurrent use; SchedulerState serializes access.
type Pump struct {
	caster Caster
	jobs   []*pumpJob
	nextAt time.Duration
	stats  Stats
}

// NewPump creates a pump over caster.
func NewPump(caster Caster) *Pump {
	return &Pump{caster: caster}
}

// Submit queues tasks for execution with strategy.
func (p *Pump) Submit(tasks []*model.CastTask, strategy Strategy) {
	if len(tasks) == 0 {
		return
	}
	if strategy == nil {
		strategy = InstantStrategy{}
	}
	p.jobs = append(p.jobs, &pumpJob{tasks: tasks, strategy: strategy})
}

// Idle reports whether no job is queued.
func (p *Pump) Idle() bool {
	return len(p.jobs) == 0
}

// Pending returns the number of tasks not yet run.
func (p *Pump) Pending() int {
	n := 0
	for _, j := range p.jobs {
		n += len(j.tasks) - j.next
	}
	return n
}

// Stats returns cumulative cast outcomes.
func (p *Pump) Stats() Stats {
	return p.stats
}

// Cancel drops every queued job.
func (p *Pump) Cancel() {
	if dropped := p.Pending(); dropped > 0 {
		slog.Info("cast jobs cancelled", "dropped_tasks", dropped)
	}
	p.jobs = nil
}

// Poll runs due batches at now and reports whether the pump is idle.
// Cancellation of ctx is checked at every batch boundary and drops all jobs.
func (p *Pump) Poll(ctx context.Context, now time.Duration) bool {
	for len(p.jobs) > 0 {
		if ctx.Err() != nil {
			p.Cancel()
			return true
		}
		if now < p.nextAt {
			return false
		}

		job := p.jobs[0]
		n := job.strategy.BatchSize(len(job.tasks) - job.next)
		if n <= 0 {
			n = 1
		}
		batch := job.tasks[job.next : job.next+n]
		job.next += n

		p.runBatch(ctx, batch)

		if job.next >= len(job.tasks) {
			p.jobs = p.jobs[1:]
		}

		if delay := job.strategy.Delay(); delay > 0 {
			p.nextAt = now + delay
			return len(p.jobs) == 0
		}
	}
	return true
}

// Execute runs tasks immediately without pacing.
// It refuses to run while queued jobs are pending.
func (p *Pump) Execute(ctx context.Context, tasks []*model.CastTask) (Stats, error) {
	if !p.Idle() {
		return Stats{}, ErrPumpBusy
	}
	before := p.stats
	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		p.runOne(ctx, t)
	}
	return Stats{
		Succeeded: p.stats.Succeeded - before.Succeeded,
		Failed:    p.stats.Failed - before.Failed,
	}, ctx.Err()
}

func (p *Pump) runBatch(ctx context.Context, batch []*model.CastTask) {
	for _, t := range batch {
		p.runOne(ctx, t)
	}
}

// runOne casts a single task. Failures are logged and counted, never retried.
func (p *Pump) runOne(ctx context.Context, t *model.CastTask) {
	if err := p.caster.Cast(ctx, t); err != nil {
		p.stats.Failed++
		slog.Warn("cast failed",
			"caster", t.Caster,
			"target", t.Target,
			"spell", spellName(t.SpellToCast),
			"error", err)
		return
	}
	p.stats.Succeeded++
	slog.Debug("cast done",
		"caster", t.Caster,
		"target", t.Target,
		"spell", spellName(t.SpellToCast),
		"free", t.IsDuplicateSpellApplied)
}

func spellName(s *model.Spell) string {
	if s == nil {
		return ""
	}
	return s.Name
}
