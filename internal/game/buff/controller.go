package buff

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/bubblebuff/internal/model"
)

// Controller is the periodic group trigger: spam groups on their interval,
// auto-trigger groups once per combat round.
type Controller struct {
	exec *Executor
}

// NewController creates a controller driving exec.
func NewController(exec *Executor) *Controller {
	return &Controller{exec: exec}
}

// Tick runs one scheduling tick and then advances the pump.
// Implements Tickable; delta is unused because the gate reads the clock.
func (c *Controller) Tick(ctx context.Context, _ time.Duration) {
	s := c.exec.state
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Clock.Now()
	c.schedule(ctx, now)
	s.Pump.Poll(ctx, now)
}

func (c *Controller) schedule(ctx context.Context, now time.Duration) {
	s := c.exec.state

	c.runSpamGroups(ctx, now)

	if !c.exec.inCombat() {
		s.Gate.LeaveCombat()
		return
	}
	if !s.Toggles.AllowInCombat() {
		return
	}

	round, due := s.Gate.RoundDue(now)
	if !due {
		return
	}

	slog.Debug("combat round", "round", round)
	for _, g := range model.AllBuffGroups() {
		if s.Toggles.IsAutoTriggerActive(g) {
			c.run(ctx, g, model.ReapplyManual)
		}
	}
}

func (c *Controller) runSpamGroups(ctx context.Context, now time.Duration) {
	s := c.exec.state
	spam := c.exec.spamConfig()
	s.Gate.SetSpamInterval(spam.CheckInterval())

	mode := model.ReapplyManual
	if spam.UseSmartReapply {
		mode = model.ReapplySmart
	}

	for _, g := range model.AllBuffGroups() {
		if !s.Toggles.IsSpamActive(g) {
			s.Gate.ResetSpam(g)
			continue
		}
		if s.Gate.TrySpam(g, now) {
			c.run(ctx, g, mode)
		}
	}
}

// run executes a pass; failures are logged and never stop the tick.
func (c *Controller) run(ctx context.Context, g model.BuffGroup, mode model.ReapplyMode) {
	if _, err := c.exec.runGroup(ctx, g, mode); err != nil {
		slog.Error("buff pass failed", "group", g, "mode", mode, "error", err)
	}
}
