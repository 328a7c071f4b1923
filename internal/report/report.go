// Package report presents buff pass reports: to the structured log, to a
// terminal and to several sinks at once.
package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/udisondev/bubblebuff/internal/game/buff"
	"github.com/udisondev/bubblebuff/internal/model"
)

// LogSink writes pass reports to slog.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over logger; nil uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Report logs the summary at Info, and every rejection and fault at Warn.
func (s *LogSink) Report(ctx context.Context, r *model.PassReport) error {
	s.logger.InfoContext(ctx, r.Summary(),
		"pass", r.ID,
		"group", r.Group,
		"mode", r.Mode,
		"rejected", r.Rejected)

	for _, b := range r.Buffs {
		if b.Fault != "" {
			s.logger.WarnContext(ctx, "buff fault", "pass", r.ID, "buff", b.Name, "error", b.Fault)
		}
		for _, rej := range b.Rejections {
			s.logger.WarnContext(ctx, "cast rejected",
				"pass", r.ID,
				"buff", b.Name,
				"caster", rej.Caster,
				"target", rej.Target,
				"reason", rej.Reason)
		}
	}
	return nil
}

// Multi fans a report out to every sink. All sinks are called even if some fail.
type Multi []buff.Sink

// Report implements buff.Sink.
func (m Multi) Report(ctx context.Context, r *model.PassReport) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
