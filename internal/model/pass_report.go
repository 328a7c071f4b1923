package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReapplyMode selects the redundancy policy of a scheduling pass.
type ReapplyMode int32

const (
	// ReapplyManual skips targets that already have the buff.
	ReapplyManual ReapplyMode = iota
	// ReapplySmart skips targets whose buff outlasts the reapply threshold.
	ReapplySmart
)

// String returns human-readable mode name
func (m ReapplyMode) String() string {
	switch m {
	case ReapplyManual:
		return "manual"
	case ReapplySmart:
		return "smart"
	default:
		return "unknown"
	}
}

// ParseReapplyMode parses a mode name.
func ParseReapplyMode(s string) (ReapplyMode, error) {
	switch s {
	case "manual":
		return ReapplyManual, nil
	case "smart":
		return ReapplySmart, nil
	default:
		return 0, fmt.Errorf("unknown reapply mode %q", s)
	}
}

// RejectReason explains why a feasible-looking candidate was not cast.
type RejectReason string

const (
	RejectNoSlot           RejectReason = "no_slot"
	RejectInsufficientPool RejectReason = "insufficient_pool"
)

// Rejection is one infeasible candidate.
type Rejection struct {
	Caster string
	Target string
	Reason RejectReason
}

// BuffResult is the per-buff tally of a pass.
type BuffResult struct {
	BuffID     string
	Name       string
	Good       int
	Skip       int
	Bad        int
	Rejections []Rejection

	// Fault is set when evaluation of the buff stopped on an error.
	Fault string
}

// PassReport is the outcome tally of one scheduling pass.
type PassReport struct {
	ID        uuid.UUID
	Group     BuffGroup
	Mode      ReapplyMode
	Attempted int
	Skipped   int
	Rejected  int
	Accepted  int
	Buffs     []*BuffResult
	CreatedAt time.Time
}

// NewPassReport creates an empty report for a pass.
func NewPassReport(group BuffGroup, mode ReapplyMode) *PassReport {
	return &PassReport{
		ID:        uuid.New(),
		Group:     group,
		Mode:      mode,
		CreatedAt: time.Now(),
	}
}

// Summary renders the one-line pass message.
func (r *PassReport) Summary() string {
	return fmt.Sprintf("%s applied %d/%d (skipped %d)", r.Group, r.Accepted, r.Attempted, r.Skipped)
}

// Buff returns the result entry for buffID, or nil.
func (r *PassReport) Buff(buffID string) *BuffResult {
	for _, b := range r.Buffs {
		if b.BuffID == buffID {
			return b
		}
	}
	return nil
}
