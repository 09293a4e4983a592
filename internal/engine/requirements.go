// Package engine holds the pure roster math: requirement calculation,
// coverage counting, formation feasibility and the suggestion rules.
// Everything here is recompute-on-read; no state is kept between calls.
package engine

import (
	"github.com/fennih/fantahustler/internal/formations"
	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/roles"
)

// MinKeepers is the goalkeeper floor applied when no formation is
// targeted: a roster still needs its keepers regardless of shape.
const MinKeepers = 3

// RequiredForSlots is the roster-sizing rule: one starter per slot, one
// full bench rotation, plus a margin. Domain heuristic, kept as-is.
func RequiredForSlots(slots int) int {
	return slots*2 + 1
}

// RequirementSet is the minimum roster size needed per role and per line
// to field every targeted formation, plus the soft offensive minimums for
// roles that have a more advanced counterpart.
type RequirementSet struct {
	Roles             map[string]int      `json:"roles"`
	Lines             map[models.Line]int `json:"lines"`
	OffensiveMinimums map[string]int      `json:"offensiveMinimums"`
}

// ComputeRequirements reconciles requirements across the whole target set
// by taking the per-role (and per-line) maximum: a role needed by two
// formations is only as demanding as whichever formation needs it most.
// Zero-slot roles contribute nothing, so they can never suppress another
// formation's requirement. An empty target set keeps the keeper floor and
// nothing else.
func ComputeRequirements(targets []formations.Formation) RequirementSet {
	req := RequirementSet{
		Roles:             make(map[string]int),
		Lines:             make(map[models.Line]int),
		OffensiveMinimums: make(map[string]int),
	}

	if len(targets) == 0 {
		req.Roles["Por"] = MinKeepers
		req.Lines[models.LineGoalkeeper] = MinKeepers
		return req
	}

	for _, f := range targets {
		for role, slots := range f.RoleSlots {
			if slots == 0 {
				continue
			}
			need := RequiredForSlots(slots)
			if need > req.Roles[role] {
				req.Roles[role] = need
			}
			if counterpart, ok := roles.OffensiveCounterpart[role]; ok {
				if need > req.OffensiveMinimums[counterpart] {
					req.OffensiveMinimums[counterpart] = need
				}
			}
		}
		for line, slots := range f.LineSlots {
			if slots == 0 {
				continue
			}
			need := RequiredForSlots(slots)
			if need > req.Lines[line] {
				req.Lines[line] = need
			}
		}
	}
	return req
}
