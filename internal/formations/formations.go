// Package formations holds the static MANTRA formation catalog: for each
// tactical shape, how many starting slots it allocates per role and per
// line. The tables are fixed for the 2025/2026 MANTRA diagrams and never
// mutated at runtime.
package formations

import (
	"fmt"

	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/roles"
)

// Starters is the number of players a formation fields
const Starters = 11

// Formation maps a tactical shape to its per-role and per-line slot counts
type Formation struct {
	ID        string              `json:"id"`
	RoleSlots map[string]int      `json:"roleSlots"`
	LineSlots map[models.Line]int `json:"lineSlots"`
}

// IDs lists the selectable formations in display order
var IDs = []string{
	"3-4-3", "3-4-1-2", "3-4-2-1", "3-5-2", "3-5-1-1",
	"4-3-3", "4-3-1-2", "4-4-2", "4-1-4-1", "4-4-1-1", "4-2-3-1",
}

// DefaultTargets is the target set used before the user picks their own
var DefaultTargets = []string{"4-2-3-1"}

// Catalog maps formation id to its configuration
var Catalog = map[string]Formation{
	"3-4-3": {
		ID:        "3-4-3",
		RoleSlots: map[string]int{"Por": 1, "Dc": 2, "B": 1, "E": 2, "M": 1, "C": 1, "A": 2, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 3, models.LineMidfield: 4, models.LineAdvanced: 0, models.LineAttack: 3},
	},
	"3-4-1-2": {
		ID:        "3-4-1-2",
		RoleSlots: map[string]int{"Por": 1, "Dc": 2, "B": 1, "E": 2, "M": 1, "C": 1, "T": 1, "A": 1, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 3, models.LineMidfield: 4, models.LineAdvanced: 1, models.LineAttack: 2},
	},
	"3-4-2-1": {
		ID:        "3-4-2-1",
		RoleSlots: map[string]int{"Por": 1, "Dc": 2, "B": 1, "E": 2, "M": 1, "C": 1, "W": 1, "T": 1, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 3, models.LineMidfield: 4, models.LineAdvanced: 2, models.LineAttack: 1},
	},
	"3-5-2": {
		ID:        "3-5-2",
		RoleSlots: map[string]int{"Por": 1, "Dc": 2, "B": 1, "E": 2, "M": 2, "C": 1, "A": 1, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 3, models.LineMidfield: 5, models.LineAdvanced: 0, models.LineAttack: 2},
	},
	"3-5-1-1": {
		ID:        "3-5-1-1",
		RoleSlots: map[string]int{"Por": 1, "Dc": 2, "B": 1, "E": 2, "M": 2, "C": 1, "T": 1, "A": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 3, models.LineMidfield: 5, models.LineAdvanced: 1, models.LineAttack: 1},
	},
	"4-3-3": {
		ID:        "4-3-3",
		RoleSlots: map[string]int{"Por": 1, "Dd": 1, "Dc": 2, "Ds": 1, "M": 2, "C": 1, "A": 2, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 4, models.LineMidfield: 3, models.LineAdvanced: 0, models.LineAttack: 3},
	},
	"4-3-1-2": {
		ID:        "4-3-1-2",
		RoleSlots: map[string]int{"Por": 1, "Dd": 1, "Dc": 2, "Ds": 1, "M": 2, "C": 1, "T": 1, "A": 1, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 4, models.LineMidfield: 3, models.LineAdvanced: 1, models.LineAttack: 2},
	},
	"4-4-2": {
		ID:        "4-4-2",
		RoleSlots: map[string]int{"Por": 1, "Dd": 1, "Dc": 2, "Ds": 1, "E": 2, "M": 1, "C": 1, "A": 1, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 4, models.LineMidfield: 4, models.LineAdvanced: 0, models.LineAttack: 2},
	},
	"4-1-4-1": {
		ID:        "4-1-4-1",
		RoleSlots: map[string]int{"Por": 1, "Dd": 1, "Dc": 2, "Ds": 1, "M": 1, "W": 2, "T": 2, "A": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 4, models.LineMidfield: 1, models.LineAdvanced: 4, models.LineAttack: 1},
	},
	"4-4-1-1": {
		ID:        "4-4-1-1",
		RoleSlots: map[string]int{"Por": 1, "Dd": 1, "Dc": 2, "Ds": 1, "E": 2, "M": 1, "C": 1, "T": 1, "A": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 4, models.LineMidfield: 4, models.LineAdvanced: 1, models.LineAttack: 1},
	},
	"4-2-3-1": {
		ID:        "4-2-3-1",
		RoleSlots: map[string]int{"Por": 1, "Dd": 1, "Dc": 2, "Ds": 1, "M": 2, "W": 2, "T": 1, "Pc": 1},
		LineSlots: map[models.Line]int{models.LineGoalkeeper: 1, models.LineDefense: 4, models.LineMidfield: 2, models.LineAdvanced: 3, models.LineAttack: 1},
	},
}

// Get looks up a formation by id
func Get(id string) (Formation, bool) {
	f, ok := Catalog[id]
	return f, ok
}

// Validate checks the static catalog for internal consistency: every role
// referenced by a formation must exist in the role table, role slots must
// sum to eleven starters, and the per-line totals must match the per-role
// totals grouped by line. A failure here is a configuration error and must
// halt startup; the tables are never auto-corrected.
func Validate() error {
	for _, id := range IDs {
		f, ok := Catalog[id]
		if !ok {
			return fmt.Errorf("formation %s listed but not configured", id)
		}

		roleTotal := 0
		derivedLines := make(map[models.Line]int)
		for role, slots := range f.RoleSlots {
			if !roles.Known(role) {
				return fmt.Errorf("formation %s references unknown role %q", id, role)
			}
			if slots < 0 {
				return fmt.Errorf("formation %s has negative slot count for role %s", id, role)
			}
			roleTotal += slots
			line, _ := roles.LineOf(role)
			derivedLines[line] += slots
		}
		if roleTotal != Starters {
			return fmt.Errorf("formation %s role slots sum to %d, want %d", id, roleTotal, Starters)
		}

		lineTotal := 0
		for line, slots := range f.LineSlots {
			lineTotal += slots
			if derivedLines[line] != slots {
				return fmt.Errorf("formation %s line %s declares %d slots but roles provide %d", id, line, slots, derivedLines[line])
			}
		}
		if lineTotal != Starters {
			return fmt.Errorf("formation %s line slots sum to %d, want %d", id, lineTotal, Starters)
		}
	}
	return nil
}
