package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/roles"
)

// Suggestion rule thresholds. These are domain heuristics carried over
// unchanged; they are named here so a fork can tune them in one place.
const (
	MaxSuggestions = 4

	// budget-per-remaining-slot cutoffs for the recommended price tier
	TopTierBudget  = 40
	HighTierBudget = 25
	MidTierBudget  = 15

	// roster sizes at which later rules switch on
	OffensiveHintMinRoster = 5
	PacingMinRoster        = 10
	UrgentRolesMinRoster   = 8
	CompletionMinRoster    = 20

	// budget pacing cutoffs, credits per remaining slot
	LowBudgetPerSlot  = 8
	HighBudgetPerSlot = 40
)

// DefaultTargetRosterSize is the full MANTRA roster the auction fills
const DefaultTargetRosterSize = 32

// SuggestionInputs bundles everything the rules read. TargetRosterSize
// falls back to DefaultTargetRosterSize when zero.
type SuggestionInputs struct {
	Requirements     RequirementSet
	Coverage         CoverageSet
	RosterSize       int
	BudgetRemaining  int
	TargetRosterSize int
}

type lineShortfall struct {
	line     models.Line
	missing  int
	priority models.Priority
}

// Suggest evaluates the recommendation rules in fixed order and returns at
// most MaxSuggestions entries. Output order is rule-evaluation order;
// priority is informational for display and never used as a sort key.
func Suggest(in SuggestionInputs) []models.Suggestion {
	target := in.TargetRosterSize
	if target <= 0 {
		target = DefaultTargetRosterSize
	}

	// Bootstrap: nothing rostered yet, everything else would be noise.
	if in.RosterSize == 0 {
		return []models.Suggestion{{
			Kind:     "bootstrap",
			Message:  "Start with a goalkeeper or a strong defender to lock in the basics",
			Priority: models.PriorityMedium,
		}}
	}

	var out []models.Suggestion

	remainingSlots := target - in.RosterSize
	if remainingSlots < 1 {
		remainingSlots = 1
	}
	budgetPerSlot := in.BudgetRemaining / remainingSlots

	// Line shortfalls, worst first.
	var shortfalls []lineShortfall
	for _, line := range roles.Lines {
		required := in.Requirements.Lines[line]
		have := in.Coverage.Lines[line]
		if have >= required {
			continue
		}
		missing := required - have
		priority := models.PriorityMedium
		if missing > 2 {
			priority = models.PriorityHigh
		}
		shortfalls = append(shortfalls, lineShortfall{line: line, missing: missing, priority: priority})
	}
	sort.SliceStable(shortfalls, func(i, j int) bool {
		return shortfalls[i].missing > shortfalls[j].missing
	})
	for _, s := range shortfalls {
		out = append(out, models.Suggestion{
			Kind:     "shortfall",
			Message:  fmt.Sprintf("Missing %d players in %s: aim for the %s tier (up to %d credits each)", s.missing, lineLabel(s.line), tierLabel(budgetPerSlot), budgetPerSlot),
			Priority: s.priority,
		})
	}

	// Offensive minimums only matter once the squad has some shape.
	if in.RosterSize >= OffensiveHintMinRoster {
		for _, base := range roles.Hierarchy {
			counterpart, ok := roles.OffensiveCounterpart[base]
			if !ok {
				continue
			}
			needed := in.Requirements.OffensiveMinimums[counterpart]
			have := in.Coverage.Roles[counterpart]
			if have >= needed {
				continue
			}
			out = append(out, models.Suggestion{
				Kind:     "offensive",
				Message:  fmt.Sprintf("Need at least %d more %s, more advanced than %s", needed-have, roles.Abbrev(counterpart), roles.Abbrev(base)),
				Priority: models.PriorityHigh,
			})
		}
	}

	// Budget pacing: the two signals are mutually exclusive.
	if in.RosterSize >= PacingMinRoster {
		if budgetPerSlot < LowBudgetPerSlot {
			out = append(out, models.Suggestion{
				Kind:     "budget",
				Message:  fmt.Sprintf("Budget is tight: target gambles and bargains (max %d credits each)", LowBudgetPerSlot),
				Priority: models.PriorityHigh,
			})
		} else if budgetPerSlot > HighBudgetPerSlot {
			out = append(out, models.Suggestion{
				Kind:     "budget",
				Message:  fmt.Sprintf("Budget is plentiful: you can afford Top or Supertop players (%d credits per slot)", budgetPerSlot),
				Priority: models.PriorityMedium,
			})
		}
	}

	// Two most urgent specific roles, combined into one nudge.
	if in.RosterSize >= UrgentRolesMinRoster {
		if urgent := urgentRoles(in.Requirements, in.Coverage, 2); len(urgent) > 0 {
			out = append(out, models.Suggestion{
				Kind:     "roles",
				Message:  fmt.Sprintf("Focus on %s: these specific roles are still short", strings.Join(urgent, ", ")),
				Priority: models.PriorityMedium,
			})
		}
	}

	if in.RosterSize >= CompletionMinRoster {
		out = append(out, models.Suggestion{
			Kind:     "completion",
			Message:  fmt.Sprintf("Almost done: fill the last %d slots with the best value left", target-in.RosterSize),
			Priority: models.PriorityLow,
		})
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// urgentRoles picks the top-n roles by absolute shortfall, hierarchy order
// breaking ties so output is stable.
func urgentRoles(req RequirementSet, cov CoverageSet, n int) []string {
	type roleShortfall struct {
		role    string
		missing int
	}
	var short []roleShortfall
	for _, role := range roles.Hierarchy {
		missing := req.Roles[role] - cov.Roles[role]
		if missing > 0 {
			short = append(short, roleShortfall{role: role, missing: missing})
		}
	}
	sort.SliceStable(short, func(i, j int) bool {
		return short[i].missing > short[j].missing
	})
	if len(short) > n {
		short = short[:n]
	}
	labels := make([]string, 0, len(short))
	for _, s := range short {
		labels = append(labels, roles.Abbrev(s.role))
	}
	return labels
}

func tierLabel(budgetPerSlot int) string {
	switch {
	case budgetPerSlot > TopTierBudget:
		return "Top or Supertop"
	case budgetPerSlot > HighTierBudget:
		return "Top"
	case budgetPerSlot > MidTierBudget:
		return "Good"
	default:
		return "Gamble"
	}
}

func lineLabel(line models.Line) string {
	switch line {
	case models.LineGoalkeeper:
		return "goal"
	case models.LineDefense:
		return "defense"
	case models.LineMidfield:
		return "midfield"
	case models.LineAdvanced:
		return "the advanced midfield"
	case models.LineAttack:
		return "attack"
	default:
		return string(line)
	}
}
