package engine

import (
	"github.com/fennih/fantahustler/internal/formations"
)

// RoleCheck is the per-role verdict within a formation check
type RoleCheck struct {
	Required  int  `json:"required"`
	Available int  `json:"available"`
	OK        bool `json:"ok"`
}

// FormationCheck is the feasibility verdict for one formation
type FormationCheck struct {
	FormationID string               `json:"formationId"`
	Satisfied   bool                 `json:"satisfied"`
	Roles       map[string]RoleCheck `json:"roles"`
}

// CheckFormation judges a single formation against current coverage. The
// thresholds are recomputed from the formation's own slots, never from the
// cross-formation reconciled requirement set: a formation is judged by its
// own needs only. Zero-slot roles pass trivially.
func CheckFormation(f formations.Formation, cov CoverageSet) FormationCheck {
	check := FormationCheck{
		FormationID: f.ID,
		Satisfied:   true,
		Roles:       make(map[string]RoleCheck, len(f.RoleSlots)),
	}

	for role, slots := range f.RoleSlots {
		if slots == 0 {
			check.Roles[role] = RoleCheck{OK: true}
			continue
		}
		required := RequiredForSlots(slots)
		available := cov.Roles[role]
		ok := available >= required
		check.Roles[role] = RoleCheck{Required: required, Available: available, OK: ok}
		if !ok {
			check.Satisfied = false
		}
	}
	return check
}

// CheckFormations runs CheckFormation for every formation in the target
// set, in target order.
func CheckFormations(targets []formations.Formation, cov CoverageSet) []FormationCheck {
	checks := make([]FormationCheck, 0, len(targets))
	for _, f := range targets {
		checks = append(checks, CheckFormation(f, cov))
	}
	return checks
}
