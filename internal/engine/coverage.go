package engine

import (
	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/roles"
)

// CoverageSet counts how many rostered players currently satisfy each role
// and each line.
type CoverageSet struct {
	Roles map[string]int      `json:"roles"`
	Lines map[models.Line]int `json:"lines"`
}

// ComputeCoverage counts roster contributions per role and line.
//
// A player with a role assignment counts only toward that role. Without
// one, a multi-eligible player counts toward every role they could fill:
// the roster is sized by what each player could cover, not by which slot
// they would actually occupy. Collapsing this to single-role counting
// changes feasibility results, so the multi-count is deliberate.
// Unknown role codes count toward nothing.
func ComputeCoverage(roster []models.RosterPlayer) CoverageSet {
	cov := CoverageSet{
		Roles: make(map[string]int),
		Lines: make(map[models.Line]int),
	}

	for _, rp := range roster {
		if rp.RoleAssignment != "" {
			cov.add(rp.RoleAssignment)
			continue
		}
		for _, role := range rp.EligibleRoles {
			cov.add(role)
		}
	}
	return cov
}

func (c *CoverageSet) add(role string) {
	line, ok := roles.LineOf(role)
	if !ok {
		return
	}
	c.Roles[role]++
	c.Lines[line]++
}
