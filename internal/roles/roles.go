// Package roles holds the static MANTRA position taxonomy: role codes,
// display abbreviations, tactical lines and the defensive-to-offensive
// ordering used to pick a primary role for multi-eligible players.
package roles

import (
	"strings"

	"github.com/fennih/fantahustler/internal/models"
)

// Delimiter separates multiple role codes in the raw price-list field
const Delimiter = ";"

// Info describes a single role code
type Info struct {
	Code   string      `json:"code"`
	Abbrev string      `json:"abbrev"`
	Line   models.Line `json:"line"`
}

// Table maps role code to its static info
var Table = map[string]Info{
	"Por": {Code: "Por", Abbrev: "P", Line: models.LineGoalkeeper},

	"Ds": {Code: "Ds", Abbrev: "DS", Line: models.LineDefense},
	"Dc": {Code: "Dc", Abbrev: "DC", Line: models.LineDefense},
	"Dd": {Code: "Dd", Abbrev: "DD", Line: models.LineDefense},
	"B":  {Code: "B", Abbrev: "B", Line: models.LineDefense},

	"E": {Code: "E", Abbrev: "E", Line: models.LineMidfield},
	"M": {Code: "M", Abbrev: "M", Line: models.LineMidfield},
	"C": {Code: "C", Abbrev: "C", Line: models.LineMidfield},

	"W": {Code: "W", Abbrev: "W", Line: models.LineAdvanced},
	"T": {Code: "T", Abbrev: "T", Line: models.LineAdvanced},

	"A":  {Code: "A", Abbrev: "A", Line: models.LineAttack},
	"Pc": {Code: "Pc", Abbrev: "PC", Line: models.LineAttack},
}

// Hierarchy orders roles from most defensive to most offensive
var Hierarchy = []string{
	"Por",
	"B",
	"Dc",
	"Ds",
	"Dd",
	"E",
	"M",
	"C",
	"W",
	"T",
	"A",
	"Pc",
}

// OffensiveCounterpart maps a base role to its more offensive version,
// used to compute stretch minimums on top of the hard requirements
var OffensiveCounterpart = map[string]string{
	"M": "C",
	"W": "T",
	"A": "Pc",
}

// Lines in display order, most defensive first
var Lines = []models.Line{
	models.LineGoalkeeper,
	models.LineDefense,
	models.LineMidfield,
	models.LineAdvanced,
	models.LineAttack,
}

var hierarchyIndex = func() map[string]int {
	idx := make(map[string]int, len(Hierarchy))
	for i, code := range Hierarchy {
		idx[code] = i
	}
	return idx
}()

// Known reports whether code is a valid MANTRA role
func Known(code string) bool {
	_, ok := Table[code]
	return ok
}

// LineOf returns the tactical line for a role code
func LineOf(code string) (models.Line, bool) {
	info, ok := Table[code]
	return info.Line, ok
}

// Abbrev returns the display abbreviation, falling back to the code itself
// for unknown roles
func Abbrev(code string) string {
	if info, ok := Table[code]; ok {
		return info.Abbrev
	}
	return code
}

// ParseRole splits a raw role field into its eligible roles (source order
// preserved, duplicates kept) and the primary role: the most defensive
// eligible role per Hierarchy. Unknown codes are tolerated; if none of the
// listed codes is known the first listed role is returned as primary so
// the parse never fails. Empty input yields no roles.
func ParseRole(raw string) (primary string, eligible []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	eligible = strings.Split(raw, Delimiter)

	lowest := len(Hierarchy)
	for _, code := range eligible {
		if i, ok := hierarchyIndex[code]; ok && i < lowest {
			lowest = i
			primary = code
		}
	}
	if primary == "" {
		primary = eligible[0]
	}
	return primary, eligible
}
