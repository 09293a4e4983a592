package models

// Line is a coarse tactical grouping of roles
type Line string

const (
	LineGoalkeeper Line = "goalkeeper"
	LineDefense    Line = "defense"
	LineMidfield   Line = "midfield"
	LineAdvanced   Line = "advancedMidfield"
	LineAttack     Line = "attack"
)

// Tier represents the player value band ("fascia")
type Tier string

const (
	TierSupertop Tier = "supertop"
	TierTop      Tier = "top"
	TierGood     Tier = "good"
	TierGamble   Tier = "gamble"
	TierAvoid    Tier = "avoid"
)

// Player represents a catalog entry imported from the price list.
// IDs are assigned at import time and are stable within one catalog only.
type Player struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Team           string   `json:"team"`
	RoleField      string   `json:"roleField"` // raw multi-role field, e.g. "M;C"
	PrimaryRole    string   `json:"primaryRole"`
	EligibleRoles  []string `json:"eligibleRoles"`
	Valuation      float64  `json:"valuation"` // FVM, 0 = unknown
	Quotation      float64  `json:"quotation"` // QA
	SuggestedPrice int      `json:"suggestedPrice"`
}

// Key identifies a player across catalog re-imports (name + team)
func (p Player) Key() string {
	return p.Name + "_" + p.Team
}

// RosterEntry is a player acquisition: what was paid and, optionally,
// which single role the player is pinned to.
type RosterEntry struct {
	PlayerID       int    `json:"playerId"`
	PaidPrice      int    `json:"paidPrice"`
	RoleAssignment string `json:"roleAssignment,omitempty"`
}

// RosterPlayer joins a roster entry with its catalog player
type RosterPlayer struct {
	Player
	PaidPrice      int    `json:"paidPrice"`
	RoleAssignment string `json:"roleAssignment,omitempty"`
}

// Budget tracks auction credits. Remaining may go negative; over-budget
// is representable and surfaced to callers, never rejected.
type Budget struct {
	Remaining int `json:"remaining"`
	Max       int `json:"max"`
}

// Priority classifies a suggestion for display
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Suggestion is a single human-readable recommendation
type Suggestion struct {
	Kind     string   `json:"kind"`
	Message  string   `json:"message"`
	Priority Priority `json:"priority"`
}

// PlayerStats is the informational overlay fetched from the stats backend
type PlayerStats struct {
	Name      string  `json:"name"`
	Team      string  `json:"team"`
	Matches   int     `json:"matches"`
	Goals     int     `json:"goals"`
	Assists   int     `json:"assists"`
	Minutes   int     `json:"minutes"`
	AvgRating float64 `json:"avgRating"`
}

// AuctionDocument is the full serializable auction state, used both for
// persistence and for user-facing export/import. Restore tolerates
// partially-present documents: absent fields keep their defaults.
type AuctionDocument struct {
	Budget              int               `json:"budget"`
	Players             []Player          `json:"players,omitempty"`
	TargetFormations    []string          `json:"targetFormations,omitempty"`
	Roster              []RosterEntry     `json:"roster,omitempty"`
	PaidPrices          map[int]int       `json:"paidPrices,omitempty"`
	RoleAssignments     map[int]string    `json:"roleAssignments,omitempty"`
	ManualTierOverrides map[int]Tier      `json:"manualTierOverrides,omitempty"`
	ListWidth           int               `json:"listWidth,omitempty"` // cosmetic UI state
	DiscardedPlayers    []string          `json:"discardedPlayers,omitempty"`
	FavoritePlayers     []string          `json:"favoritePlayers,omitempty"`
	Notes               map[string]string `json:"notes,omitempty"`
	ExportedAt          string            `json:"exportTimestamp,omitempty"`
}
