// Package auction holds the live auction state: the imported catalog, the
// roster with paid prices, target formations, and the per-player notes,
// tiers and favorite/discard flags. A Ledger is safe for concurrent use;
// every derived figure (budget, requirements, coverage, feasibility,
// suggestions) is recomputed from the primary state on read.
package auction

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fennih/fantahustler/internal/catalog"
	"github.com/fennih/fantahustler/internal/engine"
	"github.com/fennih/fantahustler/internal/formations"
	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/roles"
)

var (
	ErrUnknownPlayer     = errors.New("player not in catalog")
	ErrAlreadyRostered   = errors.New("player already rostered")
	ErrNotRostered       = errors.New("player not rostered")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidAssignment = errors.New("role not among player's eligible roles")
	ErrUnknownFormation  = errors.New("unknown formation")
	ErrInvalidBudget     = errors.New("budget must be positive")
)

// DefaultBudgetMax is the standard league budget in credits
const DefaultBudgetMax = 600

// Ledger is the authoritative in-memory auction state
type Ledger struct {
	mu sync.RWMutex

	budgetMax        int
	targetRosterSize int

	players []models.Player
	byID    map[int]models.Player

	targets []string

	roster        []models.RosterEntry
	rosterIndex   map[int]int // player id -> index into roster
	paidTotal     int
	priceMemo     map[int]int // planned prices for players not yet rostered
	tierOverrides map[int]models.Tier
	notes         map[string]string // key: Name_Team
	favorites     map[string]bool
	discarded     map[string]bool
	listWidth     int
}

// New creates an empty ledger with the given budget. Non-positive budget
// falls back to DefaultBudgetMax.
func New(budgetMax, targetRosterSize int) *Ledger {
	if budgetMax <= 0 {
		budgetMax = DefaultBudgetMax
	}
	if targetRosterSize <= 0 {
		targetRosterSize = engine.DefaultTargetRosterSize
	}
	return &Ledger{
		budgetMax:        budgetMax,
		targetRosterSize: targetRosterSize,
		byID:             map[int]models.Player{},
		targets:          append([]string(nil), formations.DefaultTargets...),
		rosterIndex:      map[int]int{},
		priceMemo:        map[int]int{},
		tierOverrides:    map[int]models.Tier{},
		notes:            map[string]string{},
		favorites:        map[string]bool{},
		discarded:        map[string]bool{},
	}
}

// ReplaceCatalog swaps in a freshly imported price list. Player IDs are
// positional within one import, so every ID-keyed state (roster, prices,
// role assignments, tier overrides) is cleared; name-keyed state (notes,
// favorites, discards) survives re-imports. The swap is all-or-nothing:
// the previous catalog stays untouched until the new one is in place.
func (l *Ledger) ReplaceCatalog(players []models.Player) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.players = append([]models.Player(nil), players...)
	l.byID = make(map[int]models.Player, len(players))
	for _, p := range l.players {
		l.byID[p.ID] = p
	}

	l.roster = nil
	l.rosterIndex = map[int]int{}
	l.paidTotal = 0
	l.priceMemo = map[int]int{}
	l.tierOverrides = map[int]models.Tier{}

	logger.Info("Catalog replaced", "players", len(l.players))
}

// Acquire records winning a player at the given price. The budget is
// allowed to go negative; overspending is the user's call to make.
func (l *Ledger) Acquire(playerID, price int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price < 0 {
		return ErrInvalidPrice
	}
	return l.acquireLocked(playerID, price)
}

// AcquireDefault rosters a player without an explicit price: the planned
// price takes precedence when one was recorded, the suggested price
// otherwise. Returns the price actually charged.
func (l *Ledger) AcquireDefault(playerID int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.byID[playerID]
	if !ok {
		return 0, ErrUnknownPlayer
	}
	price, ok := l.priceMemo[playerID]
	if !ok {
		price = p.SuggestedPrice
	}
	if err := l.acquireLocked(playerID, price); err != nil {
		return 0, err
	}
	return price, nil
}

func (l *Ledger) acquireLocked(playerID, price int) error {
	if _, ok := l.byID[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if _, ok := l.rosterIndex[playerID]; ok {
		return ErrAlreadyRostered
	}

	l.rosterIndex[playerID] = len(l.roster)
	l.roster = append(l.roster, models.RosterEntry{PlayerID: playerID, PaidPrice: price})
	l.paidTotal += price
	delete(l.priceMemo, playerID)
	return nil
}

// Release removes a player from the roster, refunds the paid price and
// forgets any planned price for them.
func (l *Ledger) Release(playerID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.rosterIndex[playerID]
	if !ok {
		return ErrNotRostered
	}

	l.paidTotal -= l.roster[idx].PaidPrice
	l.roster = append(l.roster[:idx], l.roster[idx+1:]...)
	delete(l.rosterIndex, playerID)
	delete(l.priceMemo, playerID)
	for i := idx; i < len(l.roster); i++ {
		l.rosterIndex[l.roster[i].PlayerID] = i
	}
	return nil
}

// Reprice sets a player's price to a positive value. For a rostered player
// this corrects the recorded paid price and applies the delta to the
// budget; otherwise it records a planned price that a later Acquire
// without an explicit price will use.
func (l *Ledger) Reprice(playerID, price int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if price <= 0 {
		return ErrInvalidPrice
	}
	if _, ok := l.byID[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if idx, ok := l.rosterIndex[playerID]; ok {
		l.paidTotal += price - l.roster[idx].PaidPrice
		l.roster[idx].PaidPrice = price
		return nil
	}
	l.priceMemo[playerID] = price
	return nil
}

// AssignRole pins a multi-eligible rostered player to a single role for
// coverage counting. The role must be one the player is eligible for.
func (l *Ledger) AssignRole(playerID int, role string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.rosterIndex[playerID]
	if !ok {
		return ErrNotRostered
	}
	p := l.byID[playerID]
	eligible := false
	for _, r := range p.EligibleRoles {
		if r == role {
			eligible = true
			break
		}
	}
	if !eligible {
		return ErrInvalidAssignment
	}
	l.roster[idx].RoleAssignment = role
	return nil
}

// ClearRoleAssignment restores optimistic multi-role counting for a player
func (l *Ledger) ClearRoleAssignment(playerID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.rosterIndex[playerID]
	if !ok {
		return ErrNotRostered
	}
	l.roster[idx].RoleAssignment = ""
	return nil
}

// SetTargets replaces the target formation set. Unknown formation ids
// reject the whole call; duplicates collapse, first occurrence wins.
func (l *Ledger) SetTargets(ids []string) error {
	deduped := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if _, ok := formations.Get(id); !ok {
			return ErrUnknownFormation
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.targets = deduped
	return nil
}

// SetBudgetMax changes the league budget. Suggested prices in the catalog
// are rescaled to the new budget; paid prices are history and stay as-is.
func (l *Ledger) SetBudgetMax(max int) error {
	if max <= 0 {
		return ErrInvalidBudget
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.budgetMax = max
	for i := range l.players {
		l.players[i].SuggestedPrice = catalog.SuggestedPrice(l.players[i].Valuation, max)
		l.byID[l.players[i].ID] = l.players[i]
	}
	return nil
}

// SetTier overrides the automatic value band for a player; an empty tier
// clears the override.
func (l *Ledger) SetTier(playerID int, tier models.Tier) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if tier == "" {
		delete(l.tierOverrides, playerID)
		return nil
	}
	l.tierOverrides[playerID] = tier
	return nil
}

// SetNote attaches a free-text note to a player; empty text clears it.
// Notes are keyed by name+team so they survive catalog re-imports.
func (l *Ledger) SetNote(playerID int, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.byID[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	if strings.TrimSpace(text) == "" {
		delete(l.notes, p.Key())
		return nil
	}
	l.notes[p.Key()] = text
	return nil
}

// SetFavorite marks or unmarks a player as a favorite
func (l *Ledger) SetFavorite(playerID int, favorite bool) error {
	return l.setFlag(playerID, favorite, func(key string, on bool) {
		if on {
			l.favorites[key] = true
		} else {
			delete(l.favorites, key)
		}
	})
}

// SetDiscarded marks or unmarks a player as discarded
func (l *Ledger) SetDiscarded(playerID int, discarded bool) error {
	return l.setFlag(playerID, discarded, func(key string, on bool) {
		if on {
			l.discarded[key] = true
		} else {
			delete(l.discarded, key)
		}
	})
}

func (l *Ledger) setFlag(playerID int, on bool, apply func(string, bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.byID[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	apply(p.Key(), on)
	return nil
}

// SetListWidth stores the cosmetic list-width preference
func (l *Ledger) SetListWidth(width int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listWidth = width
}

// Budget returns the current credit situation. Remaining is always derived
// from the paid-price sum, never stored.
func (l *Ledger) Budget() models.Budget {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.Budget{Remaining: l.budgetMax - l.paidTotal, Max: l.budgetMax}
}

// Targets returns the current target formation ids
func (l *Ledger) Targets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.targets...)
}

// Roster returns the rostered players in acquisition order
func (l *Ledger) Roster() []models.RosterPlayer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rosterLocked()
}

func (l *Ledger) rosterLocked() []models.RosterPlayer {
	out := make([]models.RosterPlayer, 0, len(l.roster))
	for _, entry := range l.roster {
		p, ok := l.byID[entry.PlayerID]
		if !ok {
			continue
		}
		out = append(out, models.RosterPlayer{
			Player:         p,
			PaidPrice:      entry.PaidPrice,
			RoleAssignment: entry.RoleAssignment,
		})
	}
	return out
}

func (l *Ledger) targetFormationsLocked() []formations.Formation {
	out := make([]formations.Formation, 0, len(l.targets))
	for _, id := range l.targets {
		if f, ok := formations.Get(id); ok {
			out = append(out, f)
		}
	}
	return out
}

// Requirements computes the reconciled per-role and per-line roster
// requirements for the current target set.
func (l *Ledger) Requirements() engine.RequirementSet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return engine.ComputeRequirements(l.targetFormationsLocked())
}

// Coverage counts what the current roster provides per role and line
func (l *Ledger) Coverage() engine.CoverageSet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return engine.ComputeCoverage(l.rosterLocked())
}

// Checks judges every target formation against current coverage
func (l *Ledger) Checks() []engine.FormationCheck {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return engine.CheckFormations(l.targetFormationsLocked(), engine.ComputeCoverage(l.rosterLocked()))
}

// Suggestions runs the recommendation rules against the current state
func (l *Ledger) Suggestions() []models.Suggestion {
	l.mu.RLock()
	defer l.mu.RUnlock()

	targets := l.targetFormationsLocked()
	roster := l.rosterLocked()
	return engine.Suggest(engine.SuggestionInputs{
		Requirements:     engine.ComputeRequirements(targets),
		Coverage:         engine.ComputeCoverage(roster),
		RosterSize:       len(roster),
		BudgetRemaining:  l.budgetMax - l.paidTotal,
		TargetRosterSize: l.targetRosterSize,
	})
}

// TierFor returns the effective value band for a player: the manual
// override when present, the valuation-derived band otherwise.
func (l *Ledger) TierFor(p models.Player) models.Tier {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tierForLocked(p)
}

func (l *Ledger) tierForLocked(p models.Player) models.Tier {
	if t, ok := l.tierOverrides[p.ID]; ok {
		return t
	}
	return catalog.AutoTier(p.Valuation)
}

// Snapshot serializes the full auction state for persistence or export
func (l *Ledger) Snapshot() models.AuctionDocument {
	l.mu.RLock()
	defer l.mu.RUnlock()

	doc := models.AuctionDocument{
		Budget:           l.budgetMax,
		Players:          append([]models.Player(nil), l.players...),
		TargetFormations: append([]string(nil), l.targets...),
		Roster:           append([]models.RosterEntry(nil), l.roster...),
		ListWidth:        l.listWidth,
		ExportedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if len(l.roster) > 0 || len(l.priceMemo) > 0 {
		doc.PaidPrices = make(map[int]int, len(l.roster)+len(l.priceMemo))
		for id, price := range l.priceMemo {
			doc.PaidPrices[id] = price
		}
	}
	if len(l.roster) > 0 {
		doc.RoleAssignments = map[int]string{}
		for _, e := range l.roster {
			doc.PaidPrices[e.PlayerID] = e.PaidPrice
			if e.RoleAssignment != "" {
				doc.RoleAssignments[e.PlayerID] = e.RoleAssignment
			}
		}
	}
	if len(l.tierOverrides) > 0 {
		doc.ManualTierOverrides = make(map[int]models.Tier, len(l.tierOverrides))
		for id, t := range l.tierOverrides {
			doc.ManualTierOverrides[id] = t
		}
	}
	if len(l.discarded) > 0 {
		doc.DiscardedPlayers = sortedKeys(l.discarded)
	}
	if len(l.favorites) > 0 {
		doc.FavoritePlayers = sortedKeys(l.favorites)
	}
	if len(l.notes) > 0 {
		doc.Notes = make(map[string]string, len(l.notes))
		for k, v := range l.notes {
			doc.Notes[k] = v
		}
	}
	return doc
}

// Restore loads auction state from a document, tolerating partial content:
// absent fields keep their current values; a zero budget keeps the current
// one. Roster entries referencing players missing from the catalog are
// skipped with a warning. Remaining budget is always recomputed from the
// restored paid prices, never trusted from the document.
func (l *Ledger) Restore(doc models.AuctionDocument) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// The catalog travels with the snapshot so roster entries survive a
	// process restart; documents without one keep the current catalog.
	if doc.Players != nil {
		l.players = append([]models.Player(nil), doc.Players...)
		l.byID = make(map[int]models.Player, len(l.players))
		for _, p := range l.players {
			l.byID[p.ID] = p
		}
	}

	if doc.Budget > 0 {
		l.budgetMax = doc.Budget
		for i := range l.players {
			l.players[i].SuggestedPrice = catalog.SuggestedPrice(l.players[i].Valuation, doc.Budget)
			l.byID[l.players[i].ID] = l.players[i]
		}
	}

	if doc.TargetFormations != nil {
		targets := make([]string, 0, len(doc.TargetFormations))
		for _, id := range doc.TargetFormations {
			if _, ok := formations.Get(id); ok {
				targets = append(targets, id)
			} else {
				logger.Warn("Dropping unknown formation from restored document", "formation", id)
			}
		}
		l.targets = targets
	}

	if doc.Roster != nil {
		l.roster = nil
		l.rosterIndex = map[int]int{}
		l.paidTotal = 0
		skipped := 0
		for _, e := range doc.Roster {
			if _, ok := l.byID[e.PlayerID]; !ok {
				skipped++
				continue
			}
			if _, dup := l.rosterIndex[e.PlayerID]; dup {
				continue
			}
			if price, ok := doc.PaidPrices[e.PlayerID]; ok {
				e.PaidPrice = price
			}
			if role, ok := doc.RoleAssignments[e.PlayerID]; ok {
				e.RoleAssignment = role
			}
			if e.PaidPrice < 0 {
				e.PaidPrice = 0
			}
			l.rosterIndex[e.PlayerID] = len(l.roster)
			l.roster = append(l.roster, e)
			l.paidTotal += e.PaidPrice
		}
		if skipped > 0 {
			logger.Warn("Skipped roster entries for players missing from catalog", "skipped", skipped)
		}
	}

	// Prices recorded for players outside the roster are planned prices.
	if doc.PaidPrices != nil {
		l.priceMemo = map[int]int{}
		for id, price := range doc.PaidPrices {
			if _, rostered := l.rosterIndex[id]; rostered {
				continue
			}
			if _, known := l.byID[id]; known && price > 0 {
				l.priceMemo[id] = price
			}
		}
	}

	if doc.ManualTierOverrides != nil {
		l.tierOverrides = make(map[int]models.Tier, len(doc.ManualTierOverrides))
		for id, t := range doc.ManualTierOverrides {
			l.tierOverrides[id] = t
		}
	}
	if doc.DiscardedPlayers != nil {
		l.discarded = map[string]bool{}
		for _, key := range doc.DiscardedPlayers {
			l.discarded[key] = true
		}
	}
	if doc.FavoritePlayers != nil {
		l.favorites = map[string]bool{}
		for _, key := range doc.FavoritePlayers {
			l.favorites[key] = true
		}
	}
	if doc.Notes != nil {
		l.notes = make(map[string]string, len(doc.Notes))
		for k, v := range doc.Notes {
			l.notes[k] = v
		}
	}
	if doc.ListWidth > 0 {
		l.listWidth = doc.ListWidth
	}
}

// Reset clears the auction back to a clean slate, keeping the catalog and
// the configured budget.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roster = nil
	l.rosterIndex = map[int]int{}
	l.paidTotal = 0
	l.priceMemo = map[int]int{}
	l.targets = append([]string(nil), formations.DefaultTargets...)
	l.tierOverrides = map[int]models.Tier{}
	l.notes = map[string]string{}
	l.favorites = map[string]bool{}
	l.discarded = map[string]bool{}
	logger.Info("Auction state reset")
}

// PlayerView is a catalog entry annotated with the auction-local state the
// list UI needs in one pass.
type PlayerView struct {
	models.Player
	Tier      models.Tier `json:"tier"`
	Favorite  bool        `json:"favorite"`
	Discarded bool        `json:"discarded"`
	Note      string      `json:"note,omitempty"`
	Rostered  bool        `json:"rostered"`
	PaidPrice int         `json:"paidPrice,omitempty"`
}

// Filter narrows the player list. Zero values mean "no constraint".
type Filter struct {
	Query         string
	Role          string
	Line          models.Line
	Tier          models.Tier
	OnlyFavorites bool
	HideDiscarded bool
	HideRostered  bool
}

// Players returns the catalog, annotated and filtered, in import order
func (l *Ledger) Players(f Filter) []PlayerView {
	l.mu.RLock()
	defer l.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]PlayerView, 0, len(l.players))

	for _, p := range l.players {
		view := PlayerView{
			Player:    p,
			Tier:      l.tierForLocked(p),
			Favorite:  l.favorites[p.Key()],
			Discarded: l.discarded[p.Key()],
			Note:      l.notes[p.Key()],
		}
		if idx, ok := l.rosterIndex[p.ID]; ok {
			view.Rostered = true
			view.PaidPrice = l.roster[idx].PaidPrice
		}

		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Team), query) {
			continue
		}
		if f.Role != "" && !hasRole(p.EligibleRoles, f.Role) {
			continue
		}
		if f.Line != "" && !onLine(p.EligibleRoles, f.Line) {
			continue
		}
		if f.Tier != "" && view.Tier != f.Tier {
			continue
		}
		if f.OnlyFavorites && !view.Favorite {
			continue
		}
		if f.HideDiscarded && view.Discarded {
			continue
		}
		if f.HideRostered && view.Rostered {
			continue
		}
		out = append(out, view)
	}
	return out
}

// Player returns a single annotated catalog entry
func (l *Ledger) Player(playerID int) (PlayerView, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.byID[playerID]
	if !ok {
		return PlayerView{}, ErrUnknownPlayer
	}
	view := PlayerView{
		Player:    p,
		Tier:      l.tierForLocked(p),
		Favorite:  l.favorites[p.Key()],
		Discarded: l.discarded[p.Key()],
		Note:      l.notes[p.Key()],
	}
	if idx, ok := l.rosterIndex[p.ID]; ok {
		view.Rostered = true
		view.PaidPrice = l.roster[idx].PaidPrice
	}
	return view, nil
}

func hasRole(eligible []string, role string) bool {
	for _, r := range eligible {
		if r == role {
			return true
		}
	}
	return false
}

func onLine(eligible []string, line models.Line) bool {
	for _, r := range eligible {
		if l, ok := roles.LineOf(r); ok && l == line {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	// deterministic export output
	sort.Strings(out)
	return out
}
