// Package catalog normalizes raw price-list rows into validated Player
// records. Spreadsheet parsing itself lives outside this service; callers
// hand over rows already split into named fields.
package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/roles"
)

// ValuationScale is the FVM scale point that corresponds to the entire
// budget pool across the league, not a single user's budget
const ValuationScale = 1000

// RawRow is one row from the imported price list. Numeric fields arrive as
// raw strings; parse failures default to zero rather than failing the row.
type RawRow struct {
	Name      string `json:"name"`
	Team      string `json:"team"`
	Role      string `json:"role"`
	Valuation string `json:"valuation"`
	Quotation string `json:"quotation"`
}

// SuggestedPrice derives an opening bid from the valuation score:
// round(valuation/1000 * budgetMax), floored at 1 so even unknown players
// carry the minimum auction price.
func SuggestedPrice(valuation float64, budgetMax int) int {
	price := int(math.Round(valuation / ValuationScale * float64(budgetMax)))
	if price < 1 {
		return 1
	}
	return price
}

// AutoTier bands a player by valuation score. Manual overrides in the
// ledger take precedence over this automatic assignment.
func AutoTier(valuation float64) models.Tier {
	switch {
	case valuation >= 300:
		return models.TierSupertop
	case valuation >= 200:
		return models.TierTop
	case valuation >= 100:
		return models.TierGood
	case valuation >= 50:
		return models.TierGamble
	default:
		return models.TierAvoid
	}
}

// ImportRows converts raw rows into Player records. Rows without a name
// are dropped; unparseable numerics default to zero. IDs are assigned by
// position in the accepted sequence. Zero accepted rows is a valid empty
// catalog, not an error.
func ImportRows(rows []RawRow, budgetMax int) (players []models.Player, dropped int) {
	players = make([]models.Player, 0, len(rows))

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			dropped++
			continue
		}

		primary, eligible := roles.ParseRole(row.Role)
		valuation := parseNumber(row.Valuation)
		quotation := parseNumber(row.Quotation)

		players = append(players, models.Player{
			ID:             len(players) + 1,
			Name:           name,
			Team:           strings.TrimSpace(row.Team),
			RoleField:      strings.TrimSpace(row.Role),
			PrimaryRole:    primary,
			EligibleRoles:  eligible,
			Valuation:      valuation,
			Quotation:      quotation,
			SuggestedPrice: SuggestedPrice(valuation, budgetMax),
		})
	}

	if dropped > 0 {
		logger.Warn("Dropped malformed price-list rows", "dropped", dropped, "accepted", len(players))
	}
	return players, dropped
}

// parseNumber reads a numeric cell, tolerating comma decimal separators.
// Anything unparseable counts as zero.
func parseNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
