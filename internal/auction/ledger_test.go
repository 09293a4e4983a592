package auction

import (
	"errors"
	"os"
	"testing"

	"github.com/fennih/fantahustler/internal/catalog"
	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func testCatalog() []models.Player {
	players, _ := catalog.ImportRows([]catalog.RawRow{
		{Name: "Sommer", Team: "Inter", Role: "Por", Valuation: "120", Quotation: "18"},
		{Name: "Bastoni", Team: "Inter", Role: "Dc", Valuation: "250", Quotation: "25"},
		{Name: "Dimarco", Team: "Inter", Role: "Ds;E", Valuation: "310", Quotation: "28"},
		{Name: "Barella", Team: "Inter", Role: "M;C", Valuation: "280", Quotation: "30"},
		{Name: "Lautaro", Team: "Inter", Role: "A;Pc", Valuation: "480", Quotation: "40"},
	}, DefaultBudgetMax)
	return players
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(DefaultBudgetMax, 0)
	l.ReplaceCatalog(testCatalog())
	return l
}

func TestAcquireAndBudget(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Acquire(5, 200); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Acquire(2, 80); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	b := l.Budget()
	if b.Remaining != DefaultBudgetMax-280 {
		t.Errorf("remaining = %d, want %d", b.Remaining, DefaultBudgetMax-280)
	}

	roster := l.Roster()
	if len(roster) != 2 {
		t.Fatalf("roster size = %d, want 2", len(roster))
	}
	if roster[0].Name != "Lautaro" || roster[0].PaidPrice != 200 {
		t.Errorf("first entry = %s at %d, want Lautaro at 200", roster[0].Name, roster[0].PaidPrice)
	}
}

func TestAcquireErrors(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Acquire(99, 10); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("unknown player: got %v, want ErrUnknownPlayer", err)
	}
	if err := l.Acquire(1, -5); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative price: got %v, want ErrInvalidPrice", err)
	}
	if err := l.Acquire(1, 20); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Acquire(1, 25); !errors.Is(err, ErrAlreadyRostered) {
		t.Errorf("double acquire: got %v, want ErrAlreadyRostered", err)
	}
}

func TestAcquireAllowsOverspend(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Acquire(5, DefaultBudgetMax+100); err != nil {
		t.Fatalf("over-budget acquire should succeed: %v", err)
	}
	if b := l.Budget(); b.Remaining != -100 {
		t.Errorf("remaining = %d, want -100", b.Remaining)
	}
}

func TestAcquireDefaultUsesSuggestedPrice(t *testing.T) {
	l := newTestLedger(t)

	// Sommer: valuation 120 on a 600 budget suggests 72.
	price, err := l.AcquireDefault(1)
	if err != nil {
		t.Fatalf("AcquireDefault: %v", err)
	}
	if price != 72 {
		t.Errorf("price = %d, want 72", price)
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax-72 {
		t.Errorf("remaining = %d, want %d", b.Remaining, DefaultBudgetMax-72)
	}

	if _, err := l.AcquireDefault(99); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("unknown player: got %v, want ErrUnknownPlayer", err)
	}
	if _, err := l.AcquireDefault(1); !errors.Is(err, ErrAlreadyRostered) {
		t.Errorf("double acquire: got %v, want ErrAlreadyRostered", err)
	}
}

func TestRepriceBeforeAcquirePlansPrice(t *testing.T) {
	l := newTestLedger(t)

	// A planned price for an unrostered player leaves the budget alone.
	if err := l.Reprice(2, 95); err != nil {
		t.Fatalf("Reprice unrostered: %v", err)
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax {
		t.Errorf("remaining = %d, planned price must not touch budget", b.Remaining)
	}

	price, err := l.AcquireDefault(2)
	if err != nil {
		t.Fatal(err)
	}
	if price != 95 {
		t.Errorf("price = %d, want planned 95", price)
	}

	// Release forgets the planned price; the next default acquisition is
	// back to the suggested 150.
	if err := l.Release(2); err != nil {
		t.Fatal(err)
	}
	price, err = l.AcquireDefault(2)
	if err != nil {
		t.Fatal(err)
	}
	if price != 150 {
		t.Errorf("price after release = %d, want suggested 150", price)
	}
}

func TestRepriceErrors(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Reprice(1, 0); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("zero price: got %v, want ErrInvalidPrice", err)
	}
	if err := l.Reprice(1, -10); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("negative price: got %v, want ErrInvalidPrice", err)
	}
	if err := l.Reprice(99, 10); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("unknown player: got %v, want ErrUnknownPlayer", err)
	}
}

func TestPlannedPricesSurviveSnapshot(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Reprice(3, 200); err != nil {
		t.Fatal(err)
	}
	doc := l.Snapshot()
	if doc.PaidPrices[3] != 200 {
		t.Fatalf("snapshot paidPrices = %v, want planned 200 for id 3", doc.PaidPrices)
	}

	restored := New(DefaultBudgetMax, 0)
	restored.Restore(doc)
	price, err := restored.AcquireDefault(3)
	if err != nil {
		t.Fatal(err)
	}
	if price != 200 {
		t.Errorf("restored planned price = %d, want 200", price)
	}
}

func TestReleaseRefunds(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Acquire(2, 80); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(4, 120); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(2); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax-120 {
		t.Errorf("remaining = %d, want %d", b.Remaining, DefaultBudgetMax-120)
	}
	if err := l.Release(2); !errors.Is(err, ErrNotRostered) {
		t.Errorf("double release: got %v, want ErrNotRostered", err)
	}
	// The remaining entry is still addressable after the slice shifted.
	if err := l.Reprice(4, 130); err != nil {
		t.Fatalf("Reprice after release: %v", err)
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax-130 {
		t.Errorf("remaining = %d, want %d", b.Remaining, DefaultBudgetMax-130)
	}
}

func TestAssignRole(t *testing.T) {
	l := newTestLedger(t)

	if err := l.AssignRole(4, "C"); !errors.Is(err, ErrNotRostered) {
		t.Errorf("assign before acquire: got %v, want ErrNotRostered", err)
	}
	if err := l.Acquire(4, 100); err != nil {
		t.Fatal(err)
	}
	if err := l.AssignRole(4, "Pc"); !errors.Is(err, ErrInvalidAssignment) {
		t.Errorf("ineligible role: got %v, want ErrInvalidAssignment", err)
	}
	if err := l.AssignRole(4, "C"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	cov := l.Coverage()
	if cov.Roles["M"] != 0 || cov.Roles["C"] != 1 {
		t.Errorf("coverage after pin = %+v, want only C", cov.Roles)
	}

	if err := l.ClearRoleAssignment(4); err != nil {
		t.Fatalf("ClearRoleAssignment: %v", err)
	}
	cov = l.Coverage()
	if cov.Roles["M"] != 1 || cov.Roles["C"] != 1 {
		t.Errorf("coverage after clear = %+v, want both M and C", cov.Roles)
	}
}

func TestSetTargets(t *testing.T) {
	l := newTestLedger(t)

	if err := l.SetTargets([]string{"4-2-3-1", "9-9-9"}); !errors.Is(err, ErrUnknownFormation) {
		t.Errorf("unknown formation: got %v, want ErrUnknownFormation", err)
	}
	// Rejected call leaves the default target untouched.
	if got := l.Targets(); len(got) != 1 || got[0] != "4-2-3-1" {
		t.Errorf("targets after rejected call = %v", got)
	}

	if err := l.SetTargets([]string{"3-5-2", "4-3-3", "3-5-2"}); err != nil {
		t.Fatalf("SetTargets: %v", err)
	}
	got := l.Targets()
	if len(got) != 2 || got[0] != "3-5-2" || got[1] != "4-3-3" {
		t.Errorf("targets = %v, want deduped [3-5-2 4-3-3]", got)
	}
}

func TestSetBudgetMaxRescalesPrices(t *testing.T) {
	l := newTestLedger(t)

	if err := l.SetBudgetMax(0); !errors.Is(err, ErrInvalidBudget) {
		t.Errorf("zero budget: got %v, want ErrInvalidBudget", err)
	}
	if err := l.SetBudgetMax(1000); err != nil {
		t.Fatal(err)
	}

	// Lautaro's FVM 480 on a 1000 budget suggests 480.
	view, err := l.Player(5)
	if err != nil {
		t.Fatal(err)
	}
	if view.SuggestedPrice != 480 {
		t.Errorf("suggested price = %d, want 480", view.SuggestedPrice)
	}
	if b := l.Budget(); b.Max != 1000 {
		t.Errorf("budget max = %d, want 1000", b.Max)
	}
}

func TestTierOverride(t *testing.T) {
	l := newTestLedger(t)

	view, _ := l.Player(1)
	if view.Tier != models.TierGood {
		t.Fatalf("Sommer auto tier = %s, want good", view.Tier)
	}
	if err := l.SetTier(1, models.TierGamble); err != nil {
		t.Fatal(err)
	}
	if view, _ = l.Player(1); view.Tier != models.TierGamble {
		t.Errorf("tier after override = %s, want gamble", view.Tier)
	}
	if err := l.SetTier(1, ""); err != nil {
		t.Fatal(err)
	}
	if view, _ = l.Player(1); view.Tier != models.TierGood {
		t.Errorf("tier after clearing override = %s, want good", view.Tier)
	}
}

func TestNotesSurviveReimport(t *testing.T) {
	l := newTestLedger(t)

	if err := l.SetNote(3, "great set pieces"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetFavorite(3, true); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(3, 150); err != nil {
		t.Fatal(err)
	}

	// Re-import shuffles IDs: Dimarco is now id 1.
	players, _ := catalog.ImportRows([]catalog.RawRow{
		{Name: "Dimarco", Team: "Inter", Role: "Ds;E", Valuation: "310", Quotation: "28"},
		{Name: "Sommer", Team: "Inter", Role: "Por", Valuation: "120", Quotation: "18"},
	}, DefaultBudgetMax)
	l.ReplaceCatalog(players)

	view, err := l.Player(1)
	if err != nil {
		t.Fatal(err)
	}
	if view.Name != "Dimarco" {
		t.Fatalf("id 1 is %s after re-import, want Dimarco", view.Name)
	}
	if view.Note != "great set pieces" || !view.Favorite {
		t.Errorf("note/favorite lost on re-import: %+v", view)
	}
	// ID-keyed state does not survive the swap.
	if view.Rostered {
		t.Error("roster should be cleared by re-import")
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax {
		t.Errorf("remaining = %d, want full budget after re-import", b.Remaining)
	}
}

func TestPlayersFilter(t *testing.T) {
	l := newTestLedger(t)

	if got := l.Players(Filter{Query: "laut"}); len(got) != 1 || got[0].Name != "Lautaro" {
		t.Errorf("query filter: got %d results", len(got))
	}
	if got := l.Players(Filter{Role: "E"}); len(got) != 1 || got[0].Name != "Dimarco" {
		t.Errorf("role filter should match secondary eligibility")
	}
	if got := l.Players(Filter{Line: models.LineMidfield}); len(got) != 2 {
		t.Errorf("midfield line filter: got %d results, want Dimarco and Barella", len(got))
	}

	if err := l.SetDiscarded(2, true); err != nil {
		t.Fatal(err)
	}
	if got := l.Players(Filter{HideDiscarded: true}); len(got) != 4 {
		t.Errorf("hide-discarded: got %d results, want 4", len(got))
	}

	if err := l.Acquire(1, 10); err != nil {
		t.Fatal(err)
	}
	if got := l.Players(Filter{HideRostered: true}); len(got) != 4 {
		t.Errorf("hide-rostered: got %d results, want 4", len(got))
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Acquire(5, 220); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(4, 90); err != nil {
		t.Fatal(err)
	}
	if err := l.AssignRole(4, "C"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetTargets([]string{"4-3-3"}); err != nil {
		t.Fatal(err)
	}
	if err := l.SetTier(2, models.TierSupertop); err != nil {
		t.Fatal(err)
	}
	if err := l.SetNote(5, "go all in"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetDiscarded(1, true); err != nil {
		t.Fatal(err)
	}

	doc := l.Snapshot()
	if doc.ExportedAt == "" {
		t.Error("snapshot missing export timestamp")
	}

	restored := New(DefaultBudgetMax, 0)
	restored.ReplaceCatalog(testCatalog())
	restored.Restore(doc)

	if b := restored.Budget(); b.Remaining != DefaultBudgetMax-310 {
		t.Errorf("restored remaining = %d, want %d", b.Remaining, DefaultBudgetMax-310)
	}
	roster := restored.Roster()
	if len(roster) != 2 || roster[0].Name != "Lautaro" || roster[1].RoleAssignment != "C" {
		t.Errorf("restored roster = %+v", roster)
	}
	if got := restored.Targets(); len(got) != 1 || got[0] != "4-3-3" {
		t.Errorf("restored targets = %v", got)
	}
	view, _ := restored.Player(2)
	if view.Tier != models.TierSupertop {
		t.Errorf("restored tier override = %s", view.Tier)
	}
	view, _ = restored.Player(5)
	if view.Note != "go all in" {
		t.Errorf("restored note = %q", view.Note)
	}
	view, _ = restored.Player(1)
	if !view.Discarded {
		t.Error("restored discard flag missing")
	}
}

func TestRestoreCarriesCatalog(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Acquire(4, 90); err != nil {
		t.Fatal(err)
	}
	doc := l.Snapshot()

	// A fresh process starts with an empty catalog; the snapshot brings
	// both the catalog and the roster back.
	fresh := New(DefaultBudgetMax, 0)
	fresh.Restore(doc)

	if got := fresh.Players(Filter{}); len(got) != 5 {
		t.Fatalf("catalog size after restore = %d, want 5", len(got))
	}
	roster := fresh.Roster()
	if len(roster) != 1 || roster[0].Name != "Barella" || roster[0].PaidPrice != 90 {
		t.Errorf("roster after restore = %+v", roster)
	}
}

func TestRestorePartialDocument(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Acquire(1, 15); err != nil {
		t.Fatal(err)
	}

	// A document carrying only a budget change leaves everything else be.
	l.Restore(models.AuctionDocument{Budget: 500})

	if b := l.Budget(); b.Max != 500 || b.Remaining != 485 {
		t.Errorf("budget = %+v, want max 500, remaining 485", b)
	}
	if len(l.Roster()) != 1 {
		t.Error("roster lost on partial restore")
	}
	if got := l.Targets(); len(got) != 1 || got[0] != "4-2-3-1" {
		t.Errorf("targets changed on partial restore: %v", got)
	}
}

func TestRestoreSkipsUnknownEntries(t *testing.T) {
	l := newTestLedger(t)

	l.Restore(models.AuctionDocument{
		Roster: []models.RosterEntry{
			{PlayerID: 99, PaidPrice: 50},
			{PlayerID: 2, PaidPrice: 70},
		},
		TargetFormations: []string{"4-4-2", "0-0-0"},
	})

	roster := l.Roster()
	if len(roster) != 1 || roster[0].Name != "Bastoni" {
		t.Errorf("restored roster = %+v, want only Bastoni", roster)
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax-70 {
		t.Errorf("remaining = %d, want %d", b.Remaining, DefaultBudgetMax-70)
	}
	if got := l.Targets(); len(got) != 1 || got[0] != "4-4-2" {
		t.Errorf("targets = %v, want only 4-4-2", got)
	}
}

func TestReset(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Acquire(5, 300); err != nil {
		t.Fatal(err)
	}
	if err := l.SetNote(5, "note"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetTargets([]string{"3-4-3"}); err != nil {
		t.Fatal(err)
	}

	l.Reset()

	if len(l.Roster()) != 0 {
		t.Error("roster not cleared")
	}
	if b := l.Budget(); b.Remaining != DefaultBudgetMax {
		t.Errorf("remaining = %d, want full budget", b.Remaining)
	}
	if got := l.Targets(); len(got) != 1 || got[0] != "4-2-3-1" {
		t.Errorf("targets = %v, want default", got)
	}
	view, _ := l.Player(5)
	if view.Note != "" {
		t.Error("note not cleared")
	}
	// Catalog itself survives a reset.
	if got := l.Players(Filter{}); len(got) != 5 {
		t.Errorf("catalog size after reset = %d, want 5", len(got))
	}
}

func TestSuggestionsFromLedger(t *testing.T) {
	l := newTestLedger(t)

	got := l.Suggestions()
	if len(got) != 1 || got[0].Kind != "bootstrap" {
		t.Fatalf("empty roster suggestions = %+v, want bootstrap only", got)
	}

	if err := l.Acquire(1, 15); err != nil {
		t.Fatal(err)
	}
	got = l.Suggestions()
	if len(got) == 0 {
		t.Fatal("no suggestions with open line shortfalls")
	}
	for _, s := range got {
		if s.Kind == "bootstrap" {
			t.Error("bootstrap suggestion after first acquisition")
		}
	}
}
