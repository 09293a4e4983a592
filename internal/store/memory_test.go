package store

import (
	"errors"
	"testing"

	"github.com/fennih/fantahustler/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Load(); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("empty load: got %v, want ErrNoSnapshot", err)
	}

	doc := models.AuctionDocument{
		Budget:           600,
		TargetFormations: []string{"4-2-3-1"},
		Roster:           []models.RosterEntry{{PlayerID: 7, PaidPrice: 42}},
	}
	if err := s.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Budget != 600 || len(loaded.Roster) != 1 || loaded.Roster[0].PaidPrice != 42 {
		t.Errorf("loaded = %+v", loaded)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("load after reset: got %v, want ErrNoSnapshot", err)
	}
}
