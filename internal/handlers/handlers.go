package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fennih/fantahustler/internal/auction"
	"github.com/fennih/fantahustler/internal/catalog"
	"github.com/fennih/fantahustler/internal/engine"
	"github.com/fennih/fantahustler/internal/formations"
	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/models"
	"github.com/fennih/fantahustler/internal/pubsub"
	"github.com/fennih/fantahustler/internal/stats"
	"github.com/fennih/fantahustler/internal/store"
)

// APIHandlers contains all API handler methods
type APIHandlers struct {
	ledger *auction.Ledger
	store  store.AuctionStore
	pubsub *pubsub.Broker
	stats  stats.Provider
}

// NewAPIHandlers creates a new API handlers instance. The stats provider
// may be nil; the stats endpoint then reports unavailability.
func NewAPIHandlers(ledger *auction.Ledger, st store.AuctionStore, ps *pubsub.Broker, sp stats.Provider) *APIHandlers {
	return &APIHandlers{
		ledger: ledger,
		store:  st,
		pubsub: ps,
		stats:  sp,
	}
}

// RegisterRoutes attaches all API routes to the mux
func (h *APIHandlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.GetState)
	mux.HandleFunc("/api/players", h.ListPlayers)
	mux.HandleFunc("/api/formations", h.ListFormations)
	mux.HandleFunc("/api/catalog/import", h.ImportCatalog)
	mux.HandleFunc("/api/roster/acquire", h.Acquire)
	mux.HandleFunc("/api/roster/release", h.Release)
	mux.HandleFunc("/api/roster/reprice", h.Reprice)
	mux.HandleFunc("/api/roster/assign-role", h.AssignRole)
	mux.HandleFunc("/api/targets", h.SetTargets)
	mux.HandleFunc("/api/budget", h.SetBudget)
	mux.HandleFunc("/api/player/tier", h.SetTier)
	mux.HandleFunc("/api/player/note", h.SetNote)
	mux.HandleFunc("/api/player/favorite", h.SetFavorite)
	mux.HandleFunc("/api/player/discard", h.SetDiscarded)
	mux.HandleFunc("/api/list-width", h.SetListWidth)
	mux.HandleFunc("/api/requirements", h.GetRequirements)
	mux.HandleFunc("/api/coverage", h.GetCoverage)
	mux.HandleFunc("/api/feasibility", h.GetFeasibility)
	mux.HandleFunc("/api/suggestions", h.GetSuggestions)
	mux.HandleFunc("/api/export", h.Export)
	mux.HandleFunc("/api/import", h.Import)
	mux.HandleFunc("/api/reset", h.Reset)
	mux.HandleFunc("/api/stats", h.GetPlayerStats)
	mux.HandleFunc("/api/events", h.EventsSSE)
}

// StateResponse bundles everything the board renders in one request
type StateResponse struct {
	Budget       models.Budget           `json:"budget"`
	Targets      []string                `json:"targets"`
	Roster       []models.RosterPlayer   `json:"roster"`
	Requirements engine.RequirementSet   `json:"requirements"`
	Coverage     engine.CoverageSet      `json:"coverage"`
	Checks       []engine.FormationCheck `json:"checks"`
	Suggestions  []models.Suggestion     `json:"suggestions"`
}

// GetState returns the full auction state with all derived figures
func (h *APIHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{
		Budget:       h.ledger.Budget(),
		Targets:      h.ledger.Targets(),
		Roster:       h.ledger.Roster(),
		Requirements: h.ledger.Requirements(),
		Coverage:     h.ledger.Coverage(),
		Checks:       h.ledger.Checks(),
		Suggestions:  h.ledger.Suggestions(),
	}
	writeJSON(w, resp)
}

// ListPlayers returns the annotated catalog, filtered by query params
func (h *APIHandlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := auction.Filter{
		Query:         q.Get("q"),
		Role:          q.Get("role"),
		Line:          models.Line(q.Get("line")),
		Tier:          models.Tier(q.Get("tier")),
		OnlyFavorites: q.Get("favorites") == "true",
		HideDiscarded: q.Get("hideDiscarded") == "true",
		HideRostered:  q.Get("hideRostered") == "true",
	}
	writeJSON(w, h.ledger.Players(filter))
}

// ListFormations returns the static formation catalog in display order
func (h *APIHandlers) ListFormations(w http.ResponseWriter, r *http.Request) {
	out := make([]formations.Formation, 0, len(formations.IDs))
	for _, id := range formations.IDs {
		if f, ok := formations.Get(id); ok {
			out = append(out, f)
		}
	}
	writeJSON(w, out)
}

// ImportCatalog replaces the price list with freshly imported rows
func (h *APIHandlers) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Rows []catalog.RawRow `json:"rows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode catalog import request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	players, dropped := catalog.ImportRows(req.Rows, h.ledger.Budget().Max)
	h.ledger.ReplaceCatalog(players)
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type: pubsub.EventCatalogReplaced,
		Payload: map[string]any{
			"accepted": len(players),
			"dropped":  dropped,
		},
	})

	writeJSON(w, map[string]int{"accepted": len(players), "dropped": dropped})
}

// Acquire records winning a player at auction
func (h *APIHandlers) Acquire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int  `json:"playerId"`
		Price    *int `json:"price"` // omitted: planned or suggested price
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var price int
	var err error
	if req.Price != nil {
		price = *req.Price
		err = h.ledger.Acquire(req.PlayerID, price)
	} else {
		price, err = h.ledger.AcquireDefault(req.PlayerID)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	logger.Info("Acquired player", "player_id", req.PlayerID, "price", price)
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type: pubsub.EventPlayerAcquired,
		Payload: map[string]any{
			"playerId": req.PlayerID,
			"price":    price,
		},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// Release removes a player from the roster, refunding the price
func (h *APIHandlers) Release(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("Releasing player", "player_id", req.PlayerID)
	if err := h.ledger.Release(req.PlayerID); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type:    pubsub.EventPlayerReleased,
		Payload: map[string]any{"playerId": req.PlayerID},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// Reprice corrects a recorded paid price
func (h *APIHandlers) Reprice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int `json:"playerId"`
		Price    int `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.Reprice(req.PlayerID, req.Price); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type: pubsub.EventPlayerRepriced,
		Payload: map[string]any{
			"playerId": req.PlayerID,
			"price":    req.Price,
		},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// AssignRole pins a rostered player to one role; an empty role clears the
// pin and restores optimistic counting.
func (h *APIHandlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int    `json:"playerId"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	if req.Role == "" {
		err = h.ledger.ClearRoleAssignment(req.PlayerID)
	} else {
		err = h.ledger.AssignRole(req.PlayerID, req.Role)
	}
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type: pubsub.EventRoleAssigned,
		Payload: map[string]any{
			"playerId": req.PlayerID,
			"role":     req.Role,
		},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// SetTargets replaces the target formation set
func (h *APIHandlers) SetTargets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.ledger.Targets())
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Formations []string `json:"formations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.SetTargets(req.Formations); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type:    pubsub.EventTargetsChanged,
		Payload: map[string]any{"formations": req.Formations},
	})

	writeJSON(w, h.ledger.Targets())
}

// SetBudget changes the league budget maximum
func (h *APIHandlers) SetBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Max int `json:"max"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.SetBudgetMax(req.Max); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type:    pubsub.EventBudgetChanged,
		Payload: map[string]any{"max": req.Max},
	})

	writeJSON(w, h.ledger.Budget())
}

// SetTier overrides the automatic value band for a player
func (h *APIHandlers) SetTier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int         `json:"playerId"`
		Tier     models.Tier `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.SetTier(req.PlayerID, req.Tier); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type: pubsub.EventTierChanged,
		Payload: map[string]any{
			"playerId": req.PlayerID,
			"tier":     string(req.Tier),
		},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// SetNote attaches a note to a player
func (h *APIHandlers) SetNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int    `json:"playerId"`
		Text     string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.SetNote(req.PlayerID, req.Text); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type:    pubsub.EventNoteChanged,
		Payload: map[string]any{"playerId": req.PlayerID},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// SetFavorite toggles the favorite flag
func (h *APIHandlers) SetFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, pubsub.EventFavoriteChanged, h.ledger.SetFavorite)
}

// SetDiscarded toggles the discarded flag
func (h *APIHandlers) SetDiscarded(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, pubsub.EventDiscardChanged, h.ledger.SetDiscarded)
}

func (h *APIHandlers) setFlag(w http.ResponseWriter, r *http.Request, eventType string, apply func(int, bool) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerID int  `json:"playerId"`
		On       bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := apply(req.PlayerID, req.On); err != nil {
		writeLedgerError(w, err)
		return
	}
	h.persist()

	h.pubsub.Publish(pubsub.Event{
		Type: eventType,
		Payload: map[string]any{
			"playerId": req.PlayerID,
			"on":       req.On,
		},
	})

	writeJSON(w, map[string]bool{"ok": true})
}

// SetListWidth stores the cosmetic list-width preference
func (h *APIHandlers) SetListWidth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Width int `json:"width"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.ledger.SetListWidth(req.Width)
	h.persist()
	writeJSON(w, map[string]bool{"ok": true})
}

// GetRequirements returns the reconciled roster requirements
func (h *APIHandlers) GetRequirements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ledger.Requirements())
}

// GetCoverage returns the current roster coverage counts
func (h *APIHandlers) GetCoverage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ledger.Coverage())
}

// GetFeasibility returns per-formation feasibility checks
func (h *APIHandlers) GetFeasibility(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ledger.Checks())
}

// GetSuggestions returns the current recommendations
func (h *APIHandlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ledger.Suggestions())
}

// Export returns the full auction document for download
func (h *APIHandlers) Export(w http.ResponseWriter, r *http.Request) {
	doc := h.ledger.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="auction.json"`)
	json.NewEncoder(w).Encode(doc)
}

// Import restores auction state from an uploaded document
func (h *APIHandlers) Import(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var doc models.AuctionDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		logger.Warn("Failed to decode imported auction document", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.ledger.Restore(doc)
	h.persist()

	h.pubsub.Publish(pubsub.Event{Type: pubsub.EventStateRestored})
	writeJSON(w, map[string]bool{"ok": true})
}

// Reset clears the auction back to a clean slate
func (h *APIHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger.Info("Resetting auction")
	h.ledger.Reset()
	if err := h.store.Reset(); err != nil {
		logger.Error("Failed to reset stored snapshot", "error", err)
	}

	h.pubsub.Publish(pubsub.Event{Type: pubsub.EventStateReset})
	writeJSON(w, map[string]bool{"ok": true})
}

// GetPlayerStats returns the season-stat overlay for one player
func (h *APIHandlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		http.Error(w, "Stats backend not configured", http.StatusServiceUnavailable)
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Missing or invalid id parameter", http.StatusBadRequest)
		return
	}

	view, err := h.ledger.Player(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	s, err := h.stats.PlayerStats(r.Context(), view.Name, view.Team)
	if err != nil {
		if stats.IsNotFound(err) {
			http.Error(w, "No stats for player", http.StatusNotFound)
			return
		}
		logger.Error("Stats lookup failed", "error", err, "player", view.Name)
		http.Error(w, "Stats backend unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, s)
}

// EventsSSE streams auction events to the browser
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.pubsub.Subscribe()
	defer h.pubsub.Unsubscribe(eventChan)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case event := <-eventChan:
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "data: %s\n\n", data)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-time.After(30 * time.Second):
			fmt.Fprintf(w, ": keepalive\n\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}

// persist writes the current snapshot to the store. Persistence failures
// are logged, never surfaced: losing a save beats blocking a live auction.
func (h *APIHandlers) persist() {
	if err := h.store.Save(h.ledger.Snapshot()); err != nil {
		logger.Error("Failed to persist auction snapshot", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeLedgerError maps ledger sentinel errors onto HTTP status codes
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auction.ErrUnknownPlayer):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, auction.ErrAlreadyRostered), errors.Is(err, auction.ErrNotRostered):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auction.ErrInvalidPrice),
		errors.Is(err, auction.ErrInvalidAssignment),
		errors.Is(err, auction.ErrUnknownFormation),
		errors.Is(err, auction.ErrInvalidBudget):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
