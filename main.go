package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/fennih/fantahustler/internal/auction"
	"github.com/fennih/fantahustler/internal/config"
	"github.com/fennih/fantahustler/internal/formations"
	"github.com/fennih/fantahustler/internal/handlers"
	"github.com/fennih/fantahustler/internal/logger"
	"github.com/fennih/fantahustler/internal/mocks"
	"github.com/fennih/fantahustler/internal/pubsub"
	"github.com/fennih/fantahustler/internal/stats"
	"github.com/fennih/fantahustler/internal/store"
)

var (
	ledger    *auction.Ledger
	dataStore store.AuctionStore
)

func main() {
	// Initialize logger first
	logger.Init()

	logger.Info("Starting fantahustler auction assistant")

	// The formation tables are static config; a broken table is a build
	// defect and must stop the service before it serves any answer.
	if err := formations.Validate(); err != nil {
		logger.Error("Formation catalog is inconsistent", "error", err)
		log.Fatalf("Formation catalog is inconsistent: %v", err)
	}

	settings, err := config.Load(os.Getenv("SETTINGS_FILE"))
	if err != nil {
		logger.Error("Failed to load settings", "error", err)
		log.Fatalf("Failed to load settings: %v", err)
	}

	// Initialize the persistence driver
	dbDriver := os.Getenv("DB_DRIVER")
	if dbDriver == "" {
		dbDriver = "memory"
	}

	switch dbDriver {
	case "memory":
		dataStore = store.NewMemoryStore()
		logger.Info("Using in-memory snapshot store")
	case "sqlite":
		sqliteFile := os.Getenv("SQLITE_FILE")
		if sqliteFile == "" {
			sqliteFile = "auction.sqlite"
		}
		dataStore, err = store.NewSQLiteStore(sqliteFile)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", sqliteFile)
	case "postgres":
		dbConnString := os.Getenv("DATABASE_URL")
		if dbConnString == "" {
			logger.Error("DATABASE_URL environment variable is required for postgres driver")
			log.Fatal("DATABASE_URL environment variable is required for postgres driver")
		}
		dataStore, err = store.NewPostgresStore(dbConnString)
		if err != nil {
			logger.Error("Failed to initialize Postgres", "error", err)
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		logger.Info("Connected to Postgres database")
	default:
		logger.Error("Unknown DB_DRIVER", "driver", dbDriver)
		log.Fatalf("Unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", dbDriver)
	}

	// Event transport: embedded NATS in development, real NATS in production
	environment := os.Getenv("ENVIRONMENT")
	natsSubject := os.Getenv("NATS_SUBJECT")
	if natsSubject == "" {
		natsSubject = pubsub.DefaultSubject
	}

	var upstream pubsub.Upstream
	if environment == "" || environment == "development" {
		embedded, err := pubsub.NewEmbeddedNATSUpstream(pubsub.EmbeddedNATSOptions{
			Port:    -1,
			Subject: natsSubject,
		})
		if err != nil {
			logger.Error("Failed to start embedded NATS", "error", err)
			log.Fatalf("Failed to start embedded NATS: %v", err)
		}
		upstream = embedded
	} else {
		natsURL := os.Getenv("NATS_URL")
		if natsURL == "" {
			natsURL = "nats://localhost:4222"
		}
		real, err := pubsub.NewNATSUpstream(natsURL, natsSubject)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		upstream = real
	}
	broker := pubsub.NewWithUpstream(upstream)

	// Stats backend: mock in development, ClickHouse in production
	var statsProvider stats.Provider
	if environment == "" || environment == "development" {
		statsProvider = mocks.NewMockStatsProvider()
	} else {
		chAddr := os.Getenv("CLICKHOUSE_ADDR")
		if chAddr == "" {
			chAddr = "localhost:9000"
		}
		chDB := os.Getenv("CLICKHOUSE_DB")
		if chDB == "" {
			chDB = "default"
		}
		chUser := os.Getenv("CLICKHOUSE_USER")
		if chUser == "" {
			chUser = "default"
		}
		chPass := os.Getenv("CLICKHOUSE_PASSWORD")

		statsProvider, err = stats.NewClickHouseProvider(chAddr, chDB, chUser, chPass)
		if err != nil {
			// Stats are an overlay; the auction works without them.
			logger.Error("Failed to connect to ClickHouse, continuing without stats", "error", err)
			statsProvider = nil
		} else {
			logger.Info("Connected to ClickHouse", "address", chAddr, "database", chDB)
		}
	}

	// Build the ledger and restore the last session if one was saved
	ledger = auction.New(settings.BudgetMax, settings.TargetRosterSize)
	if err := ledger.SetTargets(settings.DefaultTargets); err != nil {
		logger.Error("Invalid default targets in settings", "error", err)
		log.Fatalf("Invalid default targets in settings: %v", err)
	}

	doc, err := dataStore.Load()
	switch {
	case err == nil:
		ledger.Restore(*doc)
		logger.Info("Restored auction snapshot", "rosterSize", len(doc.Roster))
	case errors.Is(err, store.ErrNoSnapshot):
		logger.Info("No stored auction snapshot, starting fresh")
	case errors.Is(err, store.ErrCorruptSnapshot):
		// A corrupt snapshot must not take the whole assistant down
		// mid-auction prep; start fresh and keep the error visible.
		logger.Error("Stored auction snapshot is corrupt, starting fresh", "error", err)
	default:
		logger.Error("Failed to load auction snapshot", "error", err)
		log.Fatalf("Failed to load auction snapshot: %v", err)
	}

	// HTTP routes
	mux := http.NewServeMux()

	api := handlers.NewAPIHandlers(ledger, dataStore, broker, statsProvider)
	api.RegisterRoutes(mux)

	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/healthz", livenessHandler)
	mux.HandleFunc("/readyz", readinessHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	addr := "0.0.0.0:" + port
	logger.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Server failed", "error", err)
		log.Fatal(err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if dataStore != nil {
		if _, err := dataStore.Load(); err != nil && !errors.Is(err, store.ErrNoSnapshot) {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks["store"] = map[string]any{"status": "unhealthy", "error": err.Error()}
		} else {
			checks["store"] = map[string]any{"status": "healthy"}
		}
	}

	checks["catalog"] = map[string]any{
		"status":  "healthy",
		"players": len(ledger.Players(auction.Filter{})),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// livenessHandler answers Kubernetes liveness probes without touching
// dependencies
func livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// readinessHandler checks the snapshot store before admitting traffic
func readinessHandler(w http.ResponseWriter, r *http.Request) {
	if dataStore != nil {
		if _, err := dataStore.Load(); err != nil && !errors.Is(err, store.ErrNoSnapshot) && !errors.Is(err, store.ErrCorruptSnapshot) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{
				"status":    "not_ready",
				"reason":    "store_unavailable",
				"timestamp": time.Now().Unix(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
