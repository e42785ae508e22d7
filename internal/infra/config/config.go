// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage kinds.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageBadger   = "badger"
	StoragePostgres = "postgres"
)

// Config holds the environment configuration of the cart engine.
type Config struct {
	// StorageKind selects the persistence adapter: memory | file | badger | postgres.
	StorageKind string

	// StatePath is the JSON state file for StorageFile (also the anchor of
	// the cross-process fswatch broadcaster).
	StatePath string

	// BadgerDir is the BadgerDB directory for StorageBadger.
	BadgerDir string

	// PostgresDSN is the connection string for StoragePostgres.
	PostgresDSN string

	// StorageOrigin scopes the postgres row / storage namespace.
	StorageOrigin string

	// Backend endpoints.
	CartServiceBaseURL string
	CatalogBaseURL     string

	// FirebaseProjectID configures the auth session adapter.
	FirebaseProjectID string

	// Pricing knobs.
	TaxRate               float64
	FlatShippingRate      int64
	FreeShippingThreshold int64
	PriceDriftEpsilon     int64

	// Reconciliation timing.
	SyncDebounce  time.Duration
	SyncHeartbeat time.Duration
}

// Load reads the environment and returns a Config.
func Load() *Config {
	return &Config{
		StorageKind:   getenvDefault("CART_STORAGE", StorageFile),
		StatePath:     getenvDefault("CART_STATE_PATH", defaultStatePath()),
		BadgerDir:     os.Getenv("CART_BADGER_DIR"),
		PostgresDSN:   os.Getenv("CART_POSTGRES_DSN"),
		StorageOrigin: getenvDefault("CART_STORAGE_ORIGIN", "default"),

		CartServiceBaseURL: os.Getenv("CART_SERVICE_BASE_URL"),
		CatalogBaseURL:     os.Getenv("CATALOG_BASE_URL"),

		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),

		TaxRate:               getenvFloat("CART_TAX_RATE", 0.05),
		FlatShippingRate:      getenvInt64("CART_FLAT_SHIPPING_RATE", 500),
		FreeShippingThreshold: getenvInt64("CART_FREE_SHIPPING_THRESHOLD", 10000),
		PriceDriftEpsilon:     getenvInt64("CART_PRICE_DRIFT_EPSILON", 0),

		SyncDebounce:  getenvDuration("CART_SYNC_DEBOUNCE", time.Second),
		SyncHeartbeat: getenvDuration("CART_SYNC_HEARTBEAT", 30*time.Second),
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "cart-state.json"
	}
	return home + "/.atelier/cart-state.json"
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
