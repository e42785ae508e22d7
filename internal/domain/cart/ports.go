// internal/domain/cart/ports.go
package cart

import "context"

// Storage is the persistence port for the durable cart subset.
//
// The payload is keyed by a fixed namespace string scoped to the storage
// origin (one cart per origin). Implementations:
// - memory (tests)
// - single JSON document on disk
// - badger embedded KV
// - postgres key/value table
//
// Save/Load failures are tolerated by the store: a failed persist is logged
// and never propagated into the mutation that triggered it.
type Storage interface {
	// Save writes the durable subset, replacing any previous payload.
	Save(ctx context.Context, p Persisted) error

	// Load reads the durable subset.
	// Returns ok=false (and no error) when nothing was ever persisted.
	Load(ctx context.Context) (p Persisted, ok bool, err error)
}

// Change describes one state change for cross-context notification.
// Origin identifies the emitting execution context so subscribers can skip
// their own events.
type Change struct {
	Origin string `json:"origin"`
	Op     string `json:"op"`
	LineID string `json:"lineId,omitempty"`
}

// Change ops.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpClear  = "clear"
	OpPromo  = "promo"
	OpSync   = "sync"
	OpMerge  = "merge"
)

// Broadcaster propagates change notifications between execution contexts
// sharing the same storage origin (tabs, windows, processes).
//
// There is no locking around the shared payload: notify-then-reload
// substitutes for a lock, accepting a small window of staleness.
type Broadcaster interface {
	// Broadcast notifies other contexts. Best-effort; errors are logged by
	// the caller, never surfaced to the UI.
	Broadcast(ctx context.Context, ch Change) error

	// Subscribe registers a handler for changes emitted by any context
	// (including this one; filter on Change.Origin). Only one handler per
	// subscriber is needed by the engine.
	Subscribe(handler func(Change)) error

	// Close releases the channel and stops delivering notifications.
	Close() error
}
