// internal/adapters/out/storage/memory.go
package storage

import (
	"context"
	"sync"

	cartdom "atelier/internal/domain/cart"
)

// MemoryStorage keeps the encoded payload in memory. Intended for tests and
// for running several store instances against one shared "origin" without
// touching disk.
//
// The payload is stored encoded, not as a struct, so load goes through the
// same tolerant decode path as the durable adapters.
type MemoryStorage struct {
	mu  sync.Mutex
	buf []byte
	set bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Save(ctx context.Context, p cartdom.Persisted) error {
	b, err := cartdom.EncodePersisted(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = b
	m.set = true
	return nil
}

func (m *MemoryStorage) Load(ctx context.Context) (cartdom.Persisted, bool, error) {
	m.mu.Lock()
	buf, set := m.buf, m.set
	m.mu.Unlock()

	if !set {
		return cartdom.Persisted{Items: []cartdom.Item{}}, false, nil
	}
	p, err := cartdom.DecodePersisted(buf)
	if err != nil {
		return cartdom.Persisted{Items: []cartdom.Item{}}, false, err
	}
	return p, true, nil
}
