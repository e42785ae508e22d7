// internal/adapters/out/storage/badger_store.go
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	cartdom "atelier/internal/domain/cart"
)

// defaultNamespace is the fixed storage key of the cart payload.
const defaultNamespace = "atelier/cart/state"

// BadgerConfig configures the embedded KV adapter.
type BadgerConfig struct {
	// Dir is the BadgerDB directory. Ignored when InMemory is true.
	Dir string

	// InMemory skips disk persistence (tests).
	InMemory bool

	// Namespace overrides the storage key. Defaults to defaultNamespace.
	Namespace string
}

// BadgerStorage persists the payload under a single key in an embedded
// BadgerDB. Suited to storefront clients that already run a local KV store
// and want crash-safe writes without managing files themselves.
type BadgerStorage struct {
	db  *badger.DB
	key []byte
}

// OpenBadgerStorage opens (or creates) the database. Caller must Close.
func OpenBadgerStorage(cfg BadgerConfig) (*BadgerStorage, error) {
	if !cfg.InMemory && strings.TrimSpace(cfg.Dir) == "" {
		return nil, errors.New("badger_storage: dir is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	ns := strings.TrimSpace(cfg.Namespace)
	if ns == "" {
		ns = defaultNamespace
	}
	return &BadgerStorage{db: db, key: []byte(ns)}, nil
}

func (b *BadgerStorage) Save(ctx context.Context, p cartdom.Persisted) error {
	if b == nil || b.db == nil {
		return errors.New("badger_storage: not open")
	}
	buf, err := cartdom.EncodePersisted(p)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, buf)
	})
}

func (b *BadgerStorage) Load(ctx context.Context) (cartdom.Persisted, bool, error) {
	empty := cartdom.Persisted{Items: []cartdom.Item{}}
	if b == nil || b.db == nil {
		return empty, false, errors.New("badger_storage: not open")
	}

	var buf []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return empty, false, nil
	}
	if err != nil {
		return empty, false, err
	}

	p, err := cartdom.DecodePersisted(buf)
	if err != nil {
		return empty, false, err
	}
	return p, true, nil
}

func (b *BadgerStorage) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}
