// internal/adapters/out/broadcast/bus.go
package broadcast

import (
	"context"
	"errors"
	"sync"

	cartdom "atelier/internal/domain/cart"
)

// Bus is an in-process broadcaster: every subscriber (cart store) attached
// to the same Bus instance plays the role of one tab sharing a storage
// origin. Delivery is asynchronous so a broadcasting mutation never blocks
// on subscriber work.
type Bus struct {
	mu       sync.Mutex
	handlers []func(cartdom.Change)
	closed   bool
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Broadcast(ctx context.Context, ch cartdom.Change) error {
	if b == nil {
		return errors.New("broadcast_bus: nil bus")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("broadcast_bus: closed")
	}
	handlers := make([]func(cartdom.Change), len(b.handlers))
	copy(handlers, b.handlers)
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		for _, h := range handlers {
			h(ch)
		}
	}()
	return nil
}

func (b *Bus) Subscribe(handler func(cartdom.Change)) error {
	if b == nil || handler == nil {
		return errors.New("broadcast_bus: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("broadcast_bus: closed")
	}
	b.handlers = append(b.handlers, handler)
	return nil
}

// Close stops delivery and waits for in-flight notifications to drain.
func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	b.closed = true
	b.handlers = nil
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}
