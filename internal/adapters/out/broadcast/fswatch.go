// internal/adapters/out/broadcast/fswatch.go
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	cartdom "atelier/internal/domain/cart"
)

// FileBroadcaster delivers change notifications between processes sharing a
// file-backed storage origin, the way browser tabs share storage events.
//
// Broadcast writes the change descriptor to a sidecar event file next to the
// state file; an fsnotify watcher on the directory picks the write up in
// every process and hands the decoded descriptor to the subscriber, which
// filters its own origin. Event bursts are debounced.
type FileBroadcaster struct {
	eventPath string
	watcher   *fsnotify.Watcher

	mu      sync.Mutex
	handler func(cartdom.Change)
	done    chan struct{}
	closed  bool
}

// NewFileBroadcaster builds a broadcaster for the storage at statePath.
// The sidecar event file is statePath + ".events".
func NewFileBroadcaster(statePath string) (*FileBroadcaster, error) {
	p := strings.TrimSpace(statePath)
	if p == "" {
		return nil, errors.New("fswatch: state path is empty")
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	fb := &FileBroadcaster{
		eventPath: p + ".events",
		watcher:   w,
		done:      make(chan struct{}),
	}
	go fb.loop()
	return fb, nil
}

func (fb *FileBroadcaster) Broadcast(ctx context.Context, ch cartdom.Change) error {
	if fb == nil {
		return errors.New("fswatch: nil broadcaster")
	}
	fb.mu.Lock()
	closed := fb.closed
	fb.mu.Unlock()
	if closed {
		return errors.New("fswatch: closed")
	}

	b, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	tmp := fb.eventPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fb.eventPath)
}

func (fb *FileBroadcaster) Subscribe(handler func(cartdom.Change)) error {
	if fb == nil || handler == nil {
		return errors.New("fswatch: nil handler")
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return errors.New("fswatch: closed")
	}
	fb.handler = handler
	return nil
}

func (fb *FileBroadcaster) Close() error {
	if fb == nil {
		return nil
	}
	fb.mu.Lock()
	if fb.closed {
		fb.mu.Unlock()
		return nil
	}
	fb.closed = true
	fb.handler = nil
	close(fb.done)
	fb.mu.Unlock()
	return fb.watcher.Close()
}

// loop debounces watcher events for the sidecar file and dispatches the
// latest descriptor. Losing intermediate descriptors is fine: the handler
// reloads the full persisted state anyway.
func (fb *FileBroadcaster) loop() {
	const debounce = 50 * time.Millisecond

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-fb.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-fb.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != fb.eventPath {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case err, ok := <-fb.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[fswatch] watcher error: %v", err)

		case <-timerC:
			fb.dispatch()
		}
	}
}

func (fb *FileBroadcaster) dispatch() {
	b, err := os.ReadFile(fb.eventPath)
	if err != nil {
		log.Printf("[fswatch] read event file: %v", err)
		return
	}
	var ch cartdom.Change
	if err := json.Unmarshal(b, &ch); err != nil {
		log.Printf("[fswatch] decode event file: %v", err)
		return
	}

	fb.mu.Lock()
	handler := fb.handler
	closed := fb.closed
	fb.mu.Unlock()
	if closed || handler == nil {
		return
	}
	handler(ch)
}
