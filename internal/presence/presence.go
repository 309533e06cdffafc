// Package presence reports whether a paired counterpart (the coach for a
// client, the client for a coach) is currently connected.
package presence

import (
	"context"
	"sync"
)

// Status is the counterpart's connection state. It starts unknown and stays
// unknown until the first sync event arrives; a watcher never guesses.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Channel is the presence topic subscription the watcher drives. The remote
// data client's PresenceChannel satisfies it.
type Channel interface {
	Subscribe(ctx context.Context, selfKey string) error
	Track(ctx context.Context, meta map[string]any) error
	OnSync(handler func(members map[string]struct{}))
	Unsubscribe(ctx context.Context) error
}

// Watcher owns one channel for one pairing. The component that starts a
// watcher must stop it; Stop guarantees no state change after it returns.
type Watcher struct {
	mu             sync.Mutex
	channel        Channel
	selfKey        string
	counterpartKey string
	status         Status
	stopped        bool
	onChange       func(Status)
}

// NewWatcher creates a watcher for the counterpart's key on the channel.
func NewWatcher(channel Channel, selfKey, counterpartKey string) *Watcher {
	return &Watcher{
		channel:        channel,
		selfKey:        selfKey,
		counterpartKey: counterpartKey,
		status:         StatusUnknown,
	}
}

// OnChange registers a callback invoked on every status transition. Must be
// set before Start.
func (w *Watcher) OnChange(fn func(Status)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start subscribes, announces this side's presence, and begins tracking the
// counterpart through sync events.
func (w *Watcher) Start(ctx context.Context) error {
	w.channel.OnSync(w.handleSync)
	if err := w.channel.Subscribe(ctx, w.selfKey); err != nil {
		return err
	}
	if err := w.channel.Track(ctx, map[string]any{"key": w.selfKey}); err != nil {
		// Tracking failed; release the subscription rather than leak it.
		_ = w.channel.Unsubscribe(ctx)
		return err
	}
	return nil
}

// Status returns the current state.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Stop unsubscribes and freezes the watcher. The status resets to unknown:
// without a live channel there is nothing to know.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = true
	w.status = StatusUnknown
	w.mu.Unlock()
	return w.channel.Unsubscribe(ctx)
}

func (w *Watcher) handleSync(members map[string]struct{}) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}

	next := StatusOffline
	if _, ok := members[w.counterpartKey]; ok {
		next = StatusOnline
	}
	changed := next != w.status
	w.status = next
	onChange := w.onChange
	w.mu.Unlock()

	if changed && onChange != nil {
		onChange(next)
	}
}
