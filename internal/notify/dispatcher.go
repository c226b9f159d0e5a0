// Package notify delivers notification events. Each event key is delivered
// at most once; delivered events are kept in a recent list, broadcast to
// websocket subscribers and written to the log.
package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/pnl-tracker/internal/model"
)

const (
	// MaxRecent bounds the in-app recent list.
	MaxRecent = 100
	// keyRetention is how long a delivered key is remembered.
	keyRetention = 14 * 24 * time.Hour
)

// Store persists the recent list and the delivered key set.
type Store interface {
	LoadRecent(ctx context.Context) ([]model.NotificationEvent, error)
	SaveRecent(ctx context.Context, events []model.NotificationEvent) error
	LoadDelivered(ctx context.Context) (map[string]time.Time, error)
	SaveDelivered(ctx context.Context, delivered map[string]time.Time) error
}

// Broadcaster pushes an event to live subscribers.
type Broadcaster interface {
	Broadcast(event model.NotificationEvent)
}

// Dispatcher delivers events once per key.
type Dispatcher struct {
	mu        sync.Mutex
	store     Store
	hub       Broadcaster
	logger    zerolog.Logger
	recent    []model.NotificationEvent
	delivered map[string]time.Time

	// OnDeliver, if set, is called for every delivered event.
	OnDeliver func(kind model.EventKind)
}

// NewDispatcher creates a Dispatcher and restores its state from store. hub
// may be nil.
func NewDispatcher(ctx context.Context, store Store, hub Broadcaster, logger zerolog.Logger) (*Dispatcher, error) {
	recent, err := store.LoadRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recent notifications: %w", err)
	}
	delivered, err := store.LoadDelivered(ctx)
	if err != nil {
		return nil, fmt.Errorf("load delivered notifications: %w", err)
	}
	return &Dispatcher{
		store:     store,
		hub:       hub,
		logger:    logger,
		recent:    recent,
		delivered: delivered,
	}, nil
}

// Deliver delivers the events whose key has not been delivered yet and
// returns them. State is persisted before returning.
func (d *Dispatcher) Deliver(ctx context.Context, events []model.NotificationEvent) ([]model.NotificationEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var fresh []model.NotificationEvent
	for _, e := range events {
		if _, seen := d.delivered[e.Key]; seen {
			continue
		}
		d.delivered[e.Key] = e.Timestamp
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	d.recent = append(d.recent, fresh...)
	if len(d.recent) > MaxRecent {
		d.recent = d.recent[len(d.recent)-MaxRecent:]
	}
	d.prune(fresh[len(fresh)-1].Timestamp)

	for _, e := range fresh {
		d.logger.Info().
			Str("kind", string(e.Kind)).
			Str("date", e.Date).
			Str("key", e.Key).
			Msg(e.Message)
		if d.hub != nil {
			d.hub.Broadcast(e)
		}
		if d.OnDeliver != nil {
			d.OnDeliver(e.Kind)
		}
	}

	if err := d.store.SaveRecent(ctx, d.recent); err != nil {
		return fresh, fmt.Errorf("save recent notifications: %w", err)
	}
	if err := d.store.SaveDelivered(ctx, d.delivered); err != nil {
		return fresh, fmt.Errorf("save delivered notifications: %w", err)
	}
	return fresh, nil
}

// prune forgets delivered keys older than the retention window.
func (d *Dispatcher) prune(now time.Time) {
	cutoff := now.Add(-keyRetention)
	for key, at := range d.delivered {
		if at.Before(cutoff) {
			delete(d.delivered, key)
		}
	}
}

// Recent returns up to n delivered events, newest first. n <= 0 returns all.
func (d *Dispatcher) Recent(n int) []model.NotificationEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.NotificationEvent, len(d.recent))
	copy(out, d.recent)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Delivered reports whether key has been delivered.
func (d *Dispatcher) Delivered(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.delivered[key]
	return ok
}
