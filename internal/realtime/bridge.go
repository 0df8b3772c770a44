// Package realtime fans database change events out to in-process reloaders and websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"lodelita/internal/domain"
	"lodelita/internal/ws"

	"github.com/go-redis/redis/v8"
)

// Event describes one committed write to a watched table.
type Event struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    uint   `json:"id,omitempty"`
}

// Message is the websocket frame sent for each dispatched event.
type Message struct {
	Type string `json:"type"`
	Event
}

// Handler reloads whatever view depends on the event's table. It must not block for long.
type Handler func(ctx context.Context, ev Event)

// Bridge routes events to handlers registered per table. With a Redis client every instance
// receives every event through the changes channel; without one, events are dispatched in-process.
type Bridge struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	client   *redis.Client
	channel  string
	hub      *ws.Hub
}

func NewBridge(client *redis.Client, keyPrefix string, hub *ws.Hub) *Bridge {
	return &Bridge{
		handlers: make(map[string][]Handler),
		client:   client,
		channel:  keyPrefix + ":changes",
		hub:      hub,
	}
}

func (b *Bridge) Register(table string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[table] = append(b.handlers[table], h)
}

// Publish announces a change. Failures are logged and returned; the write itself already committed.
func (b *Bridge) Publish(ctx context.Context, ev Event) error {
	if b.client == nil {
		b.dispatch(ctx, ev)
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		slog.Error("publish change event", "table", ev.Table, "op", ev.Op, "error", err)
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Start subscribes to the changes channel and dispatches until ctx is done.
// It returns once the subscription is confirmed. Without Redis it does nothing.
func (b *Bridge) Start(ctx context.Context) error {
	if b.client == nil {
		return nil
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}
	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("discarding malformed change event", "error", err)
					continue
				}
				b.dispatch(ctx, ev)
			}
		}
	}()
	slog.Info("change bridge subscribed", "channel", b.channel)
	return nil
}

func (b *Bridge) dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[ev.Table]...)
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx, ev)
	}
	if b.hub == nil {
		return
	}
	msg := Message{Type: "change", Event: ev}
	if ev.Table == domain.TableOrders {
		b.hub.BroadcastAdmins(msg)
		return
	}
	b.hub.BroadcastAll(msg)
}
