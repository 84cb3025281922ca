package engine

import (
	"context"
	"sync"

	"poker-rooms/models"
)

// Store persists table snapshots keyed by room id. The manager treats it as a
// cache: in-memory state is authoritative while a room is loaded.
type Store interface {
	Save(ctx context.Context, t *models.Table) error
	Load(ctx context.Context, tableID string) (*models.Table, error)
	Delete(ctx context.Context, tableID string) error
}

// Broadcaster receives a table's events in the order they were produced.
// Publish must not block.
type Broadcaster interface {
	Publish(ctx context.Context, tableID string, events []models.Event)
}

type nopStore struct{}

func (nopStore) Save(context.Context, *models.Table) error { return nil }
func (nopStore) Load(_ context.Context, id string) (*models.Table, error) {
	return nil, ErrRoomNotFound
}
func (nopStore) Delete(context.Context, string) error { return nil }

// MultiBroadcaster publishes to every broadcaster in order.
type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) Publish(ctx context.Context, tableID string, events []models.Event) {
	for _, b := range m {
		if b != nil {
			b.Publish(ctx, tableID, events)
		}
	}
}

// ChannelBroadcaster queues events on a buffered channel. When the buffer is
// full the event is dropped and counted.
type ChannelBroadcaster struct {
	ch      chan models.Event
	mu      sync.Mutex
	dropped int
}

func NewChannelBroadcaster(size int) *ChannelBroadcaster {
	return &ChannelBroadcaster{ch: make(chan models.Event, size)}
}

func (c *ChannelBroadcaster) Publish(_ context.Context, _ string, events []models.Event) {
	for _, e := range events {
		select {
		case c.ch <- e:
		default:
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		}
	}
}

func (c *ChannelBroadcaster) Events() <-chan models.Event {
	return c.ch
}

func (c *ChannelBroadcaster) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
