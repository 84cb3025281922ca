// Package turnclock folds players who sit on their turn for too long.
package turnclock

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"poker-rooms/models"
)

// Actor applies an action to a room, provided the room is still at the
// given action sequence.
type Actor interface {
	ActAt(ctx context.Context, roomID string, action models.Action, sequence uint64) error
}

type pending struct {
	playerID string
	sequence uint64
	deadline time.Time
	timer    *time.Timer
}

// Clock is a Broadcaster: every turn-changed event restarts the room's timer,
// the end of a hand clears it. When a timer fires the player is folded.
type Clock struct {
	timeout time.Duration
	actor   Actor
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]*pending
	stopped bool
}

func New(actor Actor, timeout time.Duration, log *zap.Logger) *Clock {
	if log == nil {
		log = zap.NewNop()
	}
	return &Clock{
		timeout: timeout,
		actor:   actor,
		log:     log,
		pending: make(map[string]*pending),
	}
}

// SetActor wires the actor after construction.
func (c *Clock) SetActor(actor Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actor = actor
}

func (c *Clock) Publish(_ context.Context, roomID string, events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.timeout <= 0 {
		return
	}

	for _, e := range events {
		switch e.Event {
		case models.EventTurnChanged:
			turn, ok := e.Data.(models.TurnChangedEvent)
			if !ok {
				continue
			}
			c.cancelLocked(roomID)
			c.scheduleLocked(roomID, turn.PlayerID, turn.ActionSequence)
		case models.EventShowdown, models.EventPotAwarded, models.EventRoomEnded:
			c.cancelLocked(roomID)
		}
	}
}

func (c *Clock) scheduleLocked(roomID, playerID string, sequence uint64) {
	p := &pending{
		playerID: playerID,
		sequence: sequence,
		deadline: time.Now().Add(c.timeout),
	}
	p.timer = time.AfterFunc(c.timeout, func() { c.expire(roomID, p) })
	c.pending[roomID] = p
}

func (c *Clock) cancelLocked(roomID string) {
	if p, ok := c.pending[roomID]; ok {
		p.timer.Stop()
		delete(c.pending, roomID)
	}
}

func (c *Clock) expire(roomID string, p *pending) {
	c.mu.Lock()
	if c.pending[roomID] != p {
		// superseded by a later turn
		c.mu.Unlock()
		return
	}
	delete(c.pending, roomID)
	actor := c.actor
	c.mu.Unlock()

	if actor == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.log.Info("turn timed out, folding",
		zap.String("room_id", roomID),
		zap.String("player_id", p.playerID),
		zap.Uint64("action_sequence", p.sequence))
	err := actor.ActAt(ctx, roomID, models.Action{PlayerID: p.playerID, Kind: models.ActionFold}, p.sequence)
	if err != nil {
		c.log.Debug("timeout fold rejected", zap.String("room_id", roomID), zap.Error(err))
	}
}

// Deadline reports whose turn is being timed in a room and when it runs out.
func (c *Clock) Deadline(roomID string) (string, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[roomID]
	if !ok {
		return "", time.Time{}, false
	}
	return p.playerID, p.deadline, true
}

// Stop cancels every timer; later events are ignored.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for id := range c.pending {
		c.cancelLocked(id)
	}
}
