package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poker-rooms/internal/db"
	"poker-rooms/models"
)

type recordedEvent struct {
	roomID string
	event  models.Event
}

// HistoryRecorder is a Broadcaster that writes the outcome of every hand to
// hand_results. Publish only queues; Run does the writes.
type HistoryRecorder struct {
	db    *db.DB
	log   *zap.Logger
	queue chan recordedEvent
}

func NewHistoryRecorder(database *db.DB, log *zap.Logger) *HistoryRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &HistoryRecorder{
		db:    database,
		log:   log,
		queue: make(chan recordedEvent, 256),
	}
}

func (h *HistoryRecorder) Publish(_ context.Context, roomID string, events []models.Event) {
	for _, e := range events {
		if e.Event != models.EventShowdown && e.Event != models.EventPotAwarded {
			continue
		}
		select {
		case h.queue <- recordedEvent{roomID: roomID, event: e}:
		default:
			h.log.Warn("history queue full, hand result dropped",
				zap.String("room_id", roomID), zap.Uint64("sequence", e.Sequence))
		}
	}
}

// Run drains the queue until ctx is done, then writes whatever is left.
func (h *HistoryRecorder) Run(ctx context.Context) {
	for {
		select {
		case r := <-h.queue:
			h.write(ctx, r)
		case <-ctx.Done():
			for {
				select {
				case r := <-h.queue:
					h.write(context.Background(), r)
				default:
					return
				}
			}
		}
	}
}

func (h *HistoryRecorder) write(ctx context.Context, r recordedEvent) {
	if err := h.Record(ctx, r.roomID, r.event); err != nil {
		h.log.Error("hand result not recorded",
			zap.String("room_id", r.roomID), zap.String("event", r.event.Event), zap.Error(err))
	}
}

// Record stores a single showdown or pot-awarded event.
func (h *HistoryRecorder) Record(ctx context.Context, roomID string, e models.Event) error {
	result := HandResult{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		Sequence: e.Sequence,
	}

	var winners []models.Winner
	switch data := e.Data.(type) {
	case models.ShowdownEvent:
		result.HandNumber = data.HandNumber
		result.Showdown = true
		result.Pot = data.Pot
		result.Board = joinCards(data.Board)
		winners = data.Winners
	case models.PotAwardedEvent:
		result.HandNumber = data.HandNumber
		result.Pot = data.Amount
		winners = []models.Winner{{PlayerID: data.PlayerID, Amount: data.Amount}}
	default:
		return fmt.Errorf("event %s carries %T", e.Event, e.Data)
	}

	encoded, err := json.Marshal(winners)
	if err != nil {
		return fmt.Errorf("marshal winners: %w", err)
	}
	result.Winners = string(encoded)

	if err := h.db.WithContext(ctx).Create(&result).Error; err != nil {
		return fmt.Errorf("insert hand result: %w", err)
	}
	h.log.Debug("hand result recorded",
		zap.String("room_id", roomID), zap.Int("hand_number", result.HandNumber), zap.Int("pot", result.Pot))
	return nil
}

// History returns the latest hands of a room, newest first.
func (h *HistoryRecorder) History(ctx context.Context, roomID string, limit int) ([]HandResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var results []HandResult
	err := h.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("hand_number DESC").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", roomID, err)
	}
	return results, nil
}

func joinCards(cards []models.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
