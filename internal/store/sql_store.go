package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poker-rooms/engine"
	"poker-rooms/internal/db"
	"poker-rooms/models"
)

// SQLStore keeps room snapshots in the database.
type SQLStore struct {
	db  *db.DB
	log *zap.Logger
}

// Migrate creates the tables used by this package.
func Migrate(database *db.DB) error {
	if err := database.AutoMigrate(&RoomSnapshot{}, &HandResult{}); err != nil {
		return fmt.Errorf("failed to migrate store tables: %w", err)
	}
	return nil
}

func NewSQLStore(database *db.DB, log *zap.Logger) *SQLStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLStore{db: database, log: log}
}

func (s *SQLStore) Save(ctx context.Context, t *models.Table) error {
	state, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", t.TableID, err)
	}
	snap := RoomSnapshot{
		RoomID:        t.TableID,
		Name:          t.Name,
		Status:        string(t.Status),
		HandNumber:    t.HandNumber,
		EventSequence: t.EventSequence,
		State:         string(state),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "status", "hand_number", "event_sequence", "state", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("save room %s: %w", t.TableID, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, roomID string) (*models.Table, error) {
	var snap RoomSnapshot
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("room %s: %w", roomID, engine.ErrRoomNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	return decodeTable(snap.State)
}

func (s *SQLStore) Delete(ctx context.Context, roomID string) error {
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).Delete(&RoomSnapshot{}).Error; err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

// OpenRoomIDs lists rooms that have not ended, oldest first.
func (s *SQLStore) OpenRoomIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&RoomSnapshot{}).
		Where("status <> ?", string(models.StatusEnded)).
		Order("updated_at").
		Pluck("room_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list open rooms: %w", err)
	}
	return ids, nil
}

func decodeTable(state string) (*models.Table, error) {
	var t models.Table
	if err := json.Unmarshal([]byte(state), &t); err != nil {
		return nil, fmt.Errorf("decode room snapshot: %w", err)
	}
	t.SortSeats()
	return &t, nil
}
