package store

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"poker-rooms/engine"
	"poker-rooms/internal/db"
	"poker-rooms/internal/redis"
	"poker-rooms/models"
)

func setupTestDB(t *testing.T) *db.DB {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	database := &db.DB{DB: gormDB}
	require.NoError(t, Migrate(database))
	return database
}

func playingTable(t *testing.T, id string) *models.Table {
	table, err := engine.NewTable(id, "Friday game", models.TableConfig{MinPlayers: 2, MaxPlayers: 4}, "")
	require.NoError(t, err)
	g := engine.NewGame(table, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, g.Join("alice", "Alice", "", true))
	require.NoError(t, g.Join("bob", "Bob", "", false))
	require.NoError(t, g.StartHand())
	return table
}

func TestSQLStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t), zap.NewNop())
	table := playingTable(t, "room-1")

	require.NoError(t, s.Save(ctx, table))
	loaded, err := s.Load(ctx, "room-1")
	require.NoError(t, err)

	assert.Equal(t, table.TableID, loaded.TableID)
	assert.Equal(t, models.StatusPlaying, loaded.Status)
	assert.Equal(t, table.CurrentTurn, loaded.CurrentTurn)
	assert.Equal(t, table.CommunityCards, loaded.CommunityCards)
	require.Len(t, loaded.Players, 2)
	assert.Equal(t, table.Players[0].HoleCards, loaded.Players[0].HoleCards)
	assert.Nil(t, loaded.Deck)
}

func TestSQLStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	s := NewSQLStore(database, nil)
	table := playingTable(t, "room-1")
	require.NoError(t, s.Save(ctx, table))

	table.Status = models.StatusEnded
	table.EventSequence = 99
	require.NoError(t, s.Save(ctx, table))

	var count int64
	require.NoError(t, database.Model(&RoomSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	loaded, err := s.Load(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, loaded.Status)
	assert.Equal(t, uint64(99), loaded.EventSequence)
}

func TestSQLStore_LoadMissing(t *testing.T) {
	s := NewSQLStore(setupTestDB(t), nil)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
}

func TestSQLStore_OpenRoomIDsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(setupTestDB(t), nil)

	open := playingTable(t, "open")
	ended := playingTable(t, "ended")
	ended.Status = models.StatusEnded
	require.NoError(t, s.Save(ctx, open))
	require.NoError(t, s.Save(ctx, ended))

	ids, err := s.OpenRoomIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"open"}, ids)

	require.NoError(t, s.Delete(ctx, "open"))
	_, err = s.Load(ctx, "open")
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
}

func TestHistoryRecorder_Record(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryRecorder(setupTestDB(t), nil)

	require.NoError(t, h.Record(ctx, "room-1", models.Event{
		Event:    models.EventPotAwarded,
		Sequence: 5,
		Data:     models.PotAwardedEvent{HandNumber: 1, PlayerID: "alice", Amount: 30},
	}))
	require.NoError(t, h.Record(ctx, "room-1", models.Event{
		Event:    models.EventShowdown,
		Sequence: 17,
		Data: models.ShowdownEvent{
			HandNumber: 2,
			Board:      models.MustParseCards("2s 5s 9s Ks 3h"),
			Winners:    []models.Winner{{PlayerID: "bob", Amount: 200, HandRank: "Flush"}},
			Pot:        200,
		},
	}))

	results, err := h.History(ctx, "room-1", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2, results[0].HandNumber)
	assert.True(t, results[0].Showdown)
	assert.Equal(t, "2s 5s 9s Ks 3h", results[0].Board)
	var winners []models.Winner
	require.NoError(t, json.Unmarshal([]byte(results[0].Winners), &winners))
	assert.Equal(t, "bob", winners[0].PlayerID)
	assert.Equal(t, "Flush", winners[0].HandRank)

	assert.Equal(t, 1, results[1].HandNumber)
	assert.False(t, results[1].Showdown)
	assert.Equal(t, 30, results[1].Pot)
}

func TestHistoryRecorder_RecordRejectsOtherPayloads(t *testing.T) {
	h := NewHistoryRecorder(setupTestDB(t), nil)
	err := h.Record(context.Background(), "r", models.Event{Event: models.EventShowdown, Data: "nope"})
	assert.Error(t, err)
}

func TestHistoryRecorder_PublishOnlyQueuesHandEnds(t *testing.T) {
	database := setupTestDB(t)
	h := NewHistoryRecorder(database, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	h.Publish(ctx, "room-1", []models.Event{
		{Event: models.EventBetPlaced, Data: models.BetPlacedEvent{PlayerID: "alice"}},
		{Event: models.EventPotAwarded, Data: models.PotAwardedEvent{HandNumber: 1, PlayerID: "alice", Amount: 10}},
	})

	assert.Eventually(t, func() bool {
		var count int64
		database.Model(&HandResult{}).Count(&count)
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRedisCache_FallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	backing := NewSQLStore(setupTestDB(t), nil)
	client := redis.Wrap(goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}), zap.NewNop())
	defer client.Close()

	cache := NewRedisCache(client, backing, time.Minute, nil)
	table := playingTable(t, "room-1")

	require.NoError(t, cache.Save(ctx, table))
	loaded, err := cache.Load(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, table.CurrentTurn, loaded.CurrentTurn)

	require.NoError(t, cache.Delete(ctx, "room-1"))
	_, err = cache.Load(ctx, "room-1")
	assert.ErrorIs(t, err, engine.ErrRoomNotFound)
}

func TestRoomKey(t *testing.T) {
	assert.Equal(t, "poker:room:abc", roomKey("abc"))
}
