package server

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"poker-rooms/engine"
	"poker-rooms/models"
)

type lineClient struct {
	t       *testing.T
	conn    net.Conn
	reader  *bufio.Reader
	backlog []map[string]interface{}
}

func dial(t *testing.T, srv *TCPServer) *lineClient {
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &lineClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *lineClient) send(command string, data map[string]interface{}) {
	line, err := json.Marshal(models.Command{Command: command, Data: data})
	require.NoError(c.t, err)
	_, err = c.conn.Write(append(line, '\n'))
	require.NoError(c.t, err)
}

func (c *lineClient) sendRaw(line string) {
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

// next returns the first line satisfying match. Lines skipped on the way are
// kept for later calls, since events and responses may interleave.
func (c *lineClient) next(match func(map[string]interface{}) bool) map[string]interface{} {
	for i, msg := range c.backlog {
		if match(msg) {
			c.backlog = append(c.backlog[:i], c.backlog[i+1:]...)
			return msg
		}
	}
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		line, err := c.reader.ReadBytes('\n')
		require.NoError(c.t, err)
		var msg map[string]interface{}
		require.NoError(c.t, json.Unmarshal(line, &msg))
		if match(msg) {
			return msg
		}
		c.backlog = append(c.backlog, msg)
	}
}

func (c *lineClient) response() map[string]interface{} {
	return c.next(func(m map[string]interface{}) bool {
		_, ok := m["success"]
		return ok
	})
}

func (c *lineClient) event(name string) map[string]interface{} {
	return c.next(func(m map[string]interface{}) bool {
		return m["event"] == name
	})
}

// playerEvent waits for an event of the given name about playerID.
func (c *lineClient) playerEvent(name, playerID string) map[string]interface{} {
	return c.next(func(m map[string]interface{}) bool {
		data, _ := m["data"].(map[string]interface{})
		return m["event"] == name && data["playerId"] == playerID
	})
}

func startServer(t *testing.T) *TCPServer {
	events := engine.NewChannelBroadcaster(256)
	tm := engine.NewTableManager(
		engine.WithBroadcaster(events),
		engine.WithBcryptCost(bcrypt.MinCost),
		engine.WithSeed(11),
	)
	srv := NewTCPServer("127.0.0.1:0", tm, events.Events(), nil)
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	t.Cleanup(func() {
		srv.Stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv
}

func TestTCPServerInvalidJSON(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv)

	c.sendRaw("{not json")
	resp := c.response()
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, engine.ErrInvalidAction.Code, resp["code"])

	c.send("room.list", nil)
	resp = c.response()
	assert.Equal(t, true, resp["success"])
}

func TestTCPServerBroadcastsRoomEvents(t *testing.T) {
	srv := startServer(t)
	alice := dial(t, srv)
	bob := dial(t, srv)
	watcher := dial(t, srv)

	alice.send("room.create", map[string]interface{}{"tableId": "t1", "playerId": "alice", "playerName": "Alice"})
	require.Equal(t, true, alice.response()["success"])

	bob.send("player.join", map[string]interface{}{"tableId": "t1", "playerId": "bob", "playerName": "Bob"})
	require.Equal(t, true, bob.response()["success"])

	// alice was subscribed before her create ran, so she sees her own seat too
	assert.NotNil(t, alice.playerEvent(models.EventPlayerJoined, "alice"))
	assert.NotNil(t, alice.playerEvent(models.EventPlayerJoined, "bob"))
	assert.NotNil(t, bob.playerEvent(models.EventPlayerJoined, "bob"))

	alice.send("game.start", map[string]interface{}{"tableId": "t1", "playerId": "alice"})
	resp := alice.response()
	require.Equal(t, true, resp["success"], resp["error"])

	for _, c := range []*lineClient{alice, bob} {
		dealt := c.event(models.EventHandDealt)
		assert.Equal(t, "t1", dealt["tableId"])
		assert.NotContains(t, dealt["data"], "holeCards")
		assert.NotNil(t, c.playerEvent(models.EventTurnChanged, "alice"))
	}

	// the watcher never addressed t1 so it must see nothing but its own reply
	watcher.send("room.list", nil)
	first := watcher.next(func(map[string]interface{}) bool { return true })
	assert.Equal(t, true, first["success"])
	assert.NotContains(t, first, "event")
}

func TestTCPServerCreateWithoutIDSubscribesCreator(t *testing.T) {
	srv := startServer(t)
	alice := dial(t, srv)

	alice.send("room.create", map[string]interface{}{"playerId": "alice", "playerName": "Alice"})
	resp := alice.response()
	require.Equal(t, true, resp["success"], resp["error"])
	roomID := resp["data"].(map[string]interface{})["tableId"].(string)
	require.NotEmpty(t, roomID)

	joined := alice.playerEvent(models.EventPlayerJoined, "alice")
	assert.Equal(t, roomID, joined["tableId"])
}

func TestTCPServerFailedCommandDoesNotSubscribe(t *testing.T) {
	srv := startServer(t)
	alice := dial(t, srv)
	bob := dial(t, srv)

	alice.send("room.create", map[string]interface{}{"tableId": "t1", "playerId": "alice", "password": "secret"})
	require.Equal(t, true, alice.response()["success"])
	alice.playerEvent(models.EventPlayerJoined, "alice")

	bob.send("player.join", map[string]interface{}{"tableId": "t1", "playerId": "bob", "password": "wrong"})
	assert.Equal(t, false, bob.response()["success"])

	carol := dial(t, srv)
	carol.send("player.join", map[string]interface{}{"tableId": "t1", "playerId": "carol", "password": "secret"})
	require.Equal(t, true, carol.response()["success"])
	assert.NotNil(t, alice.playerEvent(models.EventPlayerJoined, "carol"))

	bob.send("room.list", nil)
	first := bob.next(func(map[string]interface{}) bool { return true })
	assert.Contains(t, first, "success", "bob must not receive room events after a rejected join")
}

func TestTCPServerStopClosesClients(t *testing.T) {
	events := engine.NewChannelBroadcaster(8)
	srv := NewTCPServer("127.0.0.1:0", engine.NewTableManager(), events.Events(), nil)
	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	c := dial(t, srv)
	c.send("room.list", nil)
	c.response()

	srv.Stop()
	srv.Stop()
	require.NoError(t, <-done)

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := c.reader.ReadByte()
	assert.Error(t, err)
}
