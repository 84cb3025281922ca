package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"poker-rooms/engine"
	"poker-rooms/internal/auth"
	"poker-rooms/models"
)

type testEnv struct {
	router *gin.Engine
	rooms  *engine.TableManager
}

func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)
	rooms := engine.NewTableManager(engine.WithBcryptCost(bcrypt.MinCost), engine.WithSeed(7))
	h := &Handler{Rooms: rooms, Auth: auth.NewService("test-secret")}
	return &testEnv{router: NewRouter(h, RouterConfig{}), rooms: rooms}
}

type guest struct {
	ID    string `json:"playerId"`
	Name  string `json:"name"`
	Token string `json:"token"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) guest(t *testing.T, name string) guest {
	w := e.do(t, http.MethodPost, "/api/auth/guest", "", map[string]string{"name": name})
	require.Equal(t, http.StatusOK, w.Code)
	var g guest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	require.NotEmpty(t, g.Token)
	return g
}

type roomResponse struct {
	Room models.Table `json:"room"`
}

func decodeRoom(t *testing.T, w *httptest.ResponseRecorder) models.Table {
	var resp roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Room
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func (e *testEnv) createRoom(t *testing.T, host guest, password string) string {
	w := e.do(t, http.MethodPost, "/api/rooms", host.Token, map[string]interface{}{
		"name":       "Friday",
		"minPlayers": 2,
		"maxPlayers": 4,
		"password":   password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	room := decodeRoom(t, w)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
	assert.Empty(t, room.PasswordHash)
	return room.TableID
}

func TestRequiresToken(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/api/rooms", "", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWrongPasswordRejected(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := e.guest(t, "alice"), e.guest(t, "bob")
	roomID := e.createRoom(t, alice, "hunter2")

	w := e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/join", bob.Token, map[string]string{"password": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "wrong_password", errorCode(t, w))

	table, err := e.rooms.GetTable(roomID)
	require.NoError(t, err)
	assert.Len(t, table.Players, 1)

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/join", bob.Token, map[string]string{"password": "hunter2"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeRoom(t, w).Players, 2)
}

func TestPlayHandOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := e.guest(t, "alice"), e.guest(t, "bob")
	roomID := e.createRoom(t, alice, "")
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/join", bob.Token, nil).Code)

	w := e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/start", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	room := decodeRoom(t, w)
	assert.Equal(t, models.StatusPlaying, room.Status)
	assert.Equal(t, models.RoundPreflop, room.Round)
	assert.Empty(t, room.CommunityCards)
	assert.Equal(t, alice.ID, room.CurrentTurn)
	for _, p := range room.Players {
		if p.PlayerID == alice.ID {
			assert.Len(t, p.HoleCards, 2)
		} else {
			assert.Empty(t, p.HoleCards)
		}
	}

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/actions", bob.Token, map[string]interface{}{"action": "check"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "out_of_turn", errorCode(t, w))

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/actions", alice.Token, map[string]interface{}{"action": "shove"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/actions", alice.Token, map[string]interface{}{"action": "bet", "amount": "ten"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/actions", alice.Token, map[string]interface{}{"action": "bet", "amount": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	room = decodeRoom(t, w)
	assert.Equal(t, 10, room.Pot)
	assert.Equal(t, bob.ID, room.CurrentTurn)

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/actions", bob.Token, map[string]interface{}{"action": "fold"})
	require.Equal(t, http.StatusOK, w.Code)
	room = decodeRoom(t, w)
	assert.Equal(t, models.StatusWaiting, room.Status)
	require.NotNil(t, room.LastHand)
	assert.Equal(t, alice.ID, room.LastHand.Winners[0].PlayerID)
}

func TestEndRoomHostOnly(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := e.guest(t, "alice"), e.guest(t, "bob")
	roomID := e.createRoom(t, alice, "")
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/join", bob.Token, nil).Code)

	w := e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/end", bob.Token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_host", errorCode(t, w))

	w = e.do(t, http.MethodPost, "/api/rooms/"+roomID+"/end", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusEnded, decodeRoom(t, w).Status)
}

func TestListAndUnknownRoom(t *testing.T) {
	e := newTestEnv(t)
	alice := e.guest(t, "alice")
	roomID := e.createRoom(t, alice, "secret")

	w := e.do(t, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Rooms []engine.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, roomID, list.Rooms[0].RoomID)
	assert.True(t, list.Rooms[0].HasPassword)
	assert.Equal(t, 1, list.Rooms[0].PlayerCount)

	w = e.do(t, http.MethodGet, "/api/rooms/missing", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "room_not_found", errorCode(t, w))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.ErrMissingID))
	assert.Equal(t, http.StatusConflict, statusFor(engine.ErrIllegalCheck))
	assert.Equal(t, http.StatusConflict, statusFor(engine.ErrRoomFull))
	assert.Equal(t, http.StatusForbidden, statusFor(engine.ErrWrongPassword))
	assert.Equal(t, http.StatusNotFound, statusFor(engine.ErrRoomNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(engine.ErrDeckExhausted))
}

func TestInputValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/auth/guest", "", map[string]string{"name": "<script>x</script>"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	anon := e.guest(t, "")
	assert.Contains(t, anon.Name, "Guest-")

	w = e.do(t, http.MethodPost, "/api/rooms", anon.Token, map[string]interface{}{
		"name": "this room name goes on for far longer than anyone would ever want to read",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, e.rooms.ListRooms())
}

type fakeCheck struct{ err error }

func (f fakeCheck) HealthCheck(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rooms := engine.NewTableManager()
	h := &Handler{
		Rooms:  rooms,
		Auth:   auth.NewService("test-secret"),
		Checks: map[string]HealthChecker{"database": fakeCheck{}},
	}
	env := &testEnv{router: NewRouter(h, RouterConfig{}), rooms: rooms}

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)

	h.Checks["redis"] = fakeCheck{err: errors.New("connection refused")}
	w = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}
