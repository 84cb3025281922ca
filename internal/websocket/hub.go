package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"poker-rooms/models"
)

// WSMessage is the envelope of everything sent to a client.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	MessageEvent      = "event"
	MessageTableState = "table_state"
)

// AllowedOrigins gates the upgrade. Read from ALLOWED_ORIGINS at start-up.
var AllowedOrigins = getAllowedOrigins()

func getAllowedOrigins() []string {
	env := os.Getenv("ALLOWED_ORIGINS")
	if env == "" {
		return []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	var origins []string
	for _, o := range strings.Split(env, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	for _, allowed := range AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// ViewSource returns the table as one player may see it.
type ViewSource interface {
	View(roomID, playerID string) (*models.Table, error)
}

type publication struct {
	roomID string
	events []models.Event
}

// Hub fans room events out to connected clients. Publish only queues; Run
// delivers in queue order and follows state-changing events with a fresh
// per-player table view, so clients see their own hole cards.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
	queue chan publication
	views ViewSource
	log   *zap.Logger
}

func NewHub(views ViewSource, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
		queue: make(chan publication, 1024),
		views: views,
		log:   log,
	}
}

// SetViews wires the view source after construction; the manager and the
// hub need each other.
func (h *Hub) SetViews(views ViewSource) {
	h.views = views
}

func (h *Hub) Publish(_ context.Context, roomID string, events []models.Event) {
	select {
	case h.queue <- publication{roomID: roomID, events: events}:
	default:
		h.log.Warn("hub queue full, events dropped", zap.String("room_id", roomID), zap.Int("events", len(events)))
	}
}

// Run delivers queued events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case p := <-h.queue:
			h.deliver(p)
		}
	}
}

func (h *Hub) deliver(p publication) {
	clients := h.clients(p.roomID)
	if len(clients) == 0 {
		return
	}

	refresh := false
	for _, e := range p.events {
		data, err := json.Marshal(WSMessage{Type: MessageEvent, Payload: e})
		if err != nil {
			h.log.Error("marshal event", zap.String("event", e.Event), zap.Error(err))
			continue
		}
		for _, c := range clients {
			h.send(c, data)
		}
		if e.Event != models.EventChatMessage {
			refresh = true
		}
	}

	if refresh && h.views != nil {
		for _, c := range clients {
			h.sendView(c)
		}
	}
}

func (h *Hub) sendView(c *Client) {
	view, err := h.views.View(c.RoomID, c.PlayerID)
	if err != nil {
		return
	}
	data, err := json.Marshal(WSMessage{Type: MessageTableState, Payload: view})
	if err != nil {
		h.log.Error("marshal table view", zap.String("room_id", c.RoomID), zap.Error(err))
		return
	}
	h.send(c, data)
}

// send drops the client when its buffer is full. Membership is checked under
// the lock that guards close(c.Send).
func (h *Hub) send(c *Client, data []byte) bool {
	h.mu.RLock()
	if !h.rooms[c.RoomID][c] {
		h.mu.RUnlock()
		return false
	}
	select {
	case c.Send <- data:
		h.mu.RUnlock()
		return true
	default:
	}
	h.mu.RUnlock()

	h.log.Info("slow websocket client dropped", zap.String("player_id", c.PlayerID), zap.String("room_id", c.RoomID))
	h.Unregister(c)
	return false
}

func (h *Hub) clients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		out = append(out, c)
	}
	return out
}

func (h *Hub) Register(c *Client) {
	c.hub = h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.RoomID] == nil {
		h.rooms[c.RoomID] = make(map[*Client]bool)
	}
	h.rooms[c.RoomID][c] = true
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.RoomID]
	if !room[c] {
		return
	}
	delete(room, c)
	close(c.Send)
	if len(room) == 0 {
		delete(h.rooms, c.RoomID)
	}
}

func (h *Hub) ClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.Send)
		}
		delete(h.rooms, id)
	}
}

// ServeRoom upgrades an authenticated request and subscribes it to the room
// named by the :id path parameter.
func (h *Hub) ServeRoom(playerIDKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.GetString(playerIDKey)
		roomID := c.Param("id")
		if playerID == "" || roomID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if h.views != nil {
			if _, err := h.views.View(roomID, playerID); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
		}

		conn, err := Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Info("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			PlayerID: playerID,
			RoomID:   roomID,
			Conn:     conn,
			Send:     make(chan []byte, sendBuffer),
		}
		h.Register(client)
		if h.views != nil {
			h.sendView(client)
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
