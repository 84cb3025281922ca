package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poker-rooms/engine"
	"poker-rooms/internal/auth"
	"poker-rooms/internal/middleware"
	"poker-rooms/internal/store"
	"poker-rooms/internal/websocket"
)

// HistorySource lists the recorded hands of a room.
type HistorySource interface {
	History(ctx context.Context, roomID string, limit int) ([]store.HandResult, error)
}

// Deadlines reports the running turn timer of a room.
type Deadlines interface {
	Deadline(roomID string) (string, time.Time, bool)
}

// HealthChecker is a dependency the health endpoint pings.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Handler struct {
	Rooms         *engine.TableManager
	Auth          *auth.Service
	Hub           *websocket.Hub
	History       HistorySource
	Deadlines     Deadlines
	Limiter       *middleware.RateLimiter
	ActionLimiter *middleware.RateLimiter
	Checks        map[string]HealthChecker
	Log           *zap.Logger
}

type RouterConfig struct {
	Production     bool
	AllowedOrigins []string
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if h.Log == nil {
		h.Log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.Log))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  originAllowed(cfg.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.handleHealth)
	r.POST("/api/auth/guest", h.handleGuestLogin)
	r.GET("/api/rooms", h.handleListRooms)

	authorized := r.Group("/api")
	authorized.Use(h.Auth.RequireAuth())
	if h.Limiter != nil {
		authorized.Use(h.Limiter.Gin())
	}
	{
		authorized.POST("/rooms", h.handleCreateRoom)
		authorized.GET("/rooms/:id", h.handleGetRoom)
		authorized.POST("/rooms/:id/join", h.handleJoin)
		authorized.POST("/rooms/:id/start", h.handleStart)
		if h.ActionLimiter != nil {
			authorized.POST("/rooms/:id/actions", h.ActionLimiter.Gin(), h.handleAction)
		} else {
			authorized.POST("/rooms/:id/actions", h.handleAction)
		}
		authorized.POST("/rooms/:id/leave", h.handleLeave)
		authorized.POST("/rooms/:id/end", h.handleEnd)
		if h.Hub != nil {
			authorized.POST("/rooms/:id/chat", h.handleChat)
			authorized.GET("/rooms/:id/ws", h.Hub.ServeRoom(middleware.PlayerIDKey))
		}
		if h.History != nil {
			authorized.GET("/rooms/:id/history", h.handleHistory)
		}
	}
	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, checker := range h.Checks {
		if err := checker.HealthCheck(ctx); err != nil {
			h.Log.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	body := gin.H{"status": "ok", "rooms": len(h.Rooms.ListRooms())}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	c.JSON(status, body)
}

func originAllowed(allowed []string) func(string) bool {
	return func(origin string) bool {
		if len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("player_id", c.GetString(middleware.PlayerIDKey)))
	}
}

func playerID(c *gin.Context) string {
	return c.GetString(middleware.PlayerIDKey)
}

func playerName(c *gin.Context) string {
	return c.GetString(auth.PlayerNameKey)
}

// view answers with the caller's view of the room after a command.
func (h *Handler) view(c *gin.Context, status int, roomID string) {
	table, err := h.Rooms.View(roomID, playerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"room": table}
	if h.Deadlines != nil {
		if player, deadline, ok := h.Deadlines.Deadline(roomID); ok {
			resp["turnDeadline"] = gin.H{"playerId": player, "at": deadline.UTC().Format(time.RFC3339)}
		}
	}
	c.JSON(status, resp)
}

var _ engine.Broadcaster = (*websocket.Hub)(nil)
