package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poker-rooms/engine"
	"poker-rooms/internal/auth"
	"poker-rooms/internal/validation"
	"poker-rooms/models"
)

type guestRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleGuestLogin(c *gin.Context) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, "invalid request body")
		return
	}
	name, err := validation.ValidatePlayerName(req.Name)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	id, name := auth.GuestIdentity(name)
	token, err := h.Auth.GenerateToken(id, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"playerId": id, "name": name, "token": token})
}

func (h *Handler) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Rooms.ListRooms()})
}

type createRoomRequest struct {
	Name           string `json:"name"`
	MinPlayers     int    `json:"minPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
	Password       string `json:"password"`
	StartingChips  int    `json:"startingChips"`
	SmallBlind     *int   `json:"smallBlind"`
	BigBlind       *int   `json:"bigBlind"`
	SplitRemainder string `json:"splitRemainder"`
}

func (h *Handler) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	name, err := validation.ValidateRoomName(req.Name)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	roomID, err := h.Rooms.CreateRoom(c.Request.Context(), engine.CreateRoomRequest{
		Name:           name,
		MinPlayers:     req.MinPlayers,
		MaxPlayers:     req.MaxPlayers,
		Password:       req.Password,
		StartingChips:  req.StartingChips,
		SmallBlind:     req.SmallBlind,
		BigBlind:       req.BigBlind,
		SplitRemainder: models.RemainderPolicy(req.SplitRemainder),
		HostID:         playerID(c),
		HostName:       playerName(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.view(c, http.StatusCreated, roomID)
}

func (h *Handler) handleGetRoom(c *gin.Context) {
	h.view(c, http.StatusOK, c.Param("id"))
}

type joinRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleJoin(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		badRequest(c, "invalid request body")
		return
	}
	roomID := c.Param("id")
	if err := h.Rooms.Join(c.Request.Context(), roomID, playerID(c), playerName(c), req.Password); err != nil {
		respondError(c, err)
		return
	}
	h.view(c, http.StatusOK, roomID)
}

func (h *Handler) handleStart(c *gin.Context) {
	roomID := c.Param("id")
	if err := h.Rooms.Start(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}
	h.view(c, http.StatusOK, roomID)
}

type actionRequest struct {
	Action string `json:"action" binding:"required"`
	Amount int    `json:"amount"`
}

func (h *Handler) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action and a numeric amount are required")
		return
	}
	kind, err := models.ParseActionKind(req.Action)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative", "code": engine.ErrInvalidAmount.Code})
		return
	}

	roomID := c.Param("id")
	action := models.Action{PlayerID: playerID(c), Kind: kind, Amount: req.Amount}
	if err := h.Rooms.Act(c.Request.Context(), roomID, action); err != nil {
		respondError(c, err)
		return
	}
	h.view(c, http.StatusOK, roomID)
}

func (h *Handler) handleLeave(c *gin.Context) {
	if err := h.Rooms.Leave(c.Request.Context(), c.Param("id"), playerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

func (h *Handler) handleEnd(c *gin.Context) {
	roomID := c.Param("id")
	if err := h.Rooms.EndRoom(c.Request.Context(), roomID, playerID(c)); err != nil {
		respondError(c, err)
		return
	}
	h.view(c, http.StatusOK, roomID)
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// handleChat relays a message to the room. Chat never touches table state.
func (h *Handler) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "message is required")
		return
	}
	msg, err := validation.ValidateChatMessage(req.Message)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	roomID := c.Param("id")
	table, err := h.Rooms.View(roomID, playerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if engine.FindPlayer(table, playerID(c)) == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "only seated players can chat", "code": engine.ErrSeatNotFound.Code})
		return
	}

	h.Hub.Publish(c.Request.Context(), roomID, []models.Event{{
		Event:   models.EventChatMessage,
		TableID: roomID,
		Data: models.ChatMessageEvent{
			Sender:    playerName(c),
			Message:   msg,
			Timestamp: time.Now().UnixMilli(),
		},
	}})
	c.JSON(http.StatusAccepted, gin.H{"sent": true})
}

func (h *Handler) handleHistory(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := h.Rooms.View(roomID, playerID(c)); err != nil {
		respondError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	hands, err := h.History.History(c.Request.Context(), roomID, limit)
	if err != nil {
		h.Log.Error("history query failed", zap.String("room_id", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hands": hands})
}
