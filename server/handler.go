package server

import (
	"context"
	"fmt"
	"strconv"

	"poker-rooms/engine"
	"poker-rooms/models"
)

// CommandHandler maps line commands onto the room manager. The TCP transport
// is trusted: playerId comes straight from the command.
type CommandHandler struct {
	tableManager *engine.TableManager
}

func NewCommandHandler(tableManager *engine.TableManager) *CommandHandler {
	return &CommandHandler{tableManager: tableManager}
}

// Handle runs one command. The room id the command addressed is returned so
// the connection can subscribe to its events.
func (h *CommandHandler) Handle(ctx context.Context, cmd models.Command) (models.Response, string) {
	switch cmd.Command {
	case "room.create":
		return h.handleCreateRoom(ctx, cmd.Data)
	case "room.get":
		return h.handleGetRoom(cmd.Data)
	case "room.list":
		return models.Response{Success: true, Data: map[string]interface{}{"rooms": h.tableManager.ListRooms()}}, ""
	case "room.end":
		return h.run(cmd.Data, func(roomID string) error {
			return h.tableManager.EndRoom(ctx, roomID, getString(cmd.Data, "playerId"))
		})
	case "player.join":
		return h.run(cmd.Data, func(roomID string) error {
			return h.tableManager.Join(ctx, roomID, getString(cmd.Data, "playerId"),
				getString(cmd.Data, "playerName"), getString(cmd.Data, "password"))
		})
	case "player.leave":
		return h.run(cmd.Data, func(roomID string) error {
			return h.tableManager.Leave(ctx, roomID, getString(cmd.Data, "playerId"))
		})
	case "game.start":
		return h.run(cmd.Data, func(roomID string) error {
			return h.tableManager.Start(ctx, roomID)
		})
	case "game.action":
		return h.handleGameAction(ctx, cmd.Data)
	default:
		return models.Response{Success: false, Error: fmt.Sprintf("unknown command: %s", cmd.Command), Code: "unknown_command"}, ""
	}
}

func (h *CommandHandler) handleCreateRoom(ctx context.Context, data map[string]interface{}) (models.Response, string) {
	minPlayers, err := getInt(data, "minPlayers")
	if err != nil {
		return errorResponse(err), ""
	}
	maxPlayers, err := getInt(data, "maxPlayers")
	if err != nil {
		return errorResponse(err), ""
	}
	startingChips, err := getInt(data, "startingChips")
	if err != nil {
		return errorResponse(err), ""
	}
	smallBlind, err := getOptionalInt(data, "smallBlind")
	if err != nil {
		return errorResponse(err), ""
	}
	bigBlind, err := getOptionalInt(data, "bigBlind")
	if err != nil {
		return errorResponse(err), ""
	}

	roomID, err := h.tableManager.CreateRoom(ctx, engine.CreateRoomRequest{
		RoomID:         getString(data, "tableId"),
		Name:           getString(data, "name"),
		MinPlayers:     minPlayers,
		MaxPlayers:     maxPlayers,
		Password:       getString(data, "password"),
		StartingChips:  startingChips,
		SmallBlind:     smallBlind,
		BigBlind:       bigBlind,
		SplitRemainder: models.RemainderPolicy(getString(data, "splitRemainder")),
		HostID:         getString(data, "playerId"),
		HostName:       getString(data, "playerName"),
	})
	if err != nil {
		return errorResponse(err), ""
	}
	return models.Response{Success: true, Data: map[string]string{"tableId": roomID}}, roomID
}

func (h *CommandHandler) handleGetRoom(data map[string]interface{}) (models.Response, string) {
	roomID := getString(data, "tableId")
	table, err := h.tableManager.View(roomID, getString(data, "playerId"))
	if err != nil {
		return errorResponse(err), ""
	}
	return models.Response{Success: true, Data: table}, roomID
}

func (h *CommandHandler) handleGameAction(ctx context.Context, data map[string]interface{}) (models.Response, string) {
	kind, err := models.ParseActionKind(getString(data, "action"))
	if err != nil {
		return models.Response{Success: false, Error: err.Error(), Code: engine.ErrInvalidAction.Code}, ""
	}
	amount, err := getInt(data, "amount")
	if err != nil {
		return errorResponse(err), ""
	}
	action := models.Action{PlayerID: getString(data, "playerId"), Kind: kind, Amount: amount}
	return h.run(data, func(roomID string) error {
		return h.tableManager.Act(ctx, roomID, action)
	})
}

// run executes fn against the addressed room and answers with the caller's view.
func (h *CommandHandler) run(data map[string]interface{}, fn func(roomID string) error) (models.Response, string) {
	roomID := getString(data, "tableId")
	if err := fn(roomID); err != nil {
		return errorResponse(err), ""
	}
	table, err := h.tableManager.View(roomID, getString(data, "playerId"))
	if err != nil {
		return errorResponse(err), ""
	}
	return models.Response{Success: true, Data: table}, roomID
}

func errorResponse(err error) models.Response {
	return models.Response{Success: false, Error: err.Error(), Code: engine.CodeOf(err)}
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// getOptionalInt is getInt that tells a missing key apart from zero.
func getOptionalInt(data map[string]interface{}, key string) (*int, error) {
	if val, ok := data[key]; !ok || val == nil {
		return nil, nil
	}
	v, err := getInt(data, key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// getInt accepts JSON numbers and numeric strings. A missing key is 0.
func getInt(data map[string]interface{}, key string) (int, error) {
	val, ok := data[key]
	if !ok || val == nil {
		return 0, nil
	}
	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number: %w", key, engine.ErrInvalidAmount)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s %q is not a number: %w", key, v, engine.ErrInvalidAmount)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%s has type %T: %w", key, val, engine.ErrInvalidAmount)
}
