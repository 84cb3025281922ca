package models

import (
	"fmt"
	"strings"
)

// Command is the line-oriented request envelope used by the TCP server.
type Command struct {
	Command string                 `json:"command"`
	Data    map[string]interface{} `json:"data"`
}

type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Action is a betting decision. Amount is only meaningful for bet and raise.
type Action struct {
	PlayerID string       `json:"playerId"`
	Kind     PlayerAction `json:"kind"`
	Amount   int          `json:"amount,omitempty"`
}

// ParseActionKind maps a wire string onto the closed action set.
func ParseActionKind(s string) (PlayerAction, error) {
	switch PlayerAction(strings.ToLower(strings.TrimSpace(s))) {
	case ActionFold:
		return ActionFold, nil
	case ActionCheck:
		return ActionCheck, nil
	case ActionCall:
		return ActionCall, nil
	case ActionBet:
		return ActionBet, nil
	case ActionRaise:
		return ActionRaise, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

const (
	EventPlayerJoined     = "player-joined"
	EventPlayerLeft       = "player-left"
	EventHandDealt        = "hand-dealt"
	EventTurnChanged      = "turn-changed"
	EventBetPlaced        = "bet-placed"
	EventRoundChanged     = "round-changed"
	EventShowdown         = "showdown"
	EventPotAwarded       = "pot-awarded"
	EventPlayerEliminated = "player-eliminated"
	EventRoomEnded        = "room-ended"
	EventChatMessage      = "chat-message"
)

// Event is emitted by the engine in the order the table produced it.
type Event struct {
	Event    string      `json:"event"`
	TableID  string      `json:"tableId"`
	Sequence uint64      `json:"sequence"`
	Data     interface{} `json:"data,omitempty"`
}

type PlayerJoinedEvent struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	SeatIndex   int    `json:"seatIndex"`
	PlayerCount int    `json:"playerCount"`
	IsHost      bool   `json:"isHost"`
}

type PlayerLeftEvent struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
	NewHost     string `json:"newHost,omitempty"`
}

// HandDealtEvent never carries hole cards; clients fetch their own view.
type HandDealtEvent struct {
	HandNumber int      `json:"handNumber"`
	DealerSeat int      `json:"dealerSeat"`
	PlayerIDs  []string `json:"playerIds"`
	Pot        int      `json:"pot"`
	CurrentBet int      `json:"currentBet"`
}

type TurnChangedEvent struct {
	PlayerID       string `json:"playerId"`
	ActionSequence uint64 `json:"actionSequence"`
}

type BetPlacedEvent struct {
	PlayerID   string       `json:"playerId"`
	Action     PlayerAction `json:"action"`
	Amount     int          `json:"amount"`
	PlayerBet  int          `json:"playerBet"`
	CurrentBet int          `json:"currentBet"`
	Pot        int          `json:"pot"`
	AllIn      bool         `json:"allIn,omitempty"`
}

type RoundChangedEvent struct {
	Round          BettingRound `json:"round"`
	CommunityCards []Card       `json:"communityCards"`
}

type ShowdownEvent struct {
	HandNumber int      `json:"handNumber"`
	Board      []Card   `json:"board"`
	Winners    []Winner `json:"winners"`
	Results    []Winner `json:"results"`
	Pot        int      `json:"pot"`
}

type PotAwardedEvent struct {
	HandNumber int    `json:"handNumber"`
	PlayerID   string `json:"playerId"`
	Amount     int    `json:"amount"`
}

type PlayerEliminatedEvent struct {
	PlayerID string `json:"playerId"`
}

type RoomEndedEvent struct {
	Reason string `json:"reason"`
}

type ChatMessageEvent struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
