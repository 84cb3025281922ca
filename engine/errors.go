package engine

import (
	"errors"

	"poker-rooms/models"
)

// ErrorClass groups engine failures by how callers should react to them.
type ErrorClass string

const (
	// ValidationError: malformed input, rejected before touching state.
	ValidationError ErrorClass = "validation"
	// RuleViolation: a well-formed action the rules forbid right now.
	RuleViolation ErrorClass = "rule_violation"
	// CapacityError: rejected at the room boundary (full, password, player count).
	CapacityError ErrorClass = "capacity"
	// NotFound: unknown room.
	NotFound ErrorClass = "not_found"
	// ResourceError: broken invariant; aborts the hand transition.
	ResourceError ErrorClass = "resource"
)

// Error is a classified engine failure. Sentinels below are compared with errors.Is.
type Error struct {
	Class ErrorClass
	Code  string
	Msg   string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(class ErrorClass, code, msg string) *Error {
	return &Error{Class: class, Code: code, Msg: msg}
}

var (
	ErrMissingID     = newError(ValidationError, "missing_id", "missing id")
	ErrInvalidAmount = newError(ValidationError, "invalid_amount", "invalid amount")
	ErrInvalidAction = newError(ValidationError, "invalid_action", "invalid action")
	ErrInvalidConfig = newError(ValidationError, "invalid_config", "invalid room configuration")
	ErrAlreadySeated = newError(ValidationError, "already_seated", "player already seated")

	ErrOutOfTurn         = newError(RuleViolation, "out_of_turn", "not your turn")
	ErrAlreadyFolded     = newError(RuleViolation, "already_folded", "player already folded")
	ErrIllegalCheck      = newError(RuleViolation, "illegal_check", "cannot check - must call, raise, or fold")
	ErrIllegalBet        = newError(RuleViolation, "illegal_bet", "illegal bet")
	ErrInsufficientChips = newError(RuleViolation, "insufficient_chips", "insufficient chips")
	ErrHandNotInProgress = newError(RuleViolation, "hand_not_in_progress", "hand is not in progress")
	ErrHandInProgress    = newError(RuleViolation, "hand_in_progress", "hand already in progress")
	ErrNotHost           = newError(RuleViolation, "not_host", "only the host can do that")
	ErrStaleAction       = newError(RuleViolation, "stale_action", "the turn has moved on")

	ErrRoomFull         = newError(CapacityError, "room_full", "room is full")
	ErrWrongPassword    = newError(CapacityError, "wrong_password", "incorrect password")
	ErrNotEnoughPlayers = newError(CapacityError, "not_enough_players", "not enough players")
	ErrRoomEnded        = newError(CapacityError, "room_ended", "room has ended")

	ErrRoomNotFound = newError(NotFound, "room_not_found", "room not found")
	ErrRoomExists   = newError(ValidationError, "room_exists", "room already exists")

	ErrSeatNotFound  = newError(ResourceError, "seat_not_found", "seat not found")
	ErrInvalidHand   = newError(ResourceError, "invalid_hand", "invalid hand")
	ErrDeckExhausted = newError(ResourceError, "deck_exhausted", models.ErrDeckExhausted.Error())
	// ErrHandOver is returned by NextTurn when nobody else can act.
	ErrHandOver = newError(ResourceError, "hand_over", "no eligible player left to act")
)

// ClassOf returns the class of the first *Error in err's chain.
// models.ErrDeckExhausted counts as a resource error.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	if errors.Is(err, models.ErrDeckExhausted) {
		return ResourceError
	}
	return ""
}

// CodeOf returns the short code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, models.ErrDeckExhausted) {
		return ErrDeckExhausted.Code
	}
	return "internal"
}
