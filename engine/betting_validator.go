package engine

import (
	"fmt"

	"poker-rooms/models"
)

// BettingValidator checks an action against the table bet before anything is mutated.
type BettingValidator struct {
	currentBet int
}

func NewBettingValidator(currentBet int) *BettingValidator {
	return &BettingValidator{currentBet: currentBet}
}

// validateTurn resolves the acting player. A folded player gets ErrAlreadyFolded
// even though the turn has moved on, which is the more useful answer.
func validateTurn(t *models.Table, playerID string) (*models.Player, error) {
	if playerID == "" {
		return nil, ErrMissingID
	}
	if t.Status != models.StatusPlaying {
		return nil, ErrHandNotInProgress
	}
	player := FindPlayer(t, playerID)
	if player == nil {
		return nil, fmt.Errorf("player %s is not seated: %w", playerID, ErrOutOfTurn)
	}
	if player.HasFolded {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrAlreadyFolded)
	}
	if t.CurrentTurn != playerID {
		return nil, fmt.Errorf("current turn is %s, not %s: %w", t.CurrentTurn, playerID, ErrOutOfTurn)
	}
	return player, nil
}

func (bv *BettingValidator) validateCheck(playerBet int) error {
	if playerBet != bv.currentBet {
		return fmt.Errorf("%d to call: %w", bv.currentBet-playerBet, ErrIllegalCheck)
	}
	return nil
}

// validateCall returns the chips to put in, capped at the stack for an all-in call.
func (bv *BettingValidator) validateCall(playerBet, playerChips int) (int, error) {
	amount := bv.currentBet - playerBet
	if amount > playerChips {
		amount = playerChips
	}
	if amount <= 0 {
		return 0, fmt.Errorf("nothing to call: %w", ErrInsufficientChips)
	}
	return amount, nil
}

func (bv *BettingValidator) validateBet(amount, playerChips int) error {
	if bv.currentBet != 0 {
		return fmt.Errorf("table bet is already %d, raise instead: %w", bv.currentBet, ErrIllegalBet)
	}
	if amount <= 0 {
		return fmt.Errorf("bet must be positive: %w", ErrIllegalBet)
	}
	if amount > playerChips {
		return fmt.Errorf("bet %d exceeds stack %d: %w", amount, playerChips, ErrIllegalBet)
	}
	return nil
}

// validateRaise treats amount as the increment over the table bet and returns
// the chips the raiser has to put in: the outstanding call plus the increment.
func (bv *BettingValidator) validateRaise(amount, playerBet, playerChips int) (int, error) {
	if bv.currentBet == 0 {
		return 0, fmt.Errorf("nothing to raise, bet instead: %w", ErrIllegalBet)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("raise must be positive: %w", ErrIllegalBet)
	}
	if amount > playerChips {
		return 0, fmt.Errorf("raise %d exceeds stack %d: %w", amount, playerChips, ErrIllegalBet)
	}
	total := bv.currentBet - playerBet + amount
	if total > playerChips {
		return 0, fmt.Errorf("raise needs %d, stack is %d: %w", total, playerChips, ErrInsufficientChips)
	}
	return total, nil
}
