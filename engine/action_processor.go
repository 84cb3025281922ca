package engine

import (
	"fmt"

	"poker-rooms/models"
)

// ActionProcessor validates and applies one betting action to a table.
// Every check runs before the first mutation.
type ActionProcessor struct {
	validator *BettingValidator
	table     *models.Table
}

func NewActionProcessor(t *models.Table) *ActionProcessor {
	return &ActionProcessor{
		validator: NewBettingValidator(t.CurrentBet),
		table:     t,
	}
}

func (ap *ActionProcessor) Process(action models.Action) (models.BetPlacedEvent, error) {
	player, err := validateTurn(ap.table, action.PlayerID)
	if err != nil {
		return models.BetPlacedEvent{}, err
	}

	var placed int
	switch action.Kind {
	case models.ActionFold:
		ap.processFold(player)
	case models.ActionCheck:
		if err := ap.validator.validateCheck(player.CurrentBet); err != nil {
			return models.BetPlacedEvent{}, err
		}
	case models.ActionCall:
		amount, err := ap.validator.validateCall(player.CurrentBet, player.Chips)
		if err != nil {
			return models.BetPlacedEvent{}, err
		}
		placed = ap.placeChips(player, amount)
	case models.ActionBet:
		if err := ap.validator.validateBet(action.Amount, player.Chips); err != nil {
			return models.BetPlacedEvent{}, err
		}
		placed = ap.placeChips(player, action.Amount)
		ap.raiseTableBet(player)
	case models.ActionRaise:
		total, err := ap.validator.validateRaise(action.Amount, player.CurrentBet, player.Chips)
		if err != nil {
			return models.BetPlacedEvent{}, err
		}
		placed = ap.placeChips(player, total)
		ap.raiseTableBet(player)
	default:
		return models.BetPlacedEvent{}, fmt.Errorf("action %q: %w", action.Kind, ErrInvalidAction)
	}

	player.HasActed = true
	player.LastAction = action.Kind
	player.LastActionAmount = placed
	ap.table.ActionSequence++

	return models.BetPlacedEvent{
		PlayerID:   player.PlayerID,
		Action:     action.Kind,
		Amount:     placed,
		PlayerBet:  player.CurrentBet,
		CurrentBet: ap.table.CurrentBet,
		Pot:        ap.table.Pot,
		AllIn:      player.IsAllIn(),
	}, nil
}

func (ap *ActionProcessor) processFold(player *models.Player) {
	player.HasFolded = true
}

// placeChips moves chips from the stack into the player's bet and the pot.
func (ap *ActionProcessor) placeChips(player *models.Player, amount int) int {
	placed := player.PlaceBet(amount)
	ap.table.Pot += placed
	return placed
}

func (ap *ActionProcessor) raiseTableBet(player *models.Player) {
	if player.CurrentBet > ap.table.CurrentBet {
		ap.table.CurrentBet = player.CurrentBet
	}
	reopenBettingForPlayers(ap.table.Players, player)
}
