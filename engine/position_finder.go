package engine

import (
	"fmt"

	"poker-rooms/models"
)

// NextTurn walks the seats clockwise from fromPlayerID and returns the first
// player who can still act (not folded, chips left). It returns ErrHandOver
// when nobody other than fromPlayerID qualifies.
func NextTurn(t *models.Table, fromPlayerID string) (string, error) {
	from := -1
	for i, p := range t.Players {
		if p.PlayerID == fromPlayerID {
			from = i
			break
		}
	}
	if from < 0 {
		return "", fmt.Errorf("next turn from %q: %w", fromPlayerID, ErrSeatNotFound)
	}

	n := len(t.Players)
	for k := 1; k < n; k++ {
		p := t.Players[(from+k)%n]
		if canAct(p) {
			return p.PlayerID, nil
		}
	}
	return "", ErrHandOver
}

// findNextFromSeat returns the first player matching filter whose seat comes
// after seat, wrapping around. The seat itself is checked last.
func findNextFromSeat(players []*models.Player, seat int, filter PlayerFilter) *models.Player {
	if len(players) == 0 {
		return nil
	}
	start := 0
	for start < len(players) && players[start].SeatIndex <= seat {
		start++
	}
	for k := 0; k < len(players); k++ {
		p := players[(start+k)%len(players)]
		if filter(p) {
			return p
		}
	}
	return nil
}

// firstToActAfterSeat picks who opens the betting left of seat.
func firstToActAfterSeat(t *models.Table, seat int) string {
	if countPlayers(t.Players, canAct) < 2 {
		return ""
	}
	if p := findNextFromSeat(t.Players, seat, canAct); p != nil {
		return p.PlayerID
	}
	return ""
}

// nextDealerSeat moves the button to the next seat holding chips. On the
// first hand the button sits on the last such seat so the first seat acts first.
func nextDealerSeat(t *models.Table) int {
	if t.HandNumber == 0 {
		for i := len(t.Players) - 1; i >= 0; i-- {
			if hasChips(t.Players[i]) {
				return t.Players[i].SeatIndex
			}
		}
		return 0
	}
	if p := findNextFromSeat(t.Players, t.DealerSeat, hasChips); p != nil {
		return p.SeatIndex
	}
	return t.DealerSeat
}

// calculateBlindSeats returns the small and big blind players. Heads-up, the dealer posts the small blind.
func calculateBlindSeats(t *models.Table, dealerSeat int) (*models.Player, *models.Player) {
	if countPlayers(t.Players, hasChips) == 2 {
		sb := findPlayerBySeat(t.Players, dealerSeat)
		return sb, findNextFromSeat(t.Players, dealerSeat, hasChips)
	}
	sb := findNextFromSeat(t.Players, dealerSeat, hasChips)
	if sb == nil {
		return nil, nil
	}
	return sb, findNextFromSeat(t.Players, sb.SeatIndex, hasChips)
}

func findPlayerBySeat(players []*models.Player, seat int) *models.Player {
	for _, p := range players {
		if p.SeatIndex == seat {
			return p
		}
	}
	return nil
}
