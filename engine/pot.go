package engine

import "poker-rooms/models"

// DistributePot splits pot evenly between winners. winners must be ordered
// by position, starting left of the dealer button; under RemainderEarliest the
// odd chips go one each to the first winners in that order.
func DistributePot(pot int, winners []*models.Player, policy models.RemainderPolicy) map[string]int {
	shares := make(map[string]int, len(winners))
	if len(winners) == 0 || pot <= 0 {
		return shares
	}

	each := pot / len(winners)
	for _, w := range winners {
		shares[w.PlayerID] = each
	}

	if policy == models.RemainderDiscard {
		return shares
	}
	remainder := pot - each*len(winners)
	for i := 0; i < remainder; i++ {
		shares[winners[i].PlayerID]++
	}
	return shares
}

// orderFromDealer returns players in position order, first seat after the button first.
func orderFromDealer(players []*models.Player, dealerSeat int) []*models.Player {
	ordered := make([]*models.Player, 0, len(players))
	start := 0
	for start < len(players) && players[start].SeatIndex <= dealerSeat {
		start++
	}
	for k := 0; k < len(players); k++ {
		ordered = append(ordered, players[(start+k)%len(players)])
	}
	return ordered
}

// refundBets hands every player back what they put in this hand.
func refundBets(t *models.Table) {
	for _, p := range t.Players {
		p.Chips += p.TotalBet
		t.Pot -= p.TotalBet
		p.TotalBet = 0
		p.CurrentBet = 0
	}
}
