package engine

import "poker-rooms/models"

type PlayerFilter func(*models.Player) bool

// isActive: still contesting the pot.
func isActive(p *models.Player) bool {
	return p != nil && !p.HasFolded
}

func hasChips(p *models.Player) bool {
	return p != nil && p.Chips > 0
}

// canAct: may still be asked for a betting decision.
func canAct(p *models.Player) bool {
	return isActive(p) && hasChips(p)
}

func countPlayers(players []*models.Player, filter PlayerFilter) int {
	count := 0
	for _, p := range players {
		if filter(p) {
			count++
		}
	}
	return count
}

func filterPlayers(players []*models.Player, filter PlayerFilter) []*models.Player {
	out := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if filter(p) {
			out = append(out, p)
		}
	}
	return out
}

func findPlayerByID(players []*models.Player, playerID string) *models.Player {
	for _, p := range players {
		if p != nil && p.PlayerID == playerID {
			return p
		}
	}
	return nil
}

func resetPlayersForNewRound(players []*models.Player) {
	for _, p := range players {
		p.CurrentBet = 0
		p.HasActed = false
	}
}

// reopenBettingForPlayers makes everyone who can still act respond to a new bet.
func reopenBettingForPlayers(players []*models.Player, except *models.Player) {
	for _, p := range players {
		if p != except && canAct(p) {
			p.HasActed = false
		}
	}
}
