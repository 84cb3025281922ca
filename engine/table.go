package engine

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"poker-rooms/models"
)

// NewTable builds an empty waiting room. passwordHash may be empty for an open room.
func NewTable(tableID, name string, config models.TableConfig, passwordHash string) (*models.Table, error) {
	config, err := NormalizeConfig(config)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "Room " + tableID
	}
	return &models.Table{
		TableID:        tableID,
		Name:           name,
		Status:         models.StatusWaiting,
		Config:         config,
		Players:        make([]*models.Player, 0, config.MaxPlayers),
		Round:          models.RoundPreflop,
		CommunityCards: make([]models.Card, 0, communityCardCount),
		PasswordHash:   passwordHash,
		DealerSeat:     -1,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// NormalizeConfig fills unset fields with the built-in defaults and rejects
// inconsistent settings.
func NormalizeConfig(c models.TableConfig) (models.TableConfig, error) {
	if c.MinPlayers == 0 {
		c.MinPlayers = 2
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 6
	}
	if c.StartingChips == 0 {
		c.StartingChips = models.DefaultStartingChips
	}
	if c.SplitRemainder == "" {
		c.SplitRemainder = models.RemainderEarliest
	}
	switch {
	case c.MinPlayers < 2:
		return c, fmt.Errorf("minPlayers %d below 2: %w", c.MinPlayers, ErrInvalidConfig)
	case c.MaxPlayers > models.MaxSeats:
		return c, fmt.Errorf("maxPlayers %d above %d: %w", c.MaxPlayers, models.MaxSeats, ErrInvalidConfig)
	case c.MinPlayers > c.MaxPlayers:
		return c, fmt.Errorf("minPlayers %d above maxPlayers %d: %w", c.MinPlayers, c.MaxPlayers, ErrInvalidConfig)
	case c.StartingChips < 0 || c.SmallBlind < 0 || c.BigBlind < 0:
		return c, fmt.Errorf("negative chips or blinds: %w", ErrInvalidConfig)
	case c.SmallBlind > c.BigBlind:
		return c, fmt.Errorf("small blind %d above big blind %d: %w", c.SmallBlind, c.BigBlind, ErrInvalidConfig)
	}
	switch c.SplitRemainder {
	case models.RemainderEarliest, models.RemainderDiscard:
	default:
		return c, fmt.Errorf("split remainder %q: %w", c.SplitRemainder, ErrInvalidConfig)
	}
	return c, nil
}

// checkPassword accepts anything on an open room.
func checkPassword(t *models.Table, password string) bool {
	if !t.HasPassword() {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)) == nil
}

// AddPlayer seats a new player at the lowest free seat index.
func AddPlayer(t *models.Table, playerID, playerName string, chips int, isHost bool) (*models.Player, error) {
	if playerID == "" {
		return nil, ErrMissingID
	}
	if FindPlayer(t, playerID) != nil {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrAlreadySeated)
	}
	if len(t.Players) >= t.Config.MaxPlayers {
		return nil, fmt.Errorf("%d of %d seats taken: %w", len(t.Players), t.Config.MaxPlayers, ErrRoomFull)
	}

	taken := make(map[int]bool, len(t.Players))
	for _, p := range t.Players {
		taken[p.SeatIndex] = true
	}
	seat := 0
	for taken[seat] {
		seat++
	}

	if playerName == "" {
		playerName = playerID
	}
	player := models.NewPlayer(playerID, playerName, seat, chips)
	player.IsHost = isHost
	if t.Status == models.StatusPlaying {
		// sits out the hand already running
		player.HasFolded = true
	}
	t.Players = append(t.Players, player)
	t.SortSeats()
	return player, nil
}

// RemovePlayer takes the seat away. Bets already in the pot stay there.
func RemovePlayer(t *models.Table, playerID string) (*models.Player, error) {
	for i, p := range t.Players {
		if p.PlayerID == playerID {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			return p, nil
		}
	}
	return nil, fmt.Errorf("player %s: %w", playerID, ErrSeatNotFound)
}

func FindPlayer(t *models.Table, playerID string) *models.Player {
	return findPlayerByID(t.Players, playerID)
}

// ActivePlayers returns every seated player who has not folded.
func ActivePlayers(t *models.Table) []*models.Player {
	return filterPlayers(t.Players, isActive)
}

// ResetBettingRound clears the acted flags and per-round bets at a round transition.
func ResetBettingRound(t *models.Table) {
	resetPlayersForNewRound(t.Players)
	t.CurrentBet = 0
}

// ResetHand clears everything from the previous hand before dealing.
func ResetHand(t *models.Table) {
	for _, p := range t.Players {
		p.Reset()
	}
	t.Pot = 0
	t.CurrentBet = 0
	t.CurrentTurn = ""
	t.Round = models.RoundPreflop
	t.CommunityCards = make([]models.Card, 0, communityCardCount)
	t.Deck = nil
}

func reassignHost(t *models.Table) string {
	for _, p := range t.Players {
		if p.IsHost {
			return ""
		}
	}
	if len(t.Players) == 0 {
		return ""
	}
	t.Players[0].IsHost = true
	return t.Players[0].PlayerID
}
