package models

type PlayerAction string

const (
	ActionFold  PlayerAction = "fold"
	ActionCheck PlayerAction = "check"
	ActionCall  PlayerAction = "call"
	ActionBet   PlayerAction = "bet"
	ActionRaise PlayerAction = "raise"
)

type Player struct {
	PlayerID         string       `json:"playerId"`
	PlayerName       string       `json:"playerName"`
	SeatIndex        int          `json:"seatIndex"`
	Chips            int          `json:"chips"`
	CurrentBet       int          `json:"currentBet"`
	TotalBet         int          `json:"totalBet"`
	HoleCards        []Card       `json:"holeCards,omitempty"`
	HasFolded        bool         `json:"hasFolded"`
	HasActed         bool         `json:"hasActed"`
	IsHost           bool         `json:"isHost"`
	LastAction       PlayerAction `json:"lastAction,omitempty"`
	LastActionAmount int          `json:"lastActionAmount,omitempty"`
}

func NewPlayer(id, name string, seatIndex, chips int) *Player {
	return &Player{
		PlayerID:   id,
		PlayerName: name,
		SeatIndex:  seatIndex,
		Chips:      chips,
		HoleCards:  make([]Card, 0, 2),
	}
}

// Reset clears everything tied to the previous hand. Chips and seat are kept.
func (p *Player) Reset() {
	p.CurrentBet = 0
	p.TotalBet = 0
	p.HoleCards = make([]Card, 0, 2)
	p.HasFolded = false
	p.HasActed = false
	p.LastAction = ""
	p.LastActionAmount = 0
}

// PlaceBet moves amount from the stack into the player's bets, capped at the stack.
// It returns the amount actually placed.
func (p *Player) PlaceBet(amount int) int {
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBet += amount
	return amount
}

func (p *Player) AddChips(amount int) {
	p.Chips += amount
}

// IsAllIn reports a player still in the hand with nothing left behind.
func (p *Player) IsAllIn() bool {
	return !p.HasFolded && p.Chips == 0 && p.TotalBet > 0
}

func (p *Player) Clone() *Player {
	c := *p
	c.HoleCards = append([]Card(nil), p.HoleCards...)
	return &c
}
