package models

import (
	"sort"
	"time"
)

type TableStatus string
type BettingRound string

const (
	StatusWaiting TableStatus = "waiting"
	StatusPlaying TableStatus = "playing"
	StatusEnded   TableStatus = "ended"
)

const (
	RoundPreflop  BettingRound = "pre_flop"
	RoundFlop     BettingRound = "flop"
	RoundTurn     BettingRound = "turn"
	RoundRiver    BettingRound = "river"
	RoundShowdown BettingRound = "showdown"
)

// Next returns the round that follows r. Showdown wraps to pre-flop.
func (r BettingRound) Next() BettingRound {
	switch r {
	case RoundPreflop:
		return RoundFlop
	case RoundFlop:
		return RoundTurn
	case RoundTurn:
		return RoundRiver
	case RoundRiver:
		return RoundShowdown
	}
	return RoundPreflop
}

// RevealedCount is the number of community cards visible during r.
func (r BettingRound) RevealedCount() int {
	switch r {
	case RoundFlop:
		return 3
	case RoundTurn:
		return 4
	case RoundRiver, RoundShowdown:
		return 5
	}
	return 0
}

// RemainderPolicy decides what happens to the odd chips of a split pot.
type RemainderPolicy string

const (
	// RemainderEarliest hands the odd chips one at a time to the winners
	// in seat order, starting left of the dealer button.
	RemainderEarliest RemainderPolicy = "earliest"
	// RemainderDiscard pays floor(pot/winners) only; the rest leaves play.
	RemainderDiscard RemainderPolicy = "discard"
)

const (
	MaxSeats             = 10
	DefaultStartingChips = 1000
)

type TableConfig struct {
	MinPlayers     int             `json:"minPlayers"`
	MaxPlayers     int             `json:"maxPlayers"`
	StartingChips  int             `json:"startingChips"`
	SmallBlind     int             `json:"smallBlind,omitempty"`
	BigBlind       int             `json:"bigBlind,omitempty"`
	SplitRemainder RemainderPolicy `json:"splitRemainder,omitempty"`
}

type Winner struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Amount     int    `json:"amount"`
	HandRank   string `json:"handRank"`
	HandCards  []Card `json:"handCards,omitempty"`
	HoleCards  []Card `json:"holeCards,omitempty"`
}

// HandSummary is what remains public about the last finished hand.
type HandSummary struct {
	HandNumber int      `json:"handNumber"`
	Board      []Card   `json:"board"`
	Winners    []Winner `json:"winners"`
	Showdown   bool     `json:"showdown"`
	Pot        int      `json:"pot"`
}

type Table struct {
	TableID        string       `json:"tableId"`
	Name           string       `json:"name"`
	Status         TableStatus  `json:"status"`
	Config         TableConfig  `json:"config"`
	Players        []*Player    `json:"players"`
	Pot            int          `json:"pot"`
	CurrentBet     int          `json:"currentBet"`
	Round          BettingRound `json:"round"`
	CurrentTurn    string       `json:"currentTurn,omitempty"`
	CommunityCards []Card       `json:"communityCards"`
	PasswordHash   string       `json:"passwordHash,omitempty"`
	DealerSeat     int          `json:"dealerSeat"`
	HandNumber     int          `json:"handNumber"`
	ActionSequence uint64       `json:"actionSequence"`
	EventSequence  uint64       `json:"eventSequence"`
	LastHand       *HandSummary `json:"lastHand,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	EndedAt        time.Time    `json:"endedAt,omitzero"`
	Deck           *Deck        `json:"-"`
}

func (t *Table) HasPassword() bool {
	return t.PasswordHash != ""
}

// RevealedCards returns the community cards visible in the current round.
func (t *Table) RevealedCards() []Card {
	n := t.Round.RevealedCount()
	if n > len(t.CommunityCards) {
		n = len(t.CommunityCards)
	}
	return append([]Card(nil), t.CommunityCards[:n]...)
}

// SortSeats keeps Players ordered by seat index.
func (t *Table) SortSeats() {
	sort.SliceStable(t.Players, func(i, j int) bool {
		return t.Players[i].SeatIndex < t.Players[j].SeatIndex
	})
}

// Clone returns a deep copy, deck included.
func (t *Table) Clone() *Table {
	c := *t
	c.Players = make([]*Player, len(t.Players))
	for i, p := range t.Players {
		c.Players[i] = p.Clone()
	}
	c.CommunityCards = append([]Card(nil), t.CommunityCards...)
	if t.LastHand != nil {
		lh := *t.LastHand
		lh.Board = append([]Card(nil), t.LastHand.Board...)
		lh.Winners = append([]Winner(nil), t.LastHand.Winners...)
		c.LastHand = &lh
	}
	if t.Deck != nil {
		c.Deck = &Deck{cards: t.Deck.Cards()}
	}
	return &c
}

// ViewFor returns a copy safe to show to viewerID: other players' hole cards,
// unrevealed community cards and the password hash are stripped.
func (t *Table) ViewFor(viewerID string) *Table {
	v := t.Clone()
	v.Deck = nil
	v.PasswordHash = ""
	v.CommunityCards = t.RevealedCards()
	for _, p := range v.Players {
		if p.PlayerID != viewerID {
			p.HoleCards = nil
		}
	}
	return v
}
