package models

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

type Suit string
type Rank string

const (
	Clubs    Suit = "c"
	Diamonds Suit = "d"
	Hearts   Suit = "h"
	Spades   Suit = "s"
)

const (
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "T"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
	Ace   Rank = "A"
)

// DeckSize is the number of distinct cards in a standard deck.
const DeckSize = 52

var (
	AllSuits = []Suit{Clubs, Diamonds, Hearts, Spades}
	AllRanks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}
)

// ErrDeckExhausted is returned when more cards are requested than the deck holds.
var ErrDeckExhausted = errors.New("deck exhausted")

type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Value returns the rank value with aces high (2..14), 0 for an unknown rank.
func (c Card) Value() int {
	switch c.Rank {
	case Two:
		return 2
	case Three:
		return 3
	case Four:
		return 4
	case Five:
		return 5
	case Six:
		return 6
	case Seven:
		return 7
	case Eight:
		return 8
	case Nine:
		return 9
	case Ten:
		return 10
	case Jack:
		return 11
	case Queen:
		return 12
	case King:
		return 13
	case Ace:
		return 14
	}
	return 0
}

func (c Card) Valid() bool {
	if c.Value() == 0 {
		return false
	}
	switch c.Suit {
	case Clubs, Diamonds, Hearts, Spades:
		return true
	}
	return false
}

// ParseCard reads the short notation used by String ("Ah", "Tc"). "10" is accepted for ten.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "10") {
		s = "T" + s[2:]
	}
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	c := Card{Rank: Rank(strings.ToUpper(s[:1])), Suit: Suit(strings.ToLower(s[1:]))}
	if !c.Valid() {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	return c, nil
}

// MustParseCards parses a space separated card list and panics on bad input. Intended for tests.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

// Deck is a single-use pack of cards. Cards are dealt from the end.
type Deck struct {
	cards []Card
}

// NewDeck returns the 52 cards in canonical order: suits c, d, h, s, each 2 through A.
func NewDeck() *Deck {
	d := &Deck{cards: make([]Card, 0, DeckSize)}
	for _, suit := range AllSuits {
		for _, rank := range AllRanks {
			d.cards = append(d.cards, Card{Rank: rank, Suit: suit})
		}
	}
	return d
}

// NewShuffledDeck returns a canonical deck shuffled with rng.
func NewShuffledDeck(rng *rand.Rand) *Deck {
	d := NewDeck()
	d.Shuffle(rng)
	return d
}

// Shuffle applies an unbiased Fisher-Yates permutation.
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal pops n cards off the end of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("requested %d, available %d: %w", n, len(d.cards), ErrDeckExhausted)
	}
	cut := len(d.cards) - n
	dealt := make([]Card, n)
	for i := 0; i < n; i++ {
		dealt[i] = d.cards[len(d.cards)-1-i]
	}
	d.cards = d.cards[:cut]
	return dealt, nil
}

func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the cards left, bottom first.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}
