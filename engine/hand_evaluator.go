package engine

import (
	"fmt"
	"sort"

	"poker-rooms/models"
)

type HandCategory int

const (
	HighCard HandCategory = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (hc HandCategory) String() string {
	names := []string{"High Card", "One Pair", "Two Pair", "Three of a Kind", "Straight", "Flush", "Full House", "Four of a Kind", "Straight Flush"}
	if hc < 0 || int(hc) >= len(names) {
		return "Unknown"
	}
	return names[hc]
}

// HandResult is the best five-card hand a player can make.
// Value orders hands totally: higher wins, equal values tie exactly.
type HandResult struct {
	PlayerID string
	Category HandCategory
	Value    uint32
	Cards    []models.Card
}

const (
	holeCardCount      = 2
	communityCardCount = 5
)

// Evaluate ranks two hole cards plus the five community cards.
func Evaluate(playerID string, hole, community []models.Card) (HandResult, error) {
	if len(hole) != holeCardCount || len(community) != communityCardCount {
		return HandResult{}, fmt.Errorf("player %s has %d hole and %d community cards: %w",
			playerID, len(hole), len(community), ErrInvalidHand)
	}

	all := make([]models.Card, 0, holeCardCount+communityCardCount)
	all = append(all, hole...)
	all = append(all, community...)

	seen := make(map[models.Card]bool, len(all))
	for _, c := range all {
		if !c.Valid() || seen[c] {
			return HandResult{}, fmt.Errorf("player %s card %s: %w", playerID, c, ErrInvalidHand)
		}
		seen[c] = true
	}

	best := HandResult{PlayerID: playerID}
	var five [5]models.Card
	// 7 choose 5: drop two cards i < j.
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			n := 0
			for k, c := range all {
				if k != i && k != j {
					five[n] = c
					n++
				}
			}
			cat, value, ordered := evaluateFive(five)
			if best.Cards == nil || value > best.Value {
				best.Category = cat
				best.Value = value
				best.Cards = ordered
			}
		}
	}
	return best, nil
}

// rankGroup is one distinct rank inside a five-card hand.
type rankGroup struct {
	value int
	cards []models.Card
}

func evaluateFive(hand [5]models.Card) (HandCategory, uint32, []models.Card) {
	byValue := make(map[int][]models.Card, 5)
	flush := true
	for i, c := range hand {
		byValue[c.Value()] = append(byValue[c.Value()], c)
		if i > 0 && c.Suit != hand[0].Suit {
			flush = false
		}
	}

	groups := make([]rankGroup, 0, len(byValue))
	for v, cards := range byValue {
		groups = append(groups, rankGroup{value: v, cards: cards})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].cards) != len(groups[j].cards) {
			return len(groups[i].cards) > len(groups[j].cards)
		}
		return groups[i].value > groups[j].value
	})

	ordered := make([]models.Card, 0, 5)
	for _, g := range groups {
		ordered = append(ordered, g.cards...)
	}

	straight := false
	straightHigh := 0
	if len(groups) == 5 {
		if groups[0].value-groups[4].value == 4 {
			straight = true
			straightHigh = groups[0].value
		} else if groups[0].value == 14 && groups[1].value == 5 {
			// wheel: the ace plays low
			straight = true
			straightHigh = 5
			ordered = append(ordered[1:], ordered[0])
		}
	}

	var cat HandCategory
	switch {
	case straight && flush:
		cat = StraightFlush
	case len(groups[0].cards) == 4:
		cat = FourOfAKind
	case len(groups[0].cards) == 3 && len(groups[1].cards) == 2:
		cat = FullHouse
	case flush:
		cat = Flush
	case straight:
		cat = Straight
	case len(groups[0].cards) == 3:
		cat = ThreeOfAKind
	case len(groups[0].cards) == 2 && len(groups[1].cards) == 2:
		cat = TwoPair
	case len(groups[0].cards) == 2:
		cat = OnePair
	default:
		cat = HighCard
	}

	value := uint32(cat) << 20
	if straight {
		value |= uint32(straightHigh) << 16
		return cat, value, ordered
	}
	for i, g := range groups {
		value |= uint32(g.value) << (16 - 4*i)
	}
	return cat, value, ordered
}

// CompareHands returns 1, -1 or 0 as a beats, loses to, or ties b.
func CompareHands(a, b HandResult) int {
	switch {
	case a.Value > b.Value:
		return 1
	case a.Value < b.Value:
		return -1
	}
	return 0
}

// Winners returns the ids holding the maximum value, in input order.
func Winners(results []HandResult) []string {
	if len(results) == 0 {
		return nil
	}
	best := results[0].Value
	for _, r := range results[1:] {
		if r.Value > best {
			best = r.Value
		}
	}
	ids := make([]string, 0, 1)
	for _, r := range results {
		if r.Value == best {
			ids = append(ids, r.PlayerID)
		}
	}
	return ids
}
