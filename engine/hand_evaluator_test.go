package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-rooms/models"
)

func cards(s string) []models.Card {
	return models.MustParseCards(s)
}

func mustEvaluate(t *testing.T, id, hole, board string) HandResult {
	t.Helper()
	res, err := Evaluate(id, cards(hole), cards(board))
	require.NoError(t, err)
	return res
}

func TestEvaluate_Categories(t *testing.T) {
	tests := []struct {
		name  string
		hole  string
		board string
		want  HandCategory
	}{
		{"high card", "Ah 9d", "2c 5s 7h Jd Kc", HighCard},
		{"one pair", "Ah Ad", "2c 5s 7h Jd Kc", OnePair},
		{"two pair", "Ah Kd", "Ac Ks 7h Jd 2c", TwoPair},
		{"three of a kind", "7h 7d", "7c Ks 2h Jd 4c", ThreeOfAKind},
		{"straight", "9h Td", "Jc Qs Kh 2d 4c", Straight},
		{"wheel", "Ah 2d", "3c 4s 5h Jd Kc", Straight},
		{"flush", "As Ad", "2s 5s 9s Ks 3h", Flush},
		{"full house", "Kh Kd", "Kc 2s 2h Jd 4c", FullHouse},
		{"four of a kind", "9h 9d", "9c 9s 2h Jd 4c", FourOfAKind},
		{"straight flush", "9h Th", "Jh Qh Kh 2d 4c", StraightFlush},
		{"royal flush", "Ah Kh", "Qh Jh Th 2d 4c", StraightFlush},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustEvaluate(t, "p", tt.hole, tt.board)
			assert.Equal(t, tt.want, res.Category)
			assert.Len(t, res.Cards, 5)
		})
	}
}

func TestEvaluate_FlushBeatsTwoPair(t *testing.T) {
	board := "2s 5s 9s Ks 3h"
	flush := mustEvaluate(t, "p1", "As Ad", board)
	pair := mustEvaluate(t, "p2", "Kh 5h", board)

	assert.Equal(t, Flush, flush.Category)
	assert.Equal(t, TwoPair, pair.Category)
	assert.Equal(t, 1, CompareHands(flush, pair))
	assert.Equal(t, []string{"p1"}, Winners([]HandResult{flush, pair}))
}

func TestEvaluate_WheelLosesToSixHighStraight(t *testing.T) {
	board := "3c 4s 5h Jd Kc"
	wheel := mustEvaluate(t, "wheel", "Ah 2d", board)
	six := mustEvaluate(t, "six", "6h 2c", board)

	assert.Equal(t, Straight, six.Category)
	assert.Equal(t, -1, CompareHands(wheel, six))
	assert.Equal(t, models.Five, wheel.Cards[0].Rank, "the ace plays low")
}

func TestEvaluate_Kickers(t *testing.T) {
	board := "Ac 7d 4s 3h 2c"
	kingKicker := mustEvaluate(t, "k", "Ah Kd", board)
	queenKicker := mustEvaluate(t, "q", "Ad Qd", board)
	assert.Equal(t, 1, CompareHands(kingKicker, queenKicker))
}

func TestEvaluate_BoardPlaysSplits(t *testing.T) {
	board := "Ts Js Qs Ks As"
	a := mustEvaluate(t, "a", "2c 3d", board)
	b := mustEvaluate(t, "b", "4h 5h", board)

	assert.Equal(t, StraightFlush, a.Category)
	assert.Equal(t, 0, CompareHands(a, b))
	assert.Equal(t, []string{"a", "b"}, Winners([]HandResult{a, b}))
}

func TestEvaluate_InvalidInput(t *testing.T) {
	_, err := Evaluate("p", cards("Ah"), cards("2c 5s 7h Jd Kc"))
	assert.ErrorIs(t, err, ErrInvalidHand)

	_, err = Evaluate("p", cards("Ah 2c"), cards("2c 5s 7h Jd Kc"))
	assert.ErrorIs(t, err, ErrInvalidHand, "duplicate card")

	_, err = Evaluate("p", []models.Card{{Rank: "Z", Suit: models.Clubs}, {Rank: models.Ace, Suit: models.Hearts}}, cards("2c 5s 7h Jd Kc"))
	assert.ErrorIs(t, err, ErrInvalidHand)
	assert.Equal(t, ResourceError, ClassOf(err))
}

func TestHandCategoryString(t *testing.T) {
	assert.Equal(t, "Flush", Flush.String())
	assert.Equal(t, "Straight Flush", StraightFlush.String())
	assert.Equal(t, "Unknown", HandCategory(42).String())
}

func toOracle(t *testing.T, c models.Card) poker.Card {
	t.Helper()
	suits := map[models.Suit]poker.Suit{
		models.Clubs:    poker.Club,
		models.Diamonds: poker.Diamond,
		models.Hearts:   poker.Heart,
		models.Spades:   poker.Spade,
	}
	rank := c.Value()
	if rank == 14 {
		rank = 1
	}
	pc, err := poker.MakeCard(suits[c.Suit], poker.Rank(rank))
	require.NoError(t, err)
	return pc
}

func oracleScore(t *testing.T, hole, board []models.Card) int16 {
	var seven [7]poker.Card
	for i, c := range append(append([]models.Card(nil), hole...), board...) {
		seven[i] = toOracle(t, c)
	}
	return poker.Eval7(&seven)
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

// Random heads-up showdowns must order exactly as an independent evaluator does.
func TestEvaluate_AgreesWithReferenceEvaluator(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 7))
	for i := 0; i < 3000; i++ {
		deck := models.NewShuffledDeck(rng)
		dealt, err := deck.Deal(9)
		require.NoError(t, err)
		board, hole1, hole2 := dealt[:5], dealt[5:7], dealt[7:9]

		r1, err := Evaluate("a", hole1, board)
		require.NoError(t, err)
		r2, err := Evaluate("b", hole2, board)
		require.NoError(t, err)

		want := sign(int(oracleScore(t, hole1, board)) - int(oracleScore(t, hole2, board)))
		require.Equal(t, want, CompareHands(r1, r2), "board %v, %v vs %v", board, hole1, hole2)
	}
}
