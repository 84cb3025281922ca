package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"poker-rooms/models"
)

// Game drives one table through its hands. It mutates the table it was built
// with and collects the events each step produced; callers hand it a clone and
// keep the result only when the step succeeds.
type Game struct {
	table  *models.Table
	rng    *rand.Rand
	events []models.Event
}

func NewGame(table *models.Table, rng *rand.Rand) *Game {
	return &Game{table: table, rng: rng}
}

func (g *Game) Table() *models.Table {
	return g.table
}

// Events returns everything emitted since the game was built, in order.
func (g *Game) Events() []models.Event {
	return g.events
}

func (g *Game) emit(name string, data interface{}) {
	g.table.EventSequence++
	g.events = append(g.events, models.Event{
		Event:    name,
		TableID:  g.table.TableID,
		Sequence: g.table.EventSequence,
		Data:     data,
	})
}

// Join seats a player, checking capacity before the password.
// Joining a room twice is a no-op.
func (g *Game) Join(playerID, playerName, password string, isHost bool) error {
	t := g.table
	if playerID == "" {
		return ErrMissingID
	}
	if t.Status == models.StatusEnded {
		return ErrRoomEnded
	}
	if FindPlayer(t, playerID) != nil {
		return nil
	}
	if len(t.Players) >= t.Config.MaxPlayers {
		return fmt.Errorf("%d of %d seats taken: %w", len(t.Players), t.Config.MaxPlayers, ErrRoomFull)
	}
	if !checkPassword(t, password) {
		return ErrWrongPassword
	}

	if !isHost && len(t.Players) == 0 {
		isHost = true
	}
	player, err := AddPlayer(t, playerID, playerName, t.Config.StartingChips, isHost)
	if err != nil {
		return err
	}
	g.emit(models.EventPlayerJoined, models.PlayerJoinedEvent{
		PlayerID:    player.PlayerID,
		PlayerName:  player.PlayerName,
		SeatIndex:   player.SeatIndex,
		PlayerCount: len(t.Players),
		IsHost:      player.IsHost,
	})
	return nil
}

// StartHand deals a new hand.
func (g *Game) StartHand() error {
	t := g.table
	switch t.Status {
	case models.StatusEnded:
		return ErrRoomEnded
	case models.StatusPlaying:
		return ErrHandInProgress
	}

	seated := countPlayers(t.Players, hasChips)
	if seated < t.Config.MinPlayers || seated > t.Config.MaxPlayers {
		return fmt.Errorf("%d players with chips, need %d to %d: %w",
			seated, t.Config.MinPlayers, t.Config.MaxPlayers, ErrNotEnoughPlayers)
	}

	ResetHand(t)
	t.DealerSeat = nextDealerSeat(t)
	t.HandNumber++
	t.LastHand = nil
	t.Deck = models.NewShuffledDeck(g.rng)

	dealt := make([]string, 0, seated)
	for _, p := range t.Players {
		if !hasChips(p) {
			p.HasFolded = true
			continue
		}
		cards, err := t.Deck.Deal(holeCardCount)
		if err != nil {
			return fmt.Errorf("dealing to %s: %w", p.PlayerID, err)
		}
		p.HoleCards = cards
		dealt = append(dealt, p.PlayerID)
	}
	board, err := t.Deck.Deal(communityCardCount)
	if err != nil {
		return fmt.Errorf("dealing the board: %w", err)
	}
	t.CommunityCards = board

	t.Status = models.StatusPlaying
	t.Round = models.RoundPreflop

	openAfter := t.DealerSeat
	if t.Config.BigBlind > 0 {
		if bb := g.postBlinds(); bb != nil {
			openAfter = bb.SeatIndex
		}
	}

	g.emit(models.EventHandDealt, models.HandDealtEvent{
		HandNumber: t.HandNumber,
		DealerSeat: t.DealerSeat,
		PlayerIDs:  dealt,
		Pot:        t.Pot,
		CurrentBet: t.CurrentBet,
	})

	if first := firstToActAfterSeat(t, openAfter); first != "" {
		g.setTurn(first)
		return nil
	}
	// blinds put everyone but one player all-in; that player still owes the call
	facing := func(p *models.Player) bool { return canAct(p) && p.CurrentBet < t.CurrentBet }
	if p := findNextFromSeat(t.Players, openAfter, facing); p != nil {
		g.setTurn(p.PlayerID)
		return nil
	}
	return g.runOut()
}

// postBlinds returns the big blind player.
func (g *Game) postBlinds() *models.Player {
	t := g.table
	sb, bb := calculateBlindSeats(t, t.DealerSeat)
	if sb == nil || bb == nil {
		return nil
	}
	g.postBlind(sb, t.Config.SmallBlind)
	g.postBlind(bb, t.Config.BigBlind)
	// a short blind only opens the betting at what it could post
	t.CurrentBet = max(sb.CurrentBet, bb.CurrentBet)
	return bb
}

func (g *Game) postBlind(p *models.Player, amount int) {
	placed := p.PlaceBet(amount)
	g.table.Pot += placed
	p.LastActionAmount = placed
}

// Act applies a betting action and moves the hand forward.
func (g *Game) Act(action models.Action) error {
	bet, err := NewActionProcessor(g.table).Process(action)
	if err != nil {
		return err
	}
	g.emit(models.EventBetPlaced, bet)
	return g.afterAction(action.PlayerID)
}

// ActAt applies action only while the table is still at the action sequence
// the caller saw. Used for actions issued on a player's behalf.
func (g *Game) ActAt(action models.Action, sequence uint64) error {
	t := g.table
	if t.Status != models.StatusPlaying || t.ActionSequence != sequence || t.CurrentTurn != action.PlayerID {
		return fmt.Errorf("action sequence %d, table at %d: %w", sequence, t.ActionSequence, ErrStaleAction)
	}
	return g.Act(action)
}

func (g *Game) afterAction(actorID string) error {
	t := g.table
	if done, err := g.settleIfUncontested(); done || err != nil {
		return err
	}
	if advanced, err := g.MaybeAdvanceRound(); advanced || err != nil {
		return err
	}

	next, err := NextTurn(t, actorID)
	if errors.Is(err, ErrHandOver) {
		return g.runOut()
	}
	if err != nil {
		return err
	}
	g.setTurn(next)
	return nil
}

// settleIfUncontested awards the pot when a single player is left in the hand.
func (g *Game) settleIfUncontested() (bool, error) {
	active := ActivePlayers(g.table)
	switch len(active) {
	case 0:
		g.finishHand()
		return true, nil
	case 1:
		g.awardUncontested(active[0])
		return true, nil
	}
	return false, nil
}

// MaybeAdvanceRound moves to the next street once betting is closed and
// reports whether it did.
func (g *Game) MaybeAdvanceRound() (bool, error) {
	if !g.bettingClosed() {
		return false, nil
	}
	return true, g.advanceRound()
}

// bettingClosed: every player still able to bet has acted and matched the
// table bet. All-in players have nothing left to decide.
func (g *Game) bettingClosed() bool {
	t := g.table
	if t.Status != models.StatusPlaying {
		return false
	}
	for _, p := range t.Players {
		if !canAct(p) {
			continue
		}
		if !p.HasActed || p.CurrentBet < t.CurrentBet {
			return false
		}
	}
	return true
}

// advanceRound moves to the next street. When fewer than two players can
// still bet the board is run out to the showdown.
func (g *Game) advanceRound() error {
	t := g.table
	for {
		ResetBettingRound(t)
		t.Round = t.Round.Next()
		if t.Round == models.RoundShowdown {
			return g.showdown()
		}
		g.emit(models.EventRoundChanged, models.RoundChangedEvent{
			Round:          t.Round,
			CommunityCards: t.RevealedCards(),
		})
		if first := firstToActAfterSeat(t, t.DealerSeat); first != "" {
			g.setTurn(first)
			return nil
		}
		t.CurrentTurn = ""
	}
}

func (g *Game) runOut() error {
	g.table.CurrentTurn = ""
	return g.advanceRound()
}

func (g *Game) setTurn(playerID string) {
	g.table.CurrentTurn = playerID
	g.emit(models.EventTurnChanged, models.TurnChangedEvent{
		PlayerID:       playerID,
		ActionSequence: g.table.ActionSequence,
	})
}

func (g *Game) showdown() error {
	t := g.table
	t.CurrentTurn = ""

	active := ActivePlayers(t)
	results := make([]HandResult, 0, len(active))
	for _, p := range active {
		res, err := Evaluate(p.PlayerID, p.HoleCards, t.CommunityCards)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	winnerIDs := make(map[string]bool)
	for _, id := range Winners(results) {
		winnerIDs[id] = true
	}
	var winners []*models.Player
	for _, p := range orderFromDealer(t.Players, t.DealerSeat) {
		if winnerIDs[p.PlayerID] {
			winners = append(winners, p)
		}
	}

	pot := t.Pot
	shares := DistributePot(pot, winners, t.Config.SplitRemainder)

	board := append([]models.Card(nil), t.CommunityCards...)
	summary := make([]models.Winner, 0, len(results))
	paid := make([]models.Winner, 0, len(winners))
	for _, res := range results {
		p := FindPlayer(t, res.PlayerID)
		w := models.Winner{
			PlayerID:   p.PlayerID,
			PlayerName: p.PlayerName,
			Amount:     shares[p.PlayerID],
			HandRank:   res.Category.String(),
			HandCards:  res.Cards,
			HoleCards:  append([]models.Card(nil), p.HoleCards...),
		}
		summary = append(summary, w)
		if winnerIDs[p.PlayerID] {
			p.AddChips(w.Amount)
			paid = append(paid, w)
		}
	}

	t.LastHand = &models.HandSummary{
		HandNumber: t.HandNumber,
		Board:      board,
		Winners:    paid,
		Showdown:   true,
		Pot:        pot,
	}
	g.emit(models.EventShowdown, models.ShowdownEvent{
		HandNumber: t.HandNumber,
		Board:      board,
		Winners:    paid,
		Results:    summary,
		Pot:        pot,
	})
	g.finishHand()
	return nil
}

func (g *Game) awardUncontested(p *models.Player) {
	t := g.table
	amount := t.Pot
	p.AddChips(amount)
	winner := models.Winner{PlayerID: p.PlayerID, PlayerName: p.PlayerName, Amount: amount}
	t.LastHand = &models.HandSummary{
		HandNumber: t.HandNumber,
		Board:      t.RevealedCards(),
		Winners:    []models.Winner{winner},
		Pot:        amount,
	}
	g.emit(models.EventPotAwarded, models.PotAwardedEvent{
		HandNumber: t.HandNumber,
		PlayerID:   p.PlayerID,
		Amount:     amount,
	})
	g.finishHand()
}

// finishHand clears the hand, eliminates busted players and decides whether
// the room can go on.
func (g *Game) finishHand() {
	t := g.table
	t.Pot = 0
	t.CurrentBet = 0
	t.CurrentTurn = ""
	t.Deck = nil
	resetPlayersForNewRound(t.Players)
	t.Round = models.RoundPreflop
	t.Status = models.StatusWaiting

	for _, p := range filterPlayers(t.Players, func(p *models.Player) bool { return !hasChips(p) }) {
		if _, err := RemovePlayer(t, p.PlayerID); err != nil {
			continue
		}
		g.emit(models.EventPlayerEliminated, models.PlayerEliminatedEvent{PlayerID: p.PlayerID})
	}
	reassignHost(t)

	switch {
	case countPlayers(t.Players, hasChips) < 2:
		g.endRoom("not enough players with chips")
	case len(t.Players) < t.Config.MinPlayers:
		g.endRoom("players left")
	}
}

// Leave removes a player. A player still in the hand folds first, so the
// turn passes on or the hand ends. Leaving a room you are not in is a no-op.
func (g *Game) Leave(playerID string) error {
	t := g.table
	if playerID == "" {
		return ErrMissingID
	}
	p := FindPlayer(t, playerID)
	if p == nil {
		return nil
	}

	inHand := t.Status == models.StatusPlaying && !p.HasFolded
	hadTurn := t.CurrentTurn == playerID
	seat := p.SeatIndex
	p.HasFolded = true

	if _, err := RemovePlayer(t, playerID); err != nil {
		return err
	}
	var newHost string
	if p.IsHost {
		newHost = reassignHost(t)
	}
	g.emit(models.EventPlayerLeft, models.PlayerLeftEvent{
		PlayerID:    playerID,
		PlayerCount: len(t.Players),
		NewHost:     newHost,
	})

	if inHand {
		if err := g.afterLeave(seat, hadTurn); err != nil {
			return err
		}
	}

	if t.Status == models.StatusWaiting && t.HandNumber > 0 && len(t.Players) < t.Config.MinPlayers {
		g.endRoom("players left")
	}
	return nil
}

func (g *Game) afterLeave(seat int, hadTurn bool) error {
	t := g.table
	if done, err := g.settleIfUncontested(); done || err != nil {
		return err
	}
	if advanced, err := g.MaybeAdvanceRound(); advanced || err != nil {
		return err
	}
	if !hadTurn {
		return nil
	}
	next := findNextFromSeat(t.Players, seat, canAct)
	if next == nil {
		return g.runOut()
	}
	g.setTurn(next.PlayerID)
	return nil
}

// EndRoom closes the room for good. A hand in progress is abandoned and
// every bet returned.
func (g *Game) EndRoom(requesterID string) error {
	t := g.table
	if t.Status == models.StatusEnded {
		return ErrRoomEnded
	}
	p := FindPlayer(t, requesterID)
	if p == nil || !p.IsHost {
		return ErrNotHost
	}
	if t.Status == models.StatusPlaying {
		refundBets(t)
		ResetHand(t)
	}
	g.endRoom("ended by host")
	return nil
}

func (g *Game) endRoom(reason string) {
	t := g.table
	t.Status = models.StatusEnded
	t.CurrentTurn = ""
	t.EndedAt = time.Now().UTC()
	g.emit(models.EventRoomEnded, models.RoomEndedEvent{Reason: reason})
}
