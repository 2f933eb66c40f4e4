package game

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingPlay
	PhaseAwaitingColorChoice
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "notStarted"
	case PhaseAwaitingPlay:
		return "awaitingPlay"
	case PhaseAwaitingColorChoice:
		return "awaitingColorChoice"
	case PhaseGameOver:
		return "gameOver"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for ph := PhaseNotStarted; ph <= PhaseGameOver; ph++ {
		if ph.String() == string(text) {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

const (
	ReasonHandEmptied   = "hand emptied"
	ReasonDeckExhausted = "deck exhausted"
)

// Outcome describes how a game ended. Winner is nil for a draw.
type Outcome struct {
	Winner *Player `json:"winner,omitempty"`
	Reason string  `json:"reason"`
}

func (o Outcome) IsDraw() bool {
	return o.Winner == nil
}

func (o Outcome) String() string {
	if o.Winner == nil {
		return "draw (" + o.Reason + ")"
	}
	return o.Winner.String() + " wins"
}

// TurnContext is the per-turn bookkeeping owned by the session
type TurnContext struct {
	CurrentPlayer      Player `json:"currentPlayer"`
	HasDrawnThisTurn   bool   `json:"hasDrawnThisTurn"`
	PendingDrawPenalty int    `json:"pendingDrawPenalty"`
	PendingSkip        bool   `json:"pendingSkip"`
}

// GameSession owns the deck, both hands and the turn state of one game.
// It is not safe for concurrent use; Engine adds the locking.
type GameSession struct {
	rules  Rules
	rng    *rand.Rand
	policy Policy
	log    *logrus.Entry

	deck    *Deck
	hands   [numPlayers]Hand
	discard DiscardState
	turn    TurnContext
	phase   Phase
	outcome *Outcome

	// pendingEffect is applied once a human color choice arrives
	pendingEffect Effect
	// drawnID is the card drawn voluntarily this turn, 0 if none
	drawnID int
	nextID  int
	turns   int

	pending []Event
}

// NewSession creates a session and deals the opening hands
func NewSession(rules Rules, rng *rand.Rand, policy Policy, log *logrus.Entry) (*GameSession, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	s, err := newSession(rules, rng, policy, log)
	if err != nil {
		return nil, err
	}

	if err := s.deal(); err != nil {
		return nil, err
	}
	return s, nil
}

func newSession(rules Rules, rng *rand.Rand, policy Policy, log *logrus.Entry) (*GameSession, error) {
	deck, err := NewDeck(rng, rules.ReshuffleLimit)
	if err != nil {
		return nil, err
	}

	if policy == nil {
		policy = NewFirstLegal(rng)
	}
	if log == nil {
		log = discardLogger()
	}

	return &GameSession{
		rules:  rules,
		rng:    rng,
		policy: policy,
		log:    log,
		deck:   deck,
		phase:  PhaseNotStarted,
	}, nil
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// deal hands out cards alternating computer then human and turns the first
// discard. The starting card carries no effect; a wild start gets a random color.
func (s *GameSession) deal() error {
	for i := 0; i < s.rules.HandSize; i++ {
		for _, p := range []Player{Computer, Human} {
			c, err := s.deck.Draw()
			if err != nil {
				return fmt.Errorf("dealing: %w", err)
			}
			s.hands[p] = append(s.hands[p], s.tag(c))
		}
	}

	top, err := s.deck.Draw()
	if err != nil {
		return fmt.Errorf("turning first discard: %w", err)
	}
	s.discard = DiscardState{ActiveColor: top.Color, ActiveFace: top.Face, Top: top}
	if top.IsWild() {
		s.discard.ActiveColor = Colors[s.rng.IntN(len(Colors))]
	}

	s.phase = PhaseAwaitingPlay
	s.turn = TurnContext{CurrentPlayer: Human}

	s.log.WithFields(logrus.Fields{
		"hand_size": s.rules.HandSize,
		"discard":   top.String(),
	}).Debug("Game dealt")

	s.emit(Event{Type: EventGameStarted})
	s.emit(newHandEvent(Computer, s.hands[Computer]))
	s.emit(newHandEvent(Human, s.hands[Human]))
	s.emit(newStateEvent(s.discard))
	s.emit(newTurnEvent(Human))
	return nil
}

func (s *GameSession) tag(c Card) HandCard {
	s.nextID++
	return HandCard{ID: s.nextID, Card: c}
}

func (s *GameSession) emit(e Event) {
	s.pending = append(s.pending, e)
}

// drain hands over the events emitted since the last call
func (s *GameSession) drain() []Event {
	out := s.pending
	s.pending = nil
	return out
}

// checkActing rejects actions outside AwaitingPlay or from the wrong player
func (s *GameSession) checkActing(op string, p Player) error {
	switch s.phase {
	case PhaseNotStarted:
		return newError(InvalidStateForOperation, op, "game has not started")
	case PhaseGameOver:
		return newError(InvalidStateForOperation, op, "game is over")
	case PhaseAwaitingColorChoice:
		return newError(InvalidStateForOperation, op, "waiting for %s to choose a color", s.turn.CurrentPlayer)
	}
	if !p.Valid() {
		return newError(NotYourTurn, op, "unknown player %d", int(p))
	}
	if p != s.turn.CurrentPlayer {
		return newError(NotYourTurn, op, "it is the %s's turn", s.turn.CurrentPlayer)
	}
	return nil
}

// AttemptPlay plays the hand card with the given ID. After a voluntary draw
// only the drawn card may be played.
func (s *GameSession) AttemptPlay(p Player, cardID int) error {
	const op = "play card"
	if err := s.checkActing(op, p); err != nil {
		return err
	}

	i, ok := s.hands[p].index(cardID)
	if !ok {
		return newError(IllegalMove, op, "card %d is not in the %s's hand", cardID, p)
	}
	card := s.hands[p][i].Card

	if s.turn.HasDrawnThisTurn && cardID != s.drawnID {
		return newError(IllegalMove, op, "only the card drawn this turn may be played")
	}
	if !IsLegalPlay(card, s.discard) {
		return newError(IllegalMove, op, "%s does not match %s", card, s.discard)
	}

	s.play(p, i)
	s.settle()
	return nil
}

// ResolveColorChoice completes a wild card played by the human
func (s *GameSession) ResolveColorChoice(p Player, c Color) error {
	const op = "choose color"
	switch s.phase {
	case PhaseAwaitingColorChoice:
	case PhaseGameOver:
		return newError(InvalidStateForOperation, op, "game is over")
	default:
		return newError(InvalidStateForOperation, op, "no color choice is pending")
	}
	if p != s.turn.CurrentPlayer {
		return newError(NotYourTurn, op, "the %s chooses the color", s.turn.CurrentPlayer)
	}
	if !c.Playable() {
		return newError(IllegalMove, op, "%q is not a playable color", c)
	}

	effect := s.pendingEffect
	s.pendingEffect = Effect{}
	s.phase = PhaseAwaitingPlay

	s.setColor(p, c)
	s.emit(newStateEvent(s.discard))
	s.resolve(effect)
	s.settle()
	return nil
}

// AttemptDraw draws one card for p. A legal drawn card keeps the turn open
// so it can be played or passed on; otherwise the turn moves on.
func (s *GameSession) AttemptDraw(p Player) (HandCard, error) {
	const op = "draw card"
	if err := s.checkActing(op, p); err != nil {
		return HandCard{}, err
	}
	if s.turn.HasDrawnThisTurn {
		return HandCard{}, newError(AlreadyDrewThisTurn, op, "only one draw per turn")
	}

	drawn, err := s.drawInto(p, 1, EventCardDrawn)
	if err != nil {
		return HandCard{}, newError(DeckExhaustedDraw, op, "no card left to draw, game ends in a draw")
	}

	hc := drawn[0]
	s.turn.HasDrawnThisTurn = true
	s.drawnID = hc.ID

	if !IsLegalPlay(hc.Card, s.discard) {
		s.advanceTurn()
		s.settle()
	}
	return hc, nil
}

// Pass ends the turn after a voluntary draw
func (s *GameSession) Pass(p Player) error {
	const op = "pass"
	if err := s.checkActing(op, p); err != nil {
		return err
	}
	if !s.turn.HasDrawnThisTurn {
		return newError(IllegalMove, op, "draw a card before passing")
	}

	s.emit(Event{Type: EventPassed, Player: p})
	s.advanceTurn()
	s.settle()
	return nil
}

// play moves hand card i of p onto the discard pile and resolves it
func (s *GameSession) play(p Player, i int) {
	hand := s.hands[p]
	hc := hand[i]
	s.hands[p] = append(hand[:i:i], hand[i+1:]...)

	s.discard = DiscardState{ActiveColor: hc.Color, ActiveFace: hc.Face, Top: hc.Card}

	s.log.WithFields(logrus.Fields{
		"player": p.String(),
		"card":   hc.Card.String(),
		"left":   len(s.hands[p]),
	}).Debug("Card played")

	s.emit(newCardEvent(EventCardPlayed, p, hc.Card))
	s.emit(newHandEvent(p, s.hands[p]))

	if len(s.hands[p]) == 0 {
		winner := p
		s.emit(newStateEvent(s.discard))
		s.finish(Outcome{Winner: &winner, Reason: ReasonHandEmptied})
		return
	}

	effect := EffectOf(hc.Category)
	if effect.NeedsColor {
		if p == Human {
			s.phase = PhaseAwaitingColorChoice
			s.pendingEffect = effect
			s.emit(newStateEvent(s.discard))
			return
		}
		s.setColor(p, s.policy.ChooseColor(s.hands[p].clone()))
	}

	s.emit(newStateEvent(s.discard))
	s.resolve(effect)
}

func (s *GameSession) setColor(p Player, c Color) {
	if !c.Playable() {
		s.log.WithField("color", string(c)).Warn("Policy chose an unplayable color, picking one at random")
		c = Colors[s.rng.IntN(len(Colors))]
	}
	s.discard.ActiveColor = c
	s.emit(Event{Type: EventColorChosen, Player: p, Color: c})
}

func (s *GameSession) resolve(effect Effect) {
	switch effect.Kind {
	case EffectDrawPenalty:
		s.turn.PendingDrawPenalty = effect.Draw
	case EffectForceSkip:
		s.turn.PendingSkip = true
	}
	s.advanceTurn()
}

// advanceTurn hands the turn to the opponent. A pending penalty makes the
// opponent draw and returns the turn; a pending skip returns it directly.
func (s *GameSession) advanceTurn() {
	s.toggle()

	if n := s.turn.PendingDrawPenalty; n > 0 {
		s.turn.PendingDrawPenalty = 0
		if _, err := s.drawInto(s.turn.CurrentPlayer, n, EventPenaltyDrawn); err != nil {
			return
		}
		s.toggle()
	} else if s.turn.PendingSkip {
		s.turn.PendingSkip = false
		s.emit(Event{Type: EventTurnSkipped, Player: s.turn.CurrentPlayer})
		s.toggle()
	}

	s.turns++
	s.log.WithFields(logrus.Fields{
		"player": s.turn.CurrentPlayer.String(),
		"turn":   s.turns,
	}).Debug("Turn advanced")
	s.emit(newTurnEvent(s.turn.CurrentPlayer))
}

func (s *GameSession) toggle() {
	s.turn.CurrentPlayer = s.turn.CurrentPlayer.Opponent()
	s.turn.HasDrawnThisTurn = false
	s.drawnID = 0
}

// drawInto deals n cards from the deck to p. A deck failure ends the game.
func (s *GameSession) drawInto(p Player, n int, t EventType) ([]HandCard, error) {
	drawn := make([]HandCard, 0, n)
	for i := 0; i < n; i++ {
		c, err := s.deck.Draw()
		if err != nil {
			if len(drawn) > 0 {
				s.emit(newHandEvent(p, s.hands[p]))
			}
			s.finish(Outcome{Reason: ReasonDeckExhausted})
			return drawn, err
		}
		hc := s.tag(c)
		s.hands[p] = append(s.hands[p], hc)
		drawn = append(drawn, hc)
	}

	e := Event{Type: t, Player: p, Count: n}
	if t == EventCardDrawn && p == Human {
		e.Card = &drawn[0].Card
	}
	s.emit(e)
	s.emit(newHandEvent(p, s.hands[p]))
	return drawn, nil
}

func (s *GameSession) finish(o Outcome) {
	s.phase = PhaseGameOver
	s.outcome = &o
	s.pendingEffect = Effect{}
	s.turn.PendingDrawPenalty = 0
	s.turn.PendingSkip = false

	s.log.WithFields(logrus.Fields{
		"outcome": o.String(),
		"turns":   s.turns,
	}).Info("Game over")
	s.emit(newGameOverEvent(o))
}

// settle runs computer turns until the human has to act or the game ends
func (s *GameSession) settle() {
	for s.phase == PhaseAwaitingPlay && s.turn.CurrentPlayer == Computer {
		s.computerTurn()
	}
}

// computerTurn plays the policy's card, or draws once and plays the drawn
// card when it is legal.
func (s *GameSession) computerTurn() {
	hand := s.hands[Computer]
	if choice, ok := s.policy.ChooseCard(hand.clone(), s.discard); ok {
		if i, found := hand.index(choice.ID); found && IsLegalPlay(hand[i].Card, s.discard) {
			s.play(Computer, i)
			return
		}
		s.log.WithField("card_id", choice.ID).Warn("Policy chose an unplayable card, drawing instead")
	}

	drawn, err := s.drawInto(Computer, 1, EventCardDrawn)
	if err != nil {
		return
	}
	s.turn.HasDrawnThisTurn = true
	s.drawnID = drawn[0].ID

	if IsLegalPlay(drawn[0].Card, s.discard) {
		s.play(Computer, len(s.hands[Computer])-1)
		return
	}
	s.advanceTurn()
}

func (s *GameSession) Phase() Phase {
	return s.phase
}

func (s *GameSession) Turn() TurnContext {
	return s.turn
}

func (s *GameSession) CurrentPlayer() Player {
	return s.turn.CurrentPlayer
}

func (s *GameSession) Discard() DiscardState {
	return s.discard
}

// Hand returns a copy of p's hand in deal/draw order
func (s *GameSession) Hand(p Player) []HandCard {
	if !p.Valid() {
		return nil
	}
	return s.hands[p].clone()
}

func (s *GameSession) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

func (s *GameSession) DeckRemaining() int {
	return s.deck.Remaining()
}

// Turns counts completed turn changes
func (s *GameSession) Turns() int {
	return s.turns
}

// DrawnCard returns the card drawn this turn while it can still be played
func (s *GameSession) DrawnCard() (HandCard, bool) {
	if s.phase != PhaseAwaitingPlay || !s.turn.HasDrawnThisTurn {
		return HandCard{}, false
	}
	hand := s.hands[s.turn.CurrentPlayer]
	i, ok := hand.index(s.drawnID)
	if !ok {
		return HandCard{}, false
	}
	return hand[i], true
}

// LegalMoves lists the cards p may play right now
func (s *GameSession) LegalMoves(p Player) []HandCard {
	if s.checkActing("legal moves", p) != nil {
		return nil
	}
	if s.turn.HasDrawnThisTurn {
		if hc, ok := s.DrawnCard(); ok && IsLegalPlay(hc.Card, s.discard) {
			return []HandCard{hc}
		}
		return nil
	}

	var moves []HandCard
	for _, hc := range s.hands[p] {
		if IsLegalPlay(hc.Card, s.discard) {
			moves = append(moves, hc)
		}
	}
	return moves
}
