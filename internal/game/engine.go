package game

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Engine is the entry point the presentation layer talks to. It owns one
// GameSession, serializes access to it and fans its events out to listeners.
type Engine struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	mu        sync.Mutex
	rules     Rules
	rng       *rand.Rand
	policy    Policy
	log       *logrus.Entry
	session   *GameSession
	listeners []Listener
	events    EventLog
}

type Option func(*Engine)

// WithSeed makes shuffles and computer color choices reproducible
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		e.log = log
	}
}

func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// NewEngine creates an engine for a game that has not been dealt yet
func NewEngine(rules Rules, opts ...Option) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	e := &Engine{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
		rules:     rules,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.log == nil {
		e.log = discardLogger()
	}
	e.log = e.log.WithField("game_id", e.ID)

	return e, nil
}

// Subscribe adds a listener for events emitted from now on
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// InitialState is what StartGame returns for rendering the opening deal
type InitialState struct {
	GameID       string       `json:"gameId"`
	HumanHand    []HandCard   `json:"hand"`
	ComputerHand []HandCard   `json:"-"`
	Discard      DiscardState `json:"discard"`
	Turn         Player       `json:"turn"`
	Events       []Event      `json:"events"`
}

// TurnOutcome is the result of one facade call: what happened and the
// human's view of the table afterwards.
type TurnOutcome struct {
	Events []Event  `json:"events"`
	View   GameView `json:"game"`
	// Drawn is set by DrawCard
	Drawn *HandCard `json:"drawn,omitempty"`
	// CanPlayDrawn reports that the drawn card may still be played this turn
	CanPlayDrawn bool `json:"canPlayDrawn"`
}

// GameView is one player's view of the table. The opponent's hand is only
// visible as a count.
type GameView struct {
	GameID            string       `json:"gameId"`
	Phase             Phase        `json:"phase"`
	Viewer            Player       `json:"viewer"`
	CurrentPlayer     Player       `json:"currentPlayer"`
	Hand              []HandCard   `json:"hand"`
	OpponentCardCount int          `json:"opponentCardCount"`
	Discard           DiscardState `json:"discard"`
	DeckRemaining     int          `json:"deckRemaining"`
	HasDrawnThisTurn  bool         `json:"hasDrawnThisTurn"`
	PlayableCardIDs   []int        `json:"playableCardIds"`
	AwaitingColorFrom *Player      `json:"awaitingColorFrom,omitempty"`
	Outcome           *Outcome     `json:"outcome,omitempty"`
	Turns             int          `json:"turns"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// StartGame deals both hands and turns the first discard
func (e *Engine) StartGame() (InitialState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return InitialState{}, newError(InvalidStateForOperation, "start game", "game already started")
	}

	s, err := NewSession(e.rules, e.rng, e.policy, e.log)
	if err != nil {
		return InitialState{}, err
	}
	e.session = s
	e.UpdatedAt = time.Now()

	e.log.WithField("discard", s.discard.Top.String()).Info("Game started")

	return InitialState{
		GameID:       e.ID,
		HumanHand:    s.Hand(Human),
		ComputerHand: s.Hand(Computer),
		Discard:      s.Discard(),
		Turn:         s.CurrentPlayer(),
		Events:       e.flush(),
	}, nil
}

// PlayCard plays a card from p's hand by its hand ID
func (e *Engine) PlayCard(p Player, cardID int) (TurnOutcome, error) {
	return e.act("play card", func(s *GameSession) (TurnOutcome, error) {
		return TurnOutcome{}, s.AttemptPlay(p, cardID)
	})
}

// DrawCard draws once for p. When the drawn card is legal the turn stays
// open and CanPlayDrawn is set.
func (e *Engine) DrawCard(p Player) (TurnOutcome, error) {
	return e.act("draw card", func(s *GameSession) (TurnOutcome, error) {
		hc, err := s.AttemptDraw(p)
		if err != nil {
			return TurnOutcome{}, err
		}
		out := TurnOutcome{Drawn: &hc}
		if d, ok := s.DrawnCard(); ok && d.ID == hc.ID && s.CurrentPlayer() == p {
			out.CanPlayDrawn = true
		}
		return out, nil
	})
}

// ChooseColor resolves a pending wild color choice
func (e *Engine) ChooseColor(p Player, c Color) (TurnOutcome, error) {
	return e.act("choose color", func(s *GameSession) (TurnOutcome, error) {
		return TurnOutcome{}, s.ResolveColorChoice(p, c)
	})
}

// Pass gives up the rest of the turn after a draw
func (e *Engine) Pass(p Player) (TurnOutcome, error) {
	return e.act("pass", func(s *GameSession) (TurnOutcome, error) {
		return TurnOutcome{}, s.Pass(p)
	})
}

func (e *Engine) act(op string, fn func(s *GameSession) (TurnOutcome, error)) (TurnOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return TurnOutcome{}, newError(InvalidStateForOperation, op, "game has not started")
	}

	out, err := fn(e.session)
	events := e.flush()
	if err != nil && len(events) == 0 {
		e.log.WithError(err).Debug("Action rejected")
		return TurnOutcome{}, err
	}

	e.UpdatedAt = time.Now()
	out.Events = events
	out.View = e.view(Human)
	return out, err
}

// flush moves pending session events into the log and notifies listeners
func (e *Engine) flush() []Event {
	if e.session == nil {
		return nil
	}
	pending := e.session.drain()
	out := make([]Event, 0, len(pending))
	for _, ev := range pending {
		ev = e.events.append(ev)
		out = append(out, ev)
		for _, l := range e.listeners {
			dispatch(l, ev)
		}
	}
	return out
}

// LegalMoves lists the cards p may play now
func (e *Engine) LegalMoves(p Player) []HandCard {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	return e.session.LegalMoves(p)
}

// View returns the table as seen by viewer
func (e *Engine) View(viewer Player) GameView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view(viewer)
}

func (e *Engine) view(viewer Player) GameView {
	v := GameView{
		GameID:    e.ID,
		Viewer:    viewer,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Hand:      []HandCard{},
	}
	s := e.session
	if s == nil || !viewer.Valid() {
		return v
	}

	v.Phase = s.Phase()
	v.CurrentPlayer = s.CurrentPlayer()
	v.Hand = s.Hand(viewer)
	v.OpponentCardCount = len(s.hands[viewer.Opponent()])
	v.Discard = s.Discard()
	v.DeckRemaining = s.DeckRemaining()
	v.HasDrawnThisTurn = s.turn.HasDrawnThisTurn
	v.Turns = s.Turns()

	v.PlayableCardIDs = []int{}
	for _, hc := range s.LegalMoves(viewer) {
		v.PlayableCardIDs = append(v.PlayableCardIDs, hc.ID)
	}
	if s.Phase() == PhaseAwaitingColorChoice {
		p := s.CurrentPlayer()
		v.AwaitingColorFrom = &p
	}
	if o, ok := s.Outcome(); ok {
		v.Outcome = &o
	}
	return v
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return PhaseNotStarted
	}
	return e.session.Phase()
}

// Outcome reports the result once the game is over
func (e *Engine) Outcome() (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return Outcome{}, false
	}
	return e.session.Outcome()
}

// Turns counts completed turn changes
func (e *Engine) Turns() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return 0
	}
	return e.session.Turns()
}

// Events returns the full ordered event log
func (e *Engine) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.Events()
}

func (e *Engine) Rules() Rules {
	return e.rules
}
