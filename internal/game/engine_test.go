package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartedEngine(t *testing.T, seed uint64, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultRules(), append([]Option{WithSeed(seed)}, opts...)...)
	require.NoError(t, err)
	_, err = e.StartGame()
	require.NoError(t, err)
	return e
}

// withSession swaps in a hand-built session so facade calls are predictable
func withSession(e *Engine, s *GameSession) {
	s.log = e.log
	e.session = s
}

func TestNewEngineValidatesRules(t *testing.T) {
	_, err := NewEngine(Rules{HandSize: 0})
	assert.Error(t, err)

	e, err := NewEngine(DefaultRules())
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, PhaseNotStarted, e.Phase())
}

func TestEngineRejectsActionsBeforeStart(t *testing.T) {
	e, err := NewEngine(DefaultRules())
	require.NoError(t, err)

	_, err = e.PlayCard(Human, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.DrawCard(Human)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.ChooseColor(Human, Red)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.Pass(Human)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Nil(t, e.LegalMoves(Human))
}

func TestStartGame(t *testing.T) {
	rec := newRecorder()
	e, err := NewEngine(DefaultRules(), WithSeed(3), WithListener(rec))
	require.NoError(t, err)

	state, err := e.StartGame()
	require.NoError(t, err)

	assert.Equal(t, e.ID, state.GameID)
	assert.Len(t, state.HumanHand, 7)
	assert.Len(t, state.ComputerHand, 7)
	assert.Equal(t, Human, state.Turn)
	assert.Equal(t, PhaseAwaitingPlay, e.Phase())
	require.NotEmpty(t, state.Events)
	assert.Equal(t, 1, state.Events[0].Seq)

	assert.Equal(t, []Player{Human}, rec.turns)
	require.Len(t, rec.states, 1)
	assert.Equal(t, state.Discard, rec.states[0])
	require.Len(t, rec.hands[Computer], 1)
	assert.Len(t, rec.hands[Computer][0], 7)

	_, err = e.StartGame()
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStartGameIsReproducibleWithSeed(t *testing.T) {
	first := newStartedEngine(t, 42)
	second := newStartedEngine(t, 42)

	assert.Equal(t, first.View(Human).Hand, second.View(Human).Hand)
	assert.Equal(t, first.View(Computer).Hand, second.View(Computer).Hand)
	assert.Equal(t, first.View(Human).Discard, second.View(Human).Discard)
}

func TestViewHidesOpponentHand(t *testing.T) {
	e := newStartedEngine(t, 5)

	v := e.View(Human)
	assert.Equal(t, Human, v.Viewer)
	assert.Len(t, v.Hand, 7)
	assert.Equal(t, 7, v.OpponentCardCount)
	assert.Equal(t, DeckSize-15, v.DeckRemaining)
	assert.Nil(t, v.Outcome)

	for _, id := range v.PlayableCardIDs {
		found := false
		for _, hc := range v.Hand {
			if hc.ID == id {
				found = true
				assert.True(t, IsLegalPlay(hc.Card, v.Discard))
			}
		}
		assert.True(t, found, "playable id %d not in hand", id)
	}
}

func TestEngineWildDrawFourScenario(t *testing.T) {
	rec := newRecorder()
	e, err := NewEngine(DefaultRules(), WithSeed(1), WithListener(rec))
	require.NoError(t, err)

	s := newTestSession(t,
		[]Card{mk(WildColor, Draw4), mk(Blue, One)},
		[]Card{mk(Green, Three), mk(Yellow, Nine)},
		mk(Red, Five),
		mk(Red, One), mk(Red, Two), mk(Red, Three), mk(Red, Four),
	)
	withSession(e, s)
	draw4 := idOf(t, s, Human, mk(WildColor, Draw4))
	blue := idOf(t, s, Human, mk(Blue, One))

	out, err := e.PlayCard(Human, draw4)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingColorChoice, out.View.Phase)
	require.NotNil(t, out.View.AwaitingColorFrom)
	assert.Equal(t, Human, *out.View.AwaitingColorFrom)
	assert.Empty(t, out.View.PlayableCardIDs)

	logged := len(e.Events())
	_, err = e.PlayCard(Human, blue)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = e.DrawCard(Computer)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Len(t, e.Events(), logged, "rejected calls do not log")

	out, err = e.ChooseColor(Human, Blue)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingPlay, out.View.Phase)
	assert.Equal(t, Human, out.View.CurrentPlayer)
	assert.Equal(t, Blue, out.View.Discard.ActiveColor)
	assert.Equal(t, 6, out.View.OpponentCardCount)
	assert.Len(t, eventsOfType(out.Events, EventPenaltyDrawn), 1)

	assert.Equal(t, Blue, rec.states[len(rec.states)-1].ActiveColor)
	lastComputerHand := rec.hands[Computer][len(rec.hands[Computer])-1]
	assert.Len(t, lastComputerHand, 6)
}

func TestEngineDrawCardReportsPlayableDrawn(t *testing.T) {
	e, err := NewEngine(DefaultRules(), WithSeed(1))
	require.NoError(t, err)
	s := newTestSession(t,
		[]Card{mk(Blue, One), mk(Yellow, Two)},
		[]Card{mk(Green, Three), mk(Green, Four)},
		mk(Red, Five),
		mk(Red, Nine), mk(Green, Six),
	)
	withSession(e, s)

	out, err := e.DrawCard(Human)
	require.NoError(t, err)
	require.NotNil(t, out.Drawn)
	assert.Equal(t, mk(Red, Nine), out.Drawn.Card)
	assert.True(t, out.CanPlayDrawn)
	assert.True(t, out.View.HasDrawnThisTurn)
	assert.Equal(t, []int{out.Drawn.ID}, out.View.PlayableCardIDs)

	out, err = e.PlayCard(Human, out.Drawn.ID)
	require.NoError(t, err)
	assert.Equal(t, Human, out.View.CurrentPlayer)
	assert.Equal(t, 3, out.View.OpponentCardCount)
}

func TestEngineDrawCardUnplayable(t *testing.T) {
	e, err := NewEngine(DefaultRules(), WithSeed(1))
	require.NoError(t, err)
	s := newTestSession(t,
		[]Card{mk(Blue, One)},
		[]Card{mk(Green, Three), mk(Green, Four)},
		mk(Red, Five),
		mk(Yellow, Nine), mk(Green, Six),
	)
	withSession(e, s)

	out, err := e.DrawCard(Human)
	require.NoError(t, err)
	assert.False(t, out.CanPlayDrawn)
	assert.False(t, out.View.HasDrawnThisTurn)
	assert.Len(t, out.View.Hand, 2)
}

func TestEngineDeckExhaustedReturnsOutcome(t *testing.T) {
	rec := newRecorder()
	e, err := NewEngine(DefaultRules(), WithListener(rec))
	require.NoError(t, err)
	s := newTestSession(t, []Card{mk(Blue, One)}, []Card{mk(Green, Three)}, mk(Red, Five))
	exhaustDeck(s)
	withSession(e, s)

	out, err := e.DrawCard(Human)
	assert.ErrorIs(t, err, ErrDeckExhaustedDraw)
	require.NotNil(t, out.View.Outcome)
	assert.True(t, out.View.Outcome.IsDraw())
	assert.Equal(t, PhaseGameOver, out.View.Phase)

	require.Len(t, rec.over, 1)
	assert.True(t, rec.over[0].IsDraw())

	got, ok := e.Outcome()
	require.True(t, ok)
	assert.Equal(t, ReasonDeckExhausted, got.Reason)
}

func TestEngineEventLogIsOrdered(t *testing.T) {
	e := newStartedEngine(t, 8)
	playUntilOver(t, e)

	events := e.Events()
	require.NotEmpty(t, events)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Seq)
	}
	assert.Equal(t, EventGameOver, events[len(events)-1].Type)
}

// playUntilOver drives the human with a simple policy: play the first legal
// card, otherwise draw and play the drawn card when allowed.
func playUntilOver(t *testing.T, e *Engine) Outcome {
	t.Helper()

	for step := 0; step < 2000; step++ {
		v := e.View(Human)
		switch v.Phase {
		case PhaseGameOver:
			require.NotNil(t, v.Outcome)
			return *v.Outcome
		case PhaseAwaitingColorChoice:
			_, err := e.ChooseColor(Human, Red)
			require.NoError(t, err)
			continue
		}

		require.Equal(t, Human, v.CurrentPlayer, "computer turns resolve before control returns")

		if moves := e.LegalMoves(Human); len(moves) > 0 {
			_, err := e.PlayCard(Human, moves[0].ID)
			require.NoError(t, err)
			continue
		}

		out, err := e.DrawCard(Human)
		if err != nil {
			require.ErrorIs(t, err, ErrDeckExhaustedDraw)
			continue
		}
		if out.CanPlayDrawn {
			_, err = e.PlayCard(Human, out.Drawn.ID)
			require.NoError(t, err)
		}
	}

	t.Fatalf("game did not finish")
	return Outcome{}
}

func TestFullGamesTerminate(t *testing.T) {
	winners := make(map[Player]int)
	for seed := uint64(1); seed <= 30; seed++ {
		e := newStartedEngine(t, seed)
		out := playUntilOver(t, e)

		require.NotNil(t, out.Winner, "seed %d", seed)
		winners[*out.Winner]++
		assert.Empty(t, e.View(*out.Winner).Hand)
		assert.Nil(t, e.LegalMoves(Human))
	}
	assert.Equal(t, 30, winners[Human]+winners[Computer])
}

func TestFullGameWithReshuffleLimitCanDraw(t *testing.T) {
	rules := Rules{HandSize: 7, ReshuffleLimit: 1}
	for seed := uint64(1); seed <= 10; seed++ {
		e, err := NewEngine(rules, WithSeed(seed))
		require.NoError(t, err)
		_, err = e.StartGame()
		require.NoError(t, err)

		out := playUntilOver(t, e)
		if out.IsDraw() {
			assert.Equal(t, ReasonDeckExhausted, out.Reason)
		} else {
			assert.Equal(t, ReasonHandEmptied, out.Reason)
		}
	}
}
