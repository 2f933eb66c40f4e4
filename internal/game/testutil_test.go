package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func mk(color Color, face Face) Card {
	return MustCard(color, face)
}

// newTestSession builds a session with fixed hands, a fixed starting
// discard and the given cards at the front of the deck. The human acts first.
func newTestSession(t *testing.T, human, computer []Card, top Card, deck ...Card) *GameSession {
	t.Helper()

	s, err := newSession(DefaultRules(), testRand(7), nil, nil)
	require.NoError(t, err)

	for _, card := range computer {
		s.hands[Computer] = append(s.hands[Computer], s.tag(card))
	}
	for _, card := range human {
		s.hands[Human] = append(s.hands[Human], s.tag(card))
	}

	s.discard = DiscardState{ActiveColor: top.Color, ActiveFace: top.Face, Top: top}
	s.deck.cards = append([]Card(nil), deck...)
	s.phase = PhaseAwaitingPlay
	s.turn = TurnContext{CurrentPlayer: Human}
	return s
}

// exhaustDeck empties the deck and forbids regeneration
func exhaustDeck(s *GameSession) {
	s.deck.cards = nil
	s.deck.reshuffleLimit = 1
	s.deck.reshuffles = 1
}

// idOf returns the hand ID of the first card in p's hand equal to card
func idOf(t *testing.T, s *GameSession, p Player, card Card) int {
	t.Helper()
	for _, hc := range s.hands[p] {
		if hc.Card == card {
			return hc.ID
		}
	}
	t.Fatalf("%s not in %s hand", card, p)
	return 0
}

func eventsOfType(events []Event, t EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// recorder captures listener callbacks in order
type recorder struct {
	states []DiscardState
	hands  map[Player][][]HandCard
	turns  []Player
	over   []Outcome
}

func newRecorder() *recorder {
	return &recorder{hands: make(map[Player][][]HandCard)}
}

func (r *recorder) OnStateChanged(d DiscardState) { r.states = append(r.states, d) }

func (r *recorder) OnHandChanged(p Player, h []HandCard) {
	r.hands[p] = append(r.hands[p], h)
}

func (r *recorder) OnTurnChanged(p Player) { r.turns = append(r.turns, p) }

func (r *recorder) OnGameOver(o Outcome) { r.over = append(r.over, o) }

// scriptedPolicy plays the listed card values in order when present and
// legal, and always chooses the same color.
type scriptedPolicy struct {
	plays []Card
	color Color
}

func (p *scriptedPolicy) ChooseCard(hand []HandCard, discard DiscardState) (HandCard, bool) {
	for len(p.plays) > 0 {
		want := p.plays[0]
		p.plays = p.plays[1:]
		for _, hc := range hand {
			if hc.Card == want && IsLegalPlay(hc.Card, discard) {
				return hc, true
			}
		}
	}
	return HandCard{}, false
}

func (p *scriptedPolicy) ChooseColor(_ []HandCard) Color {
	return p.color
}
