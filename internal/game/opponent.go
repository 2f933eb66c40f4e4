package game

import "math/rand/v2"

// Policy decides the computer's moves. It only reads what it is given;
// the session applies the decision.
type Policy interface {
	// ChooseCard picks a card to play, or reports false to draw instead
	ChooseCard(hand []HandCard, discard DiscardState) (HandCard, bool)
	// ChooseColor picks the active color after a wild card
	ChooseColor(hand []HandCard) Color
}

// FirstLegal plays the first legal card in hand order and picks wild colors
// uniformly at random.
type FirstLegal struct {
	rng *rand.Rand
}

func NewFirstLegal(rng *rand.Rand) *FirstLegal {
	return &FirstLegal{rng: rng}
}

func (p *FirstLegal) ChooseCard(hand []HandCard, discard DiscardState) (HandCard, bool) {
	for _, hc := range hand {
		if IsLegalPlay(hc.Card, discard) {
			return hc, true
		}
	}
	return HandCard{}, false
}

func (p *FirstLegal) ChooseColor(_ []HandCard) Color {
	return Colors[p.rng.IntN(len(Colors))]
}
