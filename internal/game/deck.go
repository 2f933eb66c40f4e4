package game

import (
	"math/rand/v2"
)

// DeckSize is the number of cards in one standard deck
const DeckSize = 108

type Deck struct {
	cards []Card
	rng   *rand.Rand

	// source builds an unshuffled composition on every regeneration
	source         func() []Card
	reshuffles     int
	reshuffleLimit int
}

// StandardCards returns the 108-card composition in a fixed order:
// per color one 0, two each of 1-9, Skip, Reverse and Draw2, followed by
// four Wild and four Draw4.
func StandardCards() []Card {
	faces := []Face{Zero, One, Two, Three, Four, Five, Six, Seven, Eight, Nine, Skip, Reverse, Draw2}

	cards := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		cards = append(cards, MustCard(color, Zero))
		for _, face := range faces[1:] {
			c := MustCard(color, face)
			cards = append(cards, c, c)
		}
	}

	for i := 0; i < 4; i++ {
		cards = append(cards, MustCard(WildColor, Wild), MustCard(WildColor, Draw4))
	}

	return cards
}

// GenerateDeck returns a shuffled standard deck, front first
func GenerateDeck(rng *rand.Rand) ([]Card, error) {
	return generate(rng, StandardCards)
}

func generate(rng *rand.Rand, source func() []Card) ([]Card, error) {
	var cards []Card
	for _, c := range source() {
		if c.Valid() {
			cards = append(cards, c)
		}
	}
	if len(cards) == 0 {
		return nil, newError(DeckExhaustedDraw, "generate deck", "composition yielded no valid cards")
	}

	shuffle(rng, cards)
	return cards, nil
}

// shuffle is a Fisher-Yates pass, every permutation equally likely
func shuffle(rng *rand.Rand, cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// NewDeck creates a shuffled deck. reshuffleLimit caps how many times an
// empty deck may be regenerated; zero means no cap.
func NewDeck(rng *rand.Rand, reshuffleLimit int) (*Deck, error) {
	return newDeckFrom(rng, StandardCards, reshuffleLimit)
}

func newDeckFrom(rng *rand.Rand, source func() []Card, reshuffleLimit int) (*Deck, error) {
	cards, err := generate(rng, source)
	if err != nil {
		return nil, err
	}

	return &Deck{
		cards:          cards,
		rng:            rng,
		source:         source,
		reshuffleLimit: reshuffleLimit,
	}, nil
}

// Draw removes and returns the front card. An empty deck is regenerated and
// reshuffled first; malformed entries are skipped.
func (d *Deck) Draw() (Card, error) {
	for {
		if len(d.cards) == 0 {
			if err := d.regenerate(); err != nil {
				return Card{}, err
			}
		}

		card := d.cards[0]
		d.cards = d.cards[1:]
		if card.Valid() {
			return card, nil
		}
	}
}

func (d *Deck) regenerate() error {
	if d.reshuffleLimit > 0 && d.reshuffles >= d.reshuffleLimit {
		return newError(DeckExhaustedDraw, "draw", "deck regenerated %d times already", d.reshuffles)
	}

	cards, err := generate(d.rng, d.source)
	if err != nil {
		return err
	}

	d.cards = cards
	d.reshuffles++
	return nil
}

// Remaining returns the number of cards left before the next regeneration
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Reshuffles returns how many times the deck has been regenerated
func (d *Deck) Reshuffles() int {
	return d.reshuffles
}
