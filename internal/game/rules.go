package game

import "fmt"

// DiscardState is what the next card has to match
type DiscardState struct {
	ActiveColor Color `json:"activeColor"`
	ActiveFace  Face  `json:"activeFace"`
	Top         Card  `json:"top"`
}

func (d DiscardState) String() string {
	return fmt.Sprintf("%s/%s", d.ActiveColor, d.ActiveFace)
}

// IsLegalPlay reports whether card may be played on top of discard.
// Wild cards are always legal; otherwise color or face must match.
func IsLegalPlay(card Card, discard DiscardState) bool {
	if card.Color == WildColor {
		return true
	}
	return card.Color == discard.ActiveColor || card.Face == discard.ActiveFace
}

type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectForceSkip
	EffectDrawPenalty
	EffectRequiresColorChoice
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "None"
	case EffectForceSkip:
		return "ForceSkip"
	case EffectDrawPenalty:
		return "DrawPenalty"
	case EffectRequiresColorChoice:
		return "RequiresColorChoice"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect is what a played card does to the turn order
type Effect struct {
	Kind EffectKind
	// Draw is the penalty size for EffectDrawPenalty
	Draw int
	// NeedsColor is set for both wild faces, including Draw4
	NeedsColor bool
}

// EffectOf maps a card category to its effect. With two players Skip and
// Reverse are the same thing.
func EffectOf(cat Category) Effect {
	switch cat {
	case CategorySkip, CategoryReverse:
		return Effect{Kind: EffectForceSkip}
	case CategoryDrawTwo:
		return Effect{Kind: EffectDrawPenalty, Draw: 2}
	case CategoryWildDrawFour:
		return Effect{Kind: EffectDrawPenalty, Draw: 4, NeedsColor: true}
	case CategoryWild:
		return Effect{Kind: EffectRequiresColorChoice, NeedsColor: true}
	default:
		return Effect{Kind: EffectNone}
	}
}

// Rules are the knobs a game is created with
type Rules struct {
	HandSize int `json:"handSize" yaml:"hand_size"`
	// ReshuffleLimit caps deck regenerations per game, 0 means unlimited.
	// Past the cap a required draw ends the game without a winner.
	ReshuffleLimit int `json:"reshuffleLimit" yaml:"reshuffle_limit"`
}

func DefaultRules() Rules {
	return Rules{HandSize: 7}
}

func (r Rules) Validate() error {
	if r.HandSize < 1 || r.HandSize > 50 {
		return fmt.Errorf("hand size must be between 1 and 50, got %d", r.HandSize)
	}
	if r.ReshuffleLimit < 0 {
		return fmt.Errorf("reshuffle limit must not be negative, got %d", r.ReshuffleLimit)
	}
	return nil
}
