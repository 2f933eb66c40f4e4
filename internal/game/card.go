package game

import (
	"fmt"
	"strconv"
	"strings"
)

type Color string
type Face string

const (
	Red    Color = "Red"
	Blue   Color = "Blue"
	Green  Color = "Green"
	Yellow Color = "Yellow"

	// WildColor marks cards that carry no color of their own
	WildColor Color = "Wild"
)

const (
	Zero    Face = "0"
	One     Face = "1"
	Two     Face = "2"
	Three   Face = "3"
	Four    Face = "4"
	Five    Face = "5"
	Six     Face = "6"
	Seven   Face = "7"
	Eight   Face = "8"
	Nine    Face = "9"
	Skip    Face = "Skip"
	Reverse Face = "Reverse"
	Draw2   Face = "Draw2"
	Wild    Face = "Wild"
	Draw4   Face = "Draw4"
)

// Colors lists the four playable colors in deck order
var Colors = []Color{Red, Blue, Green, Yellow}

// Playable reports whether c is one of the four real colors
func (c Color) Playable() bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	}
	return false
}

// ParseColor converts user input to a canonical color, ignoring case
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	for _, c := range []Color{Red, Blue, Green, Yellow, WildColor} {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", newError(InvalidCardSpec, "parse color", "unknown color %q", s)
}

// ParseFace converts user input to a canonical face value, ignoring case
func ParseFace(s string) (Face, error) {
	s = strings.TrimSpace(s)
	for _, f := range allFaces {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", newError(InvalidCardSpec, "parse face", "unknown face %q", s)
}

var allFaces = []Face{Zero, One, Two, Three, Four, Five, Six, Seven, Eight, Nine, Skip, Reverse, Draw2, Wild, Draw4}

type Category int

const (
	CategoryNumber Category = iota
	CategorySkip
	CategoryReverse
	CategoryDrawTwo
	CategoryWild
	CategoryWildDrawFour
)

var categoryNames = map[Category]string{
	CategoryNumber:       "Number",
	CategorySkip:         "Skip",
	CategoryReverse:      "Reverse",
	CategoryDrawTwo:      "DrawTwo",
	CategoryWild:         "Wild",
	CategoryWildDrawFour: "WildDrawFour",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	for k, name := range categoryNames {
		if name == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", text)
}

// Card is an immutable card value. Build it with NewCard so Category stays
// consistent with Face.
type Card struct {
	Color    Color    `json:"color"`
	Face     Face     `json:"face"`
	Category Category `json:"category"`
}

// NewCard validates a color/face pair and derives the category
func NewCard(color Color, face Face) (Card, error) {
	if color == "" || face == "" {
		return Card{}, newError(InvalidCardSpec, "new card", "empty color or face")
	}
	if color != WildColor && !color.Playable() {
		return Card{}, newError(InvalidCardSpec, "new card", "unknown color %q", color)
	}

	cat, ok := categoryOf(face)
	if !ok {
		return Card{}, newError(InvalidCardSpec, "new card", "unknown face %q", face)
	}

	isWildFace := cat == CategoryWild || cat == CategoryWildDrawFour
	if isWildFace != (color == WildColor) {
		return Card{}, newError(InvalidCardSpec, "new card", "face %s cannot have color %s", face, color)
	}

	return Card{Color: color, Face: face, Category: cat}, nil
}

// MustCard is NewCard for fixed compositions; it panics on a bad pair
func MustCard(color Color, face Face) Card {
	c, err := NewCard(color, face)
	if err != nil {
		panic(err)
	}
	return c
}

func categoryOf(face Face) (Category, bool) {
	switch face {
	case Skip:
		return CategorySkip, true
	case Reverse:
		return CategoryReverse, true
	case Draw2:
		return CategoryDrawTwo, true
	case Wild:
		return CategoryWild, true
	case Draw4:
		return CategoryWildDrawFour, true
	}
	if len(face) == 1 && face[0] >= '0' && face[0] <= '9' {
		return CategoryNumber, true
	}
	return 0, false
}

// Number returns the numeric value of a number card
func (c Card) Number() (int, bool) {
	if c.Category != CategoryNumber {
		return 0, false
	}
	n, err := strconv.Atoi(string(c.Face))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Valid reports whether the card could have come from NewCard
func (c Card) Valid() bool {
	built, err := NewCard(c.Color, c.Face)
	return err == nil && built == c
}

// IsWild reports whether the card needs a color choice when played
func (c Card) IsWild() bool {
	return c.Color == WildColor
}

func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Face)
}
