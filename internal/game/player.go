package game

import (
	"fmt"
	"strings"
)

// Player identifies a seat. Only two seats exist; Opponent is the one place
// that knows about the ring.
type Player int

const (
	Human Player = iota
	Computer
)

const numPlayers = 2

func (p Player) String() string {
	switch p {
	case Human:
		return "human"
	case Computer:
		return "computer"
	default:
		return fmt.Sprintf("Player(%d)", int(p))
	}
}

// Opponent returns the player who acts after p
func (p Player) Opponent() Player {
	return (p + 1) % numPlayers
}

func (p Player) Valid() bool {
	return p == Human || p == Computer
}

func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human", "player":
		return Human, nil
	case "computer", "ai":
		return Computer, nil
	}
	return 0, fmt.Errorf("unknown player %q", s)
}

func (p Player) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// HandCard is a card in a hand, tagged with an ID unique within one game
type HandCard struct {
	ID int `json:"id"`
	Card
}

type Hand []HandCard

func (h Hand) index(id int) (int, bool) {
	for i, hc := range h {
		if hc.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (h Hand) clone() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	return out
}

// Cards returns the plain card values in hand order
func (h Hand) Cards() []Card {
	out := make([]Card, len(h))
	for i, hc := range h {
		out[i] = hc.Card
	}
	return out
}
