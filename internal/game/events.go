package game

import (
	"fmt"
)

// EventType enumerates everything the engine reports to the presentation layer.
type EventType int

const (
	EventGameStarted EventType = iota
	EventStateChanged
	EventHandChanged
	EventTurnChanged
	EventGameOver
	EventCardPlayed
	EventCardDrawn
	EventPenaltyDrawn
	EventTurnSkipped
	EventColorChosen
	EventPassed
)

func (e EventType) String() string {
	switch e {
	case EventGameStarted:
		return "gameStarted"
	case EventStateChanged:
		return "stateChanged"
	case EventHandChanged:
		return "handChanged"
	case EventTurnChanged:
		return "turnChanged"
	case EventGameOver:
		return "gameOver"
	case EventCardPlayed:
		return "cardPlayed"
	case EventCardDrawn:
		return "cardDrawn"
	case EventPenaltyDrawn:
		return "penaltyDrawn"
	case EventTurnSkipped:
		return "turnSkipped"
	case EventColorChosen:
		return "colorChosen"
	case EventPassed:
		return "passed"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(text []byte) error {
	for t := EventGameStarted; t <= EventPassed; t++ {
		if t.String() == string(text) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", text)
}

// Event is one entry of a game's ordered event log. Which fields are set
// depends on Type. Cards drawn by the computer are never recorded, only
// their count.
type Event struct {
	Seq     int           `json:"seq"`
	Type    EventType     `json:"type"`
	Player  Player        `json:"player"`
	Card    *Card         `json:"card,omitempty"`
	Count   int           `json:"count,omitempty"`
	Color   Color         `json:"color,omitempty"`
	Discard *DiscardState `json:"discard,omitempty"`
	Outcome *Outcome      `json:"outcome,omitempty"`

	// hand is the full hand snapshot handed to listeners for EventHandChanged
	hand []HandCard
}

func (e Event) String() string {
	switch e.Type {
	case EventCardPlayed, EventCardDrawn:
		if e.Card != nil {
			return fmt.Sprintf("#%d %s %s %s", e.Seq, e.Player, e.Type, e.Card)
		}
	case EventPenaltyDrawn, EventHandChanged:
		return fmt.Sprintf("#%d %s %s %d", e.Seq, e.Player, e.Type, e.Count)
	case EventColorChosen:
		return fmt.Sprintf("#%d %s %s %s", e.Seq, e.Player, e.Type, e.Color)
	case EventStateChanged:
		if e.Discard != nil {
			return fmt.Sprintf("#%d %s %s", e.Seq, e.Type, e.Discard)
		}
	case EventGameOver:
		if e.Outcome != nil {
			return fmt.Sprintf("#%d %s %s", e.Seq, e.Type, e.Outcome)
		}
	}
	return fmt.Sprintf("#%d %s %s", e.Seq, e.Player, e.Type)
}

func newStateEvent(d DiscardState) Event {
	return Event{Type: EventStateChanged, Discard: &d}
}

func newHandEvent(p Player, h Hand) Event {
	snapshot := h.clone()
	return Event{Type: EventHandChanged, Player: p, Count: len(snapshot), hand: snapshot}
}

func newTurnEvent(p Player) Event {
	return Event{Type: EventTurnChanged, Player: p}
}

func newGameOverEvent(o Outcome) Event {
	return Event{Type: EventGameOver, Outcome: &o}
}

func newCardEvent(t EventType, p Player, c Card) Event {
	return Event{Type: t, Player: p, Card: &c}
}

// Listener receives engine notifications. Callbacks run synchronously while
// the engine is locked, so they must not call back into the engine.
type Listener interface {
	OnStateChanged(discard DiscardState)
	OnHandChanged(player Player, hand []HandCard)
	OnTurnChanged(player Player)
	OnGameOver(outcome Outcome)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped
type ListenerFuncs struct {
	StateChanged func(DiscardState)
	HandChanged  func(Player, []HandCard)
	TurnChanged  func(Player)
	GameOver     func(Outcome)
}

func (f ListenerFuncs) OnStateChanged(d DiscardState) {
	if f.StateChanged != nil {
		f.StateChanged(d)
	}
}

func (f ListenerFuncs) OnHandChanged(p Player, h []HandCard) {
	if f.HandChanged != nil {
		f.HandChanged(p, h)
	}
}

func (f ListenerFuncs) OnTurnChanged(p Player) {
	if f.TurnChanged != nil {
		f.TurnChanged(p)
	}
}

func (f ListenerFuncs) OnGameOver(o Outcome) {
	if f.GameOver != nil {
		f.GameOver(o)
	}
}

func dispatch(l Listener, e Event) {
	switch e.Type {
	case EventStateChanged:
		if e.Discard != nil {
			l.OnStateChanged(*e.Discard)
		}
	case EventHandChanged:
		l.OnHandChanged(e.Player, e.hand)
	case EventTurnChanged:
		l.OnTurnChanged(e.Player)
	case EventGameOver:
		if e.Outcome != nil {
			l.OnGameOver(*e.Outcome)
		}
	}
}

// EventLog is the ordered record of everything a game emitted
type EventLog struct {
	events []Event
	seq    int
}

func (l *EventLog) append(e Event) Event {
	l.seq++
	e.Seq = l.seq
	l.events = append(l.events, e)
	return e
}

// Events returns a copy of the log
func (l *EventLog) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// EventsOfType returns all events matching the given type.
func (l *EventLog) EventsOfType(t EventType) []Event {
	var result []Event
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Last returns the most recent event, or a zero event if none.
func (l *EventLog) Last() Event {
	if len(l.events) == 0 {
		return Event{}
	}
	return l.events[len(l.events)-1]
}
