package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstLegalPicksFirstInHandOrder(t *testing.T) {
	p := NewFirstLegal(testRand(1))
	hand := []HandCard{
		{ID: 1, Card: mk(Blue, One)},
		{ID: 2, Card: mk(Green, Five)},
		{ID: 3, Card: mk(WildColor, Wild)},
		{ID: 4, Card: mk(Red, Two)},
	}
	discard := DiscardState{ActiveColor: Red, ActiveFace: Five}

	got, ok := p.ChooseCard(hand, discard)
	require.True(t, ok)
	assert.Equal(t, 2, got.ID, "Green 5 matches by face before the wild and the red card")
}

func TestFirstLegalNoMove(t *testing.T) {
	p := NewFirstLegal(testRand(1))
	hand := []HandCard{{ID: 1, Card: mk(Blue, One)}}

	_, ok := p.ChooseCard(hand, DiscardState{ActiveColor: Red, ActiveFace: Five})
	assert.False(t, ok)

	_, ok = p.ChooseCard(nil, DiscardState{ActiveColor: Red, ActiveFace: Five})
	assert.False(t, ok)
}

func TestFirstLegalColorIsUniformOverRealColors(t *testing.T) {
	p := NewFirstLegal(testRand(4))
	counts := make(map[Color]int)
	for i := 0; i < 4000; i++ {
		counts[p.ChooseColor(nil)]++
	}

	require.Len(t, counts, 4)
	for _, color := range Colors {
		assert.InDelta(t, 1000, counts[color], 150, "%s", color)
	}
}

func TestPlayerText(t *testing.T) {
	assert.Equal(t, Computer, Human.Opponent())
	assert.Equal(t, Human, Computer.Opponent())

	p, err := ParsePlayer("AI")
	require.NoError(t, err)
	assert.Equal(t, Computer, p)
	_, err = ParsePlayer("dealer")
	assert.Error(t, err)

	data, err := json.Marshal(struct {
		P Player `json:"p"`
	}{Computer})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"computer"}`, string(data))
}

func TestEventJSONHidesHand(t *testing.T) {
	e := newHandEvent(Computer, Hand{{ID: 1, Card: mk(Red, One)}})
	data, err := json.Marshal(e)
	require.NoError(t, err)

	assert.JSONEq(t, `{"seq":0,"type":"handChanged","player":"computer","count":1}`, string(data))
}

func TestListenerFuncsSkipsNil(t *testing.T) {
	var turns []Player
	l := ListenerFuncs{TurnChanged: func(p Player) { turns = append(turns, p) }}

	dispatch(l, newTurnEvent(Computer))
	dispatch(l, newStateEvent(DiscardState{ActiveColor: Red}))
	dispatch(l, newGameOverEvent(Outcome{Reason: ReasonDeckExhausted}))

	assert.Equal(t, []Player{Computer}, turns)
}

func TestEventLog(t *testing.T) {
	var log EventLog
	log.append(newTurnEvent(Human))
	log.append(newTurnEvent(Computer))
	log.append(newStateEvent(DiscardState{}))

	assert.Len(t, log.EventsOfType(EventTurnChanged), 2)
	assert.Equal(t, 3, log.Last().Seq)
	assert.Equal(t, EventStateChanged, log.Last().Type)
}
