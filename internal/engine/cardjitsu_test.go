package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedJitsu deals cards from a fixed queue, cycling once exhausted.
func scriptedJitsu(cards ...JitsuCard) *cardJitsu {
	i := 0
	return &cardJitsu{deal: func() JitsuCard {
		c := cards[i%len(cards)]
		i++
		return c
	}}
}

func selectBoth(t *testing.T, e *cardJitsu, s State, idxA, idxB int) Transition {
	t.Helper()
	tr, err := e.Apply(s, SideA, Action{Kind: ActionSelect, HandIndex: idxA})
	require.NoError(t, err)
	tr, err = e.Apply(tr.State, SideB, Action{Kind: ActionSelect, HandIndex: idxB})
	require.NoError(t, err)
	return tr
}

func TestCardJitsuElementBeats(t *testing.T) {
	assert.True(t, elementBeats(ElementFire, ElementSnow))
	assert.True(t, elementBeats(ElementSnow, ElementWater))
	assert.True(t, elementBeats(ElementWater, ElementFire))
	assert.False(t, elementBeats(ElementFire, ElementWater))
	assert.False(t, elementBeats(ElementWater, ElementSnow))
	assert.False(t, elementBeats(ElementSnow, ElementFire))
	assert.False(t, elementBeats(ElementFire, ElementFire))
}

func TestCardJitsuRoundResolution(t *testing.T) {
	e := scriptedJitsu(JitsuCard{ElementFire, 5})
	s := e.InitialState().(*CardJitsuState)
	s.A.Hand[0] = JitsuCard{ElementFire, 3}
	s.B.Hand[0] = JitsuCard{ElementSnow, 12}

	tr := selectBoth(t, e, s, 0, 0)
	out := tr.State.(*CardJitsuState)

	require.NotNil(t, out.LastResolution)
	assert.Equal(t, SideA, *out.LastResolution.Winner)
	assert.Equal(t, 1, out.A.Wins.Fire)
	assert.Equal(t, PhaseReveal, out.Phase)

	require.NotNil(t, tr.Schedule)
	assert.Equal(t, jitsuRevealDelay, tr.Schedule.After)
	assert.Equal(t, ActionAdvanceRound, tr.Schedule.Action.Kind)
	assert.Nil(t, tr.Outcome)
}

func TestCardJitsuSamePowerIsTie(t *testing.T) {
	e := scriptedJitsu(JitsuCard{ElementWater, 1})
	s := e.InitialState().(*CardJitsuState)
	s.A.Hand[0] = JitsuCard{ElementWater, 7}
	s.B.Hand[0] = JitsuCard{ElementWater, 7}

	tr := selectBoth(t, e, s, 0, 0)
	out := tr.State.(*CardJitsuState)

	assert.Nil(t, out.LastResolution.Winner)
	assert.Equal(t, ElementTally{}, out.A.Wins)
	assert.Equal(t, ElementTally{}, out.B.Wins)
}

func TestCardJitsuWinningTally(t *testing.T) {
	assert.True(t, ElementTally{Fire: 3}.winning())
	assert.True(t, ElementTally{Water: 3}.winning())
	assert.True(t, ElementTally{Fire: 1, Water: 1, Snow: 1}.winning())
	assert.False(t, ElementTally{Fire: 2, Water: 1}.winning())
	assert.False(t, ElementTally{Fire: 2, Snow: 2}.winning())
}

func TestCardJitsuTerminalRound(t *testing.T) {
	e := scriptedJitsu(JitsuCard{ElementSnow, 2})
	s := e.InitialState().(*CardJitsuState)
	s.A.Wins = ElementTally{Fire: 1, Water: 1}
	s.A.Hand[2] = JitsuCard{ElementSnow, 9}
	s.B.Hand[1] = JitsuCard{ElementSnow, 1}

	tr := selectBoth(t, e, s, 2, 1)

	require.NotNil(t, tr.Outcome)
	assert.Equal(t, SideA, *tr.Outcome.Winner)
	out := tr.State.(*CardJitsuState)
	assert.Equal(t, PhaseComplete, out.Phase)
	assert.Nil(t, tr.Schedule)
}

func TestCardJitsuAdvanceReplenishesHands(t *testing.T) {
	e := scriptedJitsu(JitsuCard{ElementFire, 11})
	s := e.InitialState().(*CardJitsuState)
	s.A.Hand[0] = JitsuCard{ElementFire, 3}
	s.B.Hand[0] = JitsuCard{ElementSnow, 4}

	tr := selectBoth(t, e, s, 0, 0)

	tr, err := e.Apply(tr.State, SideA, Action{Kind: ActionAdvanceRound})
	require.NoError(t, err)
	out := tr.State.(*CardJitsuState)

	assert.Equal(t, 2, out.Round)
	assert.Equal(t, PhaseSelect, out.Phase)
	assert.Len(t, out.A.Hand, jitsuHandSize)
	assert.Len(t, out.B.Hand, jitsuHandSize)
	assert.Nil(t, out.A.Selected)
	assert.Nil(t, out.B.Selected)
	// the played card was replaced, not kept
	assert.Equal(t, JitsuCard{ElementFire, 11}, out.A.Hand[jitsuHandSize-1])
}

func TestCardJitsuSelectRejections(t *testing.T) {
	e := scriptedJitsu(JitsuCard{ElementFire, 1})
	s := e.InitialState()

	tr, err := e.Apply(s, SideA, Action{Kind: ActionSelect, HandIndex: 1})
	require.NoError(t, err)

	_, err = e.Apply(tr.State, SideA, Action{Kind: ActionSelect, HandIndex: 2})
	assert.Equal(t, ErrAlreadySelected, err)

	_, err = e.Apply(tr.State, SideB, Action{Kind: ActionSelect, HandIndex: 9})
	assert.Equal(t, ErrCardNotInHand, err)

	assert.Equal(t, []Side{SideB}, e.PendingSides(tr.State))
}

func TestCardJitsuRedactHidesOpponentHand(t *testing.T) {
	e := scriptedJitsu(JitsuCard{ElementWater, 6})
	s := e.InitialState()

	tr, err := e.Apply(s, SideB, Action{Kind: ActionSelect, HandIndex: 0})
	require.NoError(t, err)

	view := e.Redact(tr.State, SideA).(map[string]any)
	_, hasOpponentHand := view["opponentHand"]
	assert.False(t, hasOpponentHand)
	assert.Equal(t, true, view["opponentLocked"])
	assert.Len(t, view["hand"], jitsuHandSize)
}
