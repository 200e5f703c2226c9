package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playTTT(t *testing.T, e Engine, s State, side Side, cell int) State {
	t.Helper()
	tr, err := e.Apply(s, side, Action{Kind: ActionMark, Cell: cell})
	require.NoError(t, err)
	return tr.State
}

func TestTicTacToeTopRowWin(t *testing.T) {
	e := newTicTacToe()
	s := e.InitialState()

	s = playTTT(t, e, s, SideA, 0)
	s = playTTT(t, e, s, SideB, 3)
	s = playTTT(t, e, s, SideA, 1)
	s = playTTT(t, e, s, SideB, 4)

	tr, err := e.Apply(s, SideA, Action{Kind: ActionMark, Cell: 2})
	require.NoError(t, err)
	require.NotNil(t, tr.Outcome)
	require.NotNil(t, tr.Outcome.Winner)
	assert.Equal(t, SideA, *tr.Outcome.Winner)

	final := tr.State.(*TicTacToeState)
	assert.Equal(t, PhaseComplete, final.Phase)
	assert.Equal(t, []int{0, 1, 2}, final.WinLine)
	assert.Empty(t, e.PendingSides(tr.State))
}

func TestTicTacToeDraw(t *testing.T) {
	e := newTicTacToe()
	s := e.InitialState()

	// A: 0 4 1 5 6  B: 8 2 3 7 leaves no line for either side
	moves := []struct {
		side Side
		cell int
	}{
		{SideA, 0}, {SideB, 8}, {SideA, 4}, {SideB, 2},
		{SideA, 1}, {SideB, 3}, {SideA, 5}, {SideB, 7},
	}
	for _, m := range moves {
		s = playTTT(t, e, s, m.side, m.cell)
	}

	tr, err := e.Apply(s, SideA, Action{Kind: ActionMark, Cell: 6})
	require.NoError(t, err)
	require.NotNil(t, tr.Outcome)
	assert.Nil(t, tr.Outcome.Winner)
	assert.Equal(t, PhaseComplete, tr.State.(*TicTacToeState).Phase)
}

func TestTicTacToeRejections(t *testing.T) {
	e := newTicTacToe()
	s := e.InitialState()

	_, err := e.Apply(s, SideB, Action{Kind: ActionMark, Cell: 0})
	assert.Equal(t, ErrNotYourTurn, err)

	s = playTTT(t, e, s, SideA, 0)

	_, err = e.Apply(s, SideB, Action{Kind: ActionMark, Cell: 0})
	assert.Equal(t, ErrCellTaken, err)

	_, err = e.Apply(s, SideB, Action{Kind: ActionMark, Cell: 14})
	assert.Equal(t, ErrInvalidMove, err)
}

func TestTicTacToeForcedDefaultPicksEmptyCell(t *testing.T) {
	e := newTicTacToe()
	s := e.InitialState()
	s = playTTT(t, e, s, SideA, 4)

	for i := 0; i < 20; i++ {
		action := e.ForcedDefault(s, SideB)
		assert.Equal(t, ActionMark, action.Kind)
		assert.NotEqual(t, 4, action.Cell)
	}
}

func TestTicTacToeTurnAlternates(t *testing.T) {
	e := newTicTacToe()
	s := e.InitialState()

	assert.Equal(t, []Side{SideA}, e.PendingSides(s))
	s = playTTT(t, e, s, SideA, 0)
	assert.Equal(t, []Side{SideB}, e.PendingSides(s))

	_, err := e.Apply(s, SideA, Action{Kind: ActionMark, Cell: 1})
	assert.Equal(t, ErrNotYourTurn, err)
}
