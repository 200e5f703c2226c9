package engine

import (
	"math/rand"
)

const (
	ActionMark = "mark"

	PhasePlaying  = "PLAYING"
	PhaseComplete = "COMPLETE"
)

var ticTacToeLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type TicTacToeState struct {
	Board   [9]Side `json:"board"`
	Turn    Side    `json:"turn"`
	Phase   string  `json:"phase"`
	Winner  *Side   `json:"winner,omitempty"`
	WinLine []int   `json:"winLine,omitempty"`
}

type ticTacToe struct{}

func newTicTacToe() *ticTacToe {
	return &ticTacToe{}
}

func (e *ticTacToe) InitialState() State {
	return &TicTacToeState{Turn: SideA, Phase: PhasePlaying}
}

func (e *ticTacToe) Apply(state State, side Side, action Action) (Transition, error) {
	s := *state.(*TicTacToeState)

	if s.Phase != PhasePlaying || action.Kind != ActionMark {
		return Transition{}, ErrInvalidMove
	}
	if side != s.Turn {
		return Transition{}, ErrNotYourTurn
	}
	cell := action.Cell
	if cell < 0 || cell > 8 {
		return Transition{}, ErrInvalidMove
	}
	if s.Board[cell] != "" {
		return Transition{}, ErrCellTaken
	}

	s.Board[cell] = side

	if line, ok := findLine(s.Board, side); ok {
		s.Phase = PhaseComplete
		s.Winner = &side
		s.WinLine = line
		return Transition{State: &s, Outcome: winner(side)}, nil
	}
	if boardFull(s.Board) {
		s.Phase = PhaseComplete
		return Transition{State: &s, Outcome: draw()}, nil
	}

	s.Turn = side.Opponent()
	return Transition{State: &s}, nil
}

func (e *ticTacToe) ForcedDefault(state State, side Side) Action {
	s := state.(*TicTacToeState)
	open := []int{}
	for i, v := range s.Board {
		if v == "" {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return Action{Kind: ActionMark}
	}
	return Action{Kind: ActionMark, Cell: open[rand.Intn(len(open))]}
}

func (e *ticTacToe) PendingSides(state State) []Side {
	s := state.(*TicTacToeState)
	if s.Phase != PhasePlaying {
		return nil
	}
	return []Side{s.Turn}
}

func (e *ticTacToe) Redact(state State, viewer Side) any {
	// nothing hidden
	return state.(*TicTacToeState)
}

func (e *ticTacToe) Spectate(state State) any {
	s := state.(*TicTacToeState)
	return map[string]any{
		"board":  s.Board,
		"turn":   s.Turn,
		"phase":  s.Phase,
		"winner": s.Winner,
	}
}

func findLine(board [9]Side, side Side) ([]int, bool) {
	for _, line := range ticTacToeLines {
		if board[line[0]] == side && board[line[1]] == side && board[line[2]] == side {
			return []int{line[0], line[1], line[2]}, true
		}
	}
	return nil, false
}

func boardFull(board [9]Side) bool {
	for _, v := range board {
		if v == "" {
			return false
		}
	}
	return true
}
