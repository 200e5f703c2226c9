package engine

import (
	"math/rand"
	"sort"
)

const (
	ActionDrop = "drop"

	connect4Rows = 6
	connect4Cols = 7
)

type Connect4Move struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Side Side `json:"side"`
}

// Board is indexed [row][col] with row 0 at the bottom.
type Connect4State struct {
	Board        [connect4Rows][connect4Cols]Side `json:"board"`
	Turn         Side                             `json:"turn"`
	Phase        string                           `json:"phase"`
	Winner       *Side                            `json:"winner,omitempty"`
	LastMove     *Connect4Move                    `json:"lastMove,omitempty"`
	WinningCells [][2]int                         `json:"winningCells,omitempty"`
}

type connect4 struct{}

func newConnect4() *connect4 {
	return &connect4{}
}

func (e *connect4) InitialState() State {
	return &Connect4State{Turn: SideA, Phase: PhasePlaying}
}

func (e *connect4) Apply(state State, side Side, action Action) (Transition, error) {
	s := *state.(*Connect4State)

	if s.Phase != PhasePlaying || action.Kind != ActionDrop {
		return Transition{}, ErrInvalidMove
	}
	if side != s.Turn {
		return Transition{}, ErrNotYourTurn
	}
	col := action.Column
	if col < 0 || col >= connect4Cols {
		return Transition{}, ErrInvalidMove
	}

	row := -1
	for r := 0; r < connect4Rows; r++ {
		if s.Board[r][col] == "" {
			row = r
			break
		}
	}
	if row == -1 {
		return Transition{}, ErrColumnFull
	}

	s.Board[row][col] = side
	s.LastMove = &Connect4Move{Row: row, Col: col, Side: side}

	if cells := connectedLine(&s.Board, row, col, side); cells != nil {
		s.Phase = PhaseComplete
		s.Winner = &side
		s.WinningCells = cells
		return Transition{State: &s, Outcome: winner(side)}, nil
	}
	if connect4Full(&s.Board) {
		s.Phase = PhaseComplete
		return Transition{State: &s, Outcome: draw()}, nil
	}

	s.Turn = side.Opponent()
	return Transition{State: &s}, nil
}

// ForcedDefault prefers the center column, falling back to any open one.
func (e *connect4) ForcedDefault(state State, side Side) Action {
	s := state.(*Connect4State)
	if s.Board[connect4Rows-1][3] == "" {
		return Action{Kind: ActionDrop, Column: 3}
	}
	open := []int{}
	for c := 0; c < connect4Cols; c++ {
		if s.Board[connect4Rows-1][c] == "" {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return Action{Kind: ActionDrop, Column: 3}
	}
	return Action{Kind: ActionDrop, Column: open[rand.Intn(len(open))]}
}

func (e *connect4) PendingSides(state State) []Side {
	s := state.(*Connect4State)
	if s.Phase != PhasePlaying {
		return nil
	}
	return []Side{s.Turn}
}

func (e *connect4) Redact(state State, viewer Side) any {
	return state.(*Connect4State)
}

func (e *connect4) Spectate(state State) any {
	s := state.(*Connect4State)
	return map[string]any{
		"board":    s.Board,
		"turn":     s.Turn,
		"phase":    s.Phase,
		"winner":   s.Winner,
		"lastMove": s.LastMove,
	}
}

// connectedLine scans from the just-placed cell in both directions along
// each of the four axes. Returns the winning cells sorted by (row, col)
// so the result is identical regardless of which end was placed last.
func connectedLine(board *[connect4Rows][connect4Cols]Side, row, col int, side Side) [][2]int {
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		cells := [][2]int{{row, col}}
		for _, sign := range []int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < connect4Rows && c >= 0 && c < connect4Cols && board[r][c] == side {
				cells = append(cells, [2]int{r, c})
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if len(cells) >= 4 {
			sort.Slice(cells, func(i, j int) bool {
				if cells[i][0] != cells[j][0] {
					return cells[i][0] < cells[j][0]
				}
				return cells[i][1] < cells[j][1]
			})
			return cells
		}
	}
	return nil
}

func connect4Full(board *[connect4Rows][connect4Cols]Side) bool {
	for c := 0; c < connect4Cols; c++ {
		if board[connect4Rows-1][c] == "" {
			return false
		}
	}
	return true
}
