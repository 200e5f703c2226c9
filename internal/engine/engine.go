package engine

import (
	"time"
)

type GameType string

const (
	GameTicTacToe GameType = "TICTACTOE"
	GameConnect4  GameType = "CONNECT4"
	GameCardJitsu GameType = "CARDJITSU"
	GameUno       GameType = "UNO"
	GameMonopoly  GameType = "MONOPOLY"
)

type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// State is the game-type-specific state variant held by a match.
// Each engine owns a concrete state struct and type-asserts on Apply.
type State any

// Action is the uniform move payload. Engines read only the fields
// their action kinds use.
type Action struct {
	Kind      string `json:"kind"`
	Cell      int    `json:"cell"`
	Column    int    `json:"column"`
	HandIndex int    `json:"handIndex"`
	Color     string `json:"color"`
}

// Outcome reports a terminal transition. Winner nil means draw.
type Outcome struct {
	Winner *Side `json:"winner"`
}

// ScheduledAction is a delayed follow-up an engine wants applied through
// the normal move path (card-jitsu reveal pause). The caller owns the
// timer and must cancel it if the match ends by other means.
type ScheduledAction struct {
	After  time.Duration
	Side   Side
	Action Action
}

type Transition struct {
	State    State
	Outcome  *Outcome
	Schedule *ScheduledAction
}

// Engine is the common contract of the five rule-sets. Implementations
// are pure: no networking, persistence or money.
type Engine interface {
	InitialState() State
	Apply(state State, side Side, action Action) (Transition, error)
	// ForcedDefault is the auto-play used when a turn times out.
	ForcedDefault(state State, side Side) Action
	// PendingSides lists the sides currently expected to act. Empty for
	// terminal states and for phases advanced by a scheduled action.
	PendingSides(state State) []Side
	Redact(state State, viewer Side) any
	Spectate(state State) any
}

// NewCatalog builds the dispatch table, one engine per game type.
func NewCatalog() map[GameType]Engine {
	return map[GameType]Engine{
		GameTicTacToe: newTicTacToe(),
		GameConnect4:  newConnect4(),
		GameCardJitsu: newCardJitsu(),
		GameUno:       newUno(),
		GameMonopoly:  newMonopoly(),
	}
}

func winner(s Side) *Outcome {
	side := s
	return &Outcome{Winner: &side}
}

func draw() *Outcome {
	return &Outcome{}
}
