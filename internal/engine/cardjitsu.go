package engine

import (
	"math/rand"
	"time"
)

const (
	ActionSelect       = "select"
	ActionAdvanceRound = "advanceRound"

	PhaseSelect = "SELECT"
	PhaseReveal = "REVEAL"

	jitsuHandSize    = 5
	jitsuRevealDelay = 3500 * time.Millisecond
)

type Element string

const (
	ElementFire  Element = "FIRE"
	ElementWater Element = "WATER"
	ElementSnow  Element = "SNOW"
)

var jitsuElements = []Element{ElementFire, ElementWater, ElementSnow}

type JitsuCard struct {
	Element Element `json:"element"`
	Power   int     `json:"power"`
}

// ElementTally is monotonically non-decreasing per element.
type ElementTally struct {
	Fire  int `json:"fire"`
	Water int `json:"water"`
	Snow  int `json:"snow"`
}

func (t *ElementTally) add(e Element) {
	switch e {
	case ElementFire:
		t.Fire++
	case ElementWater:
		t.Water++
	case ElementSnow:
		t.Snow++
	}
}

// winning is three wins in one element, or at least one win in all three.
func (t ElementTally) winning() bool {
	if t.Fire >= 3 || t.Water >= 3 || t.Snow >= 3 {
		return true
	}
	return t.Fire >= 1 && t.Water >= 1 && t.Snow >= 1
}

type JitsuSideState struct {
	Hand     []JitsuCard  `json:"hand"`
	Selected *int         `json:"selected,omitempty"`
	Wins     ElementTally `json:"wins"`
}

type JitsuResolution struct {
	CardA  JitsuCard `json:"cardA"`
	CardB  JitsuCard `json:"cardB"`
	Winner *Side     `json:"winner,omitempty"`
}

type CardJitsuState struct {
	Round          int              `json:"round"`
	A              JitsuSideState   `json:"a"`
	B              JitsuSideState   `json:"b"`
	Phase          string           `json:"phase"`
	Winner         *Side            `json:"winner,omitempty"`
	LastResolution *JitsuResolution `json:"lastResolution,omitempty"`
}

type cardJitsu struct {
	deal func() JitsuCard
}

func newCardJitsu() *cardJitsu {
	return &cardJitsu{deal: randomJitsuCard}
}

func randomJitsuCard() JitsuCard {
	return JitsuCard{
		Element: jitsuElements[rand.Intn(len(jitsuElements))],
		Power:   1 + rand.Intn(12),
	}
}

func (e *cardJitsu) InitialState() State {
	s := &CardJitsuState{Round: 1, Phase: PhaseSelect}
	for i := 0; i < jitsuHandSize; i++ {
		s.A.Hand = append(s.A.Hand, e.deal())
		s.B.Hand = append(s.B.Hand, e.deal())
	}
	return s
}

func (e *cardJitsu) Apply(state State, side Side, action Action) (Transition, error) {
	s := cloneJitsu(state.(*CardJitsuState))

	switch action.Kind {
	case ActionSelect:
		return e.applySelect(s, side, action.HandIndex)
	case ActionAdvanceRound:
		return e.applyAdvance(s)
	default:
		return Transition{}, ErrInvalidMove
	}
}

func (e *cardJitsu) applySelect(s *CardJitsuState, side Side, idx int) (Transition, error) {
	if s.Phase != PhaseSelect {
		return Transition{}, ErrInvalidMove
	}
	me, _ := s.sides(side)
	if me.Selected != nil {
		return Transition{}, ErrAlreadySelected
	}
	if idx < 0 || idx >= len(me.Hand) {
		return Transition{}, ErrCardNotInHand
	}
	me.Selected = &idx

	if s.A.Selected == nil || s.B.Selected == nil {
		return Transition{State: s}, nil
	}

	cardA := s.A.Hand[*s.A.Selected]
	cardB := s.B.Hand[*s.B.Selected]
	res := JitsuResolution{CardA: cardA, CardB: cardB}
	switch {
	case elementBeats(cardA.Element, cardB.Element):
		res.Winner = sidePtr(SideA)
		s.A.Wins.add(cardA.Element)
	case elementBeats(cardB.Element, cardA.Element):
		res.Winner = sidePtr(SideB)
		s.B.Wins.add(cardB.Element)
	case cardA.Power > cardB.Power:
		res.Winner = sidePtr(SideA)
		s.A.Wins.add(cardA.Element)
	case cardB.Power > cardA.Power:
		res.Winner = sidePtr(SideB)
		s.B.Wins.add(cardB.Element)
	}
	s.LastResolution = &res

	if s.A.Wins.winning() {
		s.Phase = PhaseComplete
		s.Winner = sidePtr(SideA)
		return Transition{State: s, Outcome: winner(SideA)}, nil
	}
	if s.B.Wins.winning() {
		s.Phase = PhaseComplete
		s.Winner = sidePtr(SideB)
		return Transition{State: s, Outcome: winner(SideB)}, nil
	}

	// non-terminal round: pause for the reveal, then the scheduled
	// follow-up replenishes hands and opens the next select phase
	s.Phase = PhaseReveal
	return Transition{
		State:    s,
		Schedule: &ScheduledAction{After: jitsuRevealDelay, Action: Action{Kind: ActionAdvanceRound}},
	}, nil
}

func (e *cardJitsu) applyAdvance(s *CardJitsuState) (Transition, error) {
	if s.Phase != PhaseReveal {
		return Transition{}, ErrInvalidMove
	}
	replenish := func(st *JitsuSideState) {
		hand := make([]JitsuCard, 0, jitsuHandSize)
		for i, c := range st.Hand {
			if i != *st.Selected {
				hand = append(hand, c)
			}
		}
		for len(hand) < jitsuHandSize {
			hand = append(hand, e.deal())
		}
		st.Hand = hand
		st.Selected = nil
	}
	replenish(&s.A)
	replenish(&s.B)
	s.Round++
	s.Phase = PhaseSelect
	return Transition{State: s}, nil
}

// ForcedDefault selects the first card for a side that has not chosen.
func (e *cardJitsu) ForcedDefault(state State, side Side) Action {
	return Action{Kind: ActionSelect, HandIndex: 0}
}

func (e *cardJitsu) PendingSides(state State) []Side {
	s := state.(*CardJitsuState)
	if s.Phase != PhaseSelect {
		return nil
	}
	var pending []Side
	if s.A.Selected == nil {
		pending = append(pending, SideA)
	}
	if s.B.Selected == nil {
		pending = append(pending, SideB)
	}
	return pending
}

// Redact hides the opponent's hand and, during select, whether a card
// index was chosen beyond a locked flag.
func (e *cardJitsu) Redact(state State, viewer Side) any {
	s := state.(*CardJitsuState)
	me, opp := s.sides(viewer)
	view := map[string]any{
		"round":          s.Round,
		"phase":          s.Phase,
		"hand":           me.Hand,
		"selected":       me.Selected,
		"wins":           me.Wins,
		"opponentWins":   opp.Wins,
		"opponentLocked": opp.Selected != nil,
		"winner":         s.Winner,
	}
	if s.Phase != PhaseSelect {
		view["lastResolution"] = s.LastResolution
	}
	return view
}

func (e *cardJitsu) Spectate(state State) any {
	s := state.(*CardJitsuState)
	view := map[string]any{
		"round":   s.Round,
		"phase":   s.Phase,
		"winsA":   s.A.Wins,
		"winsB":   s.B.Wins,
		"lockedA": s.A.Selected != nil,
		"lockedB": s.B.Selected != nil,
		"winner":  s.Winner,
	}
	if s.Phase != PhaseSelect {
		view["lastResolution"] = s.LastResolution
	}
	return view
}

func (s *CardJitsuState) sides(side Side) (me, opp *JitsuSideState) {
	if side == SideA {
		return &s.A, &s.B
	}
	return &s.B, &s.A
}

// fire beats snow, snow beats water, water beats fire
func elementBeats(a, b Element) bool {
	switch a {
	case ElementFire:
		return b == ElementSnow
	case ElementSnow:
		return b == ElementWater
	case ElementWater:
		return b == ElementFire
	}
	return false
}

func sidePtr(s Side) *Side {
	return &s
}

func cloneJitsu(s *CardJitsuState) *CardJitsuState {
	c := *s
	c.A.Hand = append([]JitsuCard(nil), s.A.Hand...)
	c.B.Hand = append([]JitsuCard(nil), s.B.Hand...)
	if s.A.Selected != nil {
		v := *s.A.Selected
		c.A.Selected = &v
	}
	if s.B.Selected != nil {
		v := *s.B.Selected
		c.B.Selected = &v
	}
	return &c
}
