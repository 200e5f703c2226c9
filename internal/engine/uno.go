package engine

import (
	"math/rand"
)

const (
	ActionPlay        = "play"
	ActionDraw        = "draw"
	ActionSelectColor = "selectColor"
	ActionCallUno     = "callUno"

	PhaseSelectColor = "SELECT_COLOR"

	unoDeckSize  = 108
	unoHandStart = 7
)

type UnoColor string

const (
	ColorRed    UnoColor = "RED"
	ColorYellow UnoColor = "YELLOW"
	ColorGreen  UnoColor = "GREEN"
	ColorBlue   UnoColor = "BLUE"
	ColorBlack  UnoColor = "BLACK"
)

var unoColors = []UnoColor{ColorRed, ColorYellow, ColorGreen, ColorBlue}

const (
	ValueSkip         = "SKIP"
	ValueReverse      = "REVERSE"
	ValueDrawTwo      = "DRAW_TWO"
	ValueWild         = "WILD"
	ValueWildDrawFour = "WILD_DRAW_FOUR"
)

type UnoCard struct {
	Color UnoColor `json:"color"`
	Value string   `json:"value"`
}

func (c UnoCard) wild() bool {
	return c.Color == ColorBlack
}

type UnoSideState struct {
	Hand      []UnoCard `json:"hand"`
	CalledUno bool      `json:"calledUno"`
}

type UnoState struct {
	DrawPile    []UnoCard    `json:"drawPile"`
	DiscardPile []UnoCard    `json:"discardPile"`
	A           UnoSideState `json:"a"`
	B           UnoSideState `json:"b"`
	Turn        Side         `json:"turn"`
	ActiveColor UnoColor     `json:"activeColor"`
	Phase       string       `json:"phase"`
	SkipNext    bool         `json:"skipNext"`
	MustDraw    int          `json:"mustDraw"`
	Winner      *Side        `json:"winner,omitempty"`
}

func (s *UnoState) top() UnoCard {
	return s.DiscardPile[len(s.DiscardPile)-1]
}

type uno struct {
	shuffle func([]UnoCard)
}

func newUno() *uno {
	return &uno{shuffle: func(cards []UnoCard) {
		rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	}}
}

// buildUnoDeck produces the fixed 108-card multiset: per color one 0,
// two each of 1-9, two skips, two reverses, two draw-twos, plus four
// wilds and four wild-draw-fours.
func buildUnoDeck() []UnoCard {
	deck := make([]UnoCard, 0, unoDeckSize)
	for _, color := range unoColors {
		deck = append(deck, UnoCard{color, "0"})
		for n := 1; n <= 9; n++ {
			v := string(rune('0' + n))
			deck = append(deck, UnoCard{color, v}, UnoCard{color, v})
		}
		deck = append(deck,
			UnoCard{color, ValueSkip}, UnoCard{color, ValueSkip},
			UnoCard{color, ValueReverse}, UnoCard{color, ValueReverse},
			UnoCard{color, ValueDrawTwo}, UnoCard{color, ValueDrawTwo})
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, UnoCard{ColorBlack, ValueWild}, UnoCard{ColorBlack, ValueWildDrawFour})
	}
	return deck
}

func (e *uno) InitialState() State {
	deck := buildUnoDeck()
	e.shuffle(deck)

	s := &UnoState{Turn: SideA, Phase: PhasePlaying}
	s.A.Hand = append(s.A.Hand, deck[:unoHandStart]...)
	s.B.Hand = append(s.B.Hand, deck[unoHandStart:2*unoHandStart]...)
	deck = deck[2*unoHandStart:]

	// rotate wilds to the bottom until a colored card opens the discard
	for deck[len(deck)-1].wild() {
		top := deck[len(deck)-1]
		deck = append([]UnoCard{top}, deck[:len(deck)-1]...)
	}
	s.DiscardPile = []UnoCard{deck[len(deck)-1]}
	s.DrawPile = deck[:len(deck)-1]
	s.ActiveColor = s.top().Color
	return s
}

func (e *uno) Apply(state State, side Side, action Action) (Transition, error) {
	s := cloneUno(state.(*UnoState))

	if s.Phase == PhaseComplete {
		return Transition{}, ErrInvalidMove
	}

	switch action.Kind {
	case ActionCallUno:
		me, _ := s.sides(side)
		if len(me.Hand) > 2 {
			return Transition{}, ErrInvalidMove
		}
		me.CalledUno = true
		return Transition{State: s}, nil
	case ActionPlay:
		return e.applyPlay(s, side, action.HandIndex)
	case ActionDraw:
		return e.applyDraw(s, side)
	case ActionSelectColor:
		return e.applySelectColor(s, side, UnoColor(action.Color))
	default:
		return Transition{}, ErrInvalidMove
	}
}

func (e *uno) applyPlay(s *UnoState, side Side, idx int) (Transition, error) {
	if s.Phase != PhasePlaying {
		return Transition{}, ErrInvalidMove
	}
	if side != s.Turn {
		return Transition{}, ErrNotYourTurn
	}
	me, _ := s.sides(side)
	if idx < 0 || idx >= len(me.Hand) {
		return Transition{}, ErrCardNotInHand
	}
	card := me.Hand[idx]
	top := s.top()
	if !card.wild() && card.Color != s.ActiveColor && card.Value != top.Value {
		return Transition{}, ErrInvalidMove
	}

	me.Hand = append(append([]UnoCard{}, me.Hand[:idx]...), me.Hand[idx+1:]...)
	s.DiscardPile = append(s.DiscardPile, card)

	if len(me.Hand) == 0 {
		s.Phase = PhaseComplete
		s.Winner = &side
		return Transition{State: s, Outcome: winner(side)}, nil
	}

	// missed UNO call: reaching one card without calling costs two draws
	if len(me.Hand) == 1 && !me.CalledUno {
		e.drawCards(s, me, 2)
	}

	if card.wild() {
		s.Phase = PhaseSelectColor
		if card.Value == ValueWildDrawFour {
			s.MustDraw = 4
		}
		return Transition{State: s}, nil
	}

	s.ActiveColor = card.Color
	switch card.Value {
	case ValueSkip, ValueReverse:
		// reverse behaves as skip in a two-player match
		s.SkipNext = true
	case ValueDrawTwo:
		s.MustDraw = 2
		s.SkipNext = true
	}
	e.advanceTurn(s)
	return Transition{State: s}, nil
}

func (e *uno) applyDraw(s *UnoState, side Side) (Transition, error) {
	if s.Phase != PhasePlaying {
		return Transition{}, ErrInvalidMove
	}
	if side != s.Turn {
		return Transition{}, ErrNotYourTurn
	}
	me, _ := s.sides(side)
	e.drawCards(s, me, 1)
	s.Turn = side.Opponent()
	return Transition{State: s}, nil
}

func (e *uno) applySelectColor(s *UnoState, side Side, color UnoColor) (Transition, error) {
	if s.Phase != PhaseSelectColor {
		return Transition{}, ErrInvalidMove
	}
	if side != s.Turn {
		return Transition{}, ErrNotYourTurn
	}
	valid := false
	for _, c := range unoColors {
		if c == color {
			valid = true
		}
	}
	if !valid {
		return Transition{}, ErrInvalidMove
	}
	s.ActiveColor = color
	s.Phase = PhasePlaying
	if s.MustDraw > 0 {
		s.SkipNext = true
	}
	e.advanceTurn(s)
	return Transition{State: s}, nil
}

// advanceTurn hands the turn over, resolving pending forced draws and
// skips against the opponent.
func (e *uno) advanceTurn(s *UnoState) {
	_, opp := s.sides(s.Turn)
	if s.SkipNext {
		if s.MustDraw > 0 {
			e.drawCards(s, opp, s.MustDraw)
			s.MustDraw = 0
		}
		s.SkipNext = false
		// opponent is skipped, turn stays
		return
	}
	s.Turn = s.Turn.Opponent()
}

// drawCards moves cards from the draw pile into a hand, recycling the
// discard pile (minus its top card) when the draw pile runs dry.
func (e *uno) drawCards(s *UnoState, st *UnoSideState, n int) {
	for i := 0; i < n; i++ {
		if len(s.DrawPile) == 0 {
			if len(s.DiscardPile) <= 1 {
				return
			}
			recycled := append([]UnoCard{}, s.DiscardPile[:len(s.DiscardPile)-1]...)
			e.shuffle(recycled)
			s.DiscardPile = s.DiscardPile[len(s.DiscardPile)-1:]
			s.DrawPile = recycled
		}
		st.Hand = append(st.Hand, s.DrawPile[len(s.DrawPile)-1])
		s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
	}
	st.CalledUno = false
}

func (e *uno) ForcedDefault(state State, side Side) Action {
	s := state.(*UnoState)
	if s.Phase == PhaseSelectColor {
		return Action{Kind: ActionSelectColor, Color: string(unoColors[rand.Intn(len(unoColors))])}
	}
	return Action{Kind: ActionDraw}
}

func (e *uno) PendingSides(state State) []Side {
	s := state.(*UnoState)
	if s.Phase == PhaseComplete {
		return nil
	}
	return []Side{s.Turn}
}

func (e *uno) Redact(state State, viewer Side) any {
	s := state.(*UnoState)
	me, opp := s.sides(viewer)
	return map[string]any{
		"hand":              me.Hand,
		"calledUno":         me.CalledUno,
		"opponentCards":     len(opp.Hand),
		"opponentCalledUno": opp.CalledUno,
		"drawPileCount":     len(s.DrawPile),
		"discardTop":        s.top(),
		"activeColor":       s.ActiveColor,
		"turn":              s.Turn,
		"phase":             s.Phase,
		"mustDraw":          s.MustDraw,
		"skipNext":          s.SkipNext,
		"winner":            s.Winner,
	}
}

func (e *uno) Spectate(state State) any {
	s := state.(*UnoState)
	return map[string]any{
		"cardsA":      len(s.A.Hand),
		"cardsB":      len(s.B.Hand),
		"discardTop":  s.top(),
		"activeColor": s.ActiveColor,
		"turn":        s.Turn,
		"phase":       s.Phase,
		"winner":      s.Winner,
	}
}

func (s *UnoState) sides(side Side) (me, opp *UnoSideState) {
	if side == SideA {
		return &s.A, &s.B
	}
	return &s.B, &s.A
}

func cloneUno(s *UnoState) *UnoState {
	c := *s
	c.DrawPile = append([]UnoCard(nil), s.DrawPile...)
	c.DiscardPile = append([]UnoCard(nil), s.DiscardPile...)
	c.A.Hand = append([]UnoCard(nil), s.A.Hand...)
	c.B.Hand = append([]UnoCard(nil), s.B.Hand...)
	return &c
}
