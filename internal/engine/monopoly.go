package engine

import (
	"math/rand"
)

const (
	ActionRoll         = "roll"
	ActionCompleteMove = "completeMove"
	ActionBuy          = "buy"
	ActionEndTurn      = "endTurn"

	PhaseRoll   = "ROLL"
	PhaseMoving = "MOVING"
	PhaseAction = "ACTION"
	PhaseEnd    = "END"
)

const (
	EventLanded            = "LANDED"
	EventPurchaseAvailable = "PURCHASE_AVAILABLE"
	EventPurchased         = "PURCHASED"
	EventRentPaid          = "RENT_PAID"
	EventTaxPaid           = "TAX_PAID"
	EventCardDrawn         = "CARD_DRAWN"
	EventWentToJail        = "WENT_TO_JAIL"
	EventJailStay          = "JAIL_STAY"
	EventBankrupt          = "BANKRUPT"
)

type MonopolyEvent struct {
	Kind   string        `json:"kind"`
	Space  int           `json:"space"`
	Amount int           `json:"amount,omitempty"`
	Card   *MonopolyCard `json:"card,omitempty"`
}

type MonopolyPlayerState struct {
	Position    int   `json:"position"`
	Money       int   `json:"money"`
	Owned       []int `json:"ownedSpaces"`
	InJail      bool  `json:"inJail"`
	JailStrikes int   `json:"jailStrikes"`
}

type MonopolyState struct {
	A             MonopolyPlayerState `json:"a"`
	B             MonopolyPlayerState `json:"b"`
	Ownership     [40]Side            `json:"ownership"`
	Turn          Side                `json:"turn"`
	Phase         string              `json:"phase"`
	LastDice      [2]int              `json:"lastDice"`
	DoublesStreak int                 `json:"doublesStreak"`
	Rounds        int                 `json:"rounds"`
	CurrentEvent  *MonopolyEvent      `json:"currentEvent,omitempty"`
	Winner        *Side               `json:"winner,omitempty"`
}

type monopoly struct {
	dice func() (int, int)
	card func(deck []MonopolyCard) MonopolyCard
}

func newMonopoly() *monopoly {
	return &monopoly{
		dice: func() (int, int) { return 1 + rand.Intn(6), 1 + rand.Intn(6) },
		card: func(deck []MonopolyCard) MonopolyCard { return deck[rand.Intn(len(deck))] },
	}
}

func (e *monopoly) InitialState() State {
	return &MonopolyState{
		A:     MonopolyPlayerState{Money: monopolyStartMoney},
		B:     MonopolyPlayerState{Money: monopolyStartMoney},
		Turn:  SideA,
		Phase: PhaseRoll,
	}
}

func (e *monopoly) Apply(state State, side Side, action Action) (Transition, error) {
	s := cloneMonopoly(state.(*MonopolyState))

	if s.Phase == PhaseComplete {
		return Transition{}, ErrInvalidMove
	}
	if side != s.Turn {
		return Transition{}, ErrNotYourTurn
	}

	switch action.Kind {
	case ActionRoll:
		return e.applyRoll(s, side)
	case ActionCompleteMove:
		return e.applyCompleteMove(s, side)
	case ActionBuy:
		return e.applyBuy(s, side)
	case ActionEndTurn:
		return e.applyEndTurn(s, side)
	default:
		return Transition{}, ErrInvalidMove
	}
}

func (e *monopoly) applyRoll(s *MonopolyState, side Side) (Transition, error) {
	if s.Phase != PhaseRoll {
		return Transition{}, ErrInvalidMove
	}
	p := s.player(side)
	d1, d2 := e.dice()
	s.LastDice = [2]int{d1, d2}

	if p.InJail {
		// doublesStreak stays zeroed while jailed
		if d1 == d2 {
			p.InJail = false
			p.JailStrikes = 0
			e.movePlayer(s, p, d1+d2)
			s.Phase = PhaseMoving
			return Transition{State: s}, nil
		}
		p.JailStrikes++
		if p.JailStrikes >= 3 {
			if terminal := e.deduct(s, side, monopolyJailFine, nil); terminal != nil {
				return Transition{State: s, Outcome: terminal}, nil
			}
			p.InJail = false
			p.JailStrikes = 0
			e.movePlayer(s, p, d1+d2)
			s.Phase = PhaseMoving
			return Transition{State: s}, nil
		}
		s.CurrentEvent = &MonopolyEvent{Kind: EventJailStay, Space: monopolyJailSpace}
		s.Phase = PhaseEnd
		return Transition{State: s}, nil
	}

	if d1 == d2 {
		s.DoublesStreak++
		if s.DoublesStreak >= 3 {
			// third consecutive double: straight to jail, no movement
			e.sendToJail(s, p)
			s.CurrentEvent = &MonopolyEvent{Kind: EventWentToJail, Space: monopolyJailSpace}
			s.Phase = PhaseEnd
			return Transition{State: s}, nil
		}
	} else {
		s.DoublesStreak = 0
	}

	e.movePlayer(s, p, d1+d2)
	s.Phase = PhaseMoving
	return Transition{State: s}, nil
}

func (e *monopoly) applyCompleteMove(s *MonopolyState, side Side) (Transition, error) {
	if s.Phase != PhaseMoving {
		return Transition{}, ErrInvalidMove
	}
	outcome := e.resolveLanding(s, side)
	if outcome != nil {
		return Transition{State: s, Outcome: outcome}, nil
	}
	return Transition{State: s}, nil
}

func (e *monopoly) applyBuy(s *MonopolyState, side Side) (Transition, error) {
	if s.Phase != PhaseAction {
		return Transition{}, ErrInvalidMove
	}
	p := s.player(side)
	space := monopolyBoard[p.Position]
	if s.Ownership[p.Position] != "" || space.Price == 0 || p.Money < space.Price {
		return Transition{}, ErrInvalidMove
	}
	p.Money -= space.Price
	p.Owned = append(p.Owned, p.Position)
	s.Ownership[p.Position] = side
	s.CurrentEvent = &MonopolyEvent{Kind: EventPurchased, Space: p.Position, Amount: space.Price}
	s.Phase = PhaseEnd
	return Transition{State: s}, nil
}

func (e *monopoly) applyEndTurn(s *MonopolyState, side Side) (Transition, error) {
	if s.Phase != PhaseAction && s.Phase != PhaseEnd {
		return Transition{}, ErrInvalidMove
	}
	s.CurrentEvent = nil
	p := s.player(side)
	if s.DoublesStreak > 0 && !p.InJail {
		// doubles earn another roll for the same side
		s.Phase = PhaseRoll
		return Transition{State: s}, nil
	}
	s.Turn = side.Opponent()
	s.Phase = PhaseRoll
	s.DoublesStreak = 0
	s.Rounds++
	return Transition{State: s}, nil
}

// resolveLanding applies the effect of the space under the mover. A nil
// return means the match continues; otherwise bankruptcy ended it.
func (e *monopoly) resolveLanding(s *MonopolyState, side Side) *Outcome {
	p := s.player(side)
	space := monopolyBoard[p.Position]

	switch space.Type {
	case SpaceProperty, SpaceRailroad, SpaceUtility:
		owner := s.Ownership[p.Position]
		switch owner {
		case "":
			if p.Money >= space.Price {
				s.CurrentEvent = &MonopolyEvent{Kind: EventPurchaseAvailable, Space: p.Position, Amount: space.Price}
				s.Phase = PhaseAction
				return nil
			}
			s.CurrentEvent = &MonopolyEvent{Kind: EventLanded, Space: p.Position}
		case side:
			s.CurrentEvent = &MonopolyEvent{Kind: EventLanded, Space: p.Position}
		default:
			rent := e.computeRent(s, p.Position, owner)
			s.CurrentEvent = &MonopolyEvent{Kind: EventRentPaid, Space: p.Position, Amount: rent}
			if terminal := e.deduct(s, side, rent, &owner); terminal != nil {
				return terminal
			}
		}
	case SpaceTax:
		s.CurrentEvent = &MonopolyEvent{Kind: EventTaxPaid, Space: p.Position, Amount: space.Rent}
		if terminal := e.deduct(s, side, space.Rent, nil); terminal != nil {
			return terminal
		}
	case SpaceChance, SpaceChest:
		deck := monopolyChanceCards
		if space.Type == SpaceChest {
			deck = monopolyChestCards
		}
		card := e.card(deck)
		s.CurrentEvent = &MonopolyEvent{Kind: EventCardDrawn, Space: p.Position, Card: &card}
		switch card.Kind {
		case CardMoney:
			if card.Amount < 0 {
				if terminal := e.deduct(s, side, -card.Amount, nil); terminal != nil {
					return terminal
				}
			} else {
				p.Money += card.Amount
			}
		case CardMove:
			if card.MoveTo <= p.Position {
				p.Money += monopolyGoSalary
			}
			p.Position = card.MoveTo
			// the card may land us on another resolvable space
			return e.resolveLanding(s, side)
		case CardGoToJail:
			e.sendToJail(s, p)
		}
	case SpaceGoToJail:
		e.sendToJail(s, p)
		s.CurrentEvent = &MonopolyEvent{Kind: EventWentToJail, Space: monopolyJailSpace}
	default:
		s.CurrentEvent = &MonopolyEvent{Kind: EventLanded, Space: p.Position}
	}

	s.Phase = PhaseEnd
	return nil
}

// computeRent covers monopoly groups, railroad counts, utility dice
// multipliers, and the round-based scaling that keeps long matches
// converging toward a bankruptcy.
func (e *monopoly) computeRent(s *MonopolyState, pos int, owner Side) int {
	space := monopolyBoard[pos]
	o := s.player(owner)
	var rent int
	switch space.Type {
	case SpaceRailroad:
		count := 0
		for _, idx := range o.Owned {
			if monopolyBoard[idx].Type == SpaceRailroad {
				count++
			}
		}
		rent = monopolyRailroadRent << (count - 1)
	case SpaceUtility:
		count := 0
		for _, idx := range o.Owned {
			if monopolyBoard[idx].Type == SpaceUtility {
				count++
			}
		}
		sum := s.LastDice[0] + s.LastDice[1]
		if count >= 2 {
			rent = sum * 10
		} else {
			rent = sum * 4
		}
	default:
		rent = space.Rent
		if e.ownsGroup(s, owner, space.Group) {
			rent *= 2
		}
	}
	return rent * (1 + s.Rounds/20)
}

func (e *monopoly) ownsGroup(s *MonopolyState, owner Side, group int) bool {
	for idx, space := range monopolyBoard {
		if space.Type == SpaceProperty && space.Group == group && s.Ownership[idx] != owner {
			return false
		}
	}
	return true
}

// deduct takes money from a side, crediting the beneficiary if any.
// A negative balance is terminal: the opponent wins by bankruptcy.
func (e *monopoly) deduct(s *MonopolyState, side Side, amount int, beneficiary *Side) *Outcome {
	p := s.player(side)
	p.Money -= amount
	if beneficiary != nil {
		s.player(*beneficiary).Money += amount
	}
	if p.Money < 0 {
		s.Phase = PhaseComplete
		opp := side.Opponent()
		s.Winner = &opp
		s.CurrentEvent = &MonopolyEvent{Kind: EventBankrupt, Space: p.Position, Amount: amount}
		return winner(opp)
	}
	return nil
}

func (e *monopoly) movePlayer(s *MonopolyState, p *MonopolyPlayerState, steps int) {
	next := (p.Position + steps) % 40
	if next < p.Position {
		p.Money += monopolyGoSalary
	}
	p.Position = next
}

func (e *monopoly) sendToJail(s *MonopolyState, p *MonopolyPlayerState) {
	p.Position = monopolyJailSpace
	p.InJail = true
	p.JailStrikes = 0
	s.DoublesStreak = 0
}

func (e *monopoly) ForcedDefault(state State, side Side) Action {
	s := state.(*MonopolyState)
	switch s.Phase {
	case PhaseRoll:
		return Action{Kind: ActionRoll}
	case PhaseMoving:
		return Action{Kind: ActionCompleteMove}
	default:
		// never buys on a timeout
		return Action{Kind: ActionEndTurn}
	}
}

func (e *monopoly) PendingSides(state State) []Side {
	s := state.(*MonopolyState)
	if s.Phase == PhaseComplete {
		return nil
	}
	return []Side{s.Turn}
}

func (e *monopoly) Redact(state State, viewer Side) any {
	// monopoly has no hidden information
	return state.(*MonopolyState)
}

func (e *monopoly) Spectate(state State) any {
	s := state.(*MonopolyState)
	return map[string]any{
		"positions": map[Side]int{SideA: s.A.Position, SideB: s.B.Position},
		"money":     map[Side]int{SideA: s.A.Money, SideB: s.B.Money},
		"ownership": s.Ownership,
		"turn":      s.Turn,
		"phase":     s.Phase,
		"lastDice":  s.LastDice,
		"winner":    s.Winner,
	}
}

func (s *MonopolyState) player(side Side) *MonopolyPlayerState {
	if side == SideA {
		return &s.A
	}
	return &s.B
}

func cloneMonopoly(s *MonopolyState) *MonopolyState {
	c := *s
	c.A.Owned = append([]int(nil), s.A.Owned...)
	c.B.Owned = append([]int(nil), s.B.Owned...)
	if s.CurrentEvent != nil {
		ev := *s.CurrentEvent
		c.CurrentEvent = &ev
	}
	return &c
}
