package match

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/engine"
	"github.com/snowpoint-games/arcade-backend/internal/persist"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/blockchain"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
	"github.com/snowpoint-games/arcade-backend/internal/settlement"
)

// Notifier pushes match events to connected clients. Implemented by the
// websocket hub; a nil-safe fake in tests. Room broadcasts exclude the
// named players so participants only receive their redacted push.
type Notifier interface {
	PushToPlayer(playerId string, event any)
	BroadcastToRoom(room string, event any, excludePlayerIds ...string)
}

// Settler is the slice of the settlement coordinator the registry needs.
type Settler interface {
	Settle(ctx context.Context, matchId string, wager settlement.Wager, winnerWallet string) *model.SettlementRecord
	RefundDraw(ctx context.Context, matchId string, wager settlement.Wager) *model.SettlementRecord
	RefundVoid(ctx context.Context, matchId string, wager settlement.Wager, reason string) *model.SettlementRecord
}

// BalanceChecker verifies a wallet can cover its deposit before the
// match starts.
type BalanceChecker interface {
	CanCover(address string, rawAmount uint64, decimals int) (bool, error)
}

// Registry owns all active matches. In-memory state is authoritative;
// the persistence gateway mirrors it best-effort.
type Registry struct {
	mu       sync.RWMutex
	matches  map[string]*Match
	byPlayer map[string]string
	byWallet map[string]string

	engines  map[engine.GameType]engine.Engine
	gateway  persist.Gateway
	notifier Notifier
	settler  Settler
	balance  BalanceChecker

	turnTimeout time.Duration
}

func NewRegistry(engines map[engine.GameType]engine.Engine, gateway persist.Gateway, notifier Notifier, settler Settler, balance BalanceChecker) *Registry {
	return &Registry{
		matches:     make(map[string]*Match),
		byPlayer:    make(map[string]string),
		byWallet:    make(map[string]string),
		engines:     engines,
		gateway:     gateway,
		notifier:    notifier,
		settler:     settler,
		balance:     balance,
		turnTimeout: 30 * time.Second,
	}
}

// CreateMatch builds the initial state, binds both identities and
// registers the match. Either identity already owning an active match
// rejects the whole creation.
func (r *Registry) CreateMatch(challenge Challenge) (*Match, error) {
	eng, ok := r.engines[challenge.GameType]
	if !ok {
		return nil, ErrUnknownGameType
	}

	if challenge.WagerToken != nil && r.balance != nil {
		for _, p := range []Participant{challenge.SideA, challenge.SideB} {
			covered, err := r.balance.CanCover(p.WalletAddress, challenge.WagerToken.RawAmount, challenge.WagerToken.Decimals)
			if err != nil {
				return nil, err
			}
			if !covered {
				return nil, ErrInsufficientBalance
			}
		}
	}

	state := eng.InitialState()
	m := &Match{
		Id:             uuid.New().String(),
		GameType:       challenge.GameType,
		Room:           challenge.Room,
		SideA:          challenge.SideA,
		SideB:          challenge.SideB,
		WagerCoins:     challenge.WagerCoins,
		WagerToken:     challenge.WagerToken,
		Status:         model.MatchActive,
		State:          state,
		TimeCreated:    time.Now(),
		turnStarted:    time.Now(),
		DeckCommitment: blockchain.DeckCommitment(state, uuid.New().String()),
	}

	r.mu.Lock()
	for _, p := range []Participant{challenge.SideA, challenge.SideB} {
		if _, taken := r.byPlayer[p.PlayerId]; taken {
			r.mu.Unlock()
			return nil, ErrAlreadyInMatch
		}
		if p.WalletAddress != "" {
			if _, taken := r.byWallet[p.WalletAddress]; taken {
				r.mu.Unlock()
				return nil, ErrAlreadyInMatch
			}
		}
	}
	r.matches[m.Id] = m
	r.bindLocked(m)
	r.mu.Unlock()

	record := r.recordFor(m)
	go func() {
		if err := r.gateway.SaveMatch(record); err != nil {
			log.Warn().Err(err).Msg("Failed to persist match " + m.Id)
		}
	}()
	r.notifyAll(m, EventMatchCreated)

	log.Info().Msg("Match " + m.Id + " created for game " + string(m.GameType))
	return m, nil
}

// PlayMove applies one action for one player. Moves for the same match
// are serialized by the match lock; the turn clock goes through the
// same path.
func (r *Registry) PlayMove(matchId string, playerId string, action engine.Action) (*MoveResult, error) {
	m, err := r.find(matchId)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	side, ok := m.sideOf(playerId)
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotInMatch
	}
	if m.Status != model.MatchActive {
		m.mu.Unlock()
		return nil, ErrMatchNotActive
	}

	terminal, err := r.applyLocked(m, side, action)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	result := &MoveResult{State: r.engines[m.GameType].Redact(m.State, side)}
	if terminal {
		outcome := engine.Outcome{Winner: m.Winner}
		result.Outcome = &outcome
	}
	m.mu.Unlock()

	r.afterApply(m, terminal)
	return result, nil
}

// applyLocked runs the engine and commits the transition. Caller holds
// m.mu and has checked the match is active.
func (r *Registry) applyLocked(m *Match, side engine.Side, action engine.Action) (terminal bool, err error) {
	eng := r.engines[m.GameType]
	tr, err := eng.Apply(m.State, side, action)
	if err != nil {
		return false, err
	}

	m.State = tr.State
	m.turnStarted = time.Now()
	m.cancelPendingLocked()

	if tr.Outcome != nil {
		m.Status = model.MatchComplete
		m.Winner = tr.Outcome.Winner
		now := time.Now()
		m.TimeEnded = &now
		return true, nil
	}

	if tr.Schedule != nil {
		r.scheduleLocked(m, *tr.Schedule)
	}
	return false, nil
}

func (r *Registry) scheduleLocked(m *Match, s engine.ScheduledAction) {
	seq := m.pendingSeq
	m.pending = time.AfterFunc(s.After, func() {
		r.applyScheduled(m.Id, seq, s.Side, s.Action)
	})
}

// applyScheduled is the delayed follow-up path. The sequence check
// drops timers that lost a race with a void or a terminal move.
func (r *Registry) applyScheduled(matchId string, seq int, side engine.Side, action engine.Action) {
	m, err := r.find(matchId)
	if err != nil {
		return
	}

	m.mu.Lock()
	if m.Status != model.MatchActive || m.pendingSeq != seq {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	terminal, err := r.applyLocked(m, side, action)
	m.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Msg("Scheduled action rejected for match " + matchId)
		return
	}
	r.afterApply(m, terminal)
}

// VoidMatch force-ends a match outside gameplay and refunds any token
// wager.
func (r *Registry) VoidMatch(matchId string, reason string) (*VoidInfo, error) {
	m, err := r.find(matchId)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.Status != model.MatchActive {
		m.mu.Unlock()
		return nil, ErrMatchNotActive
	}
	m.Status = model.MatchVoid
	now := time.Now()
	m.TimeEnded = &now
	m.cancelPendingLocked()
	wager := m.wager()
	m.mu.Unlock()

	r.release(m)
	r.persistEnd(m)
	r.notifyAll(m, EventMatchVoided)

	if !wager.Empty() {
		go r.settler.RefundVoid(context.Background(), m.Id, wager, reason)
	}

	log.Info().Msg("Match " + m.Id + " voided: " + reason)
	return &VoidInfo{MatchId: m.Id, Reason: reason, TokenRefund: !wager.Empty()}, nil
}

// GetMatchState returns the viewer projection. Participants get their
// redacted view, anyone else the spectator shape.
func (r *Registry) GetMatchState(matchId string, viewerId string) (*View, error) {
	m, err := r.find(matchId)
	if err != nil {
		return nil, err
	}

	eng := r.engines[m.GameType]

	m.mu.Lock()
	defer m.mu.Unlock()

	view := r.viewLocked(m)
	if side, ok := m.sideOf(viewerId); ok {
		view.State = eng.Redact(m.State, side)
	} else {
		view.State = eng.Spectate(m.State)
	}
	return view, nil
}

// ListActiveInRoom builds read-only spectator projections for a room.
func (r *Registry) ListActiveInRoom(room string) []*View {
	r.mu.RLock()
	var candidates []*Match
	for _, m := range r.matches {
		if m.Room == room {
			candidates = append(candidates, m)
		}
	}
	r.mu.RUnlock()

	views := make([]*View, 0, len(candidates))
	for _, m := range candidates {
		m.mu.Lock()
		if m.Status == model.MatchActive {
			view := r.viewLocked(m)
			view.State = r.engines[m.GameType].Spectate(m.State)
			views = append(views, view)
		}
		m.mu.Unlock()
	}
	return views
}

// ForceExpired is one turn clock sweep: every active match whose turn
// budget has elapsed gets a forced default action for each side still
// expected to act.
func (r *Registry) ForceExpired(timeout time.Duration) {
	r.mu.RLock()
	candidates := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		candidates = append(candidates, m)
	}
	r.mu.RUnlock()

	for _, m := range candidates {
		r.forceIfExpired(m, timeout)
	}
}

func (r *Registry) forceIfExpired(m *Match, timeout time.Duration) {
	eng := r.engines[m.GameType]

	m.mu.Lock()
	if m.Status != model.MatchActive || m.pending != nil || time.Since(m.turnStarted) < timeout {
		m.mu.Unlock()
		return
	}

	var terminal bool
	for _, side := range eng.PendingSides(m.State) {
		if m.Status != model.MatchActive {
			break
		}
		action := eng.ForcedDefault(m.State, side)
		t, err := r.applyLocked(m, side, action)
		if err != nil {
			log.Warn().Err(err).Msg("Forced default rejected for match " + m.Id)
			continue
		}
		log.Info().Msg("Forced default action applied for match " + m.Id + " side " + string(side))
		terminal = terminal || t
	}
	m.mu.Unlock()

	r.afterApply(m, terminal)
}

// afterApply runs the post-commit side effects. The match lock is
// released first so a slow mirror write or settlement call never blocks
// gameplay.
func (r *Registry) afterApply(m *Match, terminal bool) {
	if terminal {
		r.release(m)
		r.persistEnd(m)
		r.notifyAll(m, EventMatchEnded)
		r.settle(m)
		return
	}

	snapshot := m.snapshotJSON()
	go func() {
		err := r.gateway.UpdateMatch(m.Id, map[string]any{"state_snapshot": snapshot})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to mirror state for match " + m.Id)
		}
	}()
	r.notifyAll(m, EventMoveApplied)
}

func (r *Registry) settle(m *Match) {
	if m.WagerCoins > 0 {
		deltaA, deltaB := m.coinDeltas()
		go func() {
			patch := map[string]any{"coins_delta_a": deltaA, "coins_delta_b": deltaB}
			if err := r.gateway.UpdateMatch(m.Id, patch); err != nil {
				log.Warn().Err(err).Msg("Failed to mirror coin ledger for match " + m.Id)
			}
		}()
	}

	wager := m.wager()
	if wager.Empty() {
		return
	}

	go func() {
		if m.Winner != nil {
			winnerWallet := m.participant(*m.Winner).WalletAddress
			r.settler.Settle(context.Background(), m.Id, wager, winnerWallet)
			return
		}
		r.settler.RefundDraw(context.Background(), m.Id, wager)
	}()
}

// ActiveMatchFor resolves the player binding, if any.
func (r *Registry) ActiveMatchFor(playerId string) (string, bool) {
	r.mu.RLock()
	matchId, ok := r.byPlayer[playerId]
	r.mu.RUnlock()
	return matchId, ok
}

func (r *Registry) find(matchId string) (*Match, error) {
	r.mu.RLock()
	m, ok := r.matches[matchId]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

func (r *Registry) bindLocked(m *Match) {
	for _, p := range []Participant{m.SideA, m.SideB} {
		r.byPlayer[p.PlayerId] = m.Id
		if p.WalletAddress != "" {
			r.byWallet[p.WalletAddress] = m.Id
		}
	}
}

// release drops the identity bindings and the match itself. Called
// exactly once per match, on the transition out of active.
func (r *Registry) release(m *Match) {
	r.mu.Lock()
	for _, p := range []Participant{m.SideA, m.SideB} {
		if r.byPlayer[p.PlayerId] == m.Id {
			delete(r.byPlayer, p.PlayerId)
		}
		if p.WalletAddress != "" && r.byWallet[p.WalletAddress] == m.Id {
			delete(r.byWallet, p.WalletAddress)
		}
	}
	delete(r.matches, m.Id)
	r.mu.Unlock()
}

func (r *Registry) persistEnd(m *Match) {
	patch := map[string]any{
		"match_status":   m.Status,
		"time_ended":     m.TimeEnded,
		"state_snapshot": m.snapshotJSON(),
	}
	if m.Winner != nil {
		patch["winner_side"] = string(*m.Winner)
	}

	go func() {
		if err := r.gateway.UpdateMatch(m.Id, patch); err != nil {
			log.Warn().Err(err).Msg("Failed to mirror end state for match " + m.Id)
		}
	}()
}

func (r *Registry) notifyAll(m *Match, eventType string) {
	if r.notifier == nil {
		return
	}

	eng := r.engines[m.GameType]

	m.mu.Lock()
	viewA := r.viewLocked(m)
	viewA.State = eng.Redact(m.State, engine.SideA)
	viewB := r.viewLocked(m)
	viewB.State = eng.Redact(m.State, engine.SideB)
	spectator := r.viewLocked(m)
	spectator.State = eng.Spectate(m.State)
	playerA, playerB, room := m.SideA.PlayerId, m.SideB.PlayerId, m.Room
	m.mu.Unlock()

	r.notifier.PushToPlayer(playerA, Event{Type: eventType, MatchId: m.Id, Payload: viewA})
	r.notifier.PushToPlayer(playerB, Event{Type: eventType, MatchId: m.Id, Payload: viewB})
	r.notifier.BroadcastToRoom(room, Event{Type: eventType, MatchId: m.Id, Payload: spectator}, playerA, playerB)
}

func (r *Registry) viewLocked(m *Match) *View {
	view := &View{
		MatchId:    m.Id,
		GameType:   m.GameType,
		Room:       m.Room,
		Status:     m.Status,
		SideA:      m.SideA,
		SideB:      m.SideB,
		WagerCoins: m.WagerCoins,
		WagerToken: m.WagerToken,
		Winner:     m.Winner,
	}
	if m.Status == model.MatchActive {
		deadline := m.turnStarted.Add(r.turnTimeout)
		view.TurnDeadline = &deadline
	}
	return view
}

func (m *Match) snapshotJSON() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(utils.JsonEncode(m.State))
}

func (r *Registry) recordFor(m *Match) *model.MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := &model.MatchRecord{
		Id:             m.Id,
		GameType:       string(m.GameType),
		Room:           m.Room,
		PlayerAId:      m.SideA.PlayerId,
		PlayerBId:      m.SideB.PlayerId,
		PlayerAName:    m.SideA.DisplayName,
		PlayerBName:    m.SideB.DisplayName,
		WalletA:        m.SideA.WalletAddress,
		WalletB:        m.SideB.WalletAddress,
		WagerCoins:     m.WagerCoins,
		DeckCommitment: m.DeckCommitment,
		MatchStatus:    m.Status,
		StateSnapshot:  string(utils.JsonEncode(m.State)),
		TimeCreated:    m.TimeCreated,
		TimeEnded:      m.TimeEnded,
	}
	if m.WagerToken != nil {
		record.TokenAddress = m.WagerToken.Address
		record.TokenSymbol = m.WagerToken.Symbol
		record.TokenDecimals = m.WagerToken.Decimals
		record.TokenAmount = m.WagerToken.Amount
		record.TokenRawAmount = m.WagerToken.RawAmount
	}
	return record
}
