package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/snowpoint-games/arcade-backend/internal/engine"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
	"github.com/snowpoint-games/arcade-backend/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu      sync.Mutex
	saved   []model.MatchRecord
	updates map[string][]map[string]any
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{updates: make(map[string][]map[string]any)}
}

func (g *fakeGateway) SaveMatch(record *model.MatchRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = append(g.saved, *record)
	return nil
}

func (g *fakeGateway) UpdateMatch(matchId string, patch map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates[matchId] = append(g.updates[matchId], patch)
	return nil
}

func (g *fakeGateway) FindOrphanedActive(olderThan time.Time) ([]model.MatchRecord, error) {
	return nil, nil
}

func (g *fakeGateway) SaveSettlement(record *model.SettlementRecord) error { return nil }

func (g *fakeGateway) UpdateSettlement(matchId string, patch map[string]any) error { return nil }

func (g *fakeGateway) GetSettlement(matchId string) (*model.SettlementRecord, error) {
	return nil, nil
}

func (g *fakeGateway) ListFinished(page utils.PageRequest, playerId string) ([]model.MatchRecord, int64, error) {
	return nil, 0, nil
}

// patchWith returns the first mirrored patch for the match carrying the
// given key, or nil while none has landed.
func (g *fakeGateway) patchWith(matchId string, key string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, patch := range g.updates[matchId] {
		if _, ok := patch[key]; ok {
			return patch
		}
	}
	return nil
}

type settleCall struct {
	kind         string
	matchId      string
	winnerWallet string
}

type fakeSettler struct {
	calls chan settleCall
}

func newFakeSettler() *fakeSettler {
	return &fakeSettler{calls: make(chan settleCall, 8)}
}

func (f *fakeSettler) Settle(ctx context.Context, matchId string, wager settlement.Wager, winnerWallet string) *model.SettlementRecord {
	f.calls <- settleCall{kind: "settle", matchId: matchId, winnerWallet: winnerWallet}
	return nil
}

func (f *fakeSettler) RefundDraw(ctx context.Context, matchId string, wager settlement.Wager) *model.SettlementRecord {
	f.calls <- settleCall{kind: "refundDraw", matchId: matchId}
	return nil
}

func (f *fakeSettler) RefundVoid(ctx context.Context, matchId string, wager settlement.Wager, reason string) *model.SettlementRecord {
	f.calls <- settleCall{kind: "refundVoid", matchId: matchId}
	return nil
}

func (f *fakeSettler) expectCall(t *testing.T) settleCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a settlement call")
		return settleCall{}
	}
}

func (f *fakeSettler) expectNone(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected settlement call %v", call)
	case <-time.After(50 * time.Millisecond):
	}
}

type roomBroadcast struct {
	room     string
	event    any
	excluded []string
}

type fakeNotifier struct {
	mu         sync.Mutex
	pushes     map[string][]any
	broadcasts []roomBroadcast
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{pushes: make(map[string][]any)}
}

func (f *fakeNotifier) PushToPlayer(playerId string, event any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes[playerId] = append(f.pushes[playerId], event)
}

func (f *fakeNotifier) BroadcastToRoom(room string, event any, excludePlayerIds ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, roomBroadcast{room: room, event: event, excluded: excludePlayerIds})
}

func (f *fakeNotifier) lastBroadcast() (roomBroadcast, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.broadcasts) == 0 {
		return roomBroadcast{}, false
	}
	return f.broadcasts[len(f.broadcasts)-1], true
}

type fakeBalance struct {
	insufficient map[string]bool
}

func (f *fakeBalance) CanCover(address string, rawAmount uint64, decimals int) (bool, error) {
	return !f.insufficient[address], nil
}

func newTestRegistry() (*Registry, *fakeGateway, *fakeSettler) {
	gateway := newFakeGateway()
	settler := newFakeSettler()
	r := NewRegistry(engine.NewCatalog(), gateway, nil, settler, nil)
	return r, gateway, settler
}

func tokenChallenge(gameType engine.GameType) Challenge {
	return Challenge{
		GameType: gameType,
		Room:     "plaza",
		SideA:    Participant{PlayerId: "p1", WalletAddress: "0x01", DisplayName: "One"},
		SideB:    Participant{PlayerId: "p2", WalletAddress: "0x02", DisplayName: "Two"},
		WagerToken: &model.WagerToken{
			Address:   "0xtoken",
			Symbol:    "ARC",
			Decimals:  8,
			Amount:    5,
			RawAmount: 500000000,
		},
	}
}

func coinChallenge(gameType engine.GameType) Challenge {
	c := tokenChallenge(gameType)
	c.WagerToken = nil
	c.WagerCoins = 100
	return c
}

func mark(cell int) engine.Action {
	return engine.Action{Kind: "mark", Cell: cell}
}

func TestCreateMatchEnforcesSingleBinding(t *testing.T) {
	r, _, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameTicTacToe))
	require.NoError(t, err)
	require.NotNil(t, m)

	// same player on either side is rejected
	second := coinChallenge(engine.GameConnect4)
	second.SideB = Participant{PlayerId: "p1", DisplayName: "One"}
	second.SideA = Participant{PlayerId: "p9", DisplayName: "Nine"}
	_, err = r.CreateMatch(second)
	assert.Equal(t, ErrAlreadyInMatch, err)

	// same wallet is rejected even under a fresh player id
	third := tokenChallenge(engine.GameConnect4)
	third.SideA = Participant{PlayerId: "p8", WalletAddress: "0x01", DisplayName: "Eight"}
	third.SideB = Participant{PlayerId: "p9", WalletAddress: "0x09", DisplayName: "Nine"}
	_, err = r.CreateMatch(third)
	assert.Equal(t, ErrAlreadyInMatch, err)

	matchId, bound := r.ActiveMatchFor("p1")
	assert.True(t, bound)
	assert.Equal(t, m.Id, matchId)
}

func TestCreateMatchUnknownGameType(t *testing.T) {
	r, _, _ := newTestRegistry()
	c := coinChallenge(engine.GameType("CHESS"))
	_, err := r.CreateMatch(c)
	assert.Equal(t, ErrUnknownGameType, err)
}

func TestCreateMatchChecksEscrowBalance(t *testing.T) {
	gateway := newFakeGateway()
	settler := newFakeSettler()
	balance := &fakeBalance{insufficient: map[string]bool{"0x02": true}}
	r := NewRegistry(engine.NewCatalog(), gateway, nil, settler, balance)

	_, err := r.CreateMatch(tokenChallenge(engine.GameTicTacToe))
	assert.Equal(t, ErrInsufficientBalance, err)

	// coin-only matches skip the balance check entirely
	_, err = r.CreateMatch(coinChallenge(engine.GameTicTacToe))
	assert.NoError(t, err)
}

func TestPlayMoveLifecycle(t *testing.T) {
	r, _, settler := newTestRegistry()

	m, err := r.CreateMatch(tokenChallenge(engine.GameTicTacToe))
	require.NoError(t, err)

	_, err = r.PlayMove(m.Id, "stranger", mark(0))
	assert.Equal(t, ErrNotInMatch, err)

	_, err = r.PlayMove("nope", "p1", mark(0))
	assert.Equal(t, ErrMatchNotFound, err)

	_, err = r.PlayMove(m.Id, "p2", mark(0))
	assert.Equal(t, engine.ErrNotYourTurn, err)

	// p1 runs the top row, p2 follows along the middle
	for _, move := range []struct {
		player string
		cell   int
	}{
		{"p1", 0}, {"p2", 3}, {"p1", 1}, {"p2", 4},
	} {
		_, err = r.PlayMove(m.Id, move.player, mark(move.cell))
		require.NoError(t, err)
	}
	settler.expectNone(t)

	result, err := r.PlayMove(m.Id, "p1", mark(2))
	require.NoError(t, err)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, engine.SideA, *result.Outcome.Winner)

	call := settler.expectCall(t)
	assert.Equal(t, "settle", call.kind)
	assert.Equal(t, m.Id, call.matchId)
	assert.Equal(t, "0x01", call.winnerWallet)

	// bindings released, match gone from the registry
	_, bound := r.ActiveMatchFor("p1")
	assert.False(t, bound)
	_, err = r.GetMatchState(m.Id, "p1")
	assert.Equal(t, ErrMatchNotFound, err)

	// both identities are free to start over
	_, err = r.CreateMatch(tokenChallenge(engine.GameUno))
	assert.NoError(t, err)
}

func TestDrawTriggersRefund(t *testing.T) {
	r, _, settler := newTestRegistry()

	m, err := r.CreateMatch(tokenChallenge(engine.GameTicTacToe))
	require.NoError(t, err)

	moves := []struct {
		player string
		cell   int
	}{
		{"p1", 0}, {"p2", 8}, {"p1", 4}, {"p2", 2},
		{"p1", 1}, {"p2", 3}, {"p1", 5}, {"p2", 7}, {"p1", 6},
	}
	for _, move := range moves {
		_, err = r.PlayMove(m.Id, move.player, mark(move.cell))
		require.NoError(t, err)
	}

	call := settler.expectCall(t)
	assert.Equal(t, "refundDraw", call.kind)
}

func TestCoinOnlyMatchSkipsSettlement(t *testing.T) {
	r, _, settler := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameTicTacToe))
	require.NoError(t, err)

	for _, move := range []struct {
		player string
		cell   int
	}{
		{"p1", 0}, {"p2", 3}, {"p1", 1}, {"p2", 4}, {"p1", 2},
	} {
		_, err = r.PlayMove(m.Id, move.player, mark(move.cell))
		require.NoError(t, err)
	}

	settler.expectNone(t)
}

func TestCoinWagerSettlesThroughLedgerMirror(t *testing.T) {
	r, gateway, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameTicTacToe))
	require.NoError(t, err)

	for _, move := range []struct {
		player string
		cell   int
	}{
		{"p1", 0}, {"p2", 3}, {"p1", 1}, {"p2", 4}, {"p1", 2},
	} {
		_, err = r.PlayMove(m.Id, move.player, mark(move.cell))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return gateway.patchWith(m.Id, "coins_delta_a") != nil
	}, 2*time.Second, 10*time.Millisecond, "the coin ledger patch must land")

	patch := gateway.patchWith(m.Id, "coins_delta_a")
	assert.Equal(t, int64(100), patch["coins_delta_a"], "winner gains the stake")
	assert.Equal(t, int64(-100), patch["coins_delta_b"], "loser forfeits the stake")
}

func TestRoomBroadcastExcludesParticipants(t *testing.T) {
	gateway := newFakeGateway()
	settler := newFakeSettler()
	notifier := newFakeNotifier()
	r := NewRegistry(engine.NewCatalog(), gateway, notifier, settler, nil)

	_, err := r.CreateMatch(coinChallenge(engine.GameTicTacToe))
	require.NoError(t, err)

	broadcast, ok := notifier.lastBroadcast()
	require.True(t, ok)
	assert.Equal(t, "plaza", broadcast.room)
	assert.ElementsMatch(t, []string{"p1", "p2"}, broadcast.excluded,
		"participants get their redacted push instead of the spectator event")

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.NotEmpty(t, notifier.pushes["p1"])
	assert.NotEmpty(t, notifier.pushes["p2"])
}

func TestVoidMatch(t *testing.T) {
	r, _, settler := newTestRegistry()

	m, err := r.CreateMatch(tokenChallenge(engine.GameUno))
	require.NoError(t, err)

	info, err := r.VoidMatch(m.Id, "opponent disconnected")
	require.NoError(t, err)
	assert.True(t, info.TokenRefund)
	assert.Equal(t, "opponent disconnected", info.Reason)

	call := settler.expectCall(t)
	assert.Equal(t, "refundVoid", call.kind)
	assert.Equal(t, m.Id, call.matchId)

	_, err = r.VoidMatch(m.Id, "again")
	assert.Equal(t, ErrMatchNotFound, err)

	_, bound := r.ActiveMatchFor("p1")
	assert.False(t, bound)
}

func TestGetMatchStateViews(t *testing.T) {
	r, _, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameUno))
	require.NoError(t, err)

	playerView, err := r.GetMatchState(m.Id, "p1")
	require.NoError(t, err)
	state := playerView.State.(map[string]any)
	_, hasHand := state["hand"]
	assert.True(t, hasHand, "participants see their own hand")
	require.NotNil(t, playerView.TurnDeadline)

	spectatorView, err := r.GetMatchState(m.Id, "onlooker")
	require.NoError(t, err)
	state = spectatorView.State.(map[string]any)
	_, hasHand = state["hand"]
	assert.False(t, hasHand, "spectators never see a hand")
}

func TestListActiveInRoom(t *testing.T) {
	r, _, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameConnect4))
	require.NoError(t, err)

	other := coinChallenge(engine.GameTicTacToe)
	other.Room = "arcade"
	other.SideA = Participant{PlayerId: "p5", DisplayName: "Five"}
	other.SideB = Participant{PlayerId: "p6", DisplayName: "Six"}
	_, err = r.CreateMatch(other)
	require.NoError(t, err)

	views := r.ListActiveInRoom("plaza")
	require.Len(t, views, 1)
	assert.Equal(t, m.Id, views[0].MatchId)

	assert.Len(t, r.ListActiveInRoom("arcade"), 1)
	assert.Empty(t, r.ListActiveInRoom("void"))
}

func TestForceExpiredAppliesDefaults(t *testing.T) {
	r, _, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameTicTacToe))
	require.NoError(t, err)

	// fresh turn: nothing forced
	r.ForceExpired(time.Hour)
	view, err := r.GetMatchState(m.Id, "p1")
	require.NoError(t, err)
	assert.Equal(t, engine.SideA, view.State.(*engine.TicTacToeState).Turn)

	// expired turn: side A is forced and the turn passes
	r.ForceExpired(0)
	view, err = r.GetMatchState(m.Id, "p1")
	require.NoError(t, err)
	state := view.State.(*engine.TicTacToeState)
	assert.Equal(t, engine.SideB, state.Turn)

	marks := 0
	for _, cell := range state.Board {
		if cell != "" {
			marks++
		}
	}
	assert.Equal(t, 1, marks)
}

func TestForceExpiredForcesAllPendingSides(t *testing.T) {
	r, _, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameCardJitsu))
	require.NoError(t, err)

	r.ForceExpired(0)

	// both sides were forced to select, so the round resolved into the
	// reveal pause
	view, err := r.GetMatchState(m.Id, "p1")
	require.NoError(t, err)
	state := view.State.(map[string]any)
	assert.Equal(t, engine.PhaseReveal, state["phase"])
}

func TestScheduledRevealAdvancesRound(t *testing.T) {
	r, _, _ := newTestRegistry()

	m, err := r.CreateMatch(coinChallenge(engine.GameCardJitsu))
	require.NoError(t, err)

	mm, err := r.find(m.Id)
	require.NoError(t, err)

	_, err = r.PlayMove(m.Id, "p1", engine.Action{Kind: "select", HandIndex: 0})
	require.NoError(t, err)
	_, err = r.PlayMove(m.Id, "p2", engine.Action{Kind: "select", HandIndex: 1})
	require.NoError(t, err)

	mm.mu.Lock()
	pending := mm.pending
	seq := mm.pendingSeq
	mm.mu.Unlock()

	require.NotNil(t, pending, "reveal pause must be scheduled")

	// fire the follow-up immediately instead of waiting out the delay
	pending.Stop()
	r.applyScheduled(m.Id, seq, "", engine.Action{Kind: "advanceRound"})

	view, err := r.GetMatchState(m.Id, "p1")
	require.NoError(t, err)
	state := view.State.(map[string]any)
	assert.Equal(t, engine.PhaseSelect, state["phase"])
	assert.Equal(t, 2, state["round"])
}

func TestVoidCancelsScheduledReveal(t *testing.T) {
	r, _, settler := newTestRegistry()

	m, err := r.CreateMatch(tokenChallenge(engine.GameCardJitsu))
	require.NoError(t, err)

	mm, err := r.find(m.Id)
	require.NoError(t, err)

	_, err = r.PlayMove(m.Id, "p1", engine.Action{Kind: "select", HandIndex: 0})
	require.NoError(t, err)
	_, err = r.PlayMove(m.Id, "p2", engine.Action{Kind: "select", HandIndex: 1})
	require.NoError(t, err)

	mm.mu.Lock()
	seq := mm.pendingSeq
	mm.mu.Unlock()

	_, err = r.VoidMatch(m.Id, "player left")
	require.NoError(t, err)

	// a late timer firing with the stale sequence is a no-op
	r.applyScheduled(m.Id, seq, "", engine.Action{Kind: "advanceRound"})

	call := settler.expectCall(t)
	assert.Equal(t, "refundVoid", call.kind)
}
