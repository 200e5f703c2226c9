package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recoveryGateway struct {
	*settlementStore
	mu           sync.Mutex
	orphans      []model.MatchRecord
	scanErr      error
	matchPatches map[string]map[string]any
}

func newRecoveryGateway(orphans ...model.MatchRecord) *recoveryGateway {
	return &recoveryGateway{
		settlementStore: newSettlementStore(),
		orphans:         orphans,
		matchPatches:    make(map[string]map[string]any),
	}
}

func (g *recoveryGateway) SaveMatch(record *model.MatchRecord) error { return nil }

func (g *recoveryGateway) UpdateMatch(matchId string, patch map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.matchPatches[matchId] = patch
	return nil
}

func (g *recoveryGateway) FindOrphanedActive(olderThan time.Time) ([]model.MatchRecord, error) {
	return g.orphans, g.scanErr
}

func (g *recoveryGateway) ListFinished(page utils.PageRequest, playerId string) ([]model.MatchRecord, int64, error) {
	return nil, 0, nil
}

func (g *recoveryGateway) patchFor(matchId string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.matchPatches[matchId]
}

func tokenOrphan(id string) model.MatchRecord {
	return model.MatchRecord{
		Id:             id,
		GameType:       "UNO",
		MatchStatus:    model.MatchActive,
		TokenAddress:   "0xtoken",
		TokenSymbol:    "ARC",
		TokenRawAmount: 100,
		WalletA:        "0x01",
		WalletB:        "0x02",
	}
}

func coinOrphan(id string) model.MatchRecord {
	return model.MatchRecord{
		Id:          id,
		GameType:    "TICTACTOE",
		MatchStatus: model.MatchActive,
		WagerCoins:  50,
	}
}

func TestRecoveryMarksOrphansAbandoned(t *testing.T) {
	gateway := newRecoveryGateway(coinOrphan("m1"), tokenOrphan("m2"))
	wallet := &fakeCustodian{ready: true}
	scanner := NewRecoveryScanner(gateway, NewCoordinator(wallet, gateway))

	scanner.Run(context.Background())

	for _, id := range []string{"m1", "m2"} {
		patch := gateway.patchFor(id)
		require.NotNil(t, patch, id)
		assert.Equal(t, model.MatchAbandoned, patch["match_status"], id)
		assert.NotNil(t, patch["time_ended"], id)
	}
}

func TestRecoveryRefundsTokenOrphansOnly(t *testing.T) {
	gateway := newRecoveryGateway(coinOrphan("m1"), tokenOrphan("m2"))
	wallet := &fakeCustodian{ready: true}
	coordinator := NewCoordinator(wallet, gateway)
	scanner := NewRecoveryScanner(gateway, coordinator)

	scanner.Run(context.Background())

	require.Len(t, wallet.refunds, 1)
	assert.Equal(t, "m2", wallet.refunds[0].MatchId)
	assert.Equal(t, uint64(100), wallet.refunds[0].RawAmount)

	rec, ok := coordinator.Record("m2")
	require.True(t, ok)
	assert.Equal(t, model.SettlementRefunded, rec.SettlementStatus)

	_, ok = coordinator.Record("m1")
	assert.False(t, ok, "coin-only orphans carry no settlement record")
}

func TestRecoveryFailedRefundGoesToManualReview(t *testing.T) {
	gateway := newRecoveryGateway(tokenOrphan("m1"))
	wallet := &fakeCustodian{ready: true, refundErrAt: 2}
	coordinator := NewCoordinator(wallet, gateway)
	scanner := NewRecoveryScanner(gateway, coordinator)

	scanner.Run(context.Background())

	rec, ok := coordinator.Record("m1")
	require.True(t, ok)
	assert.Equal(t, model.SettlementManualReview, rec.SettlementStatus)
	assert.Contains(t, rec.TransferError, "orphan refund failed")
	assert.Contains(t, rec.TransferError, "wallet B transfer rejected")
	assert.Equal(t, "tx-a", rec.TxRefs, "the partial refund ref survives the review transition")
}

func TestRecoverySkipsAlreadySettledOrphan(t *testing.T) {
	gateway := newRecoveryGateway(tokenOrphan("m1"))
	require.NoError(t, gateway.SaveSettlement(&model.SettlementRecord{
		MatchId:          "m1",
		SettlementStatus: model.SettlementCompleted,
		TxRefs:           "tx-old",
		TimeUpdated:      time.Now().UTC(),
	}))
	wallet := &fakeCustodian{ready: true}
	coordinator := NewCoordinator(wallet, gateway)
	scanner := NewRecoveryScanner(gateway, coordinator)

	scanner.Run(context.Background())

	assert.Empty(t, wallet.refunds, "a wager settled in a prior lifetime is never refunded on top")

	rec, ok := coordinator.Record("m1")
	require.True(t, ok)
	assert.Equal(t, model.SettlementCompleted, rec.SettlementStatus)
	assert.Equal(t, "tx-old", rec.TxRefs)
	assert.Equal(t, model.SettlementCompleted, gateway.statusOf("m1"))

	// the lagging match row is still closed out
	patch := gateway.patchFor("m1")
	require.NotNil(t, patch)
	assert.Equal(t, model.MatchAbandoned, patch["match_status"])
}

func TestRecoveryScanErrorAbortsCleanly(t *testing.T) {
	gateway := newRecoveryGateway(tokenOrphan("m1"))
	gateway.scanErr = errors.New("db unavailable")
	wallet := &fakeCustodian{ready: true}
	scanner := NewRecoveryScanner(gateway, NewCoordinator(wallet, gateway))

	scanner.Run(context.Background())

	assert.Empty(t, gateway.matchPatches)
	assert.Empty(t, wallet.refunds)
}
