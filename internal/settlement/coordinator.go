package settlement

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/persist"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
)

const walletNotReady = "custodial wallet not ready"

// Coordinator drives escrow release for terminal matches. It is
// idempotent under retry: a record that already reached Completed or
// Refunded returns the cached result and never re-fires a transfer.
type Coordinator struct {
	mu      sync.Mutex
	records map[string]*model.SettlementRecord
	wallet  Custodian
	gateway persist.Gateway
}

func NewCoordinator(wallet Custodian, gateway persist.Gateway) *Coordinator {
	return &Coordinator{
		records: make(map[string]*model.SettlementRecord),
		wallet:  wallet,
		gateway: gateway,
	}
}

// Settle pays the winner both deposits in a single custodial transfer.
// No-op for coin-only matches.
func (c *Coordinator) Settle(ctx context.Context, matchId string, wager Wager, winnerWallet string) *model.SettlementRecord {
	if wager.Empty() {
		return nil
	}
	rec, proceed := c.begin(matchId)
	if !proceed {
		return rec
	}
	if !c.wallet.IsReady() {
		return c.finish(matchId, model.SettlementManualReview, nil, walletNotReady)
	}

	txRef, err := c.wallet.Payout(ctx, PayoutRequest{
		MatchId:      matchId,
		WinnerWallet: winnerWallet,
		TokenAddress: wager.TokenAddress,
		RawAmount:    2 * wager.RawAmount,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Payout failed for match " + matchId)
		return c.finish(matchId, model.SettlementFailed, nil, err.Error())
	}
	return c.finish(matchId, model.SettlementCompleted, []string{txRef}, "")
}

// RefundDraw returns each deposit to its owner after a drawn match.
func (c *Coordinator) RefundDraw(ctx context.Context, matchId string, wager Wager) *model.SettlementRecord {
	return c.refund(ctx, matchId, wager, "draw")
}

// RefundVoid returns each deposit after an externally forced void.
func (c *Coordinator) RefundVoid(ctx context.Context, matchId string, wager Wager, reason string) *model.SettlementRecord {
	return c.refund(ctx, matchId, wager, reason)
}

func (c *Coordinator) refund(ctx context.Context, matchId string, wager Wager, reason string) *model.SettlementRecord {
	if wager.Empty() {
		return nil
	}
	rec, proceed := c.begin(matchId)
	if !proceed {
		return rec
	}
	if !c.wallet.IsReady() {
		return c.finish(matchId, model.SettlementManualReview, nil, walletNotReady)
	}

	txRefs, err := c.wallet.Refund(ctx, RefundRequest{
		MatchId:      matchId,
		WalletA:      wager.WalletA,
		WalletB:      wager.WalletB,
		TokenAddress: wager.TokenAddress,
		RawAmount:    wager.RawAmount,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Refund failed for match " + matchId + " (" + reason + ")")
		return c.finish(matchId, model.SettlementFailed, txRefs, err.Error())
	}
	return c.finish(matchId, model.SettlementRefunded, txRefs, "")
}

// MarkManualReview flags a record for operator resolution. A wager must
// never vanish from tracking, and a record that already reached
// Completed or Refunded stays there.
func (c *Coordinator) MarkManualReview(matchId string, cause string) *model.SettlementRecord {
	c.mu.Lock()
	rec, tracked := c.loadLocked(matchId)
	if tracked {
		switch rec.SettlementStatus {
		case model.SettlementCompleted, model.SettlementRefunded:
			cached := *rec
			c.mu.Unlock()
			return &cached
		}
	} else if rec != nil {
		// mirror read failed; leave the durable record untouched
		c.mu.Unlock()
		return rec
	} else {
		rec = c.createLocked(matchId)
		c.save(rec)
	}
	c.mu.Unlock()
	return c.finish(matchId, model.SettlementManualReview, nil, cause)
}

// Record returns the current settlement state for a match, if any.
func (c *Coordinator) Record(matchId string) (model.SettlementRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[matchId]
	if !ok {
		return model.SettlementRecord{}, false
	}
	return *rec, true
}

// begin claims the record for processing. Returns proceed=false with the
// cached record when the settlement already reached a terminal status,
// is under manual review, or is currently in flight. The durable mirror
// is consulted before any transfer fires so a record from a prior
// process lifetime is never settled twice.
func (c *Coordinator) begin(matchId string) (*model.SettlementRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, tracked := c.loadLocked(matchId)
	if !tracked && rec != nil {
		// the durable state is unknown; refusing to transfer beats
		// risking a double payout
		return rec, false
	}
	if tracked {
		switch rec.SettlementStatus {
		case model.SettlementPending, model.SettlementFailed:
			// retryable
		default:
			cached := *rec
			return &cached, false
		}
	} else {
		rec = c.createLocked(matchId)
	}

	rec.SettlementStatus = model.SettlementProcessing
	rec.TimeUpdated = time.Now().UTC()
	if tracked {
		c.mirror(matchId, map[string]any{"settlement_status": rec.SettlementStatus})
	} else {
		c.save(rec)
	}
	return rec, true
}

// loadLocked resolves the tracked record, reading through to the
// durable mirror when this process has not seen the match yet. Caller
// holds c.mu. A non-nil record with tracked=false signals a mirror read
// failure.
func (c *Coordinator) loadLocked(matchId string) (*model.SettlementRecord, bool) {
	if rec, ok := c.records[matchId]; ok {
		return rec, true
	}

	persisted, err := c.gateway.GetSettlement(matchId)
	if err != nil {
		log.Warn().Err(err).Msg("Cannot load settlement record for match " + matchId)
		return &model.SettlementRecord{
			MatchId:          matchId,
			SettlementStatus: model.SettlementPending,
			TimeUpdated:      time.Now().UTC(),
		}, false
	}
	if persisted == nil {
		return nil, false
	}

	rec := *persisted
	c.records[matchId] = &rec
	return &rec, true
}

func (c *Coordinator) createLocked(matchId string) *model.SettlementRecord {
	rec := &model.SettlementRecord{
		MatchId:          matchId,
		SettlementStatus: model.SettlementPending,
		TimeUpdated:      time.Now().UTC(),
	}
	c.records[matchId] = rec
	return rec
}

func (c *Coordinator) finish(matchId string, status model.SettlementStatus, txRefs []string, transferError string) *model.SettlementRecord {
	c.mu.Lock()
	rec := c.records[matchId]
	rec.SettlementStatus = status
	if txRefs != nil {
		rec.TxRefs = strings.Join(txRefs, ",")
	}
	rec.TransferError = transferError
	rec.TimeUpdated = time.Now().UTC()
	result := *rec
	c.mu.Unlock()

	c.mirror(matchId, map[string]any{
		"settlement_status": status,
		"tx_refs":           result.TxRefs,
		"transfer_error":    transferError,
		"time_updated":      result.TimeUpdated,
	})

	log.Info().
		Str("matchId", matchId).
		Str("status", string(status)).
		Msg("Settlement transition")
	return &result
}

// mirror and save run inline: settlement calls already sit off the
// gameplay path, and the durable record must never see writes land out
// of order.
func (c *Coordinator) mirror(matchId string, patch map[string]any) {
	if err := c.gateway.UpdateSettlement(matchId, patch); err != nil {
		log.Warn().Err(err).Msg("Cannot mirror settlement update for match " + matchId)
	}
}

func (c *Coordinator) save(rec *model.SettlementRecord) {
	if err := c.gateway.SaveSettlement(rec); err != nil {
		log.Warn().Err(err).Msg("Cannot mirror settlement record for match " + rec.MatchId)
	}
}
