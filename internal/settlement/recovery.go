package settlement

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/persist"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
)

const recoveryGraceWindow = 5 * time.Minute

// RecoveryScanner runs once at process start, after persistence and the
// custodial wallet are ready. Matches still persisted as active from a
// prior process lifetime are voided and, when wagered, refunded.
type RecoveryScanner struct {
	gateway     persist.Gateway
	coordinator *Coordinator
	grace       time.Duration
}

func NewRecoveryScanner(gateway persist.Gateway, coordinator *Coordinator) *RecoveryScanner {
	return &RecoveryScanner{
		gateway:     gateway,
		coordinator: coordinator,
		grace:       recoveryGraceWindow,
	}
}

func (r *RecoveryScanner) Run(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.grace)
	orphans, err := r.gateway.FindOrphanedActive(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Recovery scan cannot load orphaned matches")
		return
	}
	if len(orphans) == 0 {
		log.Info().Msg("Recovery scan found no orphaned matches")
		return
	}

	log.Info().Int("count", len(orphans)).Msg("Recovery scan resolving orphaned matches")

	for _, orphan := range orphans {
		now := time.Now().UTC()
		patch := map[string]any{
			"match_status": model.MatchAbandoned,
			"time_ended":   now,
		}
		if err := r.gateway.UpdateMatch(orphan.Id, patch); err != nil {
			log.Warn().Err(err).Msg("Cannot mark orphaned match abandoned: " + orphan.Id)
		}

		if orphan.TokenAddress == "" || orphan.TokenRawAmount == 0 {
			continue
		}

		wager := Wager{
			TokenAddress: orphan.TokenAddress,
			TokenSymbol:  orphan.TokenSymbol,
			RawAmount:    orphan.TokenRawAmount,
			WalletA:      orphan.WalletA,
			WalletB:      orphan.WalletB,
		}
		rec := r.coordinator.RefundVoid(ctx, orphan.Id, wager, "orphaned at startup")
		if rec == nil {
			continue
		}
		switch rec.SettlementStatus {
		case model.SettlementRefunded, model.SettlementCompleted:
			// already resolved in a prior lifetime; only the match row lagged
		case model.SettlementManualReview:
			log.Warn().Str("matchId", orphan.Id).Msg("Orphaned match already flagged for manual review")
		default:
			// not retried inline; surfaced for an operator instead
			r.coordinator.MarkManualReview(orphan.Id, "orphan refund failed: "+rec.TransferError)
			log.Error().
				Str("matchId", orphan.Id).
				Str("error", rec.TransferError).
				Msg("Orphaned match refund needs manual review")
		}
	}
}
