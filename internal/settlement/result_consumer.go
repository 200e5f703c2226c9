package settlement

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/pubsub"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/utils"
)

const transferResultSubscription = "blockchain.flow.command-results-sub"

// TransferResult is the blockchain worker's verdict on a token command
// it executed on chain.
type TransferResult struct {
	CommandId string `json:"commandId"`
	MatchId   string `json:"matchId"`
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

// ListenForTransferResults wires the command-result subscription into
// the coordinator so on-chain failures surface on the settlement record
// instead of getting lost after the broker acknowledgement.
func ListenForTransferResults(coordinator *Coordinator) {
	go pubsub.Subscribe(pubsub.SubscriptionHandler{
		SubscriptionId: transferResultSubscription,
		Handler:        coordinator.handleTransferResult,
	})
}

func (c *Coordinator) handleTransferResult(_ context.Context, message *gcppubsub.Message) {
	log.Info().Msg("Received message payload " + string(message.Data))
	result, err := utils.JsonDecodeByteStream[TransferResult](message.Data)
	if err != nil {
		log.Warn().Err(err).Msg("Error while parsing TransferResult message")
		return
	}
	message.Ack()

	c.ResolveTransferResult(*result)
}

// ResolveTransferResult applies the worker's verdict. The broker ack is
// the optimistic commit point, so a failure report is the one signal
// allowed to pull a settled record back in front of an operator.
func (c *Coordinator) ResolveTransferResult(result TransferResult) {
	if result.Succeeded {
		return
	}

	c.mu.Lock()
	if _, tracked := c.loadLocked(result.MatchId); !tracked {
		c.mu.Unlock()
		log.Warn().
			Str("matchId", result.MatchId).
			Str("commandId", result.CommandId).
			Msg("Transfer failure reported for an unknown settlement")
		return
	}
	c.mu.Unlock()

	cause := "transfer " + result.CommandId + " failed on chain: " + result.Error
	c.finish(result.MatchId, model.SettlementManualReview, nil, cause)
	log.Error().
		Str("matchId", result.MatchId).
		Str("commandId", result.CommandId).
		Msg("Settlement transfer failed on chain")
}
