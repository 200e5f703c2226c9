package settlement

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/onflow/cadence"
	"github.com/onflow/flow-go-sdk"
	"github.com/onflow/flow-go-sdk/access/grpc"
	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/keymgmt"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/blockchain"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/pubsub"
	"github.com/spf13/viper"
)

// FlowBridge executes custodial transfers by handing signed commands to
// the blockchain worker over pub/sub. The command id is the transfer
// reference recorded on the settlement.
type FlowBridge struct {
	ready atomic.Bool
}

func NewFlowBridge() *FlowBridge {
	return &FlowBridge{}
}

// Bootstrap probes the admin signing key. Until it succeeds every
// settlement lands in manual review instead of silently failing.
func (fb *FlowBridge) Bootstrap(ctx context.Context) {
	if err := keymgmt.ProbeAdminKey(ctx); err != nil {
		log.Error().Err(err).Msg("Admin key probe failed, custodial transfers disabled")
		return
	}
	fb.ready.Store(true)
	log.Info().Msg("Custodial wallet ready")
}

func (fb *FlowBridge) IsReady() bool {
	return fb.ready.Load() && pubsub.Ready()
}

func (fb *FlowBridge) Payout(ctx context.Context, req PayoutRequest) (string, error) {
	cmd := blockchain.NewTokenCommand(blockchain.CommandTokenPayout, blockchain.TokenTransfer{
		TokenAddress:     req.TokenAddress,
		RawAmount:        req.RawAmount,
		RecipientAddress: req.WinnerWallet,
		MatchId:          req.MatchId,
	})
	if err := pubsub.PublishSync(ctx, cmd); err != nil {
		return "", err
	}
	return cmd.Id, nil
}

func (fb *FlowBridge) Refund(ctx context.Context, req RefundRequest) ([]string, error) {
	var refs []string
	var firstErr error

	for _, wallet := range []string{req.WalletA, req.WalletB} {
		cmd := blockchain.NewTokenCommand(blockchain.CommandTokenRefund, blockchain.TokenTransfer{
			TokenAddress:     req.TokenAddress,
			RawAmount:        req.RawAmount,
			RecipientAddress: wallet,
			MatchId:          req.MatchId,
		})
		if err := pubsub.PublishSync(ctx, cmd); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refs = append(refs, cmd.Id)
	}

	return refs, firstErr
}

// CanCover checks that a wallet's on-chain vault holds at least the
// wager amount before the match is allowed to start.
func (fb *FlowBridge) CanCover(address string, rawAmount uint64, decimals int) (bool, error) {
	balance, err := checkBalance(address)
	if err != nil {
		return false, err
	}

	bf, err := strconv.ParseFloat(balance, 64)
	if err != nil {
		return false, err
	}

	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}

	return uint64(bf*scale) >= rawAmount, nil
}

func checkBalance(address string) (string, error) {
	txCode := `
		import FungibleToken from 0xFUNGIBLE_TOKEN_ADDRESS
		import FlowToken from 0xFLOW_TOKEN_ADDRESS

		pub fun main(account: Address): UFix64 {

		let vaultRef = getAccount(account)
		.getCapability(/public/flowTokenBalance)
		.borrow<&FlowToken.Vault{FungibleToken.Balance}>()
		?? panic("Could not borrow Balance reference to the Vault")

		return vaultRef.balance
		}
		`

	addressTemplates := map[string]string{
		"0xFLOW_TOKEN_ADDRESS":     viper.Get("FLOW_TOKEN_ADDRESS").(string),
		"0xFUNGIBLE_TOKEN_ADDRESS": viper.Get("FUNGIBLE_TOKEN_ADDRESS").(string),
	}

	for k, v := range addressTemplates {
		txCode = strings.ReplaceAll(txCode, k, v)
	}

	c, err := grpc.NewClient(grpc.TestnetHost)
	if err != nil {
		return "", err
	}

	flowAddress := flow.HexToAddress(address)
	cadenceAddress := cadence.BytesToAddress(flowAddress.Bytes())

	args := []cadence.Value{cadence.Address(cadenceAddress)}

	balance, err := c.ExecuteScriptAtLatestBlock(context.Background(), []byte(txCode), args)
	if err != nil {
		return "", err
	}

	return balance.String(), nil
}
