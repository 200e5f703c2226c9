package settlement

import (
	"context"
)

type PayoutRequest struct {
	MatchId      string `json:"matchId"`
	WinnerWallet string `json:"winnerWallet"`
	TokenAddress string `json:"tokenAddress"`
	RawAmount    uint64 `json:"rawAmount"`
}

type RefundRequest struct {
	MatchId      string `json:"matchId"`
	WalletA      string `json:"walletA"`
	WalletB      string `json:"walletB"`
	TokenAddress string `json:"tokenAddress"`
	RawAmount    uint64 `json:"rawAmount"`
}

// Custodian is the external custodial wallet capability that holds the
// pooled deposits and executes transfers on the engine's behalf.
type Custodian interface {
	// Payout moves both deposits to the winner in one transfer and
	// returns its reference.
	Payout(ctx context.Context, req PayoutRequest) (string, error)
	// Refund returns each side's deposit independently. Both transfers
	// are attempted even if the first fails; the refs of the transfers
	// that went through are returned alongside any error.
	Refund(ctx context.Context, req RefundRequest) ([]string, error)
	IsReady() bool
}

// Wager is the financial summary of a match handed to the coordinator.
type Wager struct {
	TokenAddress string
	TokenSymbol  string
	RawAmount    uint64
	WalletA      string
	WalletB      string
}

func (w Wager) Empty() bool {
	return w.TokenAddress == "" || w.RawAmount == 0
}
