package blockchain

import "github.com/google/uuid"

const (
	CommandTokenPayout = "TOKEN_PAYOUT"
	CommandTokenRefund = "TOKEN_REFUND"
)

type Authorizer struct {
	KmsResourceId        string `json:"kmsResourceId"`
	ResourceOwnerAddress string `json:"resourceOwnerAddress"`
}

type Command struct {
	Id          string       `json:"id"`
	Type        string       `json:"type"`
	Payload     []any        `json:"payload"`
	Authorizers []Authorizer `json:"authorizers"`
}

func (bc Command) GetEventTopicName() string {
	return "blockchain.flow.commands"
}

func NewBlockchainCommand(commandType string, payload []any, authorizers []Authorizer) Command {
	return Command{
		Id:          uuid.New().String(),
		Type:        commandType,
		Payload:     payload,
		Authorizers: authorizers,
	}
}

type TokenTransfer struct {
	TokenAddress     string `json:"tokenAddress"`
	TokenSymbol      string `json:"tokenSymbol"`
	RawAmount        uint64 `json:"rawAmount"`
	RecipientAddress string `json:"recipientAddress"`
	MatchId          string `json:"matchId"`
}

// NewTokenCommand wraps a single escrow transfer into a command signed
// by the admin authorizer. The command id doubles as the transfer
// reference stored on the settlement record.
func NewTokenCommand(commandType string, transfer TokenTransfer) Command {
	return NewBlockchainCommand(commandType, []any{transfer}, []Authorizer{GetAdminAuthorizer()})
}
