package model

import (
	"time"
)

// MatchRecord is the best-effort durable mirror of an in-memory match.
// The registry is authoritative; rows here exist for history, recovery
// and audit.
type MatchRecord struct {
	Id             string `gorm:"primaryKey"`
	GameType       string
	Room           string
	PlayerAId      string
	PlayerBId      string
	PlayerAName    string
	PlayerBName    string
	WalletA        string
	WalletB        string
	WagerCoins     uint64
	CoinsDeltaA    int64
	CoinsDeltaB    int64
	TokenAddress   string
	TokenSymbol    string
	TokenDecimals  int
	TokenAmount    float64
	TokenRawAmount uint64
	DeckCommitment string
	MatchStatus    MatchStatus
	WinnerSide     *string
	StateSnapshot  string
	TimeCreated    time.Time
	TimeEnded      *time.Time
}

func (MatchRecord) TableName() string {
	return "match"
}
