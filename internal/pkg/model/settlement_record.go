package model

import (
	"time"
)

type SettlementStatus string

const (
	SettlementPending      SettlementStatus = "PENDING"
	SettlementProcessing   SettlementStatus = "PROCESSING"
	SettlementCompleted    SettlementStatus = "COMPLETED"
	SettlementRefunded     SettlementStatus = "REFUNDED"
	SettlementFailed       SettlementStatus = "FAILED"
	SettlementManualReview SettlementStatus = "MANUAL_REVIEW"
)

// SettlementRecord tracks the financial outcome of a wagered match.
// Transitions are one-directional toward a terminal status; a Completed
// or Refunded record never re-fires a transfer.
type SettlementRecord struct {
	MatchId          string `gorm:"primaryKey"`
	SettlementStatus SettlementStatus
	TxRefs           string
	TransferError    string
	TimeUpdated      time.Time
}

func (SettlementRecord) TableName() string {
	return "settlement"
}
