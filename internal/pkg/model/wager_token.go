package model

// WagerToken describes the on-chain token staked by both sides.
// RawAmount is the fixed-point amount moved per deposit; Amount is the
// display value.
type WagerToken struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Decimals  int     `json:"decimals"`
	Amount    float64 `json:"amount"`
	RawAmount uint64  `json:"rawAmount"`
}
