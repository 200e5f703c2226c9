package match

import (
	"sync"
	"time"

	"github.com/snowpoint-games/arcade-backend/internal/engine"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/model"
	"github.com/snowpoint-games/arcade-backend/internal/settlement"
)

type Participant struct {
	PlayerId      string `json:"playerId"`
	WalletAddress string `json:"walletAddress,omitempty"`
	DisplayName   string `json:"displayName"`
	AppearanceRef string `json:"appearanceRef,omitempty"`
}

// Challenge is the accepted matchmaking handshake a match starts from.
type Challenge struct {
	GameType   engine.GameType   `json:"gameType"`
	Room       string            `json:"room"`
	SideA      Participant       `json:"sideA"`
	SideB      Participant       `json:"sideB"`
	WagerCoins uint64            `json:"wagerCoins"`
	WagerToken *model.WagerToken `json:"wagerToken,omitempty"`
}

// Match is the aggregate root. The registry is the only writer; all
// mutation happens under mu.
type Match struct {
	Id             string
	GameType       engine.GameType
	Room           string
	SideA          Participant
	SideB          Participant
	WagerCoins     uint64
	WagerToken     *model.WagerToken
	DeckCommitment string
	Status         model.MatchStatus
	State          engine.State
	Winner         *engine.Side
	TimeCreated    time.Time
	TimeEnded      *time.Time

	mu          sync.Mutex
	turnStarted time.Time
	pending     *time.Timer
	pendingSeq  int
}

func (m *Match) participant(side engine.Side) Participant {
	if side == engine.SideA {
		return m.SideA
	}
	return m.SideB
}

func (m *Match) sideOf(playerId string) (engine.Side, bool) {
	switch playerId {
	case m.SideA.PlayerId:
		return engine.SideA, true
	case m.SideB.PlayerId:
		return engine.SideB, true
	}
	return "", false
}

func (m *Match) wager() settlement.Wager {
	if m.WagerToken == nil {
		return settlement.Wager{}
	}
	return settlement.Wager{
		TokenAddress: m.WagerToken.Address,
		TokenSymbol:  m.WagerToken.Symbol,
		RawAmount:    m.WagerToken.RawAmount,
		WalletA:      m.SideA.WalletAddress,
		WalletB:      m.SideB.WalletAddress,
	}
}

// coinDeltas is the coin ledger movement for a finished match. The
// winner takes the loser's stake; a draw moves nothing.
func (m *Match) coinDeltas() (int64, int64) {
	stake := int64(m.WagerCoins)
	if m.Winner == nil {
		return 0, 0
	}
	if *m.Winner == engine.SideA {
		return stake, -stake
	}
	return -stake, stake
}

// cancelPendingLocked stops any scheduled follow-up and invalidates its
// sequence number so a timer that already fired becomes a no-op.
func (m *Match) cancelPendingLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.pendingSeq++
}

// VoidInfo is the acknowledgement returned by a forced void.
type VoidInfo struct {
	MatchId     string `json:"matchId"`
	Reason      string `json:"reason"`
	TokenRefund bool   `json:"tokenRefund"`
}

// View is the per-viewer projection of a match. State holds the
// engine's redacted or spectator shape.
type View struct {
	MatchId      string            `json:"matchId"`
	GameType     engine.GameType   `json:"gameType"`
	Room         string            `json:"room"`
	Status       model.MatchStatus `json:"status"`
	SideA        Participant       `json:"sideA"`
	SideB        Participant       `json:"sideB"`
	WagerCoins   uint64            `json:"wagerCoins"`
	WagerToken   *model.WagerToken `json:"wagerToken,omitempty"`
	Winner       *engine.Side      `json:"winner,omitempty"`
	TurnDeadline *time.Time        `json:"turnDeadline,omitempty"`
	State        any               `json:"state"`
}

// MoveResult is returned synchronously from a successful move.
type MoveResult struct {
	Outcome *engine.Outcome `json:"outcome,omitempty"`
	State   any             `json:"state"`
}

// Event is the envelope pushed over the notification hub.
type Event struct {
	Type    string `json:"type"`
	MatchId string `json:"matchId"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventMatchCreated = "MATCH_CREATED"
	EventMoveApplied  = "MOVE_APPLIED"
	EventMatchEnded   = "MATCH_ENDED"
	EventMatchVoided  = "MATCH_VOIDED"
)
