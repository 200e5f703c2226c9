package blockchain

import (
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/engine"
	"github.com/wealdtech/go-merkletree"
	keccak "github.com/wealdtech/go-merkletree/keccak256"
)

// DeckCommitment builds a merkle root over the initial card order of a
// match so the shuffle can be audited after the fact. Games without
// hidden card state commit to nothing.
func DeckCommitment(state engine.State, nonce string) string {
	leaves := deckLeaves(state, nonce)
	if len(leaves) == 0 {
		return ""
	}

	tree, err := merkletree.NewUsing(leaves, keccak.New(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to build deck commitment tree")
		return ""
	}

	return hex.EncodeToString(tree.Root())
}

func deckLeaves(state engine.State, nonce string) [][]byte {
	switch s := state.(type) {
	case *engine.UnoState:
		var leaves [][]byte
		for i, c := range s.A.Hand {
			leaves = append(leaves, unoLeaf("a", i, c, nonce))
		}
		for i, c := range s.B.Hand {
			leaves = append(leaves, unoLeaf("b", i, c, nonce))
		}
		for i, c := range s.DiscardPile {
			leaves = append(leaves, unoLeaf("d", i, c, nonce))
		}
		for i, c := range s.DrawPile {
			leaves = append(leaves, unoLeaf("p", i, c, nonce))
		}
		return leaves

	case *engine.CardJitsuState:
		var leaves [][]byte
		for i, c := range s.A.Hand {
			leaves = append(leaves, jitsuLeaf("a", i, c, nonce))
		}
		for i, c := range s.B.Hand {
			leaves = append(leaves, jitsuLeaf("b", i, c, nonce))
		}
		return leaves

	default:
		return nil
	}
}

func unoLeaf(zone string, index int, c engine.UnoCard, nonce string) []byte {
	return []byte(fmt.Sprintf("%s%v%v%v%v", zone, index, c.Color, c.Value, nonce))
}

func jitsuLeaf(zone string, index int, c engine.JitsuCard, nonce string) []byte {
	return []byte(fmt.Sprintf("%s%v%v%v%v", zone, index, c.Element, c.Power, nonce))
}
