package match

import (
	"time"

	"github.com/rs/zerolog/log"
)

// TurnClock is the single global ticker guaranteeing liveness. Every
// tick it sweeps all active matches and forces a default action for any
// turn that has outlived its budget.
type TurnClock struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	stop     chan struct{}
}

func NewTurnClock(registry *Registry) *TurnClock {
	return &TurnClock{
		registry: registry,
		interval: time.Second,
		timeout:  30 * time.Second,
		stop:     make(chan struct{}),
	}
}

func (tc *TurnClock) Start() {
	log.Info().Msg("Turn clock started")
	go func() {
		ticker := time.NewTicker(tc.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tc.registry.ForceExpired(tc.timeout)
			case <-tc.stop:
				return
			}
		}
	}()
}

func (tc *TurnClock) Stop() {
	close(tc.stop)
}
