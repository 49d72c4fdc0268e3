package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Ticker drives the engine at 1 Hz. It runs independently of request
// handling; command bursts only delay a tick by however long they hold the
// engine lock.
type Ticker struct {
	engine *Engine
	clock  clockwork.Clock
}

func NewTicker(engine *Engine, clock clockwork.Clock) *Ticker {
	return &Ticker{engine: engine, clock: clock}
}

// Run blocks until ctx is cancelled, ticking the engine once per second.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	log.Info().Msg("game ticker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("game ticker stopped")
			return
		case <-ticker.Chan():
			t.engine.Tick()
		}
	}
}
