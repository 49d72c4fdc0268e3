package gateway

import (
	"time"

	"github.com/rinkops/rinkd/go/internal/game"
)

// GameSink bridges the engine to room "game": every committed snapshot
// becomes a state envelope, every siren event a transient pulse.
type GameSink struct {
	Hub *Hub
}

var _ game.Sink = (*GameSink)(nil)

func (s *GameSink) StateChanged(snap game.Snapshot) {
	s.Hub.Publish(RoomGame, Envelope{Type: TypeState, Payload: snap})
}

func (s *GameSink) SirenPulse(at time.Time) {
	s.Hub.Publish(RoomGame, Envelope{Type: TypeSirenPulse, Payload: SirenPulsePayload{At: at.Unix()}})
}
