package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Mirror re-publishes room traffic outside the process (see the events
// package). Failures are logged and never reach subscribers.
type Mirror interface {
	Publish(ctx context.Context, room string, data []byte) error
}

type broadcast struct {
	room string
	data []byte
	// target limits delivery to a single connection. Used for the initial
	// snapshot so it serializes behind broadcasts already queued.
	target *Connection
}

// Hub owns the per-room subscriber sets and fans every published message
// out to them. Publishing is decoupled from delivery through a buffered
// channel drained by a single goroutine, so a slow consumer can never
// block the state writer; a consumer whose send buffer fills up is
// dropped and must resubscribe.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Connection]struct{}

	broadcastCh chan broadcast
	mirrorCh    chan broadcast

	snapshotMu sync.RWMutex
	snapshot   func() any
	mirror     Mirror
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Connection]struct{}),
		broadcastCh: make(chan broadcast, 1024),
		mirrorCh:    make(chan broadcast, 1024),
	}
}

// SetSnapshotProvider installs the source of the current game snapshot,
// sent to every new subscriber of room "game" so clients never wait for
// the next mutation to see state.
func (h *Hub) SetSnapshotProvider(fn func() any) {
	h.snapshotMu.Lock()
	h.snapshot = fn
	h.snapshotMu.Unlock()
}

// SetMirror installs an optional out-of-process mirror for all traffic.
func (h *Hub) SetMirror(m Mirror) {
	h.snapshotMu.Lock()
	h.mirror = m
	h.snapshotMu.Unlock()
}

// Publish serializes message once and enqueues it for fan-out. Callers on
// the engine's write path enqueue while the state lock is held, so within
// a room subscribers observe messages in commit order.
func (h *Hub) Publish(room string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("failed to marshal broadcast")
		return
	}
	select {
	case h.broadcastCh <- broadcast{room: room, data: data}:
	default:
		log.Warn().Str("room", room).Msg("broadcast channel full, dropping message")
	}
}

// Run drains the broadcast channel until ctx is cancelled. Mirror traffic
// is drained by its own goroutine so a slow mirror never delays fan-out.
func (h *Hub) Run(ctx context.Context) {
	log.Info().Msg("hub started")
	go h.mirrorLoop(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hub shutting down")
			return
		case b := <-h.broadcastCh:
			h.fanOut(b)
		}
	}
}

func (h *Hub) mirrorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-h.mirrorCh:
			h.snapshotMu.RLock()
			mirror := h.mirror
			h.snapshotMu.RUnlock()
			if mirror == nil {
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := mirror.Publish(pubCtx, b.room, b.data); err != nil {
				log.Error().Err(err).Str("room", b.room).Msg("event mirror publish failed")
			}
			cancel()
		}
	}
}

func (h *Hub) fanOut(b broadcast) {
	var targets []*Connection
	if b.target != nil {
		targets = []*Connection{b.target}
	} else {
		h.mu.RLock()
		targets = make([]*Connection, 0, len(h.rooms[b.room]))
		for c := range h.rooms[b.room] {
			targets = append(targets, c)
		}
		h.mu.RUnlock()
	}

	for _, c := range targets {
		select {
		case c.send <- b.data:
		default:
			log.Warn().
				Str("connection_id", c.id).
				Str("room", c.room).
				Msg("connection send buffer full, closing connection")
			h.unsubscribe(c)
			c.close()
		}
	}

	// Targeted snapshots are resyncs, not new traffic; only room-wide
	// broadcasts are mirrored.
	if b.target != nil {
		return
	}
	h.snapshotMu.RLock()
	mirrored := h.mirror != nil
	h.snapshotMu.RUnlock()
	if mirrored {
		select {
		case h.mirrorCh <- b:
		default:
			log.Warn().Str("room", b.room).Msg("mirror queue full, dropping message")
		}
	}
}

func (h *Hub) subscribe(c *Connection) {
	h.mu.Lock()
	if h.rooms[c.room] == nil {
		h.rooms[c.room] = make(map[*Connection]struct{})
	}
	h.rooms[c.room][c] = struct{}{}
	total := len(h.rooms[c.room])
	h.mu.Unlock()

	log.Debug().
		Str("connection_id", c.id).
		Str("room", c.room).
		Int("subscribers", total).
		Msg("connection subscribed")

	if c.room != RoomGame {
		return
	}
	h.snapshotMu.RLock()
	fn := h.snapshot
	h.snapshotMu.RUnlock()
	if fn == nil {
		return
	}
	data, err := json.Marshal(Envelope{Type: TypeState, Payload: fn()})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal initial snapshot")
		return
	}
	// The snapshot goes through the broadcast queue so the new subscriber
	// observes it after any broadcasts already pending, never before.
	select {
	case h.broadcastCh <- broadcast{room: c.room, data: data, target: c}:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Msg("broadcast channel full, dropping initial snapshot")
	}
}

func (h *Hub) unsubscribe(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.rooms[c.room]; ok {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.rooms, c.room)
			}
			log.Debug().
				Str("connection_id", c.id).
				Str("room", c.room).
				Msg("connection unsubscribed")
		}
	}
}

// RoomSize reports the current subscriber count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
