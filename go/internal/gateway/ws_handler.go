package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSHandler upgrades HTTP requests into room subscriptions.
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      Config
}

func NewWSHandler(hub *Hub, cfg Config) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.CheckOrigin,
		},
		cfg: cfg,
	}
}

// Handle upgrades the request and subscribes the resulting connection to
// room. Subscribers of room "game" receive the current snapshot right
// away, which doubles as the reconnection contract.
func (h *WSHandler) Handle(room string, w http.ResponseWriter, r *http.Request) {
	if room == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("websocket upgrade failed")
		return
	}

	c := &Connection{
		id:   uuid.New().String(),
		room: room,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBufferSize),
		done: make(chan struct{}),
		hub:  h.hub,
		cfg:  h.cfg,
	}

	h.hub.subscribe(c)
	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.id).
		Str("room", room).
		Str("remote", r.RemoteAddr).
		Msg("websocket connection established")
}
