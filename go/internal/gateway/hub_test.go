package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	handler := NewWSHandler(hub, DefaultConfig())
	r := chi.NewRouter()
	r.Get("/ws/{room}", func(w http.ResponseWriter, req *http.Request) {
		handler.Handle(chi.URLParam(req, "room"), w, req)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialRoom(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", room, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wireEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return env
}

func TestSubscribeToGameReceivesSnapshot(t *testing.T) {
	hub, srv := newTestHub(t)
	hub.SetSnapshotProvider(func() any {
		return map[string]int{"scoreHome": 3}
	})

	conn := dialRoom(t, srv, RoomGame)
	env := readEnvelope(t, conn)
	if env.Type != TypeState {
		t.Fatalf("first message type = %q, want state", env.Type)
	}
	var payload map[string]int
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["scoreHome"] != 3 {
		t.Errorf("snapshot payload = %v", payload)
	}
}

func TestFanOutPreservesOrder(t *testing.T) {
	hub, srv := newTestHub(t)

	c1 := dialRoom(t, srv, RoomDisplay)
	c2 := dialRoom(t, srv, RoomDisplay)
	waitFor(t, func() bool { return hub.RoomSize(RoomDisplay) == 2 })

	for i := 0; i < 5; i++ {
		hub.Publish(RoomDisplay, Envelope{Type: "showView", Payload: map[string]int{"i": i}})
	}

	for _, conn := range []*websocket.Conn{c1, c2} {
		for i := 0; i < 5; i++ {
			env := readEnvelope(t, conn)
			if env.Type != "showView" {
				t.Fatalf("type = %q, want showView", env.Type)
			}
			var payload map[string]int
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				t.Fatalf("payload: %v", err)
			}
			if payload["i"] != i {
				t.Fatalf("message %d arrived out of order: %v", i, payload)
			}
		}
	}
}

func TestRoomsAreIndependent(t *testing.T) {
	hub, srv := newTestHub(t)

	conn := dialRoom(t, srv, RoomPlayer)
	waitFor(t, func() bool { return hub.RoomSize(RoomPlayer) == 1 })

	hub.Publish(RoomDisplay, Envelope{Type: "showView"})
	hub.Publish(RoomPlayer, Envelope{Type: "toggle"})

	// The player subscriber must see only the player-room message.
	env := readEnvelope(t, conn)
	if env.Type != "toggle" {
		t.Fatalf("player room received %q", env.Type)
	}
}

func TestDisconnectRemovesSubscriber(t *testing.T) {
	hub, srv := newTestHub(t)

	conn := dialRoom(t, srv, RoomGame)
	waitFor(t, func() bool { return hub.RoomSize(RoomGame) == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.RoomSize(RoomGame) == 0 })

	// Publishing into the now-empty room must not panic or block.
	hub.Publish(RoomGame, Envelope{Type: TypeState})
}

func TestNotificationRoomNames(t *testing.T) {
	if got := NotificationsUserRoom(12); got != "notifications_user_12" {
		t.Errorf("NotificationsUserRoom(12) = %q", got)
	}
}

// newLocalConnection builds a subscriber without a socket so delivery can
// be observed straight off the send channel.
func newLocalConnection(hub *Hub, room string) *Connection {
	return &Connection{
		id:   "local-test",
		room: room,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
		hub:  hub,
	}
}

func recvEnvelope(t *testing.T, c *Connection) wireEnvelope {
	t.Helper()
	select {
	case data := <-c.send:
		var env wireEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered in time")
		return wireEnvelope{}
	}
}

func TestInitialSnapshotOrderedBehindBacklog(t *testing.T) {
	hub := NewHub()

	// Queue an older commit before the hub goroutine starts, then
	// subscribe while the newer snapshot is current.
	hub.Publish(RoomGame, Envelope{Type: TypeState, Payload: map[string]int{"scoreHome": 1}})
	hub.SetSnapshotProvider(func() any {
		return map[string]int{"scoreHome": 2}
	})

	c := newLocalConnection(hub, RoomGame)
	hub.subscribe(c)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	// The subscriber must never see the score go backwards: the queued
	// commit first, the subscription snapshot after it.
	want := []int{1, 2}
	for _, expected := range want {
		env := recvEnvelope(t, c)
		var payload map[string]int
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload["scoreHome"] != expected {
			t.Fatalf("scoreHome = %d, want %d", payload["scoreHome"], expected)
		}
	}
}

type slowMirror struct {
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (m *slowMirror) Publish(ctx context.Context, room string, data []byte) error {
	time.Sleep(m.delay)
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return nil
}

func (m *slowMirror) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestSlowMirrorDoesNotDelayFanOut(t *testing.T) {
	hub := NewHub()
	mirror := &slowMirror{delay: 500 * time.Millisecond}
	hub.SetMirror(mirror)

	c := newLocalConnection(hub, RoomDisplay)
	hub.subscribe(c)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	start := time.Now()
	hub.Publish(RoomDisplay, Envelope{Type: "showView", Payload: map[string]int{"i": 0}})
	hub.Publish(RoomDisplay, Envelope{Type: "showView", Payload: map[string]int{"i": 1}})
	recvEnvelope(t, c)
	recvEnvelope(t, c)

	// Both deliveries must land well inside a single mirror round-trip.
	if elapsed := time.Since(start); elapsed >= mirror.delay {
		t.Fatalf("fan-out took %v, blocked behind the mirror", elapsed)
	}

	// The mirror still sees every broadcast, just off the hot path.
	waitFor(t, func() bool { return mirror.callCount() == 2 })
}
