package gateway

import "fmt"

// Room names. Rooms are independent namespaces with independent payload
// schemas; the hub mechanics are identical across them.
const (
	RoomGame    = "game"
	RoomControl = "control"
	RoomDisplay = "display"
	RoomPlayer  = "player"

	RoomNotificationsAll = "notifications_all"
)

// NotificationsUserRoom names the per-user notification room.
func NotificationsUserRoom(userID int64) string {
	return fmt.Sprintf("notifications_user_%d", userID)
}

// Envelope is the server→client message shape shared by all rooms.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Message types on room "game". Other rooms carry command-style types
// chosen by the publisher (showView, setVolume, playJingle, ...).
const (
	TypeState      = "state"
	TypeSirenPulse = "sirenPulse"
)

// SirenPulsePayload timestamps a siren event. Pulses are transient: they
// are never part of a snapshot, so late joiners cannot replay them.
type SirenPulsePayload struct {
	At int64 `json:"at"`
}
