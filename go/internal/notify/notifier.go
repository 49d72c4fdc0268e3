// Package notify publishes notification envelopes to the notifications_*
// rooms. It is the boundary surface of the surrounding dashboard's
// notification system; the game engine itself never notifies.
package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rinkops/rinkd/go/internal/gateway"
)

// Notification is the wire shape delivered on notifications_* rooms.
type Notification struct {
	Type             string         `json:"type"`
	ID               string         `json:"id"`
	NotificationType string         `json:"notification_type"`
	Message          string         `json:"message"`
	Data             map[string]any `json:"data,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// Publisher is satisfied by *gateway.Hub.
type Publisher interface {
	Publish(room string, message any)
}

type Notifier struct {
	pub   Publisher
	clock clockwork.Clock
}

func New(pub Publisher, clock clockwork.Clock) *Notifier {
	return &Notifier{pub: pub, clock: clock}
}

// NotifyUser delivers to the user's private room.
func (n *Notifier) NotifyUser(userID int64, notificationType, message string, data map[string]any) {
	n.pub.Publish(gateway.NotificationsUserRoom(userID), n.build(notificationType, message, data))
}

// NotifyAll delivers to every subscriber of notifications_all.
func (n *Notifier) NotifyAll(notificationType, message string, data map[string]any) {
	n.pub.Publish(gateway.RoomNotificationsAll, n.build(notificationType, message, data))
}

func (n *Notifier) build(notificationType, message string, data map[string]any) Notification {
	return Notification{
		Type:             "notification",
		ID:               uuid.New().String(),
		NotificationType: notificationType,
		Message:          message,
		Data:             data,
		Timestamp:        n.clock.Now().UTC(),
	}
}
