package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Notifier publishes session lifecycle notifications to the event bus. It is
// the transport-backed implementation of the session's notifier collaborator;
// rendering of any broadcast text is left to subscribers.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
	code   string
}

// NewNotifier returns a notifier that publishes lifecycle events for the
// session identified by codeName.
func NewNotifier(pub Publisher, codeName string, logger *slog.Logger) *Notifier {
	return &Notifier{pub: pub, logger: logger, code: codeName}
}

func (n *Notifier) publish(topic string, event any) {
	if err := n.pub.Publish(context.Background(), topic, event); err != nil {
		n.logger.Error("lifecycle publish failed", "topic", topic, "err", err)
	}
}

func (n *Notifier) GameStarted(players int) {
	n.publish(TopicSessionStarted, SessionStarted{CodeName: n.code, Players: players})
}

func (n *Notifier) PlayerJoined(id uuid.UUID, competitive bool) {
	n.publish(TopicPlayerJoined, PlayerJoined{PlayerID: id, Competitive: competitive})
}

func (n *Notifier) PlayerDisconnected(id uuid.UUID, window time.Duration) {
	n.publish(TopicPlayerDisconnected, PlayerDisconnected{PlayerID: id, WindowMillis: window.Milliseconds()})
}

func (n *Notifier) PlayerQuit(id uuid.UUID) {
	n.publish(TopicPlayerQuit, PlayerQuit{PlayerID: id})
}

func (n *Notifier) PlayerReconnected(id uuid.UUID) {
	n.publish(TopicPlayerReconnected, PlayerReconnected{PlayerID: id})
}

func (n *Notifier) ReconnectExpired(id uuid.UUID) {
	n.publish(TopicPlayerReconnectExpired, PlayerReconnectExpired{PlayerID: id})
}

func (n *Notifier) RoundEnded() {
	n.publish(TopicSessionTeardown, SessionTeardown{CodeName: n.code})
}

func (n *Notifier) Custom(text string, urgent bool) {
	n.publish(TopicBroadcast, Broadcast{Text: text, Urgent: urgent})
}
