package events

import (
	"context"

	"github.com/google/uuid"
)

// Event topic constants
const (
	TopicSessionStarted  = "arena.session.started"
	TopicSessionEnded    = "arena.session.ended"
	TopicSessionTeardown = "arena.session.teardown"

	// Player lifecycle events
	TopicPlayerJoined           = "arena.player.joined"
	TopicPlayerDisconnected     = "arena.player.disconnected"
	TopicPlayerQuit             = "arena.player.quit"
	TopicPlayerReconnected      = "arena.player.reconnected"
	TopicPlayerReconnectExpired = "arena.player.reconnect_expired"
	TopicPlayerRewarded         = "arena.player.rewarded"

	// Free-form broadcast text from the session core.
	TopicBroadcast = "arena.broadcast"
)

// Event types

type SessionStarted struct {
	CodeName string `json:"code_name"`
	Players  int    `json:"players"`
}

type SessionEnded struct {
	CodeName string      `json:"code_name"`
	Winners  []uuid.UUID `json:"winners"`
}

// SessionTeardown is the final broadcast of a round, published by the
// end-of-game sequencer's teardown stage.
type SessionTeardown struct {
	CodeName string `json:"code_name"`
}

type PlayerJoined struct {
	PlayerID    uuid.UUID `json:"player_id"`
	Competitive bool      `json:"competitive"`
}

type PlayerDisconnected struct {
	PlayerID     uuid.UUID `json:"player_id"`
	WindowMillis int64     `json:"window_millis"`
}

type PlayerQuit struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type PlayerReconnected struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type PlayerReconnectExpired struct {
	PlayerID uuid.UUID `json:"player_id"`
}

// PlayerRewarded is published once per player by the reward stage.
type PlayerRewarded struct {
	PlayerID uuid.UUID `json:"player_id"`
	Coins    int       `json:"coins"`
	Kind     string    `json:"kind"`
	Stars    int       `json:"stars"`
}

type Broadcast struct {
	Text   string `json:"text"`
	Urgent bool   `json:"urgent"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
