package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// Fabric topics carry player movement announced by the surrounding network
// fabric. The intake applies them to the local session; the HTTP API covers
// the same operations for operator tooling.
const (
	TopicFabricJoin      = "arena.fabric.join"
	TopicFabricLeave     = "arena.fabric.leave"
	TopicFabricReconnect = "arena.fabric.reconnect"
	TopicFabricExpire    = "arena.fabric.expire"
)

// FabricPlayer is the payload of every fabric topic.
type FabricPlayer struct {
	PlayerID  uuid.UUID `json:"player_id"`
	Moderator bool      `json:"moderator,omitempty"`
}

// SessionOps is the slice of the session the intake drives.
type SessionOps interface {
	AdmitPlayer(id uuid.UUID)
	AdmitModerator(id uuid.UUID)
	RemovePlayer(id uuid.UUID)
	Reconnect(id uuid.UUID) error
	ReconnectTimeout(id uuid.UUID, silent bool) error
}

// Intake consumes fabric announcements from the event bus and applies them
// to the session.
type Intake struct {
	sub    Subscriber
	ops    SessionOps
	logger *slog.Logger
}

// NewIntake creates an intake over the given subscriber.
func NewIntake(sub Subscriber, ops SessionOps, logger *slog.Logger) *Intake {
	return &Intake{sub: sub, ops: ops, logger: logger}
}

// Run consumes fabric topics until ctx is cancelled. Malformed payloads are
// logged and dropped.
func (i *Intake) Run(ctx context.Context) error {
	joins, cancelJoins, err := i.sub.Subscribe(TopicFabricJoin)
	if err != nil {
		return err
	}
	defer cancelJoins()

	leaves, cancelLeaves, err := i.sub.Subscribe(TopicFabricLeave)
	if err != nil {
		return err
	}
	defer cancelLeaves()

	reconnects, cancelReconnects, err := i.sub.Subscribe(TopicFabricReconnect)
	if err != nil {
		return err
	}
	defer cancelReconnects()

	expiries, cancelExpiries, err := i.sub.Subscribe(TopicFabricExpire)
	if err != nil {
		return err
	}
	defer cancelExpiries()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-joins:
			if p, ok := i.decode(TopicFabricJoin, data); ok {
				if p.Moderator {
					i.ops.AdmitModerator(p.PlayerID)
				} else {
					i.ops.AdmitPlayer(p.PlayerID)
				}
			}
		case data := <-leaves:
			if p, ok := i.decode(TopicFabricLeave, data); ok {
				i.ops.RemovePlayer(p.PlayerID)
			}
		case data := <-reconnects:
			if p, ok := i.decode(TopicFabricReconnect, data); ok {
				if err := i.ops.Reconnect(p.PlayerID); err != nil {
					i.logger.Warn("fabric reconnect rejected", "player", p.PlayerID, "err", err)
				}
			}
		case data := <-expiries:
			if p, ok := i.decode(TopicFabricExpire, data); ok {
				if err := i.ops.ReconnectTimeout(p.PlayerID, false); err != nil {
					i.logger.Warn("fabric expiry rejected", "player", p.PlayerID, "err", err)
				}
			}
		}
	}
}

func (i *Intake) decode(topic string, data []byte) (FabricPlayer, bool) {
	var p FabricPlayer
	if err := json.Unmarshal(data, &p); err != nil {
		i.logger.Warn("fabric payload malformed", "topic", topic, "err", err)
		return FabricPlayer{}, false
	}
	if p.PlayerID == uuid.Nil {
		i.logger.Warn("fabric payload missing player id", "topic", topic)
		return FabricPlayer{}, false
	}
	return p, true
}
