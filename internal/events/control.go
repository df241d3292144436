package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Control command topics. The surrounding network fabric subscribes to these
// and applies them to the players' clients.
const (
	TopicControlKick      = "arena.control.kick"
	TopicControlRefresh   = "arena.control.refresh"
	TopicControlTimer     = "arena.control.timer"
	TopicControlSpectator = "arena.control.spectator"
	TopicControlHide      = "arena.control.hide"
)

type ControlKick struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type ControlRefresh struct {
	CodeName string `json:"code_name"`
}

// ControlTimer starts or stops the shared round timer.
type ControlTimer struct {
	CodeName string `json:"code_name"`
	Running  bool   `json:"running"`
}

type ControlSpectator struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type ControlHide struct {
	Viewer uuid.UUID `json:"viewer"`
	Target uuid.UUID `json:"target"`
}

// Controller relays session control commands over the event bus. It stands
// in for the network fabric when the session runs as its own process.
type Controller struct {
	pub    Publisher
	logger *slog.Logger
	code   string

	// ReconnectPolicy decides per player whether reconnection is offered.
	// Nil allows everyone.
	ReconnectPolicy func(id uuid.UUID) bool
}

// NewController returns a controller publishing commands for the session
// identified by codeName.
func NewController(pub Publisher, codeName string, logger *slog.Logger) *Controller {
	return &Controller{pub: pub, logger: logger, code: codeName}
}

func (c *Controller) send(topic string, event any) {
	if err := c.pub.Publish(context.Background(), topic, event); err != nil {
		c.logger.Error("control publish failed", "topic", topic, "err", err)
	}
}

func (c *Controller) ReconnectAllowed(id uuid.UUID) bool {
	if c.ReconnectPolicy != nil {
		return c.ReconnectPolicy(id)
	}
	return true
}

func (c *Controller) RefreshArena() {
	c.send(TopicControlRefresh, ControlRefresh{CodeName: c.code})
}

func (c *Controller) StartRoundTimer() {
	c.send(TopicControlTimer, ControlTimer{CodeName: c.code, Running: true})
}

func (c *Controller) StopRoundTimer() {
	c.send(TopicControlTimer, ControlTimer{CodeName: c.code, Running: false})
}

func (c *Controller) Kick(id uuid.UUID) {
	c.send(TopicControlKick, ControlKick{PlayerID: id})
}

func (c *Controller) SetSpectatorMode(id uuid.UUID) {
	c.send(TopicControlSpectator, ControlSpectator{PlayerID: id})
}

func (c *Controller) HidePlayer(viewer, target uuid.UUID) {
	c.send(TopicControlHide, ControlHide{Viewer: viewer, Target: target})
}
