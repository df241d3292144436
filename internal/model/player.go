package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a player's gameplay role within a session.
type Role string

const (
	RoleActive    Role = "active"
	RoleSpectator Role = "spectator"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// PlayerRecord tracks one admitted player for the lifetime of a session.
// A record exists only while the player is admitted (online, or disconnected
// within the reconnect window). Moderators never hold a record.
type PlayerRecord struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`

	// Connectivity. Disconnected players keep their record until the
	// reconnect deadline is realized by the next registry mutation.
	Online            bool      `json:"online"`
	DisconnectedAt    time.Time `json:"disconnected_at,omitempty"`
	ReconnectDeadline time.Time `json:"reconnect_deadline,omitempty"`

	// Accumulated play time. playingSince is non-zero while the counter runs.
	PlayedTime   time.Duration `json:"played_time"`
	playingSince time.Time

	// Coins earned during this session only.
	Coins int `json:"coins"`
}

// NewPlayerRecord returns a fresh online, active record for the given player.
func NewPlayerRecord(id uuid.UUID) *PlayerRecord {
	return &PlayerRecord{
		ID:     id,
		Role:   RoleActive,
		Online: true,
	}
}

// IsSpectator reports whether the player currently spectates.
func (p *PlayerRecord) IsSpectator() bool {
	return p.Role == RoleSpectator
}

// SetSpectator switches the player into the spectator role.
func (p *PlayerRecord) SetSpectator() {
	p.Role = RoleSpectator
}

// SetActive restores full active presence.
func (p *PlayerRecord) SetActive() {
	p.Role = RoleActive
}

// ResetPlayedTime restarts the play-time counter from zero. Called once when
// the game starts.
func (p *PlayerRecord) ResetPlayedTime(now time.Time) {
	p.PlayedTime = 0
	p.playingSince = now
}

// ResumePlayedTime restarts the counter without discarding accumulated time.
// Called on reconnection mid-game.
func (p *PlayerRecord) ResumePlayedTime(now time.Time) {
	p.playingSince = now
}

// StepPlayedTime folds the elapsed interval into the accumulated play time
// and stops the counter.
func (p *PlayerRecord) StepPlayedTime(now time.Time) {
	if p.playingSince.IsZero() {
		return
	}
	p.PlayedTime += now.Sub(p.playingSince)
	p.playingSince = time.Time{}
}

// MarkDisconnected flags the record as offline with a reconnect deadline.
func (p *PlayerRecord) MarkDisconnected(now time.Time, window time.Duration) {
	p.Online = false
	p.DisconnectedAt = now
	p.ReconnectDeadline = now.Add(window)
}

// MarkReconnected clears the disconnection state.
func (p *PlayerRecord) MarkReconnected() {
	p.Online = true
	p.DisconnectedAt = time.Time{}
	p.ReconnectDeadline = time.Time{}
}

// AddCoins credits coins earned during this session.
func (p *PlayerRecord) AddCoins(amount int) {
	p.Coins += amount
}
