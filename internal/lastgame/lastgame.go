// Package lastgame records which session a player most recently played, in
// an expiring store. Reconnection tooling reads the record to route a
// returning player back to their round; after the TTL the record is gone and
// the player falls through to the lobby.
package lastgame

import (
	"errors"
	"time"
)

// DefaultTTL bounds how long a record outlives the write. It exceeds any
// per-session reconnect grace so the routing hint never expires first.
const DefaultTTL = 180 * time.Second

// ErrNoRecord is returned by lookups after the record expired or was never
// written.
var ErrNoRecord = errors.New("lastgame: no record")
