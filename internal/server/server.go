// Package server exposes the session over a small HTTP admin API. The
// surrounding network fabric drives joins, leaves, and lifecycle transitions
// through it; read endpoints back the operator tooling.
package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/game"
	"github.com/groblegark/arena/internal/stats"
)

// StatsReader looks up persisted player statistics.
type StatsReader interface {
	PlayerStats(ctx context.Context, id uuid.UUID) (*stats.PlayerStats, error)
}

// LastGameReader resolves a player's most recent session.
type LastGameReader interface {
	Lookup(id uuid.UUID) (string, error)
}

// ArenaServer serves the admin API for one session.
type ArenaServer struct {
	session  *game.Session
	stats    StatsReader
	lastGame LastGameReader
	logger   *slog.Logger
}

// NewArenaServer returns a server for the given session. stats and lastGame
// are optional; their endpoints answer 404 when absent.
func NewArenaServer(session *game.Session, statsReader StatsReader, lastGame LastGameReader, logger *slog.Logger) *ArenaServer {
	return &ArenaServer{
		session:  session,
		stats:    statsReader,
		lastGame: lastGame,
		logger:   logger,
	}
}
