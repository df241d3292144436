// Package stats persists player statistics and achievements in PostgreSQL.
//
// Plain counters (played games, wins, play time) accumulate in memory for the
// duration of one round and are flushed in a single transaction by Finalize.
// Achievement grants write through immediately so unlock feedback is not
// delayed until teardown.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for lookups of unknown players or achievement ids.
var ErrNotFound = errors.New("stats: not found")

// PlayerStats is the aggregate row kept per player across sessions.
type PlayerStats struct {
	PlayerID      uuid.UUID `json:"player_id"`
	PlayedGames   int64     `json:"played_games"`
	Wins          int64     `json:"wins"`
	PlayedSeconds int64     `json:"played_seconds"`
}

// Service buffers per-round counters over a PostgreSQL-backed store.
type Service struct {
	store *PostgresStore

	mu     sync.Mutex
	games  map[uuid.UUID]int64
	wins   map[uuid.UUID]int64
	played map[uuid.UUID]int64
}

// NewService wraps an opened store with a fresh round buffer.
func NewService(store *PostgresStore) *Service {
	return &Service{
		store:  store,
		games:  make(map[uuid.UUID]int64),
		wins:   make(map[uuid.UUID]int64),
		played: make(map[uuid.UUID]int64),
	}
}

// IncreasePlayedGames credits one played game to the round buffer.
func (s *Service) IncreasePlayedGames(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[id]++
	return nil
}

// IncreaseWins credits one win to the round buffer.
func (s *Service) IncreaseWins(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wins[id]++
	return nil
}

// IncreasePlayedTime credits play time, in seconds, to the round buffer.
func (s *Service) IncreasePlayedTime(_ context.Context, id uuid.UUID, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played[id] += seconds
	return nil
}

// Finalize flushes the round buffer in one transaction and resets it. A
// failed flush keeps the buffer intact so a retry loses nothing.
func (s *Service) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make(map[uuid.UUID]struct{})
	for id := range s.games {
		players[id] = struct{}{}
	}
	for id := range s.wins {
		players[id] = struct{}{}
	}
	for id := range s.played {
		players[id] = struct{}{}
	}
	if len(players) == 0 {
		return nil
	}

	rows := make([]PlayerStats, 0, len(players))
	for id := range players {
		rows = append(rows, PlayerStats{
			PlayerID:      id,
			PlayedGames:   s.games[id],
			Wins:          s.wins[id],
			PlayedSeconds: s.played[id],
		})
	}

	if err := s.store.mergeStats(ctx, rows); err != nil {
		return fmt.Errorf("flush round statistics: %w", err)
	}

	s.games = make(map[uuid.UUID]int64)
	s.wins = make(map[uuid.UUID]int64)
	s.played = make(map[uuid.UUID]int64)
	return nil
}

// Unlock grants an achievement to the player. Unknown achievement ids fail
// with ErrNotFound; granting an already-unlocked achievement is a no-op.
func (s *Service) Unlock(ctx context.Context, achievementID int, player uuid.UUID) error {
	known, err := s.store.achievementExists(ctx, achievementID)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("achievement %d: %w", achievementID, ErrNotFound)
	}
	return s.store.unlockAchievement(ctx, player, achievementID)
}

// Increment advances an achievement's progress counter. Unknown achievement
// ids fail with ErrNotFound.
func (s *Service) Increment(ctx context.Context, player uuid.UUID, achievementID, amount int) error {
	known, err := s.store.achievementExists(ctx, achievementID)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("achievement %d: %w", achievementID, ErrNotFound)
	}
	return s.store.incrementAchievement(ctx, player, achievementID, amount)
}

// PlayerStats returns the persisted aggregate for one player. The round
// buffer is not folded in; callers see the totals as of the last Finalize.
func (s *Service) PlayerStats(ctx context.Context, id uuid.UUID) (*PlayerStats, error) {
	return s.store.getPlayerStats(ctx, id)
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}
