package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// mergeStats upserts the buffered round counters in a single transaction.
func (s *PostgresStore) mergeStats(ctx context.Context, rows []PlayerStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO player_stats (player_id, played_games, wins, played_seconds, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (player_id) DO UPDATE SET
				played_games = player_stats.played_games + EXCLUDED.played_games,
				wins = player_stats.wins + EXCLUDED.wins,
				played_seconds = player_stats.played_seconds + EXCLUDED.played_seconds,
				updated_at = NOW()`,
			row.PlayerID, row.PlayedGames, row.Wins, row.PlayedSeconds,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("merge stats for %s: %w", row.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) getPlayerStats(ctx context.Context, id uuid.UUID) (*PlayerStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT player_id, played_games, wins, played_seconds
		FROM player_stats WHERE player_id = $1`, id)

	var ps PlayerStats
	if err := row.Scan(&ps.PlayerID, &ps.PlayedGames, &ps.Wins, &ps.PlayedSeconds); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &ps, nil
}

func (s *PostgresStore) achievementExists(ctx context.Context, achievementID int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM achievements WHERE id = $1)`, achievementID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("look up achievement %d: %w", achievementID, err)
	}
	return exists, nil
}

func (s *PostgresStore) unlockAchievement(ctx context.Context, player uuid.UUID, achievementID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO achievement_unlocks (player_id, achievement_id, unlocked_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (player_id, achievement_id) DO NOTHING`,
		player, achievementID,
	)
	if err != nil {
		return fmt.Errorf("unlock achievement %d for %s: %w", achievementID, player, err)
	}
	return nil
}

func (s *PostgresStore) incrementAchievement(ctx context.Context, player uuid.UUID, achievementID, amount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO achievement_progress (player_id, achievement_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, achievement_id) DO UPDATE SET
			amount = achievement_progress.amount + EXCLUDED.amount`,
		player, achievementID, amount,
	)
	if err != nil {
		return fmt.Errorf("increment achievement %d for %s: %w", achievementID, player, err)
	}
	return nil
}
