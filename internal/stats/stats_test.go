package stats

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

// newMockService creates a Service over a sqlmock database with automatic
// cleanup and expectation checking.
func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewService(&PostgresStore{db: db}), mock
}

func TestFinalize_FlushesBufferOnce(t *testing.T) {
	svc, mock := newMockService(t)
	ctx := context.Background()
	id := uuid.New()

	if err := svc.IncreasePlayedGames(ctx, id); err != nil {
		t.Fatalf("IncreasePlayedGames: %v", err)
	}
	if err := svc.IncreaseWins(ctx, id); err != nil {
		t.Fatalf("IncreaseWins: %v", err)
	}
	if err := svc.IncreasePlayedTime(ctx, id, 90); err != nil {
		t.Fatalf("IncreasePlayedTime: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO player_stats").
		WithArgs(id, int64(1), int64(1), int64(90)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// The buffer is reset: a second flush touches nothing.
	if err := svc.Finalize(ctx); err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
}

func TestFinalize_KeepsBufferOnFailure(t *testing.T) {
	svc, mock := newMockService(t)
	ctx := context.Background()
	id := uuid.New()

	if err := svc.IncreaseWins(ctx, id); err != nil {
		t.Fatalf("IncreaseWins: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO player_stats").
		WithArgs(id, int64(0), int64(1), int64(0)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := svc.Finalize(ctx); err == nil {
		t.Fatal("Finalize succeeded despite a failed flush")
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO player_stats").
		WithArgs(id, int64(0), int64(1), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.Finalize(ctx); err != nil {
		t.Fatalf("retried Finalize: %v", err)
	}
}

func TestFinalize_EmptyBufferIsNoop(t *testing.T) {
	svc, _ := newMockService(t)
	if err := svc.Finalize(context.Background()); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestUnlock(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(25).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO achievement_unlocks").
		WithArgs(id, 25).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Unlock(context.Background(), 25, id); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestUnlock_UnknownAchievement(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := svc.Unlock(context.Background(), 999, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrement(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO achievement_progress").
		WithArgs(id, 30, 50).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Increment(context.Background(), id, 30, 50); err != nil {
		t.Fatalf("Increment: %v", err)
	}
}

func TestIncrement_UnknownAchievement(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := svc.Increment(context.Background(), uuid.New(), 999, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPlayerStats(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT player_id, played_games, wins, played_seconds").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"player_id", "played_games", "wins", "played_seconds"}).
			AddRow(id, int64(12), int64(3), int64(4500)))

	ps, err := svc.PlayerStats(context.Background(), id)
	if err != nil {
		t.Fatalf("PlayerStats: %v", err)
	}
	if ps.PlayedGames != 12 || ps.Wins != 3 || ps.PlayedSeconds != 4500 {
		t.Errorf("stats = %+v, want 12/3/4500", ps)
	}
}

func TestPlayerStats_NotFound(t *testing.T) {
	svc, mock := newMockService(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT player_id, played_games, wins, played_seconds").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.PlayerStats(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
