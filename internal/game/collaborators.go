package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/model"
)

// Notifier receives session lifecycle notifications. Rendering of any
// broadcast text is a presentation concern and stays outside the core.
type Notifier interface {
	GameStarted(players int)
	PlayerJoined(id uuid.UUID, competitive bool)
	PlayerDisconnected(id uuid.UUID, window time.Duration)
	PlayerQuit(id uuid.UUID)
	PlayerReconnected(id uuid.UUID)
	ReconnectExpired(id uuid.UUID)
	RoundEnded()
	Custom(text string, urgent bool)
}

// Stats is the external statistics collaborator. It is optional; a session
// without one logs a severe warning at setup and silently skips reporting.
type Stats interface {
	IncreasePlayedGames(ctx context.Context, id uuid.UUID) error
	IncreaseWins(ctx context.Context, id uuid.UUID) error
	IncreasePlayedTime(ctx context.Context, id uuid.UUID, seconds int64) error
	// Finalize flushes any per-round aggregation. Called once, by the
	// teardown stage.
	Finalize(ctx context.Context) error
}

// Achievements grants and increments achievements. Calls fail with a
// not-found error for unknown achievement ids; every call site catches and
// logs independently so one failure never aborts a batch.
type Achievements interface {
	Unlock(ctx context.Context, achievementID int, player uuid.UUID) error
	Increment(ctx context.Context, player uuid.UUID, achievementID, amount int) error
}

// Perms looks up permissions and community groups.
type Perms interface {
	HasPermission(id uuid.UUID, capability string) bool
	GroupID(id uuid.UUID) int
	HasNickname(id uuid.UUID) bool
}

// Rewards computes and delivers end-of-round rewards.
type Rewards interface {
	Compute(id uuid.UUID, elapsed time.Duration, winner bool) model.RewardToken
	Deliver(id uuid.UUID, coins int, token model.RewardToken)
}

// Voice is the subset of the voice bridge the session uses. All calls block
// up to the bridge timeout and return shape defaults on failure, so the
// session only issues them from background goroutines.
type Voice interface {
	CreateChannel(name string) int64
	DeleteChannel(channelID int64) bool
	MovePlayers(ids []uuid.UUID, channelID int64) []uuid.UUID
	IsConnected(id uuid.UUID) bool
}

// LastGame records the player's most recent session in an expiring store,
// read by out-of-core reconnection tooling.
type LastGame interface {
	Record(id uuid.UUID, codeName string) error
}

// Manager is the surrounding framework: reconnection policy, the network
// round timer, arena occupancy, and forced disconnects.
type Manager interface {
	ReconnectAllowed(id uuid.UUID) bool
	RefreshArena()
	StartRoundTimer()
	StopRoundTimer()
	Kick(id uuid.UUID)
	// SetSpectatorMode forces the player's client into spectator mode.
	SetSpectatorMode(id uuid.UUID)
	// HidePlayer hides target from viewer's presence.
	HidePlayer(viewer, target uuid.UUID)
}

// Alerter escalates collaborator failures to an external alerting channel.
// Optional; absence means failures are only logged.
type Alerter interface {
	Alert(text string)
}

// Collaborators bundles every external dependency of a session. Notifier and
// Manager are required; the rest degrade gracefully when nil.
type Collaborators struct {
	Notifier     Notifier
	Stats        Stats
	Achievements Achievements
	Perms        Perms
	Rewards      Rewards
	Voice        Voice
	LastGame     LastGame
	Manager      Manager
	Alerter      Alerter
}
