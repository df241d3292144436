// Package rewards computes end-of-round earnings and hands them off over the
// event bus. The reward scheme is deliberately simple: stars scale with time
// played, winners earn a flat bonus on top.
package rewards

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/groblegark/arena/internal/events"
	"github.com/groblegark/arena/internal/model"
)

// Scheme holds the tunable reward rates.
type Scheme struct {
	// StarsPerMinute is the participation rate, in stars per full minute
	// of play time.
	StarsPerMinute int
	// WinnerBonus is added once for winning the round.
	WinnerBonus int
	// MaxStars caps a single round's payout. Zero means uncapped.
	MaxStars int
}

// DefaultScheme returns the production rates.
func DefaultScheme() Scheme {
	return Scheme{StarsPerMinute: 2, WinnerBonus: 30, MaxStars: 120}
}

// Service computes and delivers rewards. Delivery publishes on the event
// bus; wallet crediting is owned by a downstream consumer.
type Service struct {
	scheme Scheme
	pub    events.Publisher
	logger *slog.Logger
}

// NewService creates a reward service with the given scheme.
func NewService(scheme Scheme, pub events.Publisher, logger *slog.Logger) *Service {
	return &Service{scheme: scheme, pub: pub, logger: logger}
}

// Compute derives the reward token for one player.
func (s *Service) Compute(id uuid.UUID, elapsed time.Duration, winner bool) model.RewardToken {
	stars := int(elapsed/time.Minute) * s.scheme.StarsPerMinute
	kind := "participation"
	if winner {
		kind = "victory"
		stars += s.scheme.WinnerBonus
	}
	if s.scheme.MaxStars > 0 && stars > s.scheme.MaxStars {
		stars = s.scheme.MaxStars
	}
	return model.RewardToken{Kind: kind, Stars: stars}
}

// Deliver publishes the player's earnings. Failures are logged; the reward
// stage never retries.
func (s *Service) Deliver(id uuid.UUID, coins int, token model.RewardToken) {
	err := s.pub.Publish(context.Background(), events.TopicPlayerRewarded, events.PlayerRewarded{
		PlayerID: id,
		Coins:    coins,
		Kind:     token.Kind,
		Stars:    token.Stars,
	})
	if err != nil {
		s.logger.Error("reward delivery failed", "player", id, "err", err)
	}
}
