package game

import (
	"log/slog"
	"sync"
	"time"
)

// Stage is one step of the end-of-game schedule: an action to run no earlier
// than Delay after arming.
type Stage struct {
	Name  string
	Delay time.Duration
	Run   func() error
}

// Sequencer runs a fixed, ordered, one-shot schedule of delayed stages. Once
// armed, stages execute strictly in order on a single goroutine; they cannot
// be cancelled or retried, and a failed stage is logged and skipped.
type Sequencer struct {
	stages []Stage
	logger *slog.Logger
	once   sync.Once
	done   chan struct{}
}

// NewSequencer creates a sequencer for the given schedule. Stages must be
// listed in non-decreasing delay order.
func NewSequencer(stages []Stage, logger *slog.Logger) *Sequencer {
	return &Sequencer{
		stages: stages,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Arm starts the schedule. Only the first call has an effect.
func (s *Sequencer) Arm() {
	s.once.Do(func() {
		armed := time.Now()
		go s.run(armed)
	})
}

// Done is closed after the final stage has run.
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

func (s *Sequencer) run(armed time.Time) {
	defer close(s.done)

	for _, stage := range s.stages {
		if wait := time.Until(armed.Add(stage.Delay)); wait > 0 {
			time.Sleep(wait)
		}
		s.logger.Info("end-of-game stage", "stage", stage.Name, "delay", stage.Delay)
		if err := stage.Run(); err != nil {
			s.logger.Error("end-of-game stage failed", "stage", stage.Name, "err", err)
		}
	}
}
