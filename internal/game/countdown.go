package game

import (
	"log/slog"
	"sync"
	"time"
)

// Countdown drives the pre-game countdown on a 1 Hz background ticker. It is
// armed once by Initialize and cancelled exactly once, on game start or on
// its own completion.
type Countdown struct {
	tick     func(remaining int)
	complete func()
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewCountdown creates a countdown. tick is invoked each second with the
// seconds remaining; complete fires once when the countdown reaches zero.
// Either callback may be nil.
func NewCountdown(tick func(remaining int), complete func(), logger *slog.Logger) *Countdown {
	return &Countdown{
		tick:     tick,
		complete: complete,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the ticker goroutine counting down from d.
func (c *Countdown) Start(d time.Duration) {
	go c.run(int(d / time.Second))
}

func (c *Countdown) run(remaining int) {
	defer close(c.done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			remaining--
			if c.tick != nil {
				c.tick(remaining)
			}
			if remaining <= 0 {
				c.logger.Info("countdown complete")
				if c.complete != nil {
					c.complete()
				}
				return
			}
		}
	}
}

// Cancel stops the countdown. Safe to call more than once; only the first
// call has an effect. Cancel does not wait for an in-flight tick callback.
func (c *Countdown) Cancel() {
	c.once.Do(func() { close(c.stop) })
}
