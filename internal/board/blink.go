package board

import (
	"time"

	"github.com/alexanderramin/edboard/internal/cadence"
)

// DefaultBlinkInterval is the half-period of the alarm blink.
const DefaultBlinkInterval = 500 * time.Millisecond

// BlinkScheduler toggles the alarm phase on each accepted tick. While
// stopped the phase is off so alarmed cells render in their base color.
type BlinkScheduler struct {
	task *cadence.Task
	on   bool
}

func NewBlinkScheduler(interval time.Duration) *BlinkScheduler {
	if interval <= 0 {
		interval = DefaultBlinkInterval
	}
	return &BlinkScheduler{task: cadence.NewTask(interval)}
}

// Start begins blinking and returns the token to schedule the first tick with.
func (s *BlinkScheduler) Start() cadence.Token {
	return s.task.Start()
}

// Stop halts blinking. Ticks already scheduled are ignored.
func (s *BlinkScheduler) Stop() {
	s.task.Stop()
	s.on = false
}

// Handle flips the phase if the tick is current and reports whether the
// caller should schedule the next tick.
func (s *BlinkScheduler) Handle(tick cadence.Tick) bool {
	if !s.task.Accept(tick) {
		return false
	}
	s.on = !s.on
	return true
}

// On is the current phase; alarmed cells show their highlight when true.
func (s *BlinkScheduler) On() bool { return s.on }

func (s *BlinkScheduler) Running() bool { return s.task.Running() }

func (s *BlinkScheduler) Interval() time.Duration { return s.task.Interval() }

// Token is the currently armed token.
func (s *BlinkScheduler) Token() cadence.Token { return s.task.Token() }
