// Package cadence tracks periodic timers for the event loop without owning a
// goroutine. A Task hands out Tokens; a Tick carrying a stale token is
// ignored, so restarting or stopping a task never needs to cancel a timer
// that is already in flight.
package cadence

import (
	"sync/atomic"
	"time"
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Token identifies one armed generation of a task.
type Token struct {
	ID  int
	Tag int
}

// Tick is delivered when an armed timer fires.
type Tick struct {
	Token
	At time.Time
}

// Task is a restartable periodic timer.
type Task struct {
	id       int
	tag      int
	interval time.Duration
	running  bool
}

func NewTask(interval time.Duration) *Task {
	return &Task{id: nextID(), interval: interval}
}

func (t *Task) ID() int                 { return t.id }
func (t *Task) Interval() time.Duration { return t.interval }
func (t *Task) Running() bool           { return t.running }

// Start arms a new generation and returns its token.
func (t *Task) Start() Token {
	t.running = true
	t.tag++
	return t.Token()
}

// Stop invalidates every outstanding tick.
func (t *Task) Stop() {
	t.running = false
	t.tag++
}

// Reset changes the interval. A running task is re-armed under a new token.
func (t *Task) Reset(interval time.Duration) (Token, bool) {
	t.interval = interval
	if !t.running {
		return Token{}, false
	}
	return t.Start(), true
}

// Token returns the currently armed token.
func (t *Task) Token() Token {
	return Token{ID: t.id, Tag: t.tag}
}

// Accept reports whether a tick belongs to the current generation of a
// running task.
func (t *Task) Accept(tick Tick) bool {
	return t.running && tick.ID == t.id && tick.Tag == t.tag
}
