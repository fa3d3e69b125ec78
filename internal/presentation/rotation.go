package presentation

import (
	"fmt"
	"time"

	"github.com/alexanderramin/edboard/internal/cadence"
	"github.com/alexanderramin/edboard/internal/domain"
)

// RotationScheduler advances a Paginator on a user-selected interval.
type RotationScheduler struct {
	pager   *Paginator
	task    *cadence.Task
	seconds int
}

// NewRotationScheduler uses domain.DefaultRotationSeconds when seconds is not
// an allowed choice.
func NewRotationScheduler(pager *Paginator, seconds int) *RotationScheduler {
	if !domain.ValidRotationInterval(seconds) {
		seconds = domain.DefaultRotationSeconds
	}
	return &RotationScheduler{
		pager:   pager,
		task:    cadence.NewTask(time.Duration(seconds) * time.Second),
		seconds: seconds,
	}
}

func (r *RotationScheduler) Seconds() int { return r.seconds }

func (r *RotationScheduler) Interval() time.Duration { return r.task.Interval() }

func (r *RotationScheduler) Running() bool { return r.task.Running() }

func (r *RotationScheduler) Token() cadence.Token { return r.task.Token() }

func (r *RotationScheduler) Paginator() *Paginator { return r.pager }

// Start begins rotating and returns the token for the first tick.
func (r *RotationScheduler) Start() cadence.Token { return r.task.Start() }

// Stop halts rotation. Ticks already scheduled are ignored.
func (r *RotationScheduler) Stop() { r.task.Stop() }

// Handle advances the page on a current tick and reports whether the next
// tick should be scheduled. A single page stays put but keeps ticking so
// rotation resumes once more rows arrive.
func (r *RotationScheduler) Handle(tick cadence.Tick) bool {
	if !r.task.Accept(tick) {
		return false
	}
	r.pager.Advance()
	return true
}

// SetInterval switches to a new allowed interval. A running rotation is
// restarted under a new token; the current page is kept.
func (r *RotationScheduler) SetInterval(seconds int) (cadence.Token, bool, error) {
	if !domain.ValidRotationInterval(seconds) {
		return cadence.Token{}, false, fmt.Errorf("rotation interval %ds not in %v", seconds, domain.AllowedRotationSeconds())
	}
	r.seconds = seconds
	tok, armed := r.task.Reset(time.Duration(seconds) * time.Second)
	return tok, armed, nil
}
