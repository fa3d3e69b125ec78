package cadence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTask_AcceptsOnlyCurrentGeneration(t *testing.T) {
	task := NewTask(time.Second)
	tok := task.Start()
	assert.True(t, task.Accept(Tick{Token: tok}))

	next := task.Start()
	assert.False(t, task.Accept(Tick{Token: tok}))
	assert.True(t, task.Accept(Tick{Token: next}))
}

func TestTask_StopDropsInFlightTicks(t *testing.T) {
	task := NewTask(time.Second)
	tok := task.Start()
	task.Stop()
	assert.False(t, task.Running())
	assert.False(t, task.Accept(Tick{Token: tok}))
}

func TestTask_IgnoresOtherTasks(t *testing.T) {
	a := NewTask(time.Second)
	b := NewTask(time.Second)
	assert.NotEqual(t, a.ID(), b.ID())

	a.Start()
	tokB := b.Start()
	assert.False(t, a.Accept(Tick{Token: tokB}))
}

func TestTask_ResetRearmsRunningTask(t *testing.T) {
	task := NewTask(time.Second)
	old := task.Start()

	tok, armed := task.Reset(3 * time.Second)
	assert.True(t, armed)
	assert.Equal(t, 3*time.Second, task.Interval())
	assert.False(t, task.Accept(Tick{Token: old}))
	assert.True(t, task.Accept(Tick{Token: tok}))
}

func TestTask_ResetStoppedTaskOnlyChangesInterval(t *testing.T) {
	task := NewTask(time.Second)
	_, armed := task.Reset(5 * time.Second)
	assert.False(t, armed)
	assert.False(t, task.Running())
	assert.Equal(t, 5*time.Second, task.Interval())
}
