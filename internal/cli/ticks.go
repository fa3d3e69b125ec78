package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/edboard/internal/board"
	"github.com/alexanderramin/edboard/internal/cadence"
)

// Tick messages for the three cadences a view can run. Each carries the
// token it was armed with so a stopped or restarted task drops it.
type (
	pollTickMsg     struct{ cadence.Tick }
	blinkTickMsg    struct{ cadence.Tick }
	rotationTickMsg struct{ cadence.Tick }
)

// scheduleTick arms a one-shot timer for tok. The receiver re-arms it after
// accepting the tick.
func scheduleTick(tok cadence.Token, d time.Duration, wrap func(cadence.Tick) tea.Msg) tea.Cmd {
	return tea.Tick(d, func(at time.Time) tea.Msg {
		return wrap(cadence.Tick{Token: tok, At: at})
	})
}

func pollTick(tok cadence.Token, d time.Duration) tea.Cmd {
	return scheduleTick(tok, d, func(t cadence.Tick) tea.Msg { return pollTickMsg{t} })
}

func blinkTick(tok cadence.Token, d time.Duration) tea.Cmd {
	return scheduleTick(tok, d, func(t cadence.Tick) tea.Msg { return blinkTickMsg{t} })
}

func rotationTick(tok cadence.Token, d time.Duration) tea.Cmd {
	return scheduleTick(tok, d, func(t cadence.Tick) tea.Msg { return rotationTickMsg{t} })
}

// snapshotFetchedMsg carries a fetch result back to the event loop, where
// it is applied to the board.
type snapshotFetchedMsg struct {
	board.Snapshot
}

// fetchSnapshot runs the upstream fetch off the event loop.
func fetchSnapshot(b *board.Board) tea.Cmd {
	return func() tea.Msg {
		return snapshotFetchedMsg{b.Fetch(context.Background())}
	}
}
