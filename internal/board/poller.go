package board

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often a headless poller refreshes the board.
const DefaultPollInterval = 5 * time.Second

// Poller refreshes a Board on a fixed interval. The interactive board drives
// refreshes from its event loop instead; Poller serves the HTTP mode.
type Poller struct {
	board    *Board
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewPoller(b *Board, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{board: b, interval: interval, logger: logger, now: time.Now}
}

// Run refreshes immediately, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", zap.Duration("interval", p.interval))
	_ = p.board.Refresh(ctx, p.now())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-ticker.C:
			_ = p.board.Refresh(ctx, p.now())
		}
	}
}
