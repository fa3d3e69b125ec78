// Package board holds the live state shown on the patient board: the last
// fetched snapshot, per-cell compliance and the current alarm set.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alexanderramin/edboard/internal/alarm"
	"github.com/alexanderramin/edboard/internal/domain"
	"github.com/alexanderramin/edboard/internal/metrics"
	"github.com/alexanderramin/edboard/internal/sla"
	"github.com/alexanderramin/edboard/internal/stats"
)

// DefaultFetchTimeout bounds a single snapshot fetch.
const DefaultFetchTimeout = 3 * time.Second

// ErrNoSnapshot is returned by readers before the first successful fetch.
var ErrNoSnapshot = errors.New("no snapshot fetched yet")

// Options configures a Board.
type Options struct {
	Matrix           sla.Matrix
	ConductThreshold time.Duration
	FetchTimeout     time.Duration
	Logger           *zap.Logger
}

// Board is safe for concurrent use. Fetch may run off the event loop while
// readers render.
type Board struct {
	source       SnapshotSource
	registry     alarm.Registry
	fetchTimeout time.Duration
	logger       *zap.Logger
	failLog      rate.Sometimes

	mu          sync.RWMutex
	query       Query
	queryGen    uint64
	patients    []domain.PatientSnapshot
	byID        map[string]int
	results     map[alarm.Cell]domain.ComplianceResult
	alarms      alarm.Set
	refreshedAt time.Time
	loaded      bool
	stale       bool
	lastErr     error
}

func New(source SnapshotSource, opts Options) *Board {
	if opts.Matrix == nil {
		opts.Matrix = sla.DefaultMatrix()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Board{
		source:       source,
		registry:     alarm.Registry{Matrix: opts.Matrix, ConductThreshold: opts.ConductThreshold},
		fetchTimeout: opts.FetchTimeout,
		logger:       opts.Logger,
		failLog:      rate.Sometimes{First: 1, Interval: time.Minute},
		results:      make(map[alarm.Cell]domain.ComplianceResult),
		alarms:       alarm.NewSet(),
	}
}

// Matrix returns the SLA matrix in use.
func (b *Board) Matrix() sla.Matrix { return b.registry.Matrix }

// SetQuery changes the patients fetched on the next refresh. Fetches already
// running under the previous query are dropped by Apply.
func (b *Board) SetQuery(q Query) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query = Query{Areas: slices.Clone(q.Areas), From: q.From, To: q.To}
	b.queryGen++
}

func (b *Board) Query() Query {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.query
}

// Snapshot is the outcome of one Fetch, tagged with the query it ran under.
type Snapshot struct {
	Patients []domain.PatientSnapshot
	Took     time.Duration
	Err      error
	queryGen uint64
}

// Fetch reads a snapshot from the source under the fetch timeout. It does
// not touch board state.
func (b *Board) Fetch(ctx context.Context) Snapshot {
	ctx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
	defer cancel()

	b.mu.RLock()
	q, gen := b.query, b.queryGen
	b.mu.RUnlock()

	start := time.Now()
	snaps, err := b.source.FetchPatientSnapshots(ctx, q)
	s := Snapshot{Patients: snaps, Took: time.Since(start), queryGen: gen}
	if err != nil {
		s.Patients = nil
		s.Err = fmt.Errorf("fetching patient snapshots: %w", err)
	}
	return s
}

// Apply installs the result of a fetch and reports whether it did. A
// snapshot fetched under an older query is dropped. On error the previous
// snapshot is kept and the board is marked stale.
func (b *Board) Apply(s Snapshot, now time.Time) bool {
	b.mu.RLock()
	current := b.queryGen
	b.mu.RUnlock()
	if s.queryGen != current {
		b.logger.Debug("dropping snapshot fetched for a previous query")
		return false
	}

	snaps, took, fetchErr := s.Patients, s.Took, s.Err
	if fetchErr != nil {
		metrics.RecordPoll(metrics.OutcomeError, took)
		b.mu.Lock()
		b.stale = true
		b.lastErr = fetchErr
		b.mu.Unlock()
		metrics.RecordStale(true)

		b.logger.Debug("snapshot fetch failed", zap.Error(fetchErr))
		b.failLog.Do(func() {
			b.logger.Warn("board data is stale, keeping last snapshot", zap.Error(fetchErr))
		})
		return true
	}
	metrics.RecordPoll(metrics.OutcomeOK, took)

	results := make(map[alarm.Cell]domain.ComplianceResult, len(snaps)*len(domain.AllStages()))
	byID := make(map[string]int, len(snaps))
	for i, p := range snaps {
		byID[p.ID] = i
		for _, stage := range domain.AllStages() {
			results[alarm.Cell{PatientID: p.ID, Stage: stage}] = b.registry.Matrix.ClassifyPatient(p, stage, now)
		}
	}
	set := b.registry.Compute(snaps, now)

	b.mu.Lock()
	wasStale := b.stale
	b.patients = snaps
	b.byID = byID
	b.results = results
	b.alarms = set
	b.refreshedAt = now
	b.loaded = true
	b.stale = false
	b.lastErr = nil
	b.mu.Unlock()

	metrics.RecordStale(false)
	metrics.RecordBoard(len(snaps), set.Len(), set.ConductLen())
	if wasStale {
		b.logger.Info("board data recovered", zap.Int("patients", len(snaps)))
	}
	b.logger.Debug("board refreshed",
		zap.Int("patients", len(snaps)),
		zap.Int("alarms", set.Len()),
		zap.Int("conduct_alarms", set.ConductLen()),
		zap.Duration("took", took),
	)
	return true
}

// Refresh fetches and applies a new snapshot. The returned error is the
// fetch failure, if any; board state is updated either way.
func (b *Board) Refresh(ctx context.Context, now time.Time) error {
	s := b.Fetch(ctx)
	b.Apply(s, now)
	return s.Err
}

// ComplianceResult returns the classification of one cell as of the last
// refresh. Unknown cells yield a no-data WARNING.
func (b *Board) ComplianceResult(patientID string, stage domain.StageKind) domain.ComplianceResult {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if res, ok := b.results[alarm.Cell{PatientID: patientID, Stage: stage}]; ok {
		return res
	}
	return domain.NoData()
}

func (b *Board) IsAlarmed(patientID string, stage domain.StageKind) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.alarms.IsAlarmed(patientID, stage)
}

func (b *Board) IsConductAlarmed(patientID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.alarms.IsConductAlarmed(patientID)
}

// Alarms returns the current alarm set.
func (b *Board) Alarms() alarm.Set {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.alarms
}

// Patients returns a copy of the current snapshot in fetch order.
func (b *Board) Patients() []domain.PatientSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.patients)
}

// Patient returns one patient of the current snapshot.
func (b *Board) Patient(id string) (domain.PatientSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.byID[id]
	if !ok {
		return domain.PatientSnapshot{}, false
	}
	return b.patients[i], true
}

// Stats aggregates the current snapshot.
func (b *Board) Stats(filter stats.Filter) (stats.Report, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.loaded {
		return stats.Report{}, ErrNoSnapshot
	}
	return stats.AggregateAll(b.patients, filter, b.registry.Matrix), nil
}

// AggregateStats summarizes a single stage of the current snapshot.
func (b *Board) AggregateStats(stage domain.StageKind, filter stats.Filter) (stats.StageStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.loaded {
		return stats.StageStats{}, ErrNoSnapshot
	}
	return stats.Aggregate(b.patients, stage, filter, b.registry.Matrix), nil
}

// Status describes the freshness of the board.
type Status struct {
	Loaded      bool
	Stale       bool
	RefreshedAt time.Time
	LastError   error
	Patients    int
}

func (b *Board) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Status{
		Loaded:      b.loaded,
		Stale:       b.stale,
		RefreshedAt: b.refreshedAt,
		LastError:   b.lastErr,
		Patients:    len(b.patients),
	}
}

// Stale reports whether the last fetch failed.
func (b *Board) Stale() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stale
}

// LastError is the most recent fetch failure, or nil after a success.
func (b *Board) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}
