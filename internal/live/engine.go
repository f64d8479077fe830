// Package live drives the real-time dashboard: a bounded simulation loop over
// the bank-marketing table that rescales columns with random factors each
// iteration and fans snapshots out to subscribers.
package live

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/ni-sh-a-char/financer/internal/dataset"
	"github.com/ni-sh-a-char/financer/internal/monitoring"
	"github.com/ni-sh-a-char/financer/internal/store"
	"github.com/ni-sh-a-char/financer/internal/timeutil"
)

// JobAll selects every row regardless of job.
const JobAll = "all"

// Snapshot is the result of one simulation iteration.
type Snapshot struct {
	Iteration     int             `json:"iteration"`
	Job           string          `json:"job"`
	AgeFactor     int             `json:"age_factor"`
	BalanceFactor int             `json:"balance_factor"`
	AvgAge        float64         `json:"avg_age"`
	MarriedCount  int64           `json:"married_count"`
	AvgBalance    decimal.Decimal `json:"avg_balance"`
	Table         *dataset.Table  `json:"-"`
}

// KPIRecorder persists per-iteration KPIs. *store.Store satisfies it.
type KPIRecorder interface {
	RecordKPI(ctx context.Context, rec store.KPIRecord) error
}

// EngineConfig configures one simulation run.
type EngineConfig struct {
	// Job filters rows to one job category. Empty or JobAll keeps all rows.
	Job string
	// Iterations bounds the loop. Zero means run until the context ends.
	Iterations int
	// Interval is the pause between iterations.
	Interval time.Duration
	// Clock drives pacing. Nil uses the real clock.
	Clock timeutil.Clock
	// Recorder, when set, receives each iteration's KPIs.
	Recorder KPIRecorder
	// Seed makes the factor sequence reproducible. Zero seeds from time.
	Seed int64
}

// Engine runs the simulation loop over a filtered bank table.
type Engine struct {
	base       *dataset.Table
	job        string
	iterations int
	interval   time.Duration
	clock      timeutil.Clock
	recorder   KPIRecorder
	rng        *rand.Rand

	subscribers  map[string]*subscriber
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// subscriber pairs a snapshot channel with a signal that releases a blocked
// publish when the subscriber goes away.
type subscriber struct {
	mu     sync.Mutex
	ch     chan Snapshot
	done   chan struct{}
	closed bool
}

// stop releases any blocked publish before closing the snapshot channel, so
// the sending side never writes to a closed channel.
func (s *subscriber) stop() {
	close(s.done)
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
}

// NewEngine builds an engine over the bank table. The table must carry the
// age, balance and marital columns.
func NewEngine(base *dataset.Table, cfg EngineConfig) (*Engine, error) {
	for _, col := range []string{"age", "balance", "marital"} {
		if !base.HasColumn(col) {
			return nil, fmt.Errorf("live: table is missing column %q", col)
		}
	}

	table := base
	if cfg.Job != "" && cfg.Job != JobAll {
		var err error
		table, err = base.FilterEqual("job", cfg.Job)
		if err != nil {
			return nil, err
		}
		if table.NumRows() == 0 {
			return nil, fmt.Errorf("live: no rows for job %q", cfg.Job)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Iterations < 0 {
		return nil, errors.New("live: iterations must be >= 0")
	}

	return &Engine{
		base:         table,
		job:          cfg.Job,
		iterations:   cfg.Iterations,
		interval:     cfg.Interval,
		clock:        clock,
		recorder:     cfg.Recorder,
		rng:          rand.New(rand.NewSource(seed)),
		subscribers:  make(map[string]*subscriber),
		subscriberMu: sync.Mutex{},
	}, nil
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe creates a new channel for receiving snapshots. The returned ID
// identifies the channel when unsubscribing.
func (e *Engine) Subscribe() (string, chan Snapshot) {
	id := randomID()
	sub := &subscriber{ch: make(chan Snapshot, 1), done: make(chan struct{})}
	e.subscriberMu.Lock()
	defer e.subscriberMu.Unlock()
	e.subscribers[id] = sub
	return id, sub.ch
}

// Unsubscribe removes a subscriber, releasing any publish blocked on it.
func (e *Engine) Unsubscribe(id string) {
	e.subscriberMu.Lock()
	sub, ok := e.subscribers[id]
	if ok {
		delete(e.subscribers, id)
	}
	e.subscriberMu.Unlock()
	if ok {
		sub.stop()
	}
}

// Run executes the simulation loop, publishing one snapshot per iteration.
// It returns nil after the configured number of iterations, or the context's
// error if cancelled first.
func (e *Engine) Run(ctx context.Context) error {
	for i := 1; e.iterations == 0 || i <= e.iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		e.closingMu.Lock()
		if e.closing {
			e.closingMu.Unlock()
			return nil
		}
		e.closingMu.Unlock()

		snap, err := e.Step(i)
		if err != nil {
			return err
		}
		e.publish(ctx, snap)

		if e.recorder != nil {
			rec := store.KPIRecord{
				Job:          e.job,
				AvgAge:       snap.AvgAge,
				MarriedCount: snap.MarriedCount,
				AvgBalance:   snap.AvgBalance,
				Iteration:    int64(snap.Iteration),
			}
			if err := e.recorder.RecordKPI(ctx, rec); err != nil {
				monitoring.Logf("live: failed to record kpis for iteration %d: %v", i, err)
			}
		}

		e.clock.Sleep(e.interval)
	}
	return nil
}

// Step computes one iteration: rescale age and balance by independent random
// factors from {1,2,3,4}, then derive the headline KPIs. Iterations are
// independent, so callers may invoke it outside Run for a one-off snapshot.
func (e *Engine) Step(iteration int) (Snapshot, error) {
	ageFactor := 1 + e.rng.Intn(4)
	balanceFactor := 1 + e.rng.Intn(4)

	ages, err := e.base.Float("age")
	if err != nil {
		return Snapshot{}, err
	}
	balances, err := e.base.Float("balance")
	if err != nil {
		return Snapshot{}, err
	}

	ageNew := make([]float64, len(ages))
	for i, v := range ages {
		ageNew[i] = v * float64(ageFactor)
	}
	balanceNew := make([]float64, len(balances))
	for i, v := range balances {
		balanceNew[i] = v * float64(balanceFactor)
	}

	table, err := e.base.WithFloatColumn("age_new", ageNew)
	if err != nil {
		return Snapshot{}, err
	}
	table, err = table.WithFloatColumn("balance_new", balanceNew)
	if err != nil {
		return Snapshot{}, err
	}

	married, err := e.base.FilterEqual("marital", "married")
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Iteration:     iteration,
		Job:           e.job,
		AgeFactor:     ageFactor,
		BalanceFactor: balanceFactor,
		AvgAge:        stat.Mean(ageNew, nil),
		MarriedCount:  int64(married.NumRows()) + int64(1+e.rng.Intn(29)),
		AvgBalance:    decimal.NewFromFloat(stat.Mean(balanceNew, nil)).Round(2),
		Table:         table,
	}, nil
}

// publish delivers the snapshot to every subscriber. Run paces itself with
// the clock, so delivery waits for slow consumers instead of dropping; an
// unsubscribe or a cancelled context releases the send.
func (e *Engine) publish(ctx context.Context, snap Snapshot) {
	e.subscriberMu.Lock()
	subs := make([]*subscriber, 0, len(e.subscribers))
	for _, sub := range e.subscribers {
		subs = append(subs, sub)
	}
	e.subscriberMu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		if !sub.closed {
			select {
			case sub.ch <- snap:
			case <-sub.done:
			case <-ctx.Done():
			}
		}
		sub.mu.Unlock()
	}
}

// Close closes all subscriber channels and stops the loop at the next
// iteration boundary.
func (e *Engine) Close() {
	e.closingMu.Lock()
	e.closing = true
	e.closingMu.Unlock()

	e.subscriberMu.Lock()
	subs := make([]*subscriber, 0, len(e.subscribers))
	for id, sub := range e.subscribers {
		subs = append(subs, sub)
		delete(e.subscribers, id)
	}
	e.subscriberMu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
}

// Jobs lists the job categories present in the table, for the filter widget.
func Jobs(t *dataset.Table) ([]string, error) {
	jobs, err := t.Unique("job")
	if err != nil {
		return nil, err
	}
	return append([]string{JobAll}, jobs...), nil
}
