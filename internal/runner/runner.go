// Package runner drives the analysis lifecycle: it feeds events through the
// pipeline, projects the survivors into the row sinks, and finalizes the
// run by printing and persisting the cutflow.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/truthana/internal/cutflow"
	"github.com/banshee-data/truthana/internal/decay"
	"github.com/banshee-data/truthana/internal/eventio"
	"github.com/banshee-data/truthana/internal/monitoring"
	"github.com/banshee-data/truthana/internal/pipeline"
	"github.com/banshee-data/truthana/internal/projector"
	"github.com/banshee-data/truthana/internal/store"
	"github.com/banshee-data/truthana/internal/timeutil"
	"github.com/banshee-data/truthana/internal/truth"
)

// Recorder persists the outcome of a run. *store.Store implements it.
type Recorder interface {
	SaveCutflow(runID string, cf *cutflow.Cutflow) error
	FinishRun(runID string, totals store.RunTotals) error
}

// Summary counts what happened to the events of one run.
type Summary struct {
	Read     int64
	Selected int64
	// Skipped counts events dropped for a missing weight or Higgs seed.
	Skipped int64
	// Unresolved counts events dropped for a decay resolution failure when
	// unresolved decays are tolerated.
	Unresolved int64
	Elapsed    time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("read=%d selected=%d skipped=%d unresolved=%d elapsed=%s",
		s.Read, s.Selected, s.Skipped, s.Unresolved, s.Elapsed.Round(time.Millisecond))
}

func (s *Summary) add(o Summary) {
	s.Read += o.Read
	s.Selected += o.Selected
	s.Skipped += o.Skipped
	s.Unresolved += o.Unresolved
}

// Totals converts the summary for the run store.
func (s Summary) Totals() store.RunTotals {
	return store.RunTotals{Read: s.Read, Selected: s.Selected, Skipped: s.Skipped, Unresolved: s.Unresolved}
}

// Outcome is the result of a completed run.
type Outcome struct {
	Cutflow *cutflow.Cutflow
	Summary Summary
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink sets the destination for projected rows.
func WithSink(s projector.RowSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithRecorder persists the cutflow and totals under runID on finalize.
func WithRecorder(rec Recorder, runID string) Option {
	return func(r *Runner) { r.recorder, r.runID = rec, runID }
}

// WithOutput sets where the cutflow table is printed on finalize.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithClock sets the clock used to time the run.
func WithClock(c timeutil.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithSkipUnresolved drops events whose decay chain cannot be resolved
// instead of aborting the run.
func WithSkipUnresolved(skip bool) Option {
	return func(r *Runner) { r.skipUnresolved = skip }
}

// WithRejectNegativeWeights makes the cutflow refuse negative weights.
func WithRejectNegativeWeights(reject bool) Option {
	return func(r *Runner) { r.rejectNegative = reject }
}

// WithProgress registers a callback invoked once per processed event. In
// sharded runs it is called from several goroutines.
func WithProgress(fn func()) Option {
	return func(r *Runner) { r.progress = fn }
}

// Runner executes one analysis run. A Runner is single-use.
type Runner struct {
	pipeline       *pipeline.Pipeline
	sink           projector.RowSink
	recorder       Recorder
	runID          string
	out            io.Writer
	clock          timeutil.Clock
	skipUnresolved bool
	rejectNegative bool
	progress       func()
}

// New creates a runner around p.
func New(p *pipeline.Pipeline, opts ...Option) *Runner {
	r := &Runner{pipeline: p, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) newCutflow() *cutflow.Cutflow {
	if r.rejectNegative {
		return cutflow.New(cutflow.WithRejectNegativeWeights())
	}
	return cutflow.New()
}

// handle processes one event and returns its row, or nil when the event is
// rejected or skipped.
func (r *Runner) handle(ev *truth.Event, cf *cutflow.Cutflow, tally *Summary) (*projector.Row, error) {
	tally.Read++
	if r.progress != nil {
		defer r.progress()
	}
	if ev == nil {
		return nil, fmt.Errorf("event %d: nil event", tally.Read)
	}

	res, err := r.pipeline.Process(ev, cf)
	if err != nil {
		var rerr *decay.ResolutionError
		switch {
		case errors.Is(err, pipeline.ErrPrecondition):
			tally.Skipped++
			return nil, nil
		case r.skipUnresolved && errors.As(err, &rerr):
			monitoring.Logf("[runner] skipping event %d/%d: %v", ev.RunNumber, ev.EventNumber, err)
			tally.Unresolved++
			return nil, nil
		}
		return nil, err
	}
	if !res.Passed {
		return nil, nil
	}
	tally.Selected++
	return projector.Project(res.Selection), nil
}

// Run processes src sequentially and finalizes the run.
func (r *Runner) Run(ctx context.Context, src eventio.Source) (*Outcome, error) {
	start := r.clock.Now()
	cf := r.newCutflow()
	var tally Summary

	for {
		if err := ctx.Err(); err != nil {
			return nil, r.abort(err)
		}
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, r.abort(fmt.Errorf("read event: %w", err))
		}
		row, err := r.handle(ev, cf, &tally)
		if err != nil {
			return nil, r.abort(err)
		}
		if row != nil {
			if err := r.write(row); err != nil {
				return nil, r.abort(err)
			}
		}
	}

	tally.Elapsed = r.clock.Since(start)
	return r.finalize(&Outcome{Cutflow: cf, Summary: tally})
}

type shard struct {
	cf    *cutflow.Cutflow
	rows  []*projector.Row
	tally Summary
}

// RunSharded splits events into contiguous shards processed concurrently,
// each with its own cutflow. Shard cutflows are merged in the pipeline's
// stage order and rows reach the sink in event order. The per-stage sums,
// rows and summary match Run over the same events; the stage order is the
// canonical one from pipeline.StageNames rather than first-seen order.
func (r *Runner) RunSharded(ctx context.Context, events []*truth.Event, workers int) (*Outcome, error) {
	start := r.clock.Now()
	if workers < 1 {
		workers = 1
	}
	if workers > len(events) && len(events) > 0 {
		workers = len(events)
	}
	size := (len(events) + workers - 1) / workers

	shards := make([]*shard, workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range shards {
		sh := &shard{cf: r.newCutflow()}
		shards[i] = sh
		lo := min(i*size, len(events))
		hi := min(lo+size, len(events))
		part := events[lo:hi]
		g.Go(func() error {
			for _, ev := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				row, err := r.handle(ev, sh.cf, &sh.tally)
				if err != nil {
					return err
				}
				if row != nil {
					sh.rows = append(sh.rows, row)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, r.abort(err)
	}

	cutflows := make([]*cutflow.Cutflow, len(shards))
	var tally Summary
	for i, sh := range shards {
		cutflows[i] = sh.cf
		tally.add(sh.tally)
		for _, row := range sh.rows {
			if err := r.write(row); err != nil {
				return nil, r.abort(err)
			}
		}
	}
	cf, err := cutflow.MergeInOrder(pipeline.StageNames(r.pipeline.Settings().Variant), cutflows...)
	if err != nil {
		return nil, r.abort(fmt.Errorf("merge shard cutflows: %w", err))
	}

	tally.Elapsed = r.clock.Since(start)
	return r.finalize(&Outcome{Cutflow: cf, Summary: tally})
}

func (r *Runner) write(row *projector.Row) error {
	if r.sink == nil {
		return nil
	}
	if err := r.sink.WriteRow(row); err != nil {
		return fmt.Errorf("write row for event %d/%d: %w", row.RunNumber, row.EventNumber, err)
	}
	return nil
}

// abort releases the sink after a failed run. Sinks that can discard
// their rows do so; the rest are closed.
func (r *Runner) abort(err error) error {
	if r.sink != nil {
		if aerr := projector.AbortSink(r.sink); aerr != nil {
			return errors.Join(err, fmt.Errorf("abort sink: %w", aerr))
		}
	}
	return err
}

// finalize closes the sink, prints the cutflow and persists the run. The
// sink is closed first so a store-backed sink commits before the cutflow
// is written.
func (r *Runner) finalize(out *Outcome) (*Outcome, error) {
	if r.sink != nil {
		if err := r.sink.Close(); err != nil {
			return nil, fmt.Errorf("close sink: %w", err)
		}
	}
	if r.out != nil {
		if err := out.Cutflow.Print(r.out); err != nil {
			return nil, fmt.Errorf("print cutflow: %w", err)
		}
	}
	if r.recorder != nil {
		if err := r.recorder.SaveCutflow(r.runID, out.Cutflow); err != nil {
			return nil, fmt.Errorf("save cutflow: %w", err)
		}
		if err := r.recorder.FinishRun(r.runID, out.Summary.Totals()); err != nil {
			return nil, fmt.Errorf("finish run: %w", err)
		}
	}
	monitoring.Logf("[runner] run finished: %s", out.Summary)
	return out, nil
}
