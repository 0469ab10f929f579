// Package reconcile drives the itinerary pipeline across all trip days:
// concurrent producer fan-out per day and category, normalization,
// per-day conflict resolution against a single-owner budget accumulator, and
// final assembly into a ReconciliationResult. One producer's failure never
// blocks the rest of the trip.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wayline-labs/tripweaver/internal/assemble"
	"github.com/wayline-labs/tripweaver/internal/constraint"
	"github.com/wayline-labs/tripweaver/internal/normalize"
	"github.com/wayline-labs/tripweaver/internal/producer"
	"github.com/wayline-labs/tripweaver/internal/resolve"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// Engine is the reconciliation orchestrator.
type Engine struct {
	cfg       Config
	producers map[trip.Category]producer.Producer
	order     []trip.Category // registered categories in resolution order
	progress  *ProgressReporter
	log       *zap.Logger
}

// New creates an Engine with the given producers. Categories without a
// producer are simply never fetched. A nil logger disables logging.
func New(cfg Config, producers []producer.Producer, log *zap.Logger) *Engine {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	byCat := make(map[trip.Category]producer.Producer, len(producers))
	for _, p := range producers {
		byCat[p.Category()] = p
	}

	var order []trip.Category
	for _, cat := range cfg.CategoryOrder {
		if _, ok := byCat[cat]; ok {
			order = append(order, cat)
		}
	}

	return &Engine{
		cfg:       cfg,
		producers: byCat,
		order:     order,
		progress:  NewProgressReporter(),
		log:       log,
	}
}

// Progress returns a channel that emits pipeline events.
func (e *Engine) Progress() <-chan Event {
	return e.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when
// the engine is no longer needed.
func (e *Engine) Close() {
	e.progress.Close()
}

// fetchResult is the outcome of one producer call after retries.
type fetchResult struct {
	raws []trip.RawProposal
	err  error
}

// Run reconciles the whole trip. It returns a ReconciliationResult with a
// complete or partial itinerary; the only fatal errors are an invalid spec,
// caller cancellation, and internal consistency violations.
func (e *Engine) Run(ctx context.Context, spec trip.TripSpec) (*trip.ReconciliationResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	days := spec.Days()
	e.log.Info("reconciliation started",
		zap.String("run", runID),
		zap.String("destination", spec.Destination),
		zap.Int("days", days))

	fetched, err := e.fetchAll(ctx, spec)
	if err != nil {
		return nil, err
	}

	// Resolution runs sequentially across days: the grand budget total is
	// shared mutable state, so one owner commits day deltas in order.
	totals := constraint.NewTotals()
	normalizer := normalize.New(spec, e.cfg.DefaultDurations, e.cfg.DuplicateTolerance)
	resolver := resolve.New(spec, resolve.Options{
		TransitBuffer: e.cfg.TransitBuffer,
		CategoryOrder: e.cfg.CategoryOrder,
		Transit:       e.cfg.Transit,
	})

	slotsByDay := make([][]trip.ScheduleSlot, days)
	var (
		gaps       []trip.Gap
		rejections []trip.Rejection
	)

	for day := 0; day < days; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		byCat := make(map[trip.Category][]trip.NormalizedCandidate, len(e.order))

		for ci, cat := range e.order {
			fr := fetched[day][ci]
			if fr.err != nil {
				gaps = append(gaps, trip.Gap{
					Day:       day,
					Category:  cat,
					Reason:    fr.err.Error(),
					Transient: trip.IsTransient(fr.err),
				})
				continue
			}

			e.progress.Emit(Event{Day: day, Category: cat, State: StateNormalizing})
			normalized, rejs := normalizer.Normalize(fr.raws, cat)
			rejections = append(rejections, rejs...)

			kept, drifted := keepDay(normalized, day)
			byCat[cat] = kept
			rejections = append(rejections, drifted...)
		}

		e.progress.Emit(Event{Day: day, State: StateResolving})
		slots, rejs := resolver.Resolve(day, byCat, totals)
		rejections = append(rejections, rejs...)

		// Commit the day's spend only after its resolver pass completed.
		for _, s := range slots {
			totals.Add(s.Candidate)
		}
		slotsByDay[day] = slots

		e.progress.Emit(Event{Day: day, State: StateDone})
		e.log.Debug("day resolved",
			zap.String("run", runID),
			zap.Int("day", day),
			zap.Int("slots", len(slots)),
			zap.Float64("spend", totals.Grand))
	}

	itinerary, err := assemble.Assemble(spec, slotsByDay, e.cfg.TransitBuffer)
	if err != nil {
		// A ConsistencyError here means a resolver bug; abort the run.
		e.log.Error("assembly failed", zap.String("run", runID), zap.Error(err))
		return nil, err
	}

	result := &trip.ReconciliationResult{
		RunID:      runID,
		Itinerary:  itinerary,
		Complete:   len(gaps) == 0 && len(itinerary.Unresolved) == 0,
		Gaps:       gaps,
		Rejections: rejections,
	}

	e.log.Info("reconciliation finished",
		zap.String("run", runID),
		zap.Bool("complete", result.Complete),
		zap.Int("gaps", len(gaps)),
		zap.Float64("totalSpend", itinerary.TotalSpend))
	return result, nil
}

// fetchAll dispatches every (day, category) producer call concurrently. The
// three categories of a day have no data dependency on each other until
// resolution, so parallel dispatch is safe. Failures are recorded per pair,
// never propagated through the group: only caller cancellation aborts.
func (e *Engine) fetchAll(ctx context.Context, spec trip.TripSpec) ([][]fetchResult, error) {
	days := spec.Days()
	fetched := make([][]fetchResult, days)
	for day := range fetched {
		fetched[day] = make([]fetchResult, len(e.order))
	}

	g, gctx := errgroup.WithContext(ctx)

	for day := 0; day < days; day++ {
		for ci, cat := range e.order {
			e.progress.Emit(Event{Day: day, Category: cat, State: StatePending})

			g.Go(func() error {
				e.progress.Emit(Event{Day: day, Category: cat, State: StateFetching})

				raws, err := e.fetchWithRetry(gctx, spec, cat, day)
				fetched[day][ci] = fetchResult{raws: raws, err: err}

				if err != nil {
					e.progress.Emit(Event{Day: day, Category: cat, State: StateFailed, Message: err.Error()})
					e.log.Warn("producer failed",
						zap.Int("day", day),
						zap.String("category", string(cat)),
						zap.Error(err))
				}
				return nil
			})
		}
	}

	// Goroutines never return errors; Wait is a join point.
	_ = g.Wait()

	// On cancellation, abandon the run without committing anything.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fetched, nil
}

// fetchWithRetry calls one producer with the configured per-call timeout,
// retrying transient failures up to the retry bound. Non-transient failures
// are returned immediately.
func (e *Engine) fetchWithRetry(ctx context.Context, spec trip.TripSpec, cat trip.Category, day int) ([]trip.RawProposal, error) {
	p := e.producers[cat]

	var lastErr error
	for attempt := 0; attempt <= e.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, e.wrapProducerErr(cat, day, ctx.Err())
			case <-time.After(time.Duration(attempt) * e.cfg.RetryBackoff):
			}
			e.progress.Emit(Event{
				Day:      day,
				Category: cat,
				State:    StateFetching,
				Message:  fmt.Sprintf("retry %d/%d", attempt, e.cfg.Retries),
			})
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		raws, err := p.Propose(callCtx, spec, day)
		cancel()
		if err == nil {
			return raws, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if !trip.IsTransient(err) {
			break
		}
	}

	return nil, e.wrapProducerErr(cat, day, lastErr)
}

// wrapProducerErr guarantees failures surface as *trip.ProducerError.
func (e *Engine) wrapProducerErr(cat trip.Category, day int, err error) error {
	var pe *trip.ProducerError
	if errors.As(err, &pe) {
		return err
	}
	return &trip.ProducerError{Category: cat, Day: day, Transient: trip.IsTransient(err), Err: err}
}

// keepDay rejects candidates that declare a different day than the one they
// were fetched for. Normalization already rejected out-of-range days; this
// guards the per-day buckets against confused producers, and every dropped
// candidate is recorded rather than silently discarded.
func keepDay(in []trip.NormalizedCandidate, day int) ([]trip.NormalizedCandidate, []trip.Rejection) {
	kept := in[:0:0]
	var rejected []trip.Rejection
	for _, c := range in {
		if c.Day != day {
			rejected = append(rejected, trip.Rejection{
				CandidateID: c.ID,
				Name:        c.Name,
				Day:         day,
				Category:    c.Category,
				Reason:      trip.ReasonInvalid,
				Detail:      fmt.Sprintf("proposal for day %d returned by the day %d fetch", c.Day, day),
			})
			continue
		}
		kept = append(kept, c)
	}
	return kept, rejected
}
