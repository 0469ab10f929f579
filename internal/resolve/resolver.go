// Package resolve selects, per day, a non-overlapping, budget-respecting,
// reachable subset of normalized candidates. The pass is greedy and single
// pass with stable tie-breaks: inputs are heuristic producer suggestions, so
// optimality is bounded by input quality anyway, and a deterministic order
// gives reproducible, explainable output.
package resolve

import (
	"fmt"
	"sort"
	"time"

	"github.com/wayline-labs/tripweaver/internal/constraint"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// Options tunes the resolver. Zero values fall back to defaults.
type Options struct {
	// TransitBuffer is the minimum gap enforced between consecutive slots.
	TransitBuffer time.Duration

	// CategoryOrder fixes the processing priority. Earlier categories pin
	// the day; later ones must fit around prior acceptances. Defaults to
	// lodging, events, restaurants.
	CategoryOrder []trip.Category

	// Transit prices travel between locations. Nil means reachability is
	// never a rejection reason.
	Transit constraint.TransitCostFn
}

// Resolver applies the constraint model to one trip's candidates.
type Resolver struct {
	model constraint.Model
	opts  Options
}

// New creates a Resolver for the given spec.
func New(spec trip.TripSpec, opts Options) *Resolver {
	if len(opts.CategoryOrder) == 0 {
		opts.CategoryOrder = trip.Categories
	}
	return &Resolver{model: constraint.Model{Spec: spec}, opts: opts}
}

// Resolve selects the day's schedule. It works on a clone of totals; the
// caller commits accepted costs to the shared accumulator after the pass
// completes. Every rejected candidate records the first failing constraint.
func (r *Resolver) Resolve(day int, byCategory map[trip.Category][]trip.NormalizedCandidate, totals constraint.Totals) ([]trip.ScheduleSlot, []trip.Rejection) {
	running := totals.Clone()

	var (
		accepted []trip.Candidate
		rejected []trip.Rejection
	)

	for _, cat := range r.opts.CategoryOrder {
		candidates := sortCandidates(byCategory[cat])

		for _, nc := range candidates {
			c := nc.Candidate
			if reason, detail := r.check(c, accepted, running); reason != "" {
				rejected = append(rejected, trip.Rejection{
					CandidateID: c.ID,
					Name:        c.Name,
					Day:         day,
					Category:    cat,
					Reason:      reason,
					Detail:      detail,
				})
				continue
			}

			running.Add(c)
			accepted = insertByStart(accepted, c)
		}
	}

	return r.annotate(day, accepted), rejected
}

// check returns the first failing constraint for c, or "" when c is
// acceptable. Order matters: window, overlap, budget, reachability. A
// candidate that both collides and overspends reports the collision, since
// that is the conflict a caller can actually see on the timeline.
func (r *Resolver) check(c trip.Candidate, accepted []trip.Candidate, running constraint.Totals) (trip.RejectReason, string) {
	if !r.model.FitsWindow(c) {
		return trip.ReasonWindow, fmt.Sprintf("window %s outside day window %s", c.Window, r.model.Spec.DayWindow)
	}

	for _, a := range accepted {
		if c.Window.Overlaps(a.Window, r.opts.TransitBuffer) {
			return trip.ReasonOverlap, fmt.Sprintf("conflicts with %q (%s)", a.Name, a.Window)
		}
	}

	if !r.model.FitsBudget(c, running) {
		return trip.ReasonBudget, fmt.Sprintf("cost %.2f exceeds remaining headroom", c.Cost)
	}

	if prev, ok := previous(accepted, c); ok {
		if reachable, travel := r.model.Reachable(prev, c, r.opts.Transit); !reachable {
			return trip.ReasonUnreachable, fmt.Sprintf("%s travel from %q forces an overlap", travel, prev.Name)
		}
	}
	if next, ok := following(accepted, c); ok {
		if reachable, travel := r.model.Reachable(c, next, r.opts.Transit); !reachable {
			return trip.ReasonUnreachable, fmt.Sprintf("%s travel to %q forces an overlap", travel, next.Name)
		}
	}

	return "", ""
}

// annotate converts the accepted set into schedule slots with travel times
// to each neighbor. The day's anchor location, when configured, bounds the
// first and last slot.
func (r *Resolver) annotate(day int, accepted []trip.Candidate) []trip.ScheduleSlot {
	if len(accepted) == 0 {
		return nil
	}

	anchor, hasAnchor := r.anchor(day)
	slots := make([]trip.ScheduleSlot, len(accepted))

	for i, c := range accepted {
		slot := trip.ScheduleSlot{Candidate: c}

		switch {
		case i > 0:
			slot.TravelIn = r.travel(accepted[i-1].Location, c.Location)
		case hasAnchor:
			slot.TravelIn = r.travel(anchor, c.Location)
		}

		switch {
		case i < len(accepted)-1:
			slot.TravelOut = r.travel(c.Location, accepted[i+1].Location)
		case hasAnchor:
			slot.TravelOut = r.travel(c.Location, anchor)
		}

		slots[i] = slot
	}

	return slots
}

func (r *Resolver) anchor(day int) (trip.Location, bool) {
	anchors := r.model.Spec.Anchors
	if day < 0 || day >= len(anchors) {
		return trip.Location{}, false
	}
	return anchors[day], true
}

func (r *Resolver) travel(from, to trip.Location) time.Duration {
	if r.opts.Transit == nil {
		return 0
	}
	d, ok := r.opts.Transit(from, to)
	if !ok {
		return 0
	}
	return d
}

// sortCandidates fixes the deterministic evaluation order: priority
// descending, then cost ascending, then earliest start, with name and ID as
// final stable tie-breaks.
func sortCandidates(in []trip.NormalizedCandidate) []trip.NormalizedCandidate {
	out := make([]trip.NormalizedCandidate, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if a.Window.Start != b.Window.Start {
			return a.Window.Start < b.Window.Start
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}

// previous returns the accepted slot that immediately precedes c by start
// time.
func previous(accepted []trip.Candidate, c trip.Candidate) (trip.Candidate, bool) {
	var (
		best  trip.Candidate
		found bool
	)
	for _, a := range accepted {
		if a.Window.Start <= c.Window.Start && (!found || a.Window.Start > best.Window.Start) {
			best, found = a, true
		}
	}
	return best, found
}

// following returns the accepted slot that immediately follows c by start
// time.
func following(accepted []trip.Candidate, c trip.Candidate) (trip.Candidate, bool) {
	var (
		best  trip.Candidate
		found bool
	)
	for _, a := range accepted {
		if a.Window.Start > c.Window.Start && (!found || a.Window.Start < best.Window.Start) {
			best, found = a, true
		}
	}
	return best, found
}

// insertByStart keeps the accepted list ordered by start time.
func insertByStart(accepted []trip.Candidate, c trip.Candidate) []trip.Candidate {
	i := sort.Search(len(accepted), func(i int) bool {
		return accepted[i].Window.Start > c.Window.Start
	})
	accepted = append(accepted, trip.Candidate{})
	copy(accepted[i+1:], accepted[i:])
	accepted[i] = c
	return accepted
}
