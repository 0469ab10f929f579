// Package normalize converts raw producer output into uniform
// NormalizedCandidates. Sparse proposals get explicit defaults (never silent
// ones), malformed proposals are rejected with a recorded reason, and
// near-identical proposals are collapsed keeping the higher-priority one.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// DefaultDuration is used for a category with no configured default when a
// proposal arrives without a time window.
const DefaultDuration = 2 * time.Hour

// Normalizer resolves raw proposals against one trip's constraints.
type Normalizer struct {
	spec      trip.TripSpec
	durations map[trip.Category]time.Duration
	tolerance time.Duration
}

// New creates a Normalizer. durations supplies the per-category default slot
// length for proposals missing a time window; tolerance is the overlap slack
// used when collapsing duplicates.
func New(spec trip.TripSpec, durations map[trip.Category]time.Duration, tolerance time.Duration) *Normalizer {
	return &Normalizer{spec: spec, durations: durations, tolerance: tolerance}
}

// Normalize converts the raw proposals one producer returned for one
// category into NormalizedCandidates, plus a parallel rejection log. Nothing
// is silently dropped: every excluded proposal appears in the log.
func (n *Normalizer) Normalize(raws []trip.RawProposal, cat trip.Category) ([]trip.NormalizedCandidate, []trip.Rejection) {
	var (
		out      []trip.NormalizedCandidate
		rejected []trip.Rejection
	)

	for _, raw := range raws {
		nc, rej := n.normalizeOne(raw, cat)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		out = append(out, nc)
	}

	out, dupes := n.collapseDuplicates(out)
	rejected = append(rejected, dupes...)
	return out, rejected
}

func (n *Normalizer) normalizeOne(raw trip.RawProposal, cat trip.Category) (trip.NormalizedCandidate, *trip.Rejection) {
	reject := func(reason trip.RejectReason, detail string) *trip.Rejection {
		return &trip.Rejection{
			CandidateID: raw.Source,
			Name:        raw.Name,
			Day:         raw.Day,
			Category:    cat,
			Reason:      reason,
			Detail:      detail,
		}
	}

	if raw.Name == "" {
		return trip.NormalizedCandidate{}, reject(trip.ReasonInvalid, "proposal has no name")
	}
	if raw.Cost < 0 {
		return trip.NormalizedCandidate{}, reject(trip.ReasonInvalid, fmt.Sprintf("negative cost %.2f", raw.Cost))
	}
	if raw.Day < 0 || raw.Day >= n.spec.Days() {
		err := &trip.ValidationError{Field: "day", Msg: fmt.Sprintf("day %d outside trip range [0,%d)", raw.Day, n.spec.Days())}
		return trip.NormalizedCandidate{}, reject(trip.ReasonInvalid, err.Error())
	}

	var unknown []string

	window, flexible, err := n.resolveWindow(raw, cat)
	if err != nil {
		return trip.NormalizedCandidate{}, reject(trip.ReasonInvalid, err.Error())
	}
	if flexible {
		unknown = append(unknown, "time_window")
		if !n.spec.DayWindow.Contains(window) {
			return trip.NormalizedCandidate{}, reject(trip.ReasonUnplaceable,
				fmt.Sprintf("default duration does not fit day window %s", n.spec.DayWindow))
		}
	}

	loc := trip.Location{Name: strings.TrimSpace(raw.Location)}
	if raw.Lat != 0 || raw.Lng != 0 {
		loc.Lat, loc.Lng, loc.Known = raw.Lat, raw.Lng, true
	}
	if loc.Name == "" {
		unknown = append(unknown, "location")
	}

	return trip.NormalizedCandidate{
		Candidate: trip.Candidate{
			ID:       uuid.NewString(),
			Name:     raw.Name,
			Detail:   raw.Description,
			Category: cat,
			Day:      raw.Day,
			Window:   window,
			Flexible: flexible,
			Location: loc,
			Cost:     raw.Cost,
			Priority: raw.Confidence,
			Source:   raw.Source,
		},
		Unknown: unknown,
	}, nil
}

// resolveWindow produces a concrete window from whatever clock times the
// proposal carries. A fully missing window gets the category's default
// duration anchored at the day window's earliest open slot.
func (n *Normalizer) resolveWindow(raw trip.RawProposal, cat trip.Category) (trip.Window, bool, error) {
	d, ok := n.durations[cat]
	if !ok {
		d = DefaultDuration
	}

	switch {
	case raw.Start != "" && raw.End != "":
		start, err := trip.ParseClock(raw.Start)
		if err != nil {
			return trip.Window{}, false, err
		}
		end, err := trip.ParseClock(raw.End)
		if err != nil {
			return trip.Window{}, false, err
		}
		if start >= end {
			return trip.Window{}, false, fmt.Errorf("window start %s not before end %s", start, end)
		}
		return trip.Window{Start: start, End: end}, false, nil

	case raw.Start != "":
		start, err := trip.ParseClock(raw.Start)
		if err != nil {
			return trip.Window{}, false, err
		}
		return trip.Window{Start: start, End: start.Add(d)}, true, nil

	case raw.End != "":
		end, err := trip.ParseClock(raw.End)
		if err != nil {
			return trip.Window{}, false, err
		}
		return trip.Window{Start: end.Add(-d), End: end}, true, nil

	default:
		start := n.spec.DayWindow.Start
		return trip.Window{Start: start, End: start.Add(d)}, true, nil
	}
}

// collapseDuplicates folds proposals on the same day at the same named
// location whose windows overlap within the tolerance, keeping the
// higher-priority one.
func (n *Normalizer) collapseDuplicates(in []trip.NormalizedCandidate) ([]trip.NormalizedCandidate, []trip.Rejection) {
	if len(in) < 2 {
		return in, nil
	}

	// Evaluate in a deterministic order so the survivor never depends on
	// producer output ordering.
	sorted := make([]trip.NormalizedCandidate, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		if a.Window.Start != b.Window.Start {
			return a.Window.Start < b.Window.Start
		}
		return a.Name < b.Name
	})

	var (
		kept     []trip.NormalizedCandidate
		rejected []trip.Rejection
	)

	for _, c := range sorted {
		dup := false
		for _, k := range kept {
			if c.Day == k.Day && sameLocation(c.Location, k.Location) &&
				c.Window.Overlaps(k.Window, n.tolerance) {
				rejected = append(rejected, trip.Rejection{
					CandidateID: c.ID,
					Name:        c.Name,
					Day:         c.Day,
					Category:    c.Category,
					Reason:      trip.ReasonDuplicate,
					Detail:      fmt.Sprintf("duplicate of %q", k.Name),
				})
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}

	return kept, rejected
}

func sameLocation(a, b trip.Location) bool {
	if a.Name == "" || b.Name == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name))
}
