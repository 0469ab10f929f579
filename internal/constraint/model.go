// Package constraint holds the pure validation functions the resolver
// applies to candidates: budget headroom, day-window containment, and
// reachability via an injected transit cost function. It carries no mutable
// state beyond the running totals the caller threads through.
package constraint

import (
	"math"
	"time"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// TransitCostFn computes the travel time between two locations. The second
// return value is false when the function cannot price the pair (unknown
// coordinates, disconnected locations); the caller decides how to degrade.
type TransitCostFn func(from, to trip.Location) (time.Duration, bool)

// FixedTransit returns a TransitCostFn that charges a flat duration between
// any two distinct locations and zero for a same-name pair. It is the
// default when the caller supplies no real distance function.
func FixedTransit(d time.Duration) TransitCostFn {
	return func(from, to trip.Location) (time.Duration, bool) {
		if from.Name != "" && from.Name == to.Name {
			return 0, true
		}
		return d, true
	}
}

// HaversineTransit estimates travel time from great-circle distance at the
// given average speed. Pairs without known coordinates fall back to fallback.
func HaversineTransit(kmPerHour float64, fallback time.Duration) TransitCostFn {
	return func(from, to trip.Location) (time.Duration, bool) {
		if !from.Known || !to.Known || kmPerHour <= 0 {
			return fallback, true
		}
		const earthRadiusKm = 6371.0
		lat1 := from.Lat * math.Pi / 180
		lat2 := to.Lat * math.Pi / 180
		dLat := lat2 - lat1
		dLng := (to.Lng - from.Lng) * math.Pi / 180
		a := math.Sin(dLat/2)*math.Sin(dLat/2) +
			math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
		km := 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
		return time.Duration(km / kmPerHour * float64(time.Hour)), true
	}
}

// Totals tracks committed spend per category plus the grand total. The
// engine owns a single Totals value and commits a day's delta only after
// that day's resolver pass completes.
type Totals struct {
	ByCategory map[trip.Category]float64
	Grand      float64
}

// NewTotals returns an empty accumulator.
func NewTotals() Totals {
	return Totals{ByCategory: make(map[trip.Category]float64)}
}

// Clone returns an independent copy. Resolvers work on a clone so a day's
// partial decisions never leak into the shared accumulator.
func (t Totals) Clone() Totals {
	c := Totals{ByCategory: make(map[trip.Category]float64, len(t.ByCategory)), Grand: t.Grand}
	for k, v := range t.ByCategory {
		c.ByCategory[k] = v
	}
	return c
}

// Add commits a candidate's cost.
func (t *Totals) Add(c trip.Candidate) {
	t.ByCategory[c.Category] += c.Cost
	t.Grand += c.Cost
}

// Merge commits every total from o into t.
func (t *Totals) Merge(o Totals) {
	for k, v := range o.ByCategory {
		t.ByCategory[k] += v
	}
	t.Grand += o.Grand
}

// Model exposes the constraint checks for one trip.
type Model struct {
	Spec trip.TripSpec
}

// FitsBudget reports whether adding c keeps its category total and the grand
// total within the spec's caps.
func (m Model) FitsBudget(c trip.Candidate, totals Totals) bool {
	if limit, ok := m.Spec.Cap(c.Category); ok {
		if totals.ByCategory[c.Category]+c.Cost > limit {
			return false
		}
	}
	return totals.Grand+c.Cost <= m.Spec.TotalBudget
}

// FitsWindow reports whether c's time range is fully contained in the day's
// active window.
func (m Model) FitsWindow(c trip.Candidate) bool {
	return m.Spec.DayWindow.Contains(c.Window)
}

// Reachable reports whether b can be reached after a given the transit cost
// function: unreachable when the computed travel time would force an
// overlap. The travel time is returned either way so callers can annotate
// slots.
func (m Model) Reachable(a, b trip.Candidate, transit TransitCostFn) (bool, time.Duration) {
	if transit == nil {
		return true, 0
	}
	travel, ok := transit(a.Location, b.Location)
	if !ok {
		return false, 0
	}
	return b.Window.Start >= a.Window.End.Add(travel), travel
}
