package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayline-labs/tripweaver/internal/constraint"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

func testSpec() trip.TripSpec {
	return trip.TripSpec{
		Destination: "Seattle",
		DayWindow:   trip.Window{Start: 8 * 60, End: 22 * 60},
		TotalBudget: 500,
		CategoryCaps: map[trip.Category]float64{
			trip.CategoryEvent: 200,
		},
	}
}

func candidate(id, name string, cat trip.Category, start, end trip.ClockTime, cost, priority float64) trip.NormalizedCandidate {
	return trip.NormalizedCandidate{Candidate: trip.Candidate{
		ID:       id,
		Name:     name,
		Category: cat,
		Day:      0,
		Window:   trip.Window{Start: start, End: end},
		Cost:     cost,
		Priority: priority,
	}}
}

func names(slots []trip.ScheduleSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Name
	}
	return out
}

func TestResolve_OverlapKeepsHigherPriority(t *testing.T) {
	r := New(testSpec(), Options{})

	// Two events at the same price colliding 18:00-20:00. The higher
	// priority one wins; the loser is rejected as an overlap even though
	// accepting both would also bust the events cap.
	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {
			candidate("e1", "Symphony", trip.CategoryEvent, 18*60, 20*60, 150, 0.9),
			candidate("e2", "Hockey Game", trip.CategoryEvent, 19*60, 21*60, 150, 0.6),
		},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())

	require.Len(t, slots, 1)
	assert.Equal(t, "Symphony", slots[0].Name)

	require.Len(t, rejected, 1)
	assert.Equal(t, "Hockey Game", rejected[0].Name)
	assert.Equal(t, trip.ReasonOverlap, rejected[0].Reason)
}

func TestResolve_BudgetRejectionContinues(t *testing.T) {
	r := New(testSpec(), Options{})

	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {
			candidate("e1", "Concert", trip.CategoryEvent, 10*60, 12*60, 180, 0.9),
			candidate("e2", "Gala", trip.CategoryEvent, 14*60, 16*60, 180, 0.8),
			candidate("e3", "Free Market Tour", trip.CategoryEvent, 17*60, 18*60, 0, 0.5),
		},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())

	// Gala busts the 200 events cap; resolution keeps going and still
	// accepts the later free tour.
	assert.Equal(t, []string{"Concert", "Free Market Tour"}, names(slots))

	require.Len(t, rejected, 1)
	assert.Equal(t, "Gala", rejected[0].Name)
	assert.Equal(t, trip.ReasonBudget, rejected[0].Reason)
}

func TestResolve_RespectsRunningTotals(t *testing.T) {
	r := New(testSpec(), Options{})

	// 180 of the 200 events cap was already spent on a previous day.
	totals := constraint.NewTotals()
	totals.Add(trip.Candidate{Category: trip.CategoryEvent, Cost: 180})

	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {
			candidate("e1", "Concert", trip.CategoryEvent, 10*60, 12*60, 50, 0.9),
		},
	}

	slots, rejected := r.Resolve(0, byCat, totals)
	assert.Empty(t, slots)
	require.Len(t, rejected, 1)
	assert.Equal(t, trip.ReasonBudget, rejected[0].Reason)

	// The caller's accumulator is untouched.
	assert.Equal(t, 180.0, totals.ByCategory[trip.CategoryEvent])
}

func TestResolve_WindowRejection(t *testing.T) {
	r := New(testSpec(), Options{})

	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {
			candidate("e1", "Early Bird Hike", trip.CategoryEvent, 6*60, 9*60, 0, 0.9),
		},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())
	assert.Empty(t, slots)
	require.Len(t, rejected, 1)
	assert.Equal(t, trip.ReasonWindow, rejected[0].Reason)
}

func TestResolve_TransitBufferForcesRejection(t *testing.T) {
	r := New(testSpec(), Options{TransitBuffer: 30 * time.Minute})

	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {
			candidate("e1", "Museum", trip.CategoryEvent, 10*60, 12*60, 20, 0.9),
			candidate("e2", "Back-to-Back Tour", trip.CategoryEvent, 12*60, 13*60, 20, 0.8),
			candidate("e3", "Afternoon Tour", trip.CategoryEvent, 13*60, 14*60, 20, 0.7),
		},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())

	assert.Equal(t, []string{"Museum", "Afternoon Tour"}, names(slots))
	require.Len(t, rejected, 1)
	assert.Equal(t, "Back-to-Back Tour", rejected[0].Name)
	assert.Equal(t, trip.ReasonOverlap, rejected[0].Reason)
}

func TestResolve_UnreachableNeighbor(t *testing.T) {
	spec := testSpec()
	r := New(spec, Options{
		// Every hop between distinct locations takes two hours.
		Transit: constraint.FixedTransit(2 * time.Hour),
	})

	museum := candidate("e1", "Museum", trip.CategoryEvent, 10*60, 12*60, 20, 0.9)
	museum.Location = trip.Location{Name: "MoPOP"}
	tour := candidate("e2", "Harbor Tour", trip.CategoryEvent, 12*60+30, 14*60, 20, 0.8)
	tour.Location = trip.Location{Name: "Pier 55"}

	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {museum, tour},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())

	assert.Equal(t, []string{"Museum"}, names(slots))
	require.Len(t, rejected, 1)
	assert.Equal(t, trip.ReasonUnreachable, rejected[0].Reason)
	assert.Contains(t, rejected[0].Detail, "Museum")
}

func TestResolve_CategoryOrderPinsLodgingFirst(t *testing.T) {
	r := New(testSpec(), Options{})

	// A high-priority event colliding with check-in still loses: lodging
	// is placed before events are considered.
	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent: {
			candidate("e1", "Evening Show", trip.CategoryEvent, 15*60, 17*60, 50, 1.0),
		},
		trip.CategoryLodging: {
			candidate("l1", "Hotel Check-in", trip.CategoryLodging, 15*60, 16*60, 120, 0.5),
		},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())

	assert.Equal(t, []string{"Hotel Check-in"}, names(slots))
	require.Len(t, rejected, 1)
	assert.Equal(t, "Evening Show", rejected[0].Name)
	assert.Equal(t, trip.ReasonOverlap, rejected[0].Reason)
}

func TestResolve_Deterministic(t *testing.T) {
	r := New(testSpec(), Options{})

	byCat := func() map[trip.Category][]trip.NormalizedCandidate {
		return map[trip.Category][]trip.NormalizedCandidate{
			trip.CategoryEvent: {
				candidate("e2", "B", trip.CategoryEvent, 10*60, 12*60, 30, 0.5),
				candidate("e1", "A", trip.CategoryEvent, 10*60, 12*60, 30, 0.5),
				candidate("e3", "C", trip.CategoryEvent, 14*60, 16*60, 30, 0.5),
			},
			trip.CategoryRestaurant: {
				candidate("r1", "Dinner", trip.CategoryRestaurant, 18*60, 19*60, 40, 0.7),
			},
		}
	}

	first, firstRej := r.Resolve(0, byCat(), constraint.NewTotals())
	for i := 0; i < 5; i++ {
		slots, rejected := r.Resolve(0, byCat(), constraint.NewTotals())
		assert.Equal(t, names(first), names(slots))
		assert.Equal(t, firstRej, rejected)
	}

	// Equal priority and cost: the name tie-break picks A over B.
	assert.Equal(t, []string{"A", "C", "Dinner"}, names(first))
}

func TestResolve_AnnotatesTravelWithAnchor(t *testing.T) {
	spec := testSpec()
	spec.StartDate = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	spec.EndDate = spec.StartDate
	spec.Anchors = []trip.Location{{Name: "Hotel"}}

	r := New(spec, Options{Transit: constraint.FixedTransit(20 * time.Minute)})

	museum := candidate("e1", "Museum", trip.CategoryEvent, 10*60, 12*60, 20, 0.9)
	museum.Location = trip.Location{Name: "MoPOP"}
	dinner := candidate("r1", "Dinner", trip.CategoryRestaurant, 18*60, 19*60, 40, 0.8)
	dinner.Location = trip.Location{Name: "Pike Place"}

	byCat := map[trip.Category][]trip.NormalizedCandidate{
		trip.CategoryEvent:      {museum},
		trip.CategoryRestaurant: {dinner},
	}

	slots, rejected := r.Resolve(0, byCat, constraint.NewTotals())
	require.Empty(t, rejected)
	require.Len(t, slots, 2)

	assert.Equal(t, 20*time.Minute, slots[0].TravelIn, "anchor to museum")
	assert.Equal(t, 20*time.Minute, slots[0].TravelOut, "museum to dinner")
	assert.Equal(t, 20*time.Minute, slots[1].TravelIn)
	assert.Equal(t, 20*time.Minute, slots[1].TravelOut, "dinner back to anchor")
}
