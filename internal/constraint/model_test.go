package constraint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

func testSpec() trip.TripSpec {
	return trip.TripSpec{
		DayWindow:   trip.Window{Start: 8 * 60, End: 22 * 60},
		TotalBudget: 500,
		CategoryCaps: map[trip.Category]float64{
			trip.CategoryEvent: 200,
		},
	}
}

func TestModel_FitsBudget(t *testing.T) {
	m := Model{Spec: testSpec()}

	totals := NewTotals()
	event := trip.Candidate{Category: trip.CategoryEvent, Cost: 150}
	assert.True(t, m.FitsBudget(event, totals))

	totals.Add(event)
	assert.False(t, m.FitsBudget(event, totals), "second event busts the category cap")

	// No cap for restaurants: only the grand total applies.
	dinner := trip.Candidate{Category: trip.CategoryRestaurant, Cost: 340}
	assert.True(t, m.FitsBudget(dinner, totals))

	feast := trip.Candidate{Category: trip.CategoryRestaurant, Cost: 351}
	assert.False(t, m.FitsBudget(feast, totals), "grand total cap applies")
}

func TestModel_FitsWindow(t *testing.T) {
	m := Model{Spec: testSpec()}

	assert.True(t, m.FitsWindow(trip.Candidate{Window: trip.Window{Start: 9 * 60, End: 11 * 60}}))
	assert.False(t, m.FitsWindow(trip.Candidate{Window: trip.Window{Start: 7 * 60, End: 9 * 60}}))
}

func TestModel_Reachable(t *testing.T) {
	m := Model{Spec: testSpec()}

	lunch := trip.Candidate{
		Window:   trip.Window{Start: 12 * 60, End: 13 * 60},
		Location: trip.Location{Name: "Pike Place"},
	}
	museum := trip.Candidate{
		Window:   trip.Window{Start: 13 * 60, End: 15 * 60},
		Location: trip.Location{Name: "MoPOP"},
	}

	ok, travel := m.Reachable(lunch, museum, FixedTransit(0))
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), travel)

	// A 30 minute transfer into a back-to-back slot forces an overlap.
	ok, travel = m.Reachable(lunch, museum, FixedTransit(30*time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 30*time.Minute, travel)

	// Nil transit function disables reachability checks.
	ok, _ = m.Reachable(lunch, museum, nil)
	assert.True(t, ok)
}

func TestFixedTransit_SameLocation(t *testing.T) {
	fn := FixedTransit(20 * time.Minute)

	d, ok := fn(trip.Location{Name: "Hotel"}, trip.Location{Name: "Hotel"})
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), d)

	d, ok = fn(trip.Location{Name: "Hotel"}, trip.Location{Name: "Arena"})
	require.True(t, ok)
	assert.Equal(t, 20*time.Minute, d)
}

func TestHaversineTransit(t *testing.T) {
	fn := HaversineTransit(30, 45*time.Minute)

	seattleCenter := trip.Location{Name: "Space Needle", Lat: 47.6205, Lng: -122.3493, Known: true}
	pioneerSquare := trip.Location{Name: "Pioneer Square", Lat: 47.6015, Lng: -122.3343, Known: true}

	d, ok := fn(seattleCenter, pioneerSquare)
	require.True(t, ok)
	// Roughly 2.4 km apart; at 30 km/h that is a few minutes.
	assert.Greater(t, d, time.Minute)
	assert.Less(t, d, 15*time.Minute)

	// Unknown coordinates fall back to the flat estimate.
	d, ok = fn(seattleCenter, trip.Location{Name: "somewhere"})
	require.True(t, ok)
	assert.Equal(t, 45*time.Minute, d)
}

func TestTotals_CloneIsIndependent(t *testing.T) {
	totals := NewTotals()
	totals.Add(trip.Candidate{Category: trip.CategoryEvent, Cost: 100})

	clone := totals.Clone()
	clone.Add(trip.Candidate{Category: trip.CategoryEvent, Cost: 50})

	assert.Equal(t, 100.0, totals.ByCategory[trip.CategoryEvent])
	assert.Equal(t, 100.0, totals.Grand)
	assert.Equal(t, 150.0, clone.ByCategory[trip.CategoryEvent])
	assert.Equal(t, 150.0, clone.Grand)
}

func TestTotals_Merge(t *testing.T) {
	a := NewTotals()
	a.Add(trip.Candidate{Category: trip.CategoryLodging, Cost: 120})

	b := NewTotals()
	b.Add(trip.Candidate{Category: trip.CategoryEvent, Cost: 80})

	a.Merge(b)
	assert.Equal(t, 120.0, a.ByCategory[trip.CategoryLodging])
	assert.Equal(t, 80.0, a.ByCategory[trip.CategoryEvent])
	assert.Equal(t, 200.0, a.Grand)
}
