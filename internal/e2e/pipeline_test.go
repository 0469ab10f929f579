//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayline-labs/tripweaver/internal/config"
	"github.com/wayline-labs/tripweaver/internal/export"
	"github.com/wayline-labs/tripweaver/internal/producer"
	"github.com/wayline-labs/tripweaver/internal/reconcile"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

func loadTestdata(t *testing.T) (trip.TripSpec, []producer.Producer) {
	t.Helper()

	spec, err := config.LoadTrip(filepath.Join("..", "..", "testdata", "trip.yml"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "proposals.json"))
	require.NoError(t, err)

	var byCat map[trip.Category]map[int][]trip.RawProposal
	require.NoError(t, json.Unmarshal(data, &byCat))

	var producers []producer.Producer
	for _, cat := range trip.Categories {
		producers = append(producers, &producer.Fixture{Cat: cat, ByDay: byCat[cat]})
	}
	return spec, producers
}

// TestPipeline_E2E runs the full reconciliation pipeline against the canned
// Seattle weekend and verifies the resolved plan end to end: fetch,
// normalize, resolve, assemble, export.
func TestPipeline_E2E(t *testing.T) {
	spec, producers := loadTestdata(t)

	engine := reconcile.New(reconcile.Config{}, producers, nil)

	// Drain progress events in the background so emission never stalls.
	progressCh := engine.Progress()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range progressCh {
			// discard
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := engine.Run(ctx, spec)
	require.NoError(t, err)

	engine.Close()
	<-drainDone

	assert.True(t, result.Complete)
	assert.Empty(t, result.Gaps)

	it := result.Itinerary
	require.Len(t, it.Days, 2)

	// Day 1: tour, check-in, dinner, symphony. The hockey game collides
	// with the symphony and loses on priority.
	day0 := slotNames(it.Days[0].Slots)
	assert.Equal(t, []string{
		"Underground Tour",
		"Hotel Andra Check-in",
		"Oyster Bar Dinner",
		"Symphony at Benaroya Hall",
	}, day0)

	require.Len(t, result.Rejections, 1)
	assert.Equal(t, "Hockey Game", result.Rejections[0].Name)
	assert.Equal(t, trip.ReasonOverlap, result.Rejections[0].Reason)

	// Day 2: checkout, lunch, museum.
	day1 := slotNames(it.Days[1].Slots)
	assert.Equal(t, []string{
		"Hotel Andra Checkout",
		"Seafood Lunch",
		"Museum of Pop Culture",
	}, day1)

	assert.Equal(t, 545.0, it.TotalSpend)
	assert.Equal(t, 190.0, it.SpendByCategory[trip.CategoryEvent])
	assert.Empty(t, it.Unresolved)

	// Export round-trip.
	out, err := export.MarshalJSON(result)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"complete": true`)

	chart := export.GenerateMermaid(it)
	assert.Contains(t, chart, "section Day 1 (Apr 1)")
	assert.Contains(t, chart, "Symphony at Benaroya Hall (event) :19:00, 21:00")
}

// TestPipeline_E2E_Deterministic reruns the pipeline and expects identical
// plans apart from the run ID.
func TestPipeline_E2E_Deterministic(t *testing.T) {
	spec, producers := loadTestdata(t)

	run := func() *trip.ReconciliationResult {
		engine := reconcile.New(reconcile.Config{}, producers, nil)
		defer engine.Close()

		result, err := engine.Run(context.Background(), spec)
		require.NoError(t, err)
		return result
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		for d := range first.Itinerary.Days {
			assert.Equal(t, slotNames(first.Itinerary.Days[d].Slots), slotNames(again.Itinerary.Days[d].Slots))
		}
		assert.Equal(t, first.Itinerary.TotalSpend, again.Itinerary.TotalSpend)
	}
}

func slotNames(slots []trip.ScheduleSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Name
	}
	return out
}
