// Package assemble orders resolved slots into day plans and aggregates
// trip-level totals. It re-validates the resolver's ordering invariant and
// fails with a ConsistencyError if it ever sees overlapping slots: that is a
// resolver bug, not a data problem.
package assemble

import (
	"fmt"
	"time"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// Assemble builds the final Itinerary from per-day schedules. slotsByDay is
// indexed by day and must cover the whole trip (empty days allowed). buffer
// is the transit buffer the resolver enforced between slots.
func Assemble(spec trip.TripSpec, slotsByDay [][]trip.ScheduleSlot, buffer time.Duration) (*trip.Itinerary, error) {
	if len(slotsByDay) != spec.Days() {
		return nil, &trip.ConsistencyError{
			Day: len(slotsByDay),
			Msg: fmt.Sprintf("%d day schedules for a %d-day trip", len(slotsByDay), spec.Days()),
		}
	}

	it := &trip.Itinerary{
		Destination:     spec.Destination,
		Days:            make([]trip.DayPlan, spec.Days()),
		SpendByCategory: make(map[trip.Category]float64),
	}

	for day, slots := range slotsByDay {
		if err := validateDay(day, slots, buffer); err != nil {
			return nil, err
		}

		var occupied time.Duration
		for i, s := range slots {
			occupied += s.Window.Duration()
			it.SpendByCategory[s.Category] += s.Cost
			it.TotalSpend += s.Cost
			it.TotalTravel += s.TravelIn
			if i == len(slots)-1 {
				it.TotalTravel += s.TravelOut
			}
		}

		idle := spec.DayWindow.Duration() - occupied
		if idle < 0 {
			idle = 0
		}

		it.Days[day] = trip.DayPlan{
			Day:   day,
			Date:  spec.Date(day),
			Slots: slots,
			Idle:  idle,
		}
		it.TotalIdle += idle

		for _, cat := range trip.Categories {
			if !hasCategory(slots, cat) {
				it.Unresolved = append(it.Unresolved, trip.Gap{
					Day:      day,
					Category: cat,
					Reason:   "no accepted candidate",
				})
			}
		}
	}

	return it, nil
}

// validateDay re-checks the resolver's invariant: slots sorted by start and
// non-overlapping once the transit buffer is applied.
func validateDay(day int, slots []trip.ScheduleSlot, buffer time.Duration) error {
	for i := 1; i < len(slots); i++ {
		prev, cur := slots[i-1], slots[i]
		if cur.Window.Start < prev.Window.Start {
			return &trip.ConsistencyError{
				Day: day,
				Msg: fmt.Sprintf("slots out of order: %q (%s) after %q (%s)", cur.Name, cur.Window, prev.Name, prev.Window),
			}
		}
		if cur.Window.Start < prev.Window.End.Add(buffer) {
			return &trip.ConsistencyError{
				Day: day,
				Msg: fmt.Sprintf("overlapping slots %q (%s) and %q (%s)", prev.Name, prev.Window, cur.Name, cur.Window),
			}
		}
	}
	return nil
}

func hasCategory(slots []trip.ScheduleSlot, cat trip.Category) bool {
	for _, s := range slots {
		if s.Category == cat {
			return true
		}
	}
	return false
}
