// Package export renders a reconciled itinerary for consumers outside the
// engine: a stable JSON shape for tooling and a Mermaid gantt timeline for
// humans.
package export

import (
	"encoding/json"
	"time"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// ItineraryExport is the top-level JSON export structure.
type ItineraryExport struct {
	RunID       string       `json:"runId"`
	Destination string       `json:"destination"`
	ExportedAt  string       `json:"exportedAt"`
	Complete    bool         `json:"complete"`
	Days        []DayExport  `json:"days"`
	Totals      TotalsExport `json:"totals"`
	Gaps        []GapExport  `json:"gaps,omitempty"`
}

// DayExport describes one planned day.
type DayExport struct {
	Day   int          `json:"day"`
	Date  string       `json:"date"`
	Slots []SlotExport `json:"slots"`
}

// SlotExport describes a single scheduled slot.
type SlotExport struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Location      string  `json:"location,omitempty"`
	Cost          float64 `json:"cost"`
	TravelInMins  int     `json:"travelInMinutes,omitempty"`
	TravelOutMins int     `json:"travelOutMinutes,omitempty"`
}

// TotalsExport aggregates trip-level numbers.
type TotalsExport struct {
	Spend           float64            `json:"spend"`
	SpendByCategory map[string]float64 `json:"spendByCategory"`
	TravelMins      int                `json:"travelMinutes"`
	IdleMins        int                `json:"idleMinutes"`
}

// GapExport describes one unfilled day/category pair.
type GapExport struct {
	Day       int    `json:"day"`
	Category  string `json:"category"`
	Reason    string `json:"reason"`
	Transient bool   `json:"transient,omitempty"`
}

// BuildExport converts a ReconciliationResult into the export shape.
func BuildExport(result *trip.ReconciliationResult) *ItineraryExport {
	it := result.Itinerary

	export := &ItineraryExport{
		RunID:       result.RunID,
		Destination: it.Destination,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Complete:    result.Complete,
		Totals: TotalsExport{
			Spend:           it.TotalSpend,
			SpendByCategory: make(map[string]float64, len(it.SpendByCategory)),
			TravelMins:      int(it.TotalTravel.Minutes()),
			IdleMins:        int(it.TotalIdle.Minutes()),
		},
	}
	for cat, spend := range it.SpendByCategory {
		export.Totals.SpendByCategory[string(cat)] = spend
	}

	for _, day := range it.Days {
		de := DayExport{Day: day.Day, Date: day.Date.Format("2006-01-02")}
		for _, s := range day.Slots {
			de.Slots = append(de.Slots, SlotExport{
				Name:          s.Name,
				Category:      string(s.Category),
				Start:         s.Window.Start.String(),
				End:           s.Window.End.String(),
				Location:      s.Location.Name,
				Cost:          s.Cost,
				TravelInMins:  int(s.TravelIn.Minutes()),
				TravelOutMins: int(s.TravelOut.Minutes()),
			})
		}
		export.Days = append(export.Days, de)
	}

	// A failed producer leaves its category empty, so the assembler records
	// the same (day, category) pair again; keep the producer-error reason.
	type gapKey struct {
		day int
		cat trip.Category
	}
	seen := make(map[gapKey]bool)
	for _, g := range result.Gaps {
		seen[gapKey{g.Day, g.Category}] = true
		export.Gaps = append(export.Gaps, GapExport{
			Day:       g.Day,
			Category:  string(g.Category),
			Reason:    g.Reason,
			Transient: g.Transient,
		})
	}
	for _, g := range it.Unresolved {
		if seen[gapKey{g.Day, g.Category}] {
			continue
		}
		export.Gaps = append(export.Gaps, GapExport{
			Day:      g.Day,
			Category: string(g.Category),
			Reason:   g.Reason,
		})
	}

	return export
}

// MarshalJSON renders the result as indented JSON.
func MarshalJSON(result *trip.ReconciliationResult) ([]byte, error) {
	return json.MarshalIndent(BuildExport(result), "", "  ")
}
