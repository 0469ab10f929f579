// Package trip defines the data model shared across the reconciliation
// pipeline: the immutable TripSpec, candidate representations at each
// pipeline step, the assembled itinerary, and the error taxonomy.
package trip

import (
	"fmt"
	"time"
)

// Category identifies which producer a candidate came from and which budget
// cap it draws on.
type Category string

const (
	// CategoryLodging covers lodging and transit legs. These anchor a day's
	// start and end and are resolved before everything else.
	CategoryLodging Category = "lodging"

	CategoryEvent      Category = "event"
	CategoryRestaurant Category = "restaurant"
)

// Categories lists all categories in their default resolution priority
// order: lodging pins the day, events fit around it, restaurants fit last.
var Categories = []Category{CategoryLodging, CategoryEvent, CategoryRestaurant}

// TripSpec holds the fixed parameters of a trip. It is created once by the
// caller and read-only for the engine's lifetime.
type TripSpec struct {
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`

	// DayWindow is the active window of each day; candidates outside it are
	// rejected with reason "window".
	DayWindow Window `json:"dayWindow"`

	TotalBudget  float64              `json:"totalBudget"`
	CategoryCaps map[Category]float64 `json:"categoryCaps"`

	// Anchors optionally pins a base location per day (e.g. the hotel).
	// When present its length must equal Days().
	Anchors []Location `json:"anchors,omitempty"`

	// Preference fields feed producer prompt construction only; the core
	// never interprets them.
	Preferences        []string `json:"preferences,omitempty"`
	CuisinePreferences []string `json:"cuisinePreferences,omitempty"`
	PartySize          int      `json:"partySize,omitempty"`
}

// Days returns the trip length in days, inclusive of both endpoints.
func (s TripSpec) Days() int {
	return int(s.EndDate.Sub(s.StartDate).Hours()/24) + 1
}

// Date returns the calendar date of the given day index.
func (s TripSpec) Date(day int) time.Time {
	return s.StartDate.AddDate(0, 0, day)
}

// Validate checks the TripSpec invariants: end date not before start date,
// a non-empty day window, and non-negative caps.
func (s TripSpec) Validate() error {
	if s.EndDate.Before(s.StartDate) {
		return &ValidationError{Field: "endDate", Msg: "end date before start date"}
	}
	if s.DayWindow.Start >= s.DayWindow.End {
		return &ValidationError{Field: "dayWindow", Msg: fmt.Sprintf("empty day window %s", s.DayWindow)}
	}
	if s.TotalBudget < 0 {
		return &ValidationError{Field: "totalBudget", Msg: "negative budget"}
	}
	for cat, limit := range s.CategoryCaps {
		if limit < 0 {
			return &ValidationError{Field: string(cat), Msg: "negative category cap"}
		}
	}
	if len(s.Anchors) > 0 && len(s.Anchors) != s.Days() {
		return &ValidationError{
			Field: "anchors",
			Msg:   fmt.Sprintf("%d anchors for %d days", len(s.Anchors), s.Days()),
		}
	}
	return nil
}

// Cap returns the budget cap for a category. A missing entry means
// "unbounded within the total budget".
func (s TripSpec) Cap(cat Category) (float64, bool) {
	c, ok := s.CategoryCaps[cat]
	return c, ok
}

// Candidate is one proposed bookable item from a producer.
type Candidate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Detail   string   `json:"detail,omitempty"`
	Category Category `json:"category"`
	Day      int      `json:"day"`
	Window   Window   `json:"window"`

	// Flexible marks a window assigned during normalization rather than
	// fixed by the producer.
	Flexible bool `json:"flexible,omitempty"`

	Location Location `json:"location"`
	Cost     float64  `json:"cost"`

	// Priority is the producer-assigned confidence score; higher wins ties.
	Priority float64 `json:"priority"`

	Source string `json:"source,omitempty"`
}

// NormalizedCandidate is a Candidate whose time window has been fully
// resolved against the trip's day window. Unknown lists the fields the
// producer left unset, so gaps are explicit rather than silently defaulted.
type NormalizedCandidate struct {
	Candidate
	Unknown []string `json:"unknown,omitempty"`
}

// ScheduleSlot is a candidate accepted into the plan for a specific day,
// annotated with computed travel time to its neighbors.
type ScheduleSlot struct {
	Candidate
	TravelIn  time.Duration `json:"travelIn"`
	TravelOut time.Duration `json:"travelOut"`
}

// DayPlan is the ordered schedule for one day. Slots are sorted by start
// time and non-overlapping once the transit buffer is applied.
type DayPlan struct {
	Day   int            `json:"day"`
	Date  time.Time      `json:"date"`
	Slots []ScheduleSlot `json:"slots"`

	// Idle is the unscheduled time left inside the day window.
	Idle time.Duration `json:"idle"`
}

// Itinerary is the assembled plan for the whole trip.
type Itinerary struct {
	Destination string    `json:"destination"`
	Days        []DayPlan `json:"days"`

	SpendByCategory map[Category]float64 `json:"spendByCategory"`
	TotalSpend      float64              `json:"totalSpend"`
	TotalTravel     time.Duration        `json:"totalTravel"`
	TotalIdle       time.Duration        `json:"totalIdle"`

	// Unresolved lists day/category pairs that ended with no accepted slot.
	Unresolved []Gap `json:"unresolved,omitempty"`
}

// RejectReason is the first constraint a rejected candidate failed.
type RejectReason string

const (
	ReasonBudget      RejectReason = "budget"
	ReasonOverlap     RejectReason = "overlap"
	ReasonUnreachable RejectReason = "unreachable"
	ReasonWindow      RejectReason = "window"
	ReasonUnplaceable RejectReason = "unplaceable"
	ReasonDuplicate   RejectReason = "duplicate"
	ReasonInvalid     RejectReason = "invalid"
)

// Rejection records why a single candidate was excluded. Rejections are
// accumulated, never raised.
type Rejection struct {
	CandidateID string       `json:"candidateId"`
	Name        string       `json:"name,omitempty"`
	Day         int          `json:"day"`
	Category    Category     `json:"category"`
	Reason      RejectReason `json:"reason"`
	Detail      string       `json:"detail,omitempty"`
}

// Gap marks a day/category pair the engine could not fill, with the reason.
type Gap struct {
	Day       int      `json:"day"`
	Category  Category `json:"category"`
	Reason    string   `json:"reason"`
	Transient bool     `json:"transient,omitempty"`
}

// ReconciliationResult is the engine's sole output: a complete itinerary, or
// a partial one paired with an enumerable list of gaps.
type ReconciliationResult struct {
	RunID     string     `json:"runId"`
	Itinerary *Itinerary `json:"itinerary"`

	// Complete is true when no producer failed and every day resolved a slot
	// for every category.
	Complete bool `json:"complete"`

	Gaps       []Gap       `json:"gaps,omitempty"`
	Rejections []Rejection `json:"rejections,omitempty"`
}
