// Package mcptools exposes the reconciliation engine over MCP so external
// callers can request plans without knowing the engine's Go API.
package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wayline-labs/tripweaver/internal/config"
	"github.com/wayline-labs/tripweaver/internal/reconcile"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// PlannerService holds the engine the MCP tool handlers run against.
type PlannerService struct {
	engine *reconcile.Engine
}

// NewPlannerService creates a PlannerService backed by the given engine.
func NewPlannerService(engine *reconcile.Engine) *PlannerService {
	return &PlannerService{engine: engine}
}

// --- MCP tool input/output types ---
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// PlanTripInput is the input for the plan_trip MCP tool.
type PlanTripInput struct {
	Destination  string             `json:"destination" jsonschema:"city or destination name"`
	StartDate    string             `json:"startDate" jsonschema:"trip start date, YYYY-MM-DD"`
	EndDate      string             `json:"endDate" jsonschema:"trip end date, YYYY-MM-DD, inclusive"`
	DayOpen      string             `json:"dayOpen,omitempty" jsonschema:"earliest daily activity time, HH:MM (default 08:00)"`
	DayClose     string             `json:"dayClose,omitempty" jsonschema:"latest daily activity time, HH:MM (default 22:00)"`
	TotalBudget  float64            `json:"totalBudget" jsonschema:"total trip budget in USD"`
	CategoryCaps map[string]float64 `json:"categoryCaps,omitempty" jsonschema:"per-category budget caps keyed by lodging, event, restaurant"`

	Preferences        []string `json:"preferences,omitempty" jsonschema:"traveler interests, e.g. culture, food, nature"`
	CuisinePreferences []string `json:"cuisinePreferences,omitempty" jsonschema:"cuisine preferences for restaurant suggestions"`
	PartySize          int      `json:"partySize,omitempty" jsonschema:"number of travelers"`
}

// PlanTripOutput is the result of the plan_trip MCP tool.
type PlanTripOutput struct {
	Result *trip.ReconciliationResult `json:"result"`
}

// ValidateTripInput is the input for the validate_trip MCP tool.
type ValidateTripInput = PlanTripInput

// ValidateTripOutput is the result of the validate_trip MCP tool.
type ValidateTripOutput struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// PlanTrip runs a full reconciliation and returns the complete or partial
// itinerary.
func (s *PlannerService) PlanTrip(ctx context.Context, _ *mcp.CallToolRequest, input PlanTripInput) (*mcp.CallToolResult, PlanTripOutput, error) {
	spec, err := toSpec(input)
	if err != nil {
		return nil, PlanTripOutput{}, err
	}

	result, err := s.engine.Run(ctx, spec)
	if err != nil {
		return nil, PlanTripOutput{}, fmt.Errorf("reconcile trip: %w", err)
	}
	return nil, PlanTripOutput{Result: result}, nil
}

// ValidateTrip checks a trip request without calling any producer.
func (s *PlannerService) ValidateTrip(_ context.Context, _ *mcp.CallToolRequest, input ValidateTripInput) (*mcp.CallToolResult, ValidateTripOutput, error) {
	if _, err := toSpec(input); err != nil {
		return nil, ValidateTripOutput{Problems: []string{err.Error()}}, nil
	}
	return nil, ValidateTripOutput{Valid: true}, nil
}

func toSpec(input PlanTripInput) (trip.TripSpec, error) {
	tf := config.TripFile{
		Destination:        input.Destination,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		DayOpen:            input.DayOpen,
		DayClose:           input.DayClose,
		TotalBudget:        input.TotalBudget,
		Caps:               input.CategoryCaps,
		Preferences:        input.Preferences,
		CuisinePreferences: input.CuisinePreferences,
		PartySize:          input.PartySize,
	}
	return tf.Spec()
}
