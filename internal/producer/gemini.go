package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "models/gemini-1.5-pro"

// DefaultTemperature is the sampling temperature used when none is
// configured.
const DefaultTemperature float32 = 0.7

// generativeModel is the subset of *genai.GenerativeModel the producers
// call, extracted so tests can substitute a fake.
type generativeModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini owns one genai client and hands out per-category producers.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	log         *zap.Logger
}

// NewGemini creates a Gemini producer factory. modelName may be empty to use
// DefaultModel; temperature zero or below means DefaultTemperature.
func NewGemini(ctx context.Context, apiKey, modelName string, temperature float32, log *zap.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{client: client, model: modelName, temperature: temperature, log: log}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error { return g.client.Close() }

// Producer returns a producer for the given category backed by this client.
func (g *Gemini) Producer(cat trip.Category) *LLMProducer {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(generationTemperature(g.temperature))
	model.ResponseMIMEType = "application/json"
	return &LLMProducer{cat: cat, model: model, log: g.log.With(zap.String("producer", string(cat)))}
}

// generationTemperature resolves the configured sampling temperature; zero or
// negative falls back to DefaultTemperature.
func generationTemperature(configured float32) float32 {
	if configured <= 0 {
		return DefaultTemperature
	}
	return configured
}

// LLMProducer generates proposals for one category by prompting a Gemini
// model and parsing its strict-JSON reply.
type LLMProducer struct {
	cat   trip.Category
	model generativeModel
	log   *zap.Logger
}

func (p *LLMProducer) Category() trip.Category { return p.cat }

// Propose prompts the model for one day's proposals. Call failures are
// transient (retryable); a reply that fails to parse is not, since retrying
// the same prompt rarely fixes a malformed contract.
func (p *LLMProducer) Propose(ctx context.Context, spec trip.TripSpec, day int) ([]trip.RawProposal, error) {
	prompt := buildPrompt(p.cat, spec, day)

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &trip.ProducerError{Category: p.cat, Day: day, Transient: true, Err: err}
	}

	text := extractText(resp)
	raws, err := ParseProposals(text)
	if err != nil {
		p.log.Warn("malformed producer response", zap.Int("day", day), zap.Error(err))
		return nil, &trip.ProducerError{Category: p.cat, Day: day, Transient: false, Err: err}
	}

	for i := range raws {
		raws[i].Day = day
		if raws[i].Source == "" {
			raws[i].Source = "gemini:" + string(p.cat)
		}
	}

	p.log.Debug("proposals generated", zap.Int("day", day), zap.Int("count", len(raws)))
	return raws, nil
}

// proposalEnvelope tolerates models that wrap the array in an object.
type proposalEnvelope struct {
	Proposals []trip.RawProposal `json:"proposals"`
}

// ParseProposals decodes a producer reply: either a bare JSON array of
// proposals or an object with a "proposals" field, optionally wrapped in a
// markdown code fence.
func ParseProposals(text string) ([]trip.RawProposal, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	if strings.HasPrefix(text, "[") {
		var raws []trip.RawProposal
		if err := json.Unmarshal([]byte(text), &raws); err != nil {
			return nil, fmt.Errorf("decode proposal array: %w", err)
		}
		return raws, nil
	}

	var env proposalEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, fmt.Errorf("decode proposal envelope: %w", err)
	}
	if env.Proposals == nil {
		return nil, fmt.Errorf("response has no proposals field")
	}
	return env.Proposals, nil
}

// stripFence removes a surrounding ```json ... ``` markdown fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

// buildPrompt renders the per-category request. Preference fields from the
// TripSpec feed the prompt verbatim; the engine never interprets them.
func buildPrompt(cat trip.Category, spec trip.TripSpec, day int) string {
	date := spec.Date(day).Format("2006-01-02")

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a travel planning assistant for %s.\n", spec.Destination)
	fmt.Fprintf(&sb, "Date: %s (day %d of %d). Active hours: %s to %s.\n",
		date, day+1, spec.Days(), spec.DayWindow.Start, spec.DayWindow.End)

	switch cat {
	case trip.CategoryLodging:
		sb.WriteString("Suggest lodging and transit legs for this day: check-ins, check-outs, and transfers between areas.\n")
	case trip.CategoryEvent:
		sb.WriteString("Suggest events and activities for this day.\n")
		if len(spec.Preferences) > 0 {
			fmt.Fprintf(&sb, "Traveler interests: %s.\n", strings.Join(spec.Preferences, ", "))
		}
	case trip.CategoryRestaurant:
		sb.WriteString("Suggest restaurants for this day, at most one per meal.\n")
		if len(spec.CuisinePreferences) > 0 {
			fmt.Fprintf(&sb, "Cuisine preferences: %s.\n", strings.Join(spec.CuisinePreferences, ", "))
		}
		if spec.PartySize > 0 {
			fmt.Fprintf(&sb, "Party size: %d.\n", spec.PartySize)
		}
	}

	if limit, ok := spec.Cap(cat); ok {
		fmt.Fprintf(&sb, "Budget for this category across the whole trip: %.2f USD.\n", limit)
	}

	sb.WriteString(`Respond with a JSON array only. Each element:
{"name": string, "description": string, "start_time": "HH:MM", "end_time": "HH:MM", "location": string, "lat": number, "lng": number, "cost": number, "confidence": number between 0 and 1}
Omit start_time/end_time if the item has no fixed schedule. Costs are in USD for the whole party.`)

	return sb.String()
}
