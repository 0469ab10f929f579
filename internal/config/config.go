// Package config loads project-level settings from tripweaver.yml and trip
// request files. The engine itself never reads these: everything is turned
// into explicit values before construction.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wayline-labs/tripweaver/internal/reconcile"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// ProjectConfig holds settings loaded from tripweaver.yml.
type ProjectConfig struct {
	// Model is the Gemini model name; empty uses the producer default.
	Model string `yaml:"model,omitempty"`

	// Temperature is the Gemini sampling temperature; zero uses the
	// producer default.
	Temperature float64 `yaml:"temperature,omitempty"`

	// APIKeyEnv names the environment variable holding the Gemini API key.
	// Defaults to GEMINI_API_KEY.
	APIKeyEnv string `yaml:"apiKeyEnv,omitempty"`

	LogLevel string `yaml:"logLevel,omitempty"`

	Retries              int            `yaml:"retries,omitempty"`
	CallTimeoutSeconds   int            `yaml:"callTimeoutSeconds,omitempty"`
	TransitBufferMinutes int            `yaml:"transitBufferMinutes,omitempty"`
	DefaultDurations     map[string]int `yaml:"defaultDurationsMinutes,omitempty"`
	CategoryOrder        []string       `yaml:"categoryOrder,omitempty"`
}

// Load attempts to read tripweaver.yml or tripweaver.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"tripweaver.yml", "tripweaver.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// APIKey resolves the Gemini API key from the configured environment
// variable.
func (c *ProjectConfig) APIKey() string {
	env := c.APIKeyEnv
	if env == "" {
		env = "GEMINI_API_KEY"
	}
	return os.Getenv(env)
}

// EngineConfig converts the file settings into an explicit engine Config.
// Unset fields stay zero so the engine applies its own defaults.
func (c *ProjectConfig) EngineConfig() reconcile.Config {
	cfg := reconcile.Config{
		Retries:       c.Retries,
		CallTimeout:   time.Duration(c.CallTimeoutSeconds) * time.Second,
		TransitBuffer: time.Duration(c.TransitBufferMinutes) * time.Minute,
	}
	if len(c.DefaultDurations) > 0 {
		cfg.DefaultDurations = make(map[trip.Category]time.Duration, len(c.DefaultDurations))
		for cat, minutes := range c.DefaultDurations {
			cfg.DefaultDurations[trip.Category(cat)] = time.Duration(minutes) * time.Minute
		}
	}
	for _, cat := range c.CategoryOrder {
		cfg.CategoryOrder = append(cfg.CategoryOrder, trip.Category(cat))
	}
	return cfg
}

// TripFile is the on-disk trip request shape.
type TripFile struct {
	Destination string             `yaml:"destination"`
	StartDate   string             `yaml:"startDate"`
	EndDate     string             `yaml:"endDate"`
	DayOpen     string             `yaml:"dayOpen"`
	DayClose    string             `yaml:"dayClose"`
	TotalBudget float64            `yaml:"totalBudget"`
	Caps        map[string]float64 `yaml:"categoryCaps,omitempty"`
	Anchors     []AnchorFile       `yaml:"anchors,omitempty"`

	Preferences        []string `yaml:"preferences,omitempty"`
	CuisinePreferences []string `yaml:"cuisinePreferences,omitempty"`
	PartySize          int      `yaml:"partySize,omitempty"`
}

// AnchorFile is one per-day anchor location in a trip file.
type AnchorFile struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat,omitempty"`
	Lng  float64 `yaml:"lng,omitempty"`
}

// LoadTrip reads a trip request file and converts it into a validated
// TripSpec.
func LoadTrip(path string) (trip.TripSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return trip.TripSpec{}, fmt.Errorf("read trip file: %w", err)
	}
	var tf TripFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return trip.TripSpec{}, fmt.Errorf("parse trip file %s: %w", path, err)
	}
	return tf.Spec()
}

// Spec converts the file shape into a validated TripSpec.
func (t TripFile) Spec() (trip.TripSpec, error) {
	start, err := time.Parse("2006-01-02", t.StartDate)
	if err != nil {
		return trip.TripSpec{}, fmt.Errorf("parse startDate: %w", err)
	}
	end, err := time.Parse("2006-01-02", t.EndDate)
	if err != nil {
		return trip.TripSpec{}, fmt.Errorf("parse endDate: %w", err)
	}

	window := trip.Window{}
	if t.DayOpen != "" {
		if window.Start, err = trip.ParseClock(t.DayOpen); err != nil {
			return trip.TripSpec{}, err
		}
	}
	if t.DayClose != "" {
		if window.End, err = trip.ParseClock(t.DayClose); err != nil {
			return trip.TripSpec{}, err
		}
	}
	if window.IsZero() {
		// 08:00-22:00 unless the trip file says otherwise.
		window = trip.Window{Start: 8 * 60, End: 22 * 60}
	}

	spec := trip.TripSpec{
		Destination:        t.Destination,
		StartDate:          start,
		EndDate:            end,
		DayWindow:          window,
		TotalBudget:        t.TotalBudget,
		Preferences:        t.Preferences,
		CuisinePreferences: t.CuisinePreferences,
		PartySize:          t.PartySize,
	}

	if len(t.Caps) > 0 {
		spec.CategoryCaps = make(map[trip.Category]float64, len(t.Caps))
		for cat, limit := range t.Caps {
			spec.CategoryCaps[trip.Category(cat)] = limit
		}
	}
	for _, a := range t.Anchors {
		spec.Anchors = append(spec.Anchors, trip.Location{
			Name:  a.Name,
			Lat:   a.Lat,
			Lng:   a.Lng,
			Known: a.Lat != 0 || a.Lng != 0,
		})
	}

	if err := spec.Validate(); err != nil {
		return trip.TripSpec{}, err
	}
	return spec, nil
}
