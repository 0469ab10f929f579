package reconcile

import (
	"time"

	"github.com/wayline-labs/tripweaver/internal/constraint"
	"github.com/wayline-labs/tripweaver/internal/trip"
)

// Defaults applied by Config.withDefaults. These are design defaults, all
// overridable through Config.
const (
	DefaultRetries            = 2
	DefaultCallTimeout        = 30 * time.Second
	DefaultRetryBackoff       = 500 * time.Millisecond
	DefaultTransitBuffer      = 30 * time.Minute
	DefaultDuplicateTolerance = 15 * time.Minute
)

// Config holds the engine's runtime options. It is supplied explicitly at
// construction; the engine reads no ambient state.
type Config struct {
	// Retries is the number of times a producer call is retried after the
	// first attempt, on transient failures only. Zero means the default;
	// negative disables retries.
	Retries int

	// CallTimeout bounds each individual producer call.
	CallTimeout time.Duration

	// RetryBackoff is the base delay between attempts; attempt n waits
	// n * RetryBackoff.
	RetryBackoff time.Duration

	// TransitBuffer is the minimum gap between consecutive slots.
	TransitBuffer time.Duration

	// DefaultDurations is the slot length per category for proposals that
	// arrive without a time window.
	DefaultDurations map[trip.Category]time.Duration

	// DuplicateTolerance is the overlap slack used when collapsing
	// near-identical proposals.
	DuplicateTolerance time.Duration

	// CategoryOrder overrides the fixed resolution priority. Defaults to
	// lodging, events, restaurants.
	CategoryOrder []trip.Category

	// Transit is the injected distance/time cost function. Nil disables
	// reachability checks and travel annotation.
	Transit constraint.TransitCostFn
}

func (c Config) withDefaults() Config {
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.TransitBuffer <= 0 {
		c.TransitBuffer = DefaultTransitBuffer
	}
	if c.DuplicateTolerance <= 0 {
		c.DuplicateTolerance = DefaultDuplicateTolerance
	}
	if len(c.CategoryOrder) == 0 {
		c.CategoryOrder = trip.Categories
	}
	if c.DefaultDurations == nil {
		c.DefaultDurations = map[trip.Category]time.Duration{
			trip.CategoryLodging:    time.Hour,
			trip.CategoryEvent:      2 * time.Hour,
			trip.CategoryRestaurant: 90 * time.Minute,
		}
	}
	return c
}
