// Package producer defines the external suggestion sources the engine
// consumes: one producer per category, each returning raw Candidate-like
// records for a single trip day. Producer calls must be side-effect free so
// the engine can retry them.
package producer

import (
	"context"

	"github.com/wayline-labs/tripweaver/internal/trip"
)

// Producer is the contract for one suggestion source.
type Producer interface {
	// Category identifies which candidate category this producer feeds.
	Category() trip.Category

	// Propose returns raw proposals for one trip day. It must respect the
	// caller-supplied context deadline and must be safe to retry.
	Propose(ctx context.Context, spec trip.TripSpec, day int) ([]trip.RawProposal, error)
}

// Fixture is a canned producer used for offline runs and tests.
type Fixture struct {
	Cat   trip.Category
	ByDay map[int][]trip.RawProposal
	Err   error
}

func (f *Fixture) Category() trip.Category { return f.Cat }

func (f *Fixture) Propose(_ context.Context, _ trip.TripSpec, day int) ([]trip.RawProposal, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	raws := make([]trip.RawProposal, len(f.ByDay[day]))
	copy(raws, f.ByDay[day])
	for i := range raws {
		raws[i].Day = day
	}
	return raws, nil
}
