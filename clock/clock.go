// Package clock exposes the logical time of the simulation. A round is one
// simulated hour; its id grows monotonically and post visibility is measured
// in rounds.
package clock

import (
	"context"

	"github.com/Luismorlan/feedsim/model"
)

// Service reads and advances the simulation clock.
type Service interface {
	// CurrentRound returns the latest round, creating round (day 0, hour 0)
	// on a fresh store.
	CurrentRound(ctx context.Context) (model.Round, error)
	// Advance moves the clock to (day, hour), reusing the round if the clock
	// has been there before.
	Advance(ctx context.Context, day, hour int) (model.Round, error)
}

type roundStore interface {
	CurrentRound(ctx context.Context) (model.Round, error)
	RoundAt(ctx context.Context, day, hour int) (model.Round, error)
}

// StoreClock reads the clock straight from the event store.
type StoreClock struct {
	store roundStore
}

var _ Service = (*StoreClock)(nil)

func NewStoreClock(store roundStore) *StoreClock {
	return &StoreClock{store: store}
}

func (c *StoreClock) CurrentRound(ctx context.Context) (model.Round, error) {
	return c.store.CurrentRound(ctx)
}

func (c *StoreClock) Advance(ctx context.Context, day, hour int) (model.Round, error) {
	return c.store.RoundAt(ctx, day, hour)
}

// Horizon returns the oldest round still visible with a window of
// visibilityRounds, i.e. current round id minus the window. Posts with
// round >= Horizon are visible. The result may be negative.
func Horizon(ctx context.Context, svc Service, visibilityRounds int64) (int64, error) {
	round, err := svc.CurrentRound(ctx)
	if err != nil {
		return 0, err
	}
	return round.Id - visibilityRounds, nil
}
