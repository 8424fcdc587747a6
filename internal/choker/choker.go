// Package choker decides, once per round, which requesting peers get upload
// bandwidth and how much of it.
//
// Every Allocator honours the same contract: uploads only go to current
// requesters or to a single optimistic recipient, the granted bandwidth never
// sums past the local upload capacity, and a round without requests yields no
// uploads. Degenerate inputs (short history, nothing contributed, nobody left
// to explore) are absorbed here and never surface as errors.
package choker

import (
	"fmt"
	"math/rand"

	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

type Allocator interface {
	Allocate(self models.LocalPeer, requests []models.Request, peers []models.PeerInfo, h models.History) []models.Upload
}

// New returns the allocator named by cfg.Strategy. Each call owns fresh state.
func New(cfg config.Choking, rng *rand.Rand) (Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Strategy {
	case config.StrategyCooperative:
		return NewCooperative(cfg, rng), nil
	case config.StrategyProportional:
		return NewProportional(cfg, rng), nil
	case config.StrategyReciprocity:
		return NewReciprocity(cfg, rng), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStrategy, cfg.Strategy)
}

// requesterIDs lists each requester once, in order of first request.
func requesterIDs(requests []models.Request) []string {
	seen := make(map[string]struct{}, len(requests))
	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		if _, ok := seen[r.RequesterID]; ok {
			continue
		}
		seen[r.RequesterID] = struct{}{}
		ids = append(ids, r.RequesterID)
	}
	return ids
}

func grant(self models.LocalPeer, to string, bandwidth int) models.Upload {
	return models.Upload{FromID: self.ID, ToID: to, Bandwidth: bandwidth}
}
