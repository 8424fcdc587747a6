package choker

import (
	"math/rand"
	"sort"

	"github.com/anacrolix/multiless"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/WendelHime/swarmcore/internal/bandwidth"
	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/history"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

// Cooperative unchokes Slots-1 requesters ranked by the blocks they sent us
// over the last Window rounds, plus one optimistic requester redrawn every
// OptimisticPeriod rounds, and splits the capacity evenly between them.
//
// The ranking is ascending unless RewardGenerous is set, so by default the
// least cooperative requesters are preferred.
type Cooperative struct {
	cfg        config.Choking
	rng        *rand.Rand
	optimistic string
}

func NewCooperative(cfg config.Choking, rng *rand.Rand) *Cooperative {
	return &Cooperative{cfg: cfg, rng: rng}
}

// Optimistic returns the current optimistic pick, empty before the first draw.
func (c *Cooperative) Optimistic() string {
	return c.optimistic
}

func (c *Cooperative) Allocate(self models.LocalPeer, requests []models.Request, peers []models.PeerInfo, h models.History) []models.Upload {
	if len(requests) == 0 {
		return nil
	}

	tr := history.NewTracker(h)
	round := tr.CurrentRound()
	scores := tr.ReceivedOverWindow(c.cfg.Window)

	requesters := requesterIDs(requests)
	sort.SliceStable(requesters, func(i, j int) bool {
		l, r := scores[requesters[i]], scores[requesters[j]]
		var ml multiless.Computation
		if c.cfg.RewardGenerous {
			ml = ml.Int(r, l)
		} else {
			ml = ml.Int(l, r)
		}
		return ml.Less()
	})

	regular := min(c.cfg.Slots-1, len(requesters))
	chosen := append([]string(nil), requesters[:regular]...)
	unchoked := mapset.NewThreadUnsafeSet(chosen...)

	if round%c.cfg.OptimisticPeriod == 0 || c.optimistic == "" {
		if pool := requesters[regular:]; len(pool) > 0 {
			c.optimistic = pool[c.rng.Intn(len(pool))]
			chosen = append(chosen, c.optimistic)
		}
	} else if !unchoked.Contains(c.optimistic) {
		chosen = append(chosen, c.optimistic)
	}

	shares := bandwidth.EvenSplit(self.UploadCapacity, len(chosen))
	if len(shares) != len(chosen) {
		return nil
	}
	uploads := make([]models.Upload, 0, len(chosen))
	for i, id := range chosen {
		uploads = append(uploads, grant(self, id, shares[i]))
	}
	return uploads
}
