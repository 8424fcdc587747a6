package choker

import (
	"math/rand"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/WendelHime/swarmcore/internal/bandwidth"
	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/history"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

// Proportional pays requesters back in proportion to what they sent us last
// round. While some requester sent nothing, only ProportionalShare of the
// capacity is paid back and the whole remainder goes to one of them at random.
type Proportional struct {
	cfg config.Choking
	rng *rand.Rand
}

func NewProportional(cfg config.Choking, rng *rand.Rand) *Proportional {
	return &Proportional{cfg: cfg, rng: rng}
}

func (p *Proportional) Allocate(self models.LocalPeer, requests []models.Request, peers []models.PeerInfo, h models.History) []models.Upload {
	if len(requests) == 0 {
		return nil
	}

	tr := history.NewTracker(h)
	received := tr.ReceivedIn(tr.CurrentRound() - 1)

	requesters := requesterIDs(requests)
	contributors := make([]string, 0, len(requesters))
	for _, id := range requesters {
		if received[id] > 0 {
			contributors = append(contributors, id)
		}
	}
	unrewarded := mapset.NewThreadUnsafeSet(requesters...).Difference(mapset.NewThreadUnsafeSet(contributors...))

	fraction := 1.0
	if unrewarded.Cardinality() > 0 {
		fraction = p.cfg.ProportionalShare
	}

	// shares are computed against everyone who sent blocks, requesting or not
	uploaders := make([]string, 0, len(received))
	for id := range received {
		uploaders = append(uploaders, id)
	}
	sort.Strings(uploaders)
	weights := make([]int, len(uploaders))
	for i, id := range uploaders {
		weights[i] = received[id]
	}
	shareOf := make(map[string]int, len(uploaders))
	for i, share := range bandwidth.Proportional(self.UploadCapacity, weights, fraction) {
		shareOf[uploaders[i]] = share
	}

	uploads := make([]models.Upload, 0, len(contributors)+1)
	granted := make([]int, 0, len(contributors))
	for _, id := range contributors {
		if shareOf[id] == 0 {
			continue
		}
		granted = append(granted, shareOf[id])
		uploads = append(uploads, grant(self, id, shareOf[id]))
	}
	spent := bandwidth.Sum(granted)

	if unrewarded.Cardinality() == 0 {
		return uploads
	}
	pool := unrewarded.ToSlice()
	sort.Strings(pool)
	explore := pool[p.rng.Intn(len(pool))]
	if rest := self.UploadCapacity - spent; rest > 0 {
		uploads = append(uploads, grant(self, explore, rest))
	}
	return uploads
}
