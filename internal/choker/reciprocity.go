package choker

import (
	"math"
	"math/rand"
	"sort"

	"github.com/anacrolix/multiless"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/history"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

// PeerState is what the reciprocity allocator believes about one remote peer.
type PeerState struct {
	// ExpectedDownload is the number of blocks the peer returned last time it
	// uploaded to us.
	ExpectedDownload float64
	// ExpectedUpload is the bandwidth we expect to spend to stay unchoked by it.
	ExpectedUpload float64
	// Streak counts consecutive rounds the peer uploaded to us.
	Streak int
}

func (s PeerState) ratio() float64 {
	return s.ExpectedDownload / s.ExpectedUpload
}

// Reciprocity buys the best return per unit of bandwidth first. Peers that
// keep reciprocating get cheaper over time, peers that stop get dearer.
type Reciprocity struct {
	cfg   config.Choking
	rng   *rand.Rand
	peers map[string]*PeerState
	// observed is the last round whose history was folded into peers.
	observed int
}

func NewReciprocity(cfg config.Choking, rng *rand.Rand) *Reciprocity {
	return &Reciprocity{cfg: cfg, rng: rng, peers: make(map[string]*PeerState), observed: 0}
}

// PeerState returns a copy of the state kept for id.
func (r *Reciprocity) PeerState(id string) (PeerState, bool) {
	st, ok := r.peers[id]
	if !ok {
		return PeerState{}, false
	}
	return *st, true
}

func (r *Reciprocity) state(id string) *PeerState {
	st, ok := r.peers[id]
	if !ok {
		st = &PeerState{ExpectedDownload: 0, ExpectedUpload: 1, Streak: 0}
		r.peers[id] = st
	}
	return st
}

// observe folds the previous round into the per-peer state, at most once per
// round, then registers peers seen for the first time.
func (r *Reciprocity) observe(self models.LocalPeer, requesters []string, peers []models.PeerInfo, h models.History) {
	tr := history.NewTracker(h)
	round := tr.CurrentRound()
	if round > r.observed {
		r.observed = round
		received := tr.ReceivedIn(round - 1)
		uploaders := tr.Uploaders(round - 1)
		for id, st := range r.peers {
			if uploaders.Contains(id) {
				continue
			}
			st.ExpectedUpload *= r.cfg.GrowFactor
			st.Streak = 0
		}
		for _, id := range uploaders.ToSlice() {
			st := r.state(id)
			st.ExpectedDownload = float64(received[id])
			st.Streak++
			if st.Streak >= r.cfg.StreakThreshold {
				st.ExpectedUpload *= r.cfg.ShrinkFactor
			}
		}
	}

	for _, p := range peers {
		if p.ID != self.ID {
			r.state(p.ID)
		}
	}
	for _, id := range requesters {
		r.state(id)
	}
}

func (r *Reciprocity) Allocate(self models.LocalPeer, requests []models.Request, peers []models.PeerInfo, h models.History) []models.Upload {
	requesters := requesterIDs(requests)
	r.observe(self, requesters, peers, h)
	if len(requests) == 0 {
		return nil
	}

	r.rng.Shuffle(len(requesters), func(i, j int) {
		requesters[i], requesters[j] = requesters[j], requesters[i]
	})
	sort.SliceStable(requesters, func(i, j int) bool {
		var ml multiless.Computation
		ml = ml.Float64(r.peers[requesters[j]].ratio(), r.peers[requesters[i]].ratio())
		return ml.Less()
	})

	uploads := make([]models.Upload, 0, len(requesters))
	admitted := mapset.NewThreadUnsafeSet[string]()
	spent := 0
	for _, id := range requesters {
		// bandwidth is granted in whole blocks, so a peer never costs less than 1
		cost := int(math.Ceil(r.peers[id].ExpectedUpload))
		if spent+cost > self.UploadCapacity {
			break
		}
		spent += cost
		admitted.Add(id)
		uploads = append(uploads, grant(self, id, cost))
	}

	rest := self.UploadCapacity - spent
	if rest <= 0 {
		return uploads
	}
	if optimistic, ok := r.optimistic(self, requesters, admitted); ok {
		uploads = append(uploads, grant(self, optimistic, rest))
	}
	return uploads
}

// optimistic draws a requester that was not admitted, falling back to any
// known peer when every requester already was.
func (r *Reciprocity) optimistic(self models.LocalPeer, ranked []string, admitted mapset.Set[string]) (string, bool) {
	pool := make([]string, 0, len(ranked))
	for _, id := range ranked {
		if !admitted.Contains(id) {
			pool = append(pool, id)
		}
	}
	if len(pool) == 0 {
		for id := range r.peers {
			if id != self.ID && !admitted.Contains(id) {
				pool = append(pool, id)
			}
		}
		sort.Strings(pool)
	}
	if len(pool) == 0 {
		return "", false
	}
	return pool[r.rng.Intn(len(pool))], true
}
