package selector

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/WendelHime/swarmcore/internal/shared/models"
)

// Selector emits the block requests of one peer for one round.
type Selector interface {
	Select(self models.LocalPeer, peers []models.PeerInfo) []models.Request
}

type rarestFirst struct {
	rng        *rand.Rand
	seedPrefix string
}

// NewRarestFirst returns a Selector that asks for the scarcest needed pieces
// first. rng breaks ties between pieces of equal rarity.
func NewRarestFirst(rng *rand.Rand, seedPrefix string) Selector {
	return &rarestFirst{rng: rng, seedPrefix: seedPrefix}
}

type neededPiece struct {
	index  int
	owners []string
}

func (s *rarestFirst) Select(self models.LocalPeer, peers []models.PeerInfo) []models.Request {
	if len(self.Pieces) == 0 {
		return nil
	}
	if self.HeldBlocks() == 0 {
		return s.bootstrap(self, peers)
	}

	needed := make([]*neededPiece, 0, len(self.Pieces))
	for i := range self.Pieces {
		if !self.Complete(i) {
			needed = append(needed, &neededPiece{index: i})
		}
	}
	for _, peer := range peers {
		for _, piece := range needed {
			if peer.Has(piece.index) {
				piece.owners = append(piece.owners, peer.ID)
			}
		}
	}

	// shuffle so peers with the same view do not all chase the same piece
	s.rng.Shuffle(len(needed), func(i, j int) {
		needed[i], needed[j] = needed[j], needed[i]
	})
	sort.SliceStable(needed, func(i, j int) bool {
		return len(needed[i].owners) < len(needed[j].owners)
	})

	requests := make([]models.Request, 0)
	for _, piece := range needed {
		for _, owner := range piece.owners {
			requests = append(requests, models.Request{
				RequesterID: self.ID,
				OwnerID:     owner,
				PieceID:     piece.index,
				StartBlock:  self.Pieces[piece.index],
			})
		}
	}
	return requests
}

// bootstrap asks seeds, and only seeds, for the first piece while nothing is
// held locally.
func (s *rarestFirst) bootstrap(self models.LocalPeer, peers []models.PeerInfo) []models.Request {
	requests := make([]models.Request, 0)
	if self.Complete(0) {
		return requests
	}
	for _, peer := range peers {
		if !strings.HasPrefix(peer.ID, s.seedPrefix) || !peer.Has(0) {
			continue
		}
		requests = append(requests, models.Request{
			RequesterID: self.ID,
			OwnerID:     peer.ID,
			PieceID:     0,
			StartBlock:  self.Pieces[0],
		})
	}
	return requests
}
