package tracker

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/WendelHime/swarmcore/internal/shared/models"
)

var ErrUnknownPeer = errors.New("unknown peer")

// Tracker is the swarm membership view handed to every peer each round.
type Tracker interface {
	Announce(peerID string, complete []int)
	GetPeers(peerID string) ([]models.PeerInfo, error)
	Peers() []string
}

type tracker struct {
	log   *slog.Logger
	peers map[string]*roaring.Bitmap
}

func NewTracker(logger *slog.Logger) Tracker {
	return &tracker{log: logger, peers: make(map[string]*roaring.Bitmap)}
}

// Announce replaces the set of pieces peerID advertises.
func (t *tracker) Announce(peerID string, complete []int) {
	available := roaring.New()
	for _, piece := range complete {
		available.Add(uint32(piece))
	}
	if _, ok := t.peers[peerID]; !ok {
		t.log.Info("peer joined", slog.String("peer", peerID), slog.Int("pieces", len(complete)))
	}
	t.peers[peerID] = available
}

// GetPeers returns a snapshot of every other peer, ordered by id.
func (t *tracker) GetPeers(peerID string) ([]models.PeerInfo, error) {
	if _, ok := t.peers[peerID]; !ok {
		return nil, ErrUnknownPeer
	}
	peers := make([]models.PeerInfo, 0, len(t.peers)-1)
	for _, id := range t.Peers() {
		if id == peerID {
			continue
		}
		peers = append(peers, models.PeerInfo{ID: id, Available: t.peers[id].Clone()})
	}
	return peers, nil
}

func (t *tracker) Peers() []string {
	ids := make([]string, 0, len(t.peers))
	for id := range t.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
