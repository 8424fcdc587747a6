package choker

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

func requestsFrom(owner string, requesters ...string) []models.Request {
	requests := make([]models.Request, 0, len(requesters))
	for _, id := range requesters {
		requests = append(requests, models.Request{RequesterID: id, OwnerID: owner, PieceID: 0})
	}
	return requests
}

func peerInfos(ids ...string) []models.PeerInfo {
	peers := make([]models.PeerInfo, 0, len(ids))
	for _, id := range ids {
		peers = append(peers, models.NewPeerInfo(id, 0))
	}
	return peers
}

func uploadsByPeer(uploads []models.Upload) map[string]int {
	byPeer := make(map[string]int)
	for _, u := range uploads {
		byPeer[u.ToID] += u.Bandwidth
	}
	return byPeer
}

func choking(strategy config.Strategy) config.Choking {
	cfg := config.Default().Choking
	cfg.Strategy = strategy
	return cfg
}

func TestNew(t *testing.T) {
	var tests = []struct {
		name   string
		cfg    config.Choking
		assert func(t *testing.T, actual Allocator, err error)
	}{
		{
			name: "cooperative",
			cfg:  choking(config.StrategyCooperative),
			assert: func(t *testing.T, actual Allocator, err error) {
				assert.Nil(t, err)
				assert.IsType(t, &Cooperative{}, actual)
			},
		},
		{
			name: "proportional",
			cfg:  choking(config.StrategyProportional),
			assert: func(t *testing.T, actual Allocator, err error) {
				assert.Nil(t, err)
				assert.IsType(t, &Proportional{}, actual)
			},
		},
		{
			name: "reciprocity",
			cfg:  choking(config.StrategyReciprocity),
			assert: func(t *testing.T, actual Allocator, err error) {
				assert.Nil(t, err)
				assert.IsType(t, &Reciprocity{}, actual)
			},
		},
		{
			name: "invalid tuning is rejected",
			cfg: func() config.Choking {
				cfg := choking(config.StrategyCooperative)
				cfg.Slots = 0
				return cfg
			}(),
			assert: func(t *testing.T, actual Allocator, err error) {
				assert.ErrorIs(t, err, config.ErrInvalidSlots)
				assert.Nil(t, actual)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			actual, err := New(tt.cfg, rand.New(rand.NewSource(1)))
			tt.assert(t, actual, err)
		})
	}
}

// Every strategy, over many random rounds, must stay within capacity and only
// grant to requesters plus at most one optimistic recipient.
func TestAllocatorsRespectCapacity(t *testing.T) {
	strategies := []config.Strategy{config.StrategyCooperative, config.StrategyProportional, config.StrategyReciprocity}
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7"}

	for _, strategy := range strategies {
		strategy := strategy
		t.Run(string(strategy), func(t *testing.T) {
			gen := rand.New(rand.NewSource(7))
			allocator, err := New(choking(strategy), rand.New(rand.NewSource(3)))
			require.Nil(t, err)

			h := models.NewRoundHistory()
			for round := 0; round < 40; round++ {
				self := models.LocalPeer{ID: "me", Pieces: []int{1}, BlocksPerPiece: 2, UploadCapacity: gen.Intn(20)}

				requesters := make([]string, 0)
				for _, id := range ids {
					if gen.Intn(2) == 0 {
						requesters = append(requesters, id)
					}
				}
				requests := requestsFrom("me", requesters...)

				uploads := allocator.Allocate(self, requests, peerInfos(ids...), h)
				if len(requests) == 0 {
					assert.Empty(t, uploads)
				}
				assert.LessOrEqual(t, models.TotalBandwidth(uploads), self.UploadCapacity, fmt.Sprintf("round %d", round))

				outsiders := 0
				for _, u := range uploads {
					assert.GreaterOrEqual(t, u.Bandwidth, 0)
					assert.Equal(t, "me", u.FromID)
					if !contains(requesters, u.ToID) {
						outsiders++
					}
				}
				assert.LessOrEqual(t, outsiders, 1)

				downloads := make([]models.Download, 0)
				for _, id := range ids {
					if blocks := gen.Intn(4); blocks > 0 {
						downloads = append(downloads, models.Download{FromID: id, ToID: "me", Blocks: blocks})
					}
				}
				h.Record(downloads, uploads)
			}
		})
	}
}

func TestAllocatorsAreDeterministicForASeed(t *testing.T) {
	for _, strategy := range []config.Strategy{config.StrategyCooperative, config.StrategyProportional, config.StrategyReciprocity} {
		run := func() [][]models.Upload {
			allocator, err := New(choking(strategy), rand.New(rand.NewSource(11)))
			require.Nil(t, err)
			h := models.NewRoundHistory()
			self := models.LocalPeer{ID: "me", Pieces: []int{0}, BlocksPerPiece: 1, UploadCapacity: 12}
			out := make([][]models.Upload, 0)
			for round := 0; round < 10; round++ {
				uploads := allocator.Allocate(self, requestsFrom("me", "p1", "p2", "p3", "p4", "p5", "p6"), peerInfos("p1", "p2", "p3", "p4", "p5", "p6"), h)
				out = append(out, uploads)
				h.Record([]models.Download{{FromID: "p2", ToID: "me", Blocks: round % 3}}, uploads)
			}
			return out
		}
		assert.Equal(t, run(), run(), string(strategy))
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
