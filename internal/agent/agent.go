package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/WendelHime/swarmcore/internal/choker"
	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/history"
	"github.com/WendelHime/swarmcore/internal/selector"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

var (
	ErrInvalidPeerID         = errors.New("invalid peer id")
	ErrNegativeCapacity      = errors.New("negative upload capacity")
	ErrInvalidBlocksPerPiece = errors.New("blocks per piece must be at least 1")
	ErrInvalidPieceState     = errors.New("invalid piece state")
	ErrForeignRequest        = errors.New("request addressed to another peer")
)

// Agent is the decision core of one peer. It is not safe for concurrent use.
type Agent interface {
	ID() string
	Requests(self models.LocalPeer, peers []models.PeerInfo, h models.History) ([]models.Request, error)
	Uploads(self models.LocalPeer, requests []models.Request, peers []models.PeerInfo, h models.History) ([]models.Upload, error)
}

type agent struct {
	id        string
	selector  selector.Selector
	allocator choker.Allocator
	log       *slog.Logger
}

func New(id string, cfg config.Config, logger *slog.Logger) (Agent, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	allocator, err := choker.New(cfg.Choking, rng)
	if err != nil {
		return nil, err
	}

	return &agent{
		id:        id,
		selector:  selector.NewRarestFirst(rng, cfg.SeedPrefix),
		allocator: allocator,
		log:       logger.With(slog.String("peer", id), slog.String("strategy", string(cfg.Choking.Strategy))),
	}, nil
}

func (a *agent) ID() string {
	return a.id
}

func (a *agent) Requests(self models.LocalPeer, peers []models.PeerInfo, h models.History) ([]models.Request, error) {
	if err := a.validate(self, peers); err != nil {
		return nil, err
	}

	requests := a.selector.Select(self, peers)
	a.log.Debug("requests selected",
		slog.Int("round", h.CurrentRound()),
		slog.Int("requests", len(requests)),
		slog.Int("held_blocks", self.HeldBlocks()))
	return requests, nil
}

func (a *agent) Uploads(self models.LocalPeer, requests []models.Request, peers []models.PeerInfo, h models.History) ([]models.Upload, error) {
	if err := a.validate(self, peers); err != nil {
		return nil, err
	}
	for _, r := range requests {
		if r.OwnerID != self.ID {
			return nil, fmt.Errorf("%w: %s asked %s", ErrForeignRequest, r.RequesterID, r.OwnerID)
		}
		if err := validID(r.RequesterID); err != nil {
			return nil, err
		}
	}

	uploads := a.allocator.Allocate(self, requests, peers, h)

	if !a.log.Enabled(context.Background(), slog.LevelDebug) {
		return uploads, nil
	}
	tr := history.NewTracker(h)
	last := tr.CurrentRound() - 1
	streaks := make(map[string]int)
	for _, id := range tr.Uploaders(last).ToSlice() {
		streaks[id] = tr.Streak(id)
	}
	a.log.Debug("uploads allocated",
		slog.Int("round", tr.CurrentRound()),
		slog.Int("requests", len(requests)),
		slog.Int("unchoked", len(uploads)),
		slog.Int("bandwidth", models.TotalBandwidth(uploads)),
		slog.Any("received_last_round", tr.ReceivedIn(last)),
		slog.Any("sent_last_round", tr.SentIn(last)),
		slog.Any("streaks", streaks))
	return uploads, nil
}

func (a *agent) validate(self models.LocalPeer, peers []models.PeerInfo) error {
	if self.ID != a.id {
		return fmt.Errorf("%w: snapshot of %q given to %q", ErrInvalidPeerID, self.ID, a.id)
	}
	if self.UploadCapacity < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeCapacity, self.UploadCapacity)
	}
	if self.BlocksPerPiece < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBlocksPerPiece, self.BlocksPerPiece)
	}
	for i, blocks := range self.Pieces {
		if blocks < 0 || blocks > self.BlocksPerPiece {
			return fmt.Errorf("%w: piece %d holds %d blocks", ErrInvalidPieceState, i, blocks)
		}
	}
	for _, p := range peers {
		if err := validID(p.ID); err != nil {
			return err
		}
	}
	return nil
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidPeerID, id)
	}
	return nil
}
