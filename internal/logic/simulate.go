package logic

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/WendelHime/swarmcore/internal/agent"
	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/shared/models"
	"github.com/WendelHime/swarmcore/internal/tracker"
)

// Simulator drives every peer of a scenario one round at a time. A unit of
// bandwidth moves one block.
type Simulator interface {
	Run(scenario models.Scenario) (Result, error)
}

type Result struct {
	// Rounds is the number of rounds actually played.
	Rounds int
	// Completed maps each peer that holds the whole file to the number of
	// rounds it took; peers complete from the start map to 0.
	Completed map[string]int
	Log       []models.RoundLog
}

type simulator struct {
	log      *slog.Logger
	progress io.Writer
}

func NewSimulator(logger *slog.Logger, progress io.Writer) Simulator {
	return &simulator{log: logger, progress: progress}
}

type swarmPeer struct {
	agent   agent.Agent
	state   models.LocalPeer
	history *models.RoundHistory
}

func (s *simulator) Run(scenario models.Scenario) (Result, error) {
	result := Result{Completed: make(map[string]int)}

	peers, err := s.createPeers(scenario)
	if err != nil {
		return result, err
	}
	byID := make(map[string]*swarmPeer, len(peers))
	for _, p := range peers {
		byID[p.state.ID] = p
		if p.state.Done() {
			result.Completed[p.state.ID] = 0
		}
	}

	s.log.Info("simulation started",
		slog.Int("peers", len(peers)),
		slog.Int("pieces", scenario.Pieces),
		slog.Int("blocks_per_piece", scenario.BlocksPerPiece),
		slog.Int("max_rounds", scenario.Rounds))

	bar := progressbar.NewOptions(scenario.Rounds,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionSetDescription("simulating"))

	registry := tracker.NewTracker(s.log)
	for round := 0; round < scenario.Rounds && len(result.Completed) < len(peers); round++ {
		roundLog, err := s.playRound(round, peers, byID, registry)
		if err != nil {
			return result, err
		}
		result.Log = append(result.Log, roundLog)
		result.Rounds = round + 1

		for _, p := range peers {
			if _, ok := result.Completed[p.state.ID]; !ok && p.state.Done() {
				result.Completed[p.state.ID] = round + 1
				s.log.Info("peer completed", slog.String("peer", p.state.ID), slog.Int("round", round))
			}
		}
		bar.Add(1)
	}
	bar.Describe("done")
	bar.Finish()

	s.log.Info("simulation finished",
		slog.Int("rounds", result.Rounds),
		slog.Int("completed", len(result.Completed)),
		slog.Int("peers", len(peers)))
	return result, nil
}

func (s *simulator) createPeers(scenario models.Scenario) ([]*swarmPeer, error) {
	peers := make([]*swarmPeer, 0, len(scenario.Peers))
	for i, sp := range scenario.Peers {
		strategy, err := config.ParseStrategy(sp.Strategy)
		if err != nil {
			return nil, fmt.Errorf("peer %s: %w", sp.ID, err)
		}
		cfg := config.Default()
		cfg.Seed = scenario.Seed + int64(i)
		cfg.Choking.Strategy = strategy

		a, err := agent.New(sp.ID, cfg, s.log)
		if err != nil {
			return nil, err
		}

		pieces := make([]int, scenario.Pieces)
		for _, piece := range sp.Have {
			pieces[piece] = scenario.BlocksPerPiece
		}
		peers = append(peers, &swarmPeer{
			agent: a,
			state: models.LocalPeer{
				ID:             sp.ID,
				Pieces:         pieces,
				UploadCapacity: sp.Capacity,
				BlocksPerPiece: scenario.BlocksPerPiece,
			},
			history: models.NewRoundHistory(),
		})
	}
	return peers, nil
}

func (s *simulator) playRound(round int, peers []*swarmPeer, byID map[string]*swarmPeer, registry tracker.Tracker) (models.RoundLog, error) {
	roundLog := models.RoundLog{Round: round, Transfers: make([]models.Transfer, 0)}

	for _, p := range peers {
		registry.Announce(p.state.ID, p.state.CompletePieces())
	}

	views := make(map[string][]models.PeerInfo, len(peers))
	outgoing := make(map[string][]models.Request, len(peers))
	incoming := make(map[string][]models.Request, len(peers))
	for _, p := range peers {
		view, err := registry.GetPeers(p.state.ID)
		if err != nil {
			return roundLog, err
		}
		views[p.state.ID] = view

		requests, err := p.agent.Requests(p.state, view, p.history)
		if err != nil {
			return roundLog, fmt.Errorf("round %d: %w", round, err)
		}
		outgoing[p.state.ID] = requests
		for _, r := range requests {
			incoming[r.OwnerID] = append(incoming[r.OwnerID], r)
		}
	}

	granted := make(map[string][]models.Upload, len(peers))
	for _, p := range peers {
		uploads, err := p.agent.Uploads(p.state, incoming[p.state.ID], views[p.state.ID], p.history)
		if err != nil {
			return roundLog, fmt.Errorf("round %d: %w", round, err)
		}
		granted[p.state.ID] = uploads
	}

	received := make(map[string][]models.Download, len(peers))
	for _, p := range peers {
		for _, up := range granted[p.state.ID] {
			to, ok := byID[up.ToID]
			if !ok {
				s.log.Warn("upload to unknown peer", slog.String("from", up.FromID), slog.String("to", up.ToID))
				continue
			}
			blocks := transfer(p, to, outgoing[to.state.ID], up.Bandwidth)
			if blocks == 0 {
				continue
			}
			received[to.state.ID] = append(received[to.state.ID], models.Download{FromID: p.state.ID, ToID: to.state.ID, Blocks: blocks})
			roundLog.Transfers = append(roundLog.Transfers, models.Transfer{From: p.state.ID, To: to.state.ID, Blocks: blocks})
		}
	}

	for _, p := range peers {
		p.history.Record(received[p.state.ID], granted[p.state.ID])
	}
	s.log.Debug("round played", slog.Int("round", round), slog.Int("transfers", len(roundLog.Transfers)))
	return roundLog, nil
}

// transfer moves up to budget blocks from one peer to another, walking the
// recipient's requests to that peer in order. Blocks always land right after
// the ones already held so a piece fills contiguously.
func transfer(from, to *swarmPeer, requests []models.Request, budget int) int {
	moved := 0
	for _, r := range requests {
		if budget == 0 {
			break
		}
		if r.OwnerID != from.state.ID || !from.state.Complete(r.PieceID) {
			continue
		}
		n := min(to.state.BlocksPerPiece-to.state.Pieces[r.PieceID], budget)
		if n <= 0 {
			continue
		}
		to.state.Pieces[r.PieceID] += n
		budget -= n
		moved += n
	}
	return moved
}
