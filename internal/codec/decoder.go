package codec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackpal/bencode-go"

	"github.com/WendelHime/swarmcore/internal/config"
	"github.com/WendelHime/swarmcore/internal/shared/models"
)

var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrDuplicatePeer   = errors.New("duplicate peer id")
)

type ScenarioDecoder interface {
	Decode(io.Reader) (models.Scenario, error)
}

type decoder struct {
	log *slog.Logger
}

func NewDecoder(logger *slog.Logger) ScenarioDecoder {
	return decoder{log: logger}
}

func (d decoder) Decode(r io.Reader) (models.Scenario, error) {
	var scenario models.Scenario
	err := bencode.Unmarshal(r, &scenario)
	if err != nil {
		d.log.Error("failed to decode scenario", slog.Any("error", err))
		return models.Scenario{}, err
	}

	for i := range scenario.Peers {
		if scenario.Peers[i].Strategy == "" {
			scenario.Peers[i].Strategy = string(config.Default().Choking.Strategy)
		}
	}

	if err := validate(scenario); err != nil {
		d.log.Error("scenario rejected", slog.Any("error", err))
		return models.Scenario{}, err
	}
	return scenario, nil
}

func validate(s models.Scenario) error {
	switch {
	case s.Pieces < 1:
		return fmt.Errorf("%w: pieces must be at least 1", ErrInvalidScenario)
	case s.BlocksPerPiece < 1:
		return fmt.Errorf("%w: blocks per piece must be at least 1", ErrInvalidScenario)
	case s.Rounds < 1:
		return fmt.Errorf("%w: rounds must be at least 1", ErrInvalidScenario)
	case len(s.Peers) < 2:
		return fmt.Errorf("%w: a swarm needs at least 2 peers", ErrInvalidScenario)
	}

	seen := make(map[string]struct{}, len(s.Peers))
	for _, p := range s.Peers {
		if p.ID == "" {
			return fmt.Errorf("%w: empty peer id", ErrInvalidScenario)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePeer, p.ID)
		}
		seen[p.ID] = struct{}{}
		if p.Capacity < 0 {
			return fmt.Errorf("%w: peer %s has negative capacity", ErrInvalidScenario, p.ID)
		}
		if _, err := config.ParseStrategy(p.Strategy); err != nil {
			return fmt.Errorf("peer %s: %w", p.ID, err)
		}
		for _, piece := range p.Have {
			if piece < 0 || piece >= s.Pieces {
				return fmt.Errorf("%w: peer %s has piece %d out of range", ErrInvalidScenario, p.ID, piece)
			}
		}
	}
	return nil
}
