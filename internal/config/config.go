package config

import (
	"errors"
	"fmt"
	"strings"
)

type Strategy string

const (
	StrategyCooperative  Strategy = "cooperative"
	StrategyProportional Strategy = "proportional"
	StrategyReciprocity  Strategy = "reciprocity"
)

var (
	ErrUnknownStrategy   = errors.New("unknown choking strategy")
	ErrInvalidSlots      = errors.New("unchoke slots must be at least 1")
	ErrInvalidPeriod     = errors.New("optimistic period must be at least 1")
	ErrInvalidWindow     = errors.New("cooperation window must be at least 1")
	ErrInvalidShare      = errors.New("proportional share must be within (0, 1]")
	ErrInvalidFactor     = errors.New("invalid reciprocity factor")
	ErrInvalidThreshold  = errors.New("streak threshold must be at least 1")
	ErrInvalidSeedPrefix = errors.New("seed prefix must not be empty")
)

// ParseStrategy maps a strategy name, case insensitively, to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case StrategyCooperative, StrategyProportional, StrategyReciprocity:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

type Config struct {
	// Seed feeds the random source of one agent.
	Seed       int64
	SeedPrefix string
	Choking    Choking
}

// Choking carries the tuning of every allocator; each variant reads its own fields.
type Choking struct {
	Strategy Strategy

	// windowed cooperation
	Slots            int
	OptimisticPeriod int
	Window           int
	RewardGenerous   bool

	// proportional share
	ProportionalShare float64

	// adaptive reciprocity
	ShrinkFactor    float64
	GrowFactor      float64
	StreakThreshold int
}

func Default() Config {
	return Config{
		SeedPrefix: "seed",
		Choking: Choking{
			Strategy:          StrategyReciprocity,
			Slots:             4,
			OptimisticPeriod:  3,
			Window:            2,
			ProportionalShare: 0.9,
			ShrinkFactor:      0.9,
			GrowFactor:        1.2,
			StreakThreshold:   3,
		},
	}
}

func (c Config) Validate() error {
	if c.SeedPrefix == "" {
		return ErrInvalidSeedPrefix
	}
	return c.Choking.Validate()
}

func (c Choking) Validate() error {
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	switch {
	case c.Slots < 1:
		return ErrInvalidSlots
	case c.OptimisticPeriod < 1:
		return ErrInvalidPeriod
	case c.Window < 1:
		return ErrInvalidWindow
	case c.ProportionalShare <= 0 || c.ProportionalShare > 1:
		return ErrInvalidShare
	case c.ShrinkFactor <= 0 || c.ShrinkFactor > 1:
		return fmt.Errorf("%w: shrink factor %v", ErrInvalidFactor, c.ShrinkFactor)
	case c.GrowFactor < 1:
		return fmt.Errorf("%w: grow factor %v", ErrInvalidFactor, c.GrowFactor)
	case c.StreakThreshold < 1:
		return ErrInvalidThreshold
	}
	return nil
}
