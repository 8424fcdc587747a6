package history

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/WendelHime/swarmcore/internal/shared/models"
)

// Tracker reads per-peer aggregates out of a History. It never mutates it and
// treats rounds that do not exist yet as empty.
type Tracker struct {
	h models.History
}

func NewTracker(h models.History) Tracker {
	return Tracker{h: h}
}

func (t Tracker) CurrentRound() int {
	return t.h.CurrentRound()
}

func (t Tracker) completed(round int) bool {
	return round >= 0 && round < t.h.CurrentRound()
}

// ReceivedIn sums the blocks received from each peer during round.
func (t Tracker) ReceivedIn(round int) map[string]int {
	received := make(map[string]int)
	if !t.completed(round) {
		return received
	}
	for _, dl := range t.h.Downloads(round) {
		received[dl.FromID] += dl.Blocks
	}
	return received
}

// ReceivedOverWindow sums the blocks received from each peer over the last
// window completed rounds.
func (t Tracker) ReceivedOverWindow(window int) map[string]int {
	received := make(map[string]int)
	current := t.h.CurrentRound()
	for round := current - window; round < current; round++ {
		for id, blocks := range t.ReceivedIn(round) {
			received[id] += blocks
		}
	}
	return received
}

// SentIn sums the bandwidth granted to each peer during round.
func (t Tracker) SentIn(round int) map[string]int {
	sent := make(map[string]int)
	if !t.completed(round) {
		return sent
	}
	for _, ul := range t.h.Uploads(round) {
		sent[ul.ToID] += ul.Bandwidth
	}
	return sent
}

// Uploaders returns the peers that delivered at least one block during round.
func (t Tracker) Uploaders(round int) mapset.Set[string] {
	uploaders := mapset.NewThreadUnsafeSet[string]()
	for id, blocks := range t.ReceivedIn(round) {
		if blocks > 0 {
			uploaders.Add(id)
		}
	}
	return uploaders
}

// Streak counts how many of the most recent completed rounds in a row the
// peer uploaded to us.
func (t Tracker) Streak(peerID string) int {
	streak := 0
	for round := t.h.CurrentRound() - 1; round >= 0; round-- {
		if !t.Uploaders(round).Contains(peerID) {
			break
		}
		streak++
	}
	return streak
}
