package evo

import (
	"fmt"
	"math/rand"
	"sort"
)

// Selector chooses parents from ranked trees for reproduction.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredTree, eliteCount int) (ScoredTree, error)
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredTree, eliteCount int) (ScoredTree, error) {
	if rng == nil {
		return ScoredTree{}, fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return ScoredTree{}, fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return ranked[rng.Intn(eliteCount)], nil
}

// TournamentSelector samples candidates and picks the best fitness among them.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredTree, eliteCount int) (ScoredTree, error) {
	if rng == nil {
		return ScoredTree{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return ScoredTree{}, fmt.Errorf("no ranked trees to select from")
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > len(ranked) {
		tournamentSize = len(ranked)
	}

	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, nil
}

// RankScored sorts by fitness, best first, without modifying the input.
func RankScored(scored []ScoredTree) []ScoredTree {
	ranked := cloneScored(scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}
