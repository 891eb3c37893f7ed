package evo

import (
	"math/rand"
	"testing"
)

func scoredWithFitness(fitness ...float64) []ScoredTree {
	scored := make([]ScoredTree, len(fitness))
	for i, f := range fitness {
		scored[i] = ScoredTree{ID: string(rune('a' + i)), Fitness: f}
	}
	return scored
}

func TestRankScored(t *testing.T) {
	scored := scoredWithFitness(0.2, 0.9, -0.5, 0.9)

	ranked := RankScored(scored)
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Fitness > ranked[i-1].Fitness {
			t.Fatalf("ranked[%d]=%v out of order after %v", i, ranked[i].Fitness, ranked[i-1].Fitness)
		}
	}
	// Stable: of the two 0.9 entries, "b" precedes "d".
	if ranked[0].ID != "b" || ranked[1].ID != "d" {
		t.Fatalf("expected stable order b, d at top, got=%q, %q", ranked[0].ID, ranked[1].ID)
	}
	if scored[0].Fitness != 0.2 {
		t.Fatal("input slice was reordered")
	}
}

func TestEliteSelectorPicksFromTop(t *testing.T) {
	ranked := RankScored(scoredWithFitness(0.1, 0.8, 0.5, 0.3))
	rng := rand.New(rand.NewSource(5))

	selector := EliteSelector{}
	for i := 0; i < 100; i++ {
		parent, err := selector.PickParent(rng, ranked, 2)
		if err != nil {
			t.Fatalf("pick %d failed: %v", i, err)
		}
		if parent.Fitness < 0.5 {
			t.Fatalf("pick %d: fitness %v outside elite set", i, parent.Fitness)
		}
	}
}

func TestEliteSelectorInvalidCount(t *testing.T) {
	ranked := RankScored(scoredWithFitness(0.1, 0.8))
	rng := rand.New(rand.NewSource(5))

	if _, err := (EliteSelector{}).PickParent(rng, ranked, 0); err == nil {
		t.Fatal("expected error for elite count 0")
	}
	if _, err := (EliteSelector{}).PickParent(rng, ranked, 3); err == nil {
		t.Fatal("expected error for elite count beyond population")
	}
}

func TestTournamentSelectorPrefersFitter(t *testing.T) {
	ranked := RankScored(scoredWithFitness(0.9, 0.1))
	rng := rand.New(rand.NewSource(42))

	selector := TournamentSelector{TournamentSize: 2}
	bestPicked := 0
	const picks = 400
	for i := 0; i < picks; i++ {
		parent, err := selector.PickParent(rng, ranked, len(ranked))
		if err != nil {
			t.Fatalf("pick %d failed: %v", i, err)
		}
		if parent.Fitness == 0.9 {
			bestPicked++
		}
	}
	// Best of two uniform draws picks the fitter ~75% of the time.
	if bestPicked < picks/2 {
		t.Fatalf("fitter tree picked only %d of %d times", bestPicked, picks)
	}
}

func TestTournamentSelectorEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	if _, err := (TournamentSelector{}).PickParent(rng, nil, 0); err == nil {
		t.Fatal("expected error for empty population")
	}
}
