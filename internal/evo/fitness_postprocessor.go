package evo

import (
	"dendron/internal/genotype"
	"dendron/internal/scape"
)

// ScoredTree pairs a tree with its raw evaluation score and the fitness
// derived from it.
type ScoredTree struct {
	ID      string
	Tree    *genotype.Tree
	Raw     float64
	Fitness float64
	Trace   scape.Trace
}

// FitnessPostprocessor adjusts fitness values after scape evaluation and
// before ranking/selection.
type FitnessPostprocessor interface {
	Name() string
	Process(scored []ScoredTree) []ScoredTree
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(scored []ScoredTree) []ScoredTree {
	return cloneScored(scored)
}

// ParsimonyPostprocessor subtracts a size-proportional penalty from the raw
// score, selecting against larger trees.
type ParsimonyPostprocessor struct {
	Weight float64
}

func (ParsimonyPostprocessor) Name() string {
	return "parsimony"
}

func (p ParsimonyPostprocessor) Process(scored []ScoredTree) []ScoredTree {
	out := cloneScored(scored)
	for i := range out {
		out[i].Fitness = out[i].Raw - p.Weight*float64(out[i].Tree.Size())
	}
	return out
}

func cloneScored(scored []ScoredTree) []ScoredTree {
	out := make([]ScoredTree, len(scored))
	copy(out, scored)
	return out
}
