package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"dendron/internal/genotype"
)

var (
	ErrNoMutationChoice = errors.New("no mutation choice available")

	// ErrInvariantViolated is an internal engine bug: an operator produced
	// a tree failing the type invariant. It is never user-recoverable and
	// never results in an inconsistent tree being returned.
	ErrInvariantViolated = errors.New("variation operator violated tree invariant")
)

// SubtreeMutation replaces a uniformly chosen node and its subtree with a
// freshly built subtree of the same return type. The depth budget is the
// remainder of the tree's bound below the chosen site, so the whole tree
// stays within its original depth; exclusions and fixed context carry over.
type SubtreeMutation struct {
	Rand     *rand.Rand
	Strategy string
}

func (SubtreeMutation) Name() string {
	return "subtree_mutation"
}

func (o SubtreeMutation) Apply(ctx context.Context, tree *genotype.Tree) (*genotype.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Rand == nil {
		return nil, errors.New("random source is required")
	}
	if tree == nil || tree.Root == nil {
		return nil, genotype.ErrNilTree
	}

	mutated := tree.Clone()
	sites := collectSites(mutated.Root)
	chosen := sites[o.Rand.Intn(len(sites))]

	cfg := genotype.BuildConfigFromTree(mutated)
	cfg.Rand = o.Rand
	cfg.Strategy = o.Strategy

	replacement, err := genotype.BuildSubtree(cfg, chosen.node.Def.Returns, mutated.MaxDepth-chosen.depth)
	if err != nil {
		return nil, fmt.Errorf("rebuilding subtree: %w", err)
	}
	replaceAt(mutated, chosen, replacement)

	if err := mutated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariantViolated, err)
	}
	return mutated, nil
}

// LiteralMutation replaces the value of a uniformly chosen literal node. A
// registered mutator for the literal's type derives the new value from the
// current one; without a mutator the type's generator is re-invoked,
// equivalent to drawing a fresh random literal.
type LiteralMutation struct {
	Rand *rand.Rand
}

func (LiteralMutation) Name() string {
	return "literal_mutation"
}

func (o LiteralMutation) Apply(ctx context.Context, tree *genotype.Tree) (*genotype.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Rand == nil {
		return nil, errors.New("random source is required")
	}
	if tree == nil || tree.Root == nil {
		return nil, genotype.ErrNilTree
	}

	mutated := tree.Clone()
	literals := literalSites(mutated.Root)
	if len(literals) == 0 {
		return nil, ErrNoMutationChoice
	}
	chosen := literals[o.Rand.Intn(len(literals))]

	registry := mutated.Registry()
	if mutator, ok := registry.MutatorFor(chosen.node.Def.Returns); ok {
		chosen.node.Value = mutator(chosen.node.Value, mutated.Fixed)
	} else {
		chosen.node.Value = chosen.node.Def.Literal(mutated.Fixed)
	}

	if err := mutated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariantViolated, err)
	}
	return mutated, nil
}
