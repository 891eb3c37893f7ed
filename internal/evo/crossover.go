package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"dendron/internal/genotype"
)

const defaultCrossoverRetries = 5

// SubtreeCrossover clones parent A and substitutes, at a uniformly chosen
// site, a deep clone of a type-equal subtree from parent B. A substitution
// that would exceed the depth bound or MaxSize is retried at different
// sites; when the retry budget runs out the offspring falls back to an
// unmodified clone of parent A. Bound overflow is recovered locally, never
// surfaced as an error.
type SubtreeCrossover struct {
	Rand    *rand.Rand
	MaxSize int
	Retries int
}

func (SubtreeCrossover) Name() string {
	return "subtree_crossover"
}

func (o SubtreeCrossover) Cross(ctx context.Context, a, b *genotype.Tree) (*genotype.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Rand == nil {
		return nil, errors.New("random source is required")
	}
	if a == nil || a.Root == nil || b == nil || b.Root == nil {
		return nil, genotype.ErrNilTree
	}

	retries := o.Retries
	if retries <= 0 {
		retries = defaultCrossoverRetries
	}

	offspring := a.Clone()
	for attempt := 0; attempt < retries; attempt++ {
		sites := collectSites(offspring.Root)
		target := sites[o.Rand.Intn(len(sites))]

		donors := sitesByType(b.Root, target.node.Def.Returns)
		if len(donors) == 0 {
			continue
		}
		donor := donors[o.Rand.Intn(len(donors))]

		if target.depth+subtreeDepth(donor.node) > offspring.MaxDepth {
			continue
		}
		if o.MaxSize > 0 {
			newSize := offspring.Size() - subtreeSize(target.node) + subtreeSize(donor.node)
			if newSize > o.MaxSize {
				continue
			}
		}

		replaceAt(offspring, target, genotype.CloneNode(donor.node))
		if err := offspring.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvariantViolated, err)
		}
		return offspring, nil
	}

	// No compatible site pair within bounds; the offspring is a plain clone.
	return offspring, nil
}
