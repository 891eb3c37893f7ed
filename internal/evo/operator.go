package evo

import (
	"context"

	"dendron/internal/genotype"
)

// Operator is a unary variation operator over trees. Implementations clone
// before modifying; the input tree is never touched.
type Operator interface {
	Name() string
	Apply(ctx context.Context, tree *genotype.Tree) (*genotype.Tree, error)
}

// CrossoverOperator recombines two parent trees into one offspring.
type CrossoverOperator interface {
	Name() string
	Cross(ctx context.Context, a, b *genotype.Tree) (*genotype.Tree, error)
}
