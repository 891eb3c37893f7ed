package evo

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"dendron/internal/genotype"
	"dendron/internal/nodeset"
)

func TestSubtreeMutationKeepsInvariants(t *testing.T) {
	registry := testRegistry(t)
	ctx := context.Background()

	for seed := int64(0); seed < 20; seed++ {
		original := buildTestTree(t, registry, seed, 4)
		beforeDefs, beforeVals := treeShape(original)

		op := SubtreeMutation{Rand: rand.New(rand.NewSource(seed + 100))}
		mutated, err := op.Apply(ctx, original)
		if err != nil {
			t.Fatalf("seed %d: mutation failed: %v", seed, err)
		}

		if err := mutated.Validate(); err != nil {
			t.Fatalf("seed %d: mutated tree invalid: %v", seed, err)
		}
		if mutated.Returns != original.Returns {
			t.Fatalf("seed %d: return type changed: %q", seed, mutated.Returns)
		}
		if depth := mutated.Depth(); depth > original.MaxDepth {
			t.Fatalf("seed %d: depth %d exceeds bound %d", seed, depth, original.MaxDepth)
		}

		afterDefs, afterVals := treeShape(original)
		if len(afterDefs) != len(beforeDefs) {
			t.Fatalf("seed %d: input tree was modified", seed)
		}
		for i := range beforeDefs {
			if beforeDefs[i] != afterDefs[i] || beforeVals[i] != afterVals[i] {
				t.Fatalf("seed %d: input tree node %d was modified", seed, i)
			}
		}
	}
}

func TestSubtreeMutationRequiresRand(t *testing.T) {
	registry := testRegistry(t)
	tree := buildTestTree(t, registry, 1, 3)

	if _, err := (SubtreeMutation{}).Apply(context.Background(), tree); err == nil {
		t.Fatal("expected error without random source")
	}
}

func TestSubtreeMutationNilTree(t *testing.T) {
	op := SubtreeMutation{Rand: rand.New(rand.NewSource(0))}
	if _, err := op.Apply(context.Background(), nil); !errors.Is(err, genotype.ErrNilTree) {
		t.Fatalf("expected ErrNilTree, got=%v", err)
	}
}

func TestSubtreeMutationCancelledContext(t *testing.T) {
	registry := testRegistry(t)
	tree := buildTestTree(t, registry, 1, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := SubtreeMutation{Rand: rand.New(rand.NewSource(0))}
	if _, err := op.Apply(ctx, tree); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got=%v", err)
	}
}

func TestLiteralMutationChangesExactlyOneValue(t *testing.T) {
	registry := testRegistry(t)
	if err := registry.RegisterMutator(typeFloat, func(current any, fixed nodeset.FixedContext) any {
		return current.(float64) + 1
	}); err != nil {
		t.Fatalf("registering mutator: %v", err)
	}
	if err := registry.RegisterMutator(typeBool, func(current any, fixed nodeset.FixedContext) any {
		return !current.(bool)
	}); err != nil {
		t.Fatalf("registering mutator: %v", err)
	}
	ctx := context.Background()

	for seed := int64(0); seed < 20; seed++ {
		original := buildTestTree(t, registry, seed, 4)

		op := LiteralMutation{Rand: rand.New(rand.NewSource(seed + 100))}
		mutated, err := op.Apply(ctx, original)
		if errors.Is(err, ErrNoMutationChoice) {
			continue
		}
		if err != nil {
			t.Fatalf("seed %d: mutation failed: %v", seed, err)
		}

		beforeDefs, beforeVals := treeShape(original)
		afterDefs, afterVals := treeShape(mutated)
		if len(afterDefs) != len(beforeDefs) {
			t.Fatalf("seed %d: structure changed: %d nodes, was %d", seed, len(afterDefs), len(beforeDefs))
		}

		changed := 0
		for i := range beforeDefs {
			if beforeDefs[i] != afterDefs[i] {
				t.Fatalf("seed %d: node %d definition changed %q -> %q", seed, i, beforeDefs[i], afterDefs[i])
			}
			if beforeVals[i] != afterVals[i] {
				changed++
			}
		}
		if changed != 1 {
			t.Fatalf("seed %d: expected exactly 1 changed literal, got=%d", seed, changed)
		}
	}
}

func TestLiteralMutationNoLiterals(t *testing.T) {
	registry := testRegistry(t)
	rng := rand.New(rand.NewSource(3))

	// Only zero-arity primitives and add can appear, so the tree carries no
	// literal node to mutate.
	tree, err := genotype.Build(genotype.BuildConfig{
		Registry:  registry,
		Returns:   typeFloat,
		MaxDepth:  3,
		Strategy:  genotype.StrategyGrow,
		Forbidden: []string{"float_literal", "bool_literal", "negate", "greater_than", "if_else"},
		Rand:      rng,
	})
	if err != nil {
		t.Fatalf("building literal-free tree: %v", err)
	}

	op := LiteralMutation{Rand: rng}
	if _, err := op.Apply(context.Background(), tree); !errors.Is(err, ErrNoMutationChoice) {
		t.Fatalf("expected ErrNoMutationChoice, got=%v", err)
	}
}

// Without a registered mutator, mutating a literal re-invokes the type's
// generator. Over many mutations the values should follow the generator's
// uniform [0, 10) distribution.
func TestLiteralMutationGeneratorFallback(t *testing.T) {
	registry := testRegistry(t)
	rng := rand.New(rand.NewSource(7))

	tree, err := genotype.Build(genotype.BuildConfig{
		Registry:  registry,
		Returns:   typeFloat,
		MaxDepth:  0,
		Strategy:  genotype.StrategyGrow,
		Fixed:     nodeset.FixedContext{"rand": rng},
		Forbidden: []string{"zero"},
		Rand:      rng,
	})
	if err != nil {
		t.Fatalf("building single-literal tree: %v", err)
	}
	if tree.Root.Def.ID != "float_literal" {
		t.Fatalf("expected float_literal root, got=%q", tree.Root.Def.ID)
	}

	op := LiteralMutation{Rand: rng}
	const samples = 1000
	sum := 0.0
	for i := 0; i < samples; i++ {
		mutated, err := op.Apply(context.Background(), tree)
		if err != nil {
			t.Fatalf("mutation %d failed: %v", i, err)
		}
		v := mutated.Root.Value.(float64)
		if v < 0 || v >= 10 {
			t.Fatalf("mutation %d: value %v outside generator range [0, 10)", i, v)
		}
		sum += v
	}

	mean := sum / samples
	if mean < 4.5 || mean > 5.5 {
		t.Fatalf("mean %v too far from generator mean 5.0", mean)
	}
}
