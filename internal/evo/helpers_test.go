package evo

import (
	"math/rand"
	"reflect"
	"testing"

	"dendron/internal/genotype"
	"dendron/internal/nodeset"
)

const (
	typeFloat = nodeset.TypeLabel("float")
	typeBool  = nodeset.TypeLabel("bool")
)

// testRegistry builds a small arithmetic node class. The float literal
// generator draws uniformly from [0, 10) using the "rand" entry of the fixed
// context, so literal values are reproducible per seed.
func testRegistry(t *testing.T) *nodeset.Registry {
	t.Helper()

	registry, err := nodeset.New(typeFloat, typeBool)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	mustRegisterLiteral(t, registry, nodeset.NodeDef{
		ID:      "float_literal",
		Returns: typeFloat,
		Literal: func(fixed nodeset.FixedContext) any {
			if rng, ok := fixed["rand"].(*rand.Rand); ok {
				return rng.Float64() * 10
			}
			return 0.5
		},
	})
	mustRegisterLiteral(t, registry, nodeset.NodeDef{
		ID:      "bool_literal",
		Returns: typeBool,
		Literal: func(fixed nodeset.FixedContext) any {
			if rng, ok := fixed["rand"].(*rand.Rand); ok {
				return rng.Float64() < 0.5
			}
			return false
		},
	})

	mustRegisterPrimitive(t, registry, nodeset.NodeDef{
		ID:      "zero",
		Returns: typeFloat,
		Primitive: func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			return 0.0, nil
		},
	})
	mustRegisterPrimitive(t, registry, nodeset.NodeDef{
		ID:       "add",
		Returns:  typeFloat,
		Children: []nodeset.TypeLabel{typeFloat, typeFloat},
		Primitive: func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			a, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			b, err := children[1].Eval(ctx)
			if err != nil {
				return nil, err
			}
			return a.(float64) + b.(float64), nil
		},
	})
	mustRegisterPrimitive(t, registry, nodeset.NodeDef{
		ID:       "negate",
		Returns:  typeFloat,
		Children: []nodeset.TypeLabel{typeFloat},
		Primitive: func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			v, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			return -v.(float64), nil
		},
	})
	mustRegisterPrimitive(t, registry, nodeset.NodeDef{
		ID:       "greater_than",
		Returns:  typeBool,
		Children: []nodeset.TypeLabel{typeFloat, typeFloat},
		Primitive: func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			a, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			b, err := children[1].Eval(ctx)
			if err != nil {
				return nil, err
			}
			return a.(float64) > b.(float64), nil
		},
	})
	mustRegisterPrimitive(t, registry, nodeset.NodeDef{
		ID:       "if_else",
		Returns:  typeFloat,
		Children: []nodeset.TypeLabel{typeBool, typeFloat, typeFloat},
		Primitive: func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			cond, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			if cond.(bool) {
				return children[1].Eval(ctx)
			}
			return children[2].Eval(ctx)
		},
	})

	return registry
}

func mustRegisterLiteral(t *testing.T, registry *nodeset.Registry, def nodeset.NodeDef) {
	t.Helper()
	if err := registry.RegisterLiteral(def.ID, def.Returns, def.Literal); err != nil {
		t.Fatalf("registering literal %q: %v", def.ID, err)
	}
}

func mustRegisterPrimitive(t *testing.T, registry *nodeset.Registry, def nodeset.NodeDef) {
	t.Helper()
	if err := registry.RegisterPrimitive(def.ID, def.Returns, def.Children, def.Primitive); err != nil {
		t.Fatalf("registering primitive %q: %v", def.ID, err)
	}
}

func buildTestTree(t *testing.T, registry *nodeset.Registry, seed int64, maxDepth int) *genotype.Tree {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	tree, err := genotype.Build(genotype.BuildConfig{
		Registry: registry,
		Returns:  typeFloat,
		MaxDepth: maxDepth,
		Strategy: genotype.StrategyGrow,
		Fixed:    nodeset.FixedContext{"rand": rng},
		Rand:     rng,
	})
	if err != nil {
		t.Fatalf("building tree for seed %d: %v", seed, err)
	}
	return tree
}

// treeShape captures the definition IDs and literal values of a tree in
// preorder, for before/after comparisons.
func treeShape(tree *genotype.Tree) ([]string, []any) {
	nodes := tree.Nodes()
	defs := make([]string, len(nodes))
	values := make([]any, len(nodes))
	for i, n := range nodes {
		defs[i] = n.Def.ID
		values[i] = n.Value
	}
	return defs, values
}

func sameShape(t *testing.T, a, b *genotype.Tree) bool {
	t.Helper()
	aDefs, aVals := treeShape(a)
	bDefs, bVals := treeShape(b)
	return reflect.DeepEqual(aDefs, bDefs) && reflect.DeepEqual(aVals, bVals)
}
