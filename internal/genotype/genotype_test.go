package genotype

import (
	"testing"

	"dendron/internal/nodeset"
)

const (
	typeFloat nodeset.TypeLabel = "float"
	typeBool  nodeset.TypeLabel = "bool"
)

// sideEffects counts behavior invocations per definition id, for verifying
// which branches an execution actually visited.
type sideEffects map[string]int

func testRegistry(t *testing.T) *nodeset.Registry {
	t.Helper()

	r, err := nodeset.New(typeFloat, typeBool)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	must(r.RegisterLiteral("float_literal", typeFloat, func(fixed nodeset.FixedContext) any {
		if v, ok := fixed["float_value"].(float64); ok {
			return v
		}
		return 0.5
	}))
	must(r.RegisterLiteral("bool_literal", typeBool, func(fixed nodeset.FixedContext) any {
		if v, ok := fixed["bool_value"].(bool); ok {
			return v
		}
		return true
	}))

	must(r.RegisterPrimitive("zero", typeFloat, nil, func(_ []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
		bumpCounter(ctx, "zero")
		return 0.0, nil
	}))
	must(r.RegisterPrimitive("add", typeFloat, []nodeset.TypeLabel{typeFloat, typeFloat},
		func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			bumpCounter(ctx, "add")
			left, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			right, err := children[1].Eval(ctx)
			if err != nil {
				return nil, err
			}
			return left.(float64) + right.(float64), nil
		}))
	must(r.RegisterPrimitive("negate", typeFloat, []nodeset.TypeLabel{typeFloat},
		func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			bumpCounter(ctx, "negate")
			value, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			return -value.(float64), nil
		}))
	must(r.RegisterPrimitive("greater_than", typeBool, []nodeset.TypeLabel{typeFloat, typeFloat},
		func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			bumpCounter(ctx, "greater_than")
			left, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			right, err := children[1].Eval(ctx)
			if err != nil {
				return nil, err
			}
			return left.(float64) > right.(float64), nil
		}))
	must(r.RegisterPrimitive("if_else", typeFloat, []nodeset.TypeLabel{typeBool, typeFloat, typeFloat},
		func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			bumpCounter(ctx, "if_else")
			condition, err := children[0].Eval(ctx)
			if err != nil {
				return nil, err
			}
			if condition.(bool) {
				return children[1].Eval(ctx)
			}
			return children[2].Eval(ctx)
		}))

	return r
}

func bumpCounter(ctx nodeset.Context, id string) {
	if counters, ok := ctx["calls"].(sideEffects); ok {
		counters[id]++
	}
}

func literalNode(t *testing.T, r *nodeset.Registry, id string, value any) *Node {
	t.Helper()
	def, ok := r.Lookup(id)
	if !ok {
		t.Fatalf("definition %q not found", id)
	}
	return &Node{Def: def, Value: value}
}

func primitiveNode(t *testing.T, r *nodeset.Registry, id string, children ...*Node) *Node {
	t.Helper()
	def, ok := r.Lookup(id)
	if !ok {
		t.Fatalf("definition %q not found", id)
	}
	return &Node{Def: def, Children: children}
}
