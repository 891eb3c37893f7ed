package genotype

import (
	"errors"
	"fmt"

	"dendron/internal/nodeset"
)

// ErrArithmetic marks a numeric failure raised by a behavior function during
// execution. The engine propagates it untouched; the agent boundary is
// expected to substitute a safe default and continue.
var ErrArithmetic = errors.New("arithmetic failure")

// Eval evaluates this node. Literals return their fixed value without
// touching the context. Primitives receive their children as unevaluated
// handles and decide which to evaluate, in what order, and how many times;
// the engine's only obligation is that evaluating a child applies the same
// rule at that child.
func (n *Node) Eval(ctx nodeset.Context) (any, error) {
	if n.Def.Kind == nodeset.KindLiteral {
		return n.Value, nil
	}

	var handles []nodeset.ChildNode
	if len(n.Children) > 0 {
		handles = make([]nodeset.ChildNode, len(n.Children))
		for i, child := range n.Children {
			handles[i] = child
		}
	}
	return n.Def.Primitive(handles, ctx)
}

// Execute evaluates the tree against a caller-owned mutable context. The
// context is shared by every node activated within this call with no
// isolation between sibling subtrees; behavior errors propagate to the
// caller unswallowed.
func (t *Tree) Execute(ctx nodeset.Context) (any, error) {
	if t == nil || t.Root == nil {
		return nil, ErrNilTree
	}
	value, err := t.Root.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("executing %q: %w", t.Root.Def.ID, err)
	}
	return value, nil
}
