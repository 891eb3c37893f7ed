package genotype

import (
	"errors"
	"fmt"

	"dendron/internal/nodeset"
)

var (
	ErrNilTree         = errors.New("tree is nil")
	ErrInvariantBroken = errors.New("tree type invariant violated")
	ErrDepthExceeded   = errors.New("tree depth exceeds bound")
	ErrUnknownDef      = errors.New("node references unknown definition")
	ErrReturnTypeWrong = errors.New("root return type does not match tree return type")
)

// Node is one concrete occurrence of a definition inside a tree. A primitive
// node owns its ordered children exclusively; a literal node carries the
// constant value fixed when the instance was created.
type Node struct {
	Def      nodeset.NodeDef
	Children []*Node
	Value    any
}

// Tree is an ordered, typed expression tree together with the construction
// parameters it was built under. Those parameters travel with the tree so
// that variation operators can rebuild subtrees under identical constraints.
type Tree struct {
	Root      *Node
	Returns   nodeset.TypeLabel
	MaxDepth  int
	Forbidden []string
	Fixed     nodeset.FixedContext

	registry *nodeset.Registry
}

// NewTree assembles a tree around an existing root node, e.g. one restored
// from persistence or hand-built in tests, and validates it immediately.
func NewTree(root *Node, returns nodeset.TypeLabel, maxDepth int, registry *nodeset.Registry) (*Tree, error) {
	if registry == nil {
		return nil, errors.New("node definition registry is required")
	}
	tree := &Tree{Root: root, Returns: returns, MaxDepth: maxDepth, registry: registry}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return tree, nil
}

// Registry exposes the definition catalog the tree was built against.
func (t *Tree) Registry() *nodeset.Registry {
	return t.registry
}

// Size is the node count, the quantity an external parsimony penalty is
// computed from.
func (t *Tree) Size() int {
	if t == nil || t.Root == nil {
		return 0
	}
	return nodeCount(t.Root)
}

func nodeCount(n *Node) int {
	count := 1
	for _, child := range n.Children {
		count += nodeCount(child)
	}
	return count
}

// Depth is the longest root-to-leaf path, with a single node at depth zero.
func (t *Tree) Depth() int {
	if t == nil || t.Root == nil {
		return 0
	}
	return nodeDepth(t.Root)
}

func nodeDepth(n *Node) int {
	deepest := 0
	for _, child := range n.Children {
		if d := nodeDepth(child) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Nodes returns every node in the tree in preorder.
func (t *Tree) Nodes() []*Node {
	if t == nil || t.Root == nil {
		return nil
	}
	var out []*Node
	collectNodes(t.Root, &out)
	return out
}

func collectNodes(n *Node, out *[]*Node) {
	*out = append(*out, n)
	for _, child := range n.Children {
		collectNodes(child, out)
	}
}

// Validate checks the central correctness property structurally: every node
// references a known definition, every child's return type equals its
// parent's declared slot type, the root matches the tree's return type, and
// the depth stays within the construction bound. It is run after every
// construction and every variation operator, never merely assumed.
func (t *Tree) Validate() error {
	if t == nil || t.Root == nil {
		return ErrNilTree
	}
	if t.Root.Def.Returns != t.Returns {
		return fmt.Errorf("%w: root returns %q, tree declares %q",
			ErrReturnTypeWrong, t.Root.Def.Returns, t.Returns)
	}
	if err := t.validateNode(t.Root); err != nil {
		return err
	}
	if depth := t.Depth(); depth > t.MaxDepth {
		return fmt.Errorf("%w: depth %d > max %d", ErrDepthExceeded, depth, t.MaxDepth)
	}
	return nil
}

func (t *Tree) validateNode(n *Node) error {
	def, ok := t.registry.Lookup(n.Def.ID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDef, n.Def.ID)
	}
	if len(n.Children) != def.Arity() {
		return fmt.Errorf("%w: node %q has %d children, definition declares %d",
			ErrInvariantBroken, def.ID, len(n.Children), def.Arity())
	}
	for i, child := range n.Children {
		if child == nil {
			return fmt.Errorf("%w: node %q child %d is nil", ErrInvariantBroken, def.ID, i)
		}
		if child.Def.Returns != def.Children[i] {
			return fmt.Errorf("%w: node %q slot %d expects %q, child %q returns %q",
				ErrInvariantBroken, def.ID, i, def.Children[i], child.Def.ID, child.Def.Returns)
		}
		if err := t.validateNode(child); err != nil {
			return err
		}
	}
	return nil
}
