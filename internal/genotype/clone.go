package genotype

// Clone returns a deep copy sharing no nodes with the original. Subtrees are
// never aliased between trees; crossover and mutation clone rather than
// splice, so individuals stay structurally independent.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	return &Tree{
		Root:      CloneNode(t.Root),
		Returns:   t.Returns,
		MaxDepth:  t.MaxDepth,
		Forbidden: append([]string(nil), t.Forbidden...),
		Fixed:     t.Fixed,
		registry:  t.registry,
	}
}

// CloneNode deep-copies a subtree. Literal values are copied by reference;
// they are fixed at creation and never mutated in place, so sharing the
// value itself is safe.
func CloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{Def: n.Def, Value: n.Value}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = CloneNode(child)
		}
	}
	return out
}

// BuildConfigFromTree reconstructs the construction parameters a tree was
// built under, for operators that rebuild subtrees within the same bounds.
func BuildConfigFromTree(t *Tree) BuildConfig {
	return BuildConfig{
		Registry:  t.registry,
		Returns:   t.Returns,
		MaxDepth:  t.MaxDepth,
		Fixed:     t.Fixed,
		Forbidden: t.Forbidden,
	}
}
