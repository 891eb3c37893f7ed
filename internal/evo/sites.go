package evo

import (
	"dendron/internal/genotype"
	"dendron/internal/nodeset"
)

// site addresses one node within a tree by its parent slot, so a replacement
// subtree can be wired in place. A nil parent marks the root.
type site struct {
	node   *genotype.Node
	parent *genotype.Node
	slot   int
	depth  int
}

func collectSites(root *genotype.Node) []site {
	var out []site
	walkSites(root, nil, 0, 0, &out)
	return out
}

func walkSites(n, parent *genotype.Node, slot, depth int, out *[]site) {
	*out = append(*out, site{node: n, parent: parent, slot: slot, depth: depth})
	for i, child := range n.Children {
		walkSites(child, n, i, depth+1, out)
	}
}

func literalSites(root *genotype.Node) []site {
	all := collectSites(root)
	out := all[:0]
	for _, s := range all {
		if s.node.Def.Kind == nodeset.KindLiteral {
			out = append(out, s)
		}
	}
	return out
}

func sitesByType(root *genotype.Node, returns nodeset.TypeLabel) []site {
	all := collectSites(root)
	out := all[:0]
	for _, s := range all {
		if s.node.Def.Returns == returns {
			out = append(out, s)
		}
	}
	return out
}

// replaceAt substitutes the subtree at a site. The caller passes sites
// collected from the same tree the replacement is wired into.
func replaceAt(tree *genotype.Tree, s site, replacement *genotype.Node) {
	if s.parent == nil {
		tree.Root = replacement
		return
	}
	s.parent.Children[s.slot] = replacement
}

func subtreeDepth(n *genotype.Node) int {
	deepest := 0
	for _, child := range n.Children {
		if d := subtreeDepth(child) + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

func subtreeSize(n *genotype.Node) int {
	count := 1
	for _, child := range n.Children {
		count += subtreeSize(child)
	}
	return count
}
