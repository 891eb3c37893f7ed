package genotype

import (
	"errors"
	"fmt"
	"math/rand"

	"dendron/internal/nodeset"
)

const (
	StrategyGrow = "grow"
	StrategyFull = "full"
)

var (
	// ErrNoCandidates reports a configuration defect: a requested return
	// type has no allowed definition at a required depth, so no valid tree
	// can exist. It is surfaced immediately and never retried silently.
	ErrNoCandidates = errors.New("no node definitions available")

	ErrBadStrategy = errors.New("unknown construction strategy")
)

// BuildConfig carries the parameters a tree is constructed under. The same
// parameters are recorded on the resulting tree so variation operators can
// rebuild subtrees under identical constraints.
type BuildConfig struct {
	Registry  *nodeset.Registry
	Returns   nodeset.TypeLabel
	MaxDepth  int
	Strategy  string
	Fixed     nodeset.FixedContext
	Forbidden []string
	Rand      *rand.Rand
}

// Build constructs a new type-correct random tree by recursive descent from
// the requested return type.
//
// Under the grow strategy every allowed definition is a candidate until the
// depth bound, where only terminals remain. Under the full strategy interior
// slots restrict to nonzero-arity primitives whenever any exist for the slot
// type, forcing branches to reach the bound.
func Build(cfg BuildConfig) (*Tree, error) {
	if cfg.Registry == nil {
		return nil, errors.New("node definition registry is required")
	}
	if cfg.Rand == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", cfg.MaxDepth)
	}
	switch cfg.Strategy {
	case StrategyGrow, StrategyFull:
	case "":
		cfg.Strategy = StrategyGrow
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadStrategy, cfg.Strategy)
	}

	root, err := buildNode(cfg, cfg.Returns, cfg.MaxDepth)
	if err != nil {
		return nil, err
	}

	tree := &Tree{
		Root:      root,
		Returns:   cfg.Returns,
		MaxDepth:  cfg.MaxDepth,
		Forbidden: append([]string(nil), cfg.Forbidden...),
		Fixed:     cfg.Fixed,
		registry:  cfg.Registry,
	}
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("constructed tree failed validation: %w", err)
	}
	return tree, nil
}

// BuildSubtree constructs a bare subtree rooted at the requested type with
// the given remaining depth budget. Used by variation operators replacing a
// node in an existing tree.
func BuildSubtree(cfg BuildConfig, returns nodeset.TypeLabel, budget int) (*Node, error) {
	if cfg.Registry == nil {
		return nil, errors.New("node definition registry is required")
	}
	if cfg.Rand == nil {
		return nil, errors.New("random source is required")
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyGrow
	}
	return buildNode(cfg, returns, budget)
}

func buildNode(cfg BuildConfig, returns nodeset.TypeLabel, budget int) (*Node, error) {
	candidates, err := candidateDefs(cfg, returns, budget)
	if err != nil {
		return nil, err
	}

	def := candidates[cfg.Rand.Intn(len(candidates))]
	if def.Kind == nodeset.KindLiteral {
		// The generator runs exactly once; the value is immutable afterward.
		return &Node{Def: def, Value: def.Literal(cfg.Fixed)}, nil
	}

	node := &Node{Def: def}
	if def.Arity() > 0 {
		node.Children = make([]*Node, def.Arity())
		for i, childType := range def.Children {
			child, err := buildNode(cfg, childType, budget-1)
			if err != nil {
				return nil, err
			}
			node.Children[i] = child
		}
	}
	return node, nil
}

func candidateDefs(cfg BuildConfig, returns nodeset.TypeLabel, budget int) ([]nodeset.NodeDef, error) {
	if budget <= 0 {
		terminals := cfg.Registry.AvailableTerminals(returns, cfg.Forbidden)
		if len(terminals) == 0 {
			return nil, fmt.Errorf("%w: no terminal returns %q at depth bound", ErrNoCandidates, returns)
		}
		return terminals, nil
	}

	all := cfg.Registry.Available(returns, cfg.Forbidden)
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no definition returns %q", ErrNoCandidates, returns)
	}
	if cfg.Strategy != StrategyFull {
		return all, nil
	}

	interior := make([]nodeset.NodeDef, 0, len(all))
	for _, def := range all {
		if def.Kind == nodeset.KindPrimitive && def.Arity() > 0 {
			interior = append(interior, def)
		}
	}
	if len(interior) == 0 {
		// No branching primitive for this type; full falls back to whatever
		// exists rather than failing.
		return all, nil
	}
	return interior, nil
}
