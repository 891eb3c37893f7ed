package genotype

import (
	"encoding/json"
	"errors"
	"fmt"

	"dendron/internal/model"
	"dendron/internal/nodeset"
)

var (
	// ErrNoCodec reports an attempt to persist a literal value whose type
	// has no registered codec and whose native representation is not
	// directly usable. Raised at serialization time, never silently skipped.
	ErrNoCodec = errors.New("no literal codec registered")

	ErrTruncatedRecord = errors.New("tree record ends before all child slots are filled")
	ErrTrailingNodes   = errors.New("tree record contains nodes past the root subtree")
)

// Flatten converts the tree to its persistent record form: construction
// parameters plus the nodes in preorder. Arity is implied by each referenced
// definition, so no child links are stored.
func (t *Tree) Flatten(id string) (model.TreeRecord, error) {
	if t == nil || t.Root == nil {
		return model.TreeRecord{}, ErrNilTree
	}

	rec := model.TreeRecord{
		ID:        id,
		Returns:   string(t.Returns),
		MaxDepth:  t.MaxDepth,
		Forbidden: append([]string(nil), t.Forbidden...),
		Nodes:     make([]model.NodeRecord, 0, t.Size()),
	}
	if err := t.flattenNode(t.Root, &rec.Nodes); err != nil {
		return model.TreeRecord{}, err
	}
	return rec, nil
}

func (t *Tree) flattenNode(n *Node, out *[]model.NodeRecord) error {
	nodeRec := model.NodeRecord{Def: n.Def.ID}
	if n.Def.Kind == nodeset.KindLiteral {
		text, err := encodeLiteral(t.registry, n.Def.Returns, n.Value)
		if err != nil {
			return fmt.Errorf("literal %q: %w", n.Def.ID, err)
		}
		nodeRec.Value = text
	}
	*out = append(*out, nodeRec)
	for _, child := range n.Children {
		if err := t.flattenNode(child, out); err != nil {
			return err
		}
	}
	return nil
}

// Restore rebuilds a type-correct tree from its record form against the
// given definition catalog. The restored tree is validated before return, so
// a record referencing missing or reshaped definitions fails loudly.
func Restore(registry *nodeset.Registry, rec model.TreeRecord, fixed nodeset.FixedContext) (*Tree, error) {
	if registry == nil {
		return nil, errors.New("node definition registry is required")
	}
	if len(rec.Nodes) == 0 {
		return nil, errors.New("tree record has no nodes")
	}

	cursor := 0
	root, err := restoreNode(registry, rec.Nodes, &cursor)
	if err != nil {
		return nil, err
	}
	if cursor != len(rec.Nodes) {
		return nil, fmt.Errorf("%w: %d of %d consumed", ErrTrailingNodes, cursor, len(rec.Nodes))
	}

	tree := &Tree{
		Root:      root,
		Returns:   nodeset.TypeLabel(rec.Returns),
		MaxDepth:  rec.MaxDepth,
		Forbidden: append([]string(nil), rec.Forbidden...),
		Fixed:     fixed,
		registry:  registry,
	}
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("restored tree failed validation: %w", err)
	}
	return tree, nil
}

func restoreNode(registry *nodeset.Registry, nodes []model.NodeRecord, cursor *int) (*Node, error) {
	if *cursor >= len(nodes) {
		return nil, ErrTruncatedRecord
	}
	nodeRec := nodes[*cursor]
	*cursor++

	def, ok := registry.Lookup(nodeRec.Def)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDef, nodeRec.Def)
	}

	node := &Node{Def: def}
	if def.Kind == nodeset.KindLiteral {
		value, err := decodeLiteral(registry, def.Returns, nodeRec.Value)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", def.ID, err)
		}
		node.Value = value
		return node, nil
	}

	if def.Arity() > 0 {
		node.Children = make([]*Node, def.Arity())
		for i := range def.Children {
			child, err := restoreNode(registry, nodes, cursor)
			if err != nil {
				return nil, err
			}
			node.Children[i] = child
		}
	}
	return node, nil
}

func encodeLiteral(registry *nodeset.Registry, t nodeset.TypeLabel, value any) (string, error) {
	if codec, ok := registry.CodecFor(t); ok {
		return codec.Serialize(value)
	}
	switch value.(type) {
	case bool, float64, string:
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w for type %q (value %T)", ErrNoCodec, t, value)
	}
}

func decodeLiteral(registry *nodeset.Registry, t nodeset.TypeLabel, text string) (any, error) {
	if codec, ok := registry.CodecFor(t); ok {
		return codec.Deserialize(text)
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, err
	}
	switch value.(type) {
	case bool, float64, string:
		return value, nil
	default:
		return nil, fmt.Errorf("%w for type %q", ErrNoCodec, t)
	}
}
