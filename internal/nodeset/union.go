package nodeset

import (
	"errors"
	"fmt"
	"sort"
)

type sourceSnapshot struct {
	types    []TypeLabel
	defs     []NodeDef
	codecs   map[TypeLabel]Codec
	mutators map[TypeLabel]MutatorFn
}

func (r *Registry) snapshot() sourceSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := sourceSnapshot{
		codecs:   make(map[TypeLabel]Codec, len(r.codecs)),
		mutators: make(map[TypeLabel]MutatorFn, len(r.mutators)),
	}
	for t := range r.types {
		snap.types = append(snap.types, t)
	}
	sort.Slice(snap.types, func(i, j int) bool { return snap.types[i] < snap.types[j] })
	for _, t := range snap.types {
		for _, id := range r.byType[t] {
			snap.defs = append(snap.defs, r.defs[id])
		}
	}
	for t, codec := range r.codecs {
		snap.codecs[t] = codec
	}
	for t, fn := range r.mutators {
		snap.mutators[t] = fn
	}
	return snap
}

// Union merges definition sources into a new registry. A node class is the
// union of an explicit list of sources (base set plus extensions) rather than
// an inheritance chain; exclusion lists are applied later, per tree.
//
// A definition id appearing in several sources is accepted when every
// occurrence has an identical signature; conflicting signatures under one id
// are a configuration defect and fail here, before any tree exists.
func Union(sources ...*Registry) (*Registry, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one definition source is required")
	}

	snapshots := make([]sourceSnapshot, len(sources))
	for i, src := range sources {
		snapshots[i] = src.snapshot()
	}

	seen := make(map[TypeLabel]struct{})
	var types []TypeLabel
	for _, snap := range snapshots {
		for _, t := range snap.types {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}

	merged, err := New(types...)
	if err != nil {
		return nil, err
	}

	for _, snap := range snapshots {
		for _, def := range snap.defs {
			if existing, ok := merged.defs[def.ID]; ok {
				if !sameSignature(existing, def) {
					return nil, fmt.Errorf("%w: %q", ErrSignatureClash, def.ID)
				}
				continue
			}
			merged.defs[def.ID] = def
			merged.byType[def.Returns] = append(merged.byType[def.Returns], def.ID)
		}
		for t, codec := range snap.codecs {
			if _, ok := merged.codecs[t]; !ok {
				merged.codecs[t] = codec
			}
		}
		for t, fn := range snap.mutators {
			if _, ok := merged.mutators[t]; !ok {
				merged.mutators[t] = fn
			}
		}
	}

	return merged, nil
}

func sameSignature(a, b NodeDef) bool {
	if a.Kind != b.Kind || a.Returns != b.Returns || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if a.Children[i] != b.Children[i] {
			return false
		}
	}
	return true
}
