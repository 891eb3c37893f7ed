package nodeset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	KindPrimitive = "primitive"
	KindLiteral   = "literal"
)

var (
	ErrDefExists      = errors.New("node definition already registered")
	ErrDefNotFound    = errors.New("node definition not found")
	ErrUnknownType    = errors.New("type label not declared")
	ErrCodecExists    = errors.New("literal codec already registered")
	ErrMutatorExists  = errors.New("literal mutator already registered")
	ErrSignatureClash = errors.New("conflicting node definition signatures")
)

// TypeLabel names a category of value flow between nodes. Labels are opaque:
// compatibility is label equality, with no hierarchy between labels.
type TypeLabel string

// Context is the caller-owned mutable state shared by every node activated
// within one tree execution.
type Context map[string]any

// FixedContext is evolution-time-constant data available to literal
// generators and mutators at construction, never during execution.
type FixedContext map[string]any

// ChildNode is an unevaluated child handle passed to a primitive's behavior.
// The behavior decides which children to evaluate, in what order, and how
// many times.
type ChildNode interface {
	Eval(ctx Context) (any, error)
}

type PrimitiveFn func(children []ChildNode, ctx Context) (any, error)

// LiteralFn produces the constant value for a literal node instance. It is
// invoked exactly once, when the instance is created.
type LiteralFn func(fixed FixedContext) any

// MutatorFn derives a new literal value from the current one.
type MutatorFn func(value any, fixed FixedContext) any

type SerializeFn func(value any) (string, error)

type DeserializeFn func(text string) (any, error)

// Codec converts literal values to and from a stable string form for
// persistence of types whose native representation is not already textual.
type Codec struct {
	Serialize   SerializeFn
	Deserialize DeserializeFn
}

// NodeDef is one immutable catalog entry: a buildable tree operation
// (primitive) or constant generator (literal).
type NodeDef struct {
	ID        string
	Kind      string
	Returns   TypeLabel
	Children  []TypeLabel
	Primitive PrimitiveFn
	Literal   LiteralFn
}

func (d NodeDef) Arity() int {
	return len(d.Children)
}

// Terminal reports whether the definition can occupy a maximum-depth slot.
func (d NodeDef) Terminal() bool {
	return d.Kind == KindLiteral || len(d.Children) == 0
}

// Registry is the definition catalog for one node class. It is populated at
// class-definition time and read-only thereafter, so concurrent reads from
// evaluation workers need no coordination beyond the internal lock.
type Registry struct {
	mu       sync.RWMutex
	types    map[TypeLabel]struct{}
	defs     map[string]NodeDef
	byType   map[TypeLabel][]string
	codecs   map[TypeLabel]Codec
	mutators map[TypeLabel]MutatorFn
}

// New creates a registry over a fixed, enumerable set of type labels.
func New(types ...TypeLabel) (*Registry, error) {
	if len(types) == 0 {
		return nil, errors.New("at least one type label is required")
	}
	r := &Registry{
		types:    make(map[TypeLabel]struct{}, len(types)),
		defs:     make(map[string]NodeDef),
		byType:   make(map[TypeLabel][]string),
		codecs:   make(map[TypeLabel]Codec),
		mutators: make(map[TypeLabel]MutatorFn),
	}
	for _, t := range types {
		if strings.TrimSpace(string(t)) == "" {
			return nil, errors.New("type label must not be empty")
		}
		if _, ok := r.types[t]; ok {
			return nil, fmt.Errorf("duplicate type label %q", t)
		}
		r.types[t] = struct{}{}
	}
	return r, nil
}

func (r *Registry) Types() []TypeLabel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TypeLabel, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) checkType(t TypeLabel) error {
	if _, ok := r.types[t]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return nil
}

// RegisterPrimitive adds a primitive definition. Zero child types declare a
// terminal (sensor) primitive.
func (r *Registry) RegisterPrimitive(id string, returns TypeLabel, children []TypeLabel, fn PrimitiveFn) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("node definition id is required")
	}
	if fn == nil {
		return fmt.Errorf("primitive %q: behavior function is required", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkType(returns); err != nil {
		return fmt.Errorf("primitive %q return type: %w", id, err)
	}
	for i, c := range children {
		if err := r.checkType(c); err != nil {
			return fmt.Errorf("primitive %q child %d: %w", id, i, err)
		}
	}
	if _, ok := r.defs[id]; ok {
		return fmt.Errorf("%w: %q", ErrDefExists, id)
	}

	def := NodeDef{
		ID:        id,
		Kind:      KindPrimitive,
		Returns:   returns,
		Children:  append([]TypeLabel(nil), children...),
		Primitive: fn,
	}
	r.defs[id] = def
	r.byType[returns] = append(r.byType[returns], id)
	return nil
}

// RegisterLiteral adds a literal definition whose generator fixes an
// instance's constant value at creation time.
func (r *Registry) RegisterLiteral(id string, returns TypeLabel, gen LiteralFn) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("node definition id is required")
	}
	if gen == nil {
		return fmt.Errorf("literal %q: generator function is required", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkType(returns); err != nil {
		return fmt.Errorf("literal %q return type: %w", id, err)
	}
	if _, ok := r.defs[id]; ok {
		return fmt.Errorf("%w: %q", ErrDefExists, id)
	}

	r.defs[id] = NodeDef{
		ID:      id,
		Kind:    KindLiteral,
		Returns: returns,
		Literal: gen,
	}
	r.byType[returns] = append(r.byType[returns], id)
	return nil
}

// RegisterCodec installs the serializer pair for one literal type.
func (r *Registry) RegisterCodec(t TypeLabel, codec Codec) error {
	if codec.Serialize == nil || codec.Deserialize == nil {
		return fmt.Errorf("codec for %q: both serialize and deserialize are required", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkType(t); err != nil {
		return err
	}
	if _, ok := r.codecs[t]; ok {
		return fmt.Errorf("%w: %q", ErrCodecExists, t)
	}
	r.codecs[t] = codec
	return nil
}

// RegisterMutator installs the literal mutator for one type. Types without a
// mutator fall back to re-invoking their literal generator on mutation.
func (r *Registry) RegisterMutator(t TypeLabel, fn MutatorFn) error {
	if fn == nil {
		return fmt.Errorf("mutator for %q: function is required", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkType(t); err != nil {
		return err
	}
	if _, ok := r.mutators[t]; ok {
		return fmt.Errorf("%w: %q", ErrMutatorExists, t)
	}
	r.mutators[t] = fn
	return nil
}

func (r *Registry) Lookup(id string) (NodeDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	return def, ok
}

func (r *Registry) CodecFor(t TypeLabel) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codec, ok := r.codecs[t]
	return codec, ok
}

func (r *Registry) MutatorFor(t TypeLabel) (MutatorFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.mutators[t]
	return fn, ok
}

// Available returns every definition returning the requested type whose id is
// not in the forbidden list, in registration order. The forbidden list is
// applied per call so that two populations sharing a node class can still
// play with different allowed subsets.
func (r *Registry) Available(returns TypeLabel, forbidden []string) []NodeDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	excluded := forbiddenSet(forbidden)
	ids := r.byType[returns]
	out := make([]NodeDef, 0, len(ids))
	for _, id := range ids {
		if _, skip := excluded[id]; skip {
			continue
		}
		out = append(out, r.defs[id])
	}
	return out
}

// AvailableTerminals is Available restricted to literals and zero-arity
// primitives, the only definitions allowed at a maximum-depth slot.
func (r *Registry) AvailableTerminals(returns TypeLabel, forbidden []string) []NodeDef {
	defs := r.Available(returns, forbidden)
	out := defs[:0]
	for _, def := range defs {
		if def.Terminal() {
			out = append(out, def)
		}
	}
	return out
}

func forbiddenSet(forbidden []string) map[string]struct{} {
	if len(forbidden) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(forbidden))
	for _, id := range forbidden {
		set[id] = struct{}{}
	}
	return set
}
