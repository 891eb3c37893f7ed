// Package morphology maps scape names to the node classes their agents are
// built from: the type labels, node definitions, literal codecs and mutators
// a strategy tree for that scape may use.
package morphology

import (
	"errors"
	"fmt"
	"math/rand"

	"dendron/internal/nodeset"
)

const (
	TypeFloat nodeset.TypeLabel = "float"
	TypeBool  nodeset.TypeLabel = "bool"
)

var ErrUnknownMorphology = errors.New("unknown morphology")

// Morphology bundles a scape's node class with the tree parameters its
// agents are constructed under by default.
type Morphology struct {
	Scape    string
	Returns  nodeset.TypeLabel
	Registry *nodeset.Registry
}

// ForScape builds the node class for a scape. The registry is assembled
// fresh on each call, so callers own their instance and concurrent
// experiments never share mutable registration state.
func ForScape(name string) (Morphology, error) {
	switch name {
	case "two_cars":
		registry, err := TwoCarsNodes()
		if err != nil {
			return Morphology{}, fmt.Errorf("two_cars node class: %w", err)
		}
		return Morphology{Scape: name, Returns: TypeFloat, Registry: registry}, nil
	default:
		return Morphology{}, fmt.Errorf("%w: %q", ErrUnknownMorphology, name)
	}
}

// FixedContext assembles the evolution-time-constant context literal
// generators and mutators draw from.
func FixedContext(rng *rand.Rand) nodeset.FixedContext {
	return nodeset.FixedContext{"rand": rng}
}

func randFrom(fixed nodeset.FixedContext) *rand.Rand {
	if rng, ok := fixed["rand"].(*rand.Rand); ok && rng != nil {
		return rng
	}
	return nil
}

func randFloat64(fixed nodeset.FixedContext) float64 {
	if rng := randFrom(fixed); rng != nil {
		return rng.Float64()
	}
	return rand.Float64()
}

func randNormFloat64(fixed nodeset.FixedContext) float64 {
	if rng := randFrom(fixed); rng != nil {
		return rng.NormFloat64()
	}
	return rand.NormFloat64()
}
