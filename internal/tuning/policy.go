package tuning

import (
	"fmt"
	"math"

	"dendron/internal/genotype"
)

// AttemptPolicy decides how many hill-climbing attempts a tree receives,
// e.g. more attempts for larger trees or fewer late in a run.
type AttemptPolicy interface {
	Name() string
	Attempts(baseAttempts, generation, totalGenerations int, tree *genotype.Tree) int
}

type FixedAttemptPolicy struct{}

func (FixedAttemptPolicy) Name() string { return "fixed" }

func (FixedAttemptPolicy) Attempts(baseAttempts, _generation, _totalGenerations int, _ *genotype.Tree) int {
	if baseAttempts < 0 {
		return 0
	}
	return baseAttempts
}

type LinearDecayAttemptPolicy struct {
	MinAttempts int
}

func (LinearDecayAttemptPolicy) Name() string { return "linear_decay" }

func (p LinearDecayAttemptPolicy) Attempts(baseAttempts, generation, totalGenerations int, _ *genotype.Tree) int {
	if baseAttempts <= 0 {
		return 0
	}
	if totalGenerations <= 0 {
		return baseAttempts
	}
	remaining := totalGenerations - generation
	if remaining < 1 {
		remaining = 1
	}
	attempts := (baseAttempts * remaining) / totalGenerations
	if attempts < p.MinAttempts {
		attempts = p.MinAttempts
	}
	if attempts < 0 {
		return 0
	}
	return attempts
}

type SizeScaledAttemptPolicy struct {
	Scale       float64
	MinAttempts int
	MaxAttempts int
}

func (SizeScaledAttemptPolicy) Name() string { return "size_scaled" }

func (p SizeScaledAttemptPolicy) Attempts(baseAttempts, _generation, _totalGenerations int, tree *genotype.Tree) int {
	if baseAttempts <= 0 {
		return 0
	}
	scale := p.Scale
	if scale <= 0 {
		scale = 1.0
	}
	size := 0
	if tree != nil {
		size = tree.Size()
	}
	attempts := int(float64(baseAttempts) * scale * (1.0 + float64(size)/10.0))
	if attempts < p.MinAttempts {
		attempts = p.MinAttempts
	}
	if p.MaxAttempts > 0 && attempts > p.MaxAttempts {
		attempts = p.MaxAttempts
	}
	return attempts
}

type LiteralProportionalAttemptPolicy struct {
	Power float64
}

func (LiteralProportionalAttemptPolicy) Name() string { return "literal_proportional" }

func (p LiteralProportionalAttemptPolicy) Attempts(baseAttempts, _generation, _totalGenerations int, tree *genotype.Tree) int {
	if baseAttempts <= 0 {
		return 0
	}
	power := p.Power
	if power <= 0 {
		power = 1.0
	}
	literalCount := 0
	if tree != nil {
		literalCount = len(tunableLiterals(tree))
	}
	scaled := satInt(int(math.Round(math.Pow(float64(literalCount), power))), 0, 100)
	return 10 + scaled
}

func AttemptPolicyFromConfig(name string, param float64) (AttemptPolicy, error) {
	switch NormalizeAttemptPolicyName(name) {
	case "", "fixed":
		return FixedAttemptPolicy{}, nil
	case "linear_decay":
		min := int(param)
		if min < 1 {
			min = 1
		}
		return LinearDecayAttemptPolicy{MinAttempts: min}, nil
	case "size_scaled":
		scale := param
		if scale <= 0 {
			scale = 1.0
		}
		return SizeScaledAttemptPolicy{Scale: scale, MinAttempts: 1, MaxAttempts: 0}, nil
	case "literal_proportional":
		power := param
		if power <= 0 {
			power = 1.0
		}
		return LiteralProportionalAttemptPolicy{Power: power}, nil
	default:
		return nil, fmt.Errorf("unsupported tune duration policy: %s", name)
	}
}

func NormalizeAttemptPolicyName(name string) string {
	switch name {
	case "", "fixed", "const":
		return "fixed"
	default:
		return name
	}
}

func satInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
