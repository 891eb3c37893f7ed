package morphology

import (
	"fmt"
	"math"
	"strconv"

	"dendron/internal/nodeset"
)

const literalMutationSigma = 1.0

func evalFloat(child nodeset.ChildNode, ctx nodeset.Context) (float64, error) {
	value, err := child.Eval(ctx)
	if err != nil {
		return 0, err
	}
	f, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("expected float value, got %T", value)
	}
	return f, nil
}

func evalBool(child nodeset.ChildNode, ctx nodeset.Context) (bool, error) {
	value, err := child.Eval(ctx)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool value, got %T", value)
	}
	return b, nil
}

func unaryFloat(fn func(float64) float64) nodeset.PrimitiveFn {
	return func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
		value, err := evalFloat(children[0], ctx)
		if err != nil {
			return nil, err
		}
		return fn(value), nil
	}
}

func binaryFloat(fn func(left, right float64) float64) nodeset.PrimitiveFn {
	return func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
		left, err := evalFloat(children[0], ctx)
		if err != nil {
			return nil, err
		}
		right, err := evalFloat(children[1], ctx)
		if err != nil {
			return nil, err
		}
		return fn(left, right), nil
	}
}

func comparison(fn func(left, right float64) bool) nodeset.PrimitiveFn {
	return func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
		left, err := evalFloat(children[0], ctx)
		if err != nil {
			return nil, err
		}
		right, err := evalFloat(children[1], ctx)
		if err != nil {
			return nil, err
		}
		return fn(left, right), nil
	}
}

func binaryBool(fn func(left, right bool) bool) nodeset.PrimitiveFn {
	return func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
		left, err := evalBool(children[0], ctx)
		if err != nil {
			return nil, err
		}
		right, err := evalBool(children[1], ctx)
		if err != nil {
			return nil, err
		}
		return fn(left, right), nil
	}
}

// BaseNodes is the scape-independent arithmetic and logic node set over
// float and bool. Division-like operations are total: a zero divisor yields
// +Inf and a negative square root yields 0 rather than an error.
func BaseNodes() (*nodeset.Registry, error) {
	r, err := nodeset.New(TypeFloat, TypeBool)
	if err != nil {
		return nil, err
	}

	if err := r.RegisterLiteral("float_literal", TypeFloat, func(fixed nodeset.FixedContext) any {
		return randFloat64(fixed)*20 - 10
	}); err != nil {
		return nil, err
	}
	if err := r.RegisterLiteral("bool_literal", TypeBool, func(fixed nodeset.FixedContext) any {
		return randFloat64(fixed) < 0.5
	}); err != nil {
		return nil, err
	}

	if err := r.RegisterMutator(TypeFloat, func(value any, fixed nodeset.FixedContext) any {
		current, ok := value.(float64)
		if !ok {
			return value
		}
		return current + randNormFloat64(fixed)*literalMutationSigma
	}); err != nil {
		return nil, err
	}
	if err := r.RegisterCodec(TypeFloat, nodeset.Codec{
		Serialize: func(v any) (string, error) {
			f, ok := v.(float64)
			if !ok {
				return "", fmt.Errorf("expected float literal, got %T", v)
			}
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		},
		Deserialize: func(text string) (any, error) {
			return strconv.ParseFloat(text, 64)
		},
	}); err != nil {
		return nil, err
	}

	type primitive struct {
		id       string
		returns  nodeset.TypeLabel
		children []nodeset.TypeLabel
		fn       nodeset.PrimitiveFn
	}
	floatPair := []nodeset.TypeLabel{TypeFloat, TypeFloat}
	primitives := []primitive{
		{"zero", TypeFloat, nil, func(_ []nodeset.ChildNode, _ nodeset.Context) (any, error) {
			return 0.0, nil
		}},
		{"one", TypeFloat, nil, func(_ []nodeset.ChildNode, _ nodeset.Context) (any, error) {
			return 1.0, nil
		}},

		{"negate", TypeFloat, []nodeset.TypeLabel{TypeFloat}, unaryFloat(func(v float64) float64 {
			return -v
		})},
		{"invert", TypeFloat, []nodeset.TypeLabel{TypeFloat}, unaryFloat(func(v float64) float64 {
			if v == 0 {
				return math.Inf(1)
			}
			return 1 / v
		})},
		{"sign", TypeFloat, []nodeset.TypeLabel{TypeFloat}, unaryFloat(func(v float64) float64 {
			switch {
			case v > 0:
				return 1
			case v < 0:
				return -1
			default:
				return 0
			}
		})},
		{"absolute_value", TypeFloat, []nodeset.TypeLabel{TypeFloat}, unaryFloat(math.Abs)},
		{"square", TypeFloat, []nodeset.TypeLabel{TypeFloat}, unaryFloat(func(v float64) float64 {
			return v * v
		})},
		{"square_root", TypeFloat, []nodeset.TypeLabel{TypeFloat}, unaryFloat(func(v float64) float64 {
			if v < 0 {
				return 0
			}
			return math.Sqrt(v)
		})},

		{"add", TypeFloat, floatPair, binaryFloat(func(l, r float64) float64 { return l + r })},
		{"subtract", TypeFloat, floatPair, binaryFloat(func(l, r float64) float64 { return l - r })},
		{"multiply", TypeFloat, floatPair, binaryFloat(func(l, r float64) float64 { return l * r })},
		{"divide", TypeFloat, floatPair, binaryFloat(func(l, r float64) float64 {
			if r == 0 {
				return math.Inf(1)
			}
			return l / r
		})},
		{"maximum", TypeFloat, floatPair, binaryFloat(math.Max)},
		{"minimum", TypeFloat, floatPair, binaryFloat(math.Min)},

		{"bool_not", TypeBool, []nodeset.TypeLabel{TypeBool}, func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
			value, err := evalBool(children[0], ctx)
			if err != nil {
				return nil, err
			}
			return !value, nil
		}},
		{"bool_and", TypeBool, []nodeset.TypeLabel{TypeBool, TypeBool}, binaryBool(func(l, r bool) bool { return l && r })},
		{"bool_or", TypeBool, []nodeset.TypeLabel{TypeBool, TypeBool}, binaryBool(func(l, r bool) bool { return l || r })},
		{"bool_xor", TypeBool, []nodeset.TypeLabel{TypeBool, TypeBool}, binaryBool(func(l, r bool) bool { return l != r })},

		{"greater_than", TypeBool, floatPair, comparison(func(l, r float64) bool { return l > r })},
		{"less_than", TypeBool, floatPair, comparison(func(l, r float64) bool { return l < r })},

		{"if_else", TypeFloat, []nodeset.TypeLabel{TypeBool, TypeFloat, TypeFloat},
			func(children []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
				condition, err := evalBool(children[0], ctx)
				if err != nil {
					return nil, err
				}
				if condition {
					return children[1].Eval(ctx)
				}
				return children[2].Eval(ctx)
			}},
	}

	for _, p := range primitives {
		if err := r.RegisterPrimitive(p.id, p.returns, p.children, p.fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}
