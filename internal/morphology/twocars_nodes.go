package morphology

import (
	"fmt"
	"math"

	"dendron/internal/genotype"
	"dendron/internal/nodeset"
	"dendron/internal/scape"
)

// StateContextKey is where agents place the current game state in the
// execution context for sensor nodes to read.
const StateContextKey = "state"

func gameState(ctx nodeset.Context) (scape.GameState, error) {
	state, ok := ctx[StateContextKey].(scape.GameState)
	if !ok {
		return scape.GameState{}, fmt.Errorf("game state missing from execution context")
	}
	return state, nil
}

func sensor(read func(state scape.GameState) (float64, error)) nodeset.PrimitiveFn {
	return func(_ []nodeset.ChildNode, ctx nodeset.Context) (any, error) {
		state, err := gameState(ctx)
		if err != nil {
			return nil, err
		}
		value, err := read(state)
		if err != nil {
			return nil, err
		}
		return value, nil
	}
}

func turningRadius(car scape.CarState) (float64, error) {
	if car.TurningRate == 0 {
		return 0, fmt.Errorf("%w: turning radius with zero turning rate", genotype.ErrArithmetic)
	}
	return car.Speed / car.TurningRate, nil
}

// TwoCarsSensors are the pursuit-game observation terminals. Frame-relative
// distance components are projected into the observing car's frame of
// reference.
func TwoCarsSensors() (*nodeset.Registry, error) {
	r, err := nodeset.New(TypeFloat, TypeBool)
	if err != nil {
		return nil, err
	}

	type sensorDef struct {
		id   string
		read func(state scape.GameState) (float64, error)
	}
	sensors := []sensorDef{
		{"pursuer_speed", func(s scape.GameState) (float64, error) {
			return s.Pursuer.Speed, nil
		}},
		{"evader_speed", func(s scape.GameState) (float64, error) {
			return s.Evader.Speed, nil
		}},
		{"pursuer_turning_radius", func(s scape.GameState) (float64, error) {
			return turningRadius(s.Pursuer)
		}},
		{"evader_turning_radius", func(s scape.GameState) (float64, error) {
			return turningRadius(s.Evader)
		}},
		{"distance_pursuer_evader", func(s scape.GameState) (float64, error) {
			return s.Distance(), nil
		}},
		{"distance_pursuer_evader_x", func(s scape.GameState) (float64, error) {
			rightHeading := s.Pursuer.Heading + math.Pi/2
			return (s.Evader.X-s.Pursuer.X)*math.Cos(rightHeading) +
				(s.Evader.Y-s.Pursuer.Y)*math.Sin(rightHeading), nil
		}},
		{"distance_pursuer_evader_y", func(s scape.GameState) (float64, error) {
			return (s.Evader.X-s.Pursuer.X)*math.Sin(s.Pursuer.Heading) -
				(s.Evader.Y-s.Pursuer.Y)*math.Cos(s.Pursuer.Heading), nil
		}},
		{"distance_evader_pursuer_x", func(s scape.GameState) (float64, error) {
			rightHeading := s.Evader.Heading + math.Pi/2
			return (s.Pursuer.X-s.Evader.X)*math.Cos(rightHeading) +
				(s.Pursuer.Y-s.Evader.Y)*math.Sin(rightHeading), nil
		}},
		{"distance_evader_pursuer_y", func(s scape.GameState) (float64, error) {
			return (s.Pursuer.X-s.Evader.X)*math.Sin(s.Evader.Heading) -
				(s.Pursuer.Y-s.Evader.Y)*math.Cos(s.Evader.Heading), nil
		}},
		{"time_remaining", func(s scape.GameState) (float64, error) {
			return float64(s.TurnsRemaining), nil
		}},
		{"time_ratio_remaining", func(s scape.GameState) (float64, error) {
			return float64(s.TurnsRemaining) / float64(s.TotalTurns), nil
		}},
	}

	for _, def := range sensors {
		if err := r.RegisterPrimitive(def.id, TypeFloat, nil, sensor(def.read)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// TwoCarsNodes is the full two-cars node class: the scape-independent base
// set extended with the game's sensors.
func TwoCarsNodes() (*nodeset.Registry, error) {
	base, err := BaseNodes()
	if err != nil {
		return nil, err
	}
	sensors, err := TwoCarsSensors()
	if err != nil {
		return nil, err
	}
	return nodeset.Union(base, sensors)
}
