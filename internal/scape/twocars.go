package scape

import (
	"context"
	"fmt"
	"math"
)

const (
	PlayerPursuer = 0
	PlayerEvader  = 1
)

// CarState is one car's fixed kinematics plus its pose. Speed is constant;
// the only control input is the turn command scaled by the turning rate.
type CarState struct {
	Speed       float64
	TurningRate float64
	X           float64
	Y           float64
	Heading     float64
}

// GameState is a two-cars pursuit game position. Though the game is
// simultaneous, turns are broken into two steps: the pursuer's action is
// stored first and both cars move when the evader acts. Payoff is kept from
// the evader's perspective.
type GameState struct {
	TotalTurns    int
	CaptureRadius float64

	Pursuer CarState
	Evader  CarState

	TurnsRemaining int
	CurrentPlayer  int
	PursuerAction  float64

	Terminal bool
	Payoff   float64
}

func NewGameState(totalTurns int, captureRadius float64, pursuer, evader CarState) GameState {
	return GameState{
		TotalTurns:     totalTurns,
		CaptureRadius:  captureRadius,
		Pursuer:        pursuer,
		Evader:         evader,
		TurnsRemaining: totalTurns,
		CurrentPlayer:  PlayerPursuer,
	}
}

func TurnRateFromTurnRadius(speed, turnRadius float64) float64 {
	return speed / turnRadius
}

// Distance is the euclidean distance between the two cars.
func (s GameState) Distance() float64 {
	return math.Hypot(s.Pursuer.X-s.Evader.X, s.Pursuer.Y-s.Evader.Y)
}

// PayoffFor converts the stored evader-perspective payoff to a player's view.
func (s GameState) PayoffFor(player int) float64 {
	if player == PlayerEvader {
		return s.Payoff
	}
	return -s.Payoff
}

// Step advances the game by one player action. The pursuer's action is
// buffered; the evader's action resolves the simultaneous turn.
func (s GameState) Step(action float64) GameState {
	if s.CurrentPlayer == PlayerPursuer {
		next := s
		next.PursuerAction = action
		next.CurrentPlayer = PlayerEvader
		return next
	}
	return s.resolveTurn(action)
}

func (s GameState) resolveTurn(evaderAction float64) GameState {
	next := s

	pursuerHeading := s.Pursuer.Heading + s.Pursuer.TurningRate*s.PursuerAction
	next.Pursuer = CarState{
		Speed:       s.Pursuer.Speed,
		TurningRate: s.Pursuer.TurningRate,
		X:           s.Pursuer.X + s.Pursuer.Speed*math.Cos(pursuerHeading),
		Y:           s.Pursuer.Y + s.Pursuer.Speed*math.Sin(pursuerHeading),
		Heading:     pursuerHeading,
	}

	evaderHeading := s.Evader.Heading + s.Evader.TurningRate*evaderAction
	next.Evader = CarState{
		Speed:       s.Evader.Speed,
		TurningRate: s.Evader.TurningRate,
		X:           s.Evader.X + s.Evader.Speed*math.Cos(evaderHeading),
		Y:           s.Evader.Y + s.Evader.Speed*math.Sin(evaderHeading),
		Heading:     evaderHeading,
	}

	next.TurnsRemaining = s.TurnsRemaining - 1
	next.CurrentPlayer = PlayerPursuer
	next.PursuerAction = 0

	// Capture is checked against the positions entering the turn.
	capture := s.Distance() < s.CaptureRadius
	next.Terminal = next.TurnsRemaining <= 0 || capture

	next.Payoff = 0
	if next.TurnsRemaining == 0 {
		next.Payoff = 1
	}
	if capture {
		next.Payoff = -float64(next.TurnsRemaining) / float64(s.TotalTurns)
	}
	return next
}

// TwoCarsConfig is the starting position of the pursuit game.
type TwoCarsConfig struct {
	GameDuration  int
	CaptureRadius float64
	Pursuer       CarState
	Evader        CarState
}

// DefaultTwoCarsConfig is a classic homicidal-chauffeur setup: the pursuer
// is faster but turns wider, the evader is slow and nimble and starts ahead
// of the pursuer.
func DefaultTwoCarsConfig() TwoCarsConfig {
	return TwoCarsConfig{
		GameDuration:  50,
		CaptureRadius: 1.0,
		Pursuer: CarState{
			Speed:       1.0,
			TurningRate: TurnRateFromTurnRadius(1.0, 3.0),
		},
		Evader: CarState{
			Speed:       0.6,
			TurningRate: TurnRateFromTurnRadius(0.6, 1.0),
			X:           10,
			Y:           5,
		},
	}
}

// TwoCarsScape runs the pursuit-evasion game between a pursuer agent and an
// evader agent. The initial state is fixed at construction and never
// modified; every match replays from it.
type TwoCarsScape struct {
	initial GameState
}

func NewTwoCarsScape(cfg TwoCarsConfig) (*TwoCarsScape, error) {
	if cfg.GameDuration <= 0 {
		return nil, fmt.Errorf("game duration must be > 0, got %d", cfg.GameDuration)
	}
	if cfg.CaptureRadius <= 0 {
		return nil, fmt.Errorf("capture radius must be > 0, got %g", cfg.CaptureRadius)
	}
	return &TwoCarsScape{
		initial: NewGameState(cfg.GameDuration, cfg.CaptureRadius, cfg.Pursuer, cfg.Evader),
	}, nil
}

func (*TwoCarsScape) Name() string {
	return "two_cars"
}

func (*TwoCarsScape) Players() int {
	return 2
}

// EvaluateMatch plays one full game, asking the current player's agent for
// an action each step until the position is terminal.
func (s *TwoCarsScape) EvaluateMatch(ctx context.Context, agents []Agent) ([]Fitness, Trace, error) {
	if len(agents) != 2 {
		return nil, nil, fmt.Errorf("two_cars expects 2 agents, got %d", len(agents))
	}

	state := s.initial
	for !state.Terminal {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		player := state.CurrentPlayer
		actor, ok := agents[player].(ActionAgent)
		if !ok {
			return nil, nil, fmt.Errorf("agent %s does not produce actions", agents[player].ID())
		}
		action, err := actor.PerformAction(ctx, state)
		if err != nil {
			return nil, nil, fmt.Errorf("agent %s: %w", agents[player].ID(), err)
		}
		state = state.Step(action)
	}

	payoffs := []Fitness{
		Fitness(state.PayoffFor(PlayerPursuer)),
		Fitness(state.PayoffFor(PlayerEvader)),
	}
	trace := Trace{
		"turns_used":     state.TotalTurns - state.TurnsRemaining,
		"captured":       state.Payoff < 0,
		"final_distance": state.Distance(),
	}
	return payoffs, trace, nil
}
