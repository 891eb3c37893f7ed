package scape

import "context"

type Fitness float64

type Trace map[string]any

type Agent interface {
	ID() string
}

// ActionAgent produces one scalar action per decision from an observed game
// state. The agent owns the execution context it builds around the state and
// is responsible for recovering from its strategy's numeric failures.
type ActionAgent interface {
	Agent
	PerformAction(ctx context.Context, state any) (float64, error)
}

// MatchScape evaluates a group of agents against each other in one game and
// returns a payoff per player position.
type MatchScape interface {
	Name() string
	Players() int
	EvaluateMatch(ctx context.Context, agents []Agent) ([]Fitness, Trace, error)
}
