package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"dendron/internal/genotype"
	"dendron/internal/morphology"
	"dendron/internal/nodeset"
)

const (
	defaultAction = 0.0
	minAction     = -1.0
	maxAction     = 1.0
)

// TreeAgent drives one player with an evolved strategy tree. It owns the
// execution context it builds around each observed state, recovers from the
// strategy's propagated arithmetic failures by substituting a safe default,
// and clamps the raw output into the game's action range.
type TreeAgent struct {
	id   string
	tree *genotype.Tree
}

func NewTreeAgent(id string, tree *genotype.Tree) (*TreeAgent, error) {
	if id == "" {
		return nil, errors.New("agent id is required")
	}
	if tree == nil || tree.Root == nil {
		return nil, genotype.ErrNilTree
	}
	return &TreeAgent{id: id, tree: tree}, nil
}

func (a *TreeAgent) ID() string {
	return a.id
}

func (a *TreeAgent) Tree() *genotype.Tree {
	return a.tree
}

func (a *TreeAgent) PerformAction(ctx context.Context, state any) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	execCtx := nodeset.Context{morphology.StateContextKey: state}
	value, err := a.tree.Execute(execCtx)
	if err != nil {
		if errors.Is(err, genotype.ErrArithmetic) {
			slog.Warn("arithmetic error executing strategy tree", "agent", a.id, "error", err)
			return defaultAction, nil
		}
		return 0, err
	}

	action, ok := value.(float64)
	if !ok {
		return 0, fmt.Errorf("strategy tree produced %T, expected float action", value)
	}
	if math.IsNaN(action) {
		return defaultAction, nil
	}
	return clamp(action), nil
}

func clamp(action float64) float64 {
	if action < minAction {
		return minAction
	}
	if action > maxAction {
		return maxAction
	}
	return action
}
