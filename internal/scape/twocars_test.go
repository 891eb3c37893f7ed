package scape

import (
	"context"
	"math"
	"testing"
)

type scriptedAgent struct {
	id     string
	action float64
}

func (a scriptedAgent) ID() string {
	return a.id
}

func (a scriptedAgent) PerformAction(_ context.Context, _ any) (float64, error) {
	return a.action, nil
}

func straightScape(t *testing.T, duration int, pursuer, evader CarState) *TwoCarsScape {
	t.Helper()
	s, err := NewTwoCarsScape(TwoCarsConfig{
		GameDuration:  duration,
		CaptureRadius: 1.0,
		Pursuer:       pursuer,
		Evader:        evader,
	})
	if err != nil {
		t.Fatalf("new scape: %v", err)
	}
	return s
}

func TestStepBuffersPursuerAction(t *testing.T) {
	state := NewGameState(10, 1.0, CarState{Speed: 1}, CarState{Speed: 1, X: 5})

	next := state.Step(0.5)
	if next.CurrentPlayer != PlayerEvader {
		t.Fatalf("expected evader to act next, got player=%d", next.CurrentPlayer)
	}
	if next.PursuerAction != 0.5 {
		t.Fatalf("expected buffered pursuer action, got=%g", next.PursuerAction)
	}
	if next.Pursuer.X != 0 || next.TurnsRemaining != 10 {
		t.Fatal("pursuer half-step must not move cars or consume a turn")
	}
}

func TestResolveTurnMovesBothCars(t *testing.T) {
	state := NewGameState(10, 1.0, CarState{Speed: 2}, CarState{Speed: 1, X: 5, Heading: math.Pi / 2})

	state = state.Step(0).Step(0)
	if state.TurnsRemaining != 9 || state.CurrentPlayer != PlayerPursuer {
		t.Fatalf("expected one consumed turn, got remaining=%d player=%d", state.TurnsRemaining, state.CurrentPlayer)
	}
	if math.Abs(state.Pursuer.X-2) > 1e-9 || math.Abs(state.Pursuer.Y) > 1e-9 {
		t.Fatalf("unexpected pursuer position: (%g, %g)", state.Pursuer.X, state.Pursuer.Y)
	}
	if math.Abs(state.Evader.X-5) > 1e-9 || math.Abs(state.Evader.Y-1) > 1e-9 {
		t.Fatalf("unexpected evader position: (%g, %g)", state.Evader.X, state.Evader.Y)
	}
}

func TestEvaderSurvivalPayoff(t *testing.T) {
	// Same speed, same heading: the pursuer can never close the gap.
	scape := straightScape(t, 5,
		CarState{Speed: 1, TurningRate: 0.5},
		CarState{Speed: 1, TurningRate: 0.5, X: 10})

	payoffs, trace, err := scape.EvaluateMatch(context.Background(), []Agent{
		scriptedAgent{id: "pursuer", action: 0},
		scriptedAgent{id: "evader", action: 0},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if payoffs[PlayerEvader] != 1 || payoffs[PlayerPursuer] != -1 {
		t.Fatalf("expected evader survival payoff, got=%v", payoffs)
	}
	if captured := trace["captured"].(bool); captured {
		t.Fatal("evader should not be captured")
	}
	if turns := trace["turns_used"].(int); turns != 5 {
		t.Fatalf("expected full game length, got=%d", turns)
	}
}

func TestCapturePayoffScalesWithRemainingTurns(t *testing.T) {
	// A fast pursuer starting close: capture happens on the first resolve,
	// with the pre-move distance already inside the radius.
	scape := straightScape(t, 10,
		CarState{Speed: 5, TurningRate: 0.5},
		CarState{Speed: 1, TurningRate: 0.5, X: 0.5})

	payoffs, trace, err := scape.EvaluateMatch(context.Background(), []Agent{
		scriptedAgent{id: "pursuer", action: 0},
		scriptedAgent{id: "evader", action: 0},
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !trace["captured"].(bool) {
		t.Fatal("expected capture")
	}
	// 9 turns remain out of 10: evader payoff -0.9, pursuer +0.9.
	if math.Abs(float64(payoffs[PlayerEvader])+0.9) > 1e-9 {
		t.Fatalf("unexpected evader payoff: %g", float64(payoffs[PlayerEvader]))
	}
	if math.Abs(float64(payoffs[PlayerPursuer])-0.9) > 1e-9 {
		t.Fatalf("unexpected pursuer payoff: %g", float64(payoffs[PlayerPursuer]))
	}
}

func TestEvaluateMatchRequiresTwoAgents(t *testing.T) {
	scape := straightScape(t, 5, CarState{Speed: 1}, CarState{Speed: 1, X: 10})
	if _, _, err := scape.EvaluateMatch(context.Background(), []Agent{scriptedAgent{id: "solo"}}); err == nil {
		t.Fatal("expected error for wrong agent count")
	}
}

func TestNewTwoCarsScapeValidation(t *testing.T) {
	if _, err := NewTwoCarsScape(TwoCarsConfig{GameDuration: 0, CaptureRadius: 1}); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if _, err := NewTwoCarsScape(TwoCarsConfig{GameDuration: 10, CaptureRadius: 0}); err == nil {
		t.Fatal("expected error for zero capture radius")
	}
}
