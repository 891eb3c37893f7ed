package tuning

import (
	"context"

	"dendron/internal/genotype"
)

type FitnessFn func(ctx context.Context, tree *genotype.Tree) (float64, error)

type TuneReport struct {
	AttemptsPlanned      int  `json:"attempts_planned"`
	AttemptsExecuted     int  `json:"attempts_executed"`
	CandidateEvaluations int  `json:"candidate_evaluations"`
	AcceptedCandidates   int  `json:"accepted_candidates"`
	RejectedCandidates   int  `json:"rejected_candidates"`
	GoalReached          bool `json:"goal_reached"`
}

// Tuner refines the literal values of a tree without changing its structure.
type Tuner interface {
	Name() string
	Tune(ctx context.Context, tree *genotype.Tree, attempts int, fitness FitnessFn) (*genotype.Tree, error)
}

type ReportingTuner interface {
	Tuner
	TuneWithReport(ctx context.Context, tree *genotype.Tree, attempts int, fitness FitnessFn) (*genotype.Tree, TuneReport, error)
}
