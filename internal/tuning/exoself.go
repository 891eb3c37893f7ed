package tuning

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"

	"dendron/internal/genotype"
	"dendron/internal/nodeset"
)

// Exoself is a hill climber over a tree's literal values. Structure is never
// touched: each attempt perturbs float literals of cloned candidates and
// keeps the best-scoring one when it improves on the incumbent by at least
// MinImprovement.
type Exoself struct {
	Rand               *rand.Rand
	Steps              int
	StepSize           float64
	PerturbationRange  float64
	AnnealingFactor    float64
	MinImprovement     float64
	GoalFitness        float64
	CandidateSelection string
	mu                 sync.Mutex
}

const (
	CandidateSelectBestSoFar = "best_so_far"
	CandidateSelectOriginal  = "original"
	CandidateSelectDynamicA  = "dynamic"
	CandidateSelectDynamic   = "dynamic_random"
	CandidateSelectAll       = "all"
	CandidateSelectAllRandom = "all_random"
	CandidateSelectRecent    = "recent"
	CandidateSelectRecentRnd = "recent_random"
)

func (e *Exoself) Name() string {
	return "exoself_hillclimb"
}

func (e *Exoself) SetGoalFitness(goal float64) {
	e.GoalFitness = goal
}

func (e *Exoself) Tune(ctx context.Context, tree *genotype.Tree, attempts int, fitness FitnessFn) (*genotype.Tree, error) {
	tuned, _, err := e.TuneWithReport(ctx, tree, attempts, fitness)
	return tuned, err
}

func (e *Exoself) TuneWithReport(ctx context.Context, tree *genotype.Tree, attempts int, fitness FitnessFn) (*genotype.Tree, TuneReport, error) {
	report := TuneReport{AttemptsPlanned: attempts}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	if e == nil || e.Rand == nil {
		return nil, report, errors.New("random source is required")
	}
	if tree == nil || tree.Root == nil {
		return nil, report, genotype.ErrNilTree
	}
	if attempts <= 0 {
		return tree.Clone(), report, nil
	}
	if e.Steps <= 0 {
		return nil, report, errors.New("steps must be > 0")
	}
	if e.StepSize <= 0 {
		return nil, report, errors.New("step size must be > 0")
	}
	if e.PerturbationRange < 0 {
		return nil, report, errors.New("perturbation range must be >= 0")
	}
	if e.AnnealingFactor < 0 {
		return nil, report, errors.New("annealing factor must be >= 0")
	}
	if e.MinImprovement < 0 {
		return nil, report, errors.New("min improvement must be >= 0")
	}
	if fitness == nil {
		return nil, report, errors.New("fitness function is required")
	}
	if len(tunableLiterals(tree)) == 0 {
		return tree.Clone(), report, nil
	}

	perturbationRange := e.PerturbationRange
	if perturbationRange == 0 {
		perturbationRange = 1.0
	}
	annealingFactor := e.AnnealingFactor
	if annealingFactor == 0 {
		annealingFactor = 1.0
	}

	original := tree.Clone()
	best := tree.Clone()
	bestFitness, err := fitness(ctx, best)
	if err != nil {
		return nil, report, err
	}
	report.CandidateEvaluations++
	if e.GoalFitness > 0 && bestFitness >= e.GoalFitness {
		report.GoalReached = true
		return best, report, nil
	}
	recentBase := best.Clone()

	for a := 0; a < attempts; a++ {
		report.AttemptsExecuted++

		bases, err := e.candidateBases(best, original, recentBase)
		if err != nil {
			return nil, report, err
		}
		localBest := best.Clone()
		localBestFitness := bestFitness
		for _, base := range bases {
			candidate, err := e.perturbCandidate(ctx, base, perturbationRange, annealingFactor)
			if err != nil {
				return nil, report, err
			}
			candidateFitness, err := fitness(ctx, candidate)
			if err != nil {
				return nil, report, err
			}
			report.CandidateEvaluations++
			if candidateFitness > localBestFitness+e.MinImprovement {
				localBest = candidate
				localBestFitness = candidateFitness
			}
		}
		recentBase = localBest.Clone()
		if localBestFitness > bestFitness+e.MinImprovement {
			best = localBest
			bestFitness = localBestFitness
			report.AcceptedCandidates++
		} else {
			report.RejectedCandidates++
		}
		if e.GoalFitness > 0 && bestFitness >= e.GoalFitness {
			report.GoalReached = true
			break
		}
	}

	return best, report, nil
}

func (e *Exoself) randIntn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Rand.Intn(n)
}

func (e *Exoself) randFloat64() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Rand.Float64()
}

func NormalizeCandidateSelectionName(name string) string {
	switch name {
	case "":
		return CandidateSelectBestSoFar
	default:
		return name
	}
}

func (e *Exoself) candidateBases(best, original, recent *genotype.Tree) ([]*genotype.Tree, error) {
	mode := NormalizeCandidateSelectionName(e.CandidateSelection)
	if isRandomSelection(mode) {
		pool, err := e.candidateBasesForMode(nonRandomModeFor(mode), best, original, recent)
		if err != nil {
			return nil, err
		}
		return e.randomSubset(pool), nil
	}
	return e.candidateBasesForMode(mode, best, original, recent)
}

func (e *Exoself) candidateBasesForMode(mode string, best, original, recent *genotype.Tree) ([]*genotype.Tree, error) {
	switch mode {
	case CandidateSelectBestSoFar:
		return []*genotype.Tree{best.Clone()}, nil
	case CandidateSelectOriginal:
		return []*genotype.Tree{original.Clone()}, nil
	case CandidateSelectDynamicA:
		return []*genotype.Tree{best.Clone(), original.Clone()}, nil
	case CandidateSelectRecent:
		return []*genotype.Tree{recent.Clone()}, nil
	case CandidateSelectAll:
		return []*genotype.Tree{best.Clone(), original.Clone(), recent.Clone()}, nil
	default:
		return nil, errors.New("unsupported candidate selection")
	}
}

func isRandomSelection(mode string) bool {
	switch mode {
	case CandidateSelectDynamic, CandidateSelectAllRandom, CandidateSelectRecentRnd:
		return true
	default:
		return false
	}
}

func nonRandomModeFor(mode string) string {
	switch mode {
	case CandidateSelectDynamic:
		return CandidateSelectDynamicA
	case CandidateSelectAllRandom:
		return CandidateSelectAll
	case CandidateSelectRecentRnd:
		return CandidateSelectRecent
	default:
		return mode
	}
}

func (e *Exoself) randomSubset(pool []*genotype.Tree) []*genotype.Tree {
	if len(pool) <= 1 {
		return pool
	}
	selectP := 1 / math.Sqrt(float64(len(pool)))
	chosen := make([]*genotype.Tree, 0, len(pool))
	for i := range pool {
		if e.randFloat64() < selectP {
			chosen = append(chosen, pool[i])
		}
	}
	if len(chosen) > 0 {
		return chosen
	}
	return []*genotype.Tree{pool[e.randIntn(len(pool))]}
}

// perturbCandidate nudges random float literals of a cloned base. The spread
// shrinks geometrically with the step index when annealing is below 1.
func (e *Exoself) perturbCandidate(ctx context.Context, base *genotype.Tree, perturbationRange, annealingFactor float64) (*genotype.Tree, error) {
	candidate := base.Clone()
	literals := tunableLiterals(candidate)
	if len(literals) == 0 {
		return candidate, nil
	}
	for s := 0; s < e.Steps; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := literals[e.randIntn(len(literals))]
		spread := e.StepSize * perturbationRange * math.Pow(annealingFactor, float64(s))
		delta := (e.randFloat64()*2 - 1) * spread
		node.Value = node.Value.(float64) + delta
	}
	return candidate, nil
}

func tunableLiterals(tree *genotype.Tree) []*genotype.Node {
	var out []*genotype.Node
	for _, node := range tree.Nodes() {
		if node.Def.Kind != nodeset.KindLiteral {
			continue
		}
		if _, ok := node.Value.(float64); ok {
			out = append(out, node)
		}
	}
	return out
}
