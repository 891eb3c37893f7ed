package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"dendron/internal/agent"
	"dendron/internal/genotype"
	"dendron/internal/model"
	"dendron/internal/nodeset"
	"dendron/internal/scape"
)

const (
	defaultOpponentSample      = 3
	defaultCrossoverRate       = 0.5
	defaultSubtreeMutationRate = 0.3
	defaultLiteralMutationRate = 0.1
)

// PopulationSpec is one population's tree-construction parameters: the node
// class subset and bounds every individual of that population is built under.
type PopulationSpec struct {
	Name      string
	Returns   nodeset.TypeLabel
	MaxDepth  int
	Forbidden []string
	Fixed     nodeset.FixedContext
}

type MonitorConfig struct {
	Scape       scape.MatchScape
	Registry    *nodeset.Registry
	Populations []PopulationSpec

	PopulationSize int
	EliteCount     int
	Generations    int
	OpponentSample int
	Workers        int
	Seed           int64

	Selector      Selector
	Postprocessor FitnessPostprocessor

	CrossoverRate       float64
	SubtreeMutationRate float64
	LiteralMutationRate float64
	MaxSize             int
}

type RunResult struct {
	Diagnostics      []model.GenerationDiagnostics
	Lineage          []model.LineageRecord
	Final            [][]ScoredTree
	BestByGeneration [][]float64
}

// PopulationMonitor runs coevolution between the configured populations:
// sampled-opponent evaluation, parsimony postprocessing, selection, and
// reproduction through the variation operators. Mutation and crossover run
// strictly between generations, never concurrently with evaluation.
type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Scape == nil {
		return nil, errors.New("scape is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("node definition registry is required")
	}
	if len(cfg.Populations) != cfg.Scape.Players() {
		return nil, fmt.Errorf("scape %q expects %d populations, got %d",
			cfg.Scape.Name(), cfg.Scape.Players(), len(cfg.Populations))
	}
	if len(cfg.Populations) < 1 || len(cfg.Populations) > 2 {
		return nil, fmt.Errorf("unsupported population count: %d", len(cfg.Populations))
	}
	if cfg.PopulationSize <= 0 {
		return nil, fmt.Errorf("population size must be > 0, got %d", cfg.PopulationSize)
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0, got %d", cfg.Generations)
	}
	if cfg.EliteCount < 0 || cfg.EliteCount > cfg.PopulationSize {
		return nil, fmt.Errorf("invalid elite count: %d", cfg.EliteCount)
	}
	for i, spec := range cfg.Populations {
		if spec.Name == "" {
			return nil, fmt.Errorf("population %d: name is required", i)
		}
		if spec.MaxDepth < 0 {
			return nil, fmt.Errorf("population %q: max depth must be >= 0", spec.Name)
		}
	}

	if cfg.OpponentSample <= 0 {
		cfg.OpponentSample = defaultOpponentSample
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = TournamentSelector{}
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}
	if cfg.CrossoverRate == 0 {
		cfg.CrossoverRate = defaultCrossoverRate
	}
	if cfg.SubtreeMutationRate == 0 {
		cfg.SubtreeMutationRate = defaultSubtreeMutationRate
	}
	if cfg.LiteralMutationRate == 0 {
		cfg.LiteralMutationRate = defaultLiteralMutationRate
	}

	return &PopulationMonitor{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	populations, lineage, err := m.initialPopulations()
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{
		Lineage:          lineage,
		BestByGeneration: make([][]float64, len(populations)),
	}

	for generation := 0; generation < m.cfg.Generations; generation++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		if err := m.evaluate(ctx, populations); err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", generation, err)
		}

		for p := range populations {
			populations[p] = m.cfg.Postprocessor.Process(populations[p])
			populations[p] = RankScored(populations[p])

			diag := diagnose(generation, m.cfg.Populations[p].Name, populations[p])
			result.Diagnostics = append(result.Diagnostics, diag)
			result.BestByGeneration[p] = append(result.BestByGeneration[p], diag.BestFitness)
		}

		if generation == m.cfg.Generations-1 {
			break
		}

		for p := range populations {
			next, offspringLineage, err := m.reproduce(ctx, generation+1, populations[p])
			if err != nil {
				return RunResult{}, fmt.Errorf("generation %d reproduction: %w", generation, err)
			}
			populations[p] = next
			result.Lineage = append(result.Lineage, offspringLineage...)
		}
	}

	result.Final = populations
	return result, nil
}

// initialPopulations seeds every population half with grow trees and half
// with full trees.
func (m *PopulationMonitor) initialPopulations() ([][]ScoredTree, []model.LineageRecord, error) {
	populations := make([][]ScoredTree, len(m.cfg.Populations))
	var lineage []model.LineageRecord

	for p, spec := range m.cfg.Populations {
		populations[p] = make([]ScoredTree, m.cfg.PopulationSize)
		for i := 0; i < m.cfg.PopulationSize; i++ {
			strategy := genotype.StrategyGrow
			if i%2 == 1 {
				strategy = genotype.StrategyFull
			}
			tree, err := genotype.Build(genotype.BuildConfig{
				Registry:  m.cfg.Registry,
				Returns:   spec.Returns,
				MaxDepth:  spec.MaxDepth,
				Strategy:  strategy,
				Fixed:     spec.Fixed,
				Forbidden: spec.Forbidden,
				Rand:      m.rng,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("seeding population %q: %w", spec.Name, err)
			}
			id := uuid.NewString()
			populations[p][i] = ScoredTree{ID: id, Tree: tree}
			lineage = append(lineage, model.LineageRecord{
				TreeID:     id,
				Generation: 0,
				Operation:  "initial",
			})
		}
	}
	return populations, lineage, nil
}

type matchJob struct {
	population int
	index      int
	opponents  []int
}

// evaluate scores every individual as its mean payoff over sampled
// opponents. Opponent indices are drawn up front so the worker pool needs no
// shared random source; each worker owns the agents and contexts of the
// matches it plays.
func (m *PopulationMonitor) evaluate(ctx context.Context, populations [][]ScoredTree) error {
	var jobs []matchJob
	for p := range populations {
		other := otherPopulation(p, len(populations))
		for i := range populations[p] {
			job := matchJob{population: p, index: i}
			if other >= 0 {
				job.opponents = make([]int, m.cfg.OpponentSample)
				for s := range job.opponents {
					job.opponents[s] = m.rng.Intn(len(populations[other]))
				}
			}
			jobs = append(jobs, job)
		}
	}

	workers := m.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	jobCh := make(chan matchJob)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for job := range jobCh {
				if err := m.playMatches(ctx, populations, job); err != nil {
					errs[worker] = err
					return
				}
			}
		}(w)
	}
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *PopulationMonitor) playMatches(ctx context.Context, populations [][]ScoredTree, job matchJob) error {
	subject := &populations[job.population][job.index]

	if len(job.opponents) == 0 {
		payoffs, trace, err := m.playOne(ctx, []*ScoredTree{subject})
		if err != nil {
			return err
		}
		subject.Raw = float64(payoffs[0])
		subject.Fitness = subject.Raw
		subject.Trace = trace
		return nil
	}

	other := otherPopulation(job.population, len(populations))
	total := 0.0
	var lastTrace scape.Trace
	for _, opponentIndex := range job.opponents {
		opponent := &populations[other][opponentIndex]

		players := make([]*ScoredTree, 2)
		players[job.population] = subject
		players[other] = opponent

		payoffs, trace, err := m.playOne(ctx, players)
		if err != nil {
			return err
		}
		total += float64(payoffs[job.population])
		lastTrace = trace
	}

	subject.Raw = total / float64(len(job.opponents))
	subject.Fitness = subject.Raw
	subject.Trace = lastTrace
	return nil
}

func (m *PopulationMonitor) playOne(ctx context.Context, players []*ScoredTree) ([]scape.Fitness, scape.Trace, error) {
	agents := make([]scape.Agent, len(players))
	for i, player := range players {
		a, err := agent.NewTreeAgent(player.ID, player.Tree)
		if err != nil {
			return nil, nil, err
		}
		agents[i] = a
	}
	return m.cfg.Scape.EvaluateMatch(ctx, agents)
}

func otherPopulation(p, count int) int {
	if count < 2 {
		return -1
	}
	return 1 - p
}

// reproduce builds the next generation from a ranked population: elites
// survive unchanged, the rest are offspring from crossover and mutation.
func (m *PopulationMonitor) reproduce(ctx context.Context, generation int, ranked []ScoredTree) ([]ScoredTree, []model.LineageRecord, error) {
	next := make([]ScoredTree, 0, m.cfg.PopulationSize)
	var lineage []model.LineageRecord

	for i := 0; i < m.cfg.EliteCount && i < len(ranked); i++ {
		next = append(next, ScoredTree{ID: ranked[i].ID, Tree: ranked[i].Tree})
	}

	crossover := SubtreeCrossover{Rand: m.rng, MaxSize: m.cfg.MaxSize}
	subtree := SubtreeMutation{Rand: m.rng}
	literal := LiteralMutation{Rand: m.rng}

	for len(next) < m.cfg.PopulationSize {
		parent, err := m.cfg.Selector.PickParent(m.rng, ranked, eliteOrAll(m.cfg.EliteCount, len(ranked)))
		if err != nil {
			return nil, nil, err
		}

		child := parent.Tree
		operation := "clone"
		parents := []string{parent.ID}

		if m.rng.Float64() < m.cfg.CrossoverRate {
			mate, err := m.cfg.Selector.PickParent(m.rng, ranked, eliteOrAll(m.cfg.EliteCount, len(ranked)))
			if err != nil {
				return nil, nil, err
			}
			child, err = crossover.Cross(ctx, child, mate.Tree)
			if err != nil {
				return nil, nil, err
			}
			operation = "crossover"
			parents = append(parents, mate.ID)
		}

		switch roll := m.rng.Float64(); {
		case roll < m.cfg.SubtreeMutationRate:
			child, err = subtree.Apply(ctx, child)
			if err != nil {
				return nil, nil, err
			}
			operation = joinOperation(operation, "subtree_mutation")
		case roll < m.cfg.SubtreeMutationRate+m.cfg.LiteralMutationRate:
			mutated, err := literal.Apply(ctx, child)
			if err != nil {
				if !errors.Is(err, ErrNoMutationChoice) {
					return nil, nil, err
				}
				mutated = child.Clone()
			} else {
				operation = joinOperation(operation, "literal_mutation")
			}
			child = mutated
		default:
			if operation == "clone" {
				child = child.Clone()
			}
		}

		id := uuid.NewString()
		next = append(next, ScoredTree{ID: id, Tree: child})
		lineage = append(lineage, model.LineageRecord{
			TreeID:     id,
			ParentIDs:  parents,
			Generation: generation,
			Operation:  operation,
		})
	}
	return next, lineage, nil
}

func eliteOrAll(eliteCount, total int) int {
	if eliteCount <= 0 || eliteCount > total {
		return total
	}
	return eliteCount
}

func joinOperation(base, extra string) string {
	if base == "clone" {
		return extra
	}
	return base + "+" + extra
}

func diagnose(generation int, name string, scored []ScoredTree) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation:  generation,
		Population:  name,
		BestFitness: math.Inf(-1),
		MinFitness:  math.Inf(1),
	}
	if len(scored) == 0 {
		diag.BestFitness = 0
		diag.MinFitness = 0
		return diag
	}

	totalFitness := 0.0
	totalSize := 0
	totalDepth := 0
	for _, s := range scored {
		totalFitness += s.Fitness
		size := s.Tree.Size()
		totalSize += size
		totalDepth += s.Tree.Depth()
		if s.Fitness > diag.BestFitness {
			diag.BestFitness = s.Fitness
		}
		if s.Fitness < diag.MinFitness {
			diag.MinFitness = s.Fitness
		}
		if size > diag.LargestSize {
			diag.LargestSize = size
		}
	}
	diag.MeanFitness = totalFitness / float64(len(scored))
	diag.MeanSize = float64(totalSize) / float64(len(scored))
	diag.MeanDepth = float64(totalDepth) / float64(len(scored))
	return diag
}
