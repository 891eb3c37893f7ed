// Package dendron is the public face of the coevolution engine: configure a
// client, run pursuit experiments, then query or export the persisted
// artifacts.
package dendron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"dendron/internal/agent"
	"dendron/internal/evo"
	"dendron/internal/genotype"
	"dendron/internal/model"
	"dendron/internal/morphology"
	"dendron/internal/platform"
	"dendron/internal/scape"
	"dendron/internal/scapeid"
	"dendron/internal/stats"
	"dendron/internal/storage"
	"dendron/internal/tuning"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "dendron.db"

	topTreeCount         = 5
	tuningOpponentSample = 3
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store  storage.Store
	polis  *platform.Polis
	logger *slog.Logger

	artifactsDir     string
	exportsDir       string
	scapesRegistered bool
}

type RunRequest struct {
	Scape                string
	Population           int
	Generations          int
	Seed                 int64
	Workers              int
	EliteCount           int
	OpponentSample       int
	MaxDepth             int
	MaxSize              int
	Selection            string
	FitnessPostprocessor string
	ParsimonyWeight      float64
	CrossoverRate        float64
	SubtreeMutationRate  float64
	LiteralMutationRate  float64
	EnableTuning         bool
	CompareTuning        bool
	TuneAttempts         int
	TuneSteps            int
	TuneStepSize         float64
	TuneAttemptPolicy    string
	TuneAttemptParam     float64
}

type PopulationSummary struct {
	Name             string
	BestByGeneration []float64
	FinalBestFitness float64
}

type CompareSummary struct {
	WithoutFinalBest float64
	WithFinalBest    float64
	FinalImprovement float64
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Populations  []PopulationSummary
	Compare      *CompareSummary
}

type RunsRequest struct {
	Limit       int
	ShowCompare bool
}

type RunItem struct {
	RunID              string
	CreatedAtUTC       string
	Scape              string
	Seed               int64
	Population         int
	Generations        int
	TuningEnabled      bool
	FinalBestFitness   float64
	CompareImprovement *float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type LineageRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type LineageItem struct {
	TreeID     string
	ParentIDs  []string
	Generation int
	Operation  string
}

type FitnessHistoryRequest struct {
	RunID      string
	Latest     bool
	Population string
	Limit      int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopTreesRequest struct {
	RunID      string
	Latest     bool
	Population string
	Limit      int
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	if c.polis != nil {
		polis := c.polis
		c.polis = nil
		c.scapesRegistered = false
		return polis.StopWithReason(platform.StopReasonShutdown)
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

// Start initializes the polis and registers the built-in scapes.
func (c *Client) Start(ctx context.Context) error {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return err
	}
	return c.registerDefaultScapes(p)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Scape == "" {
		req.Scape = "two_cars"
	}
	req.Scape = scapeid.Normalize(req.Scape)
	if req.Population <= 0 {
		req.Population = 30
	}
	if req.Generations <= 0 {
		req.Generations = 20
	}
	if req.Workers <= 0 {
		req.Workers = 4
	}
	if req.EliteCount <= 0 {
		req.EliteCount = req.Population / 5
		if req.EliteCount < 1 {
			req.EliteCount = 1
		}
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = 5
	}
	if req.Selection == "" {
		req.Selection = "tournament"
	}
	if req.FitnessPostprocessor == "" {
		req.FitnessPostprocessor = "none"
	}
	if req.TuneAttempts <= 0 {
		req.TuneAttempts = 8
	}
	if req.TuneSteps <= 0 {
		req.TuneSteps = 6
	}
	if req.TuneStepSize <= 0 {
		req.TuneStepSize = 0.35
	}
	if req.CompareTuning {
		req.EnableTuning = true
	}

	selector, err := selectionFromName(req.Selection)
	if err != nil {
		return RunSummary{}, err
	}
	postprocessor, err := postprocessorFromName(req.FitnessPostprocessor, req.ParsimonyWeight)
	if err != nil {
		return RunSummary{}, err
	}
	attemptPolicy, err := tuning.AttemptPolicyFromConfig(req.TuneAttemptPolicy, req.TuneAttemptParam)
	if err != nil {
		return RunSummary{}, err
	}

	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.registerDefaultScapes(p); err != nil {
		return RunSummary{}, err
	}

	morph, err := morphology.ForScape(req.Scape)
	if err != nil {
		return RunSummary{}, err
	}
	specs, err := populationSpecs(req, morph)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := fmt.Sprintf("%s-%d-%d", req.Scape, req.Seed, now.Unix())

	result, err := p.RunCoevolution(ctx, platform.CoevolutionConfig{
		RunID:     runID,
		ScapeName: req.Scape,
		Monitor: evo.MonitorConfig{
			Registry:            morph.Registry,
			Populations:         specs,
			PopulationSize:      req.Population,
			EliteCount:          req.EliteCount,
			Generations:         req.Generations,
			OpponentSample:      req.OpponentSample,
			Workers:             req.Workers,
			Seed:                req.Seed,
			Selector:            selector,
			Postprocessor:       postprocessor,
			CrossoverRate:       req.CrossoverRate,
			SubtreeMutationRate: req.SubtreeMutationRate,
			LiteralMutationRate: req.LiteralMutationRate,
			MaxSize:             req.MaxSize,
		},
	})
	if err != nil {
		return RunSummary{}, err
	}

	tunedBest := make([]float64, len(result.Final))
	for i, population := range result.Final {
		if len(population) > 0 {
			tunedBest[i] = population[0].Fitness
		}
	}
	var compare *CompareSummary
	if req.EnableTuning {
		targetScape, ok := p.GetScape(req.Scape)
		if !ok {
			return RunSummary{}, fmt.Errorf("scape not registered: %s", req.Scape)
		}
		untunedBest := append([]float64(nil), tunedBest...)
		if err := c.tuneFinalBest(ctx, targetScape, result, req, attemptPolicy, tunedBest); err != nil {
			return RunSummary{}, err
		}
		if req.CompareTuning && len(tunedBest) > 0 {
			compare = &CompareSummary{
				WithoutFinalBest: untunedBest[0],
				WithFinalBest:    tunedBest[0],
				FinalImprovement: tunedBest[0] - untunedBest[0],
			}
		}
	}

	summary := RunSummary{RunID: runID, Populations: make([]PopulationSummary, 0, len(result.Final))}
	for i, spec := range specs {
		summary.Populations = append(summary.Populations, PopulationSummary{
			Name:             spec.Name,
			BestByGeneration: append([]float64(nil), result.BestByGeneration[i]...),
			FinalBestFitness: tunedBest[i],
		})
	}

	runDir, err := c.writeArtifacts(req, runID, specs, result, tunedBest, compare, now)
	if err != nil {
		return RunSummary{}, err
	}
	summary.ArtifactsDir = filepath.Clean(runDir)
	summary.Compare = compare
	return summary, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		item := RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Scape:            e.Scape,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			TuningEnabled:    e.TuningEnabled,
			FinalBestFitness: e.FinalBestFitness,
		}
		if req.ShowCompare {
			report, ok, err := stats.ReadTuningComparison(c.artifactsDir, e.RunID)
			if err != nil {
				return nil, err
			}
			if ok {
				improvement := report.FinalImprovement
				item.CompareImprovement = &improvement
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) Lineage(ctx context.Context, req LineageRequest) ([]LineageItem, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "lineage")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	lineage, ok, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", runID)
	}

	if req.Limit > 0 && len(lineage) > req.Limit {
		lineage = lineage[:req.Limit]
	}

	out := make([]LineageItem, 0, len(lineage))
	for _, rec := range lineage {
		out = append(out, LineageItem{
			TreeID:     rec.TreeID,
			ParentIDs:  append([]string(nil), rec.ParentIDs...),
			Generation: rec.Generation,
			Operation:  rec.Operation,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if req.Population == "" {
		req.Population = "pursuers"
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID+":"+req.Population)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) TopTrees(_ context.Context, req TopTreesRequest) ([]stats.TopTree, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "top trees")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	populations, ok, err := stats.ReadPopulationArtifacts(c.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("artifacts not found for run id: %s", runID)
	}

	name := req.Population
	if name == "" {
		name = "pursuers"
	}
	for _, population := range populations {
		if population.Name != name {
			continue
		}
		top := population.TopTrees
		if req.Limit > 0 && len(top) > req.Limit {
			top = top[:req.Limit]
		}
		out := make([]stats.TopTree, len(top))
		copy(out, top)
		return out, nil
	}
	return nil, fmt.Errorf("population not found in run %s: %s", runID, name)
}

// ExportTree writes one persisted tree record as standalone JSON.
func (c *Client) ExportTree(ctx context.Context, treeID, path string) error {
	if treeID == "" {
		return errors.New("tree id is required")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return err
	}
	record, ok, err := c.store.GetTree(ctx, treeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tree not found: %s", treeID)
	}
	data, err := storage.EncodeTree(record)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ImportTree loads a standalone tree record JSON into the store and returns
// its id.
func (c *Client) ImportTree(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	record, err := storage.DecodeTree(data)
	if err != nil {
		return "", err
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return "", err
	}
	if err := c.store.SaveTree(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{Store: c.store, Logger: c.logger})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func (c *Client) registerDefaultScapes(p *platform.Polis) error {
	if c.scapesRegistered {
		return nil
	}
	twoCars, err := scape.NewTwoCarsScape(scape.DefaultTwoCarsConfig())
	if err != nil {
		return err
	}
	if err := p.RegisterScape(twoCars); err != nil {
		return err
	}
	c.scapesRegistered = true
	return nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

// tuneFinalBest hill-climbs the literal values of each population's best
// tree against the strongest final opponents, updating tunedBest in place.
func (c *Client) tuneFinalBest(
	ctx context.Context,
	targetScape scape.MatchScape,
	result platform.CoevolutionResult,
	req RunRequest,
	attemptPolicy tuning.AttemptPolicy,
	tunedBest []float64,
) error {
	for player, population := range result.Final {
		if len(population) == 0 {
			continue
		}
		opponentPopulation := otherFinal(result.Final, player)
		if len(opponentPopulation) == 0 {
			continue
		}
		opponents := make([]*genotype.Tree, 0, tuningOpponentSample)
		for i := 0; i < len(opponentPopulation) && i < tuningOpponentSample; i++ {
			opponents = append(opponents, opponentPopulation[i].Tree)
		}

		exoself := &tuning.Exoself{
			Rand:     rand.New(rand.NewSource(req.Seed + 2000 + int64(player))),
			Steps:    req.TuneSteps,
			StepSize: req.TuneStepSize,
		}
		best := population[0]
		attempts := attemptPolicy.Attempts(req.TuneAttempts, req.Generations-1, req.Generations, best.Tree)
		fitness := matchFitness(targetScape, opponents, player)

		tuned, err := exoself.Tune(ctx, best.Tree, attempts, fitness)
		if err != nil {
			return fmt.Errorf("tuning %s best: %w", populationName(player), err)
		}
		tunedFitness, err := fitness(ctx, tuned)
		if err != nil {
			return fmt.Errorf("scoring tuned %s best: %w", populationName(player), err)
		}
		if tunedFitness > tunedBest[player] {
			tunedBest[player] = tunedFitness
		}
	}
	return nil
}

func matchFitness(targetScape scape.MatchScape, opponents []*genotype.Tree, player int) tuning.FitnessFn {
	return func(ctx context.Context, tree *genotype.Tree) (float64, error) {
		me, err := agent.NewTreeAgent("tuning-candidate", tree)
		if err != nil {
			return 0, err
		}
		var total float64
		for i, opponentTree := range opponents {
			opponent, err := agent.NewTreeAgent(fmt.Sprintf("tuning-opponent-%d", i), opponentTree)
			if err != nil {
				return 0, err
			}
			agents := make([]scape.Agent, 2)
			agents[player] = me
			agents[1-player] = opponent
			payoffs, _, err := targetScape.EvaluateMatch(ctx, agents)
			if err != nil {
				return 0, err
			}
			total += float64(payoffs[player])
		}
		return total / float64(len(opponents)), nil
	}
}

func (c *Client) writeArtifacts(
	req RunRequest,
	runID string,
	specs []evo.PopulationSpec,
	result platform.CoevolutionResult,
	tunedBest []float64,
	compare *CompareSummary,
	now time.Time,
) (string, error) {
	populations := make([]stats.PopulationArtifacts, 0, len(specs))
	summaries := make([]stats.SeriesSummary, 0, len(specs))
	for i, spec := range specs {
		top := make([]stats.TopTree, 0, topTreeCount)
		for rank, scored := range result.Final[i] {
			if rank >= topTreeCount {
				break
			}
			record, err := scored.Tree.Flatten(scored.ID)
			if err != nil {
				return "", fmt.Errorf("flattening top tree %s: %w", scored.ID, err)
			}
			record.SchemaVersion = storage.CurrentSchemaVersion
			record.CodecVersion = storage.CurrentCodecVersion
			top = append(top, stats.TopTree{
				Rank:    rank + 1,
				Fitness: scored.Fitness,
				Raw:     scored.Raw,
				Tree:    record,
			})
		}
		populations = append(populations, stats.PopulationArtifacts{
			Name:             spec.Name,
			BestByGeneration: result.BestByGeneration[i],
			FinalBestFitness: tunedBest[i],
			TopTrees:         top,
		})
		summaries = append(summaries, stats.SummarizeSeries(runID, spec.Name, result.BestByGeneration[i]))
	}

	populationConfigs := make([]stats.PopulationConfig, 0, len(specs))
	for _, spec := range specs {
		populationConfigs = append(populationConfigs, stats.PopulationConfig{
			Name:     spec.Name,
			Returns:  string(spec.Returns),
			MaxDepth: spec.MaxDepth,
		})
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:                runID,
			Scape:                req.Scape,
			Populations:          populationConfigs,
			PopulationSize:       req.Population,
			Generations:          req.Generations,
			Seed:                 req.Seed,
			Workers:              req.Workers,
			EliteCount:           req.EliteCount,
			OpponentSample:       req.OpponentSample,
			Selection:            req.Selection,
			FitnessPostprocessor: req.FitnessPostprocessor,
			ParsimonyWeight:      req.ParsimonyWeight,
			CrossoverRate:        req.CrossoverRate,
			SubtreeMutationRate:  req.SubtreeMutationRate,
			LiteralMutationRate:  req.LiteralMutationRate,
			MaxSize:              req.MaxSize,
			TuningEnabled:        req.EnableTuning,
			TuneAttempts:         req.TuneAttempts,
			TuneSteps:            req.TuneSteps,
			TuneStepSize:         req.TuneStepSize,
		},
		Populations:           populations,
		GenerationDiagnostics: result.Diagnostics,
		Lineage:               result.Lineage,
	})
	if err != nil {
		return "", err
	}
	if err := stats.WriteSeriesSummaries(runDir, summaries); err != nil {
		return "", err
	}

	finalBest := 0.0
	if len(tunedBest) > 0 {
		finalBest = tunedBest[0]
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:            runID,
		Scape:            req.Scape,
		PopulationSize:   req.Population,
		Generations:      req.Generations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		EliteCount:       req.EliteCount,
		TuningEnabled:    req.EnableTuning,
		FinalBestFitness: finalBest,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return "", err
	}

	if compare != nil {
		series := result.BestByGeneration[0]
		if err := stats.WriteTuningComparison(runDir, stats.TuningComparison{
			Scape:             req.Scape,
			PopulationSize:    req.Population,
			Generations:       req.Generations,
			Seed:              req.Seed,
			WithoutTuningBest: series,
			WithTuningBest:    withFinalReplaced(series, compare.WithFinalBest),
			WithoutFinalBest:  compare.WithoutFinalBest,
			WithFinalBest:     compare.WithFinalBest,
			FinalImprovement:  compare.FinalImprovement,
		}); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func populationSpecs(req RunRequest, morph morphology.Morphology) ([]evo.PopulationSpec, error) {
	fixed := morphology.FixedContext(rand.New(rand.NewSource(req.Seed + 500)))
	switch req.Scape {
	case "two_cars":
		return []evo.PopulationSpec{
			{Name: "pursuers", Returns: morph.Returns, MaxDepth: req.MaxDepth, Fixed: fixed},
			{Name: "evaders", Returns: morph.Returns, MaxDepth: req.MaxDepth, Fixed: fixed},
		}, nil
	default:
		return nil, fmt.Errorf("no population layout for scape: %s", req.Scape)
	}
}

func populationName(player int) string {
	if player == scape.PlayerEvader {
		return "evaders"
	}
	return "pursuers"
}

func otherFinal(final [][]evo.ScoredTree, player int) []evo.ScoredTree {
	if len(final) < 2 {
		return nil
	}
	return final[1-player]
}

func withFinalReplaced(series []float64, value float64) []float64 {
	out := append([]float64(nil), series...)
	if len(out) > 0 {
		out[len(out)-1] = value
	}
	return out
}

func selectionFromName(name string) (evo.Selector, error) {
	switch name {
	case "elite":
		return evo.EliteSelector{}, nil
	case "tournament":
		return evo.TournamentSelector{TournamentSize: 3}, nil
	default:
		return nil, fmt.Errorf("unsupported selection strategy: %s", name)
	}
}

func postprocessorFromName(name string, weight float64) (evo.FitnessPostprocessor, error) {
	switch name {
	case "none":
		return evo.NoopFitnessPostprocessor{}, nil
	case "parsimony":
		return evo.ParsimonyPostprocessor{Weight: weight}, nil
	default:
		return nil, fmt.Errorf("unsupported fitness postprocessor: %s", name)
	}
}
