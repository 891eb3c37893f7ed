package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"dendron/internal/evo"
	"dendron/internal/genotype"
	"dendron/internal/model"
	"dendron/internal/nodeset"
	"dendron/internal/scape"
	"dendron/internal/storage"
)

type Config struct {
	Store          storage.Store
	SupportModules []SupportModule
	Logger         *slog.Logger
	Supervisor     SupervisorPolicy
}

// SupportModule is an auxiliary service started with the polis and stopped
// with it, e.g. a metrics exporter or checkpointer.
type SupportModule interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// CoevolutionConfig names the scape to run against and carries the monitor
// parameters for it. The scape must have been registered with the polis.
type CoevolutionConfig struct {
	RunID     string
	ScapeName string
	Monitor   evo.MonitorConfig
}

type CoevolutionResult struct {
	RunID            string
	Diagnostics      []model.GenerationDiagnostics
	Lineage          []model.LineageRecord
	Final            [][]evo.ScoredTree
	BestByGeneration [][]float64
}

// Polis owns the long-lived pieces of a running node: the store, registered
// scapes, and support modules. Evolution runs borrow these.
type Polis struct {
	store      storage.Store
	logger     *slog.Logger
	supervisor *Supervisor

	mu sync.RWMutex

	scapes         map[string]scape.MatchScape
	supportModules map[string]SupportModule
	started        bool
	lastStopReason StopReason
	activeRuns     map[string]struct{}

	config Config
}

var (
	defaultPolisMu sync.Mutex
	defaultPolis   *Polis
)

func NewPolis(cfg Config) *Polis {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Polis{
		store:          cfg.Store,
		logger:         logger,
		supervisor:     NewSupervisor(cfg.Supervisor),
		scapes:         make(map[string]scape.MatchScape),
		supportModules: make(map[string]SupportModule),
		activeRuns:     make(map[string]struct{}),
		config:         cfg,
		lastStopReason: StopReasonNormal,
	}
}

func StartDefault(ctx context.Context, cfg Config) (*Polis, error) {
	defaultPolisMu.Lock()
	defer defaultPolisMu.Unlock()

	if defaultPolis != nil && defaultPolis.Started() {
		return defaultPolis, nil
	}

	p := NewPolis(cfg)
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	defaultPolis = p
	return defaultPolis, nil
}

func Default() (*Polis, bool) {
	defaultPolisMu.Lock()
	p := defaultPolis
	defaultPolisMu.Unlock()

	if p == nil || !p.Started() {
		return nil, false
	}
	return p, true
}

func StopDefault(reason StopReason) error {
	defaultPolisMu.Lock()
	p := defaultPolis
	defaultPolisMu.Unlock()
	if p == nil {
		return nil
	}
	if err := p.StopWithReason(reason); err != nil {
		return err
	}
	defaultPolisMu.Lock()
	if defaultPolis == p {
		defaultPolis = nil
	}
	defaultPolisMu.Unlock()
	return nil
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}

	startedModules := make([]SupportModule, 0, len(p.config.SupportModules))
	for i, module := range p.config.SupportModules {
		if module == nil {
			stopSupportModules(ctx, startedModules)
			p.resetStateLocked()
			return fmt.Errorf("support module is nil at index %d", i)
		}
		name := module.Name()
		if name == "" {
			stopSupportModules(ctx, startedModules)
			p.resetStateLocked()
			return fmt.Errorf("support module name is required at index %d", i)
		}
		if _, exists := p.supportModules[name]; exists {
			stopSupportModules(ctx, startedModules)
			p.resetStateLocked()
			return fmt.Errorf("duplicate support module: %s", name)
		}
		if err := module.Start(ctx); err != nil {
			stopSupportModules(ctx, startedModules)
			p.resetStateLocked()
			return fmt.Errorf("start support module %s: %w", name, err)
		}
		p.supportModules[name] = module
		startedModules = append(startedModules, module)
	}

	p.started = true
	return nil
}

func (p *Polis) resetStateLocked() {
	p.supportModules = make(map[string]SupportModule)
	p.scapes = make(map[string]scape.MatchScape)
	p.activeRuns = make(map[string]struct{})
}

func (p *Polis) RegisterScape(s scape.MatchScape) error {
	if s == nil {
		return fmt.Errorf("scape is nil")
	}
	name := s.Name()
	if name == "" {
		return fmt.Errorf("scape name is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	if _, exists := p.scapes[name]; exists {
		return fmt.Errorf("duplicate scape: %s", name)
	}
	p.scapes[name] = s
	return nil
}

func (p *Polis) GetScape(name string) (scape.MatchScape, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.scapes[name]
	return s, ok
}

func (p *Polis) Stop() {
	_ = p.StopWithReason(StopReasonNormal)
}

func (p *Polis) Shutdown() {
	_ = p.StopWithReason(StopReasonShutdown)
}

func (p *Polis) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	p.supervisor.StopAll()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, module := range p.supportModules {
		_ = module.Stop(context.Background())
	}

	p.started = false
	p.lastStopReason = reason
	p.resetStateLocked()
	_ = storage.CloseIfSupported(p.store)
	return nil
}

// RunCoevolution runs a population monitor against a registered scape and
// persists the run's artifacts: final trees, population snapshots, fitness
// history, diagnostics, and lineage.
func (p *Polis) RunCoevolution(ctx context.Context, cfg CoevolutionConfig) (CoevolutionResult, error) {
	if cfg.ScapeName == "" {
		return CoevolutionResult{}, fmt.Errorf("scape name is required")
	}

	p.mu.RLock()
	targetScape, ok := p.scapes[cfg.ScapeName]
	started := p.started
	p.mu.RUnlock()

	if !started {
		return CoevolutionResult{}, fmt.Errorf("polis is not initialized")
	}
	if !ok {
		return CoevolutionResult{}, fmt.Errorf("scape not registered: %s", cfg.ScapeName)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("coevo:%s:%d", cfg.ScapeName, cfg.Monitor.Seed)
	}
	if err := p.registerRun(runID); err != nil {
		return CoevolutionResult{}, err
	}
	defer p.unregisterRun(runID)

	monitorCfg := cfg.Monitor
	monitorCfg.Scape = targetScape
	monitor, err := evo.NewPopulationMonitor(monitorCfg)
	if err != nil {
		return CoevolutionResult{}, err
	}

	p.logger.Info("starting coevolution run",
		"run_id", runID,
		"scape", cfg.ScapeName,
		"populations", len(monitorCfg.Populations),
		"generations", monitorCfg.Generations)

	result, err := monitor.Run(ctx)
	if err != nil {
		return CoevolutionResult{}, err
	}

	if err := p.persistRun(ctx, runID, monitorCfg, result); err != nil {
		return CoevolutionResult{}, err
	}

	p.logger.Info("coevolution run finished",
		"run_id", runID,
		"diagnostics", len(result.Diagnostics),
		"lineage", len(result.Lineage))

	return CoevolutionResult{
		RunID:            runID,
		Diagnostics:      result.Diagnostics,
		Lineage:          result.Lineage,
		Final:            result.Final,
		BestByGeneration: result.BestByGeneration,
	}, nil
}

// StartSupervisedRun runs a coevolution in the background under the polis
// supervisor. A failed run is retried with backoff until it succeeds or the
// restart budget is spent; deliver is called once on success. RunID is the
// task name, so it must be set.
func (p *Polis) StartSupervisedRun(cfg CoevolutionConfig, deliver func(CoevolutionResult)) error {
	if cfg.RunID == "" {
		return fmt.Errorf("run id is required for a supervised run")
	}
	if !p.Started() {
		return fmt.Errorf("polis is not initialized")
	}
	return p.supervisor.Start(cfg.RunID, RestartTransient, func(ctx context.Context) error {
		result, err := p.RunCoevolution(ctx, cfg)
		if err != nil {
			p.logger.Warn("supervised run failed", "run_id", cfg.RunID, "error", err)
			return err
		}
		if deliver != nil {
			deliver(result)
		}
		return nil
	})
}

// SupervisedRuns reports the status of background runs, including ones that
// exhausted their restart budget.
func (p *Polis) SupervisedRuns() []TaskStatus {
	return p.supervisor.Children()
}

func (p *Polis) persistRun(ctx context.Context, runID string, cfg evo.MonitorConfig, result evo.RunResult) error {
	for idx, population := range result.Final {
		spec := cfg.Populations[idx]
		individuals := make([]model.Individual, 0, len(population))
		for _, scored := range population {
			record, err := scored.Tree.Flatten(scored.ID)
			if err != nil {
				return fmt.Errorf("flattening tree %s: %w", scored.ID, err)
			}
			record.SchemaVersion = storage.CurrentSchemaVersion
			record.CodecVersion = storage.CurrentCodecVersion
			if err := p.store.SaveTree(ctx, record); err != nil {
				return fmt.Errorf("saving tree %s: %w", scored.ID, err)
			}
			individuals = append(individuals, model.Individual{
				ID:       scored.ID,
				TreeID:   scored.ID,
				Fitness:  scored.Fitness,
				RawScore: scored.Raw,
				Size:     scored.Tree.Size(),
				Depth:    scored.Tree.Depth(),
			})
		}

		snapshot := model.Population{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: storage.CurrentSchemaVersion,
				CodecVersion:  storage.CurrentCodecVersion,
			},
			ID:          runID + ":" + spec.Name,
			Name:        spec.Name,
			Generation:  cfg.Generations - 1,
			Individuals: individuals,
		}
		if err := p.store.SavePopulation(ctx, snapshot); err != nil {
			return fmt.Errorf("saving population %s: %w", spec.Name, err)
		}

		if idx < len(result.BestByGeneration) {
			historyID := runID + ":" + spec.Name
			if err := p.store.SaveFitnessHistory(ctx, historyID, result.BestByGeneration[idx]); err != nil {
				return fmt.Errorf("saving fitness history %s: %w", historyID, err)
			}
		}
	}

	if err := p.store.SaveGenerationDiagnostics(ctx, runID, result.Diagnostics); err != nil {
		return fmt.Errorf("saving diagnostics: %w", err)
	}
	if err := p.store.SaveLineage(ctx, runID, result.Lineage); err != nil {
		return fmt.Errorf("saving lineage: %w", err)
	}
	return nil
}

// RestoreTree loads a persisted tree record and rebuilds it against the
// given registry.
func (p *Polis) RestoreTree(ctx context.Context, id string, registry *nodeset.Registry, fixed nodeset.FixedContext) (*genotype.Tree, error) {
	record, ok, err := p.store.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("tree not found: %s", id)
	}
	return genotype.Restore(registry, record, fixed)
}

func (p *Polis) registerRun(runID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	if _, exists := p.activeRuns[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	p.activeRuns[runID] = struct{}{}
	return nil
}

func (p *Polis) unregisterRun(runID string) {
	p.mu.Lock()
	delete(p.activeRuns, runID)
	p.mu.Unlock()
}

func (p *Polis) RegisteredScapes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.scapes))
	for name := range p.scapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) ActiveSupportModules() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.supportModules))
	for name := range p.supportModules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Polis) Store() storage.Store {
	return p.store
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) LastStopReason() StopReason {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastStopReason
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}

func stopSupportModules(ctx context.Context, modules []SupportModule) {
	for i := len(modules) - 1; i >= 0; i-- {
		_ = modules[i].Stop(ctx)
	}
}
