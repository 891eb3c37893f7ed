package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"dendron/pkg/dendron"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type clientFlags struct {
	storeKind    *string
	dbPath       *string
	artifactsDir *string
	exportsDir   *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind:    fs.String("store", "memory", "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", "dendron.db", "sqlite database path"),
		artifactsDir: fs.String("artifacts", "artifacts", "run artifacts directory"),
		exportsDir:   fs.String("exports", "exports", "export output directory"),
	}
}

func (f clientFlags) newClient() (*dendron.Client, error) {
	return dendron.New(dendron.Options{
		StoreKind:    *f.storeKind,
		DBPath:       *f.dbPath,
		ArtifactsDir: *f.artifactsDir,
		ExportsDir:   *f.exportsDir,
		Logger:       slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	cf := addClientFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := cf.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *cf.storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cf := addClientFlags(fs)
	configPath := fs.String("config", "", "optional experiment config YAML path")
	scapeName := fs.String("scape", "two_cars", "scape name")
	population := fs.Int("pop", 30, "population size per side")
	generations := fs.Int("gens", 20, "generation count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	eliteCount := fs.Int("elite", 0, "elite count (0 derives from population size)")
	opponentSample := fs.Int("opponent-sample", 0, "opponents sampled per evaluation (0 uses default)")
	maxDepth := fs.Int("max-depth", 5, "max tree depth")
	maxSize := fs.Int("max-size", 0, "max tree size for crossover offspring (0 disables)")
	selectionName := fs.String("selection", "tournament", "parent selection strategy: elite|tournament")
	postprocessorName := fs.String("fitness-postprocessor", "none", "fitness postprocessor: none|parsimony")
	parsimonyWeight := fs.Float64("parsimony-weight", 0.0, "size penalty weight for fitness-postprocessor=parsimony")
	crossoverRate := fs.Float64("crossover-rate", 0.0, "crossover probability per offspring (0 uses default)")
	subtreeRate := fs.Float64("subtree-mutation-rate", 0.0, "subtree mutation probability (0 uses default)")
	literalRate := fs.Float64("literal-mutation-rate", 0.0, "literal mutation probability (0 uses default)")
	enableTuning := fs.Bool("tuning", false, "tune final best literals with the exoself")
	compareTuning := fs.Bool("compare-tuning", false, "report tuned vs untuned final best")
	tuneAttempts := fs.Int("attempts", 8, "tuning attempts")
	tuneSteps := fs.Int("tune-steps", 6, "tuning perturbation steps per attempt")
	tuneStepSize := fs.Float64("tune-step-size", 0.35, "tuning perturbation magnitude")
	tunePolicy := fs.String("tune-policy", "fixed", "tuning attempt policy: fixed|linear_decay|size_scaled|literal_proportional")
	tuneParam := fs.Float64("tune-param", 1.0, "tuning attempt policy parameter")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req dendron.RunRequest
	if *configPath != "" {
		loaded, err := loadRunRequest(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	} else {
		req = dendron.RunRequest{
			Scape:                *scapeName,
			Population:           *population,
			Generations:          *generations,
			Seed:                 *seed,
			Workers:              *workers,
			EliteCount:           *eliteCount,
			OpponentSample:       *opponentSample,
			MaxDepth:             *maxDepth,
			MaxSize:              *maxSize,
			Selection:            *selectionName,
			FitnessPostprocessor: *postprocessorName,
			ParsimonyWeight:      *parsimonyWeight,
			CrossoverRate:        *crossoverRate,
			SubtreeMutationRate:  *subtreeRate,
			LiteralMutationRate:  *literalRate,
			EnableTuning:         *enableTuning,
			CompareTuning:        *compareTuning,
			TuneAttempts:         *tuneAttempts,
			TuneSteps:            *tuneSteps,
			TuneStepSize:         *tuneStepSize,
			TuneAttemptPolicy:    *tunePolicy,
			TuneAttemptParam:     *tuneParam,
		}
	}

	client, err := cf.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(summary)
	}
	fmt.Printf("run %s finished, artifacts at %s\n", summary.RunID, summary.ArtifactsDir)
	for _, population := range summary.Populations {
		fmt.Printf("  %s: final best fitness %.4f over %d generations\n",
			population.Name, population.FinalBestFitness, len(population.BestByGeneration))
	}
	if summary.Compare != nil {
		fmt.Printf("  tuning: %.4f -> %.4f (improvement %.4f)\n",
			summary.Compare.WithoutFinalBest, summary.Compare.WithFinalBest, summary.Compare.FinalImprovement)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	cf := addClientFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	showCompare := fs.Bool("show-compare", false, "show compare-tuning improvement when available")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := cf.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, dendron.RunsRequest{Limit: *limit, ShowCompare: *showCompare})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		return printJSON(runs)
	}
	for _, item := range runs {
		compareDisplay := "n/a"
		if item.CompareImprovement != nil {
			compareDisplay = fmt.Sprintf("%+.4f", *item.CompareImprovement)
		}
		line := fmt.Sprintf("%s scape=%s seed=%d pop=%d gens=%d tuning=%v best=%.4f",
			item.RunID, item.Scape, item.Seed, item.Population, item.Generations,
			item.TuningEnabled, item.FinalBestFitness)
		if *showCompare {
			line += " compare=" + compareDisplay
		}
		fmt.Println(line)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("show requires a topic: lineage|fitness|diagnostics|top")
	}
	topic := args[0]

	fs := flag.NewFlagSet("show "+topic, flag.ContinueOnError)
	cf := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max entries to show (0 shows all)")
	populationName := fs.String("population", "", "population name (defaults to pursuers)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	client, err := cf.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	switch topic {
	case "lineage":
		lineage, err := client.Lineage(ctx, dendron.LineageRequest{
			RunID: *runID, Latest: *latest, Limit: *limit,
		})
		if err != nil {
			return err
		}
		return printJSON(lineage)
	case "fitness":
		history, err := client.FitnessHistory(ctx, dendron.FitnessHistoryRequest{
			RunID: *runID, Latest: *latest, Population: *populationName, Limit: *limit,
		})
		if err != nil {
			return err
		}
		return printJSON(history)
	case "diagnostics":
		diagnostics, err := client.Diagnostics(ctx, dendron.DiagnosticsRequest{
			RunID: *runID, Latest: *latest, Limit: *limit,
		})
		if err != nil {
			return err
		}
		return printJSON(diagnostics)
	case "top":
		top, err := client.TopTrees(ctx, dendron.TopTreesRequest{
			RunID: *runID, Latest: *latest, Population: *populationName, Limit: *limit,
		})
		if err != nil {
			return err
		}
		return printJSON(top)
	default:
		return usageError(fmt.Sprintf("unknown show topic: %s", topic))
	}
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	cf := addClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "", "output directory (defaults to exports dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := cf.newClient()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, dendron.ExportRequest{
		RunID: *runID, Latest: *latest, OutDir: *outDir,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run %s to %s\n", summary.RunID, summary.Directory)
	return nil
}

func printJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: dendronctl <init|run|runs|show|export> [flags]", msg)
}
