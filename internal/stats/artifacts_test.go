package stats

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dendron/internal/model"
)

func sampleArtifacts(runID string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID: runID,
			Scape: "two_cars",
			Populations: []PopulationConfig{
				{Name: "pursuers", Returns: "float", MaxDepth: 5},
				{Name: "evaders", Returns: "float", MaxDepth: 5},
			},
			PopulationSize: 20,
			Generations:    10,
			Seed:           7,
			Workers:        4,
			EliteCount:     4,
			OpponentSample: 3,
			Selection:      "tournament",
			CrossoverRate:  0.5,
		},
		Populations: []PopulationArtifacts{
			{
				Name:             "pursuers",
				BestByGeneration: []float64{0.1, 0.4, 0.6},
				FinalBestFitness: 0.6,
				TopTrees: []TopTree{
					{Rank: 1, Fitness: 0.6, Raw: 0.7, Tree: model.TreeRecord{ID: "t1", Returns: "float"}},
				},
			},
			{
				Name:             "evaders",
				BestByGeneration: []float64{0.2, 0.1, 0.3},
				FinalBestFitness: 0.3,
			},
		},
		GenerationDiagnostics: []model.GenerationDiagnostics{
			{Generation: 0, Population: "pursuers", BestFitness: 0.1},
		},
		Lineage: []model.LineageRecord{
			{TreeID: "t1", Generation: 0, Operation: "initial"},
		},
	}
}

func TestWriteRunArtifactsRoundtrip(t *testing.T) {
	baseDir := t.TempDir()

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("reading config: ok=%v err=%v", ok, err)
	}
	if cfg.Scape != "two_cars" || len(cfg.Populations) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	populations, ok, err := ReadPopulationArtifacts(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("reading populations: ok=%v err=%v", ok, err)
	}
	if len(populations) != 2 || populations[0].TopTrees[0].Tree.ID != "t1" {
		t.Fatalf("unexpected populations: %+v", populations)
	}

	series, ok, err := ReadFitnessSeries(filepath.Join(runDir, "fitness_series_pursuers.csv"))
	if err != nil || !ok {
		t.Fatalf("reading series: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(series, []float64{0.1, 0.4, 0.6}) {
		t.Fatalf("unexpected series: %v", series)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}

func TestWriteRunArtifactsSanitizesRunID(t *testing.T) {
	baseDir := t.TempDir()

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("coevo:two_cars:7"))
	if err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}
	if filepath.Base(runDir) != "coevo_two_cars_7" {
		t.Fatalf("unexpected run dir: %s", runDir)
	}
	if _, ok, err := ReadRunConfig(baseDir, "coevo:two_cars:7"); err != nil || !ok {
		t.Fatalf("reading config by raw run id: ok=%v err=%v", ok, err)
	}
}

func TestRunIndexOrderingAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	entries := []RunIndexEntry{
		{RunID: "run-a", CreatedAtUTC: "2026-08-01T10:00:00Z", FinalBestFitness: 0.2},
		{RunID: "run-b", CreatedAtUTC: "2026-08-02T10:00:00Z", FinalBestFitness: 0.4},
		{RunID: "run-c", CreatedAtUTC: "2026-08-02T10:00:00Z", FinalBestFitness: 0.5},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("appending %s: %v", entry.RunID, err)
		}
	}

	listed, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 entries, got=%d", len(listed))
	}
	// Newest first, later append wins equal timestamps.
	if listed[0].RunID != "run-c" || listed[1].RunID != "run-b" || listed[2].RunID != "run-a" {
		t.Fatalf("unexpected order: %v", listed)
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID: "run-a", CreatedAtUTC: "2026-08-03T10:00:00Z", FinalBestFitness: 0.9,
	}); err != nil {
		t.Fatalf("upserting run-a: %v", err)
	}
	listed, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(listed) != 3 || listed[0].RunID != "run-a" || listed[0].FinalBestFitness != 0.9 {
		t.Fatalf("expected upserted run-a first, got=%v", listed)
	}
}

func TestListRunIndexEmpty(t *testing.T) {
	listed, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty index, got=%v", listed)
	}
}

func TestExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := t.TempDir()

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}
	if err := WriteTuningComparison(runDir, TuningComparison{Scape: "two_cars", FinalImprovement: 0.1}); err != nil {
		t.Fatalf("writing comparison: %v", err)
	}

	exported, err := ExportRunArtifacts(baseDir, "run-1", outDir)
	if err != nil {
		t.Fatalf("exporting: %v", err)
	}
	for _, name := range []string{
		"config.json",
		"populations.json",
		"lineage.json",
		"generation_diagnostics.json",
		"fitness_series_pursuers.csv",
		"fitness_series_evaders.csv",
		"compare_tuning.json",
	} {
		if _, err := os.Stat(filepath.Join(exported, name)); err != nil {
			t.Fatalf("expected exported file %s: %v", name, err)
		}
	}

	if _, err := ExportRunArtifacts(baseDir, "missing", outDir); err == nil {
		t.Fatalf("expected error for unknown run id")
	}
}

func TestTuningComparisonRoundtrip(t *testing.T) {
	baseDir := t.TempDir()

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1"))
	if err != nil {
		t.Fatalf("writing artifacts: %v", err)
	}

	if _, ok, err := ReadTuningComparison(baseDir, "run-1"); err != nil || ok {
		t.Fatalf("expected no comparison yet: ok=%v err=%v", ok, err)
	}

	want := TuningComparison{
		Scape:            "two_cars",
		Seed:             7,
		WithoutFinalBest: 0.4,
		WithFinalBest:    0.6,
		FinalImprovement: 0.2,
	}
	if err := WriteTuningComparison(runDir, want); err != nil {
		t.Fatalf("writing comparison: %v", err)
	}
	got, ok, err := ReadTuningComparison(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("reading comparison: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("comparison mismatch: got=%+v want=%+v", got, want)
	}
}
