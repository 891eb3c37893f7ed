// Package stats writes per-run artifact directories: config, fitness
// history, top trees, lineage and diagnostics as JSON, plus a CSV series
// for external plotting. A run_index.json at the base directory tracks runs
// newest first.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"dendron/internal/model"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID                string             `json:"run_id"`
	Scape                string             `json:"scape"`
	Populations          []PopulationConfig `json:"populations"`
	PopulationSize       int                `json:"population_size"`
	Generations          int                `json:"generations"`
	Seed                 int64              `json:"seed"`
	Workers              int                `json:"workers"`
	EliteCount           int                `json:"elite_count"`
	OpponentSample       int                `json:"opponent_sample"`
	Selection            string             `json:"selection"`
	FitnessPostprocessor string             `json:"fitness_postprocessor"`
	ParsimonyWeight      float64            `json:"parsimony_weight,omitempty"`
	CrossoverRate        float64            `json:"crossover_rate"`
	SubtreeMutationRate  float64            `json:"subtree_mutation_rate"`
	LiteralMutationRate  float64            `json:"literal_mutation_rate"`
	MaxSize              int                `json:"max_size,omitempty"`
	TuningEnabled        bool               `json:"tuning_enabled"`
	TuneAttempts         int                `json:"tune_attempts,omitempty"`
	TuneSteps            int                `json:"tune_steps,omitempty"`
	TuneStepSize         float64            `json:"tune_step_size,omitempty"`
}

type PopulationConfig struct {
	Name     string `json:"name"`
	Returns  string `json:"returns"`
	MaxDepth int    `json:"max_depth"`
}

type TopTree struct {
	Rank    int              `json:"rank"`
	Fitness float64          `json:"fitness"`
	Raw     float64          `json:"raw"`
	Tree    model.TreeRecord `json:"tree"`
}

type PopulationArtifacts struct {
	Name             string    `json:"name"`
	BestByGeneration []float64 `json:"best_by_generation"`
	FinalBestFitness float64   `json:"final_best_fitness"`
	TopTrees         []TopTree `json:"top_trees"`
}

type RunArtifacts struct {
	Config                RunConfig                     `json:"config"`
	Populations           []PopulationArtifacts         `json:"populations"`
	GenerationDiagnostics []model.GenerationDiagnostics `json:"generation_diagnostics,omitempty"`
	Lineage               []model.LineageRecord         `json:"lineage"`
}

type TuningComparison struct {
	Scape             string    `json:"scape"`
	PopulationSize    int       `json:"population_size"`
	Generations       int       `json:"generations"`
	Seed              int64     `json:"seed"`
	WithoutTuningBest []float64 `json:"without_tuning_best"`
	WithTuningBest    []float64 `json:"with_tuning_best"`
	WithoutFinalBest  float64   `json:"without_final_best"`
	WithFinalBest     float64   `json:"with_final_best"`
	FinalImprovement  float64   `json:"final_improvement"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Scape            string  `json:"scape"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	EliteCount       int     `json:"elite_count"`
	TuningEnabled    bool    `json:"tuning_enabled"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, sanitizeRunID(artifacts.Config.RunID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "populations.json"), artifacts.Populations); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "lineage.json"), artifacts.Lineage); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "generation_diagnostics.json"), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	for _, population := range artifacts.Populations {
		series := filepath.Join(runDir, "fitness_series_"+population.Name+".csv")
		if err := WriteFitnessSeries(series, population.BestByGeneration); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the run index sorted newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, sanitizeRunID(runID))
	entries, err := os.ReadDir(src)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, sanitizeRunID(runID))
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if err := copyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, sanitizeRunID(runID), "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadPopulationArtifacts(baseDir, runID string) ([]PopulationArtifacts, bool, error) {
	path := filepath.Join(baseDir, sanitizeRunID(runID), "populations.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var populations []PopulationArtifacts
	if err := json.Unmarshal(data, &populations); err != nil {
		return nil, false, err
	}
	return populations, true, nil
}

func WriteTuningComparison(runDir string, report TuningComparison) error {
	return writeJSON(filepath.Join(runDir, "compare_tuning.json"), report)
}

func ReadTuningComparison(baseDir, runID string) (TuningComparison, bool, error) {
	path := filepath.Join(baseDir, sanitizeRunID(runID), "compare_tuning.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return TuningComparison{}, false, nil
		}
		return TuningComparison{}, false, err
	}

	var report TuningComparison
	if err := json.Unmarshal(data, &report); err != nil {
		return TuningComparison{}, false, err
	}
	return report, true, nil
}

func WriteFitnessSeries(path string, bestByGeneration []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessSeries(path string) ([]float64, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness series header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("fitness series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

// sanitizeRunID makes a run id usable as a directory name. Run ids carry
// colons when derived from scape name and seed.
func sanitizeRunID(runID string) string {
	replaced := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(runID)
	return strings.Trim(replaced, "._")
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
