package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseRunRequest(t *testing.T) {
	req, err := parseRunRequest([]byte(`
scape: two_cars
population: 16
generations: 5
seed: 9
workers: 2
elite_count: 3
max_depth: 4
selection: elite
fitness_postprocessor: parsimony
parsimony_weight: 0.01
crossover_rate: 0.6
tuning:
  enabled: true
  compare: true
  attempts: 12
  steps: 4
  step_size: 0.2
  attempt_policy: linear_decay
  attempt_param: 2
`))
	if err != nil {
		t.Fatalf("parsing config: %v", err)
	}

	if req.Scape != "two_cars" || req.Population != 16 || req.Generations != 5 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Seed != 9 || req.Workers != 2 || req.EliteCount != 3 || req.MaxDepth != 4 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Selection != "elite" || req.FitnessPostprocessor != "parsimony" || req.ParsimonyWeight != 0.01 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.CrossoverRate != 0.6 {
		t.Fatalf("unexpected crossover rate: %v", req.CrossoverRate)
	}
	if !req.EnableTuning || !req.CompareTuning || req.TuneAttempts != 12 || req.TuneSteps != 4 {
		t.Fatalf("unexpected tuning: %+v", req)
	}
	if req.TuneStepSize != 0.2 || req.TuneAttemptPolicy != "linear_decay" || req.TuneAttemptParam != 2 {
		t.Fatalf("unexpected tuning: %+v", req)
	}
}

func TestParseRunRequestEmpty(t *testing.T) {
	req, err := parseRunRequest(nil)
	if err != nil {
		t.Fatalf("parsing empty config: %v", err)
	}
	if req.Scape != "" || req.Population != 0 {
		t.Fatalf("expected zero request, got=%+v", req)
	}
}

func TestParseRunRequestRejectsUnknownField(t *testing.T) {
	_, err := parseRunRequest([]byte("scape: two_cars\nspecies_limit: 4\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "species_limit") {
		t.Fatalf("expected field name in error, got=%v", err)
	}
}

func TestParseRunRequestValidation(t *testing.T) {
	cases := map[string]string{
		"negative population": "population: -1\n",
		"negative gens":       "generations: -5\n",
		"rate above one":      "crossover_rate: 1.5\n",
		"negative rate":       "literal_mutation_rate: -0.2\n",
		"negative parsimony":  "parsimony_weight: -0.1\n",
	}
	for name, payload := range cases {
		if _, err := parseRunRequest([]byte(payload)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadRunRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("scape: two_cars\npopulation: 8\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	req, err := loadRunRequest(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if req.Scape != "two_cars" || req.Population != 8 {
		t.Fatalf("unexpected request: %+v", req)
	}

	if _, err := loadRunRequest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
