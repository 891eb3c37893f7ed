package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"dendron/pkg/dendron"
)

// runConfigFile is the YAML shape of an experiment config. Zero values fall
// through to the client's defaults.
type runConfigFile struct {
	Scape                string  `yaml:"scape"`
	Population           int     `yaml:"population"`
	Generations          int     `yaml:"generations"`
	Seed                 int64   `yaml:"seed"`
	Workers              int     `yaml:"workers"`
	EliteCount           int     `yaml:"elite_count"`
	OpponentSample       int     `yaml:"opponent_sample"`
	MaxDepth             int     `yaml:"max_depth"`
	MaxSize              int     `yaml:"max_size"`
	Selection            string  `yaml:"selection"`
	FitnessPostprocessor string  `yaml:"fitness_postprocessor"`
	ParsimonyWeight      float64 `yaml:"parsimony_weight"`
	CrossoverRate        float64 `yaml:"crossover_rate"`
	SubtreeMutationRate  float64 `yaml:"subtree_mutation_rate"`
	LiteralMutationRate  float64 `yaml:"literal_mutation_rate"`

	Tuning struct {
		Enabled       bool    `yaml:"enabled"`
		Compare       bool    `yaml:"compare"`
		Attempts      int     `yaml:"attempts"`
		Steps         int     `yaml:"steps"`
		StepSize      float64 `yaml:"step_size"`
		AttemptPolicy string  `yaml:"attempt_policy"`
		AttemptParam  float64 `yaml:"attempt_param"`
	} `yaml:"tuning"`
}

func loadRunRequest(path string) (dendron.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dendron.RunRequest{}, err
	}
	return parseRunRequest(data)
}

func parseRunRequest(data []byte) (dendron.RunRequest, error) {
	var cfg runConfigFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return dendron.RunRequest{}, fmt.Errorf("parsing run config: %w", err)
	}
	if err := validateRunConfig(cfg); err != nil {
		return dendron.RunRequest{}, err
	}

	return dendron.RunRequest{
		Scape:                cfg.Scape,
		Population:           cfg.Population,
		Generations:          cfg.Generations,
		Seed:                 cfg.Seed,
		Workers:              cfg.Workers,
		EliteCount:           cfg.EliteCount,
		OpponentSample:       cfg.OpponentSample,
		MaxDepth:             cfg.MaxDepth,
		MaxSize:              cfg.MaxSize,
		Selection:            cfg.Selection,
		FitnessPostprocessor: cfg.FitnessPostprocessor,
		ParsimonyWeight:      cfg.ParsimonyWeight,
		CrossoverRate:        cfg.CrossoverRate,
		SubtreeMutationRate:  cfg.SubtreeMutationRate,
		LiteralMutationRate:  cfg.LiteralMutationRate,
		EnableTuning:         cfg.Tuning.Enabled,
		CompareTuning:        cfg.Tuning.Compare,
		TuneAttempts:         cfg.Tuning.Attempts,
		TuneSteps:            cfg.Tuning.Steps,
		TuneStepSize:         cfg.Tuning.StepSize,
		TuneAttemptPolicy:    cfg.Tuning.AttemptPolicy,
		TuneAttemptParam:     cfg.Tuning.AttemptParam,
	}, nil
}

func validateRunConfig(cfg runConfigFile) error {
	if cfg.Population < 0 {
		return fmt.Errorf("population must be >= 0, got %d", cfg.Population)
	}
	if cfg.Generations < 0 {
		return fmt.Errorf("generations must be >= 0, got %d", cfg.Generations)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	if cfg.EliteCount < 0 {
		return fmt.Errorf("elite_count must be >= 0, got %d", cfg.EliteCount)
	}
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", cfg.MaxDepth)
	}
	for name, rate := range map[string]float64{
		"crossover_rate":        cfg.CrossoverRate,
		"subtree_mutation_rate": cfg.SubtreeMutationRate,
		"literal_mutation_rate": cfg.LiteralMutationRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %g", name, rate)
		}
	}
	if cfg.ParsimonyWeight < 0 {
		return fmt.Errorf("parsimony_weight must be >= 0, got %g", cfg.ParsimonyWeight)
	}
	return nil
}
