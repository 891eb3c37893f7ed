package storage

import (
	"context"

	"dendron/internal/model"
)

// Store defines persistence operations for evolved trees and run artifacts.
type Store interface {
	Init(ctx context.Context) error
	SaveTree(ctx context.Context, tree model.TreeRecord) error
	GetTree(ctx context.Context, id string) (model.TreeRecord, bool, error)
	SavePopulation(ctx context.Context, population model.Population) error
	GetPopulation(ctx context.Context, id string) (model.Population, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveLineage(ctx context.Context, runID string, lineage []model.LineageRecord) error
	GetLineage(ctx context.Context, runID string) ([]model.LineageRecord, bool, error)
}
