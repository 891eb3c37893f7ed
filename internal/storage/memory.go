package storage

import (
	"context"
	"sync"

	"dendron/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	trees       map[string]model.TreeRecord
	populations map[string]model.Population
	history     map[string][]float64
	diagnostics map[string][]model.GenerationDiagnostics
	lineage     map[string][]model.LineageRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.trees = make(map[string]model.TreeRecord)
	s.populations = make(map[string]model.Population)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	s.lineage = make(map[string][]model.LineageRecord)
	return nil
}

func (s *MemoryStore) SaveTree(_ context.Context, tree model.TreeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree.Nodes = append([]model.NodeRecord(nil), tree.Nodes...)
	tree.Forbidden = append([]string(nil), tree.Forbidden...)
	s.trees[tree.ID] = tree
	return nil
}

func (s *MemoryStore) GetTree(_ context.Context, id string) (model.TreeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok := s.trees[id]
	if !ok {
		return model.TreeRecord{}, false, nil
	}
	tree.Nodes = append([]model.NodeRecord(nil), tree.Nodes...)
	tree.Forbidden = append([]string(nil), tree.Forbidden...)
	return tree, true, nil
}

func (s *MemoryStore) SavePopulation(_ context.Context, population model.Population) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	population.Individuals = append([]model.Individual(nil), population.Individuals...)
	s.populations[population.ID] = population
	return nil
}

func (s *MemoryStore) GetPopulation(_ context.Context, id string) (model.Population, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	population, ok := s.populations[id]
	if !ok {
		return model.Population{}, false, nil
	}
	population.Individuals = append([]model.Individual(nil), population.Individuals...)
	return population, true, nil
}

func (s *MemoryStore) DeletePopulation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.populations, id)
	return nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	return copied, true, nil
}

func (s *MemoryStore) SaveLineage(_ context.Context, runID string, lineage []model.LineageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.LineageRecord, len(lineage))
	copy(copied, lineage)
	s.lineage[runID] = copied
	return nil
}

func (s *MemoryStore) GetLineage(_ context.Context, runID string) ([]model.LineageRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lineage, ok := s.lineage[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.LineageRecord, len(lineage))
	copy(copied, lineage)
	return copied, true, nil
}
