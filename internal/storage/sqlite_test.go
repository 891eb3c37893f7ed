//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"dendron/internal/model"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "dendron.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	tree := model.TreeRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "t1",
		Returns:         "float",
		MaxDepth:        3,
		Nodes: []model.NodeRecord{
			{Def: "negate"},
			{Def: "float_literal", Value: "1.25"},
		},
	}
	if err := store.SaveTree(ctx, tree); err != nil {
		t.Fatalf("save tree: %v", err)
	}

	loadedTree, ok, err := store.GetTree(ctx, tree.ID)
	if err != nil {
		t.Fatalf("get tree: %v", err)
	}
	if !ok {
		t.Fatalf("expected tree %s", tree.ID)
	}
	if loadedTree.ID != tree.ID || len(loadedTree.Nodes) != len(tree.Nodes) {
		t.Fatalf("unexpected tree loaded: %+v", loadedTree)
	}

	population := model.Population{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "p1",
		Name:            "pursuers",
		Generation:      3,
		Individuals: []model.Individual{
			{ID: "i1", TreeID: "t1", Fitness: 0.6},
		},
	}
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("save population: %v", err)
	}

	loadedPopulation, ok, err := store.GetPopulation(ctx, population.ID)
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok {
		t.Fatalf("expected population %s", population.ID)
	}
	if loadedPopulation.Name != population.Name || loadedPopulation.Generation != population.Generation {
		t.Fatalf("unexpected population loaded: %+v", loadedPopulation)
	}

	history := []float64{0.5, 0.7, 0.9}
	if err := store.SaveFitnessHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	loadedHistory, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected fitness history run-1")
	}
	if len(loadedHistory) != len(history) || loadedHistory[1] != history[1] {
		t.Fatalf("unexpected history loaded: %+v", loadedHistory)
	}

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, Population: "pursuers", BestFitness: 0.7, MeanFitness: 0.5, MinFitness: 0.1, MeanSize: 4.0},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-1", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loadedDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	if err != nil {
		t.Fatalf("get diagnostics: %v", err)
	}
	if !ok {
		t.Fatal("expected diagnostics run-1")
	}
	if len(loadedDiagnostics) != 1 || loadedDiagnostics[0].Generation != 1 {
		t.Fatalf("unexpected diagnostics loaded: %+v", loadedDiagnostics)
	}

	lineage := []model.LineageRecord{
		{TreeID: "t1", Generation: 0, Operation: "initial"},
		{TreeID: "t2", ParentIDs: []string{"t1"}, Generation: 1, Operation: "crossover"},
	}
	if err := store.SaveLineage(ctx, "run-1", lineage); err != nil {
		t.Fatalf("save lineage: %v", err)
	}
	loadedLineage, ok, err := store.GetLineage(ctx, "run-1")
	if err != nil {
		t.Fatalf("get lineage: %v", err)
	}
	if !ok {
		t.Fatal("expected lineage run-1")
	}
	if len(loadedLineage) != 2 || loadedLineage[1].TreeID != "t2" {
		t.Fatalf("unexpected lineage loaded: %+v", loadedLineage)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "dendron.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("first init: %v", err)
	}
	tree := model.TreeRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "persisted-tree",
		Returns:         "float",
		Nodes:           []model.NodeRecord{{Def: "zero"}},
	}
	if err := first.SaveTree(ctx, tree); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})

	loaded, ok, err := second.GetTree(ctx, tree.ID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if !ok || loaded.ID != tree.ID {
		t.Fatalf("expected persisted tree, got ok=%t value=%+v", ok, loaded)
	}
}
