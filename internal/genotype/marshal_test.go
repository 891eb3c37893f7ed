package genotype

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"dendron/internal/model"
	"dendron/internal/nodeset"
)

func TestFlattenRestoreRoundTrip(t *testing.T) {
	registry := testRegistry(t)

	for seed := int64(0); seed < 10; seed++ {
		tree, err := Build(BuildConfig{
			Registry: registry,
			Returns:  typeFloat,
			MaxDepth: 4,
			Strategy: StrategyGrow,
			Rand:     rand.New(rand.NewSource(seed)),
		})
		if err != nil {
			t.Fatalf("seed %d: build: %v", seed, err)
		}

		rec, err := tree.Flatten("tree-1")
		if err != nil {
			t.Fatalf("seed %d: flatten: %v", seed, err)
		}
		if rec.ID != "tree-1" || rec.Returns != string(typeFloat) || len(rec.Nodes) != tree.Size() {
			t.Fatalf("seed %d: unexpected record header: %+v", seed, rec)
		}

		restored, err := Restore(registry, rec, tree.Fixed)
		if err != nil {
			t.Fatalf("seed %d: restore: %v", seed, err)
		}
		if err := restored.Validate(); err != nil {
			t.Fatalf("seed %d: restored validate: %v", seed, err)
		}

		want := tree.Nodes()
		got := restored.Nodes()
		if len(want) != len(got) {
			t.Fatalf("seed %d: node count mismatch: %d vs %d", seed, len(want), len(got))
		}
		for i := range want {
			if want[i].Def.ID != got[i].Def.ID {
				t.Fatalf("seed %d: node %d def mismatch: %q vs %q", seed, i, want[i].Def.ID, got[i].Def.ID)
			}
			if want[i].Value != got[i].Value {
				t.Fatalf("seed %d: node %d value mismatch: %v vs %v", seed, i, want[i].Value, got[i].Value)
			}
		}
	}
}

func TestFlattenUsesRegisteredCodec(t *testing.T) {
	registry := testRegistry(t)

	// A float literal producing a composite value only the codec can encode.
	type span struct{ lo, hi float64 }
	if err := registry.RegisterLiteral("span_literal", typeFloat, func(_ nodeset.FixedContext) any {
		return span{lo: -1, hi: 1}
	}); err != nil {
		t.Fatalf("register span literal: %v", err)
	}
	if err := registry.RegisterCodec(typeFloat, nodeset.Codec{
		Serialize: func(v any) (string, error) {
			s, ok := v.(span)
			if !ok {
				return "", fmt.Errorf("unexpected value %T", v)
			}
			return fmt.Sprintf("%g,%g", s.lo, s.hi), nil
		},
		Deserialize: func(text string) (any, error) {
			var s span
			if _, err := fmt.Sscanf(text, "%g,%g", &s.lo, &s.hi); err != nil {
				return nil, err
			}
			return s, nil
		},
	}); err != nil {
		t.Fatalf("register codec: %v", err)
	}

	tree := &Tree{
		Root:     literalNode(t, registry, "span_literal", span{lo: -2.5, hi: 3.5}),
		Returns:  typeFloat,
		MaxDepth: 0,
		registry: registry,
	}

	rec, err := tree.Flatten("spans")
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if rec.Nodes[0].Value != "-2.5,3.5" {
		t.Fatalf("unexpected encoded literal: %q", rec.Nodes[0].Value)
	}

	restored, err := Restore(registry, rec, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Root.Value != (span{lo: -2.5, hi: 3.5}) {
		t.Fatalf("codec round trip mismatch: %v", restored.Root.Value)
	}
}

func TestFlattenFailsWithoutCodecForCompositeValue(t *testing.T) {
	registry := testRegistry(t)

	if err := registry.RegisterLiteral("pair_literal", typeFloat, func(_ nodeset.FixedContext) any {
		return [2]float64{1, 2}
	}); err != nil {
		t.Fatalf("register pair literal: %v", err)
	}

	tree := &Tree{
		Root:     literalNode(t, registry, "pair_literal", [2]float64{1, 2}),
		Returns:  typeFloat,
		MaxDepth: 0,
		registry: registry,
	}
	if _, err := tree.Flatten("pairs"); !errors.Is(err, ErrNoCodec) {
		t.Fatalf("expected ErrNoCodec, got=%v", err)
	}
}

func TestRestoreRejectsMalformedRecords(t *testing.T) {
	registry := testRegistry(t)

	truncated := model.TreeRecord{
		Returns:  string(typeFloat),
		MaxDepth: 2,
		Nodes:    []model.NodeRecord{{Def: "add"}, {Def: "zero"}},
	}
	if _, err := Restore(registry, truncated, nil); !errors.Is(err, ErrTruncatedRecord) {
		t.Fatalf("expected ErrTruncatedRecord, got=%v", err)
	}

	trailing := model.TreeRecord{
		Returns:  string(typeFloat),
		MaxDepth: 2,
		Nodes:    []model.NodeRecord{{Def: "zero"}, {Def: "zero"}},
	}
	if _, err := Restore(registry, trailing, nil); !errors.Is(err, ErrTrailingNodes) {
		t.Fatalf("expected ErrTrailingNodes, got=%v", err)
	}

	unknown := model.TreeRecord{
		Returns:  string(typeFloat),
		MaxDepth: 1,
		Nodes:    []model.NodeRecord{{Def: "missing"}},
	}
	if _, err := Restore(registry, unknown, nil); !errors.Is(err, ErrUnknownDef) {
		t.Fatalf("expected ErrUnknownDef, got=%v", err)
	}

	wrongType := model.TreeRecord{
		Returns:  string(typeBool),
		MaxDepth: 1,
		Nodes:    []model.NodeRecord{{Def: "zero"}},
	}
	_, err := Restore(registry, wrongType, nil)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation failure, got=%v", err)
	}
}
