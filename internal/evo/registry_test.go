package evo

import (
	"errors"
	"math/rand"
	"testing"
)

func TestOperatorRegistry(t *testing.T) {
	op := SubtreeMutation{Rand: rand.New(rand.NewSource(0))}

	if err := RegisterOperator("test_subtree", op); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	defer UnregisterOperator("test_subtree")

	if err := RegisterOperator("test_subtree", op); !errors.Is(err, ErrOperatorExists) {
		t.Fatalf("expected ErrOperatorExists, got=%v", err)
	}

	got, err := GetOperator("test_subtree")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name() != "subtree_mutation" {
		t.Fatalf("unexpected operator %q", got.Name())
	}

	found := false
	for _, name := range ListOperators() {
		if name == "test_subtree" {
			found = true
		}
	}
	if !found {
		t.Fatal("registered operator missing from listing")
	}
}

func TestGetOperatorNotFound(t *testing.T) {
	if _, err := GetOperator("no_such_operator"); !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got=%v", err)
	}
}

func TestRegisterOperatorValidation(t *testing.T) {
	if err := RegisterOperator("", SubtreeMutation{}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := RegisterOperator("anon", nil); err == nil {
		t.Fatal("expected error for nil operator")
	}
}
