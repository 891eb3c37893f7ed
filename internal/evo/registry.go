package evo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrOperatorExists   = errors.New("operator already registered")
	ErrOperatorNotFound = errors.New("operator not found")
)

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]Operator
}{
	m: make(map[string]Operator),
}

// RegisterOperator makes a variation operator addressable by name, e.g. for
// configuration-driven reproduction policies. Registration happens at
// startup; a duplicate name is a configuration defect.
func RegisterOperator(name string, op Operator) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("operator name is required")
	}
	if op == nil {
		return fmt.Errorf("operator %q: implementation is required", name)
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, ok := operatorRegistry.m[name]; ok {
		return fmt.Errorf("%w: %q", ErrOperatorExists, name)
	}
	operatorRegistry.m[name] = op
	return nil
}

func GetOperator(name string) (Operator, error) {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	op, ok := operatorRegistry.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOperatorNotFound, name)
	}
	return op, nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterOperator removes a registration; primarily for tests.
func UnregisterOperator(name string) {
	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	delete(operatorRegistry.m, name)
}
