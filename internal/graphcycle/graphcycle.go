// Package graphcycle finds cycles in directed graphs given by an edge function.
package graphcycle

import (
	"errors"
	"fmt"
	"strings"
)

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports a cycle. Path starts and ends at the same node.
type CycleError[K comparable] struct {
	Path []K
}

// Error returns the cycle as "a -> b -> a".
func (e CycleError[K]) Error() string {
	parts := make([]string, len(e.Path))
	for i, k := range e.Path {
		parts[i] = fmt.Sprint(k)
	}
	return "cycle: " + strings.Join(parts, " -> ")
}

// Config configures a traversal.
type Config[K comparable] struct {
	// Next returns the outgoing edges of a node, in a stable order.
	Next func(K) []K
	// Starts lists the roots, visited in order.
	Starts []K
}

var errNilNext = errors.New("graphcycle: next function is nil")

// Detect walks edges depth-first from each start and returns the first cycle
// found as a CycleError.
func Detect[K comparable](cfg Config[K]) error {
	if cfg.Next == nil {
		return errNilNext
	}
	states := make(map[K]visitState, len(cfg.Starts))
	var stack []K

	var visit func(key K) error
	visit = func(key K) error {
		switch states[key] {
		case stateVisiting:
			return CycleError[K]{Path: cyclePath(stack, key)}
		case stateDone:
			return nil
		}
		states[key] = stateVisiting
		stack = append(stack, key)
		for _, next := range cfg.Next(key) {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[key] = stateDone
		return nil
	}

	for _, start := range cfg.Starts {
		if err := visit(start); err != nil {
			return err
		}
	}
	return nil
}

func cyclePath[K comparable](stack []K, closing K) []K {
	for i, k := range stack {
		if k == closing {
			path := make([]K, 0, len(stack)-i+1)
			path = append(path, stack[i:]...)
			return append(path, closing)
		}
	}
	return []K{closing, closing}
}

// TopoSort orders nodes reachable from starts so that every node follows the
// nodes it has edges to. Ties keep start order. It fails on a cycle.
func TopoSort[K comparable](cfg Config[K]) ([]K, error) {
	if cfg.Next == nil {
		return nil, errNilNext
	}
	var order []K
	states := make(map[K]visitState, len(cfg.Starts))
	var stack []K

	var visit func(key K) error
	visit = func(key K) error {
		switch states[key] {
		case stateVisiting:
			return CycleError[K]{Path: cyclePath(stack, key)}
		case stateDone:
			return nil
		}
		states[key] = stateVisiting
		stack = append(stack, key)
		for _, next := range cfg.Next(key) {
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[key] = stateDone
		order = append(order, key)
		return nil
	}

	for _, start := range cfg.Starts {
		if err := visit(start); err != nil {
			return nil, err
		}
	}
	return order, nil
}
