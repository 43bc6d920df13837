package graph

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// NodeKey uniquely identifies a node in the graph. Services are keyed by
// Type, functions and values by Name.
type NodeKey struct {
	Type reflect.Type
	Name string
}

// ServiceKey returns the key of a service node.
func ServiceKey(t reflect.Type) NodeKey {
	return NodeKey{Type: t}
}

// NamedKey returns the key of a function or value node.
func NamedKey(name string) NodeKey {
	return NodeKey{Name: name}
}

// String returns a string representation of the node key.
func (k NodeKey) String() string {
	if k.Type == nil {
		return fmt.Sprintf("%q", k.Name)
	}
	return k.Type.String()
}

// Node represents a definition in the dependency graph.
type Node struct {
	Key          NodeKey
	Dependencies []NodeKey // nodes this node depends on
	Dependents   []NodeKey // nodes that depend on this node
}

// DependencyGraph records which definitions depend on which.
// Nodes are kept in insertion order so that traversals are deterministic.
type DependencyGraph struct {
	mu    sync.RWMutex
	order []NodeKey
	nodes map[NodeKey]*Node
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[NodeKey]*Node),
	}
}

// Add adds key with its dependencies, replacing any dependencies recorded
// for it before. Unknown dependencies become leaf nodes.
func (g *DependencyGraph) Add(key NodeKey, deps ...NodeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.node(key)
	for _, old := range node.Dependencies {
		if n, ok := g.nodes[old]; ok {
			n.Dependents = slices.DeleteFunc(n.Dependents, func(k NodeKey) bool { return k == key })
		}
	}

	node.Dependencies = node.Dependencies[:0]
	for _, dep := range deps {
		if slices.Contains(node.Dependencies, dep) {
			continue
		}
		node.Dependencies = append(node.Dependencies, dep)
		d := g.node(dep)
		d.Dependents = append(d.Dependents, key)
	}
}

func (g *DependencyGraph) node(key NodeKey) *Node {
	n, ok := g.nodes[key]
	if !ok {
		n = &Node{Key: key}
		g.nodes[key] = n
		g.order = append(g.order, key)
	}
	return n
}

// Dependencies returns the direct dependencies of key.
func (g *DependencyGraph) Dependencies(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if n, ok := g.nodes[key]; ok {
		return slices.Clone(n.Dependencies)
	}
	return nil
}

// Dependents returns the nodes that depend directly on key.
func (g *DependencyGraph) Dependents(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if n, ok := g.nodes[key]; ok {
		return slices.Clone(n.Dependents)
	}
	return nil
}

// Has reports whether key is a node of the graph.
func (g *DependencyGraph) Has(key NodeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[key]
	return ok
}

// Size returns the number of nodes in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// DetectCycles returns a CircularDependencyError for the first cycle found,
// walking nodes in insertion order.
func (g *DependencyGraph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[NodeKey]int, len(g.nodes))
	var path []NodeKey

	var visit func(key NodeKey) error
	visit = func(key NodeKey) error {
		switch state[key] {
		case visited:
			return nil
		case visiting:
			start := slices.Index(path, key)
			return CircularDependencyError{Node: key, Path: slices.Clone(path[start:])}
		}

		state[key] = visiting
		path = append(path, key)

		for _, dep := range g.nodes[key].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[key] = visited
		return nil
	}

	for _, key := range g.order {
		if err := visit(key); err != nil {
			return err
		}
	}

	return nil
}

// IsAcyclic returns true if the graph has no cycles.
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// TopologicalSort returns the nodes with every node placed after its
// dependencies. Ties keep insertion order.
func (g *DependencyGraph) TopologicalSort() ([]NodeKey, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]NodeKey, 0, len(g.nodes))
	seen := make(map[NodeKey]bool, len(g.nodes))

	var visit func(key NodeKey)
	visit = func(key NodeKey) {
		if seen[key] {
			return
		}
		seen[key] = true
		for _, dep := range g.nodes[key].Dependencies {
			visit(dep)
		}
		result = append(result, key)
	}

	for _, key := range g.order {
		visit(key)
	}

	return result, nil
}
