// Package dag orders tables by their foreign-key dependencies so that
// referenced tables are created before the tables that point at them.
package dag

import (
	"fmt"
	"slices"
	"sort"
)

// Graph is a directed graph whose edges point from a dependency to its dependents.
type Graph[T any] struct {
	nodes   map[string]T
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:   make(map[string]T),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node, replacing the data of an existing node with the same id.
func (g *Graph[T]) AddNode(id string, data T) {
	if _, exists := g.nodes[id]; !exists {
		g.edges[id] = nil
		g.parents[id] = nil
	}
	g.nodes[id] = data
}

// HasNode reports whether id is in the graph.
func (g *Graph[T]) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph[T]) AddEdge(parentID, childID string) error {
	if !g.HasNode(parentID) {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if !g.HasNode(childID) {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Parents returns the dependencies of a node.
func (g *Graph[T]) Parents(id string) []string {
	return g.parents[id]
}

// Len returns the number of nodes in the graph.
func (g *Graph[T]) Len() int {
	return len(g.nodes)
}

// sortedIDs returns node ids in lexical order for deterministic walks.
func (g *Graph[T]) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph[T]) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.sortedIDs() {
		if !visited[id] && dfs(id) {
			return true, cyclePath
		}
	}
	return false, nil
}

// CycleError reports a dependency cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %v", e.Path)
}

// TopologicalSort returns node data with dependencies before dependents.
// Ties are broken by node id. Returns *CycleError if the graph has a cycle.
func (g *Graph[T]) TopologicalSort() ([]T, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	visited := make(map[string]bool)
	result := make([]T, 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		parents := slices.Clone(g.parents[id])
		sort.Strings(parents)
		for _, parentID := range parents {
			visit(parentID)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.sortedIDs() {
		visit(id)
	}
	return result, nil
}
