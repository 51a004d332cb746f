package compiler

import (
	"fmt"
	"slices"
	"strings"
)

// DependencyCycle reports questions whose composites reference each other.
// A question can only be built once every question it references exists,
// so a cycle makes the whole set unbuildable.
type DependencyCycle struct {
	Path []string `json:"path"` // e.g. ["A", "B", "A"]
}

func (c *DependencyCycle) Error() string {
	if len(c.Path) == 2 && c.Path[0] == c.Path[1] {
		return fmt.Sprintf("question %s references itself", c.Path[0])
	}
	return fmt.Sprintf("questions reference each other: %s", strings.Join(c.Path, " → "))
}

// dependencyGraph maps a question label to the labels its composites
// reference.
type dependencyGraph map[string][]string

// orderByDependencies returns every node of graph such that each node comes
// after the nodes it references.
//
// The algorithm:
//  1. Find strongly connected components with Tarjan's algorithm, visiting
//     nodes in sorted order so the result is deterministic
//  2. Any SCC with more than one node, or a self-loop, is a cycle
//  3. Tarjan emits SCCs in reverse topological order, which is exactly
//     "dependencies first"
func orderByDependencies(graph dependencyGraph) ([]string, error) {
	sccs := tarjanSCC(graph)
	order := make([]string, 0, len(graph))
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			return nil, &DependencyCycle{Path: reconstructCyclePath(scc, graph)}
		}
		order = append(order, scc[0])
	}
	return order, nil
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Edges to nodes absent from graph are ignored.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, known := graph[w]; !known {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside an SCC from its first node back
// to itself. A self-loop yields [node, node].
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return nil
	}
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, neighbor := range graph[current] {
			if inSCC[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
