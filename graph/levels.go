package graph

import (
	"fmt"
	"sort"
)

// edge is a dependency: To consumes a stream produced by From.
type edge struct {
	From string
	To   string
}

// buildLevels uses Kahn's algorithm to group nodes by dependency level. Names
// within a level are sorted so assembly order is deterministic. It returns
// the nodes left on a cycle when the graph is not acyclic.
func buildLevels(nodes []string, edges []edge) ([][]string, []string) {
	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string)

	for _, name := range nodes {
		inDegree[name] = 0
	}
	for _, e := range edges {
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		sort.Strings(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited == len(nodes) {
		return levels, nil
	}

	var cyclic []string
	for name, deg := range inDegree {
		if deg > 0 {
			cyclic = append(cyclic, name)
		}
	}
	sort.Strings(cyclic)
	return nil, cyclic
}

// ref is a parsed stream reference.
type ref struct {
	node  string
	index int
}

func (r ref) String() string { return fmt.Sprintf("%s.%d", r.node, r.index) }
