package layout

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/npratt/finroad/internal/journey"
)

// FindCycles returns every group of nodes that depend on each other in a
// loop: strongly connected components with more than one node, plus nodes
// that list themselves as a dependency. Ids within a cycle are sorted and
// cycles are ordered by their first id.
func FindCycles(nodes []journey.Node) [][]string {
	g := simple.NewDirectedGraph()
	idToNode := make(map[string]int64, len(nodes))
	nodeToID := make(map[int64]string, len(nodes))

	for _, n := range nodes {
		if _, ok := idToNode[n.ID]; ok {
			continue
		}
		gn := g.NewNode()
		g.AddNode(gn)
		idToNode[n.ID] = gn.ID()
		nodeToID[gn.ID()] = n.ID
	}

	var cycles [][]string
	selfLoops := make(map[string]bool)

	// Node u depends on v: edge u -> v.
	for _, n := range nodes {
		u := idToNode[n.ID]
		for _, dep := range n.Dependencies {
			if dep == n.ID {
				// simple graphs reject self edges
				if !selfLoops[dep] {
					selfLoops[dep] = true
					cycles = append(cycles, []string{dep})
				}
				continue
			}
			v, ok := idToNode[dep]
			if !ok {
				continue
			}
			g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
		}
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]string, 0, len(scc))
		for _, n := range scc {
			ids = append(ids, nodeToID[n.ID()])
		}
		slices.Sort(ids)
		cycles = append(cycles, ids)
	}

	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles
}
