// Package layout assigns graph coordinates to journey nodes: dependency
// levels, columns within a level, centred auto positions, and the Bézier
// routes that connect node cards.
package layout

import (
	"math"

	"github.com/npratt/finroad/internal/journey"
)

// Layout constants in graph units.
const (
	HSpacing   = 500
	VSpacing   = 280
	NodeWidth  = 450
	NodeHeight = 140
)

// Levels maps node id to its topological depth.
type Levels map[string]int

// BackEdge is a dependency that closed a cycle and was cut during leveling.
type BackEdge struct {
	From string // node being leveled
	To   string // dependency that was still in progress
}

// ComputeLevels returns the dependency depth of every node. A node without
// dependencies is at level 0, otherwise at 1 + the deepest dependency.
// Unknown dependency ids count as level 0. Cycles are cut, see
// ComputeLevelsWithDiagnostics.
func ComputeLevels(nodes []journey.Node) Levels {
	levels, _ := ComputeLevelsWithDiagnostics(nodes)
	return levels
}

// ComputeLevelsWithDiagnostics is ComputeLevels that also reports every
// dependency edge cut to break a cycle. A node revisited while its own level
// is still being computed contributes level 0.
func ComputeLevelsWithDiagnostics(nodes []journey.Node) (Levels, []BackEdge) {
	byID := make(map[string]*journey.Node, len(nodes))
	for i := range nodes {
		if _, ok := byID[nodes[i].ID]; !ok {
			byID[nodes[i].ID] = &nodes[i]
		}
	}

	memo := make(Levels, len(nodes))
	inProgress := make(map[string]bool)
	var cut []BackEdge

	var dfs func(id string) int
	dfs = func(id string) int {
		if lvl, ok := memo[id]; ok {
			return lvl
		}
		n := byID[id]
		if n == nil {
			return 0
		}
		if len(n.Dependencies) == 0 {
			memo[id] = 0
			return 0
		}

		inProgress[id] = true
		deepest := 0
		for _, dep := range n.Dependencies {
			if inProgress[dep] {
				cut = append(cut, BackEdge{From: id, To: dep})
				continue
			}
			deepest = max(deepest, dfs(dep))
		}
		delete(inProgress, id)

		lvl := 1 + deepest
		memo[id] = lvl
		return lvl
	}

	for i := range nodes {
		dfs(nodes[i].ID)
	}
	return memo, cut
}

// AssignColumns gives every node its index within its level, in node-list
// order. No attempt is made to reduce edge crossings.
func AssignColumns(levels Levels, nodes []journey.Node) map[string]int {
	next := make(map[int]int)
	columns := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if _, ok := columns[n.ID]; ok {
			continue
		}
		l := levels[n.ID]
		columns[n.ID] = next[l]
		next[l]++
	}
	return columns
}

// LevelCounts returns how many nodes sit at each level.
func LevelCounts(levels Levels, nodes []journey.Node) map[int]int {
	counts := make(map[int]int)
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		counts[levels[n.ID]]++
	}
	return counts
}

// AutoPosition places a node at column c of level l, where count nodes share
// the level. Levels are centred horizontally around x=0.
func AutoPosition(l, c, count int) journey.Point {
	return journey.Point{
		X: journey.Round((float64(c) - float64(count-1)/2) * HSpacing),
		Y: journey.Round(float64(l) * VSpacing),
	}
}

// AutoPositions computes the algorithmic position of every node, ignoring
// any explicit positions.
func AutoPositions(nodes []journey.Node) map[string]journey.Point {
	levels := ComputeLevels(nodes)
	columns := AssignColumns(levels, nodes)
	counts := LevelCounts(levels, nodes)

	pos := make(map[string]journey.Point, len(nodes))
	for _, n := range nodes {
		l := levels[n.ID]
		pos[n.ID] = AutoPosition(l, columns[n.ID], counts[l])
	}
	return pos
}

// Layout is the resolved placement of a journey's nodes.
type Layout struct {
	Levels    Levels
	Columns   map[string]int
	Positions map[string]journey.Point // effective positions
	Order     []string                 // node ids in document order
	Cut       []BackEdge               // dependency edges cut to break cycles
	draggable map[string]bool
}

// Resolve computes the effective position of every node: an explicit
// position is used verbatim and marks the node draggable, anything else gets
// its auto position.
func Resolve(nodes []journey.Node) *Layout {
	levels, cut := ComputeLevelsWithDiagnostics(nodes)
	columns := AssignColumns(levels, nodes)
	counts := LevelCounts(levels, nodes)

	l := &Layout{
		Levels:    levels,
		Columns:   columns,
		Positions: make(map[string]journey.Point, len(nodes)),
		Cut:       cut,
		draggable: make(map[string]bool),
	}
	for _, n := range nodes {
		if _, ok := l.Positions[n.ID]; ok {
			continue
		}
		l.Order = append(l.Order, n.ID)
		if n.Position != nil {
			l.Positions[n.ID] = *n.Position
			l.draggable[n.ID] = true
			continue
		}
		lvl := levels[n.ID]
		l.Positions[n.ID] = AutoPosition(lvl, columns[n.ID], counts[lvl])
	}
	return l
}

// Draggable reports whether the node was placed by the user.
func (l *Layout) Draggable(id string) bool {
	return l.draggable[id]
}

// Position returns the effective position of a node.
func (l *Layout) Position(id string) (journey.Point, bool) {
	p, ok := l.Positions[id]
	return p, ok
}

// Rect is an axis-aligned box in graph space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the box width.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the box height.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Empty reports whether the box encloses nothing.
func (r Rect) Empty() bool { return r == Rect{} }

// Bounds returns the graph's bounding box padded by card dimensions:
// x from min(x)-W/2 to max(x)+W/2, y from 0 to max(y)+H.
func (l *Layout) Bounds() Rect {
	if len(l.Positions) == 0 {
		return Rect{}
	}
	r := Rect{MinX: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range l.Positions {
		r.MinX = math.Min(r.MinX, p.X-NodeWidth/2)
		r.MaxX = math.Max(r.MaxX, p.X+NodeWidth/2)
		r.MaxY = math.Max(r.MaxY, p.Y+NodeHeight)
	}
	return r
}

// MaxLevel returns the deepest level in the layout, or -1 when empty.
func (l *Layout) MaxLevel() int {
	deepest := -1
	for _, lvl := range l.Levels {
		deepest = max(deepest, lvl)
	}
	return deepest
}
