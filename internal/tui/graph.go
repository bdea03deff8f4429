package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/layout"
	"github.com/npratt/finroad/internal/suggest"
	"github.com/npratt/finroad/internal/viewport"
)

// Graph units per terminal cell at scale 1. A 450x140 card is roughly
// 22 columns by 4 rows.
const (
	cellsPerUnitX = 1.0 / 20
	cellsPerUnitY = 1.0 / 35

	minCardWidth  = 10
	minCardHeight = 3

	// edgeSamples is the number of segments each Bézier is sampled into.
	edgeSamples = 48
)

// cardRect is a node card in cell coordinates.
type cardRect struct {
	ID   string
	X, Y int
	W, H int
}

func (r cardRect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// toCell maps a controller screen point to a terminal cell.
func toCell(p journey.Point) (int, int) {
	return int(math.Floor(p.X * cellsPerUnitX)), int(math.Floor(p.Y * cellsPerUnitY))
}

// fromCell maps a terminal cell to the controller screen point at its centre.
func fromCell(x, y int) journey.Point {
	return journey.Point{
		X: (float64(x) + 0.5) / cellsPerUnitX,
		Y: (float64(y) + 0.5) / cellsPerUnitY,
	}
}

// canvasSize converts a pane size in cells into controller screen units.
func canvasSize(width, height int) (float64, float64) {
	return float64(width) / cellsPerUnitX, float64(height) / cellsPerUnitY
}

// cardRects returns the card of every node in document order, so later
// cards draw on top of earlier ones.
func cardRects(l *layout.Layout, view *viewport.Controller) []cardRect {
	s := view.Scale()
	w := max(minCardWidth, int(math.Round(layout.NodeWidth*s*cellsPerUnitX)))
	h := max(minCardHeight, int(math.Round(layout.NodeHeight*s*cellsPerUnitY)))

	rects := make([]cardRect, 0, len(l.Order))
	for _, id := range l.Order {
		p, ok := l.Position(id)
		if !ok {
			continue
		}
		x, y := toCell(view.ToScreen(p))
		rects = append(rects, cardRect{ID: id, X: x, Y: y, W: w, H: h})
	}
	return rects
}

// hitTest returns the topmost card under the cell, or "".
func hitTest(rects []cardRect, x, y int) string {
	for i := len(rects) - 1; i >= 0; i-- {
		if rects[i].contains(x, y) {
			return rects[i].ID
		}
	}
	return ""
}

// canvas draws one roadmap snapshot through the view transform.
type canvas struct {
	journey   *journey.Journey
	layout    *layout.Layout
	view      *viewport.Controller
	selected  string
	suggested string
}

// Render draws the roadmap into a width x height character grid.
func (c canvas) Render(width, height int) string {
	width, height = safeWidth(width), safeHeight(height)
	if c.journey == nil || len(c.journey.Nodes) == 0 {
		return renderEmpty(width, height)
	}

	grid := newGrid(width, height)

	// edges first so cards draw on top
	for _, e := range layout.Edges(c.journey, c.layout) {
		c.renderEdge(grid, e)
	}

	idx := c.journey.Index()
	for _, r := range cardRects(c.layout, c.view) {
		if n := idx[r.ID]; n != nil {
			c.renderCard(grid, r, n)
		}
	}
	return grid.String()
}

// renderEmpty renders a placeholder for a journey without nodes.
func renderEmpty(width, height int) string {
	msg := "No steps on this roadmap"
	if width < len(msg) {
		msg = "Empty"
	}
	grid := newGrid(width, height)
	grid.writeString((width-len(msg))/2, height/2, msg, nil)
	return grid.String()
}

func (c canvas) renderEdge(grid *charGrid, e layout.EdgeRoute) {
	r, style := '•', &graphStyles.Edge
	if !e.Active {
		r, style = '·', &graphStyles.EdgeInactive
	}
	for i, p := range e.Path.Sample(edgeSamples) {
		// inactive edges are dashed
		if !e.Active && (i/2)%2 == 1 {
			continue
		}
		x, y := toCell(c.view.ToScreen(p))
		grid.writeRune(x, y, r, style)
	}
}

func (c canvas) renderCard(grid *charGrid, r cardRect, n *journey.Node) {
	if r.X+r.W < 0 || r.X >= grid.width || r.Y+r.H < 0 || r.Y >= grid.height {
		return
	}

	style := cardStyle(n)
	border := lipgloss.RoundedBorder()
	if r.ID == c.suggested {
		style = &graphStyles.NodeSuggested
	}
	if r.ID == c.selected {
		style = &graphStyles.NodeSelected
		border = lipgloss.DoubleBorder()
	}

	// frame
	for x := r.X; x < r.X+r.W; x++ {
		grid.writeString(x, r.Y, border.Top, style)
		grid.writeString(x, r.Y+r.H-1, border.Bottom, style)
	}
	for y := r.Y + 1; y < r.Y+r.H-1; y++ {
		grid.writeString(r.X, y, border.Left, style)
		grid.writeString(r.X+r.W-1, y, border.Right, style)
		for x := r.X + 1; x < r.X+r.W-1; x++ {
			grid.writeRune(x, y, ' ', nil)
		}
	}
	grid.writeString(r.X, r.Y, border.TopLeft, style)
	grid.writeString(r.X+r.W-1, r.Y, border.TopRight, style)
	grid.writeString(r.X, r.Y+r.H-1, border.BottomLeft, style)
	grid.writeString(r.X+r.W-1, r.Y+r.H-1, border.BottomRight, style)

	inner := r.W - 4
	if inner < 1 {
		return
	}
	title := statusIcon(n.Status) + " " + n.Title
	if r.ID == c.suggested {
		title = "» " + title
	}
	grid.writeString(r.X+2, r.Y+1, truncate(title, inner), style)

	if r.H >= 4 {
		info := suggest.ProgressLabel(n.Percent()) + " " + priorityLabel(n.Priority)
		grid.writeString(r.X+2, r.Y+2, truncate(info, inner), style)
	}
}

func cardStyle(n *journey.Node) *lipgloss.Style {
	switch n.Status.OrLocked() {
	case journey.StatusLocked:
		return &graphStyles.NodeLocked
	case journey.StatusCompleted:
		return &graphStyles.NodeCompleted
	default:
		return &graphStyles.Node
	}
}

// charGrid is a 2D character grid for rendering. Each cell may carry a
// style; runs of equally styled cells are rendered together.
type charGrid struct {
	width  int
	height int
	cells  [][]rune
	styles [][]*lipgloss.Style
}

// newGrid creates a new character grid filled with spaces.
func newGrid(width, height int) *charGrid {
	cells := make([][]rune, height)
	styles := make([][]*lipgloss.Style, height)
	for y := range height {
		cells[y] = make([]rune, width)
		styles[y] = make([]*lipgloss.Style, width)
		for x := range width {
			cells[y][x] = ' '
		}
	}
	return &charGrid{
		width:  width,
		height: height,
		cells:  cells,
		styles: styles,
	}
}

// writeRune writes a single rune at the given position.
func (g *charGrid) writeRune(x, y int, r rune, style *lipgloss.Style) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		g.cells[y][x] = r
		g.styles[y][x] = style
	}
}

// writeString writes a string starting at the given position, one rune per
// cell.
func (g *charGrid) writeString(x, y int, s string, style *lipgloss.Style) {
	i := 0
	for _, r := range s {
		g.writeRune(x+i, y, r, style)
		i++
	}
}

// String converts the grid to a string.
func (g *charGrid) String() string {
	lines := make([]string, 0, g.height)
	for y, row := range g.cells {
		var sb strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.styles[y][x] == g.styles[y][start] {
				continue
			}
			run := string(row[start:x])
			if s := g.styles[y][start]; s != nil {
				run = s.Render(run)
			}
			sb.WriteString(run)
			start = x
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}
