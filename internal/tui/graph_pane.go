package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/suggest"
	"github.com/npratt/finroad/internal/viewport"
)

// Keyboard pan distance in cells.
const (
	panCols = 4
	panRows = 2

	// sliderStep is the percent moved by one [ or ] press.
	sliderStep = 5
)

// mousePointerID identifies the single mouse pointer to the controller.
const mousePointerID = 1

// RoadmapPane renders the roadmap canvas and turns keys and mouse input into
// view and roadmap changes.
type RoadmapPane struct {
	roadmap  *session.Roadmap
	view     *viewport.Controller
	selected string
	width    int
	height   int
	focused  bool
}

// NewRoadmapPane creates a pane over r with the given zoom limits.
func NewRoadmapPane(r *session.Roadmap, limits viewport.Limits) RoadmapPane {
	l := r.Layout()
	view := viewport.New(
		viewport.WithLimits(limits),
		viewport.WithPositionWriter(r),
		viewport.WithGraph(l),
	)
	view.SetBounds(l.Bounds())

	p := RoadmapPane{
		roadmap: r,
		view:    view,
		focused: true,
	}
	p.selected = p.defaultSelection()
	return p
}

func (p RoadmapPane) defaultSelection() string {
	if s := p.roadmap.Suggestion(); s.Chosen() {
		return s.ChosenNodeID
	}
	if order := p.roadmap.Layout().Order; len(order) > 0 {
		return order[0]
	}
	return ""
}

// Refresh picks up a new roadmap snapshot after a change.
func (p *RoadmapPane) Refresh() {
	l := p.roadmap.Layout()
	p.view.SetGraph(l)
	p.view.SetBounds(l.Bounds())
	if p.roadmap.Journey().Node(p.selected) == nil {
		p.selected = p.defaultSelection()
	}
}

// handleKey processes keyboard input. The returned notice describes what
// happened, if anything worth reporting.
func (p RoadmapPane) handleKey(msg tea.KeyMsg) (RoadmapPane, string) {
	dx, dy := panCols/cellsPerUnitX, panRows/cellsPerUnitY

	switch msg.String() {
	case "left", "h":
		p.view.PanBy(dx, 0)
	case "right", "l":
		p.view.PanBy(-dx, 0)
	case "up", "k":
		p.view.PanBy(0, dy)
	case "down", "j":
		p.view.PanBy(0, -dy)
	case "+", "=":
		p.view.ZoomIn()
	case "-", "_":
		p.view.ZoomOut()
	case "0":
		p.view.Reset()
	case "tab":
		p.cycleSelection(1)
	case "shift+tab":
		p.cycleSelection(-1)
	case "enter":
		return p, p.applyStep(0)
	case "1", "2", "3":
		return p, p.applyStep(int(msg.String()[0] - '1'))
	case "[":
		return p, p.moveSlider(-sliderStep)
	case "]":
		return p, p.moveSlider(sliderStep)
	}
	return p, ""
}

// cycleSelection moves the selection through the nodes in document order.
func (p *RoadmapPane) cycleSelection(dir int) {
	order := p.roadmap.Layout().Order
	if len(order) == 0 {
		return
	}
	i := slices.Index(order, p.selected)
	if i < 0 {
		p.selected = order[0]
		return
	}
	p.selected = order[(i+dir+len(order))%len(order)]
}

// applyStep applies the i-th suggested step of the selected node.
func (p *RoadmapPane) applyStep(i int) string {
	n := p.roadmap.Journey().Node(p.selected)
	if n == nil {
		return ""
	}
	steps := suggest.Steps(n)
	if i >= len(steps) {
		return fmt.Sprintf("no step %d for %s", i+1, n.Title)
	}
	if !p.roadmap.Apply(steps[i].Action(n.ID)) {
		return ""
	}
	return fmt.Sprintf("applied %s to %s", steps[i].Label, n.Title)
}

// moveSlider shifts the selected node's percent by delta.
func (p *RoadmapPane) moveSlider(delta float64) string {
	n := p.roadmap.Journey().Node(p.selected)
	if n == nil {
		return ""
	}
	next := journey.Clamp(n.Percent()+delta, 0, 100)
	if !p.roadmap.SetPercent(n.ID, next) {
		return ""
	}
	return fmt.Sprintf("%s set to %s", n.Title, suggest.ProgressLabel(next))
}

// handleMouse processes a mouse event at cell (x, y) relative to the
// canvas origin.
func (p RoadmapPane) handleMouse(x, y int, msg tea.MouseMsg) RoadmapPane {
	pt := fromCell(x, y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		delta := -1.0
		if msg.Button == tea.MouseButtonWheelDown {
			delta = 1
		}
		p.view.Wheel(viewport.WheelEvent{X: pt.X, Y: pt.Y, DeltaY: delta, Ctrl: msg.Ctrl})

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		// Layout-placed cards select and then pan like the canvas beneath.
		target := viewport.Target{Kind: viewport.Canvas}
		if id := hitTest(cardRects(p.roadmap.Layout(), p.view), x, y); id != "" {
			p.selected = id
			if p.roadmap.Layout().Draggable(id) {
				target = viewport.Target{Kind: viewport.NodeCard, NodeID: id}
			}
		}
		p.view.PointerDown(p.pointer(pt, target))

	case msg.Action == tea.MouseActionMotion:
		p.view.PointerMove(p.pointer(pt, viewport.Target{}))

	case msg.Action == tea.MouseActionRelease:
		p.view.PointerUp(p.pointer(pt, viewport.Target{}))
	}
	return p
}

func (p RoadmapPane) pointer(pt journey.Point, target viewport.Target) viewport.PointerEvent {
	return viewport.PointerEvent{
		ID:     mousePointerID,
		Kind:   viewport.Mouse,
		X:      pt.X,
		Y:      pt.Y,
		Target: target,
	}
}

// View renders the canvas.
func (p RoadmapPane) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}
	return canvas{
		journey:   p.roadmap.Journey(),
		layout:    p.roadmap.Layout(),
		view:      p.view,
		selected:  p.selected,
		suggested: p.roadmap.Suggestion().ChosenNodeID,
	}.Render(p.width, p.height)
}

// SetSize updates the pane dimensions.
func (p *RoadmapPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.view.Resize(canvasSize(width, height))
}

// SetFocused updates the focus state.
func (p *RoadmapPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsFocused returns true if the pane is focused.
func (p RoadmapPane) IsFocused() bool {
	return p.focused
}

// Selected returns the selected node id.
func (p RoadmapPane) Selected() string {
	return p.selected
}

// Select selects a node by id. Unknown ids are ignored.
func (p *RoadmapPane) Select(id string) {
	if p.roadmap.Journey().Node(id) != nil {
		p.selected = id
	}
}

// Zoom returns the current zoom scale.
func (p RoadmapPane) Zoom() float64 {
	return p.view.Scale()
}

// Mode returns the active gesture.
func (p RoadmapPane) Mode() viewport.Mode {
	return p.view.Mode()
}
