// Package viewport implements the pan, zoom and node-drag state machine of
// the roadmap canvas. Screen coordinates relate to graph coordinates by
// screen = pan + graph*scale.
package viewport

import (
	"math"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/layout"
)

// Default zoom limits.
const (
	MinScale = 0.6
	MaxScale = 2.2
	ZoomStep = 0.1
)

// Padding of the fallback pan used before the container size is known.
const (
	fallbackPadX = 80
	fallbackPadY = 60
)

// Mode is the controller's current gesture.
type Mode int

const (
	Idle Mode = iota
	Panning
	Dragging
	Pinching
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case Dragging:
		return "dragging"
	case Pinching:
		return "pinching"
	default:
		return "unknown"
	}
}

// PointerKind is the input device behind a pointer event.
type PointerKind int

const (
	Mouse PointerKind = iota
	Touch
	Pen
)

// TargetKind classifies what a pointer went down on.
type TargetKind int

const (
	Canvas TargetKind = iota
	NodeCard
	// Interactive targets (buttons, links, inputs, opt-out markers) handle
	// their own input; the controller ignores them.
	Interactive
)

// Target is the element under a pointer.
type Target struct {
	Kind   TargetKind
	NodeID string // set for NodeCard
}

// PointerEvent is a pointer down, move, up or cancel in screen coordinates.
type PointerEvent struct {
	ID     int
	Kind   PointerKind
	Button int // 0 is the primary mouse button
	X, Y   float64
	Target Target
}

func (e PointerEvent) point() journey.Point {
	return journey.Point{X: e.X, Y: e.Y}
}

func (e PointerEvent) primary() bool {
	return e.Kind != Mouse || e.Button == 0
}

// WheelEvent is a wheel or trackpad scroll at a screen point.
type WheelEvent struct {
	X, Y   float64
	DeltaY float64
	Ctrl   bool
	Meta   bool
}

// PositionWriter receives positions of dragged nodes.
type PositionWriter interface {
	SetNodePosition(id string, p journey.Point)
}

// Graph answers which nodes can be dragged and where they are.
// *layout.Layout implements it.
type Graph interface {
	Draggable(id string) bool
	Position(id string) (journey.Point, bool)
}

// Limits bounds the zoom scale and sets the button zoom step.
type Limits struct {
	MinScale float64
	MaxScale float64
	ZoomStep float64
}

// DefaultLimits returns the standard zoom limits.
func DefaultLimits() Limits {
	return Limits{MinScale: MinScale, MaxScale: MaxScale, ZoomStep: ZoomStep}
}

type touch struct {
	id  int
	pos journey.Point
}

// Controller holds the view transform and the active gesture. It is driven
// from a single event loop and is not safe for concurrent use.
type Controller struct {
	limits Limits
	writer PositionWriter
	graph  Graph

	pan       journey.Point
	scale     float64
	mode      Mode
	width     float64
	height    float64
	bounds    layout.Rect
	userMoved bool

	// pan and drag gesture
	pointerID int
	start     journey.Point
	panStart  journey.Point
	dragNode  string
	nodeStart journey.Point

	// pinch gesture
	touch1, touch2  *touch
	pinchStartScale float64
	pinchStartDist  float64
	pinchMid        journey.Point
}

// Option configures a Controller.
type Option func(*Controller)

// WithLimits overrides the zoom limits.
func WithLimits(l Limits) Option {
	return func(c *Controller) {
		c.limits = l
	}
}

// WithPositionWriter sets where dragged node positions are written.
func WithPositionWriter(w PositionWriter) Option {
	return func(c *Controller) {
		c.writer = w
	}
}

// WithGraph sets the node lookup used to start drags.
func WithGraph(g Graph) Option {
	return func(c *Controller) {
		c.graph = g
	}
}

// New creates a Controller at scale 1.
func New(opts ...Option) *Controller {
	c := &Controller{
		limits: DefaultLimits(),
		scale:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.recenter()
	return c
}

// Pan returns the current pan offset.
func (c *Controller) Pan() journey.Point { return c.pan }

// Scale returns the current zoom scale.
func (c *Controller) Scale() float64 { return c.scale }

// Mode returns the active gesture.
func (c *Controller) Mode() Mode { return c.mode }

// UserMoved reports whether the user has interacted since the last reset.
func (c *Controller) UserMoved() bool { return c.userMoved }

// DraggingNode returns the id of the node being dragged, if any.
func (c *Controller) DraggingNode() string {
	if c.mode != Dragging {
		return ""
	}
	return c.dragNode
}

// SetGraph replaces the node lookup, typically after a relayout.
func (c *Controller) SetGraph(g Graph) {
	c.graph = g
}

// SetBounds sets the graph bounding box and recentres unless the user has
// moved the view.
func (c *Controller) SetBounds(r layout.Rect) {
	c.bounds = r
	if !c.userMoved {
		c.recenter()
	}
}

// Resize sets the container size and recentres unless the user has moved
// the view.
func (c *Controller) Resize(width, height float64) {
	c.width, c.height = width, height
	if !c.userMoved {
		c.recenter()
	}
}

// Center returns the pan that centres the graph bounds in the container at
// the given scale. Before the container size is known it returns a pan that
// puts the left edge of the graph near the origin.
func (c *Controller) Center(scale float64) journey.Point {
	if c.width <= 0 || c.height <= 0 {
		return journey.Point{X: -c.bounds.MinX + fallbackPadX, Y: fallbackPadY}
	}
	midX := (c.bounds.MinX + c.bounds.MaxX) / 2
	midY := c.bounds.MaxY / 2
	return journey.Point{
		X: c.width/2 - midX*scale,
		Y: c.height/2 - midY*scale,
	}
}

func (c *Controller) recenter() {
	c.pan = c.Center(c.scale)
}

// Reset returns to scale 1, recentres and forgets user interaction.
func (c *Controller) Reset() {
	c.scale = 1
	c.mode = Idle
	c.touch1, c.touch2 = nil, nil
	c.userMoved = false
	c.recenter()
}

// ClampScale limits s to the configured zoom range.
func (c *Controller) ClampScale(s float64) float64 {
	return journey.Clamp(s, c.limits.MinScale, c.limits.MaxScale)
}

// ZoomAt multiplies the scale by factor, clamped, keeping the graph point
// under screen point (px, py) fixed. It reports whether the scale changed.
func (c *Controller) ZoomAt(px, py, factor float64) bool {
	next := c.ClampScale(c.scale * factor)
	if next == c.scale {
		return false
	}
	gx := (px - c.pan.X) / c.scale
	gy := (py - c.pan.Y) / c.scale
	c.pan = journey.Point{X: px - gx*next, Y: py - gy*next}
	c.scale = next
	return true
}

// ZoomIn adds one zoom step around the container centre.
func (c *Controller) ZoomIn() bool {
	return c.zoomBy(c.limits.ZoomStep)
}

// ZoomOut removes one zoom step around the container centre.
func (c *Controller) ZoomOut() bool {
	return c.zoomBy(-c.limits.ZoomStep)
}

func (c *Controller) zoomBy(step float64) bool {
	c.userMoved = true
	next := c.ClampScale(c.scale + step)
	return c.ZoomAt(c.width/2, c.height/2, next/c.scale)
}

// PanBy shifts the view by a screen-space delta.
func (c *Controller) PanBy(dx, dy float64) {
	c.userMoved = true
	c.pan.X += dx
	c.pan.Y += dy
}

// ToScreen maps a graph point to screen space.
func (c *Controller) ToScreen(g journey.Point) journey.Point {
	return journey.Point{X: c.pan.X + g.X*c.scale, Y: c.pan.Y + g.Y*c.scale}
}

// ToGraph maps a screen point to graph space.
func (c *Controller) ToGraph(s journey.Point) journey.Point {
	return journey.Point{X: (s.X - c.pan.X) / c.scale, Y: (s.Y - c.pan.Y) / c.scale}
}

// PointerDown starts a gesture. It reports whether the controller took the
// event; interactive targets and secondary mouse buttons are left alone.
func (c *Controller) PointerDown(e PointerEvent) bool {
	if e.Target.Kind == Interactive || !e.primary() {
		return false
	}

	// second touch turns the gesture into a pinch
	if e.Kind == Touch && c.touch1 != nil && c.touch2 == nil && c.mode != Dragging {
		c.touch2 = &touch{id: e.ID, pos: e.point()}
		c.mode = Pinching
		c.pinchStartScale = c.scale
		c.pinchStartDist = distance(c.touch1.pos, c.touch2.pos)
		c.pinchMid = midpoint(c.touch1.pos, c.touch2.pos)
		c.userMoved = true
		return true
	}

	if c.mode != Idle {
		return false
	}

	if e.Target.Kind == NodeCard && c.graph != nil && c.graph.Draggable(e.Target.NodeID) {
		pos, ok := c.graph.Position(e.Target.NodeID)
		if ok {
			c.mode = Dragging
			c.pointerID = e.ID
			c.start = e.point()
			c.dragNode = e.Target.NodeID
			c.nodeStart = pos
			c.userMoved = true
			return true
		}
	}

	c.mode = Panning
	c.pointerID = e.ID
	c.start = e.point()
	c.panStart = c.pan
	if e.Kind == Touch {
		c.touch1 = &touch{id: e.ID, pos: e.point()}
	}
	c.userMoved = true
	return true
}

// PointerMove advances the active gesture. It reports whether the view or a
// node position changed.
func (c *Controller) PointerMove(e PointerEvent) bool {
	c.trackTouch(e)

	switch c.mode {
	case Pinching:
		if c.touch1 == nil || c.touch2 == nil || c.pinchStartDist == 0 {
			return false
		}
		next := c.ClampScale(c.pinchStartScale * distance(c.touch1.pos, c.touch2.pos) / c.pinchStartDist)
		return c.ZoomAt(c.pinchMid.X, c.pinchMid.Y, next/c.scale)

	case Panning:
		if e.ID != c.pointerID {
			return false
		}
		c.pan = journey.Point{
			X: c.panStart.X + (e.X-c.start.X)/c.scale,
			Y: c.panStart.Y + (e.Y-c.start.Y)/c.scale,
		}
		return true

	case Dragging:
		if e.ID != c.pointerID {
			return false
		}
		p := journey.Point{
			X: journey.Round(c.nodeStart.X + (e.X-c.start.X)/c.scale),
			Y: journey.Round(c.nodeStart.Y + (e.Y-c.start.Y)/c.scale),
		}
		if c.writer != nil {
			c.writer.SetNodePosition(c.dragNode, p)
		}
		return true
	}
	return false
}

// PointerUp ends the gesture owned by the pointer.
func (c *Controller) PointerUp(e PointerEvent) {
	switch c.mode {
	case Panning, Dragging:
		if e.ID == c.pointerID {
			c.mode = Idle
			c.dragNode = ""
		}
	}

	if c.touch2 != nil && c.touch2.id == e.ID {
		c.touch2 = nil
	}
	if c.touch1 != nil && c.touch1.id == e.ID {
		c.touch1, c.touch2 = c.touch2, nil
	}
	if c.mode == Pinching && (c.touch1 == nil || c.touch2 == nil) {
		c.mode = Idle
	}
}

// PointerCancel aborts the gesture owned by the pointer.
func (c *Controller) PointerCancel(e PointerEvent) {
	c.PointerUp(e)
}

// Wheel zooms at the pointer when Ctrl or Meta is held. Plain scrolling is
// left to the surrounding view.
func (c *Controller) Wheel(e WheelEvent) bool {
	if !e.Ctrl && !e.Meta {
		return false
	}
	c.userMoved = true
	dir := -1.0
	if e.DeltaY > 0 {
		dir = 1
	}
	c.ZoomAt(e.X, e.Y, 1-dir*c.limits.ZoomStep)
	return true
}

func (c *Controller) trackTouch(e PointerEvent) {
	if e.Kind != Touch {
		return
	}
	if c.touch1 != nil && c.touch1.id == e.ID {
		c.touch1.pos = e.point()
	}
	if c.touch2 != nil && c.touch2.id == e.ID {
		c.touch2.pos = e.point()
	}
}

func distance(a, b journey.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func midpoint(a, b journey.Point) journey.Point {
	return journey.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
