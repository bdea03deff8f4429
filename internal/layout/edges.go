package layout

import (
	"fmt"
	"strconv"

	"github.com/npratt/finroad/internal/journey"
)

// Bezier is a cubic curve from Start to End with control points C1 and C2.
type Bezier struct {
	Start, C1, C2, End journey.Point
}

// EdgePath routes an edge from the card at s to the card at t: it leaves the
// bottom of the source card, enters the top of the target card, and bends
// symmetrically at both ends.
func EdgePath(s, t journey.Point) Bezier {
	start := journey.Point{X: s.X + NodeWidth/2, Y: s.Y + NodeHeight - 20}
	end := journey.Point{X: t.X + NodeWidth/2, Y: t.Y + 20}
	off := 0.35*(end.Y-start.Y) + 60
	return Bezier{
		Start: start,
		C1:    journey.Point{X: start.X, Y: start.Y + off},
		C2:    journey.Point{X: end.X, Y: end.Y - off},
		End:   end,
	}
}

// SVGPath renders the curve as an SVG path "d" attribute.
func (b Bezier) SVGPath() string {
	return fmt.Sprintf("M %s,%s C %s,%s %s,%s %s,%s",
		num(b.Start.X), num(b.Start.Y),
		num(b.C1.X), num(b.C1.Y),
		num(b.C2.X), num(b.C2.Y),
		num(b.End.X), num(b.End.Y))
}

// At evaluates the curve at t in [0, 1].
func (b Bezier) At(t float64) journey.Point {
	u := 1 - t
	a := u * u * u
	c1 := 3 * u * u * t
	c2 := 3 * u * t * t
	d := t * t * t
	return journey.Point{
		X: a*b.Start.X + c1*b.C1.X + c2*b.C2.X + d*b.End.X,
		Y: a*b.Start.Y + c1*b.C1.Y + c2*b.C2.Y + d*b.End.Y,
	}
}

// Sample returns n+1 evenly spaced points along the curve, endpoints included.
func (b Bezier) Sample(n int) []journey.Point {
	if n < 1 {
		n = 1
	}
	pts := make([]journey.Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = b.At(float64(i) / float64(n))
	}
	return pts
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// EdgeRoute is a connection with its resolved curve.
type EdgeRoute struct {
	Connection journey.Connection
	Path       Bezier
	Active     bool // source node is not locked
}

// Edges routes every connection whose endpoints both exist in the layout.
func Edges(j *journey.Journey, l *Layout) []EdgeRoute {
	idx := j.Index()
	routes := make([]EdgeRoute, 0, len(j.Connections))
	for _, c := range j.Connections {
		s, ok := l.Position(c.From)
		if !ok {
			continue
		}
		t, ok := l.Position(c.To)
		if !ok {
			continue
		}
		active := false
		if src := idx[c.From]; src != nil {
			active = src.Status.OrLocked() != journey.StatusLocked
		}
		routes = append(routes, EdgeRoute{
			Connection: c,
			Path:       EdgePath(s, t),
			Active:     active,
		})
	}
	return routes
}
