// Package export renders static snapshots of a roadmap as SVG or PNG.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/layout"
	"github.com/npratt/finroad/internal/suggest"
)

// Format is a snapshot image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrUnknownFormat is returned for formats other than svg and png.
var ErrUnknownFormat = errors.New("export: unknown format")

// ParseFormat accepts "svg" or "png" in any case, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w %q (want svg or png)", ErrUnknownFormat, s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Options controls what a snapshot shows.
type Options struct {
	Title     string // header text; defaults to the journey title
	Highlight string // node to outline; defaults to the suggested node
}

const (
	padding      = 40.0
	headerHeight = 90.0
	cardRadius   = 14.0
	titleRunes   = 40
)

type card struct {
	ID       string
	Title    string
	Status   journey.Status
	Percent  float64
	Priority journey.Priority
	X, Y     float64
	Lit      bool
}

type edge struct {
	Path   layout.Bezier
	Active bool
}

type scene struct {
	Title   string
	Overall float64
	Width   int
	Height  int
	Cards   []card
	Edges   []edge
	palette palette
}

type palette struct {
	primary, accent, bg color.RGBA
}

// build places every card in image space: graph coordinates are shifted so
// the leftmost card sits at the padding and the topmost below the header.
func build(j *journey.Journey, opts Options) scene {
	l := layout.Resolve(j.Nodes)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range l.Positions {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X+layout.NodeWidth)
		maxY = math.Max(maxY, p.Y+layout.NodeHeight)
	}
	if len(l.Positions) == 0 {
		minX, minY, maxX, maxY = 0, 0, layout.NodeWidth, 0
	}
	dx := padding - minX
	dy := padding + headerHeight - minY
	shift := func(p journey.Point) journey.Point {
		return journey.Point{X: p.X + dx, Y: p.Y + dy}
	}

	highlight := opts.Highlight
	if highlight == "" {
		highlight = suggest.Build(j).ChosenNodeID
	}
	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = j.Title
	}

	primary, accent, bg := j.Theme.Palette()
	s := scene{
		Title:   title,
		Overall: j.OverallPercent(),
		Width:   int(math.Ceil(maxX - minX + 2*padding)),
		Height:  int(math.Ceil(maxY - minY + 2*padding + headerHeight)),
		palette: palette{
			primary: parseHex(primary, color.RGBA{0x10, 0xb9, 0x81, 0xff}),
			accent:  parseHex(accent, color.RGBA{0xf5, 0x9e, 0x0b, 0xff}),
			bg:      parseHex(bg, color.RGBA{0xf8, 0xfa, 0xfc, 0xff}),
		},
	}

	for _, r := range layout.Edges(j, l) {
		p := r.Path
		s.Edges = append(s.Edges, edge{
			Path:   layout.Bezier{Start: shift(p.Start), C1: shift(p.C1), C2: shift(p.C2), End: shift(p.End)},
			Active: r.Active,
		})
	}
	for _, id := range l.Order {
		n := j.Node(id)
		pos, _ := l.Position(id)
		pos = shift(pos)
		s.Cards = append(s.Cards, card{
			ID:       id,
			Title:    truncate(n.Title, titleRunes),
			Status:   n.Status.OrLocked(),
			Percent:  n.Percent(),
			Priority: n.Priority,
			X:        pos.X,
			Y:        pos.Y,
			Lit:      id == highlight,
		})
	}
	return s
}

var (
	colorLocked   = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	colorUnlocked = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorStroke   = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
	colorText     = color.RGBA{0x0f, 0x17, 0x2a, 0xff}
	colorSubtle   = color.RGBA{0x64, 0x74, 0x8b, 0xff}
	colorEdgeOff  = color.RGBA{0xcb, 0xd5, 0xe1, 0xff}
)

func (s scene) fill(st journey.Status) color.RGBA {
	switch st {
	case journey.StatusCompleted:
		return tint(s.palette.primary, 0.25)
	case journey.StatusInProgress:
		return tint(s.palette.accent, 0.25)
	case journey.StatusUnlocked:
		return colorUnlocked
	default:
		return colorLocked
	}
}

func (s scene) edgeColor(active bool) color.RGBA {
	if active {
		return s.palette.primary
	}
	return colorEdgeOff
}

func (c card) lines() (title, detail string) {
	detail = fmt.Sprintf("%s  %s", c.Status, suggest.ProgressLabel(c.Percent))
	if c.Priority != "" {
		detail += "  " + string(c.Priority)
	}
	return c.Title, detail
}

func (s scene) header() (title, detail string) {
	return s.Title, fmt.Sprintf("overall %s  nodes: %d", suggest.ProgressLabel(s.Overall), len(s.Cards))
}

// SVG writes an SVG snapshot of the journey.
func SVG(w io.Writer, j *journey.Journey, opts Options) error {
	s := build(j, opts)

	canvas := svg.New(w)
	canvas.Start(s.Width, s.Height)
	canvas.Rect(0, 0, s.Width, s.Height, "fill:"+css(s.palette.bg))

	title, detail := s.header()
	canvas.Text(int(padding), 44, title, fmt.Sprintf("fill:%s;font-size:20px;font-family:sans-serif;font-weight:bold", css(colorText)))
	canvas.Text(int(padding), 70, detail, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))

	for _, e := range s.Edges {
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:3", css(s.edgeColor(e.Active)))
		if !e.Active {
			style += ";stroke-dasharray:8,8"
		}
		canvas.Path(e.Path.SVGPath(), style)
	}

	for _, c := range s.Cards {
		stroke, width := colorStroke, 1.5
		if c.Lit {
			stroke, width = s.palette.accent, 4
		}
		x, y := int(c.X), int(c.Y)
		canvas.Roundrect(x, y, int(layout.NodeWidth), int(layout.NodeHeight), int(cardRadius), int(cardRadius),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s", css(s.fill(c.Status)), css(stroke), strconv.FormatFloat(width, 'f', -1, 64)))
		title, detail := c.lines()
		canvas.Text(x+20, y+40, title, fmt.Sprintf("fill:%s;font-size:18px;font-family:sans-serif;font-weight:bold", css(colorText)))
		canvas.Text(x+20, y+72, detail, fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace", css(colorSubtle)))
		drawBarSVG(canvas, x+20, y+100, int(layout.NodeWidth)-40, c.Percent, s.palette.primary)
	}

	canvas.End()
	return nil
}

func drawBarSVG(canvas *svg.SVG, x, y, w int, percent float64, fill color.RGBA) {
	canvas.Roundrect(x, y, w, 10, 5, 5, "fill:"+css(colorLocked))
	if filled := int(float64(w) * journey.Clamp(percent, 0, 100) / 100); filled > 0 {
		canvas.Roundrect(x, y, filled, 10, 5, 5, "fill:"+css(fill))
	}
}

// PNG writes a PNG snapshot of the journey.
func PNG(w io.Writer, j *journey.Journey, opts Options) error {
	s := build(j, opts)

	dc := gg.NewContext(s.Width, s.Height)
	dc.SetColor(s.palette.bg)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	title, detail := s.header()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, padding, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(detail, padding, 64, 0, 0.5)

	dc.SetLineWidth(3)
	for _, e := range s.Edges {
		p := e.Path
		dc.SetColor(s.edgeColor(e.Active))
		if e.Active {
			dc.SetDash()
		} else {
			dc.SetDash(8, 8)
		}
		dc.MoveTo(p.Start.X, p.Start.Y)
		dc.CubicTo(p.C1.X, p.C1.Y, p.C2.X, p.C2.Y, p.End.X, p.End.Y)
		dc.Stroke()
	}
	dc.SetDash()

	for _, c := range s.Cards {
		drawCard(dc, s, c)
	}

	return dc.EncodePNG(w)
}

func drawCard(dc *gg.Context, s scene, c card) {
	dc.SetColor(s.fill(c.Status))
	dc.DrawRoundedRectangle(c.X, c.Y, layout.NodeWidth, layout.NodeHeight, cardRadius)
	dc.Fill()

	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.5)
	if c.Lit {
		dc.SetColor(s.palette.accent)
		dc.SetLineWidth(4)
	}
	dc.DrawRoundedRectangle(c.X, c.Y, layout.NodeWidth, layout.NodeHeight, cardRadius)
	dc.Stroke()

	title, detail := c.lines()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, c.X+20, c.Y+36, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(detail, c.X+20, c.Y+68, 0, 0.5)

	barW := float64(layout.NodeWidth - 40)
	dc.SetColor(colorLocked)
	dc.DrawRoundedRectangle(c.X+20, c.Y+100, barW, 10, 5)
	dc.Fill()
	if filled := barW * journey.Clamp(c.Percent, 0, 100) / 100; filled > 0 {
		dc.SetColor(s.palette.primary)
		dc.DrawRoundedRectangle(c.X+20, c.Y+100, filled, 10, 5)
		dc.Fill()
	}
}

// Write renders the journey in the given format.
func Write(w io.Writer, j *journey.Journey, f Format, opts Options) error {
	switch f {
	case FormatSVG:
		return SVG(w, j, opts)
	case FormatPNG:
		return PNG(w, j, opts)
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, f)
}

// Save writes a snapshot to path, inferring the format from the extension.
func Save(path string, j *journey.Journey, opts Options) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(file, j, f, opts); err != nil {
		_ = file.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return file.Close()
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// parseHex reads #rgb or #rrggbb, returning fallback for anything else.
func parseHex(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

// tint mixes c toward white, keeping share of the original color.
func tint(c color.RGBA, share float64) color.RGBA {
	mix := func(v uint8) uint8 {
		return uint8(math.Round(float64(v)*share + 255*(1-share)))
	}
	return color.RGBA{mix(c.R), mix(c.G), mix(c.B), 0xff}
}
