package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/shell"
)

// View selects a projection.
type View string

const (
	ViewFront View = "front"
	ViewBack  View = "back"
	ViewLeft  View = "left"
	ViewRight View = "right"
	ViewPlan  View = "plan"
	ViewIso   View = "iso"
)

// Views lists every view in rendering order.
var Views = []View{ViewFront, ViewBack, ViewLeft, ViewRight, ViewPlan, ViewIso}

// ParseView maps a view name to a View.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown view %q (must be one of: front, back, left, right, plan, iso)", s)
}

var (
	activeColor = color.RGBA{R: 70, G: 130, B: 180, A: 255} // steelblue
	carvedColor = color.RGBA{R: 255, G: 140, A: 255}        // orange
)

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	width, height vg.Length
	format        string
	glyph         vg.Length
	title         string
}

// WithSize sets the output size (default 8 × 6 in).
func WithSize(w, h vg.Length) Option {
	return func(r *renderer) { r.width, r.height = w, h }
}

// WithFormat sets the output format (default png).
func WithFormat(f string) Option {
	return func(r *renderer) { r.format = f }
}

// WithGlyphSize sets the marker radius (default 1.5 pt).
func WithGlyphSize(s vg.Length) Option {
	return func(r *renderer) { r.glyph = s }
}

// WithTitle replaces the default title.
func WithTitle(t string) Option {
	return func(r *renderer) { r.title = t }
}

// Render draws one view of bricks and returns the encoded image.
func Render(bricks []shell.Brick, view View, opts ...Option) ([]byte, error) {
	r := renderer{width: 8 * vg.Inch, height: 6 * vg.Inch, format: "png", glyph: vg.Points(1.5)}
	for _, opt := range opts {
		opt(&r)
	}

	p, err := r.plot(bricks, view)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(r.width, r.height, r.format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "render %s", r.format)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.format, err)
	}
	return buf.Bytes(), nil
}

// Plot builds the plot for one view without encoding it.
func Plot(bricks []shell.Brick, view View, opts ...Option) (*plot.Plot, error) {
	r := renderer{glyph: vg.Points(1.5)}
	for _, opt := range opts {
		opt(&r)
	}
	return r.plot(bricks, view)
}

func (r renderer) plot(bricks []shell.Brick, view View) (*plot.Plot, error) {
	active, carved, err := Project(bricks, view)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = r.title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("%s view: %d active, %d carved", view, len(active), len(carved))
	}
	p.X.Label.Text, p.Y.Label.Text = axisLabels(view)
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		pts   plotter.XYs
		shape draw.GlyphDrawer
		color color.Color
	}{
		{"active", active, draw.BoxGlyph{}, activeColor},
		{"carved", carved, draw.CrossGlyph{}, carvedColor},
	}
	for _, s := range series {
		if len(s.pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(s.pts)
		if err != nil {
			return nil, fmt.Errorf("%s series: %w", s.name, err)
		}
		sc.GlyphStyle.Shape = s.shape
		sc.GlyphStyle.Color = s.color
		sc.GlyphStyle.Radius = r.glyph
		p.Add(sc)
		p.Legend.Add(s.name, sc)
	}
	p.Legend.Top = true
	return p, nil
}

func axisLabels(view View) (string, string) {
	switch view {
	case ViewFront, ViewBack:
		return "x (m)", "z (m)"
	case ViewLeft, ViewRight:
		return "y (m)", "z (m)"
	case ViewPlan:
		return "x (m)", "y (m)"
	}
	return "", ""
}

// Project maps the bricks visible in view to plot coordinates, split into
// active and carved points.
func Project(bricks []shell.Brick, view View) (active, carved plotter.XYs, err error) {
	var (
		keep func(shell.Brick) bool
		proj func(shell.Brick) plotter.XY
	)
	region := func(r shell.Region) func(shell.Brick) bool {
		return func(b shell.Brick) bool { return b.Region == r }
	}
	switch view {
	case ViewFront, ViewBack:
		keep = region(shell.Region(view))
		proj = func(b shell.Brick) plotter.XY { return plotter.XY{X: b.X, Y: b.Z} }
	case ViewLeft, ViewRight:
		keep = region(shell.Region(view))
		proj = func(b shell.Brick) plotter.XY { return plotter.XY{X: b.Y, Y: b.Z} }
	case ViewPlan:
		keep = func(b shell.Brick) bool { return b.Region == shell.RegionFloor || (b.Region != shell.RegionRoof && b.Z == 0) }
		proj = func(b shell.Brick) plotter.XY { return plotter.XY{X: b.X, Y: b.Y} }
	case ViewIso:
		keep = func(shell.Brick) bool { return true }
		proj = isometric
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "unknown view %q", view)
	}

	for _, b := range bricks {
		if !keep(b) {
			continue
		}
		if b.Active {
			active = append(active, proj(b))
		} else {
			carved = append(carved, proj(b))
		}
	}
	return active, carved, nil
}

var cos30, sin30 = math.Sqrt(3) / 2, 0.5

// isometric projects with x running down-right and y down-left.
func isometric(b shell.Brick) plotter.XY {
	return plotter.XY{
		X: (b.X - b.Y) * cos30,
		Y: b.Z - (b.X+b.Y)*sin30,
	}
}
