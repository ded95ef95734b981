// Package viewport holds the pan/zoom state of a diagram view and the
// coordinate math that maps diagram space to screen space:
//
//	screen = diagram*scale + pan
//
// Every function here is pure and total. Degenerate input (zero sizes,
// non-finite factors) leaves the state unchanged, and the stored scale is
// always clamped to the configured bounds.
package viewport

import (
	"fmt"
	"math"
)

// Point is a position in screen or diagram space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are finite and positive.
func (s Size) Valid() bool {
	return finite(s.Width) && finite(s.Height) && s.Width > 0 && s.Height > 0
}

// Center returns the geometric center.
func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// State is the viewport transform.
type State struct {
	Scale float64 `json:"scale"`
	Pan   Point   `json:"pan"`
}

// InitialState is the identity transform.
func InitialState() State {
	return State{Scale: 1}
}

// ToScreen maps a diagram-space point to screen space.
func (s State) ToScreen(p Point) Point {
	return Point{X: p.X*s.Scale + s.Pan.X, Y: p.Y*s.Scale + s.Pan.Y}
}

// ToDiagram maps a screen-space point back to diagram space.
func (s State) ToDiagram(p Point) Point {
	if s.Scale == 0 {
		return p.Sub(s.Pan)
	}
	return Point{X: (p.X - s.Pan.X) / s.Scale, Y: (p.Y - s.Pan.Y) / s.Scale}
}

// Transform renders the state as an SVG/CSS transform, translate first.
func (s State) Transform() string {
	return fmt.Sprintf("translate(%g, %g) scale(%g)", s.Pan.X, s.Pan.Y, s.Scale)
}

// Config holds the zoom bounds and input tuning.
type Config struct {
	MinZoom          float64 `json:"min_zoom"`
	MaxZoom          float64 `json:"max_zoom"`
	FitUpperBound    float64 `json:"fit_upper_bound"`   // fit never zooms in past this
	WheelSensitivity float64 `json:"wheel_sensitivity"` // scale change per wheel delta unit
	FitPadding       float64 `json:"fit_padding"`
}

// DefaultConfig is the configuration used by the renderer-facing surfaces.
var DefaultConfig = Config{
	MinZoom:          0.3,
	MaxZoom:          2.5,
	FitUpperBound:    1.2,
	WheelSensitivity: 0.001,
	FitPadding:       48,
}

// Clamp bounds scale to [MinZoom, MaxZoom]. Non-finite input maps to 1
// before clamping.
func (c Config) Clamp(scale float64) float64 {
	if !finite(scale) {
		scale = 1
	}
	return math.Min(math.Max(scale, c.MinZoom), c.MaxZoom)
}

// normalize repairs a state that did not come from this package, such as
// the zero value.
func (c Config) normalize(s State) State {
	if !finite(s.Scale) || s.Scale <= 0 {
		s.Scale = 1
	}
	s.Scale = c.Clamp(s.Scale)
	if !finite(s.Pan.X) {
		s.Pan.X = 0
	}
	if !finite(s.Pan.Y) {
		s.Pan.Y = 0
	}
	return s
}

// ZoomAt multiplies the scale by factor, keeping the diagram point under
// cursor fixed on screen:
//
//	pan' = cursor - (cursor - pan) * scale'/scale
//
// The new scale is clamped, so a non-positive factor (a large wheel delta)
// lands on MinZoom. Non-finite factors are ignored.
func ZoomAt(s State, cfg Config, factor float64, cursor Point) State {
	if !finite(factor) || !finite(cursor.X) || !finite(cursor.Y) {
		return s
	}
	s = cfg.normalize(s)

	oldScale := s.Scale
	newScale := cfg.Clamp(oldScale * factor)
	ratio := newScale / oldScale

	return State{
		Scale: newScale,
		Pan: Point{
			X: cursor.X - (cursor.X-s.Pan.X)*ratio,
			Y: cursor.Y - (cursor.Y-s.Pan.Y)*ratio,
		},
	}
}

// ZoomBy zooms anchored at the center of the container.
func ZoomBy(s State, cfg Config, factor float64, container Size) State {
	return ZoomAt(s, cfg, factor, container.Center())
}

// PanBy translates the view.
func PanBy(s State, dx, dy float64) State {
	if !finite(dx) || !finite(dy) {
		return s
	}
	s.Pan.X += dx
	s.Pan.Y += dy
	return s
}

// FitToView picks the scale that shows the whole layout inside the
// container minus padding, capped at cfg.FitUpperBound, and centers the
// scaled layout. An empty layout or container leaves s unchanged.
func FitToView(s State, cfg Config, layout, container Size, padding float64) State {
	if !layout.Valid() || !container.Valid() || !finite(padding) {
		return s
	}

	scale := math.Min(
		math.Min((container.Width-padding)/layout.Width, (container.Height-padding)/layout.Height),
		cfg.FitUpperBound,
	)
	scale = cfg.Clamp(scale)

	return State{
		Scale: scale,
		Pan: Point{
			X: (container.Width - layout.Width*scale) / 2,
			Y: (container.Height - layout.Height*scale) / 2,
		},
	}
}

// WheelFactor converts a wheel delta into a zoom factor. Scrolling up
// (negative delta) zooms in.
func WheelFactor(cfg Config, deltaY float64) float64 {
	return 1 - deltaY*cfg.WheelSensitivity
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
