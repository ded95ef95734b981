package viewport

import "github.com/rendis/flowviz/pkg/schema"

// Mode is the pointer gesture state.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModePanning Mode = "panning"
)

// ValidTransitions defines the allowed mode transitions.
var ValidTransitions = map[Mode][]Mode{
	ModeIdle:    {ModePanning},
	ModePanning: {ModeIdle},
}

func isValidTransition(from, to Mode) bool {
	for _, a := range ValidTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// Gesture records where a drag started. Moves pan relative to the start,
// not the previous move, so rounding never accumulates.
type Gesture struct {
	Start    Point `json:"start"`
	StartPan Point `json:"start_pan"`
	Last     Point `json:"last"`
}

// Viewport is the complete state of one diagram view: the transform, the
// gesture mode, and the sizes needed for fitting.
type Viewport struct {
	State     State    `json:"state"`
	Mode      Mode     `json:"mode"`
	Container Size     `json:"container"`
	Layout    Size     `json:"layout"`
	Gesture   *Gesture `json:"gesture,omitempty"`
}

// NewViewport returns an idle viewport at the identity transform.
func NewViewport(container Size) Viewport {
	return Viewport{
		State:     InitialState(),
		Mode:      ModeIdle,
		Container: container,
	}
}

// BeginPan enters ModePanning with the gesture anchored at pos.
func BeginPan(v Viewport, pos Point) (Viewport, error) {
	if err := checkTransition(v.mode(), ModePanning); err != nil {
		return v, err
	}
	v.Mode = ModePanning
	v.Gesture = &Gesture{Start: pos, StartPan: v.State.Pan, Last: pos}
	return v, nil
}

// EndPan returns to ModeIdle. Pan applied by earlier moves is kept.
func EndPan(v Viewport) (Viewport, error) {
	if err := checkTransition(v.mode(), ModeIdle); err != nil {
		return v, err
	}
	v.Mode = ModeIdle
	v.Gesture = nil
	return v, nil
}

func checkTransition(from, to Mode) error {
	if isValidTransition(from, to) {
		return nil
	}
	return schema.NewErrorf(schema.ErrCodeInvalidTransition,
		"invalid viewport transition: %s -> %s", from, to).
		WithDetails(map[string]any{"from": string(from), "to": string(to)})
}

func (v Viewport) mode() Mode {
	if v.Mode == "" {
		return ModeIdle
	}
	return v.Mode
}

// Reduce applies one input event and returns the next viewport. It never
// fails: events that are not valid in the current mode are ignored.
func Reduce(v Viewport, cfg Config, ev Event) Viewport {
	v.Mode = v.mode()

	switch e := ev.(type) {
	case Wheel:
		v.State = ZoomAt(v.State, cfg, WheelFactor(cfg, e.DeltaY), e.Cursor)
		v.reanchor()

	case Zoom:
		v.State = ZoomBy(v.State, cfg, e.Factor, v.Container)
		v.reanchor()

	case PointerDown:
		if e.Target != TargetBackground {
			return v
		}
		if next, err := BeginPan(v, e.Pos); err == nil {
			return next
		}

	case PointerMove:
		if v.Mode != ModePanning || v.Gesture == nil {
			return v
		}
		delta := e.Pos.Sub(v.Gesture.Start)
		s := v.State
		s.Pan = v.Gesture.StartPan
		v.State = PanBy(s, delta.X, delta.Y)
		g := *v.Gesture
		g.Last = e.Pos
		v.Gesture = &g

	case PointerUp, PointerCancel, PointerLeave:
		if next, err := EndPan(v); err == nil {
			return next
		}

	case Resize:
		v.Container = e.Container
		v.fit(cfg)

	case LayoutChanged:
		v.Layout = e.Layout
		v.fit(cfg)

	case Fit:
		v.fit(cfg)
	}

	return v
}

// Replay folds events over v in order.
func Replay(v Viewport, cfg Config, events []Event) Viewport {
	for _, ev := range events {
		v = Reduce(v, cfg, ev)
	}
	return v
}

func (v *Viewport) fit(cfg Config) {
	v.State = FitToView(v.State, cfg, v.Layout, v.Container, cfg.FitPadding)
	v.reanchor()
}

// reanchor restarts an active gesture from the last pointer position so a
// zoom or fit during a drag is not undone by the next move.
func (v *Viewport) reanchor() {
	if v.Gesture == nil {
		return
	}
	v.Gesture = &Gesture{Start: v.Gesture.Last, StartPan: v.State.Pan, Last: v.Gesture.Last}
}
