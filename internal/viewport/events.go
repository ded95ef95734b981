package viewport

import (
	"encoding/json"
	"fmt"

	"github.com/rendis/flowviz/pkg/schema"
)

// Event is an input to Reduce.
type Event interface {
	Type() EventType
}

// EventType names an event in serialized event logs.
type EventType string

const (
	EventWheel         EventType = "wheel"
	EventZoom          EventType = "zoom"
	EventPointerDown   EventType = "pointer_down"
	EventPointerMove   EventType = "pointer_move"
	EventPointerUp     EventType = "pointer_up"
	EventPointerCancel EventType = "pointer_cancel"
	EventPointerLeave  EventType = "pointer_leave"
	EventResize        EventType = "resize"
	EventLayout        EventType = "layout"
	EventFit           EventType = "fit"
)

// Target is what a pointer-down landed on.
type Target string

const (
	TargetBackground Target = "background"
	TargetNode       Target = "node"
)

// Wheel zooms at Cursor by WheelFactor(DeltaY).
type Wheel struct {
	DeltaY float64
	Cursor Point
}

// Zoom zooms by Factor at the container center (the +/- controls).
type Zoom struct{ Factor float64 }

// PointerDown starts a drag when Target is the background.
type PointerDown struct {
	Pos    Point
	Target Target
}

// PointerMove pans while dragging.
type PointerMove struct{ Pos Point }

// PointerUp ends a drag.
type PointerUp struct{ Pos Point }

// PointerCancel ends a drag.
type PointerCancel struct{}

// PointerLeave ends a drag when the pointer leaves the viewport.
type PointerLeave struct{}

// Resize records a new container size and refits.
type Resize struct{ Container Size }

// LayoutChanged records a new layout size and refits.
type LayoutChanged struct{ Layout Size }

// Fit refits to the current layout and container.
type Fit struct{}

func (Wheel) Type() EventType         { return EventWheel }
func (Zoom) Type() EventType          { return EventZoom }
func (PointerDown) Type() EventType   { return EventPointerDown }
func (PointerMove) Type() EventType   { return EventPointerMove }
func (PointerUp) Type() EventType     { return EventPointerUp }
func (PointerCancel) Type() EventType { return EventPointerCancel }
func (PointerLeave) Type() EventType  { return EventPointerLeave }
func (Resize) Type() EventType        { return EventResize }
func (LayoutChanged) Type() EventType { return EventLayout }
func (Fit) Type() EventType           { return EventFit }

// Record is the JSON form of an event. Which fields are read depends on
// Type.
type Record struct {
	Type   EventType `json:"type"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	DeltaY float64   `json:"delta_y,omitempty"`
	Factor float64   `json:"factor,omitempty"`
	Target Target    `json:"target,omitempty"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
}

// Event converts the record. Pointer-downs without a target are treated
// as background presses.
func (r Record) Event() (Event, error) {
	pos := Point{X: r.X, Y: r.Y}
	switch r.Type {
	case EventWheel:
		return Wheel{DeltaY: r.DeltaY, Cursor: pos}, nil
	case EventZoom:
		return Zoom{Factor: r.Factor}, nil
	case EventPointerDown:
		target := r.Target
		if target == "" {
			target = TargetBackground
		}
		return PointerDown{Pos: pos, Target: target}, nil
	case EventPointerMove:
		return PointerMove{Pos: pos}, nil
	case EventPointerUp:
		return PointerUp{Pos: pos}, nil
	case EventPointerCancel:
		return PointerCancel{}, nil
	case EventPointerLeave:
		return PointerLeave{}, nil
	case EventResize:
		return Resize{Container: Size{Width: r.Width, Height: r.Height}}, nil
	case EventLayout:
		return LayoutChanged{Layout: Size{Width: r.Width, Height: r.Height}}, nil
	case EventFit:
		return Fit{}, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "unknown event type %q", r.Type)
	}
}

// RecordOf converts an event back to its JSON form.
func RecordOf(ev Event) Record {
	r := Record{Type: ev.Type()}
	switch e := ev.(type) {
	case Wheel:
		r.DeltaY, r.X, r.Y = e.DeltaY, e.Cursor.X, e.Cursor.Y
	case Zoom:
		r.Factor = e.Factor
	case PointerDown:
		r.X, r.Y, r.Target = e.Pos.X, e.Pos.Y, e.Target
	case PointerMove:
		r.X, r.Y = e.Pos.X, e.Pos.Y
	case PointerUp:
		r.X, r.Y = e.Pos.X, e.Pos.Y
	case Resize:
		r.Width, r.Height = e.Container.Width, e.Container.Height
	case LayoutChanged:
		r.Width, r.Height = e.Layout.Width, e.Layout.Height
	}
	return r
}

// Events converts a slice of records, failing on the first unknown type.
func Events(records []Record) ([]Event, error) {
	events := make([]Event, 0, len(records))
	for i, r := range records {
		ev, err := r.Event()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// DecodeEvents parses a JSON array of records.
func DecodeEvents(data []byte) ([]Event, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "invalid event log").WithCause(err)
	}
	return Events(records)
}
