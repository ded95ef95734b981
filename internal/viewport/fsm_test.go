package viewport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowviz/pkg/schema"
)

var screen = Size{Width: 800, Height: 600}

func TestBeginEndPan(t *testing.T) {
	v := NewViewport(screen)

	v, err := BeginPan(v, Point{X: 10, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, ModePanning, v.Mode)
	require.NotNil(t, v.Gesture)

	_, err = BeginPan(v, Point{})
	require.Error(t, err)
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeInvalidTransition, se.Code)

	v, err = EndPan(v)
	require.NoError(t, err)
	assert.Equal(t, ModeIdle, v.Mode)
	assert.Nil(t, v.Gesture)

	_, err = EndPan(v)
	assert.Error(t, err)
}

func TestReduce_DragPansFromGestureStart(t *testing.T) {
	v := NewViewport(screen)
	v = Replay(v, DefaultConfig, []Event{
		PointerDown{Pos: Point{X: 100, Y: 100}, Target: TargetBackground},
		PointerMove{Pos: Point{X: 110, Y: 105}},
		PointerMove{Pos: Point{X: 130, Y: 90}},
	})

	assert.Equal(t, ModePanning, v.Mode)
	assert.Equal(t, Point{X: 30, Y: -10}, v.State.Pan)

	v = Reduce(v, DefaultConfig, PointerUp{Pos: Point{X: 130, Y: 90}})
	assert.Equal(t, ModeIdle, v.Mode)
	assert.Equal(t, Point{X: 30, Y: -10}, v.State.Pan)

	v = Reduce(v, DefaultConfig, PointerMove{Pos: Point{X: 500, Y: 500}})
	assert.Equal(t, Point{X: 30, Y: -10}, v.State.Pan)
}

func TestReduce_NodePressDoesNotPan(t *testing.T) {
	v := Replay(NewViewport(screen), DefaultConfig, []Event{
		PointerDown{Pos: Point{X: 100, Y: 100}, Target: TargetNode},
		PointerMove{Pos: Point{X: 150, Y: 150}},
	})
	assert.Equal(t, ModeIdle, v.Mode)
	assert.Equal(t, Point{}, v.State.Pan)
}

func TestReduce_CancelAndLeaveKeepPan(t *testing.T) {
	for _, end := range []Event{PointerCancel{}, PointerLeave{}} {
		v := Replay(NewViewport(screen), DefaultConfig, []Event{
			PointerDown{Pos: Point{X: 0, Y: 0}, Target: TargetBackground},
			PointerMove{Pos: Point{X: 20, Y: 20}},
			end,
		})
		assert.Equal(t, ModeIdle, v.Mode, "%T", end)
		assert.Equal(t, Point{X: 20, Y: 20}, v.State.Pan, "%T", end)
		assert.Nil(t, v.Gesture)
	}
}

func TestReduce_WheelDuringDragReanchors(t *testing.T) {
	v := Replay(NewViewport(screen), DefaultConfig, []Event{
		PointerDown{Pos: Point{X: 100, Y: 100}, Target: TargetBackground},
		PointerMove{Pos: Point{X: 120, Y: 100}},
		Wheel{DeltaY: -500, Cursor: Point{X: 120, Y: 100}},
	})
	zoomed := v.State

	v = Reduce(v, DefaultConfig, PointerMove{Pos: Point{X: 125, Y: 100}})
	assert.InDelta(t, zoomed.Pan.X+5, v.State.Pan.X, eps)
	assert.InDelta(t, zoomed.Pan.Y, v.State.Pan.Y, eps)
	assert.Equal(t, zoomed.Scale, v.State.Scale)
}

func TestReduce_LargeWheelDeltaZoomsOutToMin(t *testing.T) {
	for _, delta := range []float64{999, 1000, 1500, 1e6} {
		v := NewViewport(screen)
		v.State.Scale = 1.5
		next := Reduce(v, DefaultConfig, Wheel{DeltaY: delta, Cursor: Point{X: 400, Y: 300}})
		assert.InDelta(t, DefaultConfig.MinZoom, next.State.Scale, eps, "delta %v", delta)
	}

	v := NewViewport(screen)
	next := Reduce(v, DefaultConfig, Wheel{DeltaY: -1e6, Cursor: Point{X: 400, Y: 300}})
	assert.Equal(t, DefaultConfig.MaxZoom, next.State.Scale)
}

func TestReduce_ResizeFitsKnownLayout(t *testing.T) {
	v := NewViewport(Size{})
	v = Reduce(v, DefaultConfig, Resize{Container: screen})
	assert.Equal(t, InitialState(), v.State, "no layout yet")

	v = Reduce(v, DefaultConfig, LayoutChanged{Layout: Size{Width: 504, Height: 624}})
	assert.InDelta(t, 552.0/624.0, v.State.Scale, eps)

	v = Reduce(v, DefaultConfig, Resize{Container: Size{Width: 1600, Height: 1200}})
	assert.Equal(t, 1.2, v.State.Scale)
	assert.Equal(t, Size{Width: 1600, Height: 1200}, v.Container)
}

func TestReduce_ZoomUsesContainerCenter(t *testing.T) {
	v := Reduce(NewViewport(screen), DefaultConfig, Zoom{Factor: 2})
	assert.Equal(t, 2.0, v.State.Scale)
	assert.Equal(t, Point{X: -400, Y: -300}, v.State.Pan)
}

func TestReduce_ZeroViewportIsIdle(t *testing.T) {
	v := Reduce(Viewport{}, DefaultConfig, PointerDown{Pos: Point{}, Target: TargetBackground})
	assert.Equal(t, ModePanning, v.Mode)
}

func TestDecodeEvents(t *testing.T) {
	data := []byte(`[
		{"type": "resize", "width": 800, "height": 600},
		{"type": "wheel", "delta_y": -100, "x": 400, "y": 300},
		{"type": "pointer_down", "x": 1, "y": 2},
		{"type": "pointer_move", "x": 11, "y": 2},
		{"type": "pointer_up"},
		{"type": "zoom", "factor": 0.5},
		{"type": "layout", "width": 504, "height": 624},
		{"type": "fit"}
	]`)

	events, err := DecodeEvents(data)
	require.NoError(t, err)
	require.Len(t, events, 8)
	assert.Equal(t, PointerDown{Pos: Point{X: 1, Y: 2}, Target: TargetBackground}, events[2])
	assert.Equal(t, Wheel{DeltaY: -100, Cursor: Point{X: 400, Y: 300}}, events[1])

	for _, ev := range events {
		back, err := RecordOf(ev).Event()
		require.NoError(t, err)
		assert.Equal(t, ev, back)
	}
}

func TestDecodeEvents_Errors(t *testing.T) {
	_, err := DecodeEvents([]byte(`{"type":"wheel"}`))
	require.Error(t, err)

	_, err = DecodeEvents([]byte(`[{"type":"fit"},{"type":"teleport"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")
	var se *schema.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, schema.ErrCodeValidation, se.Code)
}
