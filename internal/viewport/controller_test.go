package viewport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	wheel  func(float64, Point) bool
	down   func(Point, Target)
	move   func(Point)
	up     func(Point)
	cancel func()
	leave  func()
}

func (f *fakeSource) OnWheel(fn func(float64, Point) bool) { f.wheel = fn }
func (f *fakeSource) OnPointerDown(fn func(Point, Target)) { f.down = fn }
func (f *fakeSource) OnPointerMove(fn func(Point))         { f.move = fn }
func (f *fakeSource) OnPointerUp(fn func(Point))           { f.up = fn }
func (f *fakeSource) OnPointerCancel(fn func())            { f.cancel = fn }
func (f *fakeSource) OnPointerLeave(fn func())             { f.leave = fn }

func TestController_TransitionHooks(t *testing.T) {
	c := NewController(DefaultConfig, screen)

	var seen []string
	c.OnTransition(ModeIdle, ModePanning, func(from, to Mode) error {
		seen = append(seen, string(from)+"->"+string(to))
		return nil
	})
	c.OnTransition(ModePanning, ModeIdle, func(from, to Mode) error {
		seen = append(seen, string(from)+"->"+string(to))
		return nil
	})

	require.NoError(t, c.DispatchAll([]Event{
		PointerDown{Pos: Point{}, Target: TargetBackground},
		PointerMove{Pos: Point{X: 5, Y: 5}},
		PointerUp{},
	}))
	assert.Equal(t, []string{"idle->panning", "panning->idle"}, seen)
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, Point{X: 5, Y: 5}, c.State().Pan)
}

func TestController_BeforeHookRejects(t *testing.T) {
	c := NewController(DefaultConfig, screen)
	locked := errors.New("locked")
	c.OnBefore(ModeIdle, ModePanning, func(_, _ Mode) error { return locked })

	err := c.Dispatch(PointerDown{Pos: Point{}, Target: TargetBackground})
	assert.ErrorIs(t, err, locked)
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Nil(t, c.Viewport().Gesture)
}

func TestController_AfterHookErrorStillNotifies(t *testing.T) {
	c := NewController(DefaultConfig, screen)
	failed := errors.New("audit failed")
	c.OnTransition(ModeIdle, ModePanning, func(_, _ Mode) error { return failed })

	var changes []Viewport
	c.OnChange(func(vp Viewport) { changes = append(changes, vp) })

	err := c.Dispatch(PointerDown{Pos: Point{X: 3, Y: 4}, Target: TargetBackground})
	assert.ErrorIs(t, err, failed)
	assert.Equal(t, ModePanning, c.Mode())
	require.Len(t, changes, 1)
	assert.Equal(t, ModePanning, changes[0].Mode)
}

func TestController_OnChange(t *testing.T) {
	c := NewController(DefaultConfig, screen)
	var calls int
	c.OnChange(func(Viewport) { calls++ })

	c.ZoomBy(2)
	c.PanBy(1, 1)
	c.PanBy(0, 0)
	c.FitToView()
	assert.Equal(t, 2, calls, "unchanged viewports are not reported")
}

func TestController_Methods(t *testing.T) {
	c := NewController(DefaultConfig, screen)

	c.ZoomAt(1.5, Point{X: 400, Y: 300})
	assert.InDelta(t, 1.5, c.State().Scale, eps)
	c.ZoomAt(1/1.5, Point{X: 400, Y: 300})
	assert.InDelta(t, 1, c.State().Scale, eps)
	assert.InDelta(t, 0, c.State().Pan.X, eps)

	c.SetLayout(Size{Width: 504, Height: 624})
	assert.InDelta(t, 552.0/624.0, c.State().Scale, eps)

	c.SetContainer(Size{Width: 2000, Height: 2000})
	assert.Equal(t, 1.2, c.State().Scale)
	assert.Equal(t, DefaultConfig, c.Config())
}

func TestController_RestoreNormalizesMode(t *testing.T) {
	c := Restore(DefaultConfig, Viewport{State: State{Scale: 2}, Container: screen})
	assert.Equal(t, ModeIdle, c.Mode())
	assert.Equal(t, 2.0, c.State().Scale)
}

func TestBind(t *testing.T) {
	src := &fakeSource{}
	c := NewController(DefaultConfig, screen)
	Bind(src, c)

	assert.True(t, src.wheel(-100, Point{X: 400, Y: 300}))
	assert.InDelta(t, 1.1, c.State().Scale, eps)

	src.down(Point{X: 10, Y: 10}, TargetBackground)
	assert.Equal(t, ModePanning, c.Mode())
	before := c.State().Pan
	src.move(Point{X: 30, Y: 10})
	assert.InDelta(t, before.X+20, c.State().Pan.X, eps)
	src.up(Point{X: 30, Y: 10})
	assert.Equal(t, ModeIdle, c.Mode())

	src.down(Point{}, TargetBackground)
	src.leave()
	assert.Equal(t, ModeIdle, c.Mode())

	src.down(Point{}, TargetBackground)
	src.cancel()
	assert.Equal(t, ModeIdle, c.Mode())
}
