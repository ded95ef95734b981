package viewport

// PointerSource is the host input surface, such as a browser bridge or a
// test fake. Each method registers the handler for one input kind.
type PointerSource interface {
	// OnWheel handlers return true when the host must suppress its default
	// scrolling.
	OnWheel(func(deltaY float64, cursor Point) bool)
	OnPointerDown(func(pos Point, target Target))
	OnPointerMove(func(pos Point))
	OnPointerUp(func(pos Point))
	OnPointerCancel(func())
	OnPointerLeave(func())
}

// Bind routes src input into c.
func Bind(src PointerSource, c *Controller) {
	src.OnWheel(func(deltaY float64, cursor Point) bool {
		_ = c.Dispatch(Wheel{DeltaY: deltaY, Cursor: cursor})
		return true
	})
	src.OnPointerDown(func(pos Point, target Target) {
		_ = c.Dispatch(PointerDown{Pos: pos, Target: target})
	})
	src.OnPointerMove(func(pos Point) {
		_ = c.Dispatch(PointerMove{Pos: pos})
	})
	src.OnPointerUp(func(pos Point) {
		_ = c.Dispatch(PointerUp{Pos: pos})
	})
	src.OnPointerCancel(func() {
		_ = c.Dispatch(PointerCancel{})
	})
	src.OnPointerLeave(func() {
		_ = c.Dispatch(PointerLeave{})
	})
}
