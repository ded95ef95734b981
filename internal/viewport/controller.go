package viewport

// TransitionHook is called before or after a mode transition. An error
// from a before hook rejects the event. An error from an after hook is
// returned once change listeners have run.
type TransitionHook func(from, to Mode) error

type hookKey struct {
	from, to Mode
}

// Controller owns one Viewport and feeds events through Reduce. It is not
// safe for concurrent use; callers that share a controller serialize
// access themselves.
type Controller struct {
	cfg      Config
	vp       Viewport
	before   map[hookKey][]TransitionHook
	after    map[hookKey][]TransitionHook
	onChange []func(Viewport)
}

// NewController returns a controller over an idle viewport.
func NewController(cfg Config, container Size) *Controller {
	return &Controller{
		cfg:    cfg,
		vp:     NewViewport(container),
		before: make(map[hookKey][]TransitionHook),
		after:  make(map[hookKey][]TransitionHook),
	}
}

// Restore returns a controller over an existing viewport.
func Restore(cfg Config, vp Viewport) *Controller {
	c := NewController(cfg, vp.Container)
	vp.Mode = vp.mode()
	c.vp = vp
	return c
}

// OnBefore registers a hook called before a mode transition.
func (c *Controller) OnBefore(from, to Mode, hook TransitionHook) {
	key := hookKey{from, to}
	c.before[key] = append(c.before[key], hook)
}

// OnTransition registers a hook called after a mode transition.
func (c *Controller) OnTransition(from, to Mode, hook TransitionHook) {
	key := hookKey{from, to}
	c.after[key] = append(c.after[key], hook)
}

// OnChange registers a listener called with the new viewport whenever an
// event changes it.
func (c *Controller) OnChange(fn func(Viewport)) {
	c.onChange = append(c.onChange, fn)
}

// Dispatch applies ev. When the event changes the mode, the transition is
// checked against ValidTransitions and the hooks run; a rejected
// transition leaves the viewport untouched.
func (c *Controller) Dispatch(ev Event) error {
	return c.commit(Reduce(c.vp, c.cfg, ev))
}

// DispatchAll applies events in order, stopping at the first error.
func (c *Controller) DispatchAll(events []Event) error {
	for _, ev := range events {
		if err := c.Dispatch(ev); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) commit(next Viewport) error {
	from, to := c.vp.mode(), next.mode()

	if from != to {
		if err := checkTransition(from, to); err != nil {
			return err
		}
		for _, hook := range c.before[hookKey{from, to}] {
			if err := hook(from, to); err != nil {
				return err
			}
		}
	}

	changed := !sameViewport(c.vp, next)
	c.vp = next

	// The viewport is committed at this point, so listeners hear about it
	// even when an after hook fails.
	var hookErr error
	if from != to {
		for _, hook := range c.after[hookKey{from, to}] {
			if err := hook(from, to); err != nil {
				hookErr = err
				break
			}
		}
	}
	if changed {
		for _, fn := range c.onChange {
			fn(c.vp)
		}
	}
	return hookErr
}

// ZoomAt zooms by factor anchored at cursor.
func (c *Controller) ZoomAt(factor float64, cursor Point) {
	next := c.vp
	next.State = ZoomAt(c.vp.State, c.cfg, factor, cursor)
	next.reanchor()
	_ = c.commit(next)
}

// ZoomBy zooms by factor anchored at the container center.
func (c *Controller) ZoomBy(factor float64) {
	_ = c.Dispatch(Zoom{Factor: factor})
}

// PanBy translates the view.
func (c *Controller) PanBy(dx, dy float64) {
	next := c.vp
	next.State = PanBy(c.vp.State, dx, dy)
	next.reanchor()
	_ = c.commit(next)
}

// FitToView fits the current layout into the container.
func (c *Controller) FitToView() {
	_ = c.Dispatch(Fit{})
}

// SetContainer records a new container size and refits.
func (c *Controller) SetContainer(size Size) {
	_ = c.Dispatch(Resize{Container: size})
}

// SetLayout records a new layout size and refits.
func (c *Controller) SetLayout(size Size) {
	_ = c.Dispatch(LayoutChanged{Layout: size})
}

// Viewport returns a copy of the current viewport.
func (c *Controller) Viewport() Viewport {
	vp := c.vp
	if vp.Gesture != nil {
		g := *vp.Gesture
		vp.Gesture = &g
	}
	return vp
}

// State returns the current transform.
func (c *Controller) State() State { return c.vp.State }

// Mode returns the current gesture mode.
func (c *Controller) Mode() Mode { return c.vp.mode() }

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

func sameViewport(a, b Viewport) bool {
	if a.State != b.State || a.mode() != b.mode() || a.Container != b.Container || a.Layout != b.Layout {
		return false
	}
	if (a.Gesture == nil) != (b.Gesture == nil) {
		return false
	}
	return a.Gesture == nil || *a.Gesture == *b.Gesture
}
