package sim

// Camera is a scrolling viewport over the world. Offset is the world-space
// position of the viewport's top-left corner.
type Camera struct {
	Offset         Vec2
	ViewW, ViewH   float64
	WorldW, WorldH float64
	Follow         EntityID
	Fixed          bool
}

// NewCamera creates a camera at the world origin.
func NewCamera(viewW, viewH, worldW, worldH float64) *Camera {
	return &Camera{ViewW: viewW, ViewH: viewH, WorldW: worldW, WorldH: worldH}
}

// SetFixed freezes or releases the camera.
func (c *Camera) SetFixed(fixed bool) { c.Fixed = fixed }

// ToggleFixed flips the fixed flag and returns the new value.
func (c *Camera) ToggleFixed() bool {
	c.Fixed = !c.Fixed
	return c.Fixed
}

// Update centres the viewport on focus unless the camera is fixed.
func (c *Camera) Update(focus Vec2) {
	if c.Fixed {
		return
	}
	c.Offset = V(focus.X-c.ViewW/2, focus.Y-c.ViewH/2)
	c.constrain()
}

// constrain keeps the offset within [0, world-viewport] on each axis.
func (c *Camera) constrain() {
	c.Offset.X = Clamp(c.Offset.X, 0, c.WorldW-c.ViewW)
	c.Offset.Y = Clamp(c.Offset.Y, 0, c.WorldH-c.ViewH)
}

// WorldToScreen converts a world point to viewport coordinates.
func (c *Camera) WorldToScreen(p Vec2) Vec2 { return p.Sub(c.Offset) }

// ScreenToWorld converts a viewport point to world coordinates.
func (c *Camera) ScreenToWorld(p Vec2) Vec2 { return p.Add(c.Offset) }

// IsVisible reports whether a circle at p with radius r overlaps the viewport.
func (c *Camera) IsVisible(p Vec2, r float64) bool {
	return p.X+r >= c.Offset.X &&
		p.X-r <= c.Offset.X+c.ViewW &&
		p.Y+r >= c.Offset.Y &&
		p.Y-r <= c.Offset.Y+c.ViewH
}
