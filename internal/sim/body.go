package sim

import "errors"

// restSnap is the per-axis speed below which passive friction stops a body
// outright instead of decaying forever.
const restSnap = 0.1

// Body is the kinematic state shared by every entity.
type Body struct {
	Pos         Vec2
	Vel         Vec2
	Radius      float64
	Accel       float64
	Friction    float64 // per-tick velocity retention, 0..1
	MaxVelocity float64
	Collidable  bool
}

// NewBody builds a body after checking its tunables.
func NewBody(pos Vec2, radius, accel, friction, maxVel float64) (Body, error) {
	var c configCheck
	c.body("body", radius, accel, friction, maxVel)
	if err := errors.Join(c.errs...); err != nil {
		return Body{}, err
	}
	return Body{
		Pos:         pos,
		Radius:      radius,
		Accel:       accel,
		Friction:    friction,
		MaxVelocity: maxVel,
		Collidable:  true,
	}, nil
}

// Speed is the magnitude of the velocity.
func (b *Body) Speed() float64 {
	return b.Vel.Len()
}

// clampSpeed rescales the velocity so its magnitude does not exceed limit.
func (b *Body) clampSpeed(limit float64) {
	if limit <= 0 {
		return
	}
	if s := b.Vel.Len(); s > limit {
		b.Vel = b.Vel.Scale(limit / s)
	}
}

// Integrate runs the passive physics step: friction, rest snap, speed clamp,
// then position update.
func (b *Body) Integrate(dt float64) {
	b.Vel = b.Vel.Scale(b.Friction)
	if b.Vel.X > -restSnap && b.Vel.X < restSnap {
		b.Vel.X = 0
	}
	if b.Vel.Y > -restSnap && b.Vel.Y < restSnap {
		b.Vel.Y = 0
	}
	b.clampSpeed(b.MaxVelocity)
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
}

// ConstrainToBounds keeps the body's circle inside [lo,hi]. An axis that
// hits a wall is clamped onto it and its velocity reflected, scaled by bounce.
func (b *Body) ConstrainToBounds(lo, hi Vec2, bounce float64) {
	if b.Pos.X < lo.X+b.Radius {
		b.Pos.X = lo.X + b.Radius
		b.Vel.X *= -bounce
	} else if b.Pos.X > hi.X-b.Radius {
		b.Pos.X = hi.X - b.Radius
		b.Vel.X *= -bounce
	}
	if b.Pos.Y < lo.Y+b.Radius {
		b.Pos.Y = lo.Y + b.Radius
		b.Vel.Y *= -bounce
	} else if b.Pos.Y > hi.Y-b.Radius {
		b.Pos.Y = hi.Y - b.Radius
		b.Vel.Y *= -bounce
	}
}

// ApplyForce adds f directly to the velocity.
func (b *Body) ApplyForce(f Vec2) {
	b.Vel = b.Vel.Add(f)
}

// MoveTowards accelerates toward target. It reports true, without applying
// any force, once the body is within one unit.
func (b *Body) MoveTowards(target Vec2, accel float64) bool {
	d := target.Sub(b.Pos)
	dist := d.Len()
	if dist < 1 {
		return true
	}
	b.Vel = b.Vel.Add(d.Scale(accel / dist))
	return false
}

// DistanceTo is the centre-to-centre distance to o.
func (b *Body) DistanceTo(o *Body) float64 {
	return b.Pos.Dist(o.Pos)
}

// DirectionTo is the unit vector toward o, or zero when the centres coincide.
func (b *Body) DirectionTo(o *Body) Vec2 {
	return o.Pos.Sub(b.Pos).Normalize()
}

// CollidesWith reports whether the two circles overlap. Non-collidable bodies
// never collide.
func (b *Body) CollidesWith(o *Body) bool {
	if !b.Collidable || !o.Collidable {
		return false
	}
	return b.DistanceTo(o) < b.Radius+o.Radius
}
