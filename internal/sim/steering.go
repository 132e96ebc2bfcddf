package sim

import "math"

// Steering is the player's goal-directed approach controller. It owns the
// waypoint path and the small amount of state that makes the approach smooth:
// the previous heading, a turn-damping countdown and the final-approach latch.
type Steering struct {
	cfg         SteeringConfig
	minVelocity float64

	Path          []Vec2
	Moving        bool
	PrevDir       Vec2
	TurnCooldown  int
	FinalApproach bool
	// Momentum is the speed-ceiling factor computed on the last cruise tick
	// (1 outside the momentum reduction zone).
	Momentum float64
}

// SteerReport describes notable transitions that happened during one Step.
type SteerReport struct {
	Arrived      bool // snapped onto a waypoint
	Turned       bool // significant heading change detected
	EnteredFinal bool // final-approach latch went false → true
}

// NewSteering creates an idle controller.
func NewSteering(cfg SteeringConfig, minVelocity float64) *Steering {
	return &Steering{cfg: cfg, minVelocity: minVelocity, Momentum: 1}
}

// SetTarget replaces the whole path with a single waypoint.
func (s *Steering) SetTarget(p Vec2) {
	s.Path = append(s.Path[:0], p)
	s.Moving = true
	s.FinalApproach = false
}

// Target returns the active waypoint, if any.
func (s *Steering) Target() (Vec2, bool) {
	if len(s.Path) == 0 {
		return Vec2{}, false
	}
	return s.Path[0], true
}

// Step advances the body one tick. With no path the body coasts under
// passive friction; otherwise the staged approach replaces friction.
func (s *Steering) Step(b *Body, dt float64) SteerReport {
	var rep SteerReport
	if !s.Moving || len(s.Path) == 0 {
		b.Integrate(dt)
		return rep
	}

	cfg := s.cfg
	target := s.Path[0]
	delta := target.Sub(b.Pos)
	dist := delta.Len()

	if dist < cfg.ArriveDistance {
		b.Pos = target
		b.Vel = Vec2{}
		s.Path = s.Path[1:]
		s.FinalApproach = false
		if len(s.Path) == 0 {
			s.Moving = false
		}
		rep.Arrived = true
		return rep
	}

	d := delta.Scale(1 / dist)
	if d.Dot(s.PrevDir) < cfg.TurnDot {
		s.TurnCooldown = cfg.TurnDampTicks
		s.FinalApproach = false
		rep.Turned = true
	}
	if s.TurnCooldown > 0 {
		s.TurnCooldown--
	}
	s.PrevDir = d

	speed := b.Speed()
	if dist < cfg.FinalApproachDistance && !s.FinalApproach {
		s.FinalApproach = true
		rep.EnteredFinal = true
	}

	if s.FinalApproach {
		s.finalApproach(b, d, dist, speed)
	} else {
		s.cruise(b, d, dist, speed)
	}

	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	return rep
}

// finalApproach eases the velocity toward an ideal vector whose speed falls
// linearly to zero at the waypoint. Misaligned motion is corrected hard,
// aligned motion gently.
func (s *Steering) finalApproach(b *Body, d Vec2, dist, speed float64) {
	cfg := s.cfg
	s.Momentum = 1
	ideal := d.Scale(s.minVelocity * dist / cfg.FinalApproachDistance)
	blend := cfg.FinalStrongBlend
	if speed > 0 && d.Dot(b.Vel.Scale(1/speed)) >= cfg.TurnDot {
		blend = cfg.FinalGentleBlend
	}
	b.Vel = b.Vel.Lerp(ideal, blend)
}

// cruise runs the slowdown, orbit correction, momentum reduction and
// acceleration stages.
func (s *Steering) cruise(b *Body, d Vec2, dist, speed float64) {
	cfg := s.cfg
	minV, maxV := s.minVelocity, b.MaxVelocity

	slowdown := 1.0
	if dist < cfg.SlowdownDistance {
		targetSpeed := Lerp(minV, maxV, dist/cfg.SlowdownDistance)
		if speed > targetSpeed {
			slowdown = targetSpeed / speed
			b.Vel = b.Vel.Scale(cfg.SlowdownRetain + slowdown*(1-cfg.SlowdownRetain))
		}

		if speed > 0 && dist < cfg.OrbitCorrectionDistance && d.Dot(b.Vel.Normalize()) < cfg.TurnDot {
			strength := Lerp(cfg.OrbitCorrectionMax, cfg.OrbitCorrectionMin, dist/cfg.OrbitCorrectionDistance)
			b.Vel = b.Vel.Lerp(d.Scale(b.Accel*2), strength)
		}
	}

	s.Momentum = 1
	if dist < cfg.MomentumReductionDistance {
		ratio := minV / maxV
		m := ratio + (1-ratio)*(dist/cfg.MomentumReductionDistance)
		if s.TurnCooldown > 0 {
			m = math.Max(m*cfg.DirectionChangeSharpen, ratio)
		}
		s.Momentum = m

		if dist < cfg.PerpStripDistance && speed > 0 {
			along := b.Vel.Dot(d)
			perp := b.Vel.Sub(d.Scale(along))
			b.Vel = b.Vel.Sub(perp.Scale(cfg.PerpStripMax * (1 - dist/cfg.PerpStripDistance)))

			if nl := b.Vel.Len(); nl < minV && !s.FinalApproach {
				b.Vel = b.Vel.Scale(minV / math.Max(nl, 0.1))
			}
		}
	}

	boost := 1.0
	if speed < minV && !s.FinalApproach {
		boost = cfg.LowSpeedBoost
	}
	b.Vel = b.Vel.Add(d.Scale(b.Accel * slowdown * boost))
	b.clampSpeed(maxV * s.Momentum)
}
