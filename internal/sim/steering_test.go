package sim

import (
	"testing"
)

func newPlayerBody(t *testing.T, pos Vec2) (Body, *Steering) {
	t.Helper()
	cfg := DefaultConfig()
	p := cfg.Player
	b := mustBody(t, pos, p.Radius, p.Acceleration, p.Friction, p.MaxVelocity)
	return b, NewSteering(cfg.Steering, p.MinVelocity)
}

// runSteer steps until arrival or maxTicks and reports the tick count, or -1.
func runSteer(t *testing.T, b *Body, s *Steering, maxTicks int, check func(tick int)) int {
	t.Helper()
	for i := 1; i <= maxTicks; i++ {
		rep := s.Step(b, 1)
		if check != nil {
			check(i)
		}
		if rep.Arrived && !s.Moving {
			return i
		}
	}
	return -1
}

func TestSteering_ArrivesExactlyOnTarget(t *testing.T) {
	targets := []Vec2{V(400, 300), V(100.5, 100.5), V(120, 90), V(20, 700)}
	for _, target := range targets {
		b, s := newPlayerBody(t, V(100, 100))
		s.SetTarget(target)
		n := runSteer(t, &b, s, 3000, nil)
		if n < 0 {
			t.Fatalf("target %+v: never arrived, pos=%+v vel=%+v final=%v",
				target, b.Pos, b.Vel, s.FinalApproach)
		}
		if b.Pos != target {
			t.Fatalf("target %+v: pos %+v is not exactly on target", target, b.Pos)
		}
		if !b.Vel.IsZero() {
			t.Fatalf("target %+v: vel %+v after arrival", target, b.Vel)
		}
		if _, ok := s.Target(); ok {
			t.Fatalf("target %+v: path should be empty", target)
		}
		t.Logf("target %+v reached in %d ticks", target, n)
	}
}

func TestSteering_SpeedNeverExceedsMax(t *testing.T) {
	b, s := newPlayerBody(t, V(100, 100))
	s.SetTarget(V(900, 650))
	n := runSteer(t, &b, s, 3000, func(tick int) {
		if b.Speed() > b.MaxVelocity+eps {
			t.Fatalf("T=%d speed %.4f exceeds max %.2f", tick, b.Speed(), b.MaxVelocity)
		}
	})
	if n < 0 {
		t.Fatal("never arrived")
	}
}

func TestSteering_SetTargetIsIdempotent(t *testing.T) {
	b, s := newPlayerBody(t, V(100, 100))
	s.SetTarget(V(300, 300))
	s.Step(&b, 1)
	s.SetTarget(V(300, 300))
	s.SetTarget(V(300, 300))
	if len(s.Path) != 1 || s.Path[0] != V(300, 300) {
		t.Fatalf("path = %+v, want a single waypoint", s.Path)
	}
	if !s.Moving || s.FinalApproach {
		t.Fatalf("moving=%v final=%v after SetTarget", s.Moving, s.FinalApproach)
	}
}

func TestSteering_RetargetReplacesPath(t *testing.T) {
	b, s := newPlayerBody(t, V(100, 100))
	s.SetTarget(V(600, 100))
	for i := 0; i < 40; i++ {
		s.Step(&b, 1)
	}
	s.SetTarget(V(100, 500))
	if got, _ := s.Target(); got != V(100, 500) {
		t.Fatalf("target = %+v after retarget", got)
	}
	if runSteer(t, &b, s, 3000, nil) < 0 || b.Pos != V(100, 500) {
		t.Fatalf("retarget did not arrive: pos=%+v", b.Pos)
	}
}

func TestSteering_FinalApproachLatches(t *testing.T) {
	b, s := newPlayerBody(t, V(100, 100))
	s.SetTarget(V(300, 100))
	entered := 0
	for i := 0; i < 3000 && s.Moving; i++ {
		rep := s.Step(&b, 1)
		if rep.EnteredFinal {
			entered++
			if d := b.Pos.Dist(V(300, 100)); d > s.cfg.FinalApproachDistance+b.MaxVelocity {
				t.Fatalf("entered final approach %.1f from target", d)
			}
		}
	}
	if entered == 0 {
		t.Fatal("final approach never engaged")
	}
	if s.FinalApproach {
		t.Fatal("latch must clear on arrival")
	}
}

func TestSteering_NoPathCoastsUnderFriction(t *testing.T) {
	b, s := newPlayerBody(t, V(100, 100))
	b.Vel = V(4, 0)
	s.Step(&b, 1)
	want := 4 * b.Friction
	if b.Vel.X != want {
		t.Fatalf("vel.x = %.4f, want %.4f", b.Vel.X, want)
	}
	if b.Pos.X != 100+want {
		t.Fatalf("pos.x = %.4f, want %.4f", b.Pos.X, 100+want)
	}
}

func TestSteering_StationaryAtTargetArrivesImmediately(t *testing.T) {
	b, s := newPlayerBody(t, V(250, 250))
	s.SetTarget(V(250.4, 250))
	rep := s.Step(&b, 1)
	if !rep.Arrived || b.Pos != V(250.4, 250) || s.Moving {
		t.Fatalf("rep=%+v pos=%+v moving=%v", rep, b.Pos, s.Moving)
	}
}
