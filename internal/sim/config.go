package sim

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// PlayerConfig holds the player's body tunables.
type PlayerConfig struct {
	Radius       float64 `toml:"radius"`
	Speed        float64 `toml:"speed"` // nominal cruise speed, used by front ends for keyboard nudges
	Acceleration float64 `toml:"acceleration"`
	Friction     float64 `toml:"friction"`
	MaxVelocity  float64 `toml:"max_velocity"`
	MinVelocity  float64 `toml:"min_velocity"`
}

// NPCConfig holds NPC body tunables and sensing radii.
type NPCConfig struct {
	Radius          float64 `toml:"radius"`
	Speed           float64 `toml:"speed"`
	Acceleration    float64 `toml:"acceleration"`
	Friction        float64 `toml:"friction"`
	MaxVelocity     float64 `toml:"max_velocity"`
	DetectionRadius float64 `toml:"detection_radius"`
	FollowDistance  float64 `toml:"follow_distance"`
	FleeDistance    float64 `toml:"flee_distance"`
}

// SteeringConfig holds every threshold and blend factor of the player's
// approach model.
type SteeringConfig struct {
	ArriveDistance            float64 `toml:"arrive_distance"`
	TurnDot                   float64 `toml:"turn_dot"`
	TurnDampTicks             int     `toml:"turn_damp_ticks"`
	FinalApproachDistance     float64 `toml:"final_approach_distance"`
	SlowdownDistance          float64 `toml:"slowdown_distance"`
	MomentumReductionDistance float64 `toml:"momentum_reduction_distance"`
	OrbitCorrectionDistance   float64 `toml:"orbit_correction_distance"`
	OrbitCorrectionMin        float64 `toml:"orbit_correction_min"`
	OrbitCorrectionMax        float64 `toml:"orbit_correction_max"`
	PerpStripDistance         float64 `toml:"perp_strip_distance"`
	PerpStripMax              float64 `toml:"perp_strip_max"`
	FinalStrongBlend          float64 `toml:"final_strong_blend"`
	FinalGentleBlend          float64 `toml:"final_gentle_blend"`
	SlowdownRetain            float64 `toml:"slowdown_retain"`
	LowSpeedBoost             float64 `toml:"low_speed_boost"`
	DirectionChangeSharpen    float64 `toml:"direction_change_sharpen"`
}

// BehaviorConfig holds the NPC state machine's probabilities, timings and
// band factors.
type BehaviorConfig struct {
	FollowChance         float64 `toml:"follow_chance"`
	WanderSuppressChance float64 `toml:"wander_suppress_chance"`
	WanderIntervalMin    int     `toml:"wander_interval_min"`
	WanderIntervalMax    int     `toml:"wander_interval_max"`
	WanderDistMin        float64 `toml:"wander_dist_min"`
	WanderDistMax        float64 `toml:"wander_dist_max"`
	FollowBandInner      float64 `toml:"follow_band_inner"` // fraction of follow distance where repulsion starts
	FleeBoost            float64 `toml:"flee_boost"`
	FleeReleaseFactor    float64 `toml:"flee_release_factor"`
	TalkSettleFriction   float64 `toml:"talk_settle_friction"`
	GreetingTicks        int     `toml:"greeting_ticks"`
	ResponseTicks        int     `toml:"response_ticks"`
	FinishTicks          int     `toml:"finish_ticks"`
	LineVisibleTicks     int     `toml:"line_visible_ticks"`
	GreetingLine         string  `toml:"greeting_line"`
	ResponseLine         string  `toml:"response_line"`
}

// Config is the full set of recognised tunables. Zero values are not
// defaults: start from DefaultConfig and override.
type Config struct {
	Seed           int64   `toml:"seed"`
	WorldWidth     float64 `toml:"world_width"`
	WorldHeight    float64 `toml:"world_height"`
	ViewportWidth  float64 `toml:"viewport_width"`
	ViewportHeight float64 `toml:"viewport_height"`
	TargetTPS      int     `toml:"target_tps"`
	NPCCount       int     `toml:"npc_count"`
	Bounce         float64 `toml:"bounce"`

	Player   PlayerConfig   `toml:"player"`
	NPC      NPCConfig      `toml:"npc"`
	Steering SteeringConfig `toml:"steering"`
	Behavior BehaviorConfig `toml:"behavior"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Seed:           1,
		WorldWidth:     2000,
		WorldHeight:    2000,
		ViewportWidth:  800,
		ViewportHeight: 600,
		TargetTPS:      60,
		NPCCount:       20,
		Bounce:         0.5,
		Player: PlayerConfig{
			Radius:       15,
			Speed:        5,
			Acceleration: 0.5,
			Friction:     0.9,
			MaxVelocity:  5,
			MinVelocity:  1,
		},
		NPC: NPCConfig{
			Radius:          10,
			Speed:           2,
			Acceleration:    0.2,
			Friction:        0.95,
			MaxVelocity:     2,
			DetectionRadius: 100,
			FollowDistance:  40,
			FleeDistance:    80,
		},
		Steering: SteeringConfig{
			ArriveDistance:            1,
			TurnDot:                   0.7,
			TurnDampTicks:             10,
			FinalApproachDistance:     15,
			SlowdownDistance:          100,
			MomentumReductionDistance: 50,
			OrbitCorrectionDistance:   30,
			OrbitCorrectionMin:        0.5,
			OrbitCorrectionMax:        0.8,
			PerpStripDistance:         20,
			PerpStripMax:              0.7,
			FinalStrongBlend:          0.5,
			FinalGentleBlend:          0.2,
			SlowdownRetain:            0.9,
			LowSpeedBoost:             2,
			DirectionChangeSharpen:    0.7,
		},
		Behavior: BehaviorConfig{
			FollowChance:         0.10,
			WanderSuppressChance: 0.95,
			WanderIntervalMin:    100,
			WanderIntervalMax:    200,
			WanderDistMin:        50,
			WanderDistMax:        150,
			FollowBandInner:      0.8,
			FleeBoost:            1.5,
			FleeReleaseFactor:    2,
			TalkSettleFriction:   0.8,
			GreetingTicks:        30,
			ResponseTicks:        60,
			FinishTicks:          90,
			LineVisibleTicks:     90,
			GreetingLine:         "Hi",
			ResponseLine:         "Hello",
		},
	}
}

// ConfigError reports one rejected tunable.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

type configCheck struct {
	errs []error
}

func (c *configCheck) fail(field, reason string) {
	c.errs = append(c.errs, &ConfigError{Field: field, Reason: reason})
}

func (c *configCheck) positive(field string, v float64) {
	if !(v > 0) {
		c.fail(field, fmt.Sprintf("must be > 0 (got %g)", v))
	}
}

func (c *configCheck) nonNegative(field string, v float64) {
	if !(v >= 0) {
		c.fail(field, fmt.Sprintf("must be >= 0 (got %g)", v))
	}
}

func (c *configCheck) unit(field string, v float64) {
	if !(v >= 0 && v <= 1) {
		c.fail(field, fmt.Sprintf("must be within [0,1] (got %g)", v))
	}
}

func (c *configCheck) cosine(field string, v float64) {
	if !(v >= -1 && v <= 1) {
		c.fail(field, fmt.Sprintf("must be within [-1,1] (got %g)", v))
	}
}

// body validates the tunables shared by every kinematic body.
func (c *configCheck) body(prefix string, radius, accel, friction, maxVel float64) {
	c.nonNegative(prefix+".radius", radius)
	c.nonNegative(prefix+".acceleration", accel)
	c.unit(prefix+".friction", friction)
	c.nonNegative(prefix+".max_velocity", maxVel)
	if maxVel == 0 && accel > 0 {
		c.fail(prefix+".max_velocity", "is zero while acceleration is non-zero (unbounded growth)")
	}
}

// Validate reports every invalid tunable. Values are never clamped.
func (cfg Config) Validate() error {
	var c configCheck

	c.positive("world_width", cfg.WorldWidth)
	c.positive("world_height", cfg.WorldHeight)
	c.positive("viewport_width", cfg.ViewportWidth)
	c.positive("viewport_height", cfg.ViewportHeight)
	if cfg.ViewportWidth > cfg.WorldWidth {
		c.fail("viewport_width", "exceeds world_width")
	}
	if cfg.ViewportHeight > cfg.WorldHeight {
		c.fail("viewport_height", "exceeds world_height")
	}
	if cfg.TargetTPS <= 0 {
		c.fail("target_tps", fmt.Sprintf("must be > 0 (got %d)", cfg.TargetTPS))
	}
	if cfg.NPCCount < 0 {
		c.fail("npc_count", fmt.Sprintf("must be >= 0 (got %d)", cfg.NPCCount))
	}
	c.unit("bounce", cfg.Bounce)

	p := cfg.Player
	c.body("player", p.Radius, p.Acceleration, p.Friction, p.MaxVelocity)
	c.nonNegative("player.speed", p.Speed)
	c.positive("player.min_velocity", p.MinVelocity)
	if p.MinVelocity > p.MaxVelocity {
		c.fail("player.min_velocity", "exceeds player.max_velocity")
	}
	if 2*p.Radius >= cfg.WorldWidth || 2*p.Radius >= cfg.WorldHeight {
		c.fail("player.radius", "does not fit inside the world")
	}

	n := cfg.NPC
	c.body("npc", n.Radius, n.Acceleration, n.Friction, n.MaxVelocity)
	c.nonNegative("npc.speed", n.Speed)
	c.nonNegative("npc.detection_radius", n.DetectionRadius)
	c.positive("npc.follow_distance", n.FollowDistance)
	c.positive("npc.flee_distance", n.FleeDistance)
	if 2*n.Radius >= cfg.WorldWidth || 2*n.Radius >= cfg.WorldHeight {
		c.fail("npc.radius", "does not fit inside the world")
	}

	s := cfg.Steering
	c.positive("steering.arrive_distance", s.ArriveDistance)
	c.cosine("steering.turn_dot", s.TurnDot)
	if s.TurnDampTicks < 0 {
		c.fail("steering.turn_damp_ticks", "must be >= 0")
	}
	c.positive("steering.final_approach_distance", s.FinalApproachDistance)
	c.positive("steering.slowdown_distance", s.SlowdownDistance)
	c.positive("steering.momentum_reduction_distance", s.MomentumReductionDistance)
	c.positive("steering.orbit_correction_distance", s.OrbitCorrectionDistance)
	c.unit("steering.orbit_correction_min", s.OrbitCorrectionMin)
	c.unit("steering.orbit_correction_max", s.OrbitCorrectionMax)
	if s.OrbitCorrectionMin > s.OrbitCorrectionMax {
		c.fail("steering.orbit_correction_min", "exceeds steering.orbit_correction_max")
	}
	c.positive("steering.perp_strip_distance", s.PerpStripDistance)
	c.unit("steering.perp_strip_max", s.PerpStripMax)
	c.unit("steering.final_strong_blend", s.FinalStrongBlend)
	c.unit("steering.final_gentle_blend", s.FinalGentleBlend)
	c.unit("steering.slowdown_retain", s.SlowdownRetain)
	c.positive("steering.low_speed_boost", s.LowSpeedBoost)
	c.unit("steering.direction_change_sharpen", s.DirectionChangeSharpen)

	b := cfg.Behavior
	c.unit("behavior.follow_chance", b.FollowChance)
	c.unit("behavior.wander_suppress_chance", b.WanderSuppressChance)
	if b.WanderIntervalMin <= 0 || b.WanderIntervalMax < b.WanderIntervalMin {
		c.fail("behavior.wander_interval", fmt.Sprintf("needs 0 < min <= max (got %d..%d)", b.WanderIntervalMin, b.WanderIntervalMax))
	}
	c.nonNegative("behavior.wander_dist_min", b.WanderDistMin)
	if b.WanderDistMax < b.WanderDistMin {
		c.fail("behavior.wander_dist_max", "is below behavior.wander_dist_min")
	}
	if !(b.FollowBandInner > 0 && b.FollowBandInner <= 1) {
		c.fail("behavior.follow_band_inner", fmt.Sprintf("must be within (0,1] (got %g)", b.FollowBandInner))
	}
	c.positive("behavior.flee_boost", b.FleeBoost)
	if !(b.FleeReleaseFactor >= 1) {
		c.fail("behavior.flee_release_factor", fmt.Sprintf("must be >= 1 (got %g)", b.FleeReleaseFactor))
	}
	c.unit("behavior.talk_settle_friction", b.TalkSettleFriction)
	if b.GreetingTicks <= 0 || b.ResponseTicks <= 0 || b.FinishTicks <= 0 {
		c.fail("behavior.conversation_ticks", "greeting, response and finish must all be > 0")
	}
	if b.LineVisibleTicks < 0 {
		c.fail("behavior.line_visible_ticks", "must be >= 0")
	}

	return errors.Join(c.errs...)
}

// LoadConfig overlays the TOML file at path onto DefaultConfig and validates
// the result. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
