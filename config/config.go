// Package config provides configuration loading and access for the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all environment configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Agent     AgentConfig     `yaml:"agent"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Reward    RewardConfig    `yaml:"reward"`
	Field     FieldConfig     `yaml:"field"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// Vec3 is a YAML-friendly 3D vector.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec converts to a gonum vector.
func (v Vec3) Vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// Range is a closed interval sampled uniformly.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// PhysicsConfig holds integrator and collider parameters.
type PhysicsConfig struct {
	DT                float64 `yaml:"dt"`                  // Fixed tick duration in seconds
	Mass              float64 `yaml:"mass"`                // Agent body mass
	Drag              float64 `yaml:"drag"`                // Linear velocity damping per second
	BodyRadius        float64 `yaml:"body_radius"`         // Agent collision sphere
	BeakContactRadius float64 `yaml:"beak_contact_radius"` // Trigger probe around the beak tip
}

// AgentConfig holds agent control parameters.
type AgentConfig struct {
	MoveForce      float64 `yaml:"move_force"`
	PitchSpeed     float64 `yaml:"pitch_speed"`     // Degrees per second at full pitch rate
	YawSpeed       float64 `yaml:"yaw_speed"`       // Degrees per second at full yaw rate
	MaxPitch       float64 `yaml:"max_pitch"`       // Degrees
	SmoothRate     float64 `yaml:"smooth_rate"`     // Rate-limit for pitch/yaw targets, units per second
	BeakOffset     Vec3    `yaml:"beak_offset"`     // Beak tip in body space
	BeakTipRadius  float64 `yaml:"beak_tip_radius"` // Max distance from tip to nectar for feeding
	ResetSmoothing bool    `yaml:"reset_smoothing"` // Clear smoothed rates at episode start
}

// SpawnConfig holds episode spawn sampling parameters.
type SpawnConfig struct {
	Attempts      int     `yaml:"attempts"`
	FrontChance   float64 `yaml:"front_chance"`   // Probability of spawning in front of a flower (training)
	FrontDistance Range   `yaml:"front_distance"` // Offset along the flower up axis
	Height        Range   `yaml:"height"`
	Radius        Range   `yaml:"radius"`
	Pitch         Range   `yaml:"pitch"` // Degrees
	Clearance     float64 `yaml:"clearance"`
}

// RewardConfig holds reward shaping constants.
type RewardConfig struct {
	Feed       float64 `yaml:"feed"`
	AlignBonus float64 `yaml:"align_bonus"`
	Boundary   float64 `yaml:"boundary"`
}

// FieldConfig holds flower field layout and geometry.
type FieldConfig struct {
	Diameter     float64    `yaml:"diameter"`      // Normalizes the distance observation
	FeedAmount   float64    `yaml:"feed_amount"`   // Nectar requested per feeding contact
	GroupTilt    float64    `yaml:"group_tilt"`    // Degrees of roll/pitch jitter per plant group at reset
	Origin       Vec3       `yaml:"origin"`        // Center of the spawn hemisphere
	NectarOffset float64    `yaml:"nectar_offset"` // Nectar sensor distance along the flower up axis
	NectarRadius float64    `yaml:"nectar_radius"`
	PetalRadius  float64    `yaml:"petal_radius"`
	Boundary     BoxConfig  `yaml:"boundary"`
	Layout       NodeConfig `yaml:"layout"`
}

// BoxConfig is an axis-aligned box.
type BoxConfig struct {
	Min Vec3 `yaml:"min"`
	Max Vec3 `yaml:"max"`
}

// Box converts to a gonum box.
func (b BoxConfig) Box() r3.Box {
	return r3.NewBox(b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// Layout node kinds.
const (
	KindContainer  = "container"
	KindPlantGroup = "plant_group"
	KindFlower     = "flower"
)

// NodeConfig is one node of the declarative scene layout.
// Positions are relative to the parent node.
type NodeConfig struct {
	Name     string       `yaml:"name,omitempty"`
	Kind     string       `yaml:"kind,omitempty"` // container (default), plant_group, flower
	Position Vec3         `yaml:"position"`
	Tilt     Tilt         `yaml:"tilt,omitempty"` // flower up-axis tilt
	Children []NodeConfig `yaml:"children,omitempty"`
}

// UnmarshalYAML replaces the node wholesale. A layout given in a user
// overlay must not inherit the default tree's children.
func (n *NodeConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain NodeConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = NodeConfig(p)
	return nil
}

// Tilt orients a flower's up axis, in degrees.
type Tilt struct {
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
}

// EpisodeConfig holds trainer-facing episode parameters.
type EpisodeConfig struct {
	Train    bool `yaml:"train"`
	MaxSteps int  `yaml:"max_steps"` // 0 = unbounded
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowEpisodes int `yaml:"window_episodes"`
	PerfWindow     int `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FlowerCount int // Flower leaves in the layout
	GroupCount  int // Plant groups in the layout
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks ranges and the layout tree.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT))
	}
	if c.Physics.Mass <= 0 {
		errs = append(errs, fmt.Errorf("physics.mass must be positive, got %v", c.Physics.Mass))
	}
	if c.Spawn.Attempts < 1 {
		errs = append(errs, fmt.Errorf("spawn.attempts must be at least 1, got %d", c.Spawn.Attempts))
	}
	if c.Field.Diameter <= 0 {
		errs = append(errs, fmt.Errorf("field.diameter must be positive, got %v", c.Field.Diameter))
	}
	if c.Field.FeedAmount <= 0 || c.Field.FeedAmount > 1 {
		errs = append(errs, fmt.Errorf("field.feed_amount must be in (0, 1], got %v", c.Field.FeedAmount))
	}
	for name, r := range map[string]Range{
		"spawn.front_distance": c.Spawn.FrontDistance,
		"spawn.height":         c.Spawn.Height,
		"spawn.radius":         c.Spawn.Radius,
		"spawn.pitch":          c.Spawn.Pitch,
	} {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("%s: min %v exceeds max %v", name, r.Min, r.Max))
		}
	}
	if err := validateNode(&c.Field.Layout, "layout"); err != nil {
		errs = append(errs, err)
	}
	flowers, _ := countNodes(&c.Field.Layout)
	if c.Episode.Train && flowers == 0 {
		errs = append(errs, errors.New("training requires at least one flower in field.layout"))
	}
	return errors.Join(errs...)
}

func validateNode(n *NodeConfig, path string) error {
	switch n.Kind {
	case "", KindContainer, KindPlantGroup:
	case KindFlower:
		if len(n.Children) > 0 {
			return fmt.Errorf("%s: flower nodes cannot have children", path)
		}
	default:
		return fmt.Errorf("%s: unknown node kind %q", path, n.Kind)
	}
	for i := range n.Children {
		if err := validateNode(&n.Children[i], fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func countNodes(n *NodeConfig) (flowers, groups int) {
	switch n.Kind {
	case KindFlower:
		return 1, 0
	case KindPlantGroup:
		groups++
	}
	for i := range n.Children {
		f, g := countNodes(&n.Children[i])
		flowers += f
		groups += g
	}
	return flowers, groups
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.FlowerCount, c.Derived.GroupCount = countNodes(&c.Field.Layout)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
