package planner

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
)

// ConnectionPolicy selects how roadmap vertices pick their neighbors
type ConnectionPolicy string

const (
	PolicyRadius ConnectionPolicy = "radius"
	PolicyKNN    ConnectionPolicy = "knn"
)

// EdgeCheck selects the local planner used to validate a straight edge
type EdgeCheck string

const (
	EdgeCheckInterpolate EdgeCheck = "interpolate"
	EdgeCheckSegment     EdgeCheck = "segment"
)

// Config holds every tunable of the roadmap planner and the agents that use it
type Config struct {
	Workspace          orb.Bound        `yaml:"-" json:"-"`
	SampleCount        int              `yaml:"sample_count" json:"sampleCount"`
	MaxSampleAttempts  int              `yaml:"max_sample_attempts" json:"maxSampleAttempts"`
	MinClusterDistance float64          `yaml:"min_cluster_distance" json:"minClusterDistance"`
	Policy             ConnectionPolicy `yaml:"policy" json:"policy"`
	ConnectionRadius   float64          `yaml:"connection_radius" json:"connectionRadius"`
	ConnectionK        int              `yaml:"connection_k" json:"connectionK"`
	RobotRadius        float64          `yaml:"robot_radius" json:"robotRadius"`
	InterpolationSteps int              `yaml:"interpolation_steps" json:"interpolationSteps"`
	EdgeCheck          EdgeCheck        `yaml:"edge_check" json:"edgeCheck"`
	PruneLoops         bool             `yaml:"prune_loops" json:"pruneLoops"`
	PruneDirected      bool             `yaml:"prune_directed" json:"pruneDirected"`
	QueryK             int              `yaml:"query_k" json:"queryK"`
	GoalEpsilon        float64          `yaml:"goal_epsilon" json:"goalEpsilon"`

	// agent-side settings, shared by every agent variant
	PathUpdateInterval time.Duration `yaml:"path_update_interval" json:"pathUpdateInterval"`
	LockCooldown       time.Duration `yaml:"lock_cooldown" json:"lockCooldown"`
	LockNeighbors      int           `yaml:"lock_neighbors" json:"lockNeighbors"`
	AgentSeparation    float64       `yaml:"agent_separation" json:"agentSeparation"`
}

// DefaultConfig returns the settings used by the hide-and-seek map
func DefaultConfig() Config {
	return Config{
		Workspace:          orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1000, 1000}},
		SampleCount:        100,
		MinClusterDistance: 30,
		Policy:             PolicyRadius,
		ConnectionRadius:   150,
		ConnectionK:        10,
		RobotRadius:        12.5,
		InterpolationSteps: 10,
		EdgeCheck:          EdgeCheckInterpolate,
		PruneLoops:         true,
		QueryK:             10,
		GoalEpsilon:        0.5,
		PathUpdateInterval: 1000 * time.Millisecond,
		LockCooldown:       3000 * time.Millisecond,
		LockNeighbors:      5,
		AgentSeparation:    25,
	}
}

// attemptBudget is the number of candidate draws the sampler may spend
func (c Config) attemptBudget() int {
	if c.MaxSampleAttempts > 0 {
		return c.MaxSampleAttempts
	}
	return c.SampleCount * 200
}

// Validate checks that the configuration can drive a build
func (c Config) Validate() error {
	if c.SampleCount <= 0 {
		return fmt.Errorf("sample count must be positive, got %d", c.SampleCount)
	}
	if c.Workspace.Max.X() <= c.Workspace.Min.X() || c.Workspace.Max.Y() <= c.Workspace.Min.Y() {
		return fmt.Errorf("workspace is empty: %v", c.Workspace)
	}
	if c.MinClusterDistance < 0 || c.RobotRadius < 0 {
		return fmt.Errorf("cluster distance and robot radius must not be negative")
	}
	switch c.Policy {
	case PolicyRadius:
		if c.ConnectionRadius <= 0 {
			return fmt.Errorf("connection radius must be positive, got %.2f", c.ConnectionRadius)
		}
	case PolicyKNN:
		if c.ConnectionK <= 0 {
			return fmt.Errorf("connection k must be positive, got %d", c.ConnectionK)
		}
	default:
		return fmt.Errorf("unknown connection policy %q", c.Policy)
	}
	switch c.EdgeCheck {
	case EdgeCheckInterpolate, EdgeCheckSegment:
	default:
		return fmt.Errorf("unknown edge check %q", c.EdgeCheck)
	}
	if c.InterpolationSteps < 2 {
		return fmt.Errorf("interpolation needs at least 2 steps, got %d", c.InterpolationSteps)
	}
	if c.QueryK <= 0 {
		return fmt.Errorf("query k must be positive, got %d", c.QueryK)
	}
	return nil
}
