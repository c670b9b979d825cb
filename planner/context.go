package planner

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Context is the immutable planning input shared by sampling, connection and
// queries: the scene obstacles, their index and the planner settings.
type Context struct {
	config    Config
	obstacles []Obstacle
	index     *ObstacleIndex
}

// NewContext validates the configuration and indexes the obstacles
func NewContext(cfg Config, obstacles []Obstacle) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}

	owned := make([]Obstacle, len(obstacles))
	copy(owned, obstacles)

	return &Context{
		config:    cfg,
		obstacles: owned,
		index:     NewObstacleIndex(owned),
	}, nil
}

func (pc *Context) Config() Config { return pc.config }

// Obstacles returns a copy of the scene obstacles
func (pc *Context) Obstacles() []Obstacle {
	out := make([]Obstacle, len(pc.obstacles))
	copy(out, pc.obstacles)
	return out
}

// InCollision reports whether a disk of the given radius centred at p
// overlaps any obstacle
func (pc *Context) InCollision(p orb.Point, radius float64) bool {
	for _, obs := range pc.index.Candidates(orb.Bound{Min: p, Max: p}, radius) {
		if obs.Contains(p, radius) {
			return true
		}
	}
	return false
}

// Collision is the robot collision test used by the sampler and the
// connector: the point padded by the robot radius
func (pc *Context) Collision(p orb.Point) bool {
	return pc.InCollision(p, pc.config.RobotRadius)
}

// SegmentClear reports whether the straight segment a-b stays clear of every
// obstacle padded by radius
func (pc *Context) SegmentClear(a, b orb.Point, radius float64) bool {
	bound := orb.MultiPoint{a, b}.Bound()
	for _, obs := range pc.index.Candidates(bound, radius) {
		if obs.SegmentIntersects(a, b, radius) {
			return false
		}
	}
	return true
}

// InWorkspace checks if p lies within the sampling workspace
func (pc *Context) InWorkspace(p orb.Point) bool {
	return pc.config.Workspace.Contains(p)
}
