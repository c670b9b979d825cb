package agent

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

// State is the behavior an agent is currently in
type State string

const (
	StateIdle          State = "idle"           // no path
	StateDirectMove    State = "direct-move"    // advancing toward the next waypoint
	StateRoadmapLocked State = "roadmap-locked" // hopping between nearby roadmap points until the lock expires
	StatePatrol        State = "patrol"         // target hidden, wandering
)

// Navigator is the part of the planner an agent needs while moving
type Navigator interface {
	ChasePath(from, goal orb.Point) planner.Path
	LockPath(from orb.Point, n int) planner.Path
	Clear(a, b orb.Point, radius float64) bool
}

// Env is everything an agent sees during one tick. Others is a snapshot of
// the other agents' positions taken once per tick, not including the agent
// itself.
type Env struct {
	Now          time.Time
	Goal         orb.Point
	TargetHidden bool
	Others       []cp.Vector
	Obstacles    []cp.BB
	Navigator    Navigator
	Config       planner.Config
}

// Options describe one agent variant
type Options struct {
	Name        string
	Position    cp.Vector
	Speed       float64
	Radius      float64
	HidingAware bool
	Seed        int64
}

// Agent is a disk-shaped pursuer following roadmap paths toward a moving goal.
// Its path and lock flags are only ever mutated by its own methods.
type Agent struct {
	ID          string
	Name        string
	Position    cp.Vector
	Path        planner.Path
	Speed       float64
	Radius      float64
	HidingAware bool
	State       State

	Locked           bool
	LockExpiry       time.Time
	FollowingRoadmap bool
	LastReplan       time.Time

	// pathDone is set when the last waypoint is reached, asking for a replan
	pathDone bool

	heading cp.Vector
	rng     *rand.Rand
}

// New creates an idle agent
func New(opts Options) *Agent {
	return &Agent{
		ID:          uuid.NewString(),
		Name:        opts.Name,
		Position:    opts.Position,
		Speed:       opts.Speed,
		Radius:      opts.Radius,
		HidingAware: opts.HidingAware,
		State:       StateIdle,
		rng:         rand.New(rand.NewSource(opts.Seed)),
	}
}

// Snapshot is the serializable view of an agent broadcast to clients
type Snapshot struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	X                float64      `json:"x"`
	Y                float64      `json:"y"`
	State            State        `json:"state"`
	Locked           bool         `json:"locked"`
	FollowingRoadmap bool         `json:"following_roadmap"`
	Path             [][2]float64 `json:"path"`
}

// Snapshot copies the agent's current state
func (a *Agent) Snapshot() Snapshot {
	path := make([][2]float64, len(a.Path))
	for i, p := range a.Path {
		path[i] = [2]float64{p.X(), p.Y()}
	}
	return Snapshot{
		ID:               a.ID,
		Name:             a.Name,
		X:                a.Position.X,
		Y:                a.Position.Y,
		State:            a.State,
		Locked:           a.Locked,
		FollowingRoadmap: a.FollowingRoadmap,
		Path:             path,
	}
}

// ObstacleBoxes converts planner obstacles into the boxes used for agent
// collision checks
func ObstacleBoxes(obstacles []planner.Obstacle) []cp.BB {
	boxes := make([]cp.BB, len(obstacles))
	for i, o := range obstacles {
		boxes[i] = cp.BB{L: o.XMin(), B: o.YMin(), R: o.XMax(), T: o.YMax()}
	}
	return boxes
}

func toPoint(v cp.Vector) orb.Point {
	return orb.Point{v.X, v.Y}
}

func toVector(p orb.Point) cp.Vector {
	return cp.Vector{X: p.X(), Y: p.Y()}
}
