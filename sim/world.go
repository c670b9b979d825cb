package sim

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/paulmach/orb"

	"roadmap-planner/agent"
	"roadmap-planner/planner"
)

// AgentSpec describes one agent variant. Every variant shares the planner
// configuration; only its body and behavior differ.
type AgentSpec struct {
	Name        string  `yaml:"name" json:"name"`
	X           float64 `yaml:"x" json:"x"`
	Y           float64 `yaml:"y" json:"y"`
	Speed       float64 `yaml:"speed" json:"speed"`
	Radius      float64 `yaml:"radius" json:"radius"`
	HidingAware bool    `yaml:"hiding_aware" json:"hidingAware"`
}

// DefaultAgents returns the seekers of the hide-and-seek map
func DefaultAgents() []AgentSpec {
	return []AgentSpec{
		{Name: "chaser", X: 200, Y: 300, Speed: 3, Radius: 12.5},
		{Name: "hunter", X: 800, Y: 300, Speed: 2.5, Radius: 12.5, HidingAware: true},
		{Name: "scout", X: 500, Y: 800, Speed: 4, Radius: 10, HidingAware: true},
	}
}

// Options configure the world loop
type Options struct {
	TickRate time.Duration
	Seed     int64
}

// Status is a point-in-time view of the world
type Status struct {
	Running  bool             `json:"running"`
	Ticks    uint64           `json:"ticks"`
	Goal     [2]float64       `json:"goal"`
	Hidden   bool             `json:"hidden"`
	Vertices int              `json:"vertices"`
	Edges    int              `json:"edges"`
	Agents   []agent.Snapshot `json:"agents"`
}

// World drives a set of agents chasing a goal across one shared roadmap
type World struct {
	IsRunning     bool
	broadcastFunc func(Message)

	planner   *planner.Planner
	navigator agent.Navigator
	specs     []AgentSpec
	agents    []*agent.Agent
	obstacles []cp.BB

	goal   orb.Point
	hidden bool
	ticks  uint64
	resets int64

	opts     Options
	stopChan chan bool
	mu       sync.RWMutex
}

// NewWorld creates a world around p. The roadmap is not built until Reset.
func NewWorld(p *planner.Planner, specs []AgentSpec, opts Options, broadcastFunc func(Message)) *World {
	if opts.TickRate <= 0 {
		opts.TickRate = time.Second / 30
	}
	return &World{
		broadcastFunc: broadcastFunc,
		planner:       p,
		navigator:     p,
		specs:         specs,
		opts:          opts,
		stopChan:      make(chan bool),
	}
}

// SetQueryHook records every chase search the agents run
func (w *World) SetQueryHook(hook QueryHook) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.navigator = &recordingNavigator{Navigator: w.planner, hook: hook}
}

// Reset rebuilds the roadmap from the current context and respawns the agents
func (w *World) Reset() (planner.BuildStats, error) {
	return w.rebuild(nil)
}

// Rebuild swaps in a new planner context (e.g. reloaded obstacles), rebuilds
// the roadmap and respawns the agents
func (w *World) Rebuild(pc *planner.Context) (planner.BuildStats, error) {
	return w.rebuild(pc)
}

func (w *World) rebuild(pc *planner.Context) (planner.BuildStats, error) {
	w.mu.Lock()

	rng := rand.New(rand.NewSource(w.seedLocked()))
	var (
		stats planner.BuildStats
		err   error
	)
	if pc != nil {
		stats, err = w.planner.Rebuild(pc, rng)
	} else {
		stats, err = w.planner.Build(rng)
	}
	if err != nil {
		w.mu.Unlock()
		return stats, fmt.Errorf("reset world: %w", err)
	}

	w.obstacles = agent.ObstacleBoxes(w.planner.Context().Obstacles())
	w.agents = make([]*agent.Agent, 0, len(w.specs))
	for i, spec := range w.specs {
		w.agents = append(w.agents, agent.New(agent.Options{
			Name:        spec.Name,
			Position:    cp.Vector{X: spec.X, Y: spec.Y},
			Speed:       spec.Speed,
			Radius:      spec.Radius,
			HidingAware: spec.HidingAware,
			Seed:        w.opts.Seed + int64(i) + 1,
		}))
	}
	w.ticks = 0
	w.resets++
	w.mu.Unlock()

	log.Printf("🔄 World reset: %d agents on %d vertices / %d edges\n",
		len(w.specs), stats.Vertices, stats.Edges)
	w.broadcast(MessageTypeRebuild, stats)
	return stats, nil
}

// seedLocked derives the build seed; a zero seed means a fresh random map
// every reset
func (w *World) seedLocked() int64 {
	if w.opts.Seed == 0 {
		return time.Now().UnixNano()
	}
	return w.opts.Seed + w.resets
}

// SetGoal moves the dynamic goal (the player) and sets its hidden flag
func (w *World) SetGoal(goal orb.Point, hidden bool) {
	w.mu.Lock()
	w.goal = goal
	w.hidden = hidden
	w.mu.Unlock()

	log.Printf("📍 Goal set: (%.1f, %.1f) hidden=%v\n", goal.X(), goal.Y(), hidden)
	w.broadcast(MessageTypeGoal, map[string]interface{}{
		"x":      goal.X(),
		"y":      goal.Y(),
		"hidden": hidden,
	})
}

// Tick advances every agent by one step. Agent positions are snapshotted once
// at the start of the tick and every agent checks collisions against that
// snapshot.
func (w *World) Tick(now time.Time) Status {
	w.mu.Lock()

	positions := make([]cp.Vector, len(w.agents))
	for i, a := range w.agents {
		positions[i] = a.Position
	}

	cfg := w.planner.Context().Config()
	for i, a := range w.agents {
		env := agent.Env{
			Now:          now,
			Goal:         w.goal,
			TargetHidden: w.hidden,
			Others:       others(positions, i),
			Obstacles:    w.obstacles,
			Navigator:    w.navigator,
			Config:       cfg,
		}
		a.Replan(env)
		a.Tick(env)
	}
	w.ticks++

	status := w.statusLocked()
	w.mu.Unlock()

	w.broadcast(MessageTypeTick, status)
	return status
}

// others returns the snapshot without entry skip
func others(positions []cp.Vector, skip int) []cp.Vector {
	out := make([]cp.Vector, 0, len(positions)-1)
	for i, p := range positions {
		if i != skip {
			out = append(out, p)
		}
	}
	return out
}

// Start runs the tick loop in the background
func (w *World) Start() {
	w.mu.Lock()
	if w.IsRunning {
		w.mu.Unlock()
		return
	}
	w.IsRunning = true
	w.mu.Unlock()

	log.Printf("🚀 Simulation started (tick %v)\n", w.opts.TickRate)
	go w.runSimulation()
}

// Stop halts the tick loop
func (w *World) Stop() {
	w.mu.Lock()
	if !w.IsRunning {
		w.mu.Unlock()
		return
	}
	w.IsRunning = false
	w.mu.Unlock()

	w.stopChan <- true
	log.Println("🛑 Simulation stopped")
}

func (w *World) runSimulation() {
	ticker := time.NewTicker(w.opts.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case now := <-ticker.C:
			w.Tick(now)
		}
	}
}

// Status returns the current world state
func (w *World) Status() Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.statusLocked()
}

func (w *World) statusLocked() Status {
	agents := make([]agent.Snapshot, len(w.agents))
	for i, a := range w.agents {
		agents[i] = a.Snapshot()
	}
	stats := w.planner.Stats()
	return Status{
		Running:  w.IsRunning,
		Ticks:    w.ticks,
		Goal:     [2]float64{w.goal.X(), w.goal.Y()},
		Hidden:   w.hidden,
		Vertices: stats.Vertices,
		Edges:    stats.Edges,
		Agents:   agents,
	}
}

func (w *World) broadcast(kind string, data interface{}) {
	if w.broadcastFunc == nil {
		return
	}
	w.broadcastFunc(Message{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}
