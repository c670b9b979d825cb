package planner

import (
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"

	"github.com/paulmach/orb"
)

// ErrEmptyRoadmap is returned when a query runs before any roadmap was built
var ErrEmptyRoadmap = errors.New("roadmap not built")

// Planner owns a roadmap and the context it was built from. Every build and
// every query holds the lock, so the transient vertices of two point-to-point
// queries never live in the roadmap at the same time.
type Planner struct {
	mu      sync.Mutex
	ctx     *Context
	roadmap *Roadmap
	stats   BuildStats
}

// NewPlanner creates a planner without a roadmap
func NewPlanner(pc *Context) *Planner {
	return &Planner{ctx: pc}
}

// Build replaces the roadmap wholesale with a freshly constructed one. On
// failure the previous roadmap is kept.
func (p *Planner) Build(rng *rand.Rand) (BuildStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buildLocked(rng)
}

// Rebuild swaps in a new context (new obstacles or settings) and rebuilds
func (p *Planner) Rebuild(pc *Context, rng *rand.Rand) (BuildStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.ctx
	p.ctx = pc
	stats, err := p.buildLocked(rng)
	if err != nil {
		p.ctx = prev
	}
	return stats, err
}

func (p *Planner) buildLocked(rng *rand.Rand) (BuildStats, error) {
	rm, stats, err := BuildRoadmap(p.ctx, rng)
	if err != nil {
		return stats, err
	}
	p.roadmap = rm
	p.stats = stats
	return stats, nil
}

// Context returns the context the current roadmap was built from
func (p *Planner) Context() *Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

// Built reports whether a roadmap is available
func (p *Planner) Built() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roadmap != nil
}

// Stats returns the statistics of the last successful build
func (p *Planner) Stats() BuildStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Snapshot returns an independent copy of the current roadmap
func (p *Planner) Snapshot() (*Roadmap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roadmap == nil {
		return nil, ErrEmptyRoadmap
	}
	return p.roadmap.Clone(), nil
}

// FindPath answers a point-to-point query. Start and goal are inserted as
// transient vertices, linked to their nearest neighbors and searched with A*.
// Both are removed again before returning, whatever the outcome.
func (p *Planner) FindPath(start, goal orb.Point) (Path, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.roadmap == nil {
		log.Println("   ⚠️  Query before roadmap build")
		return nil, false
	}
	if p.ctx.Collision(start) || p.ctx.Collision(goal) {
		log.Println("   ⚠️  Start or goal configuration is in collision")
		return nil, false
	}

	rm := p.roadmap
	k := p.ctx.Config().QueryK

	startID := rm.AddVertex(start)
	goalID := rm.AddVertex(goal)
	defer func() {
		rm.RemoveVertex(goalID)
		rm.RemoveVertex(startID)
	}()

	startLinks := ConnectVertex(p.ctx, rm, startID, k)
	goalLinks := ConnectVertex(p.ctx, rm, goalID, k)
	if startLinks == 0 || goalLinks == 0 {
		log.Printf("   ⚠️  Could not connect query endpoints (start: %d links, goal: %d links)\n",
			startLinks, goalLinks)
		return nil, false
	}

	return AStar(rm, startID, goalID)
}

// ChasePath plans toward a moving goal: a biased search from the vertex
// nearest from toward the vertex nearest goal
func (p *Planner) ChasePath(from, goal orb.Point) Path {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.roadmap == nil {
		return nil
	}
	startID, _ := p.roadmap.Nearest(from)
	goalID, _ := p.roadmap.Nearest(goal)
	if startID < 0 || goalID < 0 {
		return nil
	}
	target, _ := p.roadmap.Vertex(goalID)
	return ChaseSearch(p.roadmap, startID, target.Config, p.ctx.Config().GoalEpsilon)
}

// LockPath returns up to n roadmap points nearest from, ordered as a greedy
// nearest-next tour starting at from
func (p *Planner) LockPath(from orb.Point, n int) Path {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.roadmap == nil || n <= 0 {
		return nil
	}

	ids := p.roadmap.KNearest(from, n)
	remaining := make([]orb.Point, 0, len(ids))
	for _, id := range ids {
		v, _ := p.roadmap.Vertex(id)
		remaining = append(remaining, v.Config)
	}

	path := make(Path, 0, len(remaining))
	cur := from
	for len(remaining) > 0 {
		sort.SliceStable(remaining, func(i, j int) bool {
			return Distance(cur, remaining[i]) < Distance(cur, remaining[j])
		})
		cur = remaining[0]
		path = append(path, cur)
		remaining = remaining[1:]
	}
	return path
}

// Collides reports whether a disk of the given radius at q hits an obstacle
func (p *Planner) Collides(q orb.Point, radius float64) bool {
	return p.Context().InCollision(q, radius)
}

// Clear reports whether a disk of the given radius can move straight from a to b
func (p *Planner) Clear(a, b orb.Point, radius float64) bool {
	return p.Context().SegmentClear(a, b, radius)
}

// InWorkspace reports whether q lies inside the sampling workspace
func (p *Planner) InWorkspace(q orb.Point) bool {
	return p.Context().InWorkspace(q)
}
