package agent

import (
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

type fakeNavigator struct {
	clear      bool
	clearTo    func(a, b orb.Point) bool
	chase      planner.Path
	lock       planner.Path
	chaseCalls int
	lockCalls  int
}

func (f *fakeNavigator) ChasePath(from, goal orb.Point) planner.Path {
	f.chaseCalls++
	return f.chase.Clone()
}

func (f *fakeNavigator) LockPath(from orb.Point, n int) planner.Path {
	f.lockCalls++
	return f.lock.Clone()
}

func (f *fakeNavigator) Clear(a, b orb.Point, radius float64) bool {
	if f.clearTo != nil {
		return f.clearTo(a, b)
	}
	return f.clear
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(nav Navigator, now time.Time) Env {
	return Env{
		Now:       now,
		Goal:      orb.Point{100, 0},
		Navigator: nav,
		Config:    planner.DefaultConfig(),
	}
}

func near(a, b cp.Vector) bool {
	return a.Distance(b) < 1e-9
}

func newTestAgent(pos cp.Vector) *Agent {
	return New(Options{Name: "seeker", Position: pos, Speed: 5, Radius: 5, Seed: 1})
}

func TestStepSnapsOntoCloseWaypoint(t *testing.T) {
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	a.Path = planner.Path{{3, 3}, {50, 3}}

	a.Tick(newTestEnv(&fakeNavigator{}, t0))

	if a.Position != (cp.Vector{X: 3, Y: 3}) {
		t.Fatalf("expected snap to (3, 3), got %v", a.Position)
	}
	if len(a.Path) != 1 {
		t.Fatalf("expected waypoint to be popped, %d left", len(a.Path))
	}
	if a.State != StateDirectMove {
		t.Fatalf("expected %s, got %s", StateDirectMove, a.State)
	}
}

func TestStepMovesBySpeed(t *testing.T) {
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	a.Path = planner.Path{{100, 0}}

	a.Tick(newTestEnv(&fakeNavigator{}, t0))

	if !near(a.Position, cp.Vector{X: 5, Y: 0}) {
		t.Fatalf("expected (5, 0), got %v", a.Position)
	}

	a.Path = nil
	a.Tick(newTestEnv(&fakeNavigator{}, t0))
	if a.State != StateIdle {
		t.Fatalf("expected idle without a path, got %s", a.State)
	}
}

func TestLockCooldown(t *testing.T) {
	nav := &fakeNavigator{clear: true, lock: planner.Path{{0, -100}}}
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	env := newTestEnv(nav, t0)
	env.Obstacles = []cp.BB{{L: 8, B: -50, R: 20, T: 50}}

	if !a.Replan(env) {
		t.Fatalf("expected first replan to run")
	}
	if a.FollowingRoadmap || len(a.Path) != 1 {
		t.Fatalf("expected a direct path to the goal, got %v", a.Path)
	}

	a.Tick(env)
	if !a.Locked || a.State != StateRoadmapLocked {
		t.Fatalf("expected collision to lock the agent, state %s", a.State)
	}
	if !a.LockExpiry.Equal(t0.Add(3000 * time.Millisecond)) {
		t.Fatalf("expected lock until T+3000ms, got %v", a.LockExpiry)
	}
	if nav.lockCalls != 1 {
		t.Fatalf("expected one lock path request, got %d", nav.lockCalls)
	}

	for _, ms := range []int{1000, 2000, 3000} {
		env.Now = t0.Add(time.Duration(ms) * time.Millisecond)
		if a.Replan(env) {
			t.Fatalf("replan replaced the path while locked at T+%dms", ms)
		}
		a.Tick(env)
		if !a.Locked {
			t.Fatalf("expected agent to stay locked at T+%dms", ms)
		}
	}

	env.Now = t0.Add(3001 * time.Millisecond)
	a.Tick(env)
	if a.Locked {
		t.Fatalf("expected lock to be released strictly after T+3000ms")
	}
	if !a.Replan(env) {
		t.Fatalf("expected replan once the lock is released")
	}
}

func TestLockedAgentHoldsWhenLockPathIsUsedUp(t *testing.T) {
	nav := &fakeNavigator{lock: planner.Path{{0, -2}}}
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	a.Path = planner.Path{{100, 0}}
	env := newTestEnv(nav, t0)
	env.Others = []cp.Vector{{X: 10, Y: 0}}

	a.Tick(env)
	if !a.Locked {
		t.Fatalf("expected agent collision to lock")
	}

	env.Now = t0.Add(100 * time.Millisecond)
	a.Tick(env)
	if a.Position != (cp.Vector{X: 0, Y: -2}) || len(a.Path) != 0 {
		t.Fatalf("expected the single lock point to be reached, at %v with %d left", a.Position, len(a.Path))
	}

	env.Now = t0.Add(200 * time.Millisecond)
	a.Tick(env)
	if !a.Locked || a.Position != (cp.Vector{X: 0, Y: -2}) {
		t.Fatalf("expected agent to hold its lock, locked=%v at %v", a.Locked, a.Position)
	}
}

func TestCollisionWhileFollowingRoadmapWaits(t *testing.T) {
	nav := &fakeNavigator{chase: planner.Path{{100, 0}}}
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	env := newTestEnv(nav, t0)
	env.Others = []cp.Vector{{X: 10, Y: 0}}

	a.Replan(env)
	if !a.FollowingRoadmap {
		t.Fatalf("expected a roadmap chase when the goal is not in sight")
	}

	a.Tick(env)
	if a.Locked {
		t.Fatalf("agent following the roadmap must not lock")
	}
	if a.Position != (cp.Vector{X: 0, Y: 0}) {
		t.Fatalf("expected agent to wait, moved to %v", a.Position)
	}
	if nav.lockCalls != 0 {
		t.Fatalf("expected no lock path request, got %d", nav.lockCalls)
	}
}

func TestReplanCadence(t *testing.T) {
	nav := &fakeNavigator{chase: planner.Path{{50, 0}, {5000, 0}}}
	a := newTestAgent(cp.Vector{X: 0, Y: 0})

	var replans []time.Time
	for ms := 0; ms < 3000; ms += 10 {
		env := newTestEnv(nav, t0.Add(time.Duration(ms)*time.Millisecond))
		if a.Replan(env) {
			replans = append(replans, env.Now)
		}
		a.Tick(env)
	}

	if len(replans) != 3 {
		t.Fatalf("expected 3 replans in 3s, got %d", len(replans))
	}
	for i := 1; i < len(replans); i++ {
		if gap := replans[i].Sub(replans[i-1]); gap < time.Second {
			t.Fatalf("replans %d and %d only %v apart", i-1, i, gap)
		}
	}
	if nav.chaseCalls != 3 {
		t.Fatalf("expected 3 chase searches, got %d", nav.chaseCalls)
	}
}

func TestReplanSkipsWaypointsAlreadyPassed(t *testing.T) {
	goal := orb.Point{100, 200}
	chase := planner.Path{{0, 0}, {100, 0}, {100, 100}}

	tests := []struct {
		name    string
		clearTo func(a, b orb.Point) bool
		want    planner.Path
	}{
		{
			name:    "next vertex in sight",
			clearTo: func(a, b orb.Point) bool { return b != goal && b.Y() == 0 },
			want:    planner.Path{{100, 0}, {100, 100}},
		},
		{
			name:    "next vertex hidden",
			clearTo: func(a, b orb.Point) bool { return false },
			want:    chase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &fakeNavigator{chase: chase, clearTo: tt.clearTo}
			a := newTestAgent(cp.Vector{X: 50, Y: 0})
			env := newTestEnv(nav, t0)
			env.Goal = goal

			if !a.Replan(env) {
				t.Fatalf("expected replan to run")
			}
			if len(a.Path) != len(tt.want) {
				t.Fatalf("expected path %v, got %v", tt.want, a.Path)
			}
			for i := range tt.want {
				if a.Path[i] != tt.want[i] {
					t.Fatalf("expected path %v, got %v", tt.want, a.Path)
				}
			}
		})
	}
}

func TestReplanWhenPathExhausted(t *testing.T) {
	nav := &fakeNavigator{}
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	env := newTestEnv(nav, t0)

	if !a.Replan(env) {
		t.Fatalf("expected first replan to run")
	}
	a.Path = planner.Path{{3, 0}}

	env.Now = t0.Add(10 * time.Millisecond)
	if a.Replan(env) {
		t.Fatalf("replan ran before the interval with a path left")
	}
	a.Tick(env)
	if len(a.Path) != 0 {
		t.Fatalf("expected the last waypoint to be reached")
	}

	env.Now = t0.Add(20 * time.Millisecond)
	if !a.Replan(env) {
		t.Fatalf("expected an immediate replan once the path is used up")
	}
	if !a.LastReplan.Equal(t0) {
		t.Fatalf("exhaustion replan moved the schedule to %v", a.LastReplan)
	}

	// the chase came back empty; the agent waits for the interval
	env.Now = t0.Add(30 * time.Millisecond)
	if a.Replan(env) {
		t.Fatalf("an empty chase must not trigger a replan every tick")
	}
	env.Now = t0.Add(time.Second)
	if !a.Replan(env) {
		t.Fatalf("expected the periodic replan at T+1s")
	}
	if nav.chaseCalls != 3 {
		t.Fatalf("expected 3 chase searches, got %d", nav.chaseCalls)
	}
}

func TestObstacleCornerIsRound(t *testing.T) {
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	env := newTestEnv(&fakeNavigator{}, t0)
	env.Obstacles = []cp.BB{{L: 10, B: 10, R: 20, T: 20}}

	// 4 units from each side but 5.66 from the corner
	if a.blocked(cp.Vector{X: 6, Y: 6}, env) {
		t.Fatalf("disk clear of the corner reported blocked")
	}
	if !a.blocked(cp.Vector{X: 8, Y: 8}, env) {
		t.Fatalf("disk overlapping the corner not blocked")
	}
	if !a.blocked(cp.Vector{X: 15, Y: 6}, env) {
		t.Fatalf("disk overlapping the bottom side not blocked")
	}
}

func TestEmptyChaseLeavesAgentIdle(t *testing.T) {
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	env := newTestEnv(&fakeNavigator{}, t0)

	if !a.Replan(env) {
		t.Fatalf("expected replan to run")
	}
	a.Tick(env)

	if a.State != StateIdle || a.Position != (cp.Vector{X: 0, Y: 0}) {
		t.Fatalf("expected idle agent in place, got %s at %v", a.State, a.Position)
	}
}

func TestPatrolWhileTargetHidden(t *testing.T) {
	cfg := planner.DefaultConfig()
	cfg.Workspace = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{200, 200}}
	obstacle := cp.BB{L: 120, B: 0, R: 140, T: 200}

	a := New(Options{Name: "patroller", Position: cp.Vector{X: 60, Y: 100}, Speed: 3, Radius: 5, HidingAware: true, Seed: 4})
	a.Path = planner.Path{{190, 100}}
	nav := &fakeNavigator{clear: true}

	for i := 0; i < 500; i++ {
		env := Env{
			Now:          t0.Add(time.Duration(i) * 33 * time.Millisecond),
			Goal:         orb.Point{190, 100},
			TargetHidden: true,
			Obstacles:    []cp.BB{obstacle},
			Navigator:    nav,
			Config:       cfg,
		}
		if a.Replan(env) {
			t.Fatalf("hiding-aware agent must not replan while the target is hidden")
		}
		a.Tick(env)

		if a.State != StatePatrol {
			t.Fatalf("expected patrol, got %s", a.State)
		}
		pos := a.Position
		if pos.Distance(obstacle.ClampVect(&pos)) < a.Radius {
			t.Fatalf("patrol entered obstacle at %v", a.Position)
		}
		if !cfg.Workspace.Contains(orb.Point{a.Position.X, a.Position.Y}) {
			t.Fatalf("patrol left the workspace at %v", a.Position)
		}
	}
	if a.Position == (cp.Vector{X: 60, Y: 100}) {
		t.Fatalf("expected patrol to move the agent")
	}
}

func TestUnawareAgentIgnoresHiddenTarget(t *testing.T) {
	a := newTestAgent(cp.Vector{X: 0, Y: 0})
	env := newTestEnv(&fakeNavigator{clear: true}, t0)
	env.TargetHidden = true

	if !a.Replan(env) {
		t.Fatalf("expected replan for an agent that cannot see hiding")
	}
	a.Tick(env)
	if a.State != StateDirectMove || !near(a.Position, cp.Vector{X: 5, Y: 0}) {
		t.Fatalf("expected direct move toward the goal, got %s at %v", a.State, a.Position)
	}
}

func TestObstacleBoxes(t *testing.T) {
	boxes := ObstacleBoxes([]planner.Obstacle{planner.NewBoxObstacle(1, 2, 3, 4)})

	if len(boxes) != 1 || boxes[0] != (cp.BB{L: 1, B: 2, R: 3, T: 4}) {
		t.Fatalf("unexpected boxes %v", boxes)
	}
}
