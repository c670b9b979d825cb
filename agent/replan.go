package agent

import (
	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

// Replan replaces the agent's path toward env.Goal. It runs once per
// PathUpdateInterval, and additionally right after the agent used up a path;
// that extra replan does not move the periodic schedule. It never runs while
// the agent is locked to the roadmap or patrolling. When the straight line to
// the goal is clear the agent heads there directly; otherwise it chases along
// the roadmap. An empty chase result leaves the agent idle until the next
// replan.
//
// It reports whether the path was replaced.
func (a *Agent) Replan(env Env) bool {
	if a.Locked || (a.HidingAware && env.TargetHidden) {
		return false
	}

	due := a.LastReplan.IsZero() || env.Now.Sub(a.LastReplan) >= env.Config.PathUpdateInterval
	if !due && !a.pathDone {
		return false
	}
	if due {
		a.LastReplan = env.Now
	}
	a.pathDone = false

	from := toPoint(a.Position)
	if env.Navigator.Clear(from, env.Goal, a.Radius) {
		a.Path = planner.Path{env.Goal}
		a.FollowingRoadmap = false
	} else {
		a.Path = skipPassed(env.Navigator.ChasePath(from, env.Goal), from, a.Radius, env.Navigator)
		a.FollowingRoadmap = true
	}

	a.refreshState()
	return true
}

// skipPassed drops leading waypoints while the one after them is already in
// sight. The chase starts at the vertex nearest the agent, which mid-edge is
// usually the vertex it just left.
func skipPassed(path planner.Path, from orb.Point, radius float64, nav Navigator) planner.Path {
	for len(path) > 1 && nav.Clear(from, path[1], radius) {
		path = path[1:]
	}
	return path
}
