package agent

import (
	"log"

	"github.com/jakecoffman/cp"
)

// Tick advances the agent by one simulation step.
//
// A hiding-aware agent patrols while the target is hidden. A locked agent
// keeps hopping along its lock path until strictly after LockExpiry, holding
// position once that path is used up. Otherwise the agent steps toward its
// next waypoint; a step that would collide is not taken, and when the agent
// was moving directly (not along the roadmap) it locks onto the roadmap.
func (a *Agent) Tick(env Env) {
	if a.HidingAware && env.TargetHidden {
		a.patrol(env)
		return
	}

	if a.Locked {
		if !env.Now.After(a.LockExpiry) {
			a.State = StateRoadmapLocked
			a.step(env)
			return
		}
		a.Locked = false
		log.Printf("🔓 Agent %s released from roadmap lock\n", a.Name)
	}

	a.step(env)
	a.refreshState()
}

// step moves toward the current waypoint, snapping onto it when it is closer
// than one step
func (a *Agent) step(env Env) {
	if len(a.Path) == 0 {
		return
	}

	target := toVector(a.Path[0])
	delta := target.Sub(a.Position)
	dist := delta.Length()

	if dist < a.Speed {
		a.Position = target
		a.Path = a.Path[1:]
		if len(a.Path) == 0 {
			a.pathDone = true
		}
		return
	}

	next := a.Position.Add(delta.Mult(a.Speed / dist))
	if a.blocked(next, env) {
		if !a.FollowingRoadmap {
			a.lock(env)
		}
		return
	}
	a.Position = next
}

// lock restricts the agent to the roadmap points around it for the cooldown
func (a *Agent) lock(env Env) {
	a.Locked = true
	a.LockExpiry = env.Now.Add(env.Config.LockCooldown)
	a.FollowingRoadmap = true
	a.Path = env.Navigator.LockPath(toPoint(a.Position), env.Config.LockNeighbors)
	a.State = StateRoadmapLocked

	log.Printf("🔒 Agent %s locked to roadmap (%d points) until %s\n",
		a.Name, len(a.Path), a.LockExpiry.Format("15:04:05.000"))
}

// blocked reports whether a disk at pos overlaps an obstacle or comes closer
// than the configured separation to another agent
func (a *Agent) blocked(pos cp.Vector, env Env) bool {
	for _, bb := range env.Obstacles {
		if pos.Distance(bb.ClampVect(&pos)) < a.Radius {
			return true
		}
	}
	for _, other := range env.Others {
		if pos.Distance(other) < env.Config.AgentSeparation {
			return true
		}
	}
	return false
}

func (a *Agent) refreshState() {
	switch {
	case a.Locked:
		a.State = StateRoadmapLocked
	case len(a.Path) == 0:
		a.State = StateIdle
	default:
		a.State = StateDirectMove
	}
}
