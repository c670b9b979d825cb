package agent

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Chance per tick of picking a new wander direction without being blocked
const patrolTurnChance = 0.02

// patrol wanders in a random direction, turning when the way ahead is
// blocked or leaves the workspace
func (a *Agent) patrol(env Env) {
	a.State = StatePatrol

	if a.heading.Length() == 0 || a.rng.Float64() < patrolTurnChance {
		a.turn()
	}

	next := a.Position.Add(a.heading.Mult(a.Speed))
	if a.blocked(next, env) || !inWorkspace(next, env) {
		a.turn()
		return
	}
	a.Position = next
}

func (a *Agent) turn() {
	angle := a.rng.Float64() * 2 * math.Pi
	a.heading = cp.ForAngle(angle)
}

func inWorkspace(pos cp.Vector, env Env) bool {
	ws := env.Config.Workspace
	if ws.IsEmpty() {
		return true
	}
	return ws.Contains(toPoint(pos))
}
