package sim

import (
	"github.com/paulmach/orb"

	"roadmap-planner/agent"
	"roadmap-planner/planner"
)

// QueryHook is told about every chase search an agent runs
type QueryHook func(kind string, start, goal orb.Point, path planner.Path)

// recordingNavigator reports chase searches to a hook. Lock paths and
// line-of-sight checks are not queries and pass straight through.
type recordingNavigator struct {
	agent.Navigator
	hook QueryHook
}

func (r *recordingNavigator) ChasePath(from, goal orb.Point) planner.Path {
	path := r.Navigator.ChasePath(from, goal)
	if r.hook != nil {
		r.hook("chase", from, goal, path)
	}
	return path
}
