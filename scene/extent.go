package scene

import (
	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

// Extent is the bounding box of every obstacle grown by margin. It reports
// false when there are no obstacles.
func Extent(obstacles []planner.Obstacle, margin float64) (orb.Bound, bool) {
	if len(obstacles) == 0 {
		return orb.Bound{}, false
	}

	bound := obstacles[0].Bound()
	for _, obs := range obstacles[1:] {
		bound = bound.Union(obs.Bound())
	}
	return bound.Pad(margin), true
}
