package scene

import (
	"log"
	"math"

	"github.com/paulmach/orb"

	"roadmap-planner/planner"
)

// Simplify removes boxes contained in other boxes and fuses boxes that share
// a full side, repeating until nothing changes. Neither step changes the
// covered area, so collision results are the same with fewer obstacles.
func Simplify(obstacles []planner.Obstacle, tolerance float64) []planner.Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}

	result := obstacles
	for {
		before := len(result)
		result = MergeAdjacent(RemoveContained(result), tolerance)
		if len(result) == before {
			break
		}
	}

	log.Printf("   Obstacles after simplification: %d (removed %d)\n",
		len(result), len(obstacles)-len(result))
	return result
}

// RemoveContained drops boxes fully contained in another box. Of two equal
// boxes the first is kept.
func RemoveContained(obstacles []planner.Obstacle) []planner.Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}

	contained := make([]bool, len(obstacles))
	for i := range obstacles {
		if contained[i] {
			continue
		}
		for j := range obstacles {
			if i == j || contained[j] {
				continue
			}
			if isBoundContained(obstacles[j].Bound(), obstacles[i].Bound()) {
				contained[j] = true
			}
		}
	}

	result := make([]planner.Obstacle, 0, len(obstacles))
	for i, obs := range obstacles {
		if !contained[i] {
			result = append(result, obs)
		}
	}
	return result
}

// isBoundContained checks if bound a is contained in bound b
func isBoundContained(a, b orb.Bound) bool {
	return a.Min.X() >= b.Min.X() && a.Max.X() <= b.Max.X() &&
		a.Min.Y() >= b.Min.Y() && a.Max.Y() <= b.Max.Y()
}

// MergeAdjacent fuses boxes that share a complete side into one box. The
// union of two such boxes is itself a box, so no area is gained or lost.
func MergeAdjacent(obstacles []planner.Obstacle, tolerance float64) []planner.Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}

	merged := make([]bool, len(obstacles))
	result := make([]planner.Obstacle, 0, len(obstacles))

	for i := range obstacles {
		if merged[i] {
			continue
		}
		merged[i] = true
		bound := obstacles[i].Bound()

		for j := i + 1; j < len(obstacles); j++ {
			if merged[j] {
				continue
			}
			if shareSide(bound, obstacles[j].Bound(), tolerance) {
				bound = bound.Union(obstacles[j].Bound())
				merged[j] = true
			}
		}

		result = append(result, planner.NewBoxObstacle(bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()))
	}

	return result
}

// shareSide checks if two boxes touch along one whole side
func shareSide(a, b orb.Bound, tolerance float64) bool {
	sameRows := nearlyEqual(a.Min.Y(), b.Min.Y(), tolerance) && nearlyEqual(a.Max.Y(), b.Max.Y(), tolerance)
	if sameRows && (nearlyEqual(a.Max.X(), b.Min.X(), tolerance) || nearlyEqual(b.Max.X(), a.Min.X(), tolerance)) {
		return true
	}
	sameColumns := nearlyEqual(a.Min.X(), b.Min.X(), tolerance) && nearlyEqual(a.Max.X(), b.Max.X(), tolerance)
	return sameColumns && (nearlyEqual(a.Max.Y(), b.Min.Y(), tolerance) || nearlyEqual(b.Max.Y(), a.Min.Y(), tolerance))
}

func nearlyEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
