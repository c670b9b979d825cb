package planner

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"
)

// ErrInfeasibleSampling is returned when the requested number of samples
// cannot be placed within the attempt budget
var ErrInfeasibleSampling = errors.New("infeasible sampling")

// SampleStats describes one sampling run
type SampleStats struct {
	Accepted          int `json:"accepted"`
	Attempts          int `json:"attempts"`
	RejectedCollision int `json:"rejectedCollision"`
	RejectedCluster   int `json:"rejectedCluster"`
}

// Sample draws uniform random configurations in the workspace and keeps those
// that are collision-free and at least MinClusterDistance away from every
// sample accepted before them
func Sample(pc *Context, rng *rand.Rand) ([]orb.Point, SampleStats, error) {
	cfg := pc.Config()
	ws := cfg.Workspace
	budget := cfg.attemptBudget()

	var stats SampleStats
	points := make([]orb.Point, 0, cfg.SampleCount)
	accepted := NewRoadmap() // spatial index over accepted samples only

	for len(points) < cfg.SampleCount && stats.Attempts < budget {
		stats.Attempts++
		q := orb.Point{
			ws.Min.X() + rng.Float64()*(ws.Max.X()-ws.Min.X()),
			ws.Min.Y() + rng.Float64()*(ws.Max.Y()-ws.Min.Y()),
		}

		if pc.Collision(q) {
			stats.RejectedCollision++
			continue
		}
		if inCluster(accepted, q, cfg.MinClusterDistance) {
			stats.RejectedCluster++
			continue
		}

		points = append(points, q)
		accepted.AddVertex(q)
	}

	stats.Accepted = len(points)
	if len(points) < cfg.SampleCount {
		return points, stats, fmt.Errorf("%w: placed %d of %d samples in %d attempts",
			ErrInfeasibleSampling, len(points), cfg.SampleCount, stats.Attempts)
	}
	return points, stats, nil
}

// inCluster checks if q is closer than minDist to an accepted sample
func inCluster(accepted *Roadmap, q orb.Point, minDist float64) bool {
	if minDist <= 0 {
		return false
	}
	return len(accepted.Within(q, minDist)) > 0
}
