package planner

import (
	"github.com/paulmach/orb"
)

// EdgeValid validates the straight local path a-b. The path is discretized
// into InterpolationSteps points (both ends included) and rejected when any of
// them is in collision.
func EdgeValid(pc *Context, a, b orb.Point) bool {
	cfg := pc.Config()
	for _, q := range Interpolate(a, b, cfg.InterpolationSteps) {
		if pc.Collision(q) {
			return false
		}
	}
	if cfg.EdgeCheck == EdgeCheckSegment {
		return pc.SegmentClear(a, b, cfg.RobotRadius)
	}
	return true
}

// ConnectAll links every vertex to its neighbors under the configured
// policy and returns the number of edges added and rejected
func ConnectAll(pc *Context, rm *Roadmap) (added, rejected int) {
	cfg := pc.Config()

	for _, v := range rm.Vertices() {
		var candidates []int
		switch cfg.Policy {
		case PolicyKNN:
			candidates = withoutSelf(rm.KNearest(v.Config, cfg.ConnectionK+1), v.ID, cfg.ConnectionK)
		default:
			// pairs are symmetric under the radius policy, so each is examined once
			for _, id := range rm.Within(v.Config, cfg.ConnectionRadius) {
				if id > v.ID {
					candidates = append(candidates, id)
				}
			}
		}

		for _, id := range candidates {
			if rm.HasEdge(v.ID, id) {
				continue
			}
			other, _ := rm.Vertex(id)
			if !EdgeValid(pc, v.Config, other.Config) {
				rejected++
				continue
			}
			rm.Connect(v.ID, id)
			added++
		}
	}

	return added, rejected
}

// ConnectVertex links a query-time vertex to its k nearest vertices. Under the
// radius policy candidates beyond the connection radius are skipped, so
// construction and query agree on what a neighbor is. Fewer than k reachable
// candidates is not an error.
func ConnectVertex(pc *Context, rm *Roadmap, id, k int) int {
	v, ok := rm.Vertex(id)
	if !ok {
		return 0
	}
	cfg := pc.Config()

	connected := 0
	for _, other := range withoutSelf(rm.KNearest(v.Config, k+1), id, k) {
		ov, _ := rm.Vertex(other)
		if cfg.Policy == PolicyRadius && Distance(v.Config, ov.Config) >= cfg.ConnectionRadius {
			continue
		}
		if !EdgeValid(pc, v.Config, ov.Config) {
			continue
		}
		rm.Connect(id, other)
		connected++
	}
	return connected
}

// withoutSelf drops id from a nearest-first candidate list and caps it at k
func withoutSelf(ids []int, id, k int) []int {
	out := make([]int, 0, k)
	for _, other := range ids {
		if other == id {
			continue
		}
		if len(out) == k {
			break
		}
		out = append(out, other)
	}
	return out
}
