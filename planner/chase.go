package planner

import (
	"container/heap"

	"github.com/paulmach/orb"
)

// chaseCostWeight scales cost-so-far in the chase priority. Weighting the
// committed cost twice keeps the search on routes it already holds while the
// goal keeps moving.
const chaseCostWeight = 2.0

// ChaseSearch runs the biased best-first search used for live replanning.
// Priority is 2*g + h and the search stops at the first popped vertex whose
// straight-line distance to goal is below epsilon. The path holds the vertex
// configurations from start onwards; it is empty when the frontier runs out
// before getting that close.
func ChaseSearch(rm *Roadmap, startID int, goal orb.Point, epsilon float64) Path {
	startV, ok := rm.Vertex(startID)
	if !ok {
		return nil
	}

	var seq uint64
	frontier := &PriorityQueue{}
	heap.Init(frontier)
	heap.Push(frontier, &searchNode{
		VertexID: startID,
		H:        Distance(startV.Config, goal),
		F:        0,
	})

	costSoFar := map[int]float64{startID: 0}
	priority := map[int]float64{startID: 0}

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(*searchNode)
		if current.F != priority[current.VertexID] {
			continue // superseded by a cheaper entry
		}

		if current.H < epsilon {
			return reconstructPath(rm, current)
		}

		for _, edge := range rm.Neighbors(current.VertexID) {
			newCost := costSoFar[current.VertexID] + edge.Cost
			if prev, seen := costSoFar[edge.To]; seen && newCost >= prev {
				continue
			}

			v, _ := rm.Vertex(edge.To)
			h := Distance(v.Config, goal)
			seq++
			next := &searchNode{
				VertexID: edge.To,
				G:        newCost,
				H:        h,
				F:        newCost*chaseCostWeight + h,
				Parent:   current,
				seq:      seq,
			}
			costSoFar[edge.To] = newCost
			priority[edge.To] = next.F
			heap.Push(frontier, next)
		}
	}

	return nil
}
