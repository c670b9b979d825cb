package planner

import (
	"container/heap"
)

// searchNode represents a vertex on the search frontier
type searchNode struct {
	VertexID int
	G        float64 // Cost from start to this vertex
	H        float64 // Heuristic cost from this vertex to the goal
	F        float64 // Priority
	Parent   *searchNode
	Index    int    // Index in the heap
	seq      uint64 // insertion order, breaks ties between equal priorities
}

// PriorityQueue implements heap.Interface for the roadmap searches
type PriorityQueue []*searchNode

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F == pq[j].F {
		return pq[i].seq < pq[j].seq
	}
	return pq[i].F < pq[j].F
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	node := x.(*searchNode)
	node.Index = n
	*pq = append(*pq, node)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*pq = old[0 : n-1]
	return node
}

// AStar computes the shortest path between two roadmap vertices. The
// heuristic is the straight-line distance to the goal, which ignores
// obstacles.
func AStar(rm *Roadmap, startID, goalID int) (Path, bool) {
	startV, ok := rm.Vertex(startID)
	if !ok {
		return nil, false
	}
	goalV, ok := rm.Vertex(goalID)
	if !ok {
		return nil, false
	}
	goal := goalV.Config

	var seq uint64
	openSet := &PriorityQueue{}
	heap.Init(openSet)

	h := Distance(startV.Config, goal)
	startNode := &searchNode{VertexID: startID, G: 0, H: h, F: h, seq: seq}
	heap.Push(openSet, startNode)

	closedSet := make(map[int]bool)
	openSetMap := map[int]*searchNode{startID: startNode}

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*searchNode)
		delete(openSetMap, current.VertexID)

		if current.VertexID == goalID {
			return reconstructPath(rm, current), true
		}

		closedSet[current.VertexID] = true

		for _, edge := range rm.Neighbors(current.VertexID) {
			if closedSet[edge.To] {
				continue
			}

			tentativeG := current.G + edge.Cost

			neighbor, exists := openSetMap[edge.To]
			if !exists {
				v, _ := rm.Vertex(edge.To)
				seq++
				neighbor = &searchNode{
					VertexID: edge.To,
					G:        tentativeG,
					H:        Distance(v.Config, goal),
					Parent:   current,
					seq:      seq,
				}
				neighbor.F = neighbor.G + neighbor.H
				heap.Push(openSet, neighbor)
				openSetMap[edge.To] = neighbor
			} else if tentativeG < neighbor.G {
				// Found a better path to this neighbor
				neighbor.G = tentativeG
				neighbor.F = neighbor.G + neighbor.H
				neighbor.Parent = current
				heap.Fix(openSet, neighbor.Index)
			}
		}
	}

	return nil, false
}

// reconstructPath walks parent links back to the start
func reconstructPath(rm *Roadmap, end *searchNode) Path {
	n := 0
	for node := end; node != nil; node = node.Parent {
		n++
	}
	path := make(Path, n)
	for node := end; node != nil; node = node.Parent {
		n--
		v, _ := rm.Vertex(node.VertexID)
		path[n] = v.Config
	}
	return path
}
