package planner

// pruneFrame is one level of the explicit depth-first stack
type pruneFrame struct {
	vertex int
	parent int
	next   int
}

// PruneLoops removes edges that close loops in the roadmap.
//
// A depth-first traversal runs from every unvisited vertex in id order with a
// single visited set shared by all traversals. Whenever a vertex reaches a
// neighbor, other than its own parent, that is already visited, the arc
// vertex->neighbor is scheduled. Scheduled arcs are removed once traversal is
// complete; with directed=false the reverse arc goes too. This is a heuristic:
// the visited set is global rather than per branch, so it also cuts
// legitimate alternate routes and can disconnect the roadmap.
//
// It returns the number of scheduled arcs.
func PruneLoops(rm *Roadmap, directed bool) int {
	visited := make(map[int]bool, rm.VertexCount())
	seen := make(map[[2]int]bool)
	var scheduled [][2]int

	for _, root := range rm.Vertices() {
		if visited[root.ID] {
			continue
		}
		visited[root.ID] = true
		stack := []pruneFrame{{vertex: root.ID, parent: -1}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := rm.Neighbors(top.vertex)
			if top.next >= len(edges) {
				stack = stack[:len(stack)-1]
				continue
			}

			neighbor := edges[top.next].To
			top.next++
			if neighbor == top.parent {
				continue
			}
			if visited[neighbor] {
				arc := [2]int{top.vertex, neighbor}
				if !seen[arc] {
					seen[arc] = true
					scheduled = append(scheduled, arc)
				}
				continue
			}

			visited[neighbor] = true
			stack = append(stack, pruneFrame{vertex: neighbor, parent: top.vertex})
		}
	}

	for _, arc := range scheduled {
		rm.RemoveEdge(arc[0], arc[1])
		if !directed {
			rm.RemoveEdge(arc[1], arc[0])
		}
	}

	return len(scheduled)
}
