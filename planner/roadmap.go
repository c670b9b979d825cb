package planner

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Edge represents a connection between two vertices with a cost
type Edge struct {
	To   int     `json:"to"`
	Cost float64 `json:"cost"` // Euclidean distance
}

// Vertex is a roadmap node. Its ID is its index in the roadmap arena.
type Vertex struct {
	ID     int       `json:"id"`
	Config orb.Point `json:"config"`
	Edges  []Edge    `json:"edges"`

	removed bool
}

// Roadmap stores the vertices in a dense arena and keeps an R-tree of the
// live ones for neighbor lookups
type Roadmap struct {
	vertices []Vertex
	entries  []*vertexEntry
	tree     *rtreego.Rtree
	live     int
}

// NewRoadmap creates an empty roadmap
func NewRoadmap() *Roadmap {
	return &Roadmap{tree: rtreego.NewTree(2, 25, 50)}
}

// AddVertex appends a vertex and returns its id
func (rm *Roadmap) AddVertex(q orb.Point) int {
	id := len(rm.vertices)
	rm.vertices = append(rm.vertices, Vertex{ID: id, Config: q})
	entry := &vertexEntry{id: id, point: q}
	rm.entries = append(rm.entries, entry)
	rm.tree.Insert(entry)
	rm.live++
	return id
}

// RemoveVertex drops a vertex together with every arc that points at it.
// Removed slots at the end of the arena are released so an add/remove pair
// leaves the roadmap exactly as it was.
func (rm *Roadmap) RemoveVertex(id int) {
	if !rm.valid(id) {
		return
	}

	// scan everything: a pruned roadmap may hold arcs into id that id does not mirror
	for i := range rm.vertices {
		if i != id && !rm.vertices[i].removed {
			rm.vertices[i].Edges = dropEdge(rm.vertices[i].Edges, id)
		}
	}

	rm.tree.Delete(rm.entries[id])
	rm.vertices[id].Edges = nil
	rm.vertices[id].removed = true
	rm.live--

	for n := len(rm.vertices); n > 0 && rm.vertices[n-1].removed; n-- {
		rm.vertices = rm.vertices[:n-1]
		rm.entries = rm.entries[:n-1]
	}
}

// AddEdge adds the directed arc u->v unless it already exists
func (rm *Roadmap) AddEdge(u, v int, cost float64) {
	if !rm.valid(u) || !rm.valid(v) || rm.HasEdge(u, v) {
		return
	}
	rm.vertices[u].Edges = append(rm.vertices[u].Edges, Edge{To: v, Cost: cost})
}

// Connect adds the edge u-v in both directions weighted by Euclidean distance
func (rm *Roadmap) Connect(u, v int) {
	if u == v || !rm.valid(u) || !rm.valid(v) {
		return
	}
	cost := Distance(rm.vertices[u].Config, rm.vertices[v].Config)
	rm.AddEdge(u, v, cost)
	rm.AddEdge(v, u, cost)
}

// RemoveEdge removes the directed arc u->v
func (rm *Roadmap) RemoveEdge(u, v int) {
	if !rm.valid(u) {
		return
	}
	rm.vertices[u].Edges = dropEdge(rm.vertices[u].Edges, v)
}

// HasEdge checks for the directed arc u->v
func (rm *Roadmap) HasEdge(u, v int) bool {
	if !rm.valid(u) {
		return false
	}
	for _, e := range rm.vertices[u].Edges {
		if e.To == v {
			return true
		}
	}
	return false
}

// Neighbors returns the outgoing arcs of a vertex
func (rm *Roadmap) Neighbors(id int) []Edge {
	if !rm.valid(id) {
		return nil
	}
	return rm.vertices[id].Edges
}

// Vertex returns the vertex with the given id
func (rm *Roadmap) Vertex(id int) (Vertex, bool) {
	if !rm.valid(id) {
		return Vertex{}, false
	}
	return rm.vertices[id], true
}

// Vertices returns the live vertices in ascending id order
func (rm *Roadmap) Vertices() []Vertex {
	out := make([]Vertex, 0, rm.live)
	for _, v := range rm.vertices {
		if !v.removed {
			out = append(out, v)
		}
	}
	return out
}

func (rm *Roadmap) VertexCount() int { return rm.live }

// EdgeCount returns the number of vertex pairs joined by at least one arc
func (rm *Roadmap) EdgeCount() int {
	seen := make(map[[2]int]struct{})
	for _, v := range rm.vertices {
		if v.removed {
			continue
		}
		for _, e := range v.Edges {
			key := [2]int{v.ID, e.To}
			if e.To < v.ID {
				key = [2]int{e.To, v.ID}
			}
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}

// ArcCount returns the number of directed adjacency entries
func (rm *Roadmap) ArcCount() int {
	n := 0
	for _, v := range rm.vertices {
		if !v.removed {
			n += len(v.Edges)
		}
	}
	return n
}

// Nearest finds the closest vertex to a given point
func (rm *Roadmap) Nearest(q orb.Point) (int, float64) {
	ids := rm.KNearest(q, 1)
	if len(ids) == 0 {
		return -1, math.MaxFloat64
	}
	return ids[0], Distance(q, rm.vertices[ids[0]].Config)
}

// KNearest returns up to k vertex ids ordered by distance to q
func (rm *Roadmap) KNearest(q orb.Point, k int) []int {
	if k <= 0 || rm.live == 0 {
		return nil
	}

	results := rm.tree.NearestNeighbors(k, rtreego.Point{q.X(), q.Y()})
	ids := make([]int, 0, len(results))
	for _, item := range results {
		if item == nil {
			continue
		}
		ids = append(ids, item.(*vertexEntry).id)
	}
	rm.sortByDistance(q, ids)
	return ids
}

// Within returns the ids of vertices strictly closer than r to q, ascending
func (rm *Roadmap) Within(q orb.Point, r float64) []int {
	if r <= 0 || rm.live == 0 {
		return nil
	}

	rect := rtreego.Point{q.X(), q.Y()}.ToRect(r)
	results := rm.tree.SearchIntersect(rect)
	ids := make([]int, 0, len(results))
	for _, item := range results {
		entry := item.(*vertexEntry)
		if Distance(q, entry.point) < r {
			ids = append(ids, entry.id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Clone returns an independent copy of the roadmap
func (rm *Roadmap) Clone() *Roadmap {
	out := NewRoadmap()
	for _, v := range rm.vertices {
		id := out.AddVertex(v.Config)
		out.vertices[id].Edges = append([]Edge(nil), v.Edges...)
		if v.removed {
			out.tree.Delete(out.entries[id])
			out.vertices[id].removed = true
			out.live--
		}
	}
	return out
}

func (rm *Roadmap) valid(id int) bool {
	return id >= 0 && id < len(rm.vertices) && !rm.vertices[id].removed
}

func (rm *Roadmap) sortByDistance(q orb.Point, ids []int) {
	sort.SliceStable(ids, func(i, j int) bool {
		di := Distance(q, rm.vertices[ids[i]].Config)
		dj := Distance(q, rm.vertices[ids[j]].Config)
		if di == dj {
			return ids[i] < ids[j]
		}
		return di < dj
	})
}

func dropEdge(edges []Edge, to int) []Edge {
	out := edges[:0]
	for _, e := range edges {
		if e.To != to {
			out = append(out, e)
		}
	}
	return out
}
