package planner

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// rectTolerance keeps degenerate (zero-width) rectangles valid for the R-tree
const rectTolerance = 1e-9

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	obstacle Obstacle
	bbox     rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// ObstacleIndex manages obstacle spatial queries
type ObstacleIndex struct {
	tree  *rtreego.Rtree
	count int
}

// NewObstacleIndex creates a new spatial index over the obstacle AABBs
func NewObstacleIndex(obstacles []Obstacle) *ObstacleIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node

	for _, obstacle := range obstacles {
		tree.Insert(&obstacleEntry{
			obstacle: obstacle,
			bbox:     boundToRect(obstacle.Bound()),
		})
	}

	return &ObstacleIndex{tree: tree, count: len(obstacles)}
}

// Len returns the number of indexed obstacles
func (si *ObstacleIndex) Len() int {
	if si == nil {
		return 0
	}
	return si.count
}

// Candidates returns the obstacles whose AABB grown by pad intersects the bound
func (si *ObstacleIndex) Candidates(bound orb.Bound, pad float64) []Obstacle {
	if si == nil || si.count == 0 {
		return nil
	}

	results := si.tree.SearchIntersect(boundToRect(bound.Pad(pad)))
	obstacles := make([]Obstacle, 0, len(results))
	for _, item := range results {
		obstacles = append(obstacles, item.(*obstacleEntry).obstacle)
	}
	return obstacles
}

// boundToRect converts an orb bound into an R-tree rectangle
func boundToRect(b orb.Bound) rtreego.Rect {
	width := b.Max.X() - b.Min.X()
	height := b.Max.Y() - b.Min.Y()
	if width < rectTolerance {
		width = rectTolerance
	}
	if height < rectTolerance {
		height = rectTolerance
	}

	rect, err := rtreego.NewRect(rtreego.Point{b.Min.X(), b.Min.Y()}, []float64{width, height})
	if err != nil {
		// lengths are clamped positive above, so this only guards dimension mismatches
		return rtreego.Point{b.Min.X(), b.Min.Y()}.ToRect(rectTolerance)
	}
	return rect
}

// vertexEntry wraps a roadmap vertex for R-tree storage
type vertexEntry struct {
	id    int
	point orb.Point
}

// Bounds implements rtreego.Spatial interface
func (e *vertexEntry) Bounds() rtreego.Rect {
	return rtreego.Point{e.point.X(), e.point.Y()}.ToRect(rectTolerance)
}
