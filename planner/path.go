package planner

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Path is an ordered list of configurations. A nil or empty path means no
// path exists.
type Path []orb.Point

func (p Path) Empty() bool { return len(p) == 0 }

// Length is the total Euclidean length of the path
func (p Path) Length() float64 {
	if len(p) < 2 {
		return 0
	}
	return planar.Length(p.LineString())
}

// LineString converts the path for GeoJSON output
func (p Path) LineString() orb.LineString {
	return orb.LineString(append([]orb.Point(nil), p...))
}

// Clone returns a copy that does not share storage with p
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	return append(Path(nil), p...)
}

// SimplifyPath reduces the number of waypoints using the Douglas-Peucker
// algorithm. A shortcut is only taken when valid accepts the straight segment
// between its ends, so the result never cuts through an obstacle the original
// path avoided.
func SimplifyPath(path Path, epsilon float64, valid func(a, b orb.Point) bool) Path {
	if len(path) <= 2 {
		return path.Clone()
	}
	return douglasPeucker(path, epsilon, valid)
}

// douglasPeucker implements the Douglas-Peucker line simplification algorithm
func douglasPeucker(points Path, epsilon float64, valid func(a, b orb.Point) bool) Path {
	if len(points) <= 2 {
		return points.Clone()
	}

	// Find the point with maximum distance from line between first and last
	dmax := 0.0
	index := 0
	end := len(points) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax <= epsilon && (valid == nil || valid(points[0], points[end])) {
		return Path{points[0], points[end]}
	}
	if index == 0 {
		// every interior point is on the chord but the chord itself is blocked
		index = end / 2
	}

	left := douglasPeucker(points[0:index+1], epsilon, valid)
	right := douglasPeucker(points[index:], epsilon, valid)

	// Combine results (removing duplicate point at index)
	result := make(Path, 0, len(left)+len(right)-1)
	result = append(result, left[:len(left)-1]...)
	result = append(result, right...)
	return result
}

// perpendicularDistance calculates distance from point to the segment
func perpendicularDistance(point, lineStart, lineEnd orb.Point) float64 {
	dx := lineEnd.X() - lineStart.X()
	dy := lineEnd.Y() - lineStart.Y()

	if dx == 0 && dy == 0 {
		return Distance(point, lineStart)
	}

	t := ((point.X()-lineStart.X())*dx + (point.Y()-lineStart.Y())*dy) / (dx*dx + dy*dy)
	t = max(0, min(1, t))

	return Distance(point, orb.Point{lineStart.X() + t*dx, lineStart.Y() + t*dy})
}
