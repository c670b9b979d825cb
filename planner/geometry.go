package planner

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Obstacle is an axis-aligned box given by its four corners
type Obstacle struct {
	Corners [4]orb.Point `json:"corners"`
	bound   orb.Bound
}

// NewObstacle builds an obstacle and derives its AABB from the corners
func NewObstacle(corners [4]orb.Point) Obstacle {
	mp := orb.MultiPoint(corners[:])
	return Obstacle{Corners: corners, bound: mp.Bound()}
}

// NewBoxObstacle builds an obstacle from its extents
func NewBoxObstacle(xMin, yMin, xMax, yMax float64) Obstacle {
	return NewObstacle([4]orb.Point{
		{xMin, yMin},
		{xMax, yMin},
		{xMax, yMax},
		{xMin, yMax},
	})
}

func (o Obstacle) Bound() orb.Bound { return o.bound }
func (o Obstacle) XMin() float64    { return o.bound.Min.X() }
func (o Obstacle) XMax() float64    { return o.bound.Max.X() }
func (o Obstacle) YMin() float64    { return o.bound.Min.Y() }
func (o Obstacle) YMax() float64    { return o.bound.Max.Y() }

// Contains checks if a point lies inside the box grown by pad on every side
func (o Obstacle) Contains(p orb.Point, pad float64) bool {
	return p.X() >= o.XMin()-pad && p.X() <= o.XMax()+pad &&
		p.Y() >= o.YMin()-pad && p.Y() <= o.YMax()+pad
}

// SegmentIntersects checks if the segment p1-p2 touches the (padded) box.
// Endpoints inside the box count, as does crossing any of its four sides.
func (o Obstacle) SegmentIntersects(p1, p2 orb.Point, pad float64) bool {
	if o.Contains(p1, pad) || o.Contains(p2, pad) {
		return true
	}

	b := o.bound.Pad(pad)
	corners := [4]orb.Point{
		b.Min,
		{b.Max.X(), b.Min.Y()},
		b.Max,
		{b.Min.X(), b.Max.Y()},
	}
	seg := LineSegment{P1: p1, P2: p2}
	for i := 0; i < 4; i++ {
		side := LineSegment{P1: corners[i], P2: corners[(i+1)%4]}
		if DoSegmentsIntersect(seg, side) {
			return true
		}
	}
	return false
}

// LineSegment represents a line segment between two points
type LineSegment struct {
	P1, P2 orb.Point
}

// DoSegmentsIntersect checks if two line segments intersect, touching included
func DoSegmentsIntersect(seg1, seg2 LineSegment) bool {
	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 orb.Point) float64 {
	return (p3.X()-p1.X())*(p2.Y()-p1.Y()) - (p2.X()-p1.X())*(p3.Y()-p1.Y())
}

// onSegment checks if point q lies within the bounding box of segment pr
func onSegment(p, r, q orb.Point) bool {
	return q.X() <= math.Max(p.X(), r.X()) && q.X() >= math.Min(p.X(), r.X()) &&
		q.Y() <= math.Max(p.Y(), r.Y()) && q.Y() >= math.Min(p.Y(), r.Y())
}

// Distance is the Euclidean distance between two configurations
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Interpolate returns n evenly spaced points from a to b, both ends included
func Interpolate(a, b orb.Point, n int) []orb.Point {
	if n < 2 {
		return []orb.Point{a, b}
	}
	points := make([]orb.Point, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		points[i] = orb.Point{
			a.X() + t*(b.X()-a.X()),
			a.Y() + t*(b.Y()-a.Y()),
		}
	}
	return points
}
