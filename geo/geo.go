package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

//*******************************************
// projections
//*******************************************

// The routing graph stores geometries in a metric projected CRS
// (web-mercator); WGS84 copies are kept alongside for output only.

func ToProjected(p orb.Point) orb.Point {
	return project.WGS84.ToMercator(p)
}

func ToWGS84(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

func LineToProjected(line orb.LineString) orb.LineString {
	projected := make(orb.LineString, len(line))
	for i, p := range line {
		projected[i] = project.WGS84.ToMercator(p)
	}
	return projected
}

func LineToWGS84(line orb.LineString) orb.LineString {
	wgs := make(orb.LineString, len(line))
	for i, p := range line {
		wgs[i] = project.Mercator.ToWGS84(p)
	}
	return wgs
}

//*******************************************
// planar helpers
//*******************************************

func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

func LineLength(line orb.LineString) float64 {
	return planar.Length(line)
}

// Projects p onto the segment a-b, returns the closest point and the
// fraction along the segment (0 at a, 1 at b).
func ProjectOnSegment(p, a, b orb.Point) (orb.Point, float64) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a, 0
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return orb.Point{a[0] + t*dx, a[1] + t*dy}, t
}

// Closest point of a polyline to p with the distance to it and the
// index of the segment containing it.
func ClosestPointOnLine(line orb.LineString, p orb.Point) (orb.Point, int, float64) {
	best := orb.Point{}
	best_seg := 0
	best_dist := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		cand, _ := ProjectOnSegment(p, line[i], line[i+1])
		dist := planar.Distance(cand, p)
		if dist < best_dist {
			best = cand
			best_seg = i
			best_dist = dist
		}
	}
	return best, best_seg, best_dist
}

func DistanceToLine(line orb.LineString, p orb.Point) float64 {
	_, _, dist := ClosestPointOnLine(line, p)
	return dist
}

// Splits a polyline at a point lying on segment seg into the two halves
// that share the split point.
func SplitLine(line orb.LineString, seg int, at orb.Point) (orb.LineString, orb.LineString) {
	first := make(orb.LineString, 0, seg+2)
	first = append(first, line[:seg+1]...)
	first = append(first, at)
	second := make(orb.LineString, 0, len(line)-seg)
	second = append(second, at)
	second = append(second, line[seg+1:]...)
	return first, second
}

// Largest distance from any vertex of line to the other polyline.
// With symmetric application this decides whether two lines stay within
// a shared buffer of each other.
func MaxVertexDistance(line, other orb.LineString) float64 {
	max_dist := 0.0
	for _, p := range line {
		dist := DistanceToLine(other, p)
		if dist > max_dist {
			max_dist = dist
		}
	}
	return max_dist
}

func LinesEqual(a, b orb.LineString) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
