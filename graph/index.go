package graph

import (
	"math"

	gpgeo "github.com/greenpaths/gp-routing/geo"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"
	"golang.org/x/exp/slices"
)

//*******************************************
// spatial indices
//*******************************************

// Search radii are escalated through a fixed sequence until a candidate
// is found; nearest-edge search additionally requires the hit to be
// strictly inside the current radius before accepting.
var NodeSearchRadii = []float64{50, 100, 500}
var EdgeSearchRadii = []float64{35, 150, 400, 650}

// Index points for long segments are densified so that a radius query
// over vertices cannot miss a close-by segment interior.
const indexSampleSpacing = 100.0

type _IndexItem struct {
	point orb.Point
	id    int32
}

func (self *_IndexItem) Point() orb.Point {
	return self.point
}

type _NodeIndex struct {
	tree *quadtree.Quadtree
}

type _EdgeIndex struct {
	tree *quadtree.Quadtree
}

func _ItemBound(points List[orb.Point]) orb.Bound {
	bound := orb.Bound{Min: points[0], Max: points[0]}
	for _, p := range points {
		bound = bound.Extend(p)
	}
	// padding so boundary points stay strictly inside
	bound.Min[0] -= 1
	bound.Min[1] -= 1
	bound.Max[0] += 1
	bound.Max[1] += 1
	return bound
}

func _BuildNodeIndex(nodes List[Node]) *_NodeIndex {
	points := NewList[orb.Point](nodes.Length())
	for _, node := range nodes {
		points.Add(node.Point)
	}
	tree := quadtree.New(_ItemBound(points))
	for i, node := range nodes {
		tree.Add(&_IndexItem{point: node.Point, id: int32(i)})
	}
	return &_NodeIndex{tree: tree}
}

func _BuildEdgeIndex(edges List[Edge]) *_EdgeIndex {
	points := NewList[orb.Point](edges.Length() * 2)
	items := NewList[*_IndexItem](edges.Length() * 2)
	for i, edge := range edges {
		if edge.Geom == nil {
			continue
		}
		for _, p := range _SamplePoints(edge.Geom) {
			points.Add(p)
			items.Add(&_IndexItem{point: p, id: int32(i)})
		}
	}
	if points.Length() == 0 {
		points.Add(orb.Point{})
	}
	tree := quadtree.New(_ItemBound(points))
	for _, item := range items {
		tree.Add(item)
	}
	return &_EdgeIndex{tree: tree}
}

// Vertices plus intermediate samples on segments longer than the
// sample spacing.
func _SamplePoints(line orb.LineString) List[orb.Point] {
	points := NewList[orb.Point](len(line))
	for i := 0; i < len(line); i++ {
		points.Add(line[i])
		if i == len(line)-1 {
			break
		}
		seg_len := planar.Distance(line[i], line[i+1])
		steps := int(seg_len / indexSampleSpacing)
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps+1)
			points.Add(orb.Point{
				line[i][0] + t*(line[i+1][0]-line[i][0]),
				line[i][1] + t*(line[i+1][1]-line[i][1]),
			})
		}
	}
	return points
}

func _RadiusBound(p orb.Point, radius float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{p[0] - radius, p[1] - radius},
		Max: orb.Point{p[0] + radius, p[1] + radius},
	}
}

//*******************************************
// nearest queries
//*******************************************

// Nearest graph node to a projected point. Ties on distance are broken
// by the lower node id.
func (self *GraphStore) FindNearestNode(point orb.Point) (int32, float64, bool) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	for _, radius := range NodeSearchRadii {
		items := self.node_index.tree.InBound(nil, _RadiusBound(point, radius))
		best_id := int32(-1)
		best_dist := math.Inf(1)
		for _, item := range items {
			node_item := item.(*_IndexItem)
			dist := planar.Distance(node_item.point, point)
			if dist < best_dist || (dist == best_dist && node_item.id < best_id) {
				best_id = node_item.id
				best_dist = dist
			}
		}
		if best_id >= 0 {
			return best_id, best_dist, true
		}
	}
	return -1, 0, false
}

// Nearest edge with a valid geometry to a projected point. Multi-edges
// sharing an identical geometry are deduplicated, the first (lowest id)
// wins. A candidate is accepted only when its distance is strictly
// below the current search radius, otherwise the radius escalates.
func (self *GraphStore) FindNearestEdge(point orb.Point) (int32, float64, bool) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	for _, radius := range EdgeSearchRadii {
		items := self.edge_index.tree.InBound(nil, _RadiusBound(point, radius+indexSampleSpacing/2))
		seen := NewDict[int32, bool](len(items))
		candidates := NewList[int32](len(items))
		for _, item := range items {
			edge_item := item.(*_IndexItem)
			if seen.ContainsKey(edge_item.id) {
				continue
			}
			seen[edge_item.id] = true
			candidates.Add(edge_item.id)
		}
		slices.Sort(candidates)
		best_id := int32(-1)
		best_dist := math.Inf(1)
		var best_geom orb.LineString
		for _, edge_id := range candidates {
			edge := self.edges[edge_id]
			if edge.Geom == nil {
				continue
			}
			// multi-edges over the same geometry: first id wins
			if best_geom != nil && gpgeo.LinesEqual(edge.Geom, best_geom) {
				continue
			}
			dist := gpgeo.DistanceToLine(edge.Geom, point)
			if dist < best_dist {
				best_id = edge_id
				best_dist = dist
				best_geom = edge.Geom
			}
		}
		if best_id >= 0 && best_dist < radius {
			return best_id, best_dist, true
		}
	}
	return -1, 0, false
}
