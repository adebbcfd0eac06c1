package routing

import (
	"errors"

	"github.com/greenpaths/gp-routing/cost"
	gpgeo "github.com/greenpaths/gp-routing/geo"
	"github.com/greenpaths/gp-routing/graph"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
)

//**********************************************************
// nearest entity resolver
//**********************************************************

const (
	// snap to the nearest node when it is essentially coincident with
	// the nearest edge regardless of the reuse policy
	alwaysSnapThreshold = 10.0
	// snap threshold when node reuse is permitted
	snapThreshold = 30.0
	// relaxed threshold for OD pairs farther apart than farOdDistance
	farSnapThreshold = 40.0
	farOdDistance    = 5000.0
	// a linking edge created for the other endpoint of this request
	// beats a normal edge when it passes this close
	linkReuseTolerance = 0.1
)

// Turns an arbitrary WGS84 point into a graph node usable as a routing
// endpoint, creating temporary graph structure only when necessary. One
// resolver serves both endpoints of a request so that the second
// endpoint can reuse linking edges created for the first instead of
// snapping onto a now-stale pre-split edge.
type EndpointResolver struct {
	store *graph.GraphStore

	// true after the store's mutation claim was acquired for this
	// request, released again in Rollback
	claimed bool

	added_nodes List[int32]
	added_edges List[int32]
	link_geoms  List[Tuple[int32, orb.LineString]]
}

func NewEndpointResolver(store *graph.GraphStore) *EndpointResolver {
	return &EndpointResolver{
		store:       store,
		added_nodes: NewList[int32](2),
		added_edges: NewList[int32](4),
		link_geoms:  NewList[Tuple[int32, orb.LineString]](4),
	}
}

func (self *EndpointResolver) AddedNodes() List[int32] {
	return self.added_nodes
}
func (self *EndpointResolver) AddedEdges() List[int32] {
	return self.added_edges
}

// Removes the temporary structure this request created and releases the
// store's mutation claim. Safe to call when nothing was inserted.
func (self *EndpointResolver) Rollback() {
	if !self.claimed {
		return
	}
	self.store.Rollback(self.added_nodes, self.added_edges)
	self.store.EndMutation()
	self.claimed = false
	self.added_nodes.Clear()
	self.added_edges.Clear()
	self.link_geoms.Clear()
}

func (self *EndpointResolver) Resolve(point orb.Point, is_origin bool, od_distance float64) (int32, error) {
	p := gpgeo.ToProjected(point)
	not_found := DESTINATION_NOT_FOUND
	if is_origin {
		not_found = ORIGIN_NOT_FOUND
	}

	node_id, node_dist, node_ok := self.store.FindNearestNode(p)
	edge_id, edge_dist, edge_ok := self.store.FindNearestEdge(p)

	// a linking edge created while resolving the other endpoint takes
	// precedence when the point sits on it; ties go to the link, the
	// pre-split edge is stale
	for _, link := range self.link_geoms {
		dist := gpgeo.DistanceToLine(link.B, p)
		if dist < linkReuseTolerance && (!edge_ok || dist <= edge_dist) {
			edge_id = link.A
			edge_dist = dist
			edge_ok = true
		}
	}

	if !node_ok && !edge_ok {
		return -1, NewRoutingError(not_found, errors.New("no nearby node or edge"))
	}
	if !edge_ok {
		return node_id, nil
	}

	threshold := snapThreshold
	if od_distance > farOdDistance {
		threshold = farSnapThreshold
	}
	// reusing existing nodes is disabled for the origin's very first
	// resolution to favor precision
	allow_reuse := !is_origin

	edge := self.store.GetEdge(edge_id)
	if node_ok {
		node_on_edge := edge.NodeA == node_id || edge.NodeB == node_id
		if node_on_edge && allow_reuse && node_dist-edge_dist < threshold {
			return node_id, nil
		}
		if node_dist-edge_dist < alwaysSnapThreshold {
			return node_id, nil
		}
	}

	return self.splitEdge(edge_id, &edge, p, is_origin), nil
}

//**********************************************************
// edge splitting
//**********************************************************

// Splits the edge at the projected closest point: one new temporary
// node plus two directed linking edges, outbound from the new node for
// an origin, inbound for a destination.
func (self *EndpointResolver) splitEdge(edge_id int32, edge *graph.Edge, p orb.Point, is_origin bool) int32 {
	split_pt, seg, _ := gpgeo.ClosestPointOnLine(edge.Geom, p)
	first, second := gpgeo.SplitLine(edge.Geom, seg, split_pt)
	len_a := gpgeo.LineLength(first)
	len_b := gpgeo.LineLength(second)

	if !self.claimed {
		self.store.BeginMutation()
		self.claimed = true
	}
	new_node := self.store.AddTemporaryNode(split_pt)
	self.added_nodes.Add(new_node)

	links := NewList[graph.Edge](2)
	if is_origin {
		links.Add(self.linkingEdge(edge, new_node, edge.NodeA, _Reversed(first), len_a))
		links.Add(self.linkingEdge(edge, new_node, edge.NodeB, second, len_b))
	} else {
		links.Add(self.linkingEdge(edge, edge.NodeA, new_node, first, len_a))
		links.Add(self.linkingEdge(edge, edge.NodeB, new_node, _Reversed(second), len_b))
	}
	ids := self.store.AddTemporaryEdges(links)
	for i, id := range ids {
		self.added_edges.Add(id)
		self.link_geoms.Add(MakeTuple(id, links[i].Geom))
	}
	return new_node
}

// Linking edge attributes are the original edge's scaled by the length
// fraction; noise bands interpolate proportionally, while AQI and GVI
// costs are recomputed from the raw values because they are non-linear
// in length.
func (self *EndpointResolver) linkingEdge(orig *graph.Edge, node_a int32, node_b int32, geom orb.LineString, length float64) graph.Edge {
	frac := 0.0
	if orig.Length > 0 {
		frac = length / orig.Length
	}
	link := graph.Edge{
		NodeA:           node_a,
		NodeB:           node_b,
		WayID:           orig.WayID,
		Length:          length,
		LengthBike:      orig.LengthBike * frac,
		Geom:            geom,
		GeomWGS:         gpgeo.LineToWGS84(geom),
		Aqi:             orig.Aqi,
		HasAqi:          orig.HasAqi,
		Gvi:             orig.Gvi,
		HasGvi:          orig.HasGvi,
		SafetyFactor:    orig.SafetyFactor,
		HasSafetyFactor: orig.HasSafetyFactor,
		IsStairs:        orig.IsStairs,
		AllowsBiking:    orig.AllowsBiking,
	}
	if orig.Noises != nil {
		link.Noises = make(map[int]float64, len(orig.Noises))
		for db, l := range orig.Noises {
			link.Noises[db] = l * frac
		}
	}

	mapping := self.store.CostMapping()
	link.Costs = make([]float64, len(orig.Costs))
	for slot, key := range mapping.Keys() {
		base := link.Length
		if key.Mode == cost.BIKE {
			base = link.LengthBike
		}
		switch key.Objective {
		case cost.CLEAN:
			if orig.HasAqi {
				link.Costs[slot] = cost.AqiCost(base, orig.Aqi, key.Sensitivity)
			} else {
				link.Costs[slot] = cost.MissingAqiCost(link.Length)
			}
		case cost.GREEN:
			if orig.HasGvi {
				link.Costs[slot] = cost.GviCost(base, orig.Gvi, link.Length, key.Sensitivity)
			} else {
				link.Costs[slot] = cost.MissingGviCost(base, link.Length, key.Sensitivity)
			}
		default:
			link.Costs[slot] = orig.Costs[slot] * frac
		}
	}
	return link
}

func _Reversed(line orb.LineString) orb.LineString {
	reversed := make(orb.LineString, len(line))
	for i, p := range line {
		reversed[len(line)-1-i] = p
	}
	return reversed
}
