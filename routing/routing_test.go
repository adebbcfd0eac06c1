package routing

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/greenpaths/gp-routing/cost"
	gpgeo "github.com/greenpaths/gp-routing/geo"
	"github.com/greenpaths/gp-routing/graph"
	"github.com/greenpaths/gp-routing/paths"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
)

//*******************************************
// fixture
//*******************************************

func _TestMapping() *cost.CostMapping {
	return cost.NewCostMapping(List[cost.TravelMode]{cost.WALK, cost.BIKE}, cost.Sensitivities{
		Quiet: List[float64]{1},
		Clean: List[float64]{1},
		Green: List[float64]{1},
	})
}

func _TestParams() graph.LoadParams {
	return graph.LoadParams{NoiseVersion: cost.NoiseCostV3, WalkSpeed: 1.33, BikeSpeed: 5.55}
}

func _TestEdge(node_a int32, node_b int32, geom orb.LineString, noises map[int]float64) graph.Edge {
	return graph.Edge{
		NodeA:        node_a,
		NodeB:        node_b,
		Length:       gpgeo.LineLength(geom),
		Geom:         geom,
		GeomWGS:      gpgeo.LineToWGS84(geom),
		Noises:       noises,
		AllowsBiking: true,
	}
}

func _Reverse(line orb.LineString) orb.LineString {
	reversed := make(orb.LineString, len(line))
	for i, p := range line {
		reversed[len(line)-1-i] = p
	}
	return reversed
}

// One noisy street from 0 to 1 with a quiet detour over 2:
//
//	0 ========= 1   direct, 300 m, 70 dB over the whole length
//	 \         /
//	  \__ 2 __/     detour, ~361 m, no measured noise
func _TestStore(t *testing.T) *graph.GraphStore {
	points := []orb.Point{{0, 0}, {300, 0}, {150, 100}}
	nodes := NewList[graph.Node](len(points))
	for _, p := range points {
		nodes.Add(graph.Node{Point: p, PointWGS: gpgeo.ToWGS84(p)})
	}
	direct := orb.LineString{{0, 0}, {300, 0}}
	detour_a := orb.LineString{{0, 0}, {150, 100}}
	detour_b := orb.LineString{{150, 100}, {300, 0}}
	edges := List[graph.Edge]{
		_TestEdge(0, 1, direct, map[int]float64{70: 300}),
		_TestEdge(1, 0, _Reverse(direct), map[int]float64{70: 300}),
		_TestEdge(0, 2, detour_a, map[int]float64{}),
		_TestEdge(2, 0, _Reverse(detour_a), map[int]float64{}),
		_TestEdge(2, 1, detour_b, map[int]float64{}),
		_TestEdge(1, 2, _Reverse(detour_b), map[int]float64{}),
	}
	mapping := _TestMapping()
	if err := graph.ComputeEdgeCosts(edges, mapping, _TestParams()); err != nil {
		t.Fatalf("cost computation failed: %v", err)
	}
	return graph.NewGraphStore(nodes, edges, mapping)
}

func _WGS(p orb.Point) orb.Point {
	return gpgeo.ToWGS84(p)
}

func _TestFinder(store *graph.GraphStore) *PathFinder {
	return NewPathFinder(store, paths.DefaultTunables())
}

//*******************************************
// resolver
//*******************************************

func TestResolveSnapsToCoincidentNode(t *testing.T) {
	store := _TestStore(t)
	resolver := NewEndpointResolver(store)
	// 3 m from node 0 and on the direct edge: always snap
	node, err := resolver.Resolve(_WGS(orb.Point{3, 0}), true, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node != 0 {
		t.Errorf("expected node 0, got %v", node)
	}
	if resolver.AddedNodes().Length() != 0 || resolver.AddedEdges().Length() != 0 {
		t.Error("snap must not create temporary structure")
	}
}

func TestResolveSplitsEdge(t *testing.T) {
	store := _TestStore(t)
	base_nodes := store.NodeCount()
	base_edges := store.EdgeCount()
	resolver := NewEndpointResolver(store)

	node, err := resolver.Resolve(_WGS(orb.Point{100, 20}), true, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int(node) != base_nodes {
		t.Errorf("expected temp node id %v, got %v", base_nodes, node)
	}
	if resolver.AddedNodes().Length() != 1 || resolver.AddedEdges().Length() != 2 {
		t.Fatalf("expected 1 node and 2 linking edges, got %v/%v",
			resolver.AddedNodes().Length(), resolver.AddedEdges().Length())
	}
	// split point projects onto the street axis
	split := store.GetNode(node)
	if math.Abs(split.Point[0]-100) > 0.001 || math.Abs(split.Point[1]) > 0.001 {
		t.Errorf("unexpected split point %v", split.Point)
	}
	// linking edge attributes scale with the length fraction
	link := store.GetEdge(resolver.AddedEdges()[0])
	frac := link.Length / 300
	if math.Abs(link.Noises[70]-300*frac) > 0.001 {
		t.Errorf("noise band not interpolated: %v", link.Noises[70])
	}

	resolver.Rollback()
	if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
		t.Error("rollback did not restore counts")
	}
}

func TestResolveReusesOwnLinkingEdge(t *testing.T) {
	store := _TestStore(t)
	resolver := NewEndpointResolver(store)

	_, err := resolver.Resolve(_WGS(orb.Point{100, 3}), true, 300)
	if err != nil {
		t.Fatalf("origin resolution failed: %v", err)
	}
	// the destination sits on the origin's outbound linking edge, the
	// second split happens on the link instead of the stale street edge
	dest, err := resolver.Resolve(_WGS(orb.Point{200, 0}), false, 300)
	if err != nil {
		t.Fatalf("destination resolution failed: %v", err)
	}
	if resolver.AddedNodes().Length() != 2 {
		t.Fatalf("expected two temp nodes, got %v", resolver.AddedNodes().Length())
	}
	slot, _ := store.CostMapping().Slot(cost.CostKey{Mode: cost.WALK, Objective: cost.FAST})
	origin := resolver.AddedNodes()[0]
	sequence, err := store.ShortestPath(origin, dest, slot)
	if err != nil {
		t.Fatalf("routing between temp nodes failed: %v", err)
	}
	length := store.SequenceCost(sequence, slot)
	if sequence.Length() != 1 || math.Abs(length-100) > 0.5 {
		t.Errorf("expected one direct 100 m linking edge, got %v edges / %v m",
			sequence.Length(), length)
	}

	resolver.Rollback()
}

func TestResolveNotFound(t *testing.T) {
	store := _TestStore(t)
	resolver := NewEndpointResolver(store)
	_, err := resolver.Resolve(_WGS(orb.Point{100000, 100000}), true, 300)
	var routing_err *RoutingError
	if !errors.As(err, &routing_err) || routing_err.Kind != ORIGIN_NOT_FOUND {
		t.Errorf("expected origin_not_found, got %v", err)
	}
}

//*******************************************
// path finder
//*******************************************

func TestFindPathSetQuietDetour(t *testing.T) {
	store := _TestStore(t)
	finder := _TestFinder(store)

	set, err := finder.FindPathSet(cost.WALK, cost.QUIET, _WGS(orb.Point{3, 0}), _WGS(orb.Point{297, 0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Paths.Length() != 2 {
		t.Fatalf("expected fast + quiet path, got %v", set.Paths.Length())
	}
	fast := set.Paths[0]
	quiet := set.Paths[1]
	if fast.Label != "fast" || !fast.IsBaseline {
		t.Errorf("expected fast baseline first, got %v", fast.Label)
	}
	if quiet.Objective != cost.QUIET {
		t.Errorf("expected quiet alternative, got %v", quiet.Label)
	}
	if quiet.Length <= fast.Length {
		t.Errorf("detour should be longer: %v <= %v", quiet.Length, fast.Length)
	}
	if quiet.Diff == nil || quiet.Diff.Score <= 0 {
		t.Errorf("quiet detour should score positive, got %+v", quiet.Diff)
	}
	if quiet.Noise == nil || fast.Noise == nil {
		t.Fatal("noise stats missing")
	}
	if quiet.Noise.NeiNorm >= fast.Noise.NeiNorm {
		t.Errorf("quiet path should have lower noise index: %v >= %v",
			quiet.Noise.NeiNorm, fast.Noise.NeiNorm)
	}
}

// The path optimized for a weighting is never worse under that
// weighting than any alternative.
func TestQuietPathOptimizedWeight(t *testing.T) {
	store := _TestStore(t)
	fast_slot, _ := store.CostMapping().Slot(cost.CostKey{Mode: cost.WALK, Objective: cost.FAST})
	quiet_slot, _ := store.CostMapping().Slot(cost.CostKey{Mode: cost.WALK, Objective: cost.QUIET, Sensitivity: 1})

	fast_seq, err := store.ShortestPath(0, 1, fast_slot)
	if err != nil {
		t.Fatal(err)
	}
	quiet_seq, err := store.ShortestPath(0, 1, quiet_slot)
	if err != nil {
		t.Fatal(err)
	}
	if store.SequenceCost(quiet_seq, quiet_slot) > store.SequenceCost(fast_seq, quiet_slot) {
		t.Error("quiet path has higher quiet weight than the fastest path")
	}
}

func TestFindPathSetSameStreet(t *testing.T) {
	store := _TestStore(t)
	base_nodes := store.NodeCount()
	base_edges := store.EdgeCount()
	finder := _TestFinder(store)

	// both endpoints on the direct street, 100 m apart
	set, err := finder.FindPathSet(cost.WALK, cost.QUIET, _WGS(orb.Point{100, 3}), _WGS(orb.Point{200, 0}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Paths.Length() != 1 {
		t.Fatalf("same-street od should collapse to one path, got %v", set.Paths.Length())
	}
	if math.Abs(set.Paths[0].Length-100) > 0.5 {
		t.Errorf("expected ~100 m path, got %v", set.Paths[0].Length)
	}
	if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
		t.Error("temporary structure leaked into the graph")
	}
}

func TestFindPathSetSameLocation(t *testing.T) {
	store := _TestStore(t)
	finder := _TestFinder(store)
	_, err := finder.FindPathSet(cost.WALK, cost.FAST, _WGS(orb.Point{3, 0}), _WGS(orb.Point{4, 0}))
	var routing_err *RoutingError
	if !errors.As(err, &routing_err) || routing_err.Kind != SAME_LOCATION {
		t.Errorf("expected origin_equals_destination, got %v", err)
	}
}

func TestFindPathSetUnsupportedProfile(t *testing.T) {
	store := _TestStore(t)
	finder := _TestFinder(store)
	// safety costs only exist for cycling
	_, err := finder.FindPathSet(cost.WALK, cost.SAFE, _WGS(orb.Point{3, 0}), _WGS(orb.Point{297, 0}))
	var routing_err *RoutingError
	if !errors.As(err, &routing_err) || routing_err.Kind != UNSUPPORTED_PROFILE {
		t.Fatalf("expected unsupported_routing_profile, got %v", err)
	}
	if routing_err.Kind.Status() != 400 {
		t.Errorf("a bad profile is a client error, got status %v", routing_err.Kind.Status())
	}
}

// Concurrent requests interleave their temporary insertion and rollback
// cycles; none may corrupt the shared graph or see another request's
// temporaries vanish mid-route.
func TestFindPathSetConcurrentRequests(t *testing.T) {
	store := _TestStore(t)
	base_nodes := store.NodeCount()
	base_edges := store.EdgeCount()
	finder := _TestFinder(store)

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				// origin splits the street, every request creates and
				// rolls back temporary structure
				set, err := finder.FindPathSet(cost.WALK, cost.QUIET,
					_WGS(orb.Point{100, 20}), _WGS(orb.Point{297, 0}))
				if err != nil {
					t.Errorf("concurrent request failed: %v", err)
					return
				}
				if set.Paths.Length() == 0 {
					t.Error("concurrent request returned no paths")
					return
				}
			}
		}()
	}
	wg.Wait()

	if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
		t.Errorf("temporary structure leaked: %v/%v nodes, %v/%v edges",
			store.NodeCount(), base_nodes, store.EdgeCount(), base_edges)
	}
}

func TestFindPathSetRollbackOnError(t *testing.T) {
	store := _TestStore(t)
	base_nodes := store.NodeCount()
	base_edges := store.EdgeCount()
	finder := _TestFinder(store)

	// origin splits the street, destination is nowhere near the graph
	_, err := finder.FindPathSet(cost.WALK, cost.FAST, _WGS(orb.Point{100, 20}), _WGS(orb.Point{100000, 100000}))
	var routing_err *RoutingError
	if !errors.As(err, &routing_err) || routing_err.Kind != DESTINATION_NOT_FOUND {
		t.Fatalf("expected destination_not_found, got %v", err)
	}
	if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
		t.Error("failed request leaked temporary structure")
	}
}
