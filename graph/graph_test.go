package graph

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/greenpaths/gp-routing/cost"
	gpgeo "github.com/greenpaths/gp-routing/geo"
	. "github.com/greenpaths/gp-routing/util"
	"github.com/paulmach/orb"
)

func _TestMapping() *cost.CostMapping {
	return cost.NewCostMapping(List[cost.TravelMode]{cost.WALK, cost.BIKE}, cost.Sensitivities{
		Quiet: List[float64]{1},
		Clean: List[float64]{1},
		Green: List[float64]{1},
	})
}

func _TestParams() LoadParams {
	return LoadParams{NoiseVersion: cost.NoiseCostV3, WalkSpeed: 1.33, BikeSpeed: 5.55}
}

func _TestEdge(node_a int32, node_b int32, geom orb.LineString) Edge {
	return Edge{
		NodeA:        node_a,
		NodeB:        node_b,
		Length:       gpgeo.LineLength(geom),
		Geom:         geom,
		GeomWGS:      gpgeo.LineToWGS84(geom),
		Noises:       map[int]float64{},
		AllowsBiking: true,
	}
}

// Small T-shaped street network in projected meters:
//
//	0 --- 1 --- 2
//	      |
//	      3
//
// plus an isolated node 4 and a duplicate-geometry edge over 1-2.
func _TestStore(t *testing.T) *GraphStore {
	points := []orb.Point{{0, 0}, {100, 0}, {200, 0}, {100, 100}, {1000, 1000}}
	nodes := NewList[Node](len(points))
	for _, p := range points {
		nodes.Add(Node{Point: p, PointWGS: gpgeo.ToWGS84(p)})
	}
	line_01 := orb.LineString{{0, 0}, {100, 0}}
	line_12 := orb.LineString{{100, 0}, {200, 0}}
	line_13 := orb.LineString{{100, 0}, {100, 100}}
	edges := List[Edge]{
		_TestEdge(0, 1, line_01),
		_TestEdge(1, 0, _TestReverse(line_01)),
		_TestEdge(1, 2, line_12),
		_TestEdge(2, 1, _TestReverse(line_12)),
		_TestEdge(1, 3, line_13),
		_TestEdge(3, 1, _TestReverse(line_13)),
		_TestEdge(1, 2, line_12),
	}
	mapping := _TestMapping()
	if err := ComputeEdgeCosts(edges, mapping, _TestParams()); err != nil {
		t.Fatalf("cost computation failed: %v", err)
	}
	return NewGraphStore(nodes, edges, mapping)
}

func _TestReverse(line orb.LineString) orb.LineString {
	reversed := make(orb.LineString, len(line))
	for i, p := range line {
		reversed[len(line)-1-i] = p
	}
	return reversed
}

func _FastWalkSlot(t *testing.T, store *GraphStore) int {
	slot, ok := store.CostMapping().Slot(cost.CostKey{Mode: cost.WALK, Objective: cost.FAST})
	if !ok {
		t.Fatal("no fast walk slot")
	}
	return slot
}

//*******************************************
// shortest path
//*******************************************

func TestShortestPathSameLocation(t *testing.T) {
	store := _TestStore(t)
	_, err := store.ShortestPath(1, 1, _FastWalkSlot(t, store))
	if err != ErrSameLocation {
		t.Errorf("expected ErrSameLocation, got %v", err)
	}
}

func TestShortestPath(t *testing.T) {
	store := _TestStore(t)
	sequence, err := store.ShortestPath(0, 2, _FastWalkSlot(t, store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sequence.Length() != 2 || sequence[0] != 0 || sequence[1] != 2 {
		t.Errorf("expected edge sequence [0 2], got %v", sequence)
	}
	total := store.SequenceCost(sequence, _FastWalkSlot(t, store))
	if math.Abs(total-200) > 0.001 {
		t.Errorf("expected total length 200, got %v", total)
	}
}

func TestShortestPathNoPath(t *testing.T) {
	store := _TestStore(t)
	if _, err := store.ShortestPath(0, 4, _FastWalkSlot(t, store)); err != ErrNoPath {
		t.Errorf("expected ErrNoPath to isolated node, got %v", err)
	}
	if _, err := store.ShortestPath(0, 99, _FastWalkSlot(t, store)); err != ErrNoPath {
		t.Errorf("expected ErrNoPath for invalid node, got %v", err)
	}
	if _, err := store.ShortestPath(0, 2, 999); err != ErrNoPath {
		t.Errorf("expected ErrNoPath for invalid slot, got %v", err)
	}
}

//*******************************************
// nearest queries
//*******************************************

func TestFindNearestNode(t *testing.T) {
	store := _TestStore(t)
	id, dist, ok := store.FindNearestNode(orb.Point{95, 5})
	if !ok || id != 1 {
		t.Fatalf("expected node 1, got %v (found=%v)", id, ok)
	}
	if math.Abs(dist-math.Sqrt(50)) > 0.001 {
		t.Errorf("unexpected distance %v", dist)
	}
}

func TestFindNearestNodeTie(t *testing.T) {
	store := _TestStore(t)
	// equidistant to nodes 0 and 1, the lower id wins
	id, _, ok := store.FindNearestNode(orb.Point{50, 0})
	if !ok || id != 0 {
		t.Errorf("expected node 0 on tie, got %v (found=%v)", id, ok)
	}
}

func TestFindNearestNodeNotFound(t *testing.T) {
	store := _TestStore(t)
	if _, _, ok := store.FindNearestNode(orb.Point{5000, 5000}); ok {
		t.Error("expected no node beyond the largest search radius")
	}
}

func TestFindNearestEdge(t *testing.T) {
	store := _TestStore(t)
	// 30 m above the 1-2 segment; duplicate-geometry edge 6 must not win
	id, dist, ok := store.FindNearestEdge(orb.Point{150, 30})
	if !ok || id != 2 {
		t.Fatalf("expected edge 2, got %v (found=%v)", id, ok)
	}
	if math.Abs(dist-30) > 0.001 {
		t.Errorf("unexpected distance %v", dist)
	}
}

func TestFindNearestEdgeEscalation(t *testing.T) {
	store := _TestStore(t)
	// 40 m away: outside the strict 35 m radius, accepted at 150 m
	id, dist, ok := store.FindNearestEdge(orb.Point{150, 40})
	if !ok || id != 2 {
		t.Fatalf("expected edge 2, got %v (found=%v)", id, ok)
	}
	if math.Abs(dist-40) > 0.001 {
		t.Errorf("unexpected distance %v", dist)
	}
}

//*******************************************
// temporary mutation
//*******************************************

func TestRollbackRestoresCounts(t *testing.T) {
	store := _TestStore(t)
	base_nodes := store.NodeCount()
	base_edges := store.EdgeCount()
	slot := _FastWalkSlot(t, store)
	costs_before := append([]float64{}, store.GetEdge(0).Costs...)

	for cycle := 0; cycle < 5; cycle++ {
		node_id := store.AddTemporaryNode(orb.Point{150, 0})
		if int(node_id) != base_nodes {
			t.Fatalf("cycle %v: expected node id %v, got %v", cycle, base_nodes, node_id)
		}
		geom := orb.LineString{{150, 0}, {100, 0}}
		link_a := _TestEdge(node_id, 1, geom)
		link_b := _TestEdge(node_id, 2, orb.LineString{{150, 0}, {200, 0}})
		links := List[Edge]{link_a, link_b}
		if err := ComputeEdgeCosts(links, store.CostMapping(), _TestParams()); err != nil {
			t.Fatal(err)
		}
		edge_ids := store.AddTemporaryEdges(links)
		if edge_ids.Length() != 2 || int(edge_ids[0]) != base_edges {
			t.Fatalf("cycle %v: unexpected edge ids %v", cycle, edge_ids)
		}

		sequence, err := store.ShortestPath(node_id, 0, slot)
		if err != nil {
			t.Fatalf("cycle %v: routing from temp node failed: %v", cycle, err)
		}
		if sequence.Length() != 2 || sequence[0] != edge_ids[0] || sequence[1] != 1 {
			t.Errorf("cycle %v: unexpected sequence %v", cycle, sequence)
		}

		store.Rollback(List[int32]{node_id}, edge_ids)
		if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
			t.Fatalf("cycle %v: counts not restored: %v/%v nodes, %v/%v edges",
				cycle, store.NodeCount(), base_nodes, store.EdgeCount(), base_edges)
		}
	}

	costs_after := store.GetEdge(0).Costs
	for i := range costs_before {
		if costs_before[i] != costs_after[i] {
			t.Errorf("edge attributes changed by rollback cycles: slot %v %v != %v",
				i, costs_after[i], costs_before[i])
		}
	}
}

// Interleaved insertion/rollback cycles from concurrent requests must
// not destroy each other's temporary entities: one request's rollback
// truncates the arena tail, which is only its own because cycles hold
// the mutation claim end to end.
func TestConcurrentTemporaryCycles(t *testing.T) {
	store := _TestStore(t)
	base_nodes := store.NodeCount()
	base_edges := store.EdgeCount()
	slot := _FastWalkSlot(t, store)

	var wg sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cycle := 0; cycle < 50; cycle++ {
				store.BeginMutation()
				node_id := store.AddTemporaryNode(orb.Point{150, 0})
				links := List[Edge]{
					_TestEdge(node_id, 1, orb.LineString{{150, 0}, {100, 0}}),
					_TestEdge(node_id, 2, orb.LineString{{150, 0}, {200, 0}}),
				}
				if err := ComputeEdgeCosts(links, store.CostMapping(), _TestParams()); err != nil {
					t.Errorf("cost computation failed: %v", err)
				}
				edge_ids := store.AddTemporaryEdges(links)

				// the temporary node must still be this cycle's own
				if !store.IsNode(node_id) || store.GetNode(node_id).Point != (orb.Point{150, 0}) {
					t.Errorf("temporary node %v was destroyed by another request", node_id)
				}
				if _, err := store.ShortestPath(node_id, 0, slot); err != nil {
					t.Errorf("routing from temp node %v failed: %v", node_id, err)
				}

				store.Rollback(List[int32]{node_id}, edge_ids)
				if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
					t.Errorf("counts not restored: %v/%v nodes, %v/%v edges",
						store.NodeCount(), base_nodes, store.EdgeCount(), base_edges)
				}
				store.EndMutation()
			}
		}()
	}
	wg.Wait()

	if store.NodeCount() != base_nodes || store.EdgeCount() != base_edges {
		t.Errorf("counts drifted: %v/%v nodes, %v/%v edges",
			store.NodeCount(), base_nodes, store.EdgeCount(), base_edges)
	}
}

func TestUpdateEdgeAttributes(t *testing.T) {
	store := _TestStore(t)
	slot, ok := store.CostMapping().Slot(cost.CostKey{Mode: cost.WALK, Objective: cost.CLEAN, Sensitivity: 1})
	if !ok {
		t.Fatal("no clean walk slot")
	}
	edge := store.GetEdge(0)
	want := cost.AqiCost(edge.Length, 2.0, 1)

	store.UpdateEdgeAttributes(0, Some(2.0), []SlotValue{{Slot: slot, Value: want}})
	updated := store.GetEdge(0)
	if !updated.HasAqi || updated.Aqi != 2.0 {
		t.Errorf("aqi not applied: %+v", updated)
	}
	if updated.Costs[slot] != want {
		t.Errorf("cost slot not applied: %v != %v", updated.Costs[slot], want)
	}

	store.UpdateEdgeAttributes(0, None[float64](), []SlotValue{{Slot: slot, Value: cost.MissingAqiCost(edge.Length)}})
	cleared := store.GetEdge(0)
	if cleared.HasAqi {
		t.Error("aqi not cleared")
	}
	if cleared.Costs[slot] != cost.MissingAqiCost(edge.Length) {
		t.Errorf("punitive cost not applied: %v", cleared.Costs[slot])
	}
}

//*******************************************
// graph loading
//*******************************************

const _TestGraphML = `<?xml version="1.0" encoding="utf-8"?>
<graphml>
  <key id="d0" for="node" attr.name="x" attr.type="double"/>
  <key id="d1" for="node" attr.name="y" attr.type="double"/>
  <key id="d2" for="edge" attr.name="length" attr.type="double"/>
  <key id="d3" for="edge" attr.name="geometry" attr.type="string"/>
  <key id="d4" for="edge" attr.name="noises" attr.type="string"/>
  <key id="d5" for="edge" attr.name="bogus" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="0"><data key="d0">0.0</data><data key="d1">0.0</data></node>
    <node id="1"><data key="d0">100.0</data><data key="d1">0.0</data></node>
    <edge source="0" target="1">
      <data key="d2">100.0</data>
      <data key="d3">LINESTRING(0 0,100 0)</data>
      <data key="d4">{50: 40.0, 55: 20.0}</data>
      <data key="d5">ignored</data>
    </edge>
  </graph>
</graphml>`

func TestLoadGraphML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "graph.graphml")
	if err := os.WriteFile(file, []byte(_TestGraphML), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := Load(file, _TestMapping(), _TestParams())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if store.NodeCount() != 2 || store.EdgeCount() != 1 {
		t.Fatalf("unexpected counts: %v nodes, %v edges", store.NodeCount(), store.EdgeCount())
	}
	edge := store.GetEdge(0)
	if edge.Length != 100 {
		t.Errorf("unexpected length %v", edge.Length)
	}
	if edge.Noises[50] != 40 || edge.Noises[55] != 20 {
		t.Errorf("unexpected noises %v", edge.Noises)
	}
	// the synthesized lowest band closes the gap to the edge length
	total := 0.0
	for _, l := range edge.SynthesizedNoises() {
		total += l
	}
	if math.Abs(total-edge.Length) > 0.01 {
		t.Errorf("synthesized bands sum to %v, want %v", total, edge.Length)
	}
	if len(edge.Costs) != store.CostMapping().SlotCount() {
		t.Errorf("missing cost slots: %v != %v", len(edge.Costs), store.CostMapping().SlotCount())
	}
}

func TestLoadGraphMLEmpty(t *testing.T) {
	empty := `<?xml version="1.0"?><graphml><graph edgedefault="directed"></graph></graphml>`
	file := filepath.Join(t.TempDir(), "empty.graphml")
	if err := os.WriteFile(file, []byte(empty), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(file, _TestMapping(), _TestParams())
	if _, ok := err.(*GraphLoadError); !ok {
		t.Errorf("expected GraphLoadError, got %v", err)
	}
}
