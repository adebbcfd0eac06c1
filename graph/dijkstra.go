package graph

import (
	"math"

	. "github.com/greenpaths/gp-routing/util"
)

//*******************************************
// shortest path
//*******************************************

type _PQItem struct {
	node int32
	dist float64
}

type _NodeFlag struct {
	dist      float64
	prev_edge int32
	visited   bool
}

// Least-cost path from origin to dest over the cost slot, as an ordered
// edge-id sequence. All cost slots are non-negative by construction, so
// plain Dijkstra applies. Runs under the read lock; concurrent queries
// do not block each other.
func (self *GraphStore) ShortestPath(origin int32, dest int32, slot int) (List[int32], error) {
	if origin == dest {
		return nil, ErrSameLocation
	}
	self.mu.RLock()
	defer self.mu.RUnlock()

	if int(origin) >= len(self.nodes) || int(dest) >= len(self.nodes) || origin < 0 || dest < 0 {
		return nil, ErrNoPath
	}
	if slot < 0 || slot >= self.mapping.SlotCount() {
		return nil, ErrNoPath
	}

	flags := NewArray[_NodeFlag](len(self.nodes))
	for i := range flags {
		flags[i].dist = math.Inf(1)
		flags[i].prev_edge = -1
	}
	flags[origin].dist = 0

	heap := NewPriorityQueue[_PQItem, float64](100)
	heap.Enqueue(_PQItem{node: origin, dist: 0}, 0)

	for {
		item, ok := heap.Dequeue()
		if !ok {
			break
		}
		curr := item.node
		if flags[curr].visited {
			continue
		}
		flags[curr].visited = true
		if curr == dest {
			break
		}
		curr_dist := flags[curr].dist
		for _, ref := range self.fwd_edgerefs[curr] {
			edge := self.edges[ref.EdgeID]
			if slot >= len(edge.Costs) {
				continue
			}
			new_dist := curr_dist + edge.Costs[slot]
			other := flags[ref.OtherID]
			if new_dist < other.dist {
				flags[ref.OtherID].dist = new_dist
				flags[ref.OtherID].prev_edge = ref.EdgeID
				heap.Enqueue(_PQItem{node: ref.OtherID, dist: new_dist}, new_dist)
			}
		}
	}

	if !flags[dest].visited {
		return nil, ErrNoPath
	}

	// unwind prev-edge chain
	reversed := NewList[int32](16)
	curr := dest
	for curr != origin {
		edge_id := flags[curr].prev_edge
		if edge_id < 0 {
			return nil, ErrNoPath
		}
		reversed.Add(edge_id)
		curr = self.edges[edge_id].NodeA
	}
	edge_ids := NewList[int32](reversed.Length())
	for i := reversed.Length() - 1; i >= 0; i-- {
		edge_ids.Add(reversed[i])
	}
	return edge_ids, nil
}

// Weight of an edge sequence under the given cost slot; used for
// comparing alternative paths under a common weighting.
func (self *GraphStore) SequenceCost(edge_ids List[int32], slot int) float64 {
	self.mu.RLock()
	defer self.mu.RUnlock()
	total := 0.0
	for _, edge_id := range edge_ids {
		edge := self.edges[edge_id]
		if slot < len(edge.Costs) {
			total += edge.Costs[slot]
		}
	}
	return total
}
